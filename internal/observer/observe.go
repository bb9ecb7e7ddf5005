// Package observer is an HTTP client for a running fishsim API. It observes
// a player's progress, picks the hat worth wearing, and acts through the
// admin endpoints.
package observer

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/talgya/reelworks/internal/catalog"
	"github.com/talgya/reelworks/internal/engine"
	"github.com/talgya/reelworks/internal/ledger"
	"github.com/talgya/reelworks/internal/perks"
	"github.com/talgya/reelworks/internal/unlock"
)

// Snapshot holds all data collected during an observation cycle.
type Snapshot struct {
	Status  Status         `json:"status"`
	Profile Profile        `json:"profile"`
	Hats    []HatInfo      `json:"hats"`
	Events  []engine.Event `json:"events"`
}

// Status mirrors GET /api/v1/status.
type Status struct {
	Player       string  `json:"player"`
	PlayerID     string  `json:"player_id"`
	Clock        float64 `json:"clock"`
	SimTime      string  `json:"sim_time"`
	Equipped     string  `json:"equipped"`
	HatsUnlocked int     `json:"hats_unlocked"`
	HatsTotal    int     `json:"hats_total"`
	FishUnlocked int     `json:"fish_unlocked"`
	FishTotal    int     `json:"fish_total"`
	Speed        float64 `json:"speed"`
	Running      bool    `json:"running"`
}

// Profile mirrors GET /api/v1/profile.
type Profile struct {
	PlayerID string          `json:"player_id"`
	Name     string          `json:"name"`
	Ledger   ledger.Snapshot `json:"ledger"`
	Unlocked unlock.Result   `json:"unlocked"`
	Perks    perks.Set       `json:"perks"`
}

// HatInfo mirrors items from GET /api/v1/catalog/hats.
type HatInfo struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Rarity   string        `json:"rarity"`
	Perks    catalog.Perks `json:"perks"`
	Unlocked bool          `json:"unlocked"`
	Equipped bool          `json:"equipped"`
	Unlock   UnlockInfo    `json:"unlock"`
}

// UnlockInfo is the display part of an unlock condition.
type UnlockInfo struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Observer fetches session state from the API.
type Observer struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewObserver creates an Observer targeting the given API base URL.
func NewObserver(baseURL string) *Observer {
	return &Observer{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Observe fetches status, profile, hats and recent events.
func (o *Observer) Observe(eventLimit int) (*Snapshot, error) {
	snap := &Snapshot{}

	if err := o.fetchJSON("/api/v1/status", &snap.Status); err != nil {
		return nil, fmt.Errorf("fetch status: %w", err)
	}
	if err := o.fetchJSON("/api/v1/profile", &snap.Profile); err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	if err := o.fetchJSON("/api/v1/catalog/hats", &snap.Hats); err != nil {
		return nil, fmt.Errorf("fetch hats: %w", err)
	}
	if err := o.fetchJSON(fmt.Sprintf("/api/v1/events?limit=%d", eventLimit), &snap.Events); err != nil {
		return nil, fmt.Errorf("fetch events: %w", err)
	}

	return snap, nil
}

// Ready reports whether the status endpoint answers.
func (o *Observer) Ready() bool {
	resp, err := o.HTTPClient.Get(o.BaseURL + "/api/v1/status")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// fetchJSON GETs a path and decodes the JSON response into target.
func (o *Observer) fetchJSON(path string, target any) error {
	resp, err := o.HTTPClient.Get(o.BaseURL + path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s returned %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
