// Package weather ties the angler to real-world conditions. It polls
// OpenWeatherMap for one location and turns the reading into bite and
// line-break modifiers.
package weather

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/talgya/reelworks/internal/catalog"
)

// DefaultBaseURL is the OpenWeatherMap current-weather endpoint.
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

const (
	freshFor   = 5 * time.Minute
	minBackoff = time.Minute
	maxBackoff = 10 * time.Minute
	stormWind  = 15.0
)

// Kind classifies a reading.
type Kind string

const (
	Clear Kind = "clear"
	Rain  Kind = "rain"
	Snow  Kind = "snow"
	Storm Kind = "storm"
)

// Conditions is one reading for the configured location. Temp is in
// Celsius and WindSpeed in m/s; wind above stormWind counts as a storm.
type Conditions struct {
	Kind        Kind    `json:"kind"`
	Temp        float64 `json:"temp"`
	WindSpeed   float64 `json:"wind_speed"`
	Description string  `json:"description"`
}

// Client polls one location. A stale reading is served while the API is
// failing; repeated failures double the wait up to maxBackoff.
type Client struct {
	BaseURL string

	apiKey   string
	location string
	http     *http.Client

	mu      sync.Mutex
	last    *Conditions
	lastAt  time.Time
	retryAt time.Time
	backoff time.Duration
	now     func() time.Time
}

// NewClient returns nil when apiKey is empty, which the simulation reads
// as "no weather".
func NewClient(apiKey, location string) *Client {
	if apiKey == "" {
		return nil
	}
	if location == "" {
		location = "Marseille,FR"
	}
	return &Client{
		BaseURL:  DefaultBaseURL,
		apiKey:   apiKey,
		location: location,
		http:     &http.Client{Timeout: 10 * time.Second},
		now:      time.Now,
	}
}

// Fetch returns the current conditions.
func (c *Client) Fetch() (*Conditions, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.last != nil && now.Sub(c.lastAt) < freshFor {
		return c.last, nil
	}
	if now.Before(c.retryAt) {
		if c.last != nil {
			return c.last, nil
		}
		return nil, fmt.Errorf("weather: waiting %s before retrying", c.retryAt.Sub(now).Round(time.Second))
	}

	cond, err := c.request()
	if err != nil {
		c.backoff = min(max(2*c.backoff, minBackoff), maxBackoff)
		c.retryAt = now.Add(c.backoff)
		if c.last != nil {
			slog.Warn("weather fetch failed, keeping last reading", "error", err)
			return c.last, nil
		}
		return nil, err
	}

	c.last, c.lastAt = cond, now
	c.backoff, c.retryAt = 0, time.Time{}
	return cond, nil
}

type owmReading struct {
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

func (c *Client) request() (*Conditions, error) {
	q := url.Values{}
	q.Set("q", c.location)
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")

	resp, err := c.http.Get(c.BaseURL + "?" + q.Encode())
	if err != nil {
		return nil, fmt.Errorf("weather: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("weather: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var r owmReading
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("weather: decode: %w", err)
	}

	cond := &Conditions{Kind: Clear, Temp: r.Main.Temp, WindSpeed: r.Wind.Speed}
	if len(r.Weather) > 0 {
		cond.Description = r.Weather[0].Description
		switch strings.ToLower(r.Weather[0].Main) {
		case "thunderstorm", "squall", "tornado":
			cond.Kind = Storm
		case "snow":
			cond.Kind = Snow
		case "rain", "drizzle":
			cond.Kind = Rain
		}
	}
	if cond.WindSpeed > stormWind {
		cond.Kind = Storm
	}

	slog.Debug("weather fetched", "location", c.location, "kind", cond.Kind, "temp", cond.Temp)
	return cond, nil
}

// Sky holds the fishing modifiers derived from a reading.
type Sky struct {
	BiteMod      float64 // multiplier on bite chance
	LineBreakMod float64 // multiplier on line-break chance
	Description  string
}

// Calm is the neutral sky used before the first reading or without a
// client.
func Calm(season catalog.Season) Sky {
	return Sky{BiteMod: 1, LineBreakMod: 1, Description: calmText[season]}
}

var calmText = map[catalog.Season]string{
	catalog.SeasonSpring: "calm spring water",
	catalog.SeasonSummer: "flat summer sea",
	catalog.SeasonAutumn: "grey autumn swell",
	catalog.SeasonWinter: "cold still water",
}

// MapToWater converts a reading to fishing modifiers. A nil reading gives
// the calm sky for the season.
func MapToWater(c *Conditions, season catalog.Season) Sky {
	if c == nil {
		return Calm(season)
	}
	sky := Sky{BiteMod: 1, LineBreakMod: 1, Description: c.Description}
	if sky.Description == "" {
		sky.Description = string(c.Kind)
	}

	// Fish feed best in mild water.
	switch {
	case c.Temp < 0 || c.Temp > 32:
		sky.BiteMod = 0.7
	case c.Temp < 8 || c.Temp > 27:
		sky.BiteMod = 0.85
	}

	switch c.Kind {
	case Storm:
		sky.BiteMod *= 0.6
		sky.LineBreakMod = 1.8
	case Snow:
		sky.BiteMod *= 0.8
		sky.LineBreakMod = 1.2
	case Rain:
		sky.BiteMod *= 1.2
	}
	return sky
}
