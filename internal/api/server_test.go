package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/talgya/reelworks/internal/catalog"
	"github.com/talgya/reelworks/internal/engine"
	"github.com/talgya/reelworks/internal/persistence"
	"github.com/talgya/reelworks/internal/rng"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	store, err := catalog.LoadFile("")
	if err != nil {
		t.Fatal(err)
	}
	sess, err := engine.NewSession(store, "tester")
	if err != nil {
		t.Fatal(err)
	}
	return &Server{
		Session:  sess,
		Eng:      engine.NewEngine(),
		Src:      rng.NewLocked(rng.Seeded(1, "api")),
		AdminKey: "secret",
	}
}

func do(t *testing.T, h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestStatus(t *testing.T) {
	s := testServer(t)
	rec := do(t, s.Handler(), http.MethodGet, "/api/v1/status", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["player"] != "tester" || body["hats_unlocked"].(float64) < 1 {
		t.Fatalf("unexpected status %v", body)
	}
}

func TestCatalogHatsMarksUnlocked(t *testing.T) {
	s := testServer(t)
	rec := do(t, s.Handler(), http.MethodGet, "/api/v1/catalog/hats", "", "")
	var hats []struct {
		ID       string `json:"id"`
		Unlocked bool   `json:"unlocked"`
		Unlock   struct {
			Type string `json:"type"`
		} `json:"unlock"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &hats); err != nil {
		t.Fatal(err)
	}
	if len(hats) != len(s.Session.Store().Hats()) {
		t.Fatalf("expected every hat, got %d", len(hats))
	}
	for _, h := range hats {
		if h.Unlocked != (h.Unlock.Type == string(catalog.KindAlways)) {
			t.Errorf("hat %s unlocked=%v with predicate %s on a new player", h.ID, h.Unlocked, h.Unlock.Type)
		}
	}
}

func TestCatalogUnlockParamsAreSnakeCase(t *testing.T) {
	s := testServer(t)
	rec := do(t, s.Handler(), http.MethodGet, "/api/v1/catalog/hats", "", "")
	var hats []struct {
		ID     string `json:"id"`
		Unlock struct {
			Params map[string]any `json:"params"`
		} `json:"unlock"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &hats); err != nil {
		t.Fatal(err)
	}
	want := map[string][]string{
		"chapeau_eclair":  {"count", "seconds"},
		"chapeau_meduse":  {"species", "value"},
		"casquette_marin": {"value"},
	}
	seen := 0
	for _, h := range hats {
		keys, ok := want[h.ID]
		if !ok {
			continue
		}
		seen++
		for _, k := range keys {
			if _, ok := h.Unlock.Params[k]; !ok {
				t.Errorf("hat %s params %v missing %q", h.ID, h.Unlock.Params, k)
			}
		}
		for k := range h.Unlock.Params {
			if k != strings.ToLower(k) {
				t.Errorf("hat %s has non snake_case param %q", h.ID, k)
			}
		}
	}
	if seen != len(want) {
		t.Fatalf("expected %d hats checked, saw %d", len(want), seen)
	}
}

func TestCatalogFish(t *testing.T) {
	s := testServer(t)
	rec := do(t, s.Handler(), http.MethodGet, "/api/v1/catalog/fish", "", "")
	var fish []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &fish); err != nil {
		t.Fatal(err)
	}
	if len(fish) != len(s.Session.Store().Fish()) {
		t.Fatalf("expected every species, got %d", len(fish))
	}
}

func TestSpawn(t *testing.T) {
	s := testServer(t)
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/api/v1/spawn", `{"depth": 5, "bait": "any"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var inst struct {
		SpeciesID string  `json:"species_id"`
		Size      float64 `json:"size"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &inst); err != nil {
		t.Fatal(err)
	}
	if inst.SpeciesID == "" {
		t.Fatal("expected a species")
	}

	rec = do(t, h, http.MethodPost, "/api/v1/spawn", `{"depth": 5000}`, "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unreachable depth, got %d", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/spawn", "", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestSpawnRateLimited(t *testing.T) {
	s := testServer(t)
	s.SpawnLimit = 2
	h := s.Handler()
	for i := 0; i < 2; i++ {
		if rec := do(t, h, http.MethodPost, "/api/v1/spawn", `{"depth": 5}`, ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i, rec.Code)
		}
	}
	rec := do(t, h, http.MethodPost, "/api/v1/spawn", `{"depth": 5}`, "")
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected 429 with Retry-After, got %d", rec.Code)
	}
}

func TestAdminAuth(t *testing.T) {
	s := testServer(t)
	h := s.Handler()
	if rec := do(t, h, http.MethodPost, "/api/v1/speed", `{"speed": 2}`, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/v1/speed", `{"speed": 2}`, "wrong"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	rec := do(t, h, http.MethodPost, "/api/v1/speed", `{"speed": 2}`, "secret")
	if rec.Code != http.StatusOK || s.Eng.Speed() != 2 {
		t.Fatalf("speed not changed: %d %g", rec.Code, s.Eng.Speed())
	}
	if rec := do(t, h, http.MethodPost, "/api/v1/speed", `{"speed": -1}`, "secret"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	s.AdminKey = ""
	if rec := do(t, s.Handler(), http.MethodPost, "/api/v1/speed", `{"speed": 2}`, "secret"); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 with admin disabled, got %d", rec.Code)
	}
}

func TestEquip(t *testing.T) {
	s := testServer(t)
	h := s.Handler()
	if rec := do(t, h, http.MethodPost, "/api/v1/equip", `{"hat": "couronne_neptune"}`, "secret"); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for locked hat, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/v1/equip", `{"hat": "chapeau_paille"}`, "secret"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if s.Session.Equipped() != "chapeau_paille" {
		t.Fatal("hat not equipped")
	}
	rec := do(t, h, http.MethodGet, "/api/v1/profile", "", "")
	var prof struct {
		Perks struct {
			Equipped string `json:"equipped"`
		} `json:"perks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &prof); err != nil {
		t.Fatal(err)
	}
	if prof.Perks.Equipped != "chapeau_paille" {
		t.Fatalf("profile perks missing equipped hat: %s", rec.Body.String())
	}
}

func TestEventsFilter(t *testing.T) {
	s := testServer(t)
	_ = s.Session.Equip("chapeau_paille")
	rec := do(t, s.Handler(), http.MethodGet, "/api/v1/events?category=equip&limit=10", "", "")
	var events []engine.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &events); err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Category != "equip" {
		t.Fatalf("expected one equip event, got %+v", events)
	}
}

func TestSnapshot(t *testing.T) {
	s := testServer(t)
	if rec := do(t, s.Handler(), http.MethodPost, "/api/v1/snapshot", "", "secret"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without db, got %d", rec.Code)
	}

	db, err := persistence.Open(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	s.DB = db
	if rec := do(t, s.Handler(), http.MethodPost, "/api/v1/snapshot", "", "secret"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if _, err := db.LoadProfile("tester"); err != nil {
		t.Fatalf("snapshot not stored: %v", err)
	}
}

func TestRateLimiterWindow(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	if !rl.Allow("a") || rl.Allow("a") {
		t.Fatal("expected one request per window")
	}
	if !rl.Allow("b") {
		t.Fatal("buckets must be per ip")
	}
	if got := rl.RetryAfter("a"); got != 61 {
		t.Fatalf("RetryAfter = %d", got)
	}
	now = now.Add(time.Minute)
	if !rl.Allow("a") {
		t.Fatal("window did not reset")
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	if got := clientIP(r); got != "10.0.0.1" {
		t.Fatalf("clientIP = %q", got)
	}
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := clientIP(r); got != "203.0.113.9" {
		t.Fatalf("clientIP = %q", got)
	}
}
