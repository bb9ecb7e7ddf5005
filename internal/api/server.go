// Package api provides the HTTP API for observing and steering a session.
// GET endpoints are public (read-only observation).
// POST endpoints other than spawn require a bearer token (admin control plane).
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/reelworks/internal/catalog"
	"github.com/talgya/reelworks/internal/engine"
	"github.com/talgya/reelworks/internal/persistence"
	"github.com/talgya/reelworks/internal/rng"
	"github.com/talgya/reelworks/internal/spawn"
)

// Server serves a session over HTTP.
type Server struct {
	Session  *engine.Session
	Eng      *engine.Engine  // nil when no simulation loop runs
	DB       *persistence.DB // nil disables snapshots
	Src      rng.Source      // draws for POST /spawn; must be safe for concurrent use
	Port     int
	AdminKey string // Bearer token for admin endpoints. Empty = admin disabled.

	// SpawnLimit caps POST /spawn per client IP per minute. 0 uses 60.
	SpawnLimit int
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	limit := s.SpawnLimit
	if limit <= 0 {
		limit = 60
	}
	spawnLimiter := NewRateLimiter(limit, time.Minute)

	mux := http.NewServeMux()

	// Public endpoints.
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/catalog/fish", s.handleCatalogFish)
	mux.HandleFunc("/api/v1/catalog/hats", s.handleCatalogHats)
	mux.HandleFunc("/api/v1/profile", s.handleProfile)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/spawn", RateLimitMiddleware(spawnLimiter, s.handleSpawn))

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/equip", s.adminOnly(s.handleEquip))
	mux.HandleFunc("/api/v1/snapshot", s.adminOnly(s.handleSnapshot))
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	handler := s.Handler()
	go func() {
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through (for endpoints that support both GET and POST).
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no FISHSIM_ADMIN_KEY set)", http.StatusForbidden)
				return
			}

			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}

		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	clock := s.Session.Clock()
	unlocked := s.Session.Unlocked()
	store := s.Session.Store()

	status := map[string]any{
		"player":        s.Session.Name,
		"player_id":     s.Session.PlayerID,
		"clock":         clock,
		"sim_time":      engine.SimTime(uint64(clock)),
		"equipped":      s.Session.Equipped(),
		"hats_unlocked": len(unlocked.Hats),
		"hats_total":    len(store.HatIDs()),
		"fish_unlocked": len(unlocked.Fish),
		"fish_total":    len(store.SpeciesIDs()),
	}
	if s.Eng != nil {
		status["speed"] = s.Eng.Speed()
		status["running"] = s.Eng.Running()
	}
	writeJSON(w, status)
}

type unlockView struct {
	Type   catalog.PredicateKind `json:"type"`
	Params catalog.Predicate     `json:"params,omitempty"`
	Text   string                `json:"text,omitempty"`
}

func newUnlockView(p catalog.Predicate, text string) unlockView {
	v := unlockView{Type: p.Kind(), Text: text}
	switch p.(type) {
	case catalog.Always, catalog.AllSpeciesCaught:
	default:
		v.Params = p
	}
	return v
}

func (s *Server) handleCatalogFish(w http.ResponseWriter, r *http.Request) {
	type fishView struct {
		ID          string              `json:"id"`
		Name        string              `json:"name"`
		Class       catalog.Class       `json:"class"`
		Size        catalog.Range       `json:"size"`
		Depth       catalog.Range       `json:"depth"`
		BaitPattern catalog.BaitPattern `json:"bait_pattern"`
		SpawnWeight float64             `json:"spawn_weight"`
		Unlock      unlockView          `json:"unlock"`
		Unlocked    bool                `json:"unlocked"`
	}

	unlocked := make(map[string]bool)
	for _, id := range s.Session.Unlocked().Fish {
		unlocked[id] = true
	}
	fish := s.Session.Store().Fish()
	out := make([]fishView, 0, len(fish))
	for _, f := range fish {
		out = append(out, fishView{
			ID:          f.ID,
			Name:        f.Name,
			Class:       f.Class,
			Size:        f.SizeRange,
			Depth:       f.DepthRange,
			BaitPattern: f.BaitPattern,
			SpawnWeight: f.SpawnWeight,
			Unlock:      newUnlockView(f.Unlock, f.UnlockText),
			Unlocked:    unlocked[f.ID],
		})
	}
	writeJSON(w, out)
}

func (s *Server) handleCatalogHats(w http.ResponseWriter, r *http.Request) {
	type hatView struct {
		ID       string        `json:"id"`
		Name     string        `json:"name"`
		Rarity   string        `json:"rarity"`
		Unlock   unlockView    `json:"unlock"`
		Perks    catalog.Perks `json:"perks"`
		Unlocked bool          `json:"unlocked"`
		Equipped bool          `json:"equipped"`
	}

	unlocked := make(map[string]bool)
	for _, id := range s.Session.Unlocked().Hats {
		unlocked[id] = true
	}
	equipped := s.Session.Equipped()
	hats := s.Session.Store().Hats()
	out := make([]hatView, 0, len(hats))
	for _, h := range hats {
		out = append(out, hatView{
			ID:       h.ID,
			Name:     h.Name,
			Rarity:   h.Rarity.String(),
			Unlock:   newUnlockView(h.Unlock, h.UnlockText),
			Perks:    h.Perks,
			Unlocked: unlocked[h.ID],
			Equipped: h.ID == equipped,
		})
	}
	writeJSON(w, out)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	set, err := s.Session.Perks()
	if err != nil {
		slog.Error("perk aggregation failed", "error", err)
		http.Error(w, "perk aggregation failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{
		"player_id": s.Session.PlayerID,
		"name":      s.Session.Name,
		"ledger":    s.Session.Snapshot(),
		"unlocked":  s.Session.Unlocked(),
		"perks":     set,
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	events := s.Session.Events(limit)

	// Optional category filter.
	if category := r.URL.Query().Get("category"); category != "" {
		filtered := events[:0]
		for _, e := range events {
			if e.Category == category {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	writeJSON(w, events)
}

func (s *Server) handleSpawn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var ctx spawn.Context
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&ctx); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
	}
	if ctx.Bait == "" {
		ctx.Bait = catalog.PatternAny
	}

	inst, err := s.Session.Spawn(ctx, s.Src)
	var none *spawn.NoEligibleSpeciesError
	switch {
	case errors.As(err, &none):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"error": none.Error(), "reason": none.Reason})
		return
	case err != nil:
		slog.Error("spawn failed", "error", err)
		http.Error(w, "spawn failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, inst)
}

func (s *Server) handleEquip(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, map[string]string{"equipped": s.Session.Equipped()})
		return
	}

	var req struct {
		Hat string `json:"hat"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := s.Session.Equip(req.Hat); err != nil {
		var cerr *catalog.ConfigurationError
		if errors.As(err, &cerr) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, "equip failed", http.StatusInternalServerError)
		return
	}
	slog.Info("hat equipped", "player", s.Session.Name, "hat", req.Hat)
	writeJSON(w, map[string]string{"equipped": req.Hat})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	if err := s.DB.SaveSession(s.Session); err != nil {
		slog.Error("snapshot save failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"clock":   s.Session.Clock(),
		"message": "snapshot saved",
	})
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if s.Eng == nil {
		http.Error(w, "no simulation running", http.StatusServiceUnavailable)
		return
	}
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > 1000 {
			http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
			return
		}
		s.Eng.SetSpeed(req.Speed)
		slog.Info("speed changed", "speed", req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
