// Command fishsim runs an automated angler against the fish and hat catalog,
// persists the player's progress, and serves it over HTTP.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/talgya/reelworks/internal/api"
	"github.com/talgya/reelworks/internal/catalog"
	"github.com/talgya/reelworks/internal/engine"
	"github.com/talgya/reelworks/internal/persistence"
	"github.com/talgya/reelworks/internal/rng"
	"github.com/talgya/reelworks/internal/waters"
	"github.com/talgya/reelworks/internal/weather"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	dbPath := envOrDefault("FISHSIM_DB", "data/reelworks.db")
	apiPort := envIntOrDefault("FISHSIM_PORT", 8080)
	catalogPath := os.Getenv("FISHSIM_CATALOG")
	player := envOrDefault("FISHSIM_PLAYER", "angler")
	speed := envFloatOrDefault("FISHSIM_SPEED", 1)

	// ── Catalog ───────────────────────────────────────────────────────
	store, err := catalog.LoadFile(catalogPath)
	if err != nil {
		slog.Error("failed to load catalog", "path", catalogPath, "error", err)
		os.Exit(1)
	}
	slog.Info("catalog loaded",
		"species", len(store.SpeciesIDs()),
		"hats", len(store.HatIDs()),
		"default_species", store.DefaultSpecies().ID,
	)

	// ── Database ──────────────────────────────────────────────────────
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		slog.Error("failed to create data directory", "error", err)
		os.Exit(1)
	}
	db, err := persistence.Open(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", dbPath)

	// The seed and calendar epoch are fixed on first run so a resumed
	// session sees the same waters and the same seasons.
	seed := int64(envIntOrDefault("FISHSIM_SEED", 0))
	if saved, err := db.GetMeta("seed"); err == nil && seed == 0 {
		if s, err := strconv.ParseInt(saved, 10, 64); err == nil {
			seed = s
		}
	}
	seed = rng.Resolve(seed)
	epoch := time.Now().UTC().Truncate(time.Second)
	if saved, err := db.GetMeta("epoch"); err == nil {
		if t, err := time.Parse(time.RFC3339, saved); err == nil {
			epoch = t
		}
	}
	if err := db.SaveMeta("seed", strconv.FormatInt(seed, 10)); err != nil {
		slog.Error("failed to save seed", "error", err)
	}
	if err := db.SaveMeta("epoch", epoch.Format(time.RFC3339)); err != nil {
		slog.Error("failed to save epoch", "error", err)
	}

	// ── Load or Create Session ────────────────────────────────────────
	var sess *engine.Session
	profile, err := db.LoadProfile(player)
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		slog.Info("no saved profile found, starting fresh", "player", player)
		sess, err = engine.NewSession(store, player)
	case err != nil:
		slog.Error("failed to load profile", "player", player, "error", err)
		os.Exit(1)
	default:
		slog.Info("found saved profile, restoring...", "player", player)
		sess, err = engine.RestoreSession(store, profile)
	}
	if err != nil {
		slog.Error("failed to build session", "error", err)
		os.Exit(1)
	}
	unlocked := sess.Unlocked()
	slog.Info("session ready",
		"player", sess.Name,
		"player_id", sess.PlayerID,
		"clock", sess.Clock(),
		"hats", len(unlocked.Hats),
		"species", len(unlocked.Fish),
		"seed", seed,
	)

	// ── Simulation ────────────────────────────────────────────────────
	wcfg := waters.DefaultConfig()
	wcfg.Seed = seed
	cal := engine.Calendar{Epoch: epoch}
	resumeTick := uint64(math.Max(0, sess.Clock()))
	sim := engine.NewSimulation(sess, waters.NewField(wcfg), cal, rng.Resumed(seed, "angler", resumeTick))

	sim.Weather = weather.NewClient(os.Getenv("OPENWEATHER_API_KEY"), os.Getenv("FISHSIM_LOCATION"))
	if sim.Weather != nil {
		slog.Info("weather client enabled")
	} else {
		slog.Warn("OPENWEATHER_API_KEY not set, fishing under a calm sky")
	}

	eng := engine.NewEngine()
	eng.SetSpeed(speed)
	sim.Attach(eng)

	// Auto-save every sim-hour.
	eng.OnHour = func(tick uint64) {
		sim.TickHour(tick)
		if err := db.SaveSession(sess); err != nil {
			slog.Error("hourly save failed", "error", err)
		}
	}

	// Save on fresh sessions so the player shows up immediately.
	if sess.Clock() == 0 {
		if err := db.SaveSession(sess); err != nil {
			slog.Error("initial save failed", "error", err)
		}
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	adminKey := os.Getenv("FISHSIM_ADMIN_KEY")
	if adminKey == "" {
		slog.Warn("FISHSIM_ADMIN_KEY not set, admin POST endpoints will be disabled")
	}

	apiServer := &api.Server{
		Session:    sess,
		Eng:        eng,
		DB:         db,
		Src:        rng.NewLocked(rng.Seeded(seed, "api")),
		Port:       apiPort,
		AdminKey:   adminKey,
		SpawnLimit: envIntOrDefault("FISHSIM_SPAWN_LIMIT", 60),
	}
	apiServer.Start()

	// ── Start ─────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		eng.Stop()
	}()

	fmt.Printf("\n%s is fishing: %d/%d hats, %d/%d species.\n",
		sess.Name, len(unlocked.Hats), len(store.HatIDs()), len(unlocked.Fish), len(store.SpeciesIDs()))
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", apiPort)
	if eng.Tick > 0 {
		fmt.Printf("Resuming from tick %d (%s)\n", eng.Tick, engine.SimTime(eng.Tick))
	}
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	eng.Run()

	// Final save on shutdown.
	slog.Info("final save...")
	if err := db.SaveSession(sess); err != nil {
		slog.Error("final save failed", "error", err)
	}

	fmt.Println("Simulation stopped. Session saved.")
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func envFloatOrDefault(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
