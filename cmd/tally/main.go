// Command tally watches a running fishsim and prints a progress report each
// cycle. With an admin key it also keeps the best unlocked hat equipped and
// asks the server to snapshot the session.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/reelworks/internal/ledger"
	"github.com/talgya/reelworks/internal/observer"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Configuration from environment.
	apiURL := envOrDefault("FISHSIM_API_URL", "http://localhost:8080")
	adminKey := os.Getenv("FISHSIM_ADMIN_KEY")
	intervalSec := envIntOrDefault("TALLY_INTERVAL", 60)
	eventLimit := envIntOrDefault("TALLY_EVENTS", 10)

	interval := time.Duration(intervalSec) * time.Second

	slog.Info("tally starting",
		"api_url", apiURL,
		"interval", interval,
		"admin", adminKey != "",
	)

	obs := observer.NewObserver(apiURL)
	var actor *observer.Actor
	if adminKey != "" {
		actor = observer.NewActor(apiURL, adminKey)
	}

	slog.Info("waiting for fishsim API...")
	waitForAPI(obs)

	runCycle(obs, actor, eventLimit)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			runCycle(obs, actor, eventLimit)
		case sig := <-sigCh:
			slog.Info("received signal, shutting down", "signal", sig)
			fmt.Println("Tally stopped.")
			return
		}
	}
}

// runCycle executes one observe, report, act cycle.
func runCycle(obs *observer.Observer, actor *observer.Actor, eventLimit int) {
	snap, err := obs.Observe(eventLimit)
	if err != nil {
		slog.Error("observation failed", "error", err)
		return
	}
	fmt.Print(report(snap, time.Now()))

	if actor == nil {
		return
	}
	if best := observer.BestHat(snap.Hats); best != "" && best != snap.Status.Equipped {
		if err := actor.Equip(best); err != nil {
			slog.Error("equip failed", "hat", best, "error", err)
		} else {
			slog.Info("equipped hat", "hat", best, "previous", snap.Status.Equipped)
		}
	}
	if err := actor.Snapshot(); err != nil {
		slog.Error("snapshot failed", "error", err)
	}
}

// report renders a snapshot as plain text.
func report(snap *observer.Snapshot, now time.Time) string {
	var b strings.Builder
	st := snap.Status
	l := snap.Profile.Ledger

	fmt.Fprintf(&b, "== %s (%s) ==\n", st.Player, st.SimTime)
	fmt.Fprintf(&b, "hats %d/%d, species %d/%d, wearing %q\n",
		st.HatsUnlocked, st.HatsTotal, st.FishUnlocked, st.FishTotal, st.Equipped)
	fmt.Fprintf(&b, "catches %s (treasures %s), casts %s, line breaks %s\n",
		count(l, ledger.TotalCatches), count(l, ledger.Treasures),
		count(l, ledger.Casts), count(l, ledger.LineBreaks))
	fmt.Fprintf(&b, "weight %s kg, score %s, perfect games %s\n",
		humanize.FormatFloat("#,###.##", l.Counter(ledger.CumulativeWeightKg)),
		count(l, ledger.CumulativeScore), count(l, ledger.PerfectGames))
	fmt.Fprintf(&b, "points x%s\n", humanize.Ftoa(snap.Profile.Perks.PointsMultiplier))

	type tally struct {
		id string
		n  float64
	}
	var top []tally
	for id, n := range l.SpeciesCatches {
		top = append(top, tally{id, n})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].n != top[j].n {
			return top[i].n > top[j].n
		}
		return top[i].id < top[j].id
	})
	for i, t := range top {
		if i == 5 {
			break
		}
		fmt.Fprintf(&b, "  %s %s x%s\n", humanize.Ordinal(i+1), t.id, humanize.Comma(int64(t.n)))
	}

	for _, e := range snap.Events {
		fmt.Fprintf(&b, "  [%s] %s: %s\n", humanize.RelTime(e.Time, now, "ago", "from now"), e.Category, e.Description)
	}
	return b.String()
}

func count(s ledger.Snapshot, c ledger.Counter) string {
	return humanize.Comma(int64(s.Counter(c)))
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

// waitForAPI polls the status endpoint with exponential backoff until it
// responds. Exits after 5 minutes if the API never becomes ready.
func waitForAPI(obs *observer.Observer) {
	backoff := 2 * time.Second
	maxBackoff := 30 * time.Second
	deadline := time.Now().Add(5 * time.Minute)

	for !obs.Ready() {
		if time.Now().After(deadline) {
			slog.Error("fishsim API did not become ready within 5 minutes")
			os.Exit(1)
		}
		slog.Info("fishsim not ready, retrying...", "backoff", backoff)
		time.Sleep(backoff)
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
	slog.Info("fishsim API is ready")
}
