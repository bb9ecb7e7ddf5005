package main

import (
	"strings"
	"testing"
	"time"

	"github.com/talgya/reelworks/internal/engine"
	"github.com/talgya/reelworks/internal/ledger"
	"github.com/talgya/reelworks/internal/observer"
)

func TestReport(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	snap := &observer.Snapshot{
		Status: observer.Status{Player: "ana", SimTime: "Day 1, 0:10:00", HatsUnlocked: 2, HatsTotal: 19},
		Profile: observer.Profile{
			Ledger: ledger.Snapshot{
				Counters: map[ledger.Counter]float64{
					ledger.TotalCatches:    1234,
					ledger.CumulativeScore: 98765,
				},
				SpeciesCatches: map[string]float64{"🐟 Sardine": 1200, "🦀 Crabe": 34},
			},
		},
		Events: []engine.Event{{Time: now.Add(-3 * time.Minute), Category: "unlock", Description: "got a hat"}},
	}
	out := report(snap, now)
	for _, want := range []string{
		"== ana (Day 1, 0:10:00) ==",
		"catches 1,234",
		"score 98,765",
		"1st 🐟 Sardine x1,200",
		"2nd 🦀 Crabe x34",
		"3 minutes ago",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}
