// Package unlock decides which catalog entries a player has earned. The
// predicate checks are pure; Tracker adds the sticky grant set on top.
package unlock

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/talgya/reelworks/internal/catalog"
	"github.com/talgya/reelworks/internal/ledger"
)

// IsUnlocked reports whether snap satisfies p. Thresholds compare with >=.
// The store is consulted for all_species_caught and to reject references
// that a hand-built predicate makes to ids the catalog does not know.
func IsUnlocked(p catalog.Predicate, snap ledger.Snapshot, store *catalog.Store) (bool, error) {
	switch p := p.(type) {
	case catalog.Always:
		return true, nil
	case catalog.TotalCatchesAtLeast:
		return snap.Counter(ledger.TotalCatches) >= p.Value, nil
	case catalog.CatchesAtLeast:
		return snap.Counter(ledger.Catches) >= p.Value, nil
	case catalog.CastsAtLeast:
		return snap.Counter(ledger.Casts) >= p.Value, nil
	case catalog.SurfaceSecondsAtLeast:
		return snap.Counter(ledger.SurfaceSeconds) >= p.Value, nil
	case catalog.DeepVisitsAtLeast:
		return snap.Counter(ledger.DeepVisits) >= p.Value, nil
	case catalog.CumulativeWeightAtLeast:
		return snap.Counter(ledger.CumulativeWeightKg) >= p.Value, nil
	case catalog.CumulativeScoreAtLeast:
		return snap.Counter(ledger.CumulativeScore) >= p.Value, nil
	case catalog.LineBreaksAtLeast:
		return snap.Counter(ledger.LineBreaks) >= p.Value, nil
	case catalog.PlaySecondsAtLeast:
		return snap.Counter(ledger.PlaySeconds) >= p.Value, nil
	case catalog.PerfectGameScoreAtLeast:
		return snap.Counter(ledger.BestPerfectScore) >= p.Value, nil
	case catalog.PerfectGamesAtLeast:
		return snap.Counter(ledger.PerfectGames) >= p.Value, nil
	case catalog.TreasuresAtLeast:
		return snap.Counter(ledger.Treasures) >= p.Value, nil
	case catalog.TransformedCatchesAtLeast:
		return snap.Counter(ledger.TransformedCatches) >= p.Value, nil

	case catalog.CatchesSpeciesAtLeast:
		if store == nil {
			return false, noStore(p.Kind())
		}
		if _, ok := store.FishByID(p.SpeciesID); !ok {
			return false, catalog.UnknownReference(string(p.Kind()), "species", p.SpeciesID)
		}
		return snap.SpeciesCatches[p.SpeciesID] >= p.Value, nil
	case catalog.PatternDetectAtLeast:
		if !slices.Contains(catalog.BaitPatterns(), p.Pattern) {
			return false, catalog.UnknownReference(string(p.Kind()), "bait pattern", string(p.Pattern))
		}
		return snap.PatternDetections[p.Pattern] >= p.Value, nil
	case catalog.CatchesAtTimeOfDay:
		if !slices.Contains(catalog.Periods(), p.Period) {
			return false, catalog.UnknownReference(string(p.Kind()), "period", string(p.Period))
		}
		return snap.PeriodCatches[p.Period] >= p.Value, nil
	case catalog.CatchesInSeasonAtLeast:
		if !slices.Contains(catalog.Seasons(), p.Season) {
			return false, catalog.UnknownReference(string(p.Kind()), "season", string(p.Season))
		}
		return snap.SeasonCatches[p.Season] >= p.Value, nil

	case catalog.FastCatchesInTime:
		if p.Count < 1 || math.IsNaN(p.Seconds) || p.Seconds < 0 {
			return false, &catalog.ConfigurationError{
				Op:     string(p.Kind()),
				Reason: fmt.Sprintf("invalid window count=%d seconds=%g", p.Count, p.Seconds),
			}
		}
		return FastCatches(snap.RecentCatches, p.Count, p.Seconds), nil

	case catalog.AllSpeciesCaught:
		if store == nil {
			return false, noStore(p.Kind())
		}
		for _, id := range store.SpeciesIDs() {
			if snap.SpeciesCatches[id] <= 0 {
				return false, nil
			}
		}
		return true, nil

	case nil:
		return false, &catalog.ConfigurationError{Op: "evaluate", Reason: "nil predicate"}
	default:
		return false, &catalog.ConfigurationError{Op: "evaluate", Reason: fmt.Sprintf("unsupported predicate %T", p)}
	}
}

// FastCatches reports whether some window of the given length holds at
// least count of the timestamps. The input need not be sorted.
func FastCatches(timestamps []float64, count int, seconds float64) bool {
	if count < 1 || len(timestamps) < count {
		return false
	}
	ts := timestamps
	if !sort.Float64sAreSorted(ts) {
		ts = slices.Clone(timestamps)
		sort.Float64s(ts)
	}
	for i := 0; i+count-1 < len(ts); i++ {
		if ts[i+count-1]-ts[i] <= seconds {
			return true
		}
	}
	return false
}

// EvaluateAll returns the ids of every hat in store whose predicate holds
// for snap, in catalog order. It carries no memory of earlier grants; use
// a Tracker for that.
func EvaluateAll(store *catalog.Store, snap ledger.Snapshot) ([]string, error) {
	var ids []string
	for _, h := range store.Hats() {
		ok, err := IsUnlocked(h.Unlock, snap, store)
		if err != nil {
			return nil, fmt.Errorf("hat %s: %w", h.ID, err)
		}
		if ok {
			ids = append(ids, h.ID)
		}
	}
	return ids, nil
}

func noStore(kind catalog.PredicateKind) error {
	return &catalog.ConfigurationError{Op: string(kind), Reason: "no catalog to resolve against"}
}
