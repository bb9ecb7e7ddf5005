package unlock

import (
	"errors"
	"testing"

	"github.com/talgya/reelworks/internal/catalog"
	"github.com/talgya/reelworks/internal/ledger"
)

func ptr[T any](v T) *T { return &v }

func smallStore(t *testing.T) *catalog.Store {
	t.Helper()
	fish := []catalog.RawFish{
		{ID: "🐟 Sardine", BaitPattern: "any", SpawnWeight: 1, Unlock: catalog.RawUnlock{Type: "always"}},
		{ID: "🦑 Calmar", BaitPattern: "any", SpawnWeight: 1, Unlock: catalog.RawUnlock{Type: "catches_at_least", Value: ptr(2.0)}},
	}
	hats := []catalog.RawHat{
		{ID: "paille", Unlock: catalog.RawUnlock{Type: "always"}},
		{ID: "eclair", Unlock: catalog.RawUnlock{Type: "fast_catches_in_time", Count: ptr(3), Seconds: ptr(5.0)}},
		{ID: "couronne", Unlock: catalog.RawUnlock{Type: "all_species_caught"}},
	}
	store, err := catalog.Load(fish, hats)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return store
}

func TestFastCatchesWindow(t *testing.T) {
	tests := []struct {
		name    string
		ts      []float64
		count   int
		seconds float64
		want    bool
	}{
		{"early cluster", []float64{0, 1, 2, 3, 4, 20, 21, 22, 23, 24}, 5, 10, true},
		{"evenly spaced", []float64{0, 3, 6, 9, 12}, 5, 10, false},
		{"exact boundary", []float64{0, 3, 6, 9, 12}, 5, 12, true},
		{"unsorted input", []float64{24, 3, 22, 0, 21, 20, 23}, 5, 4, true},
		{"too few", []float64{1, 2}, 3, 100, false},
		{"single catch", []float64{7}, 1, 0, true},
		{"empty", nil, 1, 10, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FastCatches(tt.ts, tt.count, tt.seconds); got != tt.want {
				t.Errorf("FastCatches(%v, %d, %g) = %v, want %v", tt.ts, tt.count, tt.seconds, got, tt.want)
			}
		})
	}
}

func TestFastCatchesDoesNotReorderInput(t *testing.T) {
	ts := []float64{3, 1, 2}
	FastCatches(ts, 2, 1)
	if ts[0] != 3 || ts[1] != 1 || ts[2] != 2 {
		t.Fatalf("input was modified: %v", ts)
	}
}

func TestCounterPredicatesAreMonotone(t *testing.T) {
	store := smallStore(t)
	preds := []catalog.Predicate{
		catalog.TotalCatchesAtLeast{Value: 3},
		catalog.CatchesAtLeast{Value: 3},
		catalog.CastsAtLeast{Value: 3},
		catalog.SurfaceSecondsAtLeast{Value: 3},
		catalog.DeepVisitsAtLeast{Value: 3},
		catalog.CumulativeWeightAtLeast{Value: 3},
		catalog.CumulativeScoreAtLeast{Value: 3},
		catalog.LineBreaksAtLeast{Value: 3},
		catalog.PlaySecondsAtLeast{Value: 3},
		catalog.PerfectGameScoreAtLeast{Value: 3},
		catalog.PerfectGamesAtLeast{Value: 3},
		catalog.TreasuresAtLeast{Value: 3},
		catalog.TransformedCatchesAtLeast{Value: 3},
		catalog.CatchesSpeciesAtLeast{SpeciesID: "🦑 Calmar", Value: 3},
		catalog.PatternDetectAtLeast{Pattern: catalog.PatternBottom, Value: 3},
		catalog.CatchesAtTimeOfDay{Period: catalog.PeriodDusk, Value: 3},
		catalog.CatchesInSeasonAtLeast{Season: catalog.SeasonAutumn, Value: 3},
	}

	l := ledger.New()
	step := func() {
		_ = l.RecordCatch(ledger.Catch{SpeciesID: "🦑 Calmar", Class: catalog.ClassFish, WeightKg: 1, Score: 1,
			Period: catalog.PeriodDusk, Season: catalog.SeasonAutumn})
		_ = l.RecordCatch(ledger.Catch{SpeciesID: "💎", Class: catalog.ClassTreasure})
		l.RecordCast()
		l.RecordDeepVisit()
		l.RecordLineBreak()
		l.RecordTransformedCatch()
		l.RecordPatternDetected(catalog.PatternBottom)
		_ = l.AddSurfaceSeconds(1)
		_ = l.AddPlaySeconds(1)
		_ = l.RecordPerfectGame(1 + l.Snapshot().Counter(ledger.BestPerfectScore))
	}

	for _, p := range preds {
		ok, err := IsUnlocked(p, l.Snapshot(), store)
		if err != nil {
			t.Fatalf("%s: %v", p.Kind(), err)
		}
		if ok {
			t.Fatalf("%s held on an empty ledger", p.Kind())
		}
	}

	held := make(map[catalog.PredicateKind]bool)
	for i := 0; i < 5; i++ {
		step()
		snap := l.Snapshot()
		for _, p := range preds {
			ok, err := IsUnlocked(p, snap, store)
			if err != nil {
				t.Fatalf("%s: %v", p.Kind(), err)
			}
			if held[p.Kind()] && !ok {
				t.Fatalf("%s became false after more progress (step %d)", p.Kind(), i)
			}
			held[p.Kind()] = held[p.Kind()] || ok
		}
	}
	for _, p := range preds {
		if !held[p.Kind()] {
			t.Errorf("%s never held after 5 steps", p.Kind())
		}
	}
}

func TestThresholdIsInclusive(t *testing.T) {
	l := ledger.New()
	l.RecordCast()
	l.RecordCast()
	ok, err := IsUnlocked(catalog.CastsAtLeast{Value: 2}, l.Snapshot(), nil)
	if err != nil || !ok {
		t.Fatalf("expected casts >= 2 to hold, got %v %v", ok, err)
	}
}

func TestUnknownReferencesAreConfigurationErrors(t *testing.T) {
	store := smallStore(t)
	preds := []catalog.Predicate{
		catalog.CatchesSpeciesAtLeast{SpeciesID: "🐳 Inconnu", Value: 1},
		catalog.PatternDetectAtLeast{Pattern: "sideways", Value: 1},
		catalog.CatchesAtTimeOfDay{Period: "midnight", Value: 1},
		catalog.CatchesInSeasonAtLeast{Season: "monsoon", Value: 1},
		catalog.FastCatchesInTime{Count: 0, Seconds: 10},
		nil,
	}
	for _, p := range preds {
		_, err := IsUnlocked(p, ledger.New().Snapshot(), store)
		var cerr *catalog.ConfigurationError
		if !errors.As(err, &cerr) {
			t.Errorf("%v: expected *ConfigurationError, got %v", p, err)
		}
	}

	_, err := IsUnlocked(catalog.AllSpeciesCaught{}, ledger.New().Snapshot(), nil)
	var cerr *catalog.ConfigurationError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected missing store to be a configuration error, got %v", err)
	}
}

func TestAllSpeciesCaughtIsSticky(t *testing.T) {
	store := smallStore(t)
	tr := NewTracker(store)
	l := ledger.New()

	_ = l.RecordCatch(ledger.Catch{SpeciesID: "🐟 Sardine", At: 0})
	res, err := tr.EvaluateAll(l.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	if tr.HasHat("couronne") {
		t.Fatal("couronne granted before every species was caught")
	}
	if len(res.NewHats) != 1 || res.NewHats[0] != "paille" {
		t.Fatalf("expected only paille on first pass, got %v", res.NewHats)
	}

	_ = l.RecordCatch(ledger.Catch{SpeciesID: "🦑 Calmar", At: 1})
	res, err = tr.EvaluateAll(l.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	if !tr.HasHat("couronne") {
		t.Fatalf("couronne not granted: %+v", res)
	}

	// A fresh ledger that no longer satisfies the predicate keeps the grant.
	res, err = tr.EvaluateAll(ledger.New().Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.NewHats) != 0 || !tr.HasHat("couronne") {
		t.Fatalf("grant was revoked or re-announced: %+v", res)
	}
}

func TestWindowedGrantIsPermanent(t *testing.T) {
	store := smallStore(t)
	tr := NewTracker(store)
	l := ledger.New()
	for _, at := range []float64{0, 1, 2} {
		_ = l.RecordCatch(ledger.Catch{SpeciesID: "🐟 Sardine", At: at})
	}
	if _, err := tr.EvaluateAll(l.Snapshot()); err != nil {
		t.Fatal(err)
	}
	if !tr.HasHat("eclair") {
		t.Fatal("expected eclair after 3 catches in 2 seconds")
	}

	// Old entries fall out of the retained log; the hat stays.
	_ = l.RecordCatch(ledger.Catch{SpeciesID: "🐟 Sardine", At: 10 * ledger.RecentCatchHorizon})
	res, err := tr.EvaluateAll(l.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	if !tr.HasHat("eclair") || len(res.NewHats) != 0 {
		t.Fatalf("eclair should stay granted without being re-announced: %+v", res)
	}
}

func TestTrackerUnlocksSpecies(t *testing.T) {
	store := smallStore(t)
	tr := NewTracker(store)
	l := ledger.New()
	res, err := tr.EvaluateAll(l.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Fish) != 1 || res.Fish[0] != "🐟 Sardine" {
		t.Fatalf("expected only the always species, got %v", res.Fish)
	}
	for i := 0; i < 2; i++ {
		_ = l.RecordCatch(ledger.Catch{SpeciesID: "🐟 Sardine", Class: catalog.ClassFish, At: float64(i * 100)})
	}
	res, err = tr.EvaluateAll(l.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.NewFish) != 1 || res.NewFish[0] != "🦑 Calmar" {
		t.Fatalf("expected calmar newly unlocked, got %+v", res)
	}
	if got := len(tr.UnlockedSpecies()); got != 2 {
		t.Fatalf("expected 2 unlocked species, got %d", got)
	}
}

func TestRestoreSkipsUnknownIDs(t *testing.T) {
	tr := NewTracker(smallStore(t))
	dropped := tr.Restore([]string{"eclair", "retired_hat"}, []string{"🦑 Calmar"})
	if len(dropped) != 1 || dropped[0] != "retired_hat" {
		t.Fatalf("expected retired_hat dropped, got %v", dropped)
	}
	if !tr.HasHat("eclair") || !tr.HasFish("🦑 Calmar") {
		t.Fatal("restored grants missing")
	}
}

func TestStatelessEvaluateAll(t *testing.T) {
	store, err := catalog.LoadFile("")
	if err != nil {
		t.Fatal(err)
	}
	ids, err := EvaluateAll(store, ledger.New().Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range ids {
		h, _ := store.HatByID(id)
		if h.Unlock.Kind() != catalog.KindAlways {
			t.Errorf("hat %s unlocked on an empty ledger", id)
		}
	}
	if len(ids) == 0 {
		t.Fatal("expected at least one always hat in the default catalog")
	}
}
