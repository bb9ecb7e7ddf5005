package perks

import (
	"errors"
	"math"
	"testing"

	"github.com/talgya/reelworks/internal/catalog"
)

func ptr[T any](v T) *T { return &v }

func hatStore(t *testing.T) *catalog.Store {
	t.Helper()
	fish := []catalog.RawFish{
		{ID: "🐟 Sardine", BaitPattern: "any", SpawnWeight: 1, Unlock: catalog.RawUnlock{Type: "always"}},
	}
	hats := []catalog.RawHat{
		{ID: "a", Unlock: catalog.RawUnlock{Type: "always"}, Perks: map[string]any{"pointsMultiplier": 1.2, "autoHook": true}},
		{ID: "b", Unlock: catalog.RawUnlock{Type: "casts_at_least", Value: ptr(1.0)}, Perks: map[string]any{"pointsMultiplier": 1.5, "mythicSpawnRate": 2}},
		{ID: "c", Unlock: catalog.RawUnlock{Type: "casts_at_least", Value: ptr(9.0)}, Perks: map[string]any{"unbreakableLine": true}},
	}
	store, err := catalog.Load(fish, hats)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return store
}

func TestMultipliersCompose(t *testing.T) {
	set, err := Effective(hatStore(t), []string{"a", "b"}, "")
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(set.PointsMultiplier-1.8) > 1e-9 {
		t.Fatalf("expected points multiplier 1.8, got %g", set.PointsMultiplier)
	}
	if !set.AutoHook || set.UnbreakableLine {
		t.Fatalf("unexpected flags: %+v", set.Perks)
	}
	if set.SpawnRate(catalog.ClassMythic) != 2 || set.SpawnRate(catalog.ClassFish) != 1 {
		t.Fatalf("unexpected spawn rates: %+v", set.Perks)
	}
	if got := set.ApplyScore(100); math.Abs(got-180) > 1e-9 {
		t.Fatalf("expected 180 points, got %g", got)
	}
}

func TestIdentity(t *testing.T) {
	set, err := Effective(hatStore(t), nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if set.Perks != catalog.NoPerks() {
		t.Fatalf("expected identity, got %+v", set.Perks)
	}
	if set.ApplyScore(42) != 42 || set.BiteChance(0.3) != 0.3 {
		t.Fatal("identity set changed values")
	}
}

func TestEquippedCountsOnce(t *testing.T) {
	set, err := Effective(hatStore(t), []string{"a", "b", "a"}, "b")
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(set.PointsMultiplier-1.8) > 1e-9 {
		t.Fatalf("equipped or repeated hat double counted: %g", set.PointsMultiplier)
	}
	if set.Equipped != "b" || len(set.Sources) != 2 {
		t.Fatalf("unexpected sources %v equipped %q", set.Sources, set.Equipped)
	}
}

func TestEquipRequiresUnlockedHat(t *testing.T) {
	store := hatStore(t)
	var cerr *catalog.ConfigurationError
	if _, err := Effective(store, []string{"a"}, "c"); !errors.As(err, &cerr) {
		t.Fatalf("expected configuration error for locked hat, got %v", err)
	}
	if _, err := Effective(store, []string{"a"}, "nope"); !errors.As(err, &cerr) {
		t.Fatalf("expected configuration error for unknown hat, got %v", err)
	}
	if _, err := Effective(store, []string{"ghost"}, ""); !errors.As(err, &cerr) {
		t.Fatalf("expected configuration error for unknown unlocked id, got %v", err)
	}
}

func TestLineBreakChance(t *testing.T) {
	set, err := Effective(hatStore(t), []string{"c"}, "c")
	if err != nil {
		t.Fatal(err)
	}
	if set.LineBreakChance(0.5) != 0 {
		t.Fatal("unbreakable line still breaks")
	}
	if Identity().LineBreakChance(0.5) != 0.5 {
		t.Fatal("identity must not change break chance")
	}
}
