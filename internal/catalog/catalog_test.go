package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func ptr[T any](v T) *T { return &v }

func baseFish() RawFish {
	return RawFish{
		ID:          "🐟 Sardine",
		Class:       "fish",
		Size:        Range{Min: 8, Max: 20},
		Speed:       Range{Min: 1, Max: 2},
		Depth:       Range{Min: 0, Max: 15},
		BaitPattern: "any",
		SpawnWeight: 10,
		Unlock:      RawUnlock{Type: "always"},
	}
}

func validationIssues(t *testing.T, err error) []Issue {
	t.Helper()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T: %v", err, err)
	}
	return verr.Issues
}

func hasIssue(issues []Issue, pathPart, msgPart string) bool {
	for _, is := range issues {
		if strings.Contains(is.Path, pathPart) && strings.Contains(is.Message, msgPart) {
			return true
		}
	}
	return false
}

func TestDefaultCatalogLoads(t *testing.T) {
	store, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile(\"\"): %v", err)
	}
	if len(store.Fish()) < 10 {
		t.Fatalf("expected a populated fish table, got %d rows", len(store.Fish()))
	}
	if len(store.Hats()) < 10 {
		t.Fatalf("expected a populated hat table, got %d rows", len(store.Hats()))
	}
	def := store.DefaultSpecies()
	if def.Unlock.Kind() != KindAlways {
		t.Fatalf("default species %q is not always-unlocked", def.ID)
	}

	// Every predicate variant is exercised by the shipped tables.
	seen := map[PredicateKind]bool{}
	for _, f := range store.Fish() {
		seen[f.Unlock.Kind()] = true
	}
	for _, h := range store.Hats() {
		seen[h.Unlock.Kind()] = true
	}
	for _, k := range PredicateKinds() {
		if !seen[k] {
			t.Errorf("default catalog never uses predicate %q", k)
		}
	}
}

func TestDefaultCatalogLookups(t *testing.T) {
	store, err := LoadFile("")
	if err != nil {
		t.Fatal(err)
	}
	calmar, ok := store.FishByID("🦑 Calmar")
	if !ok {
		t.Fatal("expected 🦑 Calmar in catalog")
	}
	if calmar.BaitPattern != PatternBehind {
		t.Fatalf("expected derriere pattern, got %q", calmar.BaitPattern)
	}
	if calmar.FlashDuration != (Range{Min: 0.5, Max: 1.0}) {
		t.Fatalf("unexpected flash duration %v", calmar.FlashDuration)
	}

	sardine, _ := store.FishByID("🐟 Sardine")
	if sardine.FlashDuration != Fixed(0.4) {
		t.Fatalf("expected scalar flash duration to load as fixed range, got %v", sardine.FlashDuration)
	}

	hat, ok := store.HatByID("tricorne_pirate")
	if !ok {
		t.Fatal("expected tricorne_pirate")
	}
	if hat.Rarity != RarityEpic {
		t.Fatalf("expected épique, got %s", hat.Rarity)
	}
	if hat.Perks.TreasureSpawnRate != 2.0 || hat.Perks.PointsMultiplier != 1.2 {
		t.Fatalf("unexpected perks %+v", hat.Perks)
	}
	if hat.Perks.ReelSpeedMultiplier != 1 {
		t.Fatalf("unset multiplier should default to 1, got %g", hat.Perks.ReelSpeedMultiplier)
	}

	if _, ok := store.FishByID("🐳 Unknown"); ok {
		t.Fatal("lookup of unknown id should fail")
	}
}

func TestStoreReturnsCopies(t *testing.T) {
	store, err := Load([]RawFish{baseFish()}, nil)
	if err != nil {
		t.Fatal(err)
	}
	fish := store.Fish()
	fish[0].SpawnWeight = 999
	again, _ := store.FishByID("🐟 Sardine")
	if again.SpawnWeight != 10 {
		t.Fatalf("mutating a returned slice leaked into the store: weight %g", again.SpawnWeight)
	}
}

func TestLoadRejectsInvalidRows(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RawFish)
		path    string
		message string
	}{
		{"inverted range", func(f *RawFish) { f.Size = Range{Min: 20, Max: 8} }, ".size", "invalid range"},
		{"negative weight", func(f *RawFish) { f.SpawnWeight = -1 }, ".spawn_weight", "weight must be in"},
		{"oversized weight", func(f *RawFish) { f.SpawnWeight = 1e308 }, ".spawn_weight", "weight must be in"},
		{"unknown pattern", func(f *RawFish) { f.BaitPattern = "devnat" }, ".bait_pattern", `did you mean "devant"`},
		{"unknown class", func(f *RawFish) { f.Class = "fsh" }, ".class", "unknown class"},
		{"missing predicate type", func(f *RawFish) { f.Unlock = RawUnlock{} }, ".unlock.type", "missing"},
		{"unknown predicate type", func(f *RawFish) { f.Unlock = RawUnlock{Type: "casts_at_leest", Value: ptr(1.0)} }, ".unlock.type", `"casts_at_least"`},
		{"negative value", func(f *RawFish) { f.Unlock = RawUnlock{Type: "casts_at_least", Value: ptr(-3.0)} }, ".unlock.value", ">= 0"},
		{"missing value", func(f *RawFish) { f.Unlock = RawUnlock{Type: "casts_at_least"} }, ".unlock.value", "missing"},
		{"unknown season", func(f *RawFish) {
			f.Unlock = RawUnlock{Type: "catches_in_season_at_least", Season: "sumer", Value: ptr(1.0)}
		}, ".unlock.season", `"summer"`},
		{"unknown period", func(f *RawFish) {
			f.Unlock = RawUnlock{Type: "catches_at_time_of_day", Period: "midnight", Value: ptr(1.0)}
		}, ".unlock.period", "unknown period"},
		{"unknown species ref", func(f *RawFish) {
			f.Unlock = RawUnlock{Type: "catches_species_at_least", Species: "🦈 Requin", Value: ptr(1.0)}
		}, ".unlock.species", "unknown species"},
		{"fast catches without count", func(f *RawFish) {
			f.Unlock = RawUnlock{Type: "fast_catches_in_time", Seconds: ptr(10.0)}
		}, ".unlock.count", "missing count"},
		{"all species on a fish", func(f *RawFish) { f.Unlock = RawUnlock{Type: "all_species_caught"} }, ".unlock", "cannot gate a species"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			always := baseFish()
			broken := baseFish()
			broken.ID = "🐠 Broken"
			tt.mutate(&broken)

			_, err := Load([]RawFish{always, broken}, nil)
			if err == nil {
				t.Fatal("expected validation failure")
			}
			issues := validationIssues(t, err)
			if !hasIssue(issues, tt.path, tt.message) {
				t.Fatalf("expected issue at %q containing %q, got %v", tt.path, tt.message, issues)
			}
		})
	}
}

func TestLoadRequiresAlwaysSpecies(t *testing.T) {
	f := baseFish()
	f.Unlock = RawUnlock{Type: "casts_at_least", Value: ptr(5.0)}
	_, err := Load([]RawFish{f}, nil)
	issues := validationIssues(t, err)
	if !hasIssue(issues, "fish", "always unlock") {
		t.Fatalf("expected missing-always issue, got %v", issues)
	}
}

func TestLoadRejectsDuplicateIDs(t *testing.T) {
	_, err := Load([]RawFish{baseFish(), baseFish()}, []RawHat{
		{ID: "a", Unlock: RawUnlock{Type: "always"}},
		{ID: "a", Unlock: RawUnlock{Type: "always"}},
	})
	issues := validationIssues(t, err)
	if !hasIssue(issues, "fish[1]", "duplicate id") || !hasIssue(issues, "hats[1]", "duplicate id") {
		t.Fatalf("expected duplicate issues for both tables, got %v", issues)
	}
}

func TestLoadReportsEveryIssue(t *testing.T) {
	a := baseFish()
	b := baseFish()
	b.ID = "🐠 B"
	b.Speed = Range{Min: 3, Max: 1}
	b.SpawnWeight = -2
	_, err := Load([]RawFish{a, b}, []RawHat{{ID: "h", Rarity: "mythique", Unlock: RawUnlock{Type: "always"}}})
	issues := validationIssues(t, err)
	if len(issues) != 3 {
		t.Fatalf("expected 3 issues, got %d: %v", len(issues), issues)
	}
}

func TestHatPerkValidation(t *testing.T) {
	hats := []RawHat{
		{ID: "typo", Unlock: RawUnlock{Type: "always"}, Perks: map[string]any{"pointMultiplier": 1.2}},
		{ID: "flag", Unlock: RawUnlock{Type: "always"}, Perks: map[string]any{"autoHook": 1}},
		{ID: "neg", Unlock: RawUnlock{Type: "always"}, Perks: map[string]any{"sizeMultiplier": -0.5}},
		{ID: "word", Unlock: RawUnlock{Type: "always"}, Perks: map[string]any{"reelSpeedMultiplier": "fast"}},
	}
	_, err := Load([]RawFish{baseFish()}, hats)
	issues := validationIssues(t, err)

	if !hasIssue(issues, "pointMultiplier", `did you mean "pointsMultiplier"`) {
		t.Errorf("expected perk typo suggestion, got %v", issues)
	}
	if !hasIssue(issues, "autoHook", "boolean") {
		t.Errorf("expected flag type issue, got %v", issues)
	}
	if !hasIssue(issues, "sizeMultiplier", ">= 0") {
		t.Errorf("expected negative multiplier issue, got %v", issues)
	}
	if !hasIssue(issues, "reelSpeedMultiplier", "number") {
		t.Errorf("expected non-numeric multiplier issue, got %v", issues)
	}
}

func TestParseRangeForms(t *testing.T) {
	doc := `
fish:
  - id: a
    size: 4
    speed: [1, 2]
    depth: { min: 3, max: 9 }
    spawn_weight: 1
    unlock: { type: always }
`
	store, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	f, _ := store.FishByID("a")
	if f.SizeRange != Fixed(4) || f.SpeedRange != (Range{1, 2}) || f.DepthRange != (Range{3, 9}) {
		t.Fatalf("unexpected ranges: %+v", f)
	}
	if f.BaitPattern != PatternAny || f.Class != ClassFish {
		t.Fatalf("expected defaults any/fish, got %q/%q", f.BaitPattern, f.Class)
	}

	_, err = Parse([]byte("fish:\n  - id: a\n    size: [1, 2, 3]\n"))
	if issues := validationIssues(t, err); !hasIssue(issues, "yaml", "exactly 2 values") {
		t.Fatalf("expected three-element range issue, got %v", issues)
	}
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"misspelled fish key", "fish:\n  - id: a\n    depht: [10, 20]\n", "field depht not found"},
		{"misspelled weight key", "fish:\n  - id: a\n    spawn_wieght: 5\n", "field spawn_wieght not found"},
		{"misspelled unlock key", "hats:\n  - id: h\n    unlock: { type: casts_at_least, valeu: 3 }\n", "field valeu not found"},
		{"unknown top-level table", "fishes: []\n", "field fishes not found"},
		{"non-numeric weight", "fish:\n  - id: a\n    spawn_weight: heavy\n", "cannot unmarshal"},
		{"bad range key", "fish:\n  - id: a\n    size: { min: 1, maxi: 2 }\n", `range key "maxi"`},
		{"broken syntax", "fish: [\n", "yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			issues := validationIssues(t, err)
			if !hasIssue(issues, "yaml", tt.want) {
				t.Fatalf("expected issue containing %q, got %v", tt.want, issues)
			}
		})
	}
}

func TestLoadFileRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typo.yaml")
	doc := "fish:\n  - id: a\n    spawn_wieght: 5\n    unlock: { type: always }\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadFile(path)
	if issues := validationIssues(t, err); !hasIssue(issues, "typo.yaml", "spawn_wieght") {
		t.Fatalf("expected issue naming the file and the key, got %v", issues)
	}
}

func TestLoadFileOverlay(t *testing.T) {
	dir := t.TempDir()

	hatsOnly := filepath.Join(dir, "hats.yaml")
	doc := `
hats:
  - id: casquette_test
    rarity: rare
    unlock: { type: casts_at_least, value: 3 }
    perks: { reelSpeedMultiplier: 1.5 }
`
	if err := os.WriteFile(hatsOnly, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	store, err := LoadFile(hatsOnly)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if got := store.HatIDs(); len(got) != 1 || got[0] != "casquette_test" {
		t.Fatalf("expected hat table replaced, got %v", got)
	}
	if _, ok := store.FishByID("🐟 Sardine"); !ok {
		t.Fatal("expected default fish kept when the overlay omits the table")
	}

	// Replacing fish drops species the default hats reference.
	fishOnly := filepath.Join(dir, "fish.yaml")
	doc = `
fish:
  - id: "🐟 Only"
    size: [1, 2]
    spawn_weight: 1
    unlock: { type: always }
`
	if err := os.WriteFile(fishOnly, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = LoadFile(fishOnly)
	issues := validationIssues(t, err)
	if !hasIssue(issues, "chapeau_meduse", "unknown species") {
		t.Fatalf("expected dangling species reference from default hats, got %v", issues)
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestBuilderSeals(t *testing.T) {
	b := NewBuilder()
	if err := b.AddFish(baseFish()); err != nil {
		t.Fatal(err)
	}
	if err := b.AddHat(RawHat{ID: "h", Unlock: RawUnlock{Type: "always"}}); err != nil {
		t.Fatal(err)
	}
	store, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(store.Hats()) != 1 {
		t.Fatalf("expected one hat, got %d", len(store.Hats()))
	}

	var cerr *ConfigurationError
	if err := b.AddFish(baseFish()); !errors.As(err, &cerr) {
		t.Fatalf("expected ConfigurationError after seal, got %v", err)
	}
	if err := b.AddHat(RawHat{ID: "x"}); !errors.As(err, &cerr) {
		t.Fatalf("expected ConfigurationError after seal, got %v", err)
	}
	if _, err := b.Build(); !errors.As(err, &cerr) {
		t.Fatalf("expected ConfigurationError on rebuild, got %v", err)
	}
}

func TestBuilderStaysOpenAfterFailedBuild(t *testing.T) {
	b := NewBuilder()
	f := baseFish()
	f.Unlock = RawUnlock{Type: "catches_species_at_least", Species: "🐠 Later", Value: ptr(1.0)}
	_ = b.AddFish(f)
	if _, err := b.Build(); err == nil {
		t.Fatal("expected failure on dangling reference")
	}

	later := baseFish()
	later.ID = "🐠 Later"
	if err := b.AddFish(later); err != nil {
		t.Fatalf("builder should stay open after a failed build: %v", err)
	}
	if _, err := b.Build(); err != nil {
		t.Fatalf("Build after fix: %v", err)
	}
}

func TestRarityOrdering(t *testing.T) {
	if !(RarityCommon < RarityRare && RarityRare < RarityEpic && RarityEpic < RarityLegendary) {
		t.Fatal("rarity must be ordinal")
	}
	for _, s := range []string{"légendaire", "legendaire"} {
		if r, ok := ParseRarity(s); !ok || r != RarityLegendary {
			t.Fatalf("ParseRarity(%q) = %v, %v", s, r, ok)
		}
	}
}

func TestRangeOverlaps(t *testing.T) {
	r := Range{Min: 10, Max: 20}
	if !r.Overlaps(Range{Min: 20, Max: 30}) {
		t.Fatal("touching closed intervals overlap")
	}
	if r.Overlaps(Range{Min: 21, Max: 30}) {
		t.Fatal("disjoint intervals must not overlap")
	}
}
