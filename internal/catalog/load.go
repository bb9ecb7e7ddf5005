package catalog

import (
	"fmt"
	"math"
	"strings"
)

// MaxSpawnWeight bounds a species' spawn weight so a table of weights can
// be summed without overflowing.
const MaxSpawnWeight = 1e12

// loader accumulates issues across both tables so a broken catalog is
// reported in one pass.
type loader struct {
	issues  []Issue
	species map[string]bool
}

func (l *loader) add(path, msg string) {
	l.issues = append(l.issues, Issue{Path: path, Message: msg})
}

// Load validates raw tables and builds an immutable Store. Any violated
// invariant fails the whole load with a *ValidationError.
func Load(rawFish []RawFish, rawHats []RawHat) (*Store, error) {
	l := &loader{species: make(map[string]bool, len(rawFish))}

	for _, rf := range rawFish {
		if id := strings.TrimSpace(rf.ID); id != "" {
			l.species[id] = true
		}
	}

	store := &Store{
		fishIdx: make(map[string]int, len(rawFish)),
		hatIdx:  make(map[string]int, len(rawHats)),
	}

	hasAlways := false
	for i, rf := range rawFish {
		f, ok := l.fish(i, rf)
		if !ok {
			continue
		}
		if _, dup := store.fishIdx[f.ID]; dup {
			l.add(fmt.Sprintf("fish[%d]", i), fmt.Sprintf("duplicate id %q", f.ID))
			continue
		}
		if f.Unlock.Kind() == KindAlways {
			hasAlways = true
		}
		store.fishIdx[f.ID] = len(store.fish)
		store.fish = append(store.fish, f)
	}
	if len(rawFish) > 0 && !hasAlways {
		l.add("fish", "no species has an always unlock; the early-game pool would be empty")
	}
	if len(rawFish) == 0 {
		l.add("fish", "table is empty")
	}

	for i, rh := range rawHats {
		h, ok := l.hat(i, rh)
		if !ok {
			continue
		}
		if _, dup := store.hatIdx[h.ID]; dup {
			l.add(fmt.Sprintf("hats[%d]", i), fmt.Sprintf("duplicate id %q", h.ID))
			continue
		}
		store.hatIdx[h.ID] = len(store.hats)
		store.hats = append(store.hats, h)
	}

	if len(l.issues) > 0 {
		return nil, &ValidationError{Issues: l.issues}
	}
	return store, nil
}

func (l *loader) fish(i int, rf RawFish) (FishSpecies, bool) {
	before := len(l.issues)
	id := strings.TrimSpace(rf.ID)
	path := fmt.Sprintf("fish[%d]", i)
	if id == "" {
		l.add(path+".id", "missing id")
	} else {
		path = fmt.Sprintf("fish[%d] (%s)", i, id)
	}

	class := Class(strings.TrimSpace(rf.Class))
	if class == "" {
		class = ClassFish
	}
	if !knownValue(class, Classes()) {
		l.add(path+".class", fmt.Sprintf("unknown class %q%s", rf.Class, didYouMean(rf.Class, asStrings(Classes()))))
	}

	pattern := BaitPattern(strings.TrimSpace(rf.BaitPattern))
	if pattern == "" {
		pattern = PatternAny
	}
	if !knownValue(pattern, BaitPatterns()) {
		l.add(path+".bait_pattern", fmt.Sprintf("unknown pattern %q%s", rf.BaitPattern, didYouMean(rf.BaitPattern, asStrings(BaitPatterns()))))
	}

	ranges := []struct {
		name string
		r    Range
	}{
		{"size", rf.Size},
		{"speed", rf.Speed},
		{"stamina", rf.Stamina},
		{"depth", rf.Depth},
		{"bite_affinity", rf.BiteAffinity},
		{"aggression", rf.Aggression},
		{"flash_duration", rf.FlashDuration},
	}
	for _, rg := range ranges {
		if !rg.r.valid() {
			l.add(path+"."+rg.name, fmt.Sprintf("invalid range %s: need finite min <= max", rg.r))
		}
	}

	if !finite(rf.SpawnWeight) || rf.SpawnWeight < 0 || rf.SpawnWeight > MaxSpawnWeight {
		l.add(path+".spawn_weight", fmt.Sprintf("weight must be in [0, %g], got %g", MaxSpawnWeight, rf.SpawnWeight))
	}
	if !finite(rf.PointsPerSize) {
		l.add(path+".points_per_size", "must be finite")
	}
	if !finite(rf.BasePoints) {
		l.add(path+".base_points", "must be finite")
	}

	unlock := l.predicate(path+".unlock", rf.Unlock)
	// A species gated on its own catches can never be caught.
	switch p := unlock.(type) {
	case AllSpeciesCaught:
		l.add(path+".unlock", "all_species_caught cannot gate a species: it would require catching this species first")
	case CatchesSpeciesAtLeast:
		if p.SpeciesID == id && p.Value > 0 {
			l.add(path+".unlock", "species cannot be gated on catches of itself")
		}
	}

	name := strings.TrimSpace(rf.Name)
	if name == "" {
		name = id
	}

	return FishSpecies{
		ID:                id,
		Name:              name,
		Class:             class,
		SizeRange:         rf.Size,
		SpeedRange:        rf.Speed,
		StaminaRange:      rf.Stamina,
		DepthRange:        rf.Depth,
		BiteAffinityRange: rf.BiteAffinity,
		AggressionRange:   rf.Aggression,
		FlashDuration:     rf.FlashDuration,
		PointsPerSize:     rf.PointsPerSize,
		BasePoints:        rf.BasePoints,
		BaitPattern:       pattern,
		SpawnWeight:       rf.SpawnWeight,
		Unlock:            unlock,
		UnlockText:        rf.UnlockText,
	}, len(l.issues) == before
}

func (l *loader) hat(i int, rh RawHat) (Hat, bool) {
	before := len(l.issues)
	id := strings.TrimSpace(rh.ID)
	path := fmt.Sprintf("hats[%d]", i)
	if id == "" {
		l.add(path+".id", "missing id")
	} else {
		path = fmt.Sprintf("hats[%d] (%s)", i, id)
	}

	rarity, ok := ParseRarity(rh.Rarity)
	if !ok {
		l.add(path+".rarity", fmt.Sprintf("unknown rarity %q", rh.Rarity))
	}

	unlock := l.predicate(path+".unlock", rh.Unlock)
	perks := parsePerks(rh.Perks, path+".perks", l.add)

	name := strings.TrimSpace(rh.Name)
	if name == "" {
		name = id
	}

	return Hat{
		ID:         id,
		Name:       name,
		Rarity:     rarity,
		Unlock:     unlock,
		UnlockText: rh.UnlockText,
		Perks:      perks,
	}, len(l.issues) == before
}

// predicate turns the loosely-typed record into its closed variant. It
// always returns a non-nil Predicate; problems are recorded as issues.
func (l *loader) predicate(path string, ru RawUnlock) Predicate {
	kind := PredicateKind(strings.TrimSpace(ru.Type))

	value := func() float64 {
		if ru.Value == nil {
			l.add(path+".value", "missing value")
			return 0
		}
		v := *ru.Value
		if !finite(v) || v < 0 {
			l.add(path+".value", fmt.Sprintf("value must be finite and >= 0, got %g", v))
		}
		return v
	}

	switch kind {
	case KindAlways:
		return Always{}
	case KindAllSpeciesCaught:
		return AllSpeciesCaught{}
	case KindTotalCatchesAtLeast:
		return TotalCatchesAtLeast{Value: value()}
	case KindCatchesAtLeast:
		return CatchesAtLeast{Value: value()}
	case KindCastsAtLeast:
		return CastsAtLeast{Value: value()}
	case KindSurfaceSecondsAtLeast:
		return SurfaceSecondsAtLeast{Value: value()}
	case KindDeepVisitsAtLeast:
		return DeepVisitsAtLeast{Value: value()}
	case KindCumulativeWeightAtLeast:
		return CumulativeWeightAtLeast{Value: value()}
	case KindCumulativeScoreAtLeast:
		return CumulativeScoreAtLeast{Value: value()}
	case KindLineBreaksAtLeast:
		return LineBreaksAtLeast{Value: value()}
	case KindPlaySecondsAtLeast:
		return PlaySecondsAtLeast{Value: value()}
	case KindPerfectGameScoreAtLeast:
		return PerfectGameScoreAtLeast{Value: value()}
	case KindPerfectGamesAtLeast:
		return PerfectGamesAtLeast{Value: value()}
	case KindTreasuresAtLeast:
		return TreasuresAtLeast{Value: value()}
	case KindTransformedCatchesAtLeast:
		return TransformedCatchesAtLeast{Value: value()}

	case KindCatchesSpeciesAtLeast:
		species := strings.TrimSpace(ru.Species)
		if !l.species[species] {
			keys := make([]string, 0, len(l.species))
			for k := range l.species {
				keys = append(keys, k)
			}
			l.add(path+".species", fmt.Sprintf("unknown species %q%s", ru.Species, didYouMean(species, keys)))
		}
		return CatchesSpeciesAtLeast{SpeciesID: species, Value: value()}

	case KindPatternDetectAtLeast:
		pattern := BaitPattern(strings.TrimSpace(ru.Pattern))
		if !knownValue(pattern, BaitPatterns()) {
			l.add(path+".pattern", fmt.Sprintf("unknown pattern %q%s", ru.Pattern, didYouMean(ru.Pattern, asStrings(BaitPatterns()))))
		}
		return PatternDetectAtLeast{Pattern: pattern, Value: value()}

	case KindCatchesAtTimeOfDay:
		period := Period(strings.TrimSpace(ru.Period))
		if !knownValue(period, Periods()) {
			l.add(path+".period", fmt.Sprintf("unknown period %q%s", ru.Period, didYouMean(ru.Period, asStrings(Periods()))))
		}
		return CatchesAtTimeOfDay{Period: period, Value: value()}

	case KindCatchesInSeasonAtLeast:
		season := Season(strings.TrimSpace(ru.Season))
		if !knownValue(season, Seasons()) {
			l.add(path+".season", fmt.Sprintf("unknown season %q%s", ru.Season, didYouMean(ru.Season, asStrings(Seasons()))))
		}
		return CatchesInSeasonAtLeast{Season: season, Value: value()}

	case KindFastCatchesInTime:
		p := FastCatchesInTime{}
		if ru.Count == nil {
			l.add(path+".count", "missing count")
		} else if *ru.Count < 1 {
			l.add(path+".count", fmt.Sprintf("count must be >= 1, got %d", *ru.Count))
		} else {
			p.Count = *ru.Count
		}
		if ru.Seconds == nil {
			l.add(path+".seconds", "missing seconds")
		} else if !finite(*ru.Seconds) || *ru.Seconds < 0 {
			l.add(path+".seconds", fmt.Sprintf("seconds must be finite and >= 0, got %g", *ru.Seconds))
		} else {
			p.Seconds = *ru.Seconds
		}
		return p
	}

	if kind == "" {
		l.add(path+".type", "missing predicate type")
	} else {
		l.add(path+".type", fmt.Sprintf("unknown predicate type %q%s", ru.Type, didYouMean(ru.Type, asStrings(PredicateKinds()))))
	}
	return Always{}
}

func knownValue[T comparable](v T, known []T) bool {
	for _, k := range known {
		if k == v {
			return true
		}
	}
	return false
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
