// Package catalog holds the validated, immutable fish and hat tables.
// Tables are decoded from YAML (embedded defaults or an override file),
// validated once, and then only read.
package catalog

import (
	"fmt"
	"math"
	"strings"
)

// Range is a closed interval [Min, Max]. A fixed catalog value is stored as
// the degenerate interval [v, v].
type Range struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// Fixed returns the degenerate range [v, v].
func Fixed(v float64) Range {
	return Range{Min: v, Max: v}
}

// Contains reports whether v lies inside the closed interval.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Overlaps reports whether two closed intervals share at least one point.
func (r Range) Overlaps(o Range) bool {
	return r.Min <= o.Max && o.Min <= r.Max
}

// Lerp maps u in [0,1) onto the interval.
func (r Range) Lerp(u float64) float64 {
	return r.Min + (r.Max-r.Min)*u
}

func (r Range) valid() bool {
	return !math.IsNaN(r.Min) && !math.IsNaN(r.Max) &&
		!math.IsInf(r.Min, 0) && !math.IsInf(r.Max, 0) &&
		r.Min <= r.Max
}

func (r Range) String() string {
	if r.Min == r.Max {
		return fmt.Sprintf("%g", r.Min)
	}
	return fmt.Sprintf("[%g, %g]", r.Min, r.Max)
}

// BaitPattern is the categorical tag a species reacts to.
type BaitPattern string

const (
	PatternFront    BaitPattern = "devant"
	PatternAbove    BaitPattern = "au_dessus"
	PatternBelow    BaitPattern = "au_dessous"
	PatternBehind   BaitPattern = "derriere"
	PatternComplete BaitPattern = "complete"
	PatternMoving   BaitPattern = "moving"
	PatternStill    BaitPattern = "still"
	PatternHover    BaitPattern = "hover"
	PatternActive   BaitPattern = "active"
	PatternBottom   BaitPattern = "bottom"
	PatternDeep     BaitPattern = "deep"
	PatternAny      BaitPattern = "any"
)

// BaitPatterns lists every known pattern tag.
func BaitPatterns() []BaitPattern {
	return []BaitPattern{
		PatternFront, PatternAbove, PatternBelow, PatternBehind, PatternComplete,
		PatternMoving, PatternStill, PatternHover, PatternActive,
		PatternBottom, PatternDeep, PatternAny,
	}
}

// Class routes class-scoped spawn-rate perks and decides which counters a
// catch feeds.
type Class string

const (
	ClassFish      Class = "fish"
	ClassJellyfish Class = "jellyfish"
	ClassMythic    Class = "mythic"
	ClassTreasure  Class = "treasure"
	ClassJunk      Class = "junk"
)

// Classes lists every known species class.
func Classes() []Class {
	return []Class{ClassFish, ClassJellyfish, ClassMythic, ClassTreasure, ClassJunk}
}

// Rarity is the ordinal hat rarity. Informational only.
type Rarity uint8

const (
	RarityCommon Rarity = iota
	RarityRare
	RarityEpic
	RarityLegendary
)

func (r Rarity) String() string {
	switch r {
	case RarityRare:
		return "rare"
	case RarityEpic:
		return "épique"
	case RarityLegendary:
		return "légendaire"
	default:
		return "commun"
	}
}

// ParseRarity accepts the catalog spelling, with or without accents.
func ParseRarity(s string) (Rarity, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "commun", "common", "":
		return RarityCommon, true
	case "rare":
		return RarityRare, true
	case "épique", "epique", "epic":
		return RarityEpic, true
	case "légendaire", "legendaire", "legendary":
		return RarityLegendary, true
	}
	return RarityCommon, false
}

// FishSpecies is one validated fish catalog row.
type FishSpecies struct {
	ID    string
	Name  string
	Class Class

	SizeRange         Range
	SpeedRange        Range
	StaminaRange      Range
	DepthRange        Range
	BiteAffinityRange Range
	AggressionRange   Range
	FlashDuration     Range

	PointsPerSize float64
	BasePoints    float64

	BaitPattern BaitPattern
	SpawnWeight float64

	Unlock     Predicate
	UnlockText string
}

// Points is the score of a caught individual of the given size.
func (f FishSpecies) Points(size float64) float64 {
	return f.BasePoints + f.PointsPerSize*size
}

// Hat is one validated hat catalog row.
type Hat struct {
	ID         string
	Name       string
	Rarity     Rarity
	Unlock     Predicate
	UnlockText string
	Perks      Perks
}
