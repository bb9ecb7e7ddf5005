// Package perks folds the perks of a player's hats into one effective
// modifier set.
//
// Every unlocked hat contributes passively. The equipped hat must be one of
// them and is counted once, not twice. Multipliers compose by product and
// flags by logical OR, so the empty set is the identity (all 1.0, all off).
package perks

import (
	"fmt"
	"math"

	"github.com/talgya/reelworks/internal/catalog"
)

// Set is the effective modifier set and the hats that produced it.
type Set struct {
	catalog.Perks
	Sources  []string `json:"sources"`
	Equipped string   `json:"equipped,omitempty"`
}

// Identity returns the set with no contributing hats.
func Identity() Set {
	return Set{Perks: catalog.NoPerks()}
}

// Effective aggregates the perks of every hat in unlocked. equipped may be
// empty; otherwise it must name an unlocked catalog hat.
func Effective(store *catalog.Store, unlocked []string, equipped string) (Set, error) {
	set := Identity()
	seen := make(map[string]bool, len(unlocked))
	for _, id := range unlocked {
		if seen[id] {
			continue
		}
		seen[id] = true
		h, ok := store.HatByID(id)
		if !ok {
			return Set{}, catalog.UnknownReference("effective perks", "hat", id)
		}
		set.Perks = Compose(set.Perks, h.Perks)
		set.Sources = append(set.Sources, id)
	}

	if equipped != "" {
		if _, ok := store.HatByID(equipped); !ok {
			return Set{}, catalog.UnknownReference("equip", "hat", equipped)
		}
		if !seen[equipped] {
			return Set{}, &catalog.ConfigurationError{
				Op:     "equip",
				Reason: fmt.Sprintf("hat %q is not unlocked", equipped),
			}
		}
		set.Equipped = equipped
	}
	return set, nil
}

// Compose combines two perk sets: multipliers multiply, flags OR.
func Compose(a, b catalog.Perks) catalog.Perks {
	return catalog.Perks{
		PointsMultiplier:          a.PointsMultiplier * b.PointsMultiplier,
		ReelSpeedMultiplier:       a.ReelSpeedMultiplier * b.ReelSpeedMultiplier,
		BiteChanceMultiplier:      a.BiteChanceMultiplier * b.BiteChanceMultiplier,
		LineBreakChanceMultiplier: a.LineBreakChanceMultiplier * b.LineBreakChanceMultiplier,
		StaminaDrainMultiplier:    a.StaminaDrainMultiplier * b.StaminaDrainMultiplier,
		SizeMultiplier:            a.SizeMultiplier * b.SizeMultiplier,
		MythicSpawnRate:           a.MythicSpawnRate * b.MythicSpawnRate,
		JellyfishSpawnRate:        a.JellyfishSpawnRate * b.JellyfishSpawnRate,
		TreasureSpawnRate:         a.TreasureSpawnRate * b.TreasureSpawnRate,

		UnbreakableLine: a.UnbreakableLine || b.UnbreakableLine,
		AutoHook:        a.AutoHook || b.AutoHook,
		ShowDepth:       a.ShowDepth || b.ShowDepth,
	}
}

// SpawnRate is the weight factor for species of the given class. Classes
// without a dedicated perk spawn at their catalog weight.
func (s Set) SpawnRate(c catalog.Class) float64 {
	switch c {
	case catalog.ClassMythic:
		return s.MythicSpawnRate
	case catalog.ClassJellyfish:
		return s.JellyfishSpawnRate
	case catalog.ClassTreasure:
		return s.TreasureSpawnRate
	default:
		return 1
	}
}

// ApplyScore scales base points by the points multiplier.
func (s Set) ApplyScore(points float64) float64 {
	return points * s.PointsMultiplier
}

// ApplySize scales a sampled size by the size multiplier.
func (s Set) ApplySize(size float64) float64 {
	return size * s.SizeMultiplier
}

// LineBreakChance scales a base break probability. An unbreakable line
// never breaks.
func (s Set) LineBreakChance(base float64) float64 {
	if s.UnbreakableLine {
		return 0
	}
	return math.Min(1, base*s.LineBreakChanceMultiplier)
}

// BiteChance scales a base bite probability, capped at 1.
func (s Set) BiteChance(base float64) float64 {
	return math.Min(1, base*s.BiteChanceMultiplier)
}
