// Package spawn picks which fish appears for a cast and rolls its
// attributes.
//
// Candidates are the unlocked species whose bait pattern suits the player's
// lure and whose depth range reaches the lure depth. One is chosen with
// probability proportional to its spawn weight (scaled by class spawn-rate
// perks), then every attribute is drawn uniformly from its catalog range.
package spawn

import (
	"errors"
	"fmt"
	"math"

	"github.com/talgya/reelworks/internal/catalog"
	"github.com/talgya/reelworks/internal/perks"
	"github.com/talgya/reelworks/internal/rng"
)

// DefaultDepthTolerance applies when a Context leaves DepthTolerance at 0.
const DefaultDepthTolerance = 5.0

// Context is the state of the player's lure at the moment of the cast.
type Context struct {
	Depth          float64             `json:"depth"`
	DepthTolerance float64             `json:"depth_tolerance,omitempty"`
	Bait           catalog.BaitPattern `json:"bait"`
	ElapsedSeconds float64             `json:"elapsed_seconds"`
}

func (c Context) window() catalog.Range {
	tol := c.DepthTolerance
	if tol <= 0 {
		tol = DefaultDepthTolerance
	}
	return catalog.Range{Min: c.Depth - tol, Max: c.Depth + tol}
}

// Instance is one spawned fish.
type Instance struct {
	Species       catalog.FishSpecies `json:"-"`
	SpeciesID     string              `json:"species_id"`
	Class         catalog.Class       `json:"class"`
	Size          float64             `json:"size"`
	Speed         float64             `json:"speed"`
	Stamina       float64             `json:"stamina"`
	Depth         float64             `json:"depth"`
	BiteAffinity  float64             `json:"bite_affinity"`
	Aggression    float64             `json:"aggression"`
	FlashDuration float64             `json:"flash_duration"`
	Points        float64             `json:"points"` // before perk multipliers
	Fallback      bool                `json:"fallback,omitempty"`
}

// NoEligibleSpeciesError means nothing could spawn for the context.
type NoEligibleSpeciesError struct {
	Reason string
	Depth  float64
	Bait   catalog.BaitPattern
}

func (e *NoEligibleSpeciesError) Error() string {
	return fmt.Sprintf("no eligible species: %s (depth %g, bait %s)", e.Reason, e.Depth, e.Bait)
}

const (
	ReasonNoCandidates    = "no candidates"
	ReasonZeroTotalWeight = "zero total weight"
)

// compatible lists, for each lure pattern, the species patterns it also
// attracts besides an exact match.
var compatible = map[catalog.BaitPattern][]catalog.BaitPattern{
	catalog.PatternComplete: {catalog.PatternFront, catalog.PatternAbove, catalog.PatternBelow, catalog.PatternBehind},
	catalog.PatternMoving:   {catalog.PatternActive},
	catalog.PatternActive:   {catalog.PatternMoving},
	catalog.PatternStill:    {catalog.PatternHover},
	catalog.PatternHover:    {catalog.PatternStill},
	catalog.PatternBottom:   {catalog.PatternDeep},
	catalog.PatternDeep:     {catalog.PatternBottom},
}

// Compatible reports whether a lure worked in the player pattern attracts
// a species that reacts to the species pattern.
func Compatible(player, species catalog.BaitPattern) bool {
	if player == catalog.PatternAny || species == catalog.PatternAny || player == species {
		return true
	}
	for _, p := range compatible[player] {
		if p == species {
			return true
		}
	}
	return false
}

// Candidates filters unlocked species down to those that can bite in ctx.
// Order is preserved.
func Candidates(ctx Context, unlocked []catalog.FishSpecies) []catalog.FishSpecies {
	win := ctx.window()
	var out []catalog.FishSpecies
	for _, f := range unlocked {
		if !Compatible(ctx.Bait, f.BaitPattern) {
			continue
		}
		if !f.DepthRange.Overlaps(win) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Selector draws spawns for one catalog.
type Selector struct {
	store *catalog.Store
}

// NewSelector returns a selector whose fallback species comes from store.
func NewSelector(store *catalog.Store) *Selector {
	return &Selector{store: store}
}

// Select picks one species from unlocked for ctx and rolls its attributes.
// The same source state and inputs always give the same instance. On error
// src is not drawn from.
func (s *Selector) Select(ctx Context, unlocked []catalog.FishSpecies, mods perks.Set, src rng.Source) (Instance, error) {
	cands := Candidates(ctx, unlocked)
	if len(cands) == 0 {
		return Instance{}, &NoEligibleSpeciesError{Reason: ReasonNoCandidates, Depth: ctx.Depth, Bait: ctx.Bait}
	}

	pool := make([]catalog.FishSpecies, 0, len(cands))
	weights := make([]float64, 0, len(cands))
	heaviest := 0.0
	for _, f := range cands {
		w := f.SpawnWeight * mods.SpawnRate(f.Class)
		if !(w > 0) {
			continue
		}
		w = math.Min(w, math.MaxFloat64)
		pool = append(pool, f)
		weights = append(weights, w)
		heaviest = math.Max(heaviest, w)
	}
	if len(pool) == 0 {
		return Instance{}, &NoEligibleSpeciesError{Reason: ReasonZeroTotalWeight, Depth: ctx.Depth, Bait: ctx.Bait}
	}

	// Weights are scaled by the heaviest so the running sum stays finite.
	cumulative := make([]float64, len(weights))
	total := 0.0
	for i, w := range weights {
		total += w / heaviest
		cumulative[i] = total
	}

	roll := src.Float64() * total

	// first entry whose cumulative weight exceeds the roll
	lo, hi := 0, len(cumulative)-1
	for lo < hi {
		mid := (lo + hi) >> 1
		if roll < cumulative[mid] {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return Roll(pool[lo], src), nil
}

// SelectOrFallback is Select, except that when nothing is eligible the
// catalog's default species spawns instead.
func (s *Selector) SelectOrFallback(ctx Context, unlocked []catalog.FishSpecies, mods perks.Set, src rng.Source) (Instance, error) {
	inst, err := s.Select(ctx, unlocked, mods, src)
	if err == nil {
		return inst, nil
	}
	var none *NoEligibleSpeciesError
	if !errors.As(err, &none) {
		return Instance{}, err
	}
	inst = Roll(s.store.DefaultSpecies(), src)
	inst.Fallback = true
	return inst, nil
}

// Roll draws every attribute of f uniformly from its catalog range, in a
// fixed order so a seeded source replays exactly.
func Roll(f catalog.FishSpecies, src rng.Source) Instance {
	inst := Instance{Species: f, SpeciesID: f.ID, Class: f.Class}
	inst.Size = f.SizeRange.Lerp(src.Float64())
	inst.Speed = f.SpeedRange.Lerp(src.Float64())
	inst.Stamina = f.StaminaRange.Lerp(src.Float64())
	inst.Depth = f.DepthRange.Lerp(src.Float64())
	inst.BiteAffinity = f.BiteAffinityRange.Lerp(src.Float64())
	inst.Aggression = f.AggressionRange.Lerp(src.Float64())
	inst.FlashDuration = f.FlashDuration.Lerp(src.Float64())
	inst.Points = f.Points(inst.Size)
	return inst
}
