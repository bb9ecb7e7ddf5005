// Package waters drives where the simulated angler's lure sits over time.
// Lure depth and the bait pattern being worked drift smoothly along
// opensimplex noise fields, so consecutive casts look alike and far-apart
// casts do not.
package waters

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/reelworks/internal/catalog"
	"github.com/talgya/reelworks/internal/spawn"
)

// Config holds drift parameters.
type Config struct {
	Seed           int64
	MaxDepth       float64 // metres
	DepthTolerance float64 // passed through to spawn contexts; 0 = selector default
	DepthFrequency float64 // noise cycles per sim-second
	BaitFrequency  float64
}

// DefaultConfig returns the drift used by the simulation binary.
func DefaultConfig() Config {
	return Config{
		MaxDepth:       160,
		DepthTolerance: 10,
		DepthFrequency: 0.004,
		BaitFrequency:  0.01,
	}
}

// Field samples the lure state at a point on the session clock.
type Field struct {
	cfg      Config
	depth    opensimplex.Noise
	bait     opensimplex.Noise
	patterns []catalog.BaitPattern
}

// NewField builds the noise fields for cfg.Seed.
func NewField(cfg Config) *Field {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultConfig().MaxDepth
	}
	if cfg.DepthFrequency <= 0 {
		cfg.DepthFrequency = DefaultConfig().DepthFrequency
	}
	if cfg.BaitFrequency <= 0 {
		cfg.BaitFrequency = DefaultConfig().BaitFrequency
	}
	return &Field{
		cfg:      cfg,
		depth:    opensimplex.NewNormalized(cfg.Seed),
		bait:     opensimplex.NewNormalized(cfg.Seed + 1),
		patterns: catalog.BaitPatterns(),
	}
}

// Depth is the lure depth in metres at time t.
func (f *Field) Depth(t float64) float64 {
	// Squaring biases the lure toward the shallows.
	n := math.Max(0, math.Min(1, octaveNoise(f.depth, t, 0, 3, f.cfg.DepthFrequency, 0.5)))
	return f.cfg.MaxDepth * n * n
}

// Bait is the pattern the lure is being worked in at time t.
func (f *Field) Bait(t float64) catalog.BaitPattern {
	n := octaveNoise(f.bait, t, 7.5, 2, f.cfg.BaitFrequency, 0.5)
	i := int(math.Floor(n * float64(len(f.patterns))))
	if i < 0 {
		i = 0
	}
	if i >= len(f.patterns) {
		i = len(f.patterns) - 1
	}
	return f.patterns[i]
}

// Context is the spawn context for a cast at time t.
func (f *Field) Context(t float64) spawn.Context {
	return spawn.Context{
		Depth:          f.Depth(t),
		DepthTolerance: f.cfg.DepthTolerance,
		Bait:           f.Bait(t),
		ElapsedSeconds: t,
	}
}

// octaveNoise layers several octaves of noise for natural-looking drift.
// Returns a value in [0, 1] for normalized noise sources.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
