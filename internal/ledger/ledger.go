// Package ledger tracks cumulative player progress: monotone counters,
// per-key catch maps, and a bounded log of recent catch times.
package ledger

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/talgya/reelworks/internal/catalog"
)

// Counter names a scalar accumulator.
type Counter string

const (
	TotalCatches       Counter = "totalCatches"
	Catches            Counter = "catches"
	Casts              Counter = "casts"
	SurfaceSeconds     Counter = "surfaceSeconds"
	DeepVisits         Counter = "deepVisits"
	CumulativeWeightKg Counter = "cumulativeWeightKg"
	CumulativeScore    Counter = "cumulativeScore"
	LineBreaks         Counter = "lineBreaks"
	PlaySeconds        Counter = "playSeconds"
	PerfectGames       Counter = "perfectGames"
	BestPerfectScore   Counter = "bestPerfectScore" // running max, not a sum
	Treasures          Counter = "treasures"
	TransformedCatches Counter = "transformedCatches"
)

// Retention bounds for the recent catch log.
const (
	RecentCatchCap     = 256
	RecentCatchHorizon = 600.0 // seconds behind the newest entry
)

// ErrNegativeDelta rejects updates that would move a counter backwards.
var ErrNegativeDelta = errors.New("ledger: counters only increase")

// Snapshot is a read-only copy of a ledger. The unlock evaluator reads it;
// nothing in the engine writes to it.
type Snapshot struct {
	Counters          map[Counter]float64             `json:"counters"`
	SpeciesCatches    map[string]float64              `json:"species_catches"`
	PatternDetections map[catalog.BaitPattern]float64 `json:"pattern_detections"`
	PeriodCatches     map[catalog.Period]float64      `json:"period_catches"`
	SeasonCatches     map[catalog.Season]float64      `json:"season_catches"`
	RecentCatches     []float64                       `json:"recent_catches"` // session clock, seconds, ascending
}

// Counter reads one accumulator; absent counters read as zero.
func (s Snapshot) Counter(c Counter) float64 {
	return s.Counters[c]
}

func (s Snapshot) clone() Snapshot {
	out := emptySnapshot()
	for k, v := range s.Counters {
		out.Counters[k] = v
	}
	for k, v := range s.SpeciesCatches {
		out.SpeciesCatches[k] = v
	}
	for k, v := range s.PatternDetections {
		out.PatternDetections[k] = v
	}
	for k, v := range s.PeriodCatches {
		out.PeriodCatches[k] = v
	}
	for k, v := range s.SeasonCatches {
		out.SeasonCatches[k] = v
	}
	out.RecentCatches = append(out.RecentCatches, s.RecentCatches...)
	return out
}

func emptySnapshot() Snapshot {
	return Snapshot{
		Counters:          make(map[Counter]float64),
		SpeciesCatches:    make(map[string]float64),
		PatternDetections: make(map[catalog.BaitPattern]float64),
		PeriodCatches:     make(map[catalog.Period]float64),
		SeasonCatches:     make(map[catalog.Season]float64),
		RecentCatches:     make([]float64, 0, 16),
	}
}

// Ledger is the mutable progress record of one player. It is not safe for
// concurrent use; engine.Session serializes access.
type Ledger struct {
	state Snapshot
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{state: emptySnapshot()}
}

// FromSnapshot restores a ledger from persisted state. The recent catch log
// is re-sorted and re-trimmed.
func FromSnapshot(s Snapshot) *Ledger {
	l := &Ledger{state: s.clone()}
	sort.Float64s(l.state.RecentCatches)
	l.trimRecent()
	return l
}

// Snapshot returns a deep copy of the current state.
func (l *Ledger) Snapshot() Snapshot {
	return l.state.clone()
}

// Catch is one landed catch as reported by gameplay.
type Catch struct {
	SpeciesID string
	Class     catalog.Class
	WeightKg  float64
	Score     float64
	At        float64 // session clock, seconds
	Period    catalog.Period
	Season    catalog.Season
}

// RecordCatch folds a catch into every counter it feeds. Treasures count
// toward totalCatches and treasures; every other class counts toward
// totalCatches and catches.
func (l *Ledger) RecordCatch(c Catch) error {
	if err := nonNegative("weight", c.WeightKg); err != nil {
		return err
	}
	if err := nonNegative("score", c.Score); err != nil {
		return err
	}
	if math.IsNaN(c.At) || math.IsInf(c.At, 0) {
		return fmt.Errorf("ledger: catch time must be finite, got %g", c.At)
	}

	st := &l.state
	st.Counters[TotalCatches]++
	if c.Class == catalog.ClassTreasure {
		st.Counters[Treasures]++
	} else {
		st.Counters[Catches]++
	}
	st.Counters[CumulativeWeightKg] += c.WeightKg
	st.Counters[CumulativeScore] += c.Score

	if c.SpeciesID != "" {
		st.SpeciesCatches[c.SpeciesID]++
	}
	if c.Period != "" {
		st.PeriodCatches[c.Period]++
	}
	if c.Season != "" {
		st.SeasonCatches[c.Season]++
	}

	i := sort.SearchFloat64s(st.RecentCatches, c.At)
	st.RecentCatches = append(st.RecentCatches, 0)
	copy(st.RecentCatches[i+1:], st.RecentCatches[i:])
	st.RecentCatches[i] = c.At
	l.trimRecent()
	return nil
}

// RecordCast counts one cast.
func (l *Ledger) RecordCast() {
	l.state.Counters[Casts]++
}

// RecordPatternDetected counts one detection of a bait pattern.
func (l *Ledger) RecordPatternDetected(p catalog.BaitPattern) {
	l.state.PatternDetections[p]++
}

// RecordDeepVisit counts one descent into deep water.
func (l *Ledger) RecordDeepVisit() {
	l.state.Counters[DeepVisits]++
}

// RecordLineBreak counts one broken line.
func (l *Ledger) RecordLineBreak() {
	l.state.Counters[LineBreaks]++
}

// RecordTransformedCatch counts one catch turned into something else
// (cooked, sold, released for a reward).
func (l *Ledger) RecordTransformedCatch() {
	l.state.Counters[TransformedCatches]++
}

// AddSurfaceSeconds accumulates time spent at the surface.
func (l *Ledger) AddSurfaceSeconds(seconds float64) error {
	if err := nonNegative("surface seconds", seconds); err != nil {
		return err
	}
	l.state.Counters[SurfaceSeconds] += seconds
	return nil
}

// AddPlaySeconds accumulates total play time.
func (l *Ledger) AddPlaySeconds(seconds float64) error {
	if err := nonNegative("play seconds", seconds); err != nil {
		return err
	}
	l.state.Counters[PlaySeconds] += seconds
	return nil
}

// RecordPerfectGame counts a perfect game and raises the best perfect score.
func (l *Ledger) RecordPerfectGame(score float64) error {
	if err := nonNegative("perfect score", score); err != nil {
		return err
	}
	l.state.Counters[PerfectGames]++
	if score > l.state.Counters[BestPerfectScore] {
		l.state.Counters[BestPerfectScore] = score
	}
	return nil
}

func (l *Ledger) trimRecent() {
	rc := l.state.RecentCatches
	if len(rc) == 0 {
		return
	}
	cutoff := rc[len(rc)-1] - RecentCatchHorizon
	start := sort.SearchFloat64s(rc, cutoff)
	if n := len(rc) - start; n > RecentCatchCap {
		start = len(rc) - RecentCatchCap
	}
	if start > 0 {
		l.state.RecentCatches = append(rc[:0], rc[start:]...)
	}
}

func nonNegative(what string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return fmt.Errorf("%w: %s %g", ErrNegativeDelta, what, v)
	}
	return nil
}
