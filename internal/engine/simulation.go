// Simulation drives a session with an automated angler, one cast cycle per
// sim-second.
package engine

import (
	"errors"
	"log/slog"
	"math"

	"github.com/talgya/reelworks/internal/rng"
	"github.com/talgya/reelworks/internal/spawn"
	"github.com/talgya/reelworks/internal/waters"
	"github.com/talgya/reelworks/internal/weather"
)

// Angler behaviour tuning.
const (
	CastChance         = 0.25 // chance to cast on an idle tick
	BaseBiteChance     = 0.35 // scaled by bite affinity, perks and season
	BaseLineBreak      = 0.08 // scaled by aggression and perks
	TransformChance    = 0.15 // share of catches cooked or sold
	DeepThreshold      = 50.0 // metres
	SurfaceThreshold   = 2.0  // metres
	PerfectGameCatches = 8    // catches in one sim-hour without a break
)

// Simulation holds the angler state and wires the session to the waters.
type Simulation struct {
	Session  *Session
	Waters   *waters.Field
	Calendar Calendar
	Src      rng.Source
	LastTick uint64

	// Weather is optional; nil keeps a calm sky.
	Weather *weather.Client
	Sky     weather.Sky

	wasDeep bool

	// Current hour, for perfect games.
	hourCatches int
	hourPoints  float64
	hourBreaks  int

	Stats SimStats
}

// SimStats tracks aggregate angler statistics.
type SimStats struct {
	Casts      int     `json:"casts"`
	Bites      int     `json:"bites"`
	Catches    int     `json:"catches"`
	LineBreaks int     `json:"line_breaks"`
	Fallbacks  int     `json:"fallbacks"`
	Points     float64 `json:"points"`
}

// NewSimulation wires a session to a waters field and a random source.
func NewSimulation(sess *Session, field *waters.Field, cal Calendar, src rng.Source) *Simulation {
	sess.UseCalendar(cal)
	return &Simulation{
		Session:  sess,
		Waters:   field,
		Calendar: cal,
		Src:      src,
		LastTick: uint64(math.Max(0, sess.Clock())),
		Sky:      weather.Calm(cal.Season(0)),
	}
}

// Attach registers the simulation's tick layers on an engine and resumes
// the engine clock from the session clock.
func (s *Simulation) Attach(eng *Engine) {
	eng.Tick = s.LastTick
	eng.OnTick = s.TickSecond
	eng.OnHour = s.TickHour
	eng.OnDay = s.TickDay
}

// TickSecond runs every tick: lure drift, maybe a cast and its outcome.
func (s *Simulation) TickSecond(tick uint64) {
	s.LastTick = tick
	at := float64(tick)
	ctx := s.Waters.Context(at)

	s.observeDepth(at, ctx.Depth)
	if _, err := s.Session.Play(at, 1); err != nil {
		slog.Error("play time", "error", err)
	}

	if s.Src.Float64() >= CastChance {
		return
	}
	s.Stats.Casts++
	if _, err := s.Session.Cast(at); err != nil {
		slog.Error("cast", "error", err)
		return
	}
	if _, err := s.Session.PatternDetected(at, ctx.Bait); err != nil {
		slog.Error("pattern", "error", err)
	}

	inst, err := s.Session.SpawnOrFallback(ctx, s.Src)
	if err != nil {
		var none *spawn.NoEligibleSpeciesError
		if !errors.As(err, &none) {
			slog.Error("spawn", "error", err)
		}
		return
	}
	if inst.Fallback {
		s.Stats.Fallbacks++
	}

	set, err := s.Session.Perks()
	if err != nil {
		slog.Error("perks", "error", err)
		return
	}
	bite := set.BiteChance(BaseBiteChance * (0.5 + inst.BiteAffinity) *
		SeasonalBiteMod(s.Calendar.Season(tick), s.Calendar.Period(tick)) * s.Sky.BiteMod)
	if !set.AutoHook && s.Src.Float64() >= bite {
		return
	}
	s.Stats.Bites++

	if s.Src.Float64() < set.LineBreakChance(BaseLineBreak*(0.5+inst.Aggression)*s.Sky.LineBreakMod) {
		s.Stats.LineBreaks++
		s.hourBreaks++
		if _, err := s.Session.LineBreak(at); err != nil {
			slog.Error("line break", "error", err)
		}
		return
	}

	out, err := s.Session.RecordCatch(inst, at)
	if err != nil {
		slog.Error("catch", "species", inst.SpeciesID, "error", err)
		return
	}
	s.Stats.Catches++
	s.Stats.Points += out.Points
	s.hourCatches++
	s.hourPoints += out.Points

	if s.Src.Float64() < TransformChance {
		if _, err := s.Session.TransformedCatch(at); err != nil {
			slog.Error("transform", "error", err)
		}
	}
}

func (s *Simulation) observeDepth(at, depth float64) {
	deep := depth >= DeepThreshold
	if deep && !s.wasDeep {
		if _, err := s.Session.DeepVisit(at); err != nil {
			slog.Error("deep visit", "error", err)
		}
	}
	s.wasDeep = deep
	if depth < SurfaceThreshold {
		if _, err := s.Session.Surface(at, 1); err != nil {
			slog.Error("surface", "error", err)
		}
	}
}

// TickHour closes the hour's game. An hour with enough catches and no
// broken line is a perfect game.
func (s *Simulation) TickHour(tick uint64) {
	if s.hourBreaks == 0 && s.hourCatches >= PerfectGameCatches {
		if _, err := s.Session.PerfectGame(float64(tick), s.hourPoints); err != nil {
			slog.Error("perfect game", "error", err)
		}
	}
	slog.Info("hourly report",
		"tick", tick,
		"time", SimTime(tick),
		"catches", s.hourCatches,
		"points", math.Round(s.hourPoints),
		"line_breaks", s.hourBreaks,
	)
	s.hourCatches, s.hourPoints, s.hourBreaks = 0, 0, 0
	s.refreshSky(tick)
}

// refreshSky re-reads the weather. A failed fetch keeps the previous sky.
func (s *Simulation) refreshSky(tick uint64) {
	season := s.Calendar.Season(tick)
	if s.Weather == nil {
		s.Sky = weather.Calm(season)
		return
	}
	cond, err := s.Weather.Fetch()
	if err != nil {
		slog.Warn("weather fetch failed", "error", err)
		return
	}
	s.Sky = weather.MapToWater(cond, season)
}

// TickDay logs a daily summary.
func (s *Simulation) TickDay(tick uint64) {
	unlocked := s.Session.Unlocked()
	slog.Info("daily report",
		"tick", tick,
		"time", SimTime(tick),
		"season", s.Calendar.Season(tick),
		"casts", s.Stats.Casts,
		"catches", s.Stats.Catches,
		"line_breaks", s.Stats.LineBreaks,
		"hats", len(unlocked.Hats),
		"species", len(unlocked.Fish),
		"sky", s.Sky.Description,
	)
}
