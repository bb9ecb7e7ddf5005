package engine

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/reelworks/internal/catalog"
	"github.com/talgya/reelworks/internal/ledger"
	"github.com/talgya/reelworks/internal/perks"
	"github.com/talgya/reelworks/internal/rng"
	"github.com/talgya/reelworks/internal/spawn"
	"github.com/talgya/reelworks/internal/unlock"
)

// MaxEvents bounds the in-memory event log.
const MaxEvents = 1000

// Event is a notable occurrence in a session.
type Event struct {
	ID          string    `json:"id"`
	At          float64   `json:"at"` // session clock, seconds
	Time        time.Time `json:"time"`
	Category    string    `json:"category"` // "catch", "unlock", "equip", "line_break", ...
	Description string    `json:"description"`
}

// Profile is the persistent form of a session.
type Profile struct {
	PlayerID string          `json:"player_id"`
	Name     string          `json:"name"`
	Equipped string          `json:"equipped,omitempty"`
	Clock    float64         `json:"clock"`
	Ledger   ledger.Snapshot `json:"ledger"`
	Hats     []string        `json:"hats"`
	Fish     []string        `json:"fish"`
	Events   []Event         `json:"events,omitempty"`
}

// Session is one player's progress. A single mutex covers the ledger, the
// grant tracker and the equipped hat, so every event updates counters and
// re-evaluates unlocks atomically.
type Session struct {
	PlayerID string
	Name     string

	store    *catalog.Store
	selector *spawn.Selector

	mu       sync.Mutex
	ledger   *ledger.Ledger
	tracker  *unlock.Tracker
	equipped string
	clock    float64
	events   []Event
	calendar *Calendar
	now      func() time.Time
}

// NewSession starts a fresh player.
func NewSession(store *catalog.Store, name string) (*Session, error) {
	s := newSession(store, uuid.NewString(), name)
	s.ledger = ledger.New()
	if _, err := s.reevaluate(); err != nil {
		return nil, fmt.Errorf("initial unlocks: %w", err)
	}
	return s, nil
}

// RestoreSession rebuilds a session from a saved profile. Grants are
// restored as-is and then topped up against the restored ledger.
func RestoreSession(store *catalog.Store, p Profile) (*Session, error) {
	if p.PlayerID == "" {
		p.PlayerID = uuid.NewString()
	}
	s := newSession(store, p.PlayerID, p.Name)
	s.ledger = ledger.FromSnapshot(p.Ledger)
	s.clock = p.Clock
	if dropped := s.tracker.Restore(p.Hats, p.Fish); len(dropped) > 0 {
		slog.Warn("saved grants not in catalog", "player", p.Name, "ids", dropped)
	}
	s.events = append(s.events, p.Events...)
	s.trimEvents()

	if _, err := s.reevaluate(); err != nil {
		return nil, fmt.Errorf("restore unlocks: %w", err)
	}
	if p.Equipped != "" {
		if s.tracker.HasHat(p.Equipped) {
			s.equipped = p.Equipped
		} else {
			slog.Warn("saved equipped hat is not unlocked", "player", p.Name, "hat", p.Equipped)
		}
	}
	return s, nil
}

func newSession(store *catalog.Store, id, name string) *Session {
	warnRetention(store)
	return &Session{
		PlayerID: id,
		Name:     name,
		store:    store,
		selector: spawn.NewSelector(store),
		tracker:  unlock.NewTracker(store),
		now:      time.Now,
	}
}

// warnRetention flags fast-catch windows the ledger cannot remember long
// enough to ever satisfy.
func warnRetention(store *catalog.Store) {
	check := func(kind, id string, p catalog.Predicate) {
		fc, ok := p.(catalog.FastCatchesInTime)
		if !ok {
			return
		}
		if fc.Count > ledger.RecentCatchCap || fc.Seconds > ledger.RecentCatchHorizon {
			slog.Warn("fast catch window exceeds ledger retention",
				kind, id, "count", fc.Count, "seconds", fc.Seconds,
				"cap", ledger.RecentCatchCap, "horizon", ledger.RecentCatchHorizon)
		}
	}
	for _, h := range store.Hats() {
		check("hat", h.ID, h.Unlock)
	}
	for _, f := range store.Fish() {
		check("species", f.ID, f.Unlock)
	}
}

// UseCalendar attributes events to calendar time derived from the session
// clock instead of the wall clock.
func (s *Session) UseCalendar(c Calendar) {
	s.mu.Lock()
	s.calendar = &c
	s.mu.Unlock()
}

func (s *Session) timeAt(at float64) time.Time {
	if s.calendar != nil {
		return s.calendar.AtSeconds(at)
	}
	return s.now()
}

// Store returns the catalog the session plays against.
func (s *Session) Store() *catalog.Store {
	return s.store
}

// CatchOutcome is the result of landing a fish.
type CatchOutcome struct {
	SpeciesID string        `json:"species_id"`
	Size      float64       `json:"size"`
	WeightKg  float64       `json:"weight_kg"`
	Points    float64       `json:"points"`
	Unlocks   unlock.Result `json:"unlocks"`
}

// WeightKg estimates mass from length in cm using a cubic length-weight
// relation.
func WeightKg(sizeCm float64) float64 {
	return 1e-5 * sizeCm * sizeCm * sizeCm
}

// RecordCatch lands a spawned fish at session time at. Perk multipliers
// apply to size and points before they reach the ledger.
func (s *Session) RecordCatch(inst spawn.Instance, at float64) (CatchOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := s.perksLocked()
	if err != nil {
		return CatchOutcome{}, err
	}
	size := set.ApplySize(inst.Size)
	out := CatchOutcome{
		SpeciesID: inst.SpeciesID,
		Size:      size,
		WeightKg:  WeightKg(size),
		Points:    set.ApplyScore(inst.Points),
	}
	when := s.timeAt(at)
	if err := s.ledger.RecordCatch(ledger.Catch{
		SpeciesID: inst.SpeciesID,
		Class:     inst.Class,
		WeightKg:  out.WeightKg,
		Score:     out.Points,
		At:        at,
		Period:    catalog.PeriodAt(when),
		Season:    catalog.SeasonOf(when),
	}); err != nil {
		return CatchOutcome{}, fmt.Errorf("record catch: %w", err)
	}
	s.advance(at)
	s.logEvent("catch", fmt.Sprintf("caught %s (%.1f cm, %.0f pts)", inst.SpeciesID, size, out.Points))

	res, err := s.reevaluate()
	if err != nil {
		return CatchOutcome{}, err
	}
	out.Unlocks = res
	return out, nil
}

// Cast counts a cast.
func (s *Session) Cast(at float64) (unlock.Result, error) {
	return s.mutate(at, "", "", func(l *ledger.Ledger) error {
		l.RecordCast()
		return nil
	})
}

// PatternDetected counts a detection of the given bait pattern.
func (s *Session) PatternDetected(at float64, p catalog.BaitPattern) (unlock.Result, error) {
	return s.mutate(at, "", "", func(l *ledger.Ledger) error {
		l.RecordPatternDetected(p)
		return nil
	})
}

// DeepVisit counts a descent into deep water.
func (s *Session) DeepVisit(at float64) (unlock.Result, error) {
	return s.mutate(at, "", "", func(l *ledger.Ledger) error {
		l.RecordDeepVisit()
		return nil
	})
}

// LineBreak counts a snapped line.
func (s *Session) LineBreak(at float64) (unlock.Result, error) {
	return s.mutate(at, "line_break", "the line snapped", func(l *ledger.Ledger) error {
		l.RecordLineBreak()
		return nil
	})
}

// TransformedCatch counts a catch that was cooked, sold or traded.
func (s *Session) TransformedCatch(at float64) (unlock.Result, error) {
	return s.mutate(at, "", "", func(l *ledger.Ledger) error {
		l.RecordTransformedCatch()
		return nil
	})
}

// Surface adds time spent at the surface.
func (s *Session) Surface(at, seconds float64) (unlock.Result, error) {
	return s.mutate(at, "", "", func(l *ledger.Ledger) error {
		return l.AddSurfaceSeconds(seconds)
	})
}

// Play adds play time.
func (s *Session) Play(at, seconds float64) (unlock.Result, error) {
	return s.mutate(at, "", "", func(l *ledger.Ledger) error {
		return l.AddPlaySeconds(seconds)
	})
}

// PerfectGame records a perfect game with its score.
func (s *Session) PerfectGame(at, score float64) (unlock.Result, error) {
	return s.mutate(at, "perfect_game", fmt.Sprintf("perfect game, %.0f pts", score), func(l *ledger.Ledger) error {
		return l.RecordPerfectGame(score)
	})
}

// mutate applies fn to the ledger and re-evaluates unlocks under one lock.
// A non-empty desc is logged as an event of the given category.
func (s *Session) mutate(at float64, category, desc string, fn func(*ledger.Ledger) error) (unlock.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(s.ledger); err != nil {
		return unlock.Result{}, err
	}
	s.advance(at)
	if desc != "" {
		s.logEvent(category, desc)
	}
	return s.reevaluate()
}

// reevaluate runs the tracker against the current ledger. Callers hold mu
// (or own the session exclusively during construction).
func (s *Session) reevaluate() (unlock.Result, error) {
	res, err := s.tracker.EvaluateAll(s.ledger.Snapshot())
	if err != nil {
		return unlock.Result{}, fmt.Errorf("evaluate unlocks: %w", err)
	}
	for _, id := range res.NewHats {
		h, _ := s.store.HatByID(id)
		slog.Info("hat unlocked", "player", s.Name, "hat", id, "name", h.Name, "rarity", h.Rarity.String())
		s.logEvent("unlock", fmt.Sprintf("unlocked hat %s (%s)", h.Name, h.Rarity))
	}
	for _, id := range res.NewFish {
		slog.Info("species unlocked", "player", s.Name, "species", id)
		s.logEvent("unlock", "new species in the water: "+id)
	}
	return res, nil
}

func (s *Session) advance(at float64) {
	if !math.IsNaN(at) && at > s.clock {
		s.clock = at
	}
}

func (s *Session) logEvent(category, desc string) {
	s.events = append(s.events, Event{
		ID:          uuid.NewString(),
		At:          s.clock,
		Time:        s.timeAt(s.clock),
		Category:    category,
		Description: desc,
	})
	s.trimEvents()
}

func (s *Session) trimEvents() {
	if len(s.events) > MaxEvents {
		s.events = append(s.events[:0], s.events[len(s.events)-MaxEvents:]...)
	}
}

// Equip wears an unlocked hat. An empty id takes the hat off.
func (s *Session) Equip(hatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if hatID != "" {
		if _, ok := s.store.HatByID(hatID); !ok {
			return catalog.UnknownReference("equip", "hat", hatID)
		}
		if !s.tracker.HasHat(hatID) {
			return &catalog.ConfigurationError{Op: "equip", Reason: fmt.Sprintf("hat %q is not unlocked", hatID)}
		}
	}
	s.equipped = hatID
	if hatID == "" {
		s.logEvent("equip", "took off hat")
	} else {
		s.logEvent("equip", "equipped "+hatID)
	}
	return nil
}

// Equipped returns the worn hat id, or "".
func (s *Session) Equipped() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.equipped
}

// Perks returns the effective modifier set.
func (s *Session) Perks() (perks.Set, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.perksLocked()
}

func (s *Session) perksLocked() (perks.Set, error) {
	return perks.Effective(s.store, s.tracker.Hats(), s.equipped)
}

// Spawn selects a fish for ctx among the unlocked species.
func (s *Session) Spawn(ctx spawn.Context, src rng.Source) (spawn.Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, err := s.perksLocked()
	if err != nil {
		return spawn.Instance{}, err
	}
	inst, err := s.selector.Select(ctx, s.tracker.UnlockedSpecies(), set, src)
	if err != nil {
		return spawn.Instance{}, err
	}
	slog.Debug("spawn", "player", s.Name, "species", inst.SpeciesID, "depth", ctx.Depth, "bait", ctx.Bait)
	return inst, nil
}

// SpawnOrFallback is Spawn, falling back to the catalog default species
// when nothing is eligible.
func (s *Session) SpawnOrFallback(ctx spawn.Context, src rng.Source) (spawn.Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, err := s.perksLocked()
	if err != nil {
		return spawn.Instance{}, err
	}
	inst, err := s.selector.SelectOrFallback(ctx, s.tracker.UnlockedSpecies(), set, src)
	if err != nil {
		return spawn.Instance{}, err
	}
	if inst.Fallback {
		slog.Debug("spawn fallback", "player", s.Name, "species", inst.SpeciesID, "depth", ctx.Depth, "bait", ctx.Bait)
	}
	return inst, nil
}

// Snapshot returns a copy of the ledger.
func (s *Session) Snapshot() ledger.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Snapshot()
}

// Unlocked returns the current grants.
func (s *Session) Unlocked() unlock.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return unlock.Result{Hats: s.tracker.Hats(), Fish: s.tracker.Fish()}
}

// Clock returns the latest session time seen.
func (s *Session) Clock() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock
}

// Events returns up to limit of the most recent events, oldest first.
// limit <= 0 returns all of them.
func (s *Session) Events(limit int) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := 0
	if limit > 0 && len(s.events) > limit {
		start = len(s.events) - limit
	}
	out := make([]Event, len(s.events)-start)
	copy(out, s.events[start:])
	return out
}

// Profile captures the session for storage.
func (s *Session) Profile() Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	return Profile{
		PlayerID: s.PlayerID,
		Name:     s.Name,
		Equipped: s.equipped,
		Clock:    s.clock,
		Ledger:   s.ledger.Snapshot(),
		Hats:     s.tracker.Hats(),
		Fish:     s.tracker.Fish(),
		Events:   events,
	}
}
