// Package engine runs fishing sessions: the per-player session state that
// serializes ledger updates and unlock evaluation, and the tick loop that
// drives a simulated angler.
package engine

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Tick layers. One tick is one second on the session clock.
const (
	TicksPerSimMinute = 60
	TicksPerSimHour   = 3600
	TicksPerSimDay    = 86400
)

// Engine drives the simulation forward.
type Engine struct {
	Tick     uint64        // Current tick counter (monotonic, never resets)
	Interval time.Duration // Base tick interval at speed 1

	// Callbacks for each tick layer, populated during setup.
	OnTick   func(tick uint64)
	OnMinute func(tick uint64)
	OnHour   func(tick uint64)
	OnDay    func(tick uint64)

	mu      sync.Mutex
	speed   float64 // 1.0 = real-time, 0 = paused
	running bool
}

// NewEngine creates an engine running at real-time speed.
func NewEngine() *Engine {
	return &Engine{
		Interval: time.Second,
		speed:    1.0,
	}
}

// Speed returns the current speed multiplier.
func (e *Engine) Speed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

// SetSpeed changes the speed multiplier. 0 pauses.
func (e *Engine) SetSpeed(speed float64) {
	e.mu.Lock()
	e.speed = speed
	e.mu.Unlock()
}

// Running reports whether Run is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Run starts the loop. Blocks until Stop is called.
func (e *Engine) Run() {
	e.mu.Lock()
	e.running = true
	e.mu.Unlock()
	slog.Info("simulation engine started", "tick", e.Tick, "speed", e.Speed())

	for e.Running() {
		speed := e.Speed()
		if speed <= 0 {
			// Paused, check again shortly.
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()

		e.Step()

		// Sleep for the remainder of the tick interval, adjusted for speed.
		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval) / speed)
		if elapsed < target {
			time.Sleep(target - elapsed)
		}
	}

	slog.Info("simulation engine stopped", "tick", e.Tick)
}

// Stop halts the loop after the current tick.
func (e *Engine) Stop() {
	e.mu.Lock()
	e.running = false
	e.mu.Unlock()
}

// Step advances the simulation by one tick and fires the layers due.
func (e *Engine) Step() {
	e.Tick++

	if e.OnTick != nil {
		e.OnTick(e.Tick)
	}
	if e.Tick%TicksPerSimMinute == 0 && e.OnMinute != nil {
		e.OnMinute(e.Tick)
	}
	if e.Tick%TicksPerSimHour == 0 && e.OnHour != nil {
		e.OnHour(e.Tick)
	}
	if e.Tick%TicksPerSimDay == 0 && e.OnDay != nil {
		e.OnDay(e.Tick)
	}
}

// SimTime formats a tick as elapsed session time.
func SimTime(tick uint64) string {
	seconds := tick % 60
	minutes := (tick / 60) % 60
	hours := (tick / TicksPerSimHour) % 24
	days := tick/TicksPerSimDay + 1
	return fmt.Sprintf("Day %d, %d:%02d:%02d", days, hours, minutes, seconds)
}
