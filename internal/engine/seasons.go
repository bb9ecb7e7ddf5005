// Calendar and seasonal bite activity.
package engine

import (
	"time"

	"github.com/talgya/reelworks/internal/catalog"
)

// Calendar maps the session clock onto wall time so catches can be
// attributed to a period of day and a season.
type Calendar struct {
	Epoch time.Time // wall time at tick 0
}

// At returns the wall time of a tick.
func (c Calendar) At(tick uint64) time.Time {
	return c.Epoch.Add(time.Duration(tick) * time.Second)
}

// AtSeconds returns the wall time of a point on the session clock.
func (c Calendar) AtSeconds(at float64) time.Time {
	return c.Epoch.Add(time.Duration(at * float64(time.Second)))
}

// Period returns the period of day at a tick.
func (c Calendar) Period(tick uint64) catalog.Period {
	return catalog.PeriodAt(c.At(tick))
}

// Season returns the season at a tick.
func (c Calendar) Season(tick uint64) catalog.Season {
	return catalog.SeasonOf(c.At(tick))
}

// SeasonalBiteMod scales bite probability by season and time of day. Fish
// feed hardest around dawn and dusk and go sluggish in winter.
func SeasonalBiteMod(season catalog.Season, period catalog.Period) float64 {
	mod := 1.0
	switch season {
	case catalog.SeasonWinter:
		mod = 0.7
	case catalog.SeasonSpring:
		mod = 1.1
	case catalog.SeasonSummer:
		mod = 1.0
	case catalog.SeasonAutumn:
		mod = 1.15
	}
	switch period {
	case catalog.PeriodDawn, catalog.PeriodDusk:
		mod *= 1.3
	case catalog.PeriodNight:
		mod *= 0.8
	}
	return mod
}
