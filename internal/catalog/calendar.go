package catalog

import "time"

// Period is a time-of-day bucket used by catches_at_time_of_day.
type Period string

const (
	PeriodDawn  Period = "dawn"
	PeriodDay   Period = "day"
	PeriodDusk  Period = "dusk"
	PeriodNight Period = "night"
)

// Periods lists every known period of day.
func Periods() []Period {
	return []Period{PeriodDawn, PeriodDay, PeriodDusk, PeriodNight}
}

// PeriodAt buckets a wall-clock hour: dawn 5-8, day 8-18, dusk 18-21, night otherwise.
func PeriodAt(t time.Time) Period {
	switch h := t.Hour(); {
	case h >= 5 && h < 8:
		return PeriodDawn
	case h >= 8 && h < 18:
		return PeriodDay
	case h >= 18 && h < 21:
		return PeriodDusk
	default:
		return PeriodNight
	}
}

// Season is used by catches_in_season_at_least.
type Season string

const (
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonAutumn Season = "autumn"
	SeasonWinter Season = "winter"
)

// Seasons lists every known season.
func Seasons() []Season {
	return []Season{SeasonSpring, SeasonSummer, SeasonAutumn, SeasonWinter}
}

// SeasonOf returns the meteorological (northern hemisphere) season of t.
func SeasonOf(t time.Time) Season {
	switch t.Month() {
	case time.March, time.April, time.May:
		return SeasonSpring
	case time.June, time.July, time.August:
		return SeasonSummer
	case time.September, time.October, time.November:
		return SeasonAutumn
	default:
		return SeasonWinter
	}
}
