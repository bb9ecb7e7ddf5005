package catalog

import (
	"fmt"
	"math"
	"sort"
)

// Perks is the typed perk set a hat grants. Multipliers default to 1 and
// flags to false, so a zero-perk hat is the identity.
type Perks struct {
	PointsMultiplier          float64 `json:"pointsMultiplier"`
	ReelSpeedMultiplier       float64 `json:"reelSpeedMultiplier"`
	BiteChanceMultiplier      float64 `json:"biteChanceMultiplier"`
	LineBreakChanceMultiplier float64 `json:"lineBreakChanceMultiplier"`
	StaminaDrainMultiplier    float64 `json:"staminaDrainMultiplier"`
	SizeMultiplier            float64 `json:"sizeMultiplier"`
	MythicSpawnRate           float64 `json:"mythicSpawnRate"`
	JellyfishSpawnRate        float64 `json:"jellyfishSpawnRate"`
	TreasureSpawnRate         float64 `json:"treasureSpawnRate"`

	UnbreakableLine bool `json:"unbreakableLine"`
	AutoHook        bool `json:"autoHook"`
	ShowDepth       bool `json:"showDepth"`
}

// NoPerks returns the identity perk set.
func NoPerks() Perks {
	return Perks{
		PointsMultiplier:          1,
		ReelSpeedMultiplier:       1,
		BiteChanceMultiplier:      1,
		LineBreakChanceMultiplier: 1,
		StaminaDrainMultiplier:    1,
		SizeMultiplier:            1,
		MythicSpawnRate:           1,
		JellyfishSpawnRate:        1,
		TreasureSpawnRate:         1,
	}
}

var multiplierPerks = map[string]func(*Perks) *float64{
	"pointsMultiplier":          func(p *Perks) *float64 { return &p.PointsMultiplier },
	"reelSpeedMultiplier":       func(p *Perks) *float64 { return &p.ReelSpeedMultiplier },
	"biteChanceMultiplier":      func(p *Perks) *float64 { return &p.BiteChanceMultiplier },
	"lineBreakChanceMultiplier": func(p *Perks) *float64 { return &p.LineBreakChanceMultiplier },
	"staminaDrainMultiplier":    func(p *Perks) *float64 { return &p.StaminaDrainMultiplier },
	"sizeMultiplier":            func(p *Perks) *float64 { return &p.SizeMultiplier },
	"mythicSpawnRate":           func(p *Perks) *float64 { return &p.MythicSpawnRate },
	"jellyfishSpawnRate":        func(p *Perks) *float64 { return &p.JellyfishSpawnRate },
	"treasureSpawnRate":         func(p *Perks) *float64 { return &p.TreasureSpawnRate },
}

var flagPerks = map[string]func(*Perks) *bool{
	"unbreakableLine": func(p *Perks) *bool { return &p.UnbreakableLine },
	"autoHook":        func(p *Perks) *bool { return &p.AutoHook },
	"showDepth":       func(p *Perks) *bool { return &p.ShowDepth },
}

// PerkNames lists every known perk key, sorted.
func PerkNames() []string {
	names := make([]string, 0, len(multiplierPerks)+len(flagPerks))
	for name := range multiplierPerks {
		names = append(names, name)
	}
	for name := range flagPerks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// parsePerks maps the open YAML perk table onto Perks. Every problem is
// reported through add; the returned set holds the valid entries.
func parsePerks(raw map[string]any, path string, add func(path, msg string)) Perks {
	perks := NoPerks()

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, name := range keys {
		value := raw[name]
		field := path + "." + name

		if ptr, ok := multiplierPerks[name]; ok {
			f, ok := toFloat(value)
			switch {
			case !ok:
				add(field, fmt.Sprintf("multiplier perk must be a number, got %T", value))
			case math.IsNaN(f) || math.IsInf(f, 0) || f < 0:
				add(field, fmt.Sprintf("multiplier must be finite and >= 0, got %g", f))
			default:
				*ptr(&perks) = f
			}
			continue
		}

		if ptr, ok := flagPerks[name]; ok {
			b, ok := value.(bool)
			if !ok {
				add(field, fmt.Sprintf("flag perk must be a boolean, got %T", value))
				continue
			}
			*ptr(&perks) = b
			continue
		}

		add(field, "unknown perk"+didYouMean(name, PerkNames()))
	}

	return perks
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}
