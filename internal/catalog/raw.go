package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Tables is the on-disk shape of both catalogs.
type Tables struct {
	Fish []RawFish `yaml:"fish"`
	Hats []RawHat  `yaml:"hats"`
}

// RawFish is one undecoded fish row.
type RawFish struct {
	ID            string    `yaml:"id"`
	Name          string    `yaml:"name"`
	Class         string    `yaml:"class"`
	Size          Range     `yaml:"size"`
	Speed         Range     `yaml:"speed"`
	Stamina       Range     `yaml:"stamina"`
	Depth         Range     `yaml:"depth"`
	BiteAffinity  Range     `yaml:"bite_affinity"`
	Aggression    Range     `yaml:"aggression"`
	FlashDuration Range     `yaml:"flash_duration"`
	PointsPerSize float64   `yaml:"points_per_size"`
	BasePoints    float64   `yaml:"base_points"`
	BaitPattern   string    `yaml:"bait_pattern"`
	SpawnWeight   float64   `yaml:"spawn_weight"`
	Unlock        RawUnlock `yaml:"unlock"`
	UnlockText    string    `yaml:"unlock_text"`
}

// RawHat is one undecoded hat row.
type RawHat struct {
	ID         string         `yaml:"id"`
	Name       string         `yaml:"name"`
	Rarity     string         `yaml:"rarity"`
	Unlock     RawUnlock      `yaml:"unlock"`
	UnlockText string         `yaml:"unlock_text"`
	Perks      map[string]any `yaml:"perks"`
}

// RawUnlock is the loosely-typed predicate record with a type discriminator.
type RawUnlock struct {
	Type    string   `yaml:"type"`
	Value   *float64 `yaml:"value,omitempty"`
	Species string   `yaml:"species,omitempty"`
	Pattern string   `yaml:"pattern,omitempty"`
	Period  string   `yaml:"period,omitempty"`
	Season  string   `yaml:"season,omitempty"`
	Count   *int     `yaml:"count,omitempty"`
	Seconds *float64 `yaml:"seconds,omitempty"`
}

// UnmarshalYAML accepts a scalar (fixed value), a [min, max] pair, or a
// {min, max} mapping.
func (r *Range) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var v float64
		if err := node.Decode(&v); err != nil {
			return fmt.Errorf("line %d: range value: %w", node.Line, err)
		}
		*r = Fixed(v)
		return nil
	case yaml.SequenceNode:
		if len(node.Content) != 2 {
			return fmt.Errorf("line %d: range needs exactly 2 values, got %d", node.Line, len(node.Content))
		}
		var lo, hi float64
		if err := node.Content[0].Decode(&lo); err != nil {
			return fmt.Errorf("line %d: range min: %w", node.Line, err)
		}
		if err := node.Content[1].Decode(&hi); err != nil {
			return fmt.Errorf("line %d: range max: %w", node.Line, err)
		}
		*r = Range{Min: lo, Max: hi}
		return nil
	case yaml.MappingNode:
		var m struct {
			Min float64 `yaml:"min"`
			Max float64 `yaml:"max"`
		}
		for i := 0; i+1 < len(node.Content); i += 2 {
			if k := node.Content[i].Value; k != "min" && k != "max" {
				return fmt.Errorf("line %d: range key %q, want min or max", node.Content[i].Line, k)
			}
		}
		if err := node.Decode(&m); err != nil {
			return fmt.Errorf("line %d: range: %w", node.Line, err)
		}
		*r = Range{Min: m.Min, Max: m.Max}
		return nil
	}
	return fmt.Errorf("line %d: unsupported range form", node.Line)
}

// DefaultTables decodes the embedded catalog tables.
func DefaultTables() (Tables, error) {
	var t Tables
	if err := decodeTables(defaultsYAML, "defaults.yaml", &t); err != nil {
		return Tables{}, err
	}
	return t, nil
}

// Parse decodes tables from YAML and validates them.
func Parse(data []byte) (*Store, error) {
	var t Tables
	if err := decodeTables(data, "yaml", &t); err != nil {
		return nil, err
	}
	return Load(t.Fish, t.Hats)
}

// LoadFile loads the embedded tables and, when path is non-empty, overlays
// the file on top. A table present in the file replaces the default table
// wholesale; an absent one keeps the default.
func LoadFile(path string) (*Store, error) {
	t, err := DefaultTables()
	if err != nil {
		return nil, err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading catalog file: %w", err)
		}
		if err := decodeTables(data, path, &t); err != nil {
			return nil, err
		}
	}

	return Load(t.Fish, t.Hats)
}

// decodeTables decodes data into t, rejecting unknown keys. Decode failures
// are reported as a ValidationError so callers see one error type for bad
// catalog data. An empty document leaves t unchanged.
func decodeTables(data []byte, source string, t *Tables) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	err := dec.Decode(t)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var terr *yaml.TypeError
	if errors.As(err, &terr) {
		issues := make([]Issue, len(terr.Errors))
		for i, msg := range terr.Errors {
			issues[i] = Issue{Path: source, Message: msg}
		}
		return &ValidationError{Issues: issues}
	}
	return &ValidationError{Issues: []Issue{{Path: source, Message: err.Error()}}}
}
