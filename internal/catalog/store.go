package catalog

// Store is the validated, read-only catalog. It is safe to share across
// goroutines and sessions; nothing mutates it after Load.
type Store struct {
	fish    []FishSpecies
	hats    []Hat
	fishIdx map[string]int
	hatIdx  map[string]int
}

// Fish returns a copy of the fish table in catalog order.
func (s *Store) Fish() []FishSpecies {
	out := make([]FishSpecies, len(s.fish))
	copy(out, s.fish)
	return out
}

// Hats returns a copy of the hat table in catalog order.
func (s *Store) Hats() []Hat {
	out := make([]Hat, len(s.hats))
	copy(out, s.hats)
	return out
}

// FishByID looks up a species.
func (s *Store) FishByID(id string) (FishSpecies, bool) {
	i, ok := s.fishIdx[id]
	if !ok {
		return FishSpecies{}, false
	}
	return s.fish[i], true
}

// HatByID looks up a hat.
func (s *Store) HatByID(id string) (Hat, bool) {
	i, ok := s.hatIdx[id]
	if !ok {
		return Hat{}, false
	}
	return s.hats[i], true
}

// SpeciesIDs returns every species id in catalog order.
func (s *Store) SpeciesIDs() []string {
	ids := make([]string, len(s.fish))
	for i, f := range s.fish {
		ids[i] = f.ID
	}
	return ids
}

// HatIDs returns every hat id in catalog order.
func (s *Store) HatIDs() []string {
	ids := make([]string, len(s.hats))
	for i, h := range s.hats {
		ids[i] = h.ID
	}
	return ids
}

// DefaultSpecies is the first species with an always unlock. Load
// guarantees one exists.
func (s *Store) DefaultSpecies() FishSpecies {
	for _, f := range s.fish {
		if f.Unlock.Kind() == KindAlways {
			return f
		}
	}
	return FishSpecies{}
}

// Builder collects raw rows and seals once Build succeeds. It is the only
// write path into a catalog.
type Builder struct {
	fish   []RawFish
	hats   []RawHat
	sealed bool
}

// NewBuilder starts an empty catalog.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddFish queues a fish row.
func (b *Builder) AddFish(rows ...RawFish) error {
	if b.sealed {
		return &ConfigurationError{Op: "add fish", Reason: "catalog is sealed"}
	}
	b.fish = append(b.fish, rows...)
	return nil
}

// AddHat queues a hat row.
func (b *Builder) AddHat(rows ...RawHat) error {
	if b.sealed {
		return &ConfigurationError{Op: "add hat", Reason: "catalog is sealed"}
	}
	b.hats = append(b.hats, rows...)
	return nil
}

// Build validates the queued rows. A failed build leaves the builder open
// so rows can be fixed; a successful one seals it.
func (b *Builder) Build() (*Store, error) {
	if b.sealed {
		return nil, &ConfigurationError{Op: "build", Reason: "catalog is sealed"}
	}
	store, err := Load(b.fish, b.hats)
	if err != nil {
		return nil, err
	}
	b.sealed = true
	return store, nil
}
