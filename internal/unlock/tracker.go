package unlock

import (
	"fmt"

	"github.com/talgya/reelworks/internal/catalog"
	"github.com/talgya/reelworks/internal/ledger"
)

// Result is the outcome of one evaluation pass. Hats and Fish hold every
// granted id in catalog order; NewHats and NewFish hold only those granted
// by this pass.
type Result struct {
	Hats    []string `json:"hats"`
	Fish    []string `json:"fish"`
	NewHats []string `json:"new_hats,omitempty"`
	NewFish []string `json:"new_fish,omitempty"`
}

// Tracker remembers grants. Once an id is granted it is never revoked, so a
// windowed predicate that held once stays unlocked for good. Not safe for
// concurrent use.
type Tracker struct {
	store *catalog.Store
	hats  map[string]bool
	fish  map[string]bool
}

// NewTracker returns a tracker with no grants.
func NewTracker(store *catalog.Store) *Tracker {
	return &Tracker{
		store: store,
		hats:  make(map[string]bool),
		fish:  make(map[string]bool),
	}
}

// Restore seeds grants loaded from storage. Ids the catalog no longer
// knows are skipped and returned so the caller can report them.
func (t *Tracker) Restore(hatIDs, fishIDs []string) (dropped []string) {
	for _, id := range hatIDs {
		if _, ok := t.store.HatByID(id); !ok {
			dropped = append(dropped, id)
			continue
		}
		t.hats[id] = true
	}
	for _, id := range fishIDs {
		if _, ok := t.store.FishByID(id); !ok {
			dropped = append(dropped, id)
			continue
		}
		t.fish[id] = true
	}
	return dropped
}

// EvaluateAll checks every ungranted hat and species against snap and
// grants those that hold. On error nothing from this pass is granted.
func (t *Tracker) EvaluateAll(snap ledger.Snapshot) (Result, error) {
	var res Result
	var newHats, newFish []string

	for _, h := range t.store.Hats() {
		if t.hats[h.ID] {
			continue
		}
		ok, err := IsUnlocked(h.Unlock, snap, t.store)
		if err != nil {
			return Result{}, fmt.Errorf("hat %s: %w", h.ID, err)
		}
		if ok {
			newHats = append(newHats, h.ID)
		}
	}
	for _, f := range t.store.Fish() {
		if t.fish[f.ID] {
			continue
		}
		ok, err := IsUnlocked(f.Unlock, snap, t.store)
		if err != nil {
			return Result{}, fmt.Errorf("species %s: %w", f.ID, err)
		}
		if ok {
			newFish = append(newFish, f.ID)
		}
	}

	for _, id := range newHats {
		t.hats[id] = true
	}
	for _, id := range newFish {
		t.fish[id] = true
	}
	res.NewHats = newHats
	res.NewFish = newFish
	res.Hats = t.Hats()
	res.Fish = t.Fish()
	return res, nil
}

// HasHat reports whether the hat has been granted.
func (t *Tracker) HasHat(id string) bool {
	return t.hats[id]
}

// HasFish reports whether the species has been granted.
func (t *Tracker) HasFish(id string) bool {
	return t.fish[id]
}

// Hats returns granted hat ids in catalog order.
func (t *Tracker) Hats() []string {
	var ids []string
	for _, id := range t.store.HatIDs() {
		if t.hats[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

// Fish returns granted species ids in catalog order.
func (t *Tracker) Fish() []string {
	var ids []string
	for _, id := range t.store.SpeciesIDs() {
		if t.fish[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

// UnlockedSpecies resolves the granted species ids to catalog rows.
func (t *Tracker) UnlockedSpecies() []catalog.FishSpecies {
	var out []catalog.FishSpecies
	for _, f := range t.store.Fish() {
		if t.fish[f.ID] {
			out = append(out, f)
		}
	}
	return out
}
