package skill

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// Set is the collection of skills held by one character, keyed by skill key.
//
// Set is not safe for concurrent use.
type Set struct {
	owner  Entity
	defs   *Registry
	engine *Engine
	skills map[string]*Instance
	newID  func() string
}

// NewSet creates an empty Set for owner.
//
// Precondition: owner, defs and engine must be non-nil.
func NewSet(owner Entity, defs *Registry, engine *Engine) *Set {
	return &Set{
		owner:  owner,
		defs:   defs,
		engine: engine,
		skills: make(map[string]*Instance),
		newID:  func() string { return uuid.NewString() },
	}
}

// Owner returns the character holding the set.
func (s *Set) Owner() Entity { return s.owner }

// Adopt adds an already-owned instance, typically one restored from storage.
//
// Postcondition: Returns ErrAlreadyLearned if the key is already held.
func (s *Set) Adopt(inst *Instance) error {
	if _, ok := s.skills[inst.Key()]; ok {
		return fmt.Errorf("adopting %q: %w", inst.Key(), ErrAlreadyLearned)
	}
	inst.ApplyCooldownModifier(s.owner, s.engine.modifier)
	s.skills[inst.Key()] = inst
	return nil
}

// Learn creates a new instance of key and binds it to the owner.
//
// Postcondition: Returns ErrUnknownSkill or ErrAlreadyLearned on failure.
func (s *Set) Learn(key string, isDefault bool) (*Instance, error) {
	def, ok := s.defs.Get(key)
	if !ok {
		return nil, fmt.Errorf("learning: %w: %q", ErrUnknownSkill, key)
	}
	if _, ok := s.skills[key]; ok {
		return nil, fmt.Errorf("learning %q: %w", key, ErrAlreadyLearned)
	}
	inst := NewInstance(s.newID(), def)
	inst.SetDefault(isDefault)
	s.engine.Bind(inst, s.owner)
	s.skills[key] = inst
	return inst, nil
}

// Unlearn removes key from the set and returns the removed instance.
func (s *Set) Unlearn(key string) (*Instance, error) {
	inst, ok := s.skills[key]
	if !ok {
		return nil, fmt.Errorf("unlearning: %w: %q", ErrNotLearned, key)
	}
	delete(s.skills, key)
	return inst, nil
}

// Get returns the instance for key.
func (s *Set) Get(key string) (*Instance, bool) {
	inst, ok := s.skills[key]
	return inst, ok
}

// All returns every held instance ordered by key.
func (s *Set) All() []*Instance {
	out := make([]*Instance, 0, len(s.skills))
	for _, inst := range s.skills {
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// Usable returns the instances that may be used now, ordered by key.
func (s *Set) Usable(allowPassive bool) []*Instance {
	now := s.engine.Now()
	var out []*Instance
	for _, inst := range s.All() {
		if inst.Usable(allowPassive, now) {
			out = append(out, inst)
		}
	}
	return out
}

// SyncDefaults makes the set's default skills match keys. Missing defaults are
// learned, defaults no longer listed are removed, and a learned skill that is
// now listed is promoted to default. Skills learned outside the template are
// left alone.
//
// Postcondition: on error the set is unchanged.
func (s *Set) SyncDefaults(keys []string) (learned, removed []*Instance, err error) {
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		if _, ok := s.defs.Get(k); !ok {
			return nil, nil, fmt.Errorf("syncing defaults: %w: %q", ErrUnknownSkill, k)
		}
		want[k] = true
	}
	for _, inst := range s.All() {
		switch {
		case inst.IsDefault() && !want[inst.Key()]:
			delete(s.skills, inst.Key())
			removed = append(removed, inst)
		case !inst.IsDefault() && want[inst.Key()]:
			inst.SetDefault(true)
		}
	}
	sorted := make([]string, 0, len(want))
	for k := range want {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)
	for _, k := range sorted {
		if _, ok := s.skills[k]; ok {
			continue
		}
		inst, err := s.Learn(k, true)
		if err != nil {
			return nil, nil, err
		}
		learned = append(learned, inst)
	}
	return learned, removed, nil
}

// ResetCooldowns clears the cooldown of every held skill.
func (s *Set) ResetCooldowns() {
	for _, inst := range s.skills {
		inst.ResetCooldown()
	}
}
