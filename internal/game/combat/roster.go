package combat

import (
	"fmt"
	"sort"
	"sync"

	"github.com/cory-johannsen/skillcast/internal/game/skill"
)

// Roster is the set of combatants known to the server. It implements
// skill.Resolver and skill.StatusProvider.
type Roster struct {
	mu      sync.RWMutex
	members map[skill.EntityRef]*Combatant
}

// NewRoster creates an empty Roster.
func NewRoster() *Roster {
	return &Roster{members: make(map[skill.EntityRef]*Combatant)}
}

// Add registers c.
//
// Postcondition: Returns an error if a combatant with the same id is present.
func (r *Roster) Add(c *Combatant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[c.Ref()]; ok {
		return fmt.Errorf("combatant %q already registered", c.Ref())
	}
	r.members[c.Ref()] = c
	return nil
}

// Remove unregisters id and reports whether it was present.
func (r *Roster) Remove(id skill.EntityRef) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.members[id]
	delete(r.members, id)
	return ok
}

// Get returns the combatant for id.
func (r *Roster) Get(id skill.EntityRef) (*Combatant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.members[id]
	return c, ok
}

// Resolve implements skill.Resolver.
func (r *Roster) Resolve(ref skill.EntityRef) (skill.Entity, bool) {
	c, ok := r.Get(ref)
	if !ok {
		return nil, false
	}
	return c, true
}

// CombatStatus implements skill.StatusProvider. Unknown ids yield nil.
func (r *Roster) CombatStatus(ref skill.EntityRef) skill.CombatStatus {
	c, ok := r.Get(ref)
	if !ok {
		return nil
	}
	return c.Status()
}

// All returns every combatant ordered by id.
func (r *Roster) All() []*Combatant {
	r.mu.RLock()
	out := make([]*Combatant, 0, len(r.members))
	for _, c := range r.members {
		out = append(out, c)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Ref() < out[j].Ref() })
	return out
}
