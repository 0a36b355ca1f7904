// Package combat tracks the participants of an encounter and exposes them to
// the skill engine as resolvable entities with a combat-status snapshot.
package combat

import (
	"sort"
	"sync"

	"github.com/cory-johannsen/skillcast/internal/game/skill"
)

// Kind distinguishes player combatants from NPC combatants.
type Kind int

const (
	KindPlayer Kind = iota
	KindNPC
)

// String returns "player" or "npc".
func (k Kind) String() string {
	if k == KindPlayer {
		return "player"
	}
	return "npc"
}

// Combatant is one participant in an encounter. All methods are safe for
// concurrent use; skill effects from different casters may land on the same
// combatant at once.
type Combatant struct {
	mu         sync.Mutex
	id         skill.EntityRef
	name       string
	kind       Kind
	maxHP      int
	hp         int
	conditions map[string]struct{}
}

// NewCombatant creates a combatant at full health.
//
// Precondition: id must be non-empty; maxHP must be > 0.
func NewCombatant(id skill.EntityRef, name string, kind Kind, maxHP int) *Combatant {
	return &Combatant{
		id:         id,
		name:       name,
		kind:       kind,
		maxHP:      maxHP,
		hp:         maxHP,
		conditions: make(map[string]struct{}),
	}
}

func (c *Combatant) Ref() skill.EntityRef { return c.id }
func (c *Combatant) Name() string         { return c.name }
func (c *Combatant) Kind() Kind           { return c.kind }

// HP returns the current and maximum hit points.
func (c *Combatant) HP() (current, max int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hp, c.maxHP
}

// IsDead reports whether the combatant is at zero hit points.
func (c *Combatant) IsDead() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hp <= 0
}

// ApplyDamage reduces hit points by amount, flooring at zero, and returns the
// damage actually dealt.
//
// Precondition: amount must be >= 0.
// Postcondition: HP >= 0.
func (c *Combatant) ApplyDamage(amount int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	dealt := min(amount, c.hp)
	c.hp -= dealt
	return dealt
}

// Heal restores up to amount hit points, capped at the maximum, and returns
// the amount restored. The dead are not healed.
func (c *Combatant) Heal(amount int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hp <= 0 {
		return 0
	}
	healed := min(amount, c.maxHP-c.hp)
	c.hp += healed
	return healed
}

// AddCondition applies the condition id. It reports false when the condition
// was already present.
func (c *Combatant) AddCondition(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.conditions[id]; ok {
		return false
	}
	c.conditions[id] = struct{}{}
	return true
}

// RemoveCondition clears the condition id.
func (c *Combatant) RemoveCondition(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.conditions, id)
}

// Conditions returns the active condition ids in sorted order.
func (c *Combatant) Conditions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sortedConditions()
}

func (c *Combatant) sortedConditions() []string {
	out := make([]string, 0, len(c.conditions))
	for id := range c.conditions {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Status returns a JSON-compatible snapshot of the combatant.
func (c *Combatant) Status() skill.CombatStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	conds := make([]any, 0, len(c.conditions))
	for _, id := range c.sortedConditions() {
		conds = append(conds, id)
	}
	return skill.CombatStatus{
		"name":       c.name,
		"kind":       c.kind.String(),
		"hp":         c.hp,
		"max_hp":     c.maxHP,
		"dead":       c.hp <= 0,
		"conditions": conds,
	}
}
