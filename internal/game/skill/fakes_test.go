package skill_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cory-johannsen/skillcast/internal/game/skill"
)

type entity struct {
	ref  skill.EntityRef
	name string
}

func (e entity) Ref() skill.EntityRef { return e.ref }
func (e entity) Name() string         { return e.name }

type world map[skill.EntityRef]entity

func (w world) Resolve(ref skill.EntityRef) (skill.Entity, bool) {
	e, ok := w[ref]
	if !ok {
		return nil, false
	}
	return e, true
}

func (w world) CombatStatus(ref skill.EntityRef) skill.CombatStatus {
	if _, ok := w[ref]; !ok {
		return nil
	}
	return skill.CombatStatus{"hp": 10}
}

type call struct {
	function string
	caster   skill.EntityRef
	target   skill.EntityRef
}

type fakeEffects struct {
	mu    sync.Mutex
	calls []call
	lines []string
	err   error
}

func (f *fakeEffects) Evaluate(ctx context.Context, function string, caster, target skill.Entity) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := call{function: function, caster: caster.Ref()}
	if target != nil {
		c.target = target.Ref()
	}
	f.calls = append(f.calls, c)
	if err := ctx.Err(); err != nil {
		return nil, errors.New("effect saw a cancelled context")
	}
	return f.lines, f.err
}

func (f *fakeEffects) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

var (
	hero = entity{ref: "char-1", name: "Hero"}
	orc  = entity{ref: "npc-7", name: "Orc"}
)

func newWorld() world {
	return world{hero.ref: hero, orc.ref: orc}
}

func strike() *skill.Definition {
	return &skill.Definition{
		Key:      "strike",
		Name:     "Strike",
		Function: "hit(10)",
		Cooldown: 5,
		MainType: "attack",
		SubType:  "melee",
		Message:  "%c uses %n on %t!",
	}
}

func meditate() *skill.Definition {
	return &skill.Definition{Key: "meditate", Name: "Meditate", Passive: true, Function: "heal(1)"}
}

func registry(defs ...*skill.Definition) *skill.Registry {
	reg := skill.NewRegistry()
	for _, d := range defs {
		if err := reg.Register(d); err != nil {
			panic(err)
		}
	}
	return reg
}
