package effect

import (
	"context"
	"fmt"
	"math"

	"github.com/cory-johannsen/skillcast/internal/game/condition"
	"github.com/cory-johannsen/skillcast/internal/game/dice"
	"github.com/cory-johannsen/skillcast/internal/game/skill"
)

type damageable interface {
	ApplyDamage(amount int) int
}

type healable interface {
	Heal(amount int) int
}

type conditionable interface {
	AddCondition(id string) bool
}

// ConditionCatalog names the conditions apply_condition accepts.
type ConditionCatalog interface {
	DisplayName(id string) (string, bool)
}

// BuiltinOption configures RegisterBuiltins.
type BuiltinOption func(*builtins)

type builtins struct {
	conditions ConditionCatalog
}

// WithConditions restricts apply_condition to ids in c and reports the
// condition by its display name.
func WithConditions(c ConditionCatalog) BuiltinOption {
	return func(b *builtins) { b.conditions = c }
}

// RegisterBuiltins installs the Go effects:
//
//	hit(n)              deal n damage to the target
//	heal(n)             restore n HP to the target, or the caster if untargeted
//	roll_hit("2d6+1")   roll the expression and deal the total to the target
//	apply_condition(id) apply condition id to the target
func RegisterBuiltins(r *Registry, roller *dice.Roller, opts ...BuiltinOption) {
	b := &builtins{}
	for _, opt := range opts {
		opt(b)
	}
	r.Register("hit", hit)
	r.Register("heal", heal)
	r.Register("apply_condition", b.applyCondition)
	r.Register("roll_hit", func(ctx context.Context, call Call) ([]string, error) {
		return rollHit(roller, call)
	})
}

func hit(_ context.Context, call Call) ([]string, error) {
	n, err := intArg(call.Args, 0)
	if err != nil {
		return nil, err
	}
	return damage(call.Target, n)
}

func rollHit(roller *dice.Roller, call Call) ([]string, error) {
	expr, err := stringArg(call.Args, 0)
	if err != nil {
		return nil, err
	}
	if call.Target == nil {
		return nil, ErrNoTarget
	}
	res, err := roller.RollExpr(expr)
	if err != nil {
		return nil, err
	}
	lines, err := damage(call.Target, max(res.Total(), 0))
	if err != nil {
		return nil, err
	}
	return append([]string{fmt.Sprintf("%s rolls %s.", call.Caster.Name(), res)}, lines...), nil
}

func damage(target skill.Entity, n int) ([]string, error) {
	if target == nil {
		return nil, ErrNoTarget
	}
	d, ok := target.(damageable)
	if !ok {
		return nil, fmt.Errorf("%s cannot take damage", target.Name())
	}
	return []string{fmt.Sprintf("%s takes %d damage.", target.Name(), d.ApplyDamage(n))}, nil
}

func heal(_ context.Context, call Call) ([]string, error) {
	n, err := intArg(call.Args, 0)
	if err != nil {
		return nil, err
	}
	who := call.Target
	if who == nil {
		who = call.Caster
	}
	h, ok := who.(healable)
	if !ok {
		return nil, fmt.Errorf("%s cannot be healed", who.Name())
	}
	return []string{fmt.Sprintf("%s recovers %d HP.", who.Name(), h.Heal(n))}, nil
}

func (b *builtins) applyCondition(_ context.Context, call Call) ([]string, error) {
	id, err := stringArg(call.Args, 0)
	if err != nil {
		return nil, err
	}
	label := id
	if b.conditions != nil {
		name, ok := b.conditions.DisplayName(id)
		if !ok {
			return nil, fmt.Errorf("%w: %q", condition.ErrUnknownCondition, id)
		}
		label = name
	}
	if call.Target == nil {
		return nil, ErrNoTarget
	}
	c, ok := call.Target.(conditionable)
	if !ok {
		return nil, fmt.Errorf("%s cannot gain conditions", call.Target.Name())
	}
	if !c.AddCondition(id) {
		return []string{fmt.Sprintf("%s is already %s.", call.Target.Name(), label)}, nil
	}
	return []string{fmt.Sprintf("%s is now %s.", call.Target.Name(), label)}, nil
}

func intArg(args []any, i int) (int, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("missing argument %d", i+1)
	}
	f, ok := args[i].(float64)
	if !ok || f != math.Trunc(f) || f < 0 {
		return 0, fmt.Errorf("argument %d: want a non-negative integer, got %v", i+1, args[i])
	}
	return int(f), nil
}

func stringArg(args []any, i int) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("missing argument %d", i+1)
	}
	s, ok := args[i].(string)
	if !ok || s == "" {
		return "", fmt.Errorf("argument %d: want a string, got %v", i+1, args[i])
	}
	return s, nil
}
