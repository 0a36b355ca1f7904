package effect_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/skillcast/internal/game/condition"
	"github.com/cory-johannsen/skillcast/internal/game/dice"
	"github.com/cory-johannsen/skillcast/internal/game/effect"
	"github.com/cory-johannsen/skillcast/internal/game/skill"
)

type ghost struct{}

func (ghost) Ref() skill.EntityRef { return "ghost" }
func (ghost) Name() string         { return "Ghost" }

func TestHit(t *testing.T) {
	r := newRegistry(nil)
	hero, orc := fighters()
	got, err := r.Evaluate(context.Background(), "hit(10)", hero, orc)
	require.NoError(t, err)
	assert.Equal(t, []string{"Orc takes 10 damage."}, got)
	cur, _ := orc.HP()
	assert.Equal(t, 10, cur)

	got, err = r.Evaluate(context.Background(), "hit(50)", hero, orc)
	require.NoError(t, err)
	assert.Equal(t, []string{"Orc takes 10 damage."}, got, "damage reports what was dealt")
}

func TestHit_Errors(t *testing.T) {
	r := newRegistry(nil)
	hero, orc := fighters()
	ctx := context.Background()

	_, err := r.Evaluate(ctx, "hit(10)", hero, nil)
	assert.ErrorIs(t, err, effect.ErrNoTarget)
	_, err = r.Evaluate(ctx, "hit", hero, orc)
	assert.Error(t, err)
	_, err = r.Evaluate(ctx, "hit(1.5)", hero, orc)
	assert.Error(t, err)
	_, err = r.Evaluate(ctx, "hit(-1)", hero, orc)
	assert.Error(t, err)
	_, err = r.Evaluate(ctx, "hit(1)", hero, ghost{})
	assert.ErrorContains(t, err, "cannot take damage")
}

func TestHeal(t *testing.T) {
	r := newRegistry(nil)
	hero, orc := fighters()
	hero.ApplyDamage(12)
	orc.ApplyDamage(5)

	got, err := r.Evaluate(context.Background(), "heal(4)", hero, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hero recovers 4 HP."}, got)

	got, err = r.Evaluate(context.Background(), "heal(40)", hero, orc)
	require.NoError(t, err)
	assert.Equal(t, []string{"Orc recovers 5 HP."}, got)
}

func TestRollHit(t *testing.T) {
	r := newRegistry(nil)
	hero, orc := fighters()
	got, err := r.Evaluate(context.Background(), `roll_hit("2d4+1")`, hero, orc)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Contains(t, got[0], "Hero rolls 2d4+1")
	assert.Equal(t, "Orc takes 9 damage.", got[1])

	_, err = r.Evaluate(context.Background(), `roll_hit("banana")`, hero, orc)
	assert.Error(t, err)
	_, err = r.Evaluate(context.Background(), `roll_hit("1d4")`, hero, nil)
	assert.ErrorIs(t, err, effect.ErrNoTarget)
}

func TestApplyCondition(t *testing.T) {
	r := newRegistry(nil)
	hero, orc := fighters()
	got, err := r.Evaluate(context.Background(), "apply_condition(stunned)", hero, orc)
	require.NoError(t, err)
	assert.Equal(t, []string{"Orc is now stunned."}, got)
	assert.Equal(t, []string{"stunned"}, orc.Conditions())

	got, err = r.Evaluate(context.Background(), "apply_condition(stunned)", hero, orc)
	require.NoError(t, err)
	assert.Equal(t, []string{"Orc is already stunned."}, got)

	_, err = r.Evaluate(context.Background(), "apply_condition(3)", hero, orc)
	assert.Error(t, err)
	_, err = r.Evaluate(context.Background(), "apply_condition(x)", hero, ghost{})
	assert.Error(t, err)
}

func TestApplyCondition_WithCatalog(t *testing.T) {
	conds := condition.NewRegistry()
	require.NoError(t, conds.Register(&condition.Def{ID: "stunned", Name: "Stunned"}))
	r := effect.NewRegistry(nil, zaptest.NewLogger(t))
	effect.RegisterBuiltins(r, dice.NewRoller(maxSource{}, zaptest.NewLogger(t)), effect.WithConditions(conds))
	hero, orc := fighters()

	got, err := r.Evaluate(context.Background(), "apply_condition(stunned)", hero, orc)
	require.NoError(t, err)
	assert.Equal(t, []string{"Orc is now Stunned."}, got)
	assert.Equal(t, []string{"stunned"}, orc.Conditions(), "the id is stored, not the display name")

	_, err = r.Evaluate(context.Background(), "apply_condition(frozen)", hero, orc)
	assert.ErrorIs(t, err, condition.ErrUnknownCondition)
	assert.Equal(t, []string{"stunned"}, orc.Conditions())
}
