package skill_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skillcast/internal/game/skill"
)

type harness struct {
	clock   *clock
	effects *fakeEffects
	engine  *skill.Engine
	logs    *observer.ObservedLogs
}

func newHarness(opts ...skill.EngineOption) *harness {
	c := &clock{t: epoch}
	fx := &fakeEffects{}
	core, logs := observer.New(zapcore.DebugLevel)
	w := newWorld()
	opts = append([]skill.EngineOption{skill.WithClock(c.now)}, opts...)
	return &harness{
		clock:   c,
		effects: fx,
		engine:  skill.NewEngine(fx, w, w, nil, zap.New(core), opts...),
		logs:    logs,
	}
}

func (h *harness) owned(def *skill.Definition) *skill.Instance {
	inst := skill.NewInstance("inst-"+def.Key, def)
	h.engine.Bind(inst, hero)
	return inst
}

func TestNewEngine_PanicsOnNil(t *testing.T) {
	w := newWorld()
	assert.Panics(t, func() { skill.NewEngine(nil, w, w, nil, zap.NewNop()) })
	assert.Panics(t, func() { skill.NewEngine(&fakeEffects{}, w, w, nil, nil) })
}

func TestCast_Success(t *testing.T) {
	h := newHarness()
	h.effects.lines = []string{"Orc takes 10 damage"}
	inst := h.owned(strike())

	res, err := h.engine.Cast(context.Background(), inst, orc.ref)
	require.NoError(t, err)
	assert.False(t, res.Rejected())
	assert.Equal(t, hero.ref, res.Caster)
	assert.Equal(t, "strike", res.Skill)
	assert.Equal(t, "attack", res.MainType)
	assert.Equal(t, "melee", res.SubType)
	assert.Equal(t, "Hero uses Strike on Orc!", res.Message)
	assert.Equal(t, orc.ref, res.Target)
	assert.Equal(t, "Orc takes 10 damage", res.Result)
	assert.Len(t, res.Status, 2)
	assert.Contains(t, res.Status, hero.ref)
	assert.Contains(t, res.Status, orc.ref)

	require.Len(t, h.effects.calls, 1)
	assert.Equal(t, call{function: "hit(10)", caster: hero.ref, target: orc.ref}, h.effects.calls[0])
	assert.Equal(t, 5*time.Second, inst.Remaining(epoch))
}

func TestCast_CooldownScenario(t *testing.T) {
	h := newHarness()
	h.effects.lines = []string{"Orc takes 10 damage"}
	inst := h.owned(strike())

	_, err := h.engine.Cast(context.Background(), inst, orc.ref)
	require.NoError(t, err)
	assert.Equal(t, epoch.Add(5*time.Second), inst.CooldownFinish())

	h.clock.advance(2 * time.Second)
	res, err := h.engine.Cast(context.Background(), inst, orc.ref)
	require.NoError(t, err)
	assert.True(t, res.Rejected())
	assert.Equal(t, "Strike is not ready yet!", res.Message)
	assert.Empty(t, res.Result)
	assert.Equal(t, 1, h.effects.count(), "effect must not run while cooling down")
	assert.Equal(t, epoch.Add(5*time.Second), inst.CooldownFinish(), "rejection leaves cooldown untouched")

	h.clock.advance(4 * time.Second)
	res, err = h.engine.Cast(context.Background(), inst, orc.ref)
	require.NoError(t, err)
	assert.False(t, res.Rejected())
	assert.Equal(t, 2, h.effects.count())
	assert.Equal(t, epoch.Add(11*time.Second), inst.CooldownFinish())
}

func TestCast_RejectionLoggedAtInfo(t *testing.T) {
	h := newHarness(skill.WithGlobalCooldown(time.Second))
	inst := h.owned(strike())

	res, err := h.engine.Cast(context.Background(), inst, orc.ref)
	require.NoError(t, err)
	assert.True(t, res.Rejected())
	entries := h.logs.FilterMessage("skill cast rejected").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
}

func TestCast_NoResultLines(t *testing.T) {
	h := newHarness()
	inst := h.owned(strike())
	res, err := h.engine.Cast(context.Background(), inst, orc.ref)
	require.NoError(t, err)
	assert.Empty(t, res.Result)
}

func TestCast_JoinsResultLines(t *testing.T) {
	h := newHarness()
	h.effects.lines = []string{"a", "b", "c"}
	res, err := h.engine.Cast(context.Background(), h.owned(strike()), orc.ref)
	require.NoError(t, err)
	assert.Equal(t, "a b c", res.Result)
}

func TestCast_Untargeted(t *testing.T) {
	h := newHarness()
	def := strike()
	def.Message = "%c focuses.%t"
	inst := h.owned(def)

	res, err := h.engine.Cast(context.Background(), inst, "")
	require.NoError(t, err)
	assert.Equal(t, "Hero focuses.", res.Message)
	assert.Equal(t, skill.EntityRef(""), res.Target)
	assert.Len(t, res.Status, 1)
	assert.Equal(t, skill.EntityRef(""), h.effects.calls[0].target)
}

func TestCast_ZeroCooldownNeverCoolsDown(t *testing.T) {
	h := newHarness()
	def := strike()
	def.Cooldown = 0
	inst := h.owned(def)
	for i := 0; i < 3; i++ {
		res, err := h.engine.Cast(context.Background(), inst, orc.ref)
		require.NoError(t, err)
		assert.False(t, res.Rejected())
	}
	assert.Equal(t, 3, h.effects.count())
}

func TestCast_PassiveIsRejected(t *testing.T) {
	h := newHarness()
	def := meditate()
	def.Cooldown = 30
	inst := h.owned(def)
	for i := 0; i < 2; i++ {
		res, err := h.engine.Cast(context.Background(), inst, "")
		assert.ErrorIs(t, err, skill.ErrPassive)
		assert.Nil(t, res)
	}
	assert.Zero(t, h.effects.count())
	assert.True(t, inst.CooldownFinish().IsZero())
}

func TestCast_MissingOwner(t *testing.T) {
	h := newHarness()
	inst := skill.NewInstance("i", strike())
	_, err := h.engine.Cast(context.Background(), inst, orc.ref)
	assert.ErrorIs(t, err, skill.ErrMissingOwner)

	gone := entity{ref: "char-gone", name: "Ghost"}
	inst.BindOwner(gone, 0, epoch)
	_, err = h.engine.Cast(context.Background(), inst, orc.ref)
	assert.ErrorIs(t, err, skill.ErrMissingOwner)
	assert.Zero(t, h.effects.count())
}

func TestCast_UnknownTarget(t *testing.T) {
	h := newHarness()
	inst := h.owned(strike())
	_, err := h.engine.Cast(context.Background(), inst, "npc-404")
	assert.ErrorIs(t, err, skill.ErrUnknownTarget)
	assert.True(t, inst.CooldownFinish().IsZero())
}

func TestCast_EffectFailureStillCommitsCooldown(t *testing.T) {
	h := newHarness()
	h.effects.err = errors.New("unknown function nope")
	inst := h.owned(strike())

	res, err := h.engine.Cast(context.Background(), inst, orc.ref)
	assert.Nil(t, res)
	require.Error(t, err)
	assert.ErrorIs(t, err, skill.ErrEffectEvaluation)
	var effErr *skill.EffectError
	require.ErrorAs(t, err, &effErr)
	assert.Equal(t, "strike", effErr.Skill)
	assert.Equal(t, "hit(10)", effErr.Function)
	assert.Equal(t, epoch.Add(5*time.Second), inst.CooldownFinish())

	warn := h.logs.FilterMessage("skill effect failed").All()
	require.Len(t, warn, 1)
	assert.Equal(t, zapcore.WarnLevel, warn[0].Level)
}

func TestCast_CancelledBeforeCommit(t *testing.T) {
	h := newHarness()
	inst := h.owned(strike())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.engine.Cast(ctx, inst, orc.ref)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, inst.CooldownFinish().IsZero())
	assert.Zero(t, h.effects.count())
}

type cancellingEffects struct {
	fakeEffects
	cancel context.CancelFunc
}

func (c *cancellingEffects) Evaluate(ctx context.Context, fn string, caster, target skill.Entity) ([]string, error) {
	c.cancel()
	return c.fakeEffects.Evaluate(ctx, fn, caster, target)
}

func TestCast_CancellationAfterCommitDoesNotInterruptEffect(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fx := &cancellingEffects{cancel: cancel}
	fx.lines = []string{"done"}
	w := newWorld()
	c := &clock{t: epoch}
	engine := skill.NewEngine(fx, w, w, nil, zap.NewNop(), skill.WithClock(c.now))
	inst := skill.NewInstance("i", strike())
	engine.Bind(inst, hero)

	res, err := engine.Cast(ctx, inst, orc.ref)
	require.NoError(t, err)
	assert.Equal(t, "done", res.Result)
}

func TestCast_CooldownModifier(t *testing.T) {
	h := newHarness(skill.WithCooldownModifier(func(owner skill.Entity, base time.Duration) time.Duration {
		if owner.Name() == "Hero" {
			return base - 2*time.Second
		}
		return base
	}))
	inst := h.owned(strike())
	_, err := h.engine.Cast(context.Background(), inst, orc.ref)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, inst.Remaining(epoch))
}

func TestEngine_CheckAvailabilityAppliesCooldownModifier(t *testing.T) {
	h := newHarness(skill.WithCooldownModifier(func(owner skill.Entity, base time.Duration) time.Duration {
		return 0
	}))
	// restored from storage: base cooldown, finish still in the future
	inst := skill.NewInstance("i", strike())
	inst.BindOwner(hero, 10*time.Second, epoch)
	require.True(t, inst.CoolingDown(epoch))

	assert.Empty(t, h.engine.CheckAvailability(inst))
	res, err := h.engine.Cast(context.Background(), inst, orc.ref)
	require.NoError(t, err)
	assert.False(t, res.Rejected())
}

func TestEngine_CheckAvailabilityUnresolvedOwner(t *testing.T) {
	h := newHarness(skill.WithCooldownModifier(func(owner skill.Entity, base time.Duration) time.Duration {
		return 0
	}))
	inst := skill.NewInstance("i", strike())
	inst.BindOwner(entity{ref: "char-gone", name: "Ghost"}, 10*time.Second, epoch)
	assert.Equal(t, "Strike is not ready yet!", h.engine.CheckAvailability(inst))
}

func TestEngine_BindAppliesGlobalCooldown(t *testing.T) {
	h := newHarness(skill.WithGlobalCooldown(1500 * time.Millisecond))
	inst := h.owned(strike())
	assert.Equal(t, 1500*time.Millisecond, inst.Remaining(epoch))
	assert.Equal(t, "Strike is not ready yet!", h.engine.CheckAvailability(inst))
}

func TestPropertyCastNeverRunsEffectWhileCoolingDown(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		h := newHarness()
		def := strike()
		def.Cooldown = float64(rapid.IntRange(1, 30).Draw(t, "cd"))
		inst := h.owned(def)
		steps := rapid.SliceOfN(rapid.IntRange(0, 10_000), 1, 30).Draw(t, "steps_ms")
		for _, ms := range steps {
			h.clock.advance(time.Duration(ms) * time.Millisecond)
			cooling := inst.CoolingDown(h.clock.now())
			before := h.effects.count()
			res, err := h.engine.Cast(context.Background(), inst, orc.ref)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cooling != res.Rejected() {
				t.Fatalf("cooling=%v but rejected=%v", cooling, res.Rejected())
			}
			ran := h.effects.count() - before
			if cooling && ran != 0 {
				t.Fatalf("effect ran during cooldown")
			}
			if !cooling && inst.CooldownFinish() != h.clock.now().Add(def.BaseCooldown()) {
				t.Fatalf("cooldown finish %s not advanced", inst.CooldownFinish())
			}
		}
	})
}
