package skill

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// CastResult describes a cast. A rejected cast carries only Message.
type CastResult struct {
	Caster   EntityRef
	Skill    string
	MainType string
	SubType  string
	// Message is the rendered cast message, or the rejection reason.
	Message string
	// Target is empty for an untargeted cast.
	Target EntityRef
	// Result joins the effect engine's result lines with single spaces.
	Result string
	// Status maps the caster and target to their combat snapshots.
	Status map[EntityRef]CombatStatus
}

// Rejected reports whether the cast was refused before any effect ran.
func (r *CastResult) Rejected() bool { return r.Caster == "" }

// Engine runs the casting pipeline: availability check, cooldown commit,
// effect evaluation and result assembly.
//
// Engine holds no per-skill state and is safe for concurrent use. Casts of
// the same Instance must be serialized by the caller.
type Engine struct {
	effects  EffectEngine
	resolver Resolver
	status   StatusProvider
	tr       Translator
	logger   *zap.Logger

	now      func() time.Time
	modifier CooldownModifier
	gcd      time.Duration
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithCooldownModifier installs a hook that derives a skill's effective
// cooldown from its owner. The default is BaseCooldown.
func WithCooldownModifier(mod CooldownModifier) EngineOption {
	return func(e *Engine) { e.modifier = mod }
}

// WithGlobalCooldown sets the cooldown started when a non-passive skill is
// bound to an owner.
func WithGlobalCooldown(d time.Duration) EngineOption {
	return func(e *Engine) { e.gcd = d }
}

// NewEngine creates an Engine.
//
// Precondition: effects, resolver, status and logger must be non-nil. tr may
// be nil, in which case keys are used verbatim.
// Postcondition: Returns a non-nil Engine using time.Now unless WithClock is given.
func NewEngine(effects EffectEngine, resolver Resolver, status StatusProvider, tr Translator, logger *zap.Logger, opts ...EngineOption) *Engine {
	if effects == nil || resolver == nil || status == nil || logger == nil {
		panic("skill.NewEngine: effects, resolver, status and logger must not be nil")
	}
	e := &Engine{
		effects:  effects,
		resolver: resolver,
		status:   status,
		tr:       tr,
		logger:   logger,
		now:      time.Now,
		modifier: BaseCooldown,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now returns the engine's current time.
func (e *Engine) Now() time.Time { return e.now() }

// Translator returns the engine's translator, possibly nil.
func (e *Engine) Translator() Translator { return e.tr }

// Bind attaches inst to owner, applying the cooldown modifier and the
// configured global cooldown.
func (e *Engine) Bind(inst *Instance, owner Entity) {
	inst.ApplyCooldownModifier(owner, e.modifier)
	inst.BindOwner(owner, e.gcd, e.now())
}

// CheckAvailability returns "" when inst can be cast now, or the localized
// reason. The cooldown modifier is applied when the owner resolves, so the
// answer matches what Cast would decide.
func (e *Engine) CheckAvailability(inst *Instance) string {
	if owner, ok := e.resolver.Resolve(inst.owner); ok {
		inst.ApplyCooldownModifier(owner, e.modifier)
	}
	return inst.CheckAvailability(e.now(), e.tr)
}

// Cast casts inst at target. An empty target casts without one.
//
// The cooldown is committed before the effect runs, so a failed effect still
// consumes it. Once committed, cancellation of ctx no longer interrupts the
// cast.
//
// Precondition: inst must not be nil.
// Postcondition: returns ErrPassive for a passive skill; a rejected
// CastResult (only Message set) when the skill is cooling down; ErrMissingOwner or ErrUnknownTarget when a reference
// cannot be resolved; ctx.Err() if ctx is done before the commit; an
// *EffectError if evaluation fails; otherwise a complete CastResult.
func (e *Engine) Cast(ctx context.Context, inst *Instance, target EntityRef) (*CastResult, error) {
	if inst.Passive() {
		return nil, fmt.Errorf("casting %q: %w", inst.Key(), ErrPassive)
	}
	if inst.owner == "" {
		return nil, fmt.Errorf("casting %q: %w", inst.Key(), ErrMissingOwner)
	}
	owner, ok := e.resolver.Resolve(inst.owner)
	if !ok {
		return nil, fmt.Errorf("casting %q: %w: %q not resolvable", inst.Key(), ErrMissingOwner, inst.owner)
	}
	var targetEnt Entity
	if target != "" {
		if targetEnt, ok = e.resolver.Resolve(target); !ok {
			return nil, fmt.Errorf("casting %q: %w: %q", inst.Key(), ErrUnknownTarget, target)
		}
	}

	inst.ApplyCooldownModifier(owner, e.modifier)
	now := e.now()
	if reason := inst.CheckAvailability(now, e.tr); reason != "" {
		e.logger.Info("skill cast rejected",
			zap.String("skill", inst.Key()),
			zap.String("owner", string(inst.owner)),
			zap.Duration("remaining", inst.Remaining(now)),
		)
		return &CastResult{Message: reason}, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	inst.commit(now)

	lines, err := e.effects.Evaluate(context.WithoutCancel(ctx), inst.Function(), owner, targetEnt)
	if err != nil {
		e.logger.Warn("skill effect failed",
			zap.String("skill", inst.Key()),
			zap.String("function", inst.Function()),
			zap.String("owner", string(inst.owner)),
			zap.Error(err),
		)
		return nil, &EffectError{Skill: inst.Key(), Function: inst.Function(), Err: err}
	}

	sub := Substitutions{Skill: inst.Name(), Caster: owner.Name()}
	if targetEnt != nil {
		sub.Target = targetEnt.Name()
	}
	res := &CastResult{
		Caster:   owner.Ref(),
		Skill:    inst.Key(),
		MainType: inst.MainType(),
		SubType:  inst.SubType(),
		Message:  inst.def.CastMessage().Render(sub),
		Target:   target,
		Status:   map[EntityRef]CombatStatus{owner.Ref(): e.status.CombatStatus(owner.Ref())},
	}
	if targetEnt != nil {
		res.Status[targetEnt.Ref()] = e.status.CombatStatus(targetEnt.Ref())
	}
	if len(lines) > 0 {
		res.Result = strings.Join(lines, " ")
	}

	e.logger.Debug("skill cast",
		zap.String("skill", inst.Key()),
		zap.String("owner", string(owner.Ref())),
		zap.String("target", string(target)),
		zap.Time("cooldown_finish", inst.finish),
	)
	return res, nil
}
