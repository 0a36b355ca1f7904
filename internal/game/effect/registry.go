// Package effect evaluates skill functions. A function id is a statement such
// as hit(10); its name selects a built-in Go effect or, failing that, a Lua
// function of the same name.
package effect

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skillcast/internal/game/skill"
)

var (
	// ErrUnknownFunction is returned when no effect is registered under a name.
	ErrUnknownFunction = errors.New("unknown effect function")
	// ErrNoTarget is returned by effects that need a target when none was given.
	ErrNoTarget = errors.New("effect requires a target")
)

// Call carries the inputs of one effect evaluation.
type Call struct {
	Caster skill.Entity
	// Target is nil for an untargeted cast.
	Target skill.Entity
	Args   []any
}

// Func is a Go-implemented effect.
type Func func(ctx context.Context, call Call) ([]string, error)

// Fallback resolves names the registry does not know, typically Lua functions.
type Fallback interface {
	Has(name string) bool
	Call(ctx context.Context, name string, call Call) ([]string, error)
}

// Registry maps effect names to implementations. It implements
// skill.EffectEngine and is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	funcs    map[string]Func
	fallback Fallback
	logger   *zap.Logger
}

// NewRegistry creates an empty Registry. fallback may be nil.
//
// Precondition: logger must be non-nil.
func NewRegistry(fallback Fallback, logger *zap.Logger) *Registry {
	return &Registry{funcs: make(map[string]Func), fallback: fallback, logger: logger}
}

// Register adds f under name, replacing any previous entry.
func (r *Registry) Register(name string, f Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = f
}

// Names returns the registered Go effect names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.funcs))
	for n := range r.funcs {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Resolves reports whether name maps to a Go effect or a fallback function.
func (r *Registry) Resolves(name string) bool {
	r.mu.RLock()
	_, ok := r.funcs[name]
	r.mu.RUnlock()
	return ok || (r.fallback != nil && r.fallback.Has(name))
}

// Evaluate implements skill.EffectEngine.
func (r *Registry) Evaluate(ctx context.Context, function string, caster, target skill.Entity) ([]string, error) {
	st, err := ParseStatement(function)
	if err != nil {
		return nil, err
	}
	call := Call{Caster: caster, Target: target, Args: st.Args}

	r.mu.RLock()
	f, ok := r.funcs[st.Name]
	r.mu.RUnlock()

	var lines []string
	switch {
	case ok:
		lines, err = f(ctx, call)
	case r.fallback != nil && r.fallback.Has(st.Name):
		lines, err = r.fallback.Call(ctx, st.Name, call)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFunction, st.Name)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", st.Name, err)
	}
	r.logger.Debug("effect evaluated",
		zap.String("function", st.Name),
		zap.String("caster", string(caster.Ref())),
		zap.Int("lines", len(lines)),
	)
	return lines, nil
}

// Validate checks that every definition's function parses and resolves.
//
// Postcondition: Returns nil, or an error joining one entry per bad definition.
func (r *Registry) Validate(defs []*skill.Definition) error {
	var errs []error
	for _, d := range defs {
		if d.Function == "" {
			continue
		}
		st, err := ParseStatement(d.Function)
		if err != nil {
			errs = append(errs, fmt.Errorf("skill %q: %w", d.Key, err))
			continue
		}
		if !r.Resolves(st.Name) {
			errs = append(errs, fmt.Errorf("skill %q: %w: %q", d.Key, ErrUnknownFunction, st.Name))
		}
	}
	return errors.Join(errs...)
}
