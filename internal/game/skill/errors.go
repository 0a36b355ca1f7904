package skill

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingOwner is returned when a cast is attempted on an instance
	// whose owner is unset or no longer resolvable. It indicates an
	// integration bug rather than a player-facing condition.
	ErrMissingOwner = errors.New("skill has no owner")
	// ErrUnknownTarget is returned when the cast target cannot be resolved.
	ErrUnknownTarget = errors.New("unknown cast target")
	// ErrUnknownSkill is returned when a definition key is not registered.
	ErrUnknownSkill = errors.New("unknown skill")
	// ErrAlreadyLearned is returned when learning a skill the set already holds.
	ErrAlreadyLearned = errors.New("skill already learned")
	// ErrNotLearned is returned when a set does not hold the requested skill.
	ErrNotLearned = errors.New("skill not learned")
	// ErrPassive is returned when a passive skill is cast directly.
	ErrPassive = errors.New("passive skills cannot be cast")
	// ErrEffectEvaluation matches every *EffectError via errors.Is.
	ErrEffectEvaluation = errors.New("effect evaluation failed")
)

// EffectError reports that the effect engine failed while a cast was in
// progress. The skill's cooldown has already been committed when it is returned.
type EffectError struct {
	Skill    string
	Function string
	Err      error
}

func (e *EffectError) Error() string {
	return fmt.Sprintf("skill %q: evaluating %q: %v", e.Skill, e.Function, e.Err)
}

// Unwrap returns the engine's error.
func (e *EffectError) Unwrap() error { return e.Err }

// Is reports whether target is ErrEffectEvaluation.
func (e *EffectError) Is(target error) bool { return target == ErrEffectEvaluation }
