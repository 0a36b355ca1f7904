// Package skill implements the combat-skill core: skill definitions, the
// per-character skill record with its cooldown, the casting pipeline and the
// command surface offered to players.
//
// The package performs no I/O and takes no locks. A character's skills are
// expected to be mutated only while the caller holds that character's turn.
package skill

import "context"

// EntityRef is an opaque identifier for a character, resolved through a Resolver.
// The zero value means "unset".
type EntityRef string

// Entity is anything that can own, cast, or be targeted by a skill.
type Entity interface {
	Ref() EntityRef
	Name() string
}

// Resolver looks entities up by reference. A skill never holds a strong
// reference to its owner; it resolves the owner on every cast.
type Resolver interface {
	Resolve(ref EntityRef) (Entity, bool)
}

// CombatStatus is an opaque snapshot of a participant's combat state. The
// casting engine embeds it in results without interpreting it. Values must be
// JSON-compatible (string, float64, int, bool, nil, []any, map[string]any).
type CombatStatus map[string]any

// StatusProvider returns the combat-status snapshot for an entity, or nil when
// the entity has none.
type StatusProvider interface {
	CombatStatus(ref EntityRef) CombatStatus
}

// Translator maps a localization key to a display string.
type Translator interface {
	Translate(key string) string
}

// TranslatorFunc adapts a function to Translator.
type TranslatorFunc func(key string) string

// Translate calls f(key).
func (f TranslatorFunc) Translate(key string) string { return f(key) }

// EffectEngine evaluates a skill function for a caster and an optional target.
// It may apply arbitrary game effects and returns human-readable result lines.
//
// Implementations MUST be safe for concurrent use. target is nil when the
// skill was cast without a target.
type EffectEngine interface {
	Evaluate(ctx context.Context, function string, caster, target Entity) ([]string, error)
}
