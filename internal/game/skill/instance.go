package skill

import (
	"fmt"
	"time"
)

// Message keys resolved through the Translator.
const (
	// MsgNotReady is formatted with the skill's name.
	MsgNotReady = "%s is not ready yet!"
	// MsgCast labels the cast command.
	MsgCast = "Cast"
)

// Instance is one character's copy of a skill. It carries the mutable state
// that outlives a session: the owner, the default flag and the time the
// current cooldown ends.
type Instance struct {
	id        string
	def       *Definition
	owner     EntityRef
	isDefault bool
	// finish is the zero time until a cooldown has been started.
	finish   time.Time
	cooldown time.Duration
}

// NewInstance creates an unowned instance of def.
//
// Precondition: def must not be nil and id must be non-empty.
// Postcondition: the effective cooldown equals def's base cooldown.
func NewInstance(id string, def *Definition) *Instance {
	return &Instance{id: id, def: def, cooldown: def.BaseCooldown()}
}

// Record is the durable form of an Instance.
type Record struct {
	ID             string
	Key            string
	Owner          EntityRef
	IsDefault      bool
	CooldownFinish time.Time
}

// Restore rebuilds an Instance from rec using the definitions in reg.
//
// Postcondition: Returns ErrUnknownSkill when rec.Key is not registered.
func Restore(rec Record, reg *Registry) (*Instance, error) {
	def, ok := reg.Get(rec.Key)
	if !ok {
		return nil, fmt.Errorf("restoring %s: %w: %q", rec.ID, ErrUnknownSkill, rec.Key)
	}
	inst := NewInstance(rec.ID, def)
	inst.owner = rec.Owner
	inst.isDefault = rec.IsDefault
	inst.finish = rec.CooldownFinish
	return inst, nil
}

// Record returns the durable state of i.
func (i *Instance) Record() Record {
	return Record{
		ID:             i.id,
		Key:            i.def.Key,
		Owner:          i.owner,
		IsDefault:      i.isDefault,
		CooldownFinish: i.finish,
	}
}

// ID returns the instance identifier.
func (i *Instance) ID() string                { return i.id }
func (i *Instance) Definition() *Definition   { return i.def }
func (i *Instance) Key() string               { return i.def.Key }
func (i *Instance) Name() string              { return i.def.Name }
func (i *Instance) Function() string          { return i.def.Function }
func (i *Instance) Passive() bool             { return i.def.Passive }
func (i *Instance) MainType() string          { return i.def.MainType }
func (i *Instance) SubType() string           { return i.def.SubType }
func (i *Instance) Owner() EntityRef          { return i.owner }
func (i *Instance) CooldownFinish() time.Time { return i.finish }

// Cooldown returns the effective cooldown.
func (i *Instance) Cooldown() time.Duration { return i.cooldown }

// BindOwner attaches i to owner. A non-passive skill starts a global cooldown
// of gcd, so that a freshly learned skill cannot be cast immediately.
//
// Precondition: owner must not be nil.
// Postcondition: Owner() == owner.Ref(); for a non-passive skill with gcd > 0,
// Remaining(now) == gcd.
func (i *Instance) BindOwner(owner Entity, gcd time.Duration, now time.Time) {
	i.owner = owner.Ref()
	if !i.def.Passive && gcd > 0 {
		i.finish = now.Add(gcd)
	}
}

// ApplyCooldownModifier recomputes the effective cooldown for owner.
// A nil mod restores the base cooldown. Negative results clamp to zero.
func (i *Instance) ApplyCooldownModifier(owner Entity, mod CooldownModifier) {
	base := i.def.BaseCooldown()
	if mod == nil {
		i.cooldown = base
		return
	}
	cd := mod(owner, base)
	if cd < 0 {
		cd = 0
	}
	i.cooldown = cd
}

// SetDefault marks whether the skill is granted automatically by the
// character's template rather than learned.
func (i *Instance) SetDefault(v bool) { i.isDefault = v }

// IsDefault reports the default flag.
func (i *Instance) IsDefault() bool { return i.isDefault }

// CoolingDown reports whether the skill is still cooling down at now.
func (i *Instance) CoolingDown(now time.Time) bool {
	return CoolingDown(i.cooldown, i.finish, now)
}

// Remaining returns the time left on the cooldown at now, never negative.
func (i *Instance) Remaining(now time.Time) time.Duration {
	return Remaining(i.finish, now)
}

// RemainingSeconds is Remaining expressed in seconds.
func (i *Instance) RemainingSeconds(now time.Time) float64 {
	return i.Remaining(now).Seconds()
}

// CheckAvailability returns the empty string when the skill can be cast at
// now, or a localized reason when it cannot.
func (i *Instance) CheckAvailability(now time.Time, tr Translator) string {
	if i.CoolingDown(now) {
		return fmt.Sprintf(translate(tr, MsgNotReady), i.def.Name)
	}
	return ""
}

// Usable reports whether the skill may be used at now. Passive skills are
// usable only when allowPassive is set.
func (i *Instance) Usable(allowPassive bool, now time.Time) bool {
	if i.def.Passive && !allowPassive {
		return false
	}
	return !i.CoolingDown(now)
}

// ResetCooldown clears the cooldown.
func (i *Instance) ResetCooldown() { i.finish = time.Time{} }

// commit starts the cooldown at now using the effective cooldown. A zero
// cooldown leaves the skill permanently ready.
func (i *Instance) commit(now time.Time) {
	if i.cooldown > 0 {
		i.finish = now.Add(i.cooldown)
	}
}

// Appearance is the client-facing description of a skill.
type Appearance struct {
	Key               string  `json:"key"`
	Name              string  `json:"name"`
	Description       string  `json:"desc"`
	Passive           bool    `json:"passive"`
	CooldownRemaining float64 `json:"cd_remain"`
}

// Appearance describes i as seen at now.
func (i *Instance) Appearance(now time.Time) Appearance {
	return Appearance{
		Key:               i.def.Key,
		Name:              i.def.Name,
		Description:       i.def.Description,
		Passive:           i.def.Passive,
		CooldownRemaining: i.RemainingSeconds(now),
	}
}

func translate(tr Translator, key string) string {
	if tr == nil {
		return key
	}
	return tr.Translate(key)
}
