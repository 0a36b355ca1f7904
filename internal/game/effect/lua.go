package effect

import (
	"context"

	"github.com/cory-johannsen/skillcast/internal/scripting"
)

// LuaFallback resolves effect names to global functions in the skill VM.
type LuaFallback struct {
	mgr *scripting.Manager
}

// NewLuaFallback wraps mgr.
func NewLuaFallback(mgr *scripting.Manager) *LuaFallback {
	return &LuaFallback{mgr: mgr}
}

// Has implements Fallback.
func (l *LuaFallback) Has(name string) bool { return l.mgr.HasFunction(name) }

// Call implements Fallback. The Lua function receives the caster's ref, the
// target's ref (nil when untargeted) and the statement arguments.
func (l *LuaFallback) Call(ctx context.Context, name string, call Call) ([]string, error) {
	var target string
	if call.Target != nil {
		target = string(call.Target.Ref())
	}
	return l.mgr.CallSkill(ctx, name, string(call.Caster.Ref()), target, call.Args...)
}
