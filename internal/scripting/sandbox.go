// Package scripting provides a sandboxed GopherLua execution environment for
// skill functions. It has no dependency on game domain packages; all game
// interactions are injected via Manager callback fields.
package scripting

import (
	"context"
	"errors"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the maximum number of Lua opcodes allowed per
// script execution when no override is configured.
const DefaultInstructionLimit = 100_000

// ErrInstructionLimit is returned when a script exhausts its opcode budget.
var ErrInstructionLimit = errors.New("lua instruction limit exceeded")

// countingContext is a context.Context that cancels itself after Done() has
// been called limit times. GopherLua's mainLoopWithContext calls Done() once
// per opcode, making this an exact instruction-count limit.
type countingContext struct {
	context.Context
	cancel    context.CancelFunc
	remaining *atomic.Int64
}

// Done decrements the remaining budget and fires cancel when it reaches zero.
func (c *countingContext) Done() <-chan struct{} {
	if c.remaining.Add(-1) <= 0 {
		c.cancel()
	}
	return c.Context.Done()
}

func (c *countingContext) exhausted() bool { return c.remaining.Load() <= 0 }

func newCountingContext(parent context.Context, limit int) *countingContext {
	base, cancel := context.WithCancel(parent)
	rem := &atomic.Int64{}
	rem.Store(int64(limit))
	return &countingContext{Context: base, cancel: cancel, remaining: rem}
}

// NewSandboxedState creates a GopherLua LState with:
//   - Only safe stdlib loaded: base, table, string, math
//   - Dangerous globals removed: dofile, loadfile, load, collectgarbage, require
//
// Postcondition: Returns a non-nil LState ready for RegisterModules. The
// caller owns the LState and must call L.Close() when done.
func NewSandboxedState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "collectgarbage", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}

// RunLimited runs fn against L with at most limit opcodes, also stopping when
// ctx is done. A limit <= 0 uses DefaultInstructionLimit.
//
// Precondition: L must not be shared with a concurrent caller.
// Postcondition: L has no context attached when RunLimited returns. An
// exhausted budget is reported as ErrInstructionLimit wrapping fn's error.
func RunLimited(ctx context.Context, L *lua.LState, limit int, fn func() error) error {
	if limit <= 0 {
		limit = DefaultInstructionLimit
	}
	cc := newCountingContext(ctx, limit)
	L.SetContext(cc)
	defer func() {
		L.RemoveContext()
		cc.cancel()
	}()
	err := fn()
	if err != nil && cc.exhausted() {
		return errors.Join(ErrInstructionLimit, err)
	}
	return err
}
