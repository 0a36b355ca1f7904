package scripting

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skillcast/internal/game/dice"
)

var (
	// ErrNotLoaded is returned when no scripts have been loaded.
	ErrNotLoaded = errors.New("no skill scripts loaded")
	// ErrFunctionNotDefined is returned when the named global is not a Lua function.
	ErrFunctionNotDefined = errors.New("lua function not defined")
)

// CombatantInfo is a snapshot of a combatant's state passed to Lua callbacks.
type CombatantInfo struct {
	UID        string
	Name       string
	HP         int
	MaxHP      int
	Conditions []string
}

// Manager owns the sandboxed VM holding every skill function.
//
// A single LState is not goroutine-safe, so Manager serializes all calls
// into it. Manager is safe for concurrent use.
type Manager struct {
	mu        sync.Mutex
	state     *lua.LState
	instLimit int
	roller    *dice.Roller
	logger    *zap.Logger

	// Injected after construction. nil = no-op in engine.* modules.
	GetCombatant   func(uid string) *CombatantInfo
	ApplyDamage    func(uid string, hp int) (int, error)
	Heal           func(uid string, hp int) (int, error)
	ApplyCondition func(uid, condID string) error
}

// NewManager creates a Manager with no scripts loaded.
//
// Precondition: roller and logger must be non-nil.
func NewManager(roller *dice.Roller, logger *zap.Logger) *Manager {
	if roller == nil || logger == nil {
		panic("scripting.NewManager: roller and logger must not be nil")
	}
	return &Manager{roller: roller, logger: logger}
}

// Load creates a fresh sandboxed VM, registers the engine.* modules, then
// executes every *.lua file in scriptDir in lexicographic order. On success
// the new VM replaces any previously loaded one.
//
// Precondition: scriptDir must be a readable directory; instLimit >= 0.
// Postcondition: the previous VM is left in place when an error is returned.
func (m *Manager) Load(scriptDir string, instLimit int) error {
	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q: %w", scriptDir, err)
	}
	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	L := NewSandboxedState()
	m.RegisterModules(L)
	for _, path := range luaFiles {
		err := RunLimited(context.Background(), L, instLimit, func() error { return L.DoFile(path) })
		if err != nil {
			L.Close()
			return fmt.Errorf("scripting: loading %q: %w", path, err)
		}
	}

	m.mu.Lock()
	old := m.state
	m.state = L
	m.instLimit = instLimit
	m.mu.Unlock()
	if old != nil {
		old.Close()
	}
	m.logger.Info("skill scripts loaded",
		zap.String("dir", scriptDir),
		zap.Int("files", len(luaFiles)),
	)
	return nil
}

// HasFunction reports whether name is a global Lua function.
func (m *Manager) HasFunction(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return false
	}
	return m.state.GetGlobal(name).Type() == lua.LTFunction
}

// CallSkill calls the global Lua function name as
// name(caster_uid, target_uid, args...). targetUID is passed as nil when
// empty. The function may return nil, a string, or an array of strings.
//
// Postcondition: Lua runtime errors, an exhausted instruction budget and
// cancellation of ctx are all returned as errors.
func (m *Manager) CallSkill(ctx context.Context, name, casterUID, targetUID string, args ...any) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return nil, ErrNotLoaded
	}
	L := m.state
	fn := L.GetGlobal(name)
	if fn.Type() != lua.LTFunction {
		return nil, fmt.Errorf("%w: %q", ErrFunctionNotDefined, name)
	}

	largs := make([]lua.LValue, 0, len(args)+2)
	largs = append(largs, lua.LString(casterUID))
	if targetUID == "" {
		largs = append(largs, lua.LNil)
	} else {
		largs = append(largs, lua.LString(targetUID))
	}
	for _, a := range args {
		largs = append(largs, toLValue(a))
	}

	var ret lua.LValue = lua.LNil
	err := RunLimited(ctx, L, m.instLimit, func() error {
		if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, largs...); err != nil {
			return err
		}
		ret = L.Get(-1)
		L.Pop(1)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scripting: calling %q: %w", name, err)
	}
	return resultLines(name, ret)
}

// Close releases the VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != nil {
		m.state.Close()
		m.state = nil
	}
}

func resultLines(name string, ret lua.LValue) ([]string, error) {
	switch v := ret.(type) {
	case *lua.LNilType:
		return nil, nil
	case lua.LString:
		return []string{string(v)}, nil
	case *lua.LTable:
		out := make([]string, 0, v.Len())
		for i := 1; i <= v.Len(); i++ {
			out = append(out, lua.LVAsString(v.RawGetInt(i)))
		}
		return out, nil
	}
	return nil, fmt.Errorf("scripting: %q returned %s, want nil, string or table", name, ret.Type())
}

func toLValue(v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case string:
		return lua.LString(x)
	case bool:
		return lua.LBool(x)
	case int:
		return lua.LNumber(x)
	case int64:
		return lua.LNumber(x)
	case float64:
		return lua.LNumber(x)
	}
	return lua.LString(fmt.Sprint(v))
}
