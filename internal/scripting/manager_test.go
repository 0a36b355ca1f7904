package scripting_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skillcast/internal/game/dice"
	"github.com/cory-johannsen/skillcast/internal/scripting"
)

func TestNewManager_PanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { scripting.NewManager(nil, zap.NewNop()) })
}

func TestManager_NotLoaded(t *testing.T) {
	mgr, _ := newTestManager(t)
	assert.False(t, mgr.HasFunction("anything"))
	_, err := mgr.CallSkill(context.Background(), "anything", "c", "")
	assert.ErrorIs(t, err, scripting.ErrNotLoaded)
}

func TestManager_Load_MissingDir(t *testing.T) {
	mgr, _ := newTestManager(t)
	assert.Error(t, mgr.Load(filepath.Join(t.TempDir(), "missing"), 0))
}

func TestManager_Load_SyntaxErrorKeepsPrevious(t *testing.T) {
	mgr, _ := loadManager(t, `function first(c, t) return "ok" end`)
	err := mgr.Load(writeTempLua(t, "bad.lua", `function broken(`), 0)
	require.Error(t, err)
	assert.True(t, mgr.HasFunction("first"))
}

func TestManager_Load_InfiniteTopLevelLoop(t *testing.T) {
	mgr, _ := newTestManager(t)
	err := mgr.Load(writeTempLua(t, "spin.lua", `while true do end`), 50)
	assert.ErrorIs(t, err, scripting.ErrInstructionLimit)
}

func TestManager_Load_Replaces(t *testing.T) {
	mgr, _ := loadManager(t, `function a() end`)
	require.NoError(t, mgr.Load(writeTempLua(t, "b.lua", `function b() end`), 0))
	assert.False(t, mgr.HasFunction("a"))
	assert.True(t, mgr.HasFunction("b"))
}

func TestManager_HasFunction(t *testing.T) {
	mgr, _ := loadManager(t, `
		not_a_function = 3
		function fireball(caster, target) return "boom" end
	`)
	assert.True(t, mgr.HasFunction("fireball"))
	assert.False(t, mgr.HasFunction("not_a_function"))
	assert.False(t, mgr.HasFunction("missing"))
}

func TestManager_CallSkill_ReturnShapes(t *testing.T) {
	mgr, _ := loadManager(t, `
		function one(c, t) return "a line" end
		function many(c, t) return {"first", "second", 3} end
		function none(c, t) end
		function bad(c, t) return true end
	`)
	ctx := context.Background()

	got, err := mgr.CallSkill(ctx, "one", "c", "t")
	require.NoError(t, err)
	assert.Equal(t, []string{"a line"}, got)

	got, err = mgr.CallSkill(ctx, "many", "c", "t")
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "3"}, got)

	got, err = mgr.CallSkill(ctx, "none", "c", "t")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = mgr.CallSkill(ctx, "bad", "c", "t")
	assert.Error(t, err)
}

func TestManager_CallSkill_Arguments(t *testing.T) {
	mgr, _ := loadManager(t, `
		function echo(caster, target, n, s, b)
			return {caster, tostring(target), tostring(n), s, tostring(b)}
		end
	`)
	got, err := mgr.CallSkill(context.Background(), "echo", "char-1", "", 7, "fire", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"char-1", "nil", "7", "fire", "true"}, got)
}

func TestManager_CallSkill_RuntimeErrorPropagates(t *testing.T) {
	mgr, _ := loadManager(t, `function boom(c, t) error("kaboom") end`)
	_, err := mgr.CallSkill(context.Background(), "boom", "c", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")
}

func TestManager_CallSkill_Undefined(t *testing.T) {
	mgr, _ := loadManager(t, `x = 1`)
	_, err := mgr.CallSkill(context.Background(), "x", "c", "")
	assert.ErrorIs(t, err, scripting.ErrFunctionNotDefined)
}

func TestManager_CallSkill_InstructionLimit(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.Load(writeTempLua(t, "spin.lua", `function spin(c, t) while true do end end`), 100))
	_, err := mgr.CallSkill(context.Background(), "spin", "c", "")
	assert.ErrorIs(t, err, scripting.ErrInstructionLimit)

	// the VM stays usable after a runaway call
	assert.True(t, mgr.HasFunction("spin"))
}

func TestManager_CallSkill_Concurrent(t *testing.T) {
	mgr, _ := loadManager(t, `
		counter = 0
		function tick(c, t) counter = counter + 1 return tostring(counter) end
	`)
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		go func() {
			_, err := mgr.CallSkill(context.Background(), "tick", "c", "")
			errs <- err
		}()
	}
	for i := 0; i < 20; i++ {
		require.NoError(t, <-errs)
	}
	got, err := mgr.CallSkill(context.Background(), "tick", "c", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"21"}, got)
}

func TestManager_Close(t *testing.T) {
	core := zap.NewNop()
	mgr := scripting.NewManager(dice.NewRoller(maxSource{}, core), core)
	require.NoError(t, mgr.Load(writeTempLua(t, "a.lua", `function a() end`), 0))
	mgr.Close()
	mgr.Close()
	_, err := mgr.CallSkill(context.Background(), "a", "c", "")
	assert.True(t, errors.Is(err, scripting.ErrNotLoaded))
}
