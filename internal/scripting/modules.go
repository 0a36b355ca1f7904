package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers all engine.* Lua tables into L.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine.log, engine.dice and engine.entity are defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetField(engine, "log", m.logModule(L))
	L.SetField(engine, "dice", m.diceModule(L))
	L.SetField(engine, "entity", m.entityModule(L))
	L.SetGlobal("engine", engine)
}

func (m *Manager) logModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	emit := func(log func(string, ...zap.Field)) lua.LGFunction {
		return func(L *lua.LState) int {
			log(L.CheckString(1), zap.String("source", "lua"))
			return 0
		}
	}
	L.SetFuncs(mod, map[string]lua.LGFunction{
		"debug": emit(m.logger.Debug),
		"info":  emit(m.logger.Info),
		"warn":  emit(m.logger.Warn),
		"error": emit(m.logger.Error),
	})
	return mod
}

// engine.dice.roll(expr) -> {total=, dice={...}, modifier=, expression=}
func (m *Manager) diceModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	L.SetFuncs(mod, map[string]lua.LGFunction{
		"roll": func(L *lua.LState) int {
			res, err := m.roller.RollExpr(L.CheckString(1))
			if err != nil {
				L.RaiseError("engine.dice.roll: %s", err.Error())
				return 0
			}
			faces := L.NewTable()
			for _, d := range res.Dice {
				faces.Append(lua.LNumber(d))
			}
			tbl := L.NewTable()
			tbl.RawSetString("total", lua.LNumber(res.Total()))
			tbl.RawSetString("dice", faces)
			tbl.RawSetString("modifier", lua.LNumber(res.Modifier))
			tbl.RawSetString("expression", lua.LString(res.Expression))
			L.Push(tbl)
			return 1
		},
	})
	return mod
}

func (m *Manager) entityModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	L.SetFuncs(mod, map[string]lua.LGFunction{
		// engine.entity.get(uid) -> {uid=, name=, hp=, max_hp=, conditions={...}} or nil
		"get": func(L *lua.LState) int {
			uid := L.CheckString(1)
			if m.GetCombatant == nil {
				L.Push(lua.LNil)
				return 1
			}
			info := m.GetCombatant(uid)
			if info == nil {
				L.Push(lua.LNil)
				return 1
			}
			conds := L.NewTable()
			for _, c := range info.Conditions {
				conds.Append(lua.LString(c))
			}
			tbl := L.NewTable()
			tbl.RawSetString("uid", lua.LString(info.UID))
			tbl.RawSetString("name", lua.LString(info.Name))
			tbl.RawSetString("hp", lua.LNumber(info.HP))
			tbl.RawSetString("max_hp", lua.LNumber(info.MaxHP))
			tbl.RawSetString("conditions", conds)
			L.Push(tbl)
			return 1
		},
		// engine.entity.damage(uid, n) -> damage dealt
		"damage": func(L *lua.LState) int {
			return m.applyAmount(L, "damage", m.ApplyDamage)
		},
		// engine.entity.heal(uid, n) -> hp restored
		"heal": func(L *lua.LState) int {
			return m.applyAmount(L, "heal", m.Heal)
		},
		// engine.entity.apply_condition(uid, id)
		"apply_condition": func(L *lua.LState) int {
			uid, id := L.CheckString(1), L.CheckString(2)
			if m.ApplyCondition == nil {
				return 0
			}
			if err := m.ApplyCondition(uid, id); err != nil {
				L.RaiseError("engine.entity.apply_condition: %s", err.Error())
			}
			return 0
		},
	})
	return mod
}

func (m *Manager) applyAmount(L *lua.LState, op string, fn func(string, int) (int, error)) int {
	uid, n := L.CheckString(1), L.CheckInt(2)
	if n < 0 {
		L.ArgError(2, "amount must be >= 0")
		return 0
	}
	if fn == nil {
		L.Push(lua.LNumber(0))
		return 1
	}
	got, err := fn(uid, n)
	if err != nil {
		L.RaiseError("engine.entity.%s: %s", op, err.Error())
		return 0
	}
	L.Push(lua.LNumber(got))
	return 1
}
