package main

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

func (p *Plugins) registerOnEvent(L *lua.LState) int {
	f := L.CheckFunction(1)
	p.hooks = append(p.hooks, f)

	return 0
}

func (p *Plugins) luaLog(L *lua.LState) int {
	p.a.log.Info(L.ToString(1), zap.String("source", "plugin"))

	return 0
}

func (p *Plugins) luaGetConfKey(L *lua.LState) int {
	key := L.ToString(1)

	switch v := p.conf.Key(key).(type) {
	case bool:
		L.Push(lua.LBool(v))
	case int:
		L.Push(lua.LNumber(v))
	case float64:
		L.Push(lua.LNumber(v))
	case string:
		L.Push(lua.LString(v))
	default:
		L.Push(lua.LNil)
	}

	return 1
}

// pushErr returns nil or the error text to the calling script
func pushErr(L *lua.LState, err error) int {
	if err != nil {
		L.Push(lua.LString(err.Error()))
	} else {
		L.Push(lua.LNil)
	}

	return 1
}

func (p *Plugins) sendMessage(L *lua.LState) int {
	return pushErr(L, p.a.s.SendMessage(L.CheckString(1)))
}

func (p *Plugins) setOption(L *lua.LState) int {
	return pushErr(L, p.a.setOption(L.CheckString(1), L.CheckString(2)))
}

func (p *Plugins) runCommand(L *lua.LState) int {
	return pushErr(L, p.a.exec(CommandPrefix+L.CheckString(1)))
}

func (p *Plugins) getIdentity(L *lua.LState) int {
	id := p.a.s.Identity()

	t := L.NewTable()
	t.RawSetString("name", lua.LString(id.Name))
	t.RawSetString("color", lua.LString(id.Color.String()))
	t.RawSetString("faction", lua.LString(id.Faction.String()))
	L.Push(t)

	return 1
}

func (p *Plugins) setStorageKey(L *lua.LState) int {
	if p.a.store == nil {
		return 0
	}

	if err := p.a.store.Set("plugin:"+L.CheckString(1), L.ToString(2)); err != nil {
		p.a.log.Error("plugin storage", zap.Error(err))
	}

	return 0
}

func (p *Plugins) getStorageKey(L *lua.LState) int {
	if p.a.store == nil {
		L.Push(lua.LString(""))
		return 1
	}

	v, err := p.a.store.Get("plugin:" + L.CheckString(1))
	if err != nil {
		p.a.log.Error("plugin storage", zap.Error(err))
	}
	L.Push(lua.LString(v))

	return 1
}
