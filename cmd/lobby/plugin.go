package main

import (
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/HimbeerserverDE/lobby"
)

// Plugins is the Lua state shared by every plugin
type Plugins struct {
	l     *lua.LState
	api   *lua.LTable
	a     *app
	conf  *lobby.Config
	hooks []*lua.LFunction
	names []string
}

func newPlugins(a *app, conf *lobby.Config) *Plugins {
	p := &Plugins{l: lua.NewState(), a: a, conf: conf}

	p.api = p.l.NewTable()
	p.l.SetGlobal("lobby", p.api)

	p.addLuaFunc(p.registerOnEvent, "register_on_event")
	p.addLuaFunc(p.luaLog, "log")
	p.addLuaFunc(p.luaGetConfKey, "conf")
	p.addLuaFunc(p.sendMessage, "send_message")
	p.addLuaFunc(p.setOption, "set_option")
	p.addLuaFunc(p.runCommand, "run_command")
	p.addLuaFunc(p.getIdentity, "get_identity")
	p.addLuaFunc(p.setStorageKey, "set_storage")
	p.addLuaFunc(p.getStorageKey, "get_storage")

	return p
}

// LoadPlugins runs dir/<plugin>/init.lua for every plugin directory.
// A missing dir means there are no plugins.
func LoadPlugins(dir string, a *app, conf *lobby.Config) (*Plugins, error) {
	p := newPlugins(a, conf)

	files, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return p, nil
	} else if err != nil {
		p.Close()
		return nil, err
	}

	for _, file := range files {
		if !file.IsDir() {
			continue
		}

		path := filepath.Join(dir, file.Name(), "init.lua")
		if _, err := os.Stat(path); err != nil {
			continue
		}

		a.log.Info("loading plugin", zap.String("plugin", file.Name()))
		if err := p.l.DoFile(path); err != nil {
			p.Close()
			return nil, err
		}

		p.names = append(p.names, file.Name())
	}

	return p, nil
}

// Names returns the loaded plugins
func (p *Plugins) Names() []string { return p.names }

func (p *Plugins) addLuaFunc(f lua.LGFunction, name string) {
	p.api.RawSetString(name, p.l.NewFunction(f))
}

// Fire calls every registered event hook with a table describing e
func (p *Plugins) Fire(e lobby.Event) {
	if len(p.hooks) == 0 {
		return
	}

	t := p.l.NewTable()
	t.RawSetString("kind", lua.LString(e.Kind.String()))
	t.RawSetString("name", lua.LString(e.Name))
	t.RawSetString("addr", lua.LString(e.Addr))
	t.RawSetString("text", lua.LString(e.Text))
	t.RawSetString("state", lua.LString(e.State.String()))
	t.RawSetString("reason", lua.LString(e.Reason.String()))

	for _, f := range p.hooks {
		if err := p.l.CallByParam(lua.P{Fn: f, NRet: 0, Protect: true}, t); err != nil {
			p.a.log.Error("plugin hook", zap.String("event", e.Kind.String()), zap.Error(err))
		}
	}
}

func (p *Plugins) Close() {
	p.l.Close()
}
