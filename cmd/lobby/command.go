package main

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/HimbeerserverDE/lobby"
)

// CommandPrefix starts a console line that is a command rather than a message
const CommandPrefix = "/"

var errQuit = errors.New("quit")

type usageError string

func (u usageError) Error() string { return "Usage: " + string(u) }

type command struct {
	help     string
	function func(a *app, param string) error
}

var commands map[string]command

// registerCommand adds a console command
func registerCommand(name, help string, function func(a *app, param string) error) {
	commands[name] = command{help: help, function: function}
}

// exec runs a console line: a command, or a message to the session
func (a *app) exec(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	if !strings.HasPrefix(line, CommandPrefix) {
		return a.s.SendMessage(line)
	}

	params := strings.SplitN(strings.TrimPrefix(line, CommandPrefix), " ", 2)
	cmd, ok := commands[params[0]]
	if !ok {
		return fmt.Errorf("unknown command %s, try %shelp", params[0], CommandPrefix)
	}

	param := ""
	if len(params) > 1 {
		param = strings.TrimSpace(params[1])
	}

	return cmd.function(a, param)
}

func (a *app) owner() (*lobby.Owner, error) {
	if o := a.s.Owner(); o != nil {
		return o, nil
	}

	return nil, lobby.ErrNotOwner
}

func (a *app) member() (*lobby.Member, error) {
	if m := a.s.Member(); m != nil {
		return m, nil
	}

	return nil, lobby.ErrNotJoined
}

// setIdentity changes the identity and saves it
func (a *app) setIdentity(name string, color lobby.Color, faction lobby.Faction) error {
	if err := a.s.SetIdentity(name, color, faction); err != nil {
		return err
	}

	if a.store != nil {
		return a.store.SaveIdentity(a.s.Identity())
	}

	return nil
}

// setOption changes an option of the owned session, or of the
// options the next hosted session starts with, and saves it
func (a *app) setOption(key, value string) error {
	if o := a.s.Owner(); o != nil {
		if err := o.SetOption(key, value); err != nil {
			return err
		}
		a.opts = o.Options()
	} else if err := a.opts.Set(key, value); err != nil {
		return err
	}

	if a.store != nil {
		return a.store.SaveOptions(a.opts)
	}

	return nil
}

func (a *app) list() {
	games := a.s.Games()
	sel := a.s.Selected()

	for i, g := range games {
		if i == 0 {
			continue
		}

		mark := " "
		if i == sel {
			mark = "*"
		}

		state := "open"
		if !g.Open {
			state = "closed"
		}

		a.say(fmt.Sprintf("%s%d %s (%s, %s) v%d-%d", mark, i, g.Name, g.Owner, state, g.Versions.Min, g.Versions.Max))
	}

	if len(games) <= 1 {
		a.say("No sessions found.")
	}

	if o := a.s.Owner(); o != nil {
		for _, p := range o.Members() {
			a.say(fmt.Sprintf("  member %s %s %s", p.Name, p.Color, p.Faction))
		}
	} else {
		for _, p := range a.s.Roster() {
			a.say(fmt.Sprintf("  player %s %s %s", p.Name, p.Color, p.Faction))
		}
	}

	var names []string
	for _, c := range a.s.Chatters() {
		names = append(names, c.Name)
	}
	if len(names) > 0 {
		a.say("In the lobby: " + strings.Join(names, ", "))
	}
}

func init() {
	commands = make(map[string]command)

	registerCommand("help",
		"Shows the help for a command. Shows the help for all commands if executed without arguments. Usage: help [command]",
		func(a *app, param string) error {
			if param != "" {
				cmd, ok := commands[param]
				if !ok {
					return fmt.Errorf("no help available for %s", param)
				}

				a.say(param + ": " + cmd.help)
				return nil
			}

			names := make([]string, 0, len(commands))
			for name := range commands {
				names = append(names, name)
			}
			sort.Strings(names)

			for _, name := range names {
				a.say(name + ": " + commands[name].help)
			}

			return nil
		})

	registerCommand("name",
		"Changes the player name. Usage: name <name>",
		func(a *app, param string) error {
			if param == "" {
				return usageError("name <name>")
			}

			id := a.s.Identity()
			return a.setIdentity(param, id.Color, id.Faction)
		})

	registerCommand("color",
		"Changes the preferred color. Usage: color <gold|lightblue|red|green|orange|grey|blue|brown>",
		func(a *app, param string) error {
			color, ok := lobby.ParseColor(param)
			if !ok {
				return usageError("color <name>")
			}

			id := a.s.Identity()
			return a.setIdentity(id.Name, color, id.Faction)
		})

	registerCommand("faction",
		"Changes the faction. Usage: faction <allies|soviet>",
		func(a *app, param string) error {
			faction, ok := lobby.ParseFaction(param)
			if !ok {
				return usageError("faction <allies|soviet>")
			}

			id := a.s.Identity()
			return a.setIdentity(id.Name, id.Color, faction)
		})

	registerCommand("list",
		"Lists the known sessions, the players of the selected one and the lobby. Usage: list",
		func(a *app, param string) error {
			a.list()
			return nil
		})

	registerCommand("select",
		"Selects a session to see its players. Usage: select <number>",
		func(a *app, param string) error {
			i, err := strconv.Atoi(param)
			if err != nil {
				return usageError("select <number>")
			}

			if !a.s.Select(i) {
				return fmt.Errorf("no session %d", i)
			}

			return nil
		})

	registerCommand("join",
		"Asks to join a session, the selected one by default. Usage: join [number]",
		func(a *app, param string) error {
			i := a.s.Selected()
			if param != "" {
				var err error
				if i, err = strconv.Atoi(param); err != nil {
					return usageError("join [number]")
				}
			}

			id := a.s.Identity()
			if !a.s.RequestJoin(i, id.Name, id.Color, id.Faction) {
				return fmt.Errorf("cannot join session %d", i)
			}

			return nil
		})

	registerCommand("host",
		"Opens a new session owned by you. Usage: host <session name>",
		func(a *app, param string) error {
			if param == "" {
				return usageError("host <session name>")
			}

			_, err := a.s.Host(param, a.opts)
			return err
		})

	registerCommand("set",
		"Changes a game option. Usage: set <"+strings.Join(lobby.OptionKeys, "|")+"> <value>",
		func(a *app, param string) error {
			kv := strings.SplitN(param, " ", 2)
			if len(kv) < 2 {
				return usageError("set <option> <value>")
			}

			return a.setOption(kv[0], strings.TrimSpace(kv[1]))
		})

	registerCommand("open",
		"Opens or closes the owned session to new players. Usage: open <true|false>",
		func(a *app, param string) error {
			open, err := strconv.ParseBool(param)
			if err != nil {
				return usageError("open <true|false>")
			}

			o, err := a.owner()
			if err != nil {
				return err
			}

			o.SetOpen(open)
			return nil
		})

	registerCommand("go",
		"Starts a new game with every member. Usage: go",
		func(a *app, param string) error {
			o, err := a.owner()
			if err != nil {
				return err
			}

			return o.Go(a.ctx)
		})

	registerCommand("load",
		"Starts a saved game with every member. Usage: load",
		func(a *app, param string) error {
			o, err := a.owner()
			if err != nil {
				return err
			}

			return o.LoadGame(a.ctx)
		})

	registerCommand("kick",
		"Removes a member from the owned session. Usage: kick <name>",
		func(a *app, param string) error {
			if param == "" {
				return usageError("kick <name>")
			}

			o, err := a.owner()
			if err != nil {
				return err
			}

			return o.Revoke(a.ctx, param)
		})

	registerCommand("leave",
		"Leaves the session, cancels the join request or disbands the owned session. Usage: leave",
		func(a *app, param string) error {
			return a.s.Leave(a.ctx)
		})

	registerCommand("msg",
		"Sends a message to the session, or to the lobby outside of one. Usage: msg <text>",
		func(a *app, param string) error {
			if param == "" {
				return usageError("msg <text>")
			}

			return a.s.SendMessage(param)
		})

	registerCommand("scenario",
		"Asks the owner for the scenario file. Usage: scenario",
		func(a *app, param string) error {
			m, err := a.member()
			if err != nil {
				return err
			}

			return m.RequestScenario()
		})

	registerCommand("ready",
		"Tells the owner you are ready. Usage: ready",
		func(a *app, param string) error {
			m, err := a.member()
			if err != nil {
				return err
			}

			return m.Ready()
		})

	registerCommand("quit",
		"Leaves whatever you are part of and exits. Usage: quit",
		func(a *app, param string) error {
			a.log.Info("quitting", zap.String("name", a.s.Identity().Name))
			return errQuit
		})
}
