package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/HimbeerserverDE/lobby"
)

// app ties a Session to the console, the settings store and the plugins.
// Everything in it runs on the service loop's goroutine.
type app struct {
	ctx   context.Context
	log   *zap.Logger
	s     *lobby.Session
	store *Store
	opts  lobby.Options

	plugins *Plugins

	// autoJoin requests to join the first session that shows up
	autoJoin bool
}

func (a *app) say(msg string) {
	a.log.Info(msg)
}

// loop services the session once per tick and runs entered lines
// between iterations, until the context ends or /quit is entered
func (a *app) loop(lines <-chan string) error {
	clock := a.s.Transport().Clock()

	for {
		for more := true; more; {
			select {
			case line := <-lines:
				if err := a.exec(line); errors.Is(err, errQuit) {
					return a.shutdown()
				} else if err != nil {
					a.say(err.Error())
				}
			default:
				more = false
			}
		}

		a.step()

		if err := clock.Wait(a.ctx, 1); err != nil {
			return a.shutdown()
		}
	}
}

// step runs one service iteration and reports its events
func (a *app) step() []lobby.Event {
	events := a.s.Service()
	for _, e := range events {
		a.say(describe(e))

		if a.plugins != nil {
			a.plugins.Fire(e)
		}
	}

	if a.autoJoin && len(a.s.Games()) > 1 {
		id := a.s.Identity()
		if a.s.RequestJoin(1, id.Name, id.Color, id.Faction) {
			a.autoJoin = false
		}
	}

	return events
}

// shutdown leaves the session with a fresh context, since the
// loop's one is usually what ended
func (a *app) shutdown() error {
	if err := a.s.Leave(context.Background()); err != nil {
		a.log.Warn("leave", zap.Error(err))
	}

	return a.s.Close()
}

// describe renders an event for the console
func describe(e lobby.Event) string {
	switch e.Kind {
	case lobby.EventStateChange:
		if e.State == lobby.Rejected {
			return fmt.Sprintf("%s: %s (%s)", e.Name, e.State, e.Reason)
		}
		return fmt.Sprintf("%s: %s", e.Name, e.State)
	case lobby.EventNewSession:
		return "New session " + e.Name
	case lobby.EventSessionChanged:
		return "Session " + e.Name + " changed"
	case lobby.EventSessionLeft:
		return "Session " + e.Name + " is gone"
	case lobby.EventNewMember:
		return e.Name + " joined"
	case lobby.EventMemberLeft:
		return e.Name + " left"
	case lobby.EventOptionsChanged:
		return "Options of " + e.Name + " changed"
	case lobby.EventMessage:
		return "<" + e.Name + "> " + e.Text
	case lobby.EventNewChatter:
		return e.Name + " is in the lobby"
	case lobby.EventChatterLeft:
		return e.Name + " left the lobby"
	case lobby.EventScenarioRequest:
		return e.Name + " needs the scenario"
	case lobby.EventReady:
		return e.Name + " is ready"
	}

	return e.Kind.String()
}
