package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/HimbeerserverDE/lobby"
)

// simTimeout bounds the whole scripted run
const simTimeout = 30 * time.Second

// runSim plays a whole negotiation between two in-process peers:
// alice hosts, bob finds the session and joins, they talk and
// alice starts the game
func runSim(ctx context.Context, log *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, simTimeout)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	hub := lobby.NewHub()
	alice := simPeer(ctx, hub, "alice", lobby.ColorGold, log)
	bob := simPeer(ctx, hub, "bob", lobby.ColorGold, log)

	hosted := false
	greeted := false
	ready := false

	g.Go(func() error {
		return simRun(alice, func(events []lobby.Event) (bool, error) {
			if !hosted {
				hosted = true
				opts := lobby.DefaultOptions()
				opts.Scenario = "scg01ea"
				if _, err := alice.s.Host("Arena", opts); err != nil {
					return false, err
				}
			}

			o := alice.s.Owner()
			for _, e := range events {
				switch e.Kind {
				case lobby.EventNewMember:
					if err := alice.s.SendMessage("welcome " + e.Name); err != nil {
						return false, err
					}
				case lobby.EventReady:
					ready = true
				}
			}

			if ready && o != nil {
				return true, o.Go(alice.ctx)
			}

			return false, nil
		})
	})

	g.Go(func() error {
		return simRun(bob, func(events []lobby.Event) (bool, error) {
			for _, e := range events {
				switch {
				case e.Kind == lobby.EventNewSession && bob.s.Member() == nil:
					i := 0
					for k, gm := range bob.s.Games() {
						if gm.Name == e.Name {
							i = k
						}
					}

					id := bob.s.Identity()
					if !bob.s.RequestJoin(i, id.Name, lobby.ColorGold, id.Faction) {
						return false, fmt.Errorf("bob could not request to join %s", e.Name)
					}
				case e.Kind == lobby.EventStateChange && e.State == lobby.Confirmed:
					bob.say(fmt.Sprintf("joined %s as %s", e.Name, bob.s.Member().Color()))
				case e.Kind == lobby.EventMessage && !greeted:
					greeted = true
					if err := bob.s.Member().Ready(); err != nil {
						return false, err
					}
				case e.Kind == lobby.EventStateChange && e.State == lobby.StartGame:
					return true, nil
				case e.Kind == lobby.EventStateChange && e.State == lobby.Rejected:
					return false, fmt.Errorf("bob was rejected: %s", e.Reason)
				}
			}

			return false, nil
		})
	})

	return g.Wait()
}

func simPeer(ctx context.Context, hub *lobby.Hub, name string, color lobby.Color, log *zap.Logger) *app {
	log = log.With(zap.String("peer", name))

	tr := lobby.NewTransport(hub.Link(lobby.Addr(name)), lobby.NewTickClock(), log)
	s := lobby.NewSession(tr, lobby.Identity{
		Name:     name,
		Color:    color,
		Versions: lobby.VersionRange{Min: 1, Max: 1},
	}, log)

	return &app{ctx: ctx, log: log, s: s, opts: lobby.DefaultOptions()}
}

// simRun services a until script reports it is done
func simRun(a *app, script func(events []lobby.Event) (bool, error)) error {
	clock := a.s.Transport().Clock()

	for {
		done, err := script(a.step())
		if err != nil || done {
			return err
		}

		if err := clock.Wait(a.ctx, 1); err != nil {
			return err
		}
	}
}
