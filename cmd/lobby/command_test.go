package main

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/HimbeerserverDE/lobby"
)

func newTestApp(t *testing.T, hub *lobby.Hub, clock lobby.Clock, name string) (*app, *observer.ObservedLogs) {
	t.Helper()

	core, logs := observer.New(zap.InfoLevel)
	log := zap.New(core)

	store, err := OpenSQLite3(filepath.Join(t.TempDir(), "lobby.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	tr := lobby.NewTransport(hub.Link(lobby.Addr(name)), clock, log)
	s := lobby.NewSession(tr, lobby.Identity{
		Name:     name,
		Versions: lobby.VersionRange{Min: 1, Max: 1},
	}, log)

	return &app{
		ctx:   context.Background(),
		log:   log,
		s:     s,
		store: store,
		opts:  lobby.DefaultOptions(),
	}, logs
}

func TestExecUnknownCommand(t *testing.T) {
	a, _ := newTestApp(t, lobby.NewHub(), &lobby.ManualClock{}, "me")

	err := a.exec("/dance")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command dance")
}

func TestExecUsage(t *testing.T) {
	a, _ := newTestApp(t, lobby.NewHub(), &lobby.ManualClock{}, "me")

	for _, line := range []string{"/select x", "/name", "/color mauve", "/set credits", "/host", "/open maybe"} {
		var u usageError
		assert.True(t, errors.As(a.exec(line), &u), line)
	}
}

func TestIdentityCommandsAreSaved(t *testing.T) {
	a, _ := newTestApp(t, lobby.NewHub(), &lobby.ManualClock{}, "me")

	require.NoError(t, a.exec("/name Zed"))
	require.NoError(t, a.exec("/color red"))
	require.NoError(t, a.exec("/faction soviet"))

	id := a.s.Identity()
	assert.Equal(t, "Zed", id.Name)
	assert.Equal(t, lobby.ColorRed, id.Color)
	assert.Equal(t, lobby.FactionSoviet, id.Faction)

	saved, err := a.store.LoadIdentity(lobby.Identity{})
	require.NoError(t, err)
	assert.Equal(t, "Zed", saved.Name)
	assert.Equal(t, lobby.ColorRed, saved.Color)
	assert.Equal(t, lobby.FactionSoviet, saved.Faction)
}

func TestSetBeforeHostingAppliesToNextSession(t *testing.T) {
	a, _ := newTestApp(t, lobby.NewHub(), &lobby.ManualClock{}, "me")

	require.NoError(t, a.exec("/set credits 5000"))
	require.NoError(t, a.exec("/set scenario scg02ea"))
	require.NoError(t, a.exec("/host Arena"))

	o := a.s.Owner()
	require.NotNil(t, o)
	assert.Equal(t, uint32(5000), o.Options().Credits)
	assert.Equal(t, "scg02ea", o.Options().Scenario)

	v, err := a.store.Get("options:credits")
	require.NoError(t, err)
	assert.Equal(t, "5000", v)
}

func TestSetWhileHostingChangesTheSession(t *testing.T) {
	a, _ := newTestApp(t, lobby.NewHub(), &lobby.ManualClock{}, "me")

	require.NoError(t, a.exec("/host Arena"))
	require.NoError(t, a.exec("/set crates true"))

	assert.True(t, a.s.Owner().Options().Crates)
	assert.True(t, a.opts.Crates)
	assert.Error(t, a.exec("/set nukes 3"))
}

func TestRoleCommandsNeedTheRole(t *testing.T) {
	a, _ := newTestApp(t, lobby.NewHub(), &lobby.ManualClock{}, "me")

	assert.ErrorIs(t, a.exec("/go"), lobby.ErrNotOwner)
	assert.ErrorIs(t, a.exec("/load"), lobby.ErrNotOwner)
	assert.ErrorIs(t, a.exec("/kick you"), lobby.ErrNotOwner)
	assert.ErrorIs(t, a.exec("/open false"), lobby.ErrNotOwner)
	assert.ErrorIs(t, a.exec("/ready"), lobby.ErrNotJoined)
	assert.ErrorIs(t, a.exec("/scenario"), lobby.ErrNotJoined)
	assert.Error(t, a.exec("/join 1"), "nothing to join")
}

func TestHelp(t *testing.T) {
	a, logs := newTestApp(t, lobby.NewHub(), &lobby.ManualClock{}, "me")

	require.NoError(t, a.exec("/help"))
	assert.Equal(t, len(commands), logs.Len())

	require.NoError(t, a.exec("/help join"))
	assert.Equal(t, 2, logs.FilterMessageSnippet("join: Asks to join").Len())
	assert.Error(t, a.exec("/help dance"))
}

func TestQuit(t *testing.T) {
	a, _ := newTestApp(t, lobby.NewHub(), &lobby.ManualClock{}, "me")

	assert.ErrorIs(t, a.exec("/quit"), errQuit)
}

func TestPlainLineIsAMessage(t *testing.T) {
	hub := lobby.NewHub()
	clock := &lobby.ManualClock{}
	a, _ := newTestApp(t, hub, clock, "me")
	b, _ := newTestApp(t, hub, clock, "you")

	require.NoError(t, a.exec("hello there"))

	var got []lobby.Event
	for _, e := range b.s.Service() {
		if e.Kind == lobby.EventMessage {
			got = append(got, e)
		}
	}

	require.Len(t, got, 1)
	assert.Equal(t, "me", got[0].Name)
	assert.Equal(t, "hello there", got[0].Text)
}

func TestJoinAndListThroughCommands(t *testing.T) {
	hub := lobby.NewHub()
	clock := &lobby.ManualClock{}
	owner, _ := newTestApp(t, hub, clock, "host")
	a, logs := newTestApp(t, hub, clock, "me")

	require.NoError(t, owner.exec("/host Arena"))

	for i := 0; i < 10 && a.s.Member() == nil; i++ {
		owner.step()
		a.step()
		if len(a.s.Games()) > 1 && a.s.Member() == nil {
			require.NoError(t, a.exec("/select 1"))
			require.NoError(t, a.exec("/join"))
		}
		clock.Advance(1)
	}

	for i := 0; i < 10 && a.s.JoinState() != lobby.Confirmed; i++ {
		owner.step()
		a.step()
		clock.Advance(1)
	}
	require.Equal(t, lobby.Confirmed, a.s.JoinState())

	require.NoError(t, a.exec("/list"))
	assert.Equal(t, 1, logs.FilterMessageSnippet("*1 Arena").Len())

	require.NoError(t, owner.exec("/kick me"))
	for i := 0; i < 5; i++ {
		a.step()
		clock.Advance(1)
	}
	assert.Equal(t, lobby.Rejected, a.s.JoinState())
	assert.Equal(t, lobby.RejectRevoked, a.s.RejectReason())
	assert.Equal(t, 1, logs.FilterMessage("Arena: rejected (removed by owner)").Len())
}
