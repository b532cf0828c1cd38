/*
Lobby finds and negotiates multiplayer game sessions on the local
network, or with one directly connected peer.

Usage:

	lobby [-config config.yml] [-sim]

Lines typed into the console are sent as messages; lines starting
with / are commands, see /help.
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/HimbeerserverDE/lobby"
)

func main() {
	configPath := flag.String("config", "config.yml", "path to the configuration file")
	sim := flag.Bool("sim", false, "run a scripted session between two in-process peers and exit")
	flag.Parse()

	if err := run(*configPath, *sim); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string, sim bool) error {
	conf, err := lobby.LoadConfig(configPath)
	if err != nil {
		return err
	}

	tee, err := newLogger("log")
	if err != nil {
		return err
	}
	defer tee.Close()

	log := lobby.NewLogger(tee, conf.Debug)
	defer log.Sync()

	ctx, cancel := withSignals(context.Background(), log)
	defer cancel()

	if sim || conf.Network.Mode == "sim" {
		return runSim(ctx, log)
	}

	store, err := OpenStore(conf)
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := conf.Identity()
	if err != nil {
		return err
	}

	if id, err = store.LoadIdentity(id); err != nil {
		return err
	}

	opts, err := store.LoadOptions(lobby.DefaultOptions())
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	if conf.Metrics.Listen != "" {
		serveMetrics(ctx, g, conf.Metrics.Listen, log)
	}

	link, peer, err := openLink(ctx, conf, log)
	if err != nil {
		return err
	}

	tr := lobby.NewTransport(link, lobby.NewTickClock(), log)
	a := &app{
		ctx:   ctx,
		log:   log,
		s:     lobby.NewSession(tr, id, log),
		store: store,
		opts:  opts,
	}

	plugins, err := LoadPlugins(conf.Plugins, a, conf)
	if err != nil {
		link.Close()
		return err
	}
	defer plugins.Close()
	a.plugins = plugins

	console := startConsole(conf.Prompt, tee)
	defer console.Close()

	log.Info("lobby ready",
		zap.String("mode", conf.Network.Mode),
		zap.String("addr", string(link.LocalAddr())),
		zap.String("name", id.Name),
		zap.Strings("plugins", plugins.Names()))

	g.Go(func() error {
		defer cancel()

		if peer != "" {
			if err := a.elect(peer); err != nil {
				a.shutdown()
				return err
			}
		}

		return a.loop(console.Lines())
	})

	return g.Wait()
}

// openLink opens the link the network mode asks for. In direct mode
// it also returns the address of the peer to hold the election with.
func openLink(ctx context.Context, conf *lobby.Config, log *zap.Logger) (lobby.Link, lobby.Addr, error) {
	switch conf.Network.Mode {
	case "udp", "":
		link, err := lobby.ListenUDP(conf.Network.Listen, conf.BroadcastTargets(), log)
		return link, "", err
	case "direct":
		var link *lobby.DirectLink
		var err error
		if conf.Network.Peer != "" {
			link, err = lobby.DialDirect(conf.Network.Peer, log)
		} else {
			log.Info("waiting for the peer", zap.String("listen", conf.Network.Listen))
			link, err = lobby.ListenDirect(ctx, conf.Network.Listen, log)
		}
		if err != nil {
			return nil, "", err
		}

		return link, link.PeerAddr(), nil
	}

	return nil, "", fmt.Errorf("unknown network mode %q", conf.Network.Mode)
}

// elect decides with the direct peer who hosts. The winner opens a
// session named after itself, the other side joins the first session
// it sees.
func (a *app) elect(peer lobby.Addr) error {
	id := a.s.Identity()

	res, err := lobby.Elect(a.ctx, a.s.Transport(), id.Name, peer, a.log)
	if err != nil {
		return err
	}

	if !res.Host {
		a.say("the peer hosts the session")
		a.autoJoin = true
		return nil
	}

	_, err = a.s.Host(id.Name, a.opts)
	return err
}

func serveMetrics(ctx context.Context, g *errgroup.Group, addr string, log *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", lobby.MetricsHandler())

	srv := &http.Server{Addr: addr, Handler: mux}

	g.Go(func() error {
		log.Info("serving metrics", zap.String("listen", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})
}
