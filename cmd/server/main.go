// Command server is the authoritative netplay server: `server <port>`
// (spec §6.3). It binds a transport listener, builds the shared Game over
// the default map, and runs session.Server until killed or the listener
// fails.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/duskreach/netplay/internal/config"
	"github.com/duskreach/netplay/internal/netlog"
	"github.com/duskreach/netplay/internal/session"
	"github.com/duskreach/netplay/internal/simulation"
	"github.com/duskreach/netplay/internal/transport"
	"github.com/duskreach/netplay/internal/worldmap"
)

func main() {
	os.Exit(run())
}

func run() int {
	log := netlog.New("server")

	args, err := config.ParseServerArgs(os.Args[1:])
	if err != nil {
		log.Error("usage", "err", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tr := transport.RakNet{Log: log}
	listener, err := tr.Listen(ctx, args.ListenAddress)
	if err != nil {
		log.Error("listen failed", "addr", args.ListenAddress, "err", err)
		return 1
	}
	defer listener.Close()

	game := simulation.NewGame(worldmap.DefaultMap())
	srv := session.NewServer(listener, game, log)

	log.Info("server listening", "addr", args.ListenAddress)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error("server loop exited", "err", err)
		return 1
	}
	log.Info("server shut down cleanly")
	return 0
}
