// Command client is the netplay game client: `client <ip> <port>` (spec
// §6.3). It dials the server, drives session.Client's predict-and-reconcile
// loop in the background, and polls a terminal UI at a much lower rate
// purely to draw the shared state — rendering never feeds back into
// simulation (spec §1).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/duskreach/netplay/internal/config"
	"github.com/duskreach/netplay/internal/netlog"
	"github.com/duskreach/netplay/internal/session"
	"github.com/duskreach/netplay/internal/transport"
	"github.com/duskreach/netplay/internal/ui"
	"github.com/duskreach/netplay/internal/worldmap"
)

const renderRate = 30 // Hz; independent of the 60Hz simulation tick rate.

func main() {
	os.Exit(run())
}

func run() int {
	log := netlog.New("client")

	args, err := config.ParseClientArgs(os.Args[1:])
	if err != nil {
		log.Error("usage", "err", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tr := transport.RakNet{Log: log}
	conn, err := tr.Dial(ctx, args.ServerAddress)
	if err != nil {
		log.Error("dial failed", "addr", args.ServerAddress, "err", err)
		return 1
	}

	term, err := ui.Open()
	if err != nil {
		log.Error("terminal init failed", "err", err)
		return 1
	}
	defer term.Close()

	c := session.NewClient(conn, worldmap.DefaultMap(), term.CaptureInput, log)

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	ticker := time.NewTicker(time.Second / renderRate)
	defer ticker.Stop()

	for {
		select {
		case err := <-done:
			if err != nil && err != context.Canceled {
				log.Error("client loop exited", "err", err)
				return 1
			}
			return 0
		case <-ticker.C:
			term.Render(c.Game(), c.LocalSlot())
		}
	}
}
