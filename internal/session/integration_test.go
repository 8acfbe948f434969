package session_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/duskreach/netplay/internal/mathutil"
	"github.com/duskreach/netplay/internal/session"
	"github.com/duskreach/netplay/internal/simulation"
	"github.com/duskreach/netplay/internal/transport"
	"github.com/duskreach/netplay/internal/worldmap"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestClientServerHandshake drives a real Server and a real Client over an
// in-memory Loopback transport for a short window and checks that the
// client completes the handshake (spec §4.7) into slot 0 and that its
// mirror shows its own player occupying that slot.
func TestClientServerHandshake(t *testing.T) {
	Convey("Given a server and a client connected over a loopback bus", t, func() {
		bus := transport.NewLoopback(4)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		listener, err := bus.Listen(ctx, "")
		So(err, ShouldBeNil)

		game := simulation.NewGame(worldmap.DefaultMap())
		srv := session.NewServer(listener, game, discardLogger())

		serverDone := make(chan error, 1)
		go func() { serverDone <- srv.Run(ctx) }()

		conn, err := bus.Dial(ctx, "")
		So(err, ShouldBeNil)

		input := simulation.Input{Aim: mathutil.Vector2{X: 1}}
		c := session.NewClient(conn, worldmap.DefaultMap(), func() simulation.Input { return input }, discardLogger())

		clientDone := make(chan error, 1)
		go func() { clientDone <- c.Run(ctx) }()

		// Give both loops a few ticks of real wall-clock time to exchange
		// the handshake and a couple of rounds of input/AUTH.
		time.Sleep(200 * time.Millisecond)
		cancel()
		<-serverDone
		<-clientDone

		Convey("the client completed the handshake into slot 0", func() {
			So(c.LocalSlot(), ShouldEqual, 0)
		})

		Convey("the client's mirror shows its own player occupying slot 0", func() {
			So(c.Game().Players[0].Occupied, ShouldBeTrue)
		})
	})
}
