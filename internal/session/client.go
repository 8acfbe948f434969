package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/duskreach/netplay/internal/mathutil"
	"github.com/duskreach/netplay/internal/protocol"
	"github.com/duskreach/netplay/internal/scheduler"
	"github.com/duskreach/netplay/internal/simulation"
	"github.com/duskreach/netplay/internal/transport"
	"github.com/duskreach/netplay/internal/worldmap"
)

// HandshakeTimeout bounds the wait for the server's initial CONNECTED
// packet (§5, suspension point 2).
const HandshakeTimeout = 500 * time.Millisecond

// DisconnectDrainTimeout bounds the graceful-shutdown drain (§5, suspension
// point 3).
const DisconnectDrainTimeout = 500 * time.Millisecond

// Client is the predict-and-reconcile game loop described in §4.2/§4.3: it
// applies local input immediately against a mirror of the server's Game,
// and corrects that mirror whenever an AUTH packet disagrees with the
// replayed prediction.
type Client struct {
	game      *simulation.Game
	localSlot int

	conn  transport.Peer
	inbox chan []byte

	ring protocol.InputRing
	out  *protocol.ClientBatchEncoder

	simulationTick uint64
	networkTick    uint64

	adjustmentIteration uint8
	pendingAdjustment   int8

	sched        *scheduler.Scheduler
	log          *slog.Logger
	captureInput func() simulation.Input
}

// NewClient wraps an already-dialed transport.Peer. captureInput is the
// local input-capture collaborator (§1's out-of-scope list); it is polled
// once per simulated tick.
func NewClient(conn transport.Peer, m *worldmap.Map, captureInput func() simulation.Input, log *slog.Logger) *Client {
	return &Client{
		game:         simulation.NewGame(m),
		localSlot:    -1,
		conn:         conn,
		inbox:        make(chan []byte, protocol.RingCapacity),
		out:          protocol.NewClientBatchEncoder(),
		sched:        scheduler.New(60),
		log:          log,
		captureInput: captureInput,
	}
}

// Run performs the handshake and then drives the tick loop until ctx is
// cancelled or the captured local input requests Quit.
func (c *Client) Run(ctx context.Context) error {
	if err := c.handshake(ctx); err != nil {
		return err
	}

	go c.readLoop()

	for ctx.Err() == nil {
		if quit := c.tick(); quit {
			break
		}
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), DisconnectDrainTimeout)
	defer cancel()
	_ = c.conn.Close()
	<-drainCtx.Done()
	return ctx.Err()
}

func (c *Client) handshake(ctx context.Context) error {
	hctx, cancel := context.WithTimeout(ctx, HandshakeTimeout)
	defer cancel()

	data, err := c.conn.Receive(hctx)
	if err != nil {
		return fmt.Errorf("session: handshake failed: %w", err)
	}
	dec, err := protocol.DecodeServerBatch(data)
	if err != nil {
		return fmt.Errorf("session: handshake batch undecodable: %w", err)
	}
	if !dec.More() {
		return fmt.Errorf("session: handshake batch empty")
	}
	typ, err := dec.Next()
	if err != nil || typ != protocol.ServerPacketConnectedType {
		return fmt.Errorf("session: expected CONNECTED, got %v (err=%v)", typ, err)
	}
	pkt, err := dec.ReadConnected()
	if err != nil {
		return fmt.Errorf("session: malformed CONNECTED payload: %w", err)
	}

	c.localSlot = int(pkt.PeerIndex)
	c.game.Players[c.localSlot] = pkt.Player
	c.networkTick = pkt.NetworkTick + InitialNetworkTickOffset
	c.simulationTick = c.networkTick * NetPerSimTicks

	c.log.Info("connected", "peer_index", c.localSlot, "network_tick", c.networkTick)
	return nil
}

func (c *Client) readLoop() {
	ctx := context.Background()
	for {
		data, err := c.conn.Receive(ctx)
		if err != nil {
			return
		}
		select {
		case c.inbox <- data:
		default:
			c.log.Warn("client inbox full, dropping batch")
		}
	}
}

// tick runs one scheduler step, applying any pending clock adjustment, and
// reports whether the local player pressed Quit this tick.
func (c *Client) tick() bool {
	quit := false
	didWork := false
	c.pendingAdjustment = c.sched.StepAdjusted(c.pendingAdjustment, func() {
		didWork = true
		quit = c.doWork()
	})

	c.simulationTick++
	if c.simulationTick%NetPerSimTicks == 0 {
		c.networkTick++
		if didWork {
			c.flush()
		}
	}
	return quit
}

// doWork drains inbound batches and then advances local prediction by one
// tick (§4.3, steps 1-4). It returns whether the local input requested
// Quit.
func (c *Client) doWork() bool {
	c.drainInbound()

	input := c.captureInput()
	if input.Aim.IsZero() {
		input.Aim = mathutil.Vector2{X: 1, Y: 0}
	}

	c.ring.Push(c.simulationTick, input)
	c.out.AppendUpdate(c.simulationTick, protocol.ClientPacketUpdate{Input: input})

	p := &c.game.Players[c.localSlot]
	simulation.Step(c.game, p, input, simulation.DtNominal, false)

	return input.Quit
}

func (c *Client) drainInbound() {
	for {
		select {
		case data := <-c.inbox:
			c.handleServerBatch(data)
		default:
			return
		}
	}
}

func (c *Client) handleServerBatch(data []byte) {
	dec, err := protocol.DecodeServerBatch(data)
	if err != nil {
		c.log.Warn("unreadable server batch", "err", err)
		return
	}

	if dec.Header.AdjustmentAmount != 0 && dec.Header.AdjustmentIteration == c.adjustmentIteration {
		c.pendingAdjustment = dec.Header.AdjustmentAmount
		c.adjustmentIteration++
	}

	for dec.More() {
		typ, err := dec.Next()
		if err != nil {
			c.log.Warn("malformed server packet header", "err", err)
			return
		}
		switch typ {
		case protocol.ServerPacketConnectedType:
			if _, err := dec.ReadConnected(); err != nil {
				return
			}
		case protocol.ServerPacketPeerConnectedType:
			p, err := dec.ReadPeerConnected()
			if err != nil {
				return
			}
			c.game.Players[p.PeerIndex] = p.Player
		case protocol.ServerPacketDroppedType:
			c.log.Info("server reported our batch as dropped (too late)")
		case protocol.ServerPacketAuthType:
			p, err := dec.ReadAuth()
			if err != nil {
				return
			}
			c.reconcile(p.SimulationTick, p.Player)
		case protocol.ServerPacketPeerAuthType:
			p, err := dec.ReadPeerAuth()
			if err != nil {
				return
			}
			c.game.Players[p.PeerIndex] = p.Player
		case protocol.ServerPacketPeerDisconnectedType:
			p, err := dec.ReadPeerDisconnected()
			if err != nil {
				return
			}
			c.game.Players[p.PeerIndex] = simulation.Player{}
		default:
			c.log.Warn("unknown server packet type", "type", typ)
		}
	}
}

// reconcile implements §4.3 step 5: replay buffered input on a scratch
// copy of the authoritative state, and only overwrite the live prediction
// if that replay disagrees with it.
func (c *Client) reconcile(authTick uint64, authPlayer simulation.Player) {
	if authTick > c.simulationTick {
		c.log.Warn("AUTH from the future", "auth_tick", authTick, "current_tick", c.simulationTick)
		return
	}
	if c.simulationTick-authTick >= protocol.RingCapacity {
		panic("session: reconciliation replay window overflow")
	}

	// reconcile runs out of drainInbound, which doWork calls before this
	// frame's own Step (and before simulationTick is incremented for this
	// frame) — so the local player and the ring both only go as far as
	// simulationTick-1 right now. Replaying through simulationTick itself
	// would run one tick past what's actually been simulated or pushed,
	// against a zero Input the ring never recorded.
	scratch := authPlayer
	c.ring.Replay(authTick+1, c.simulationTick-1, func(_ uint64, input simulation.Input) {
		simulation.Step(c.game, &scratch, input, simulation.DtNominal, true)
	})

	local := &c.game.Players[c.localSlot]
	if !scratch.PositionEqual(*local) {
		*local = authPlayer
	}
}

func (c *Client) flush() {
	if c.out.NumPackets() == 0 {
		c.out = protocol.NewClientBatchEncoder()
		return
	}
	batch := c.out.Finish(c.networkTick, c.adjustmentIteration)
	if err := c.conn.Send(batch); err != nil {
		c.log.Warn("send failed", "err", err)
	}
	c.out = protocol.NewClientBatchEncoder()
}

// Game exposes the client's mirror of game state for rendering.
func (c *Client) Game() *simulation.Game { return c.game }

// LocalSlot is the peer index the server assigned this client.
func (c *Client) LocalSlot() int { return c.localSlot }
