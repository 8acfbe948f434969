// Package session wires the simulation, protocol, and transport packages
// together into the two loops described in spec §4.7: the server's
// authoritative loop and the client's predict-and-reconcile loop. It
// restructures the teacher's map-keyed, per-room Client/Server types around
// the slot-array identity model original_source uses (a connected peer's
// array index is its identity for the life of the connection), generalized
// from one game room to the single shared Game every peer occupies.
package session

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/duskreach/netplay/internal/protocol"
	"github.com/duskreach/netplay/internal/scheduler"
	"github.com/duskreach/netplay/internal/simulation"
	"github.com/duskreach/netplay/internal/transport"
)

const (
	// NetPerSimTicks is the number of simulation ticks per network tick
	// (§3): network I/O only happens when simulation_tick % NetPerSimTicks
	// == 0.
	NetPerSimTicks = 2

	// ValidTickWindow is the width of the network-tick lead the server
	// tolerates before flagging a client batch as early/late (§4.5).
	ValidTickWindow = 2

	// InitialNetworkTickOffset is how far ahead of the server's reported
	// network tick a freshly connected client seeds its own clock (§4.7),
	// landing it inside ValidTickWindow immediately instead of waiting for
	// the adjustment algorithm to walk it there from zero.
	InitialNetworkTickOffset = 5
)

type serverPeer struct {
	occupied    bool
	playerSlot  int
	conn        transport.Peer
	inbox       chan []byte
	log         protocol.UpdateLog
	out         *protocol.ServerBatchEncoder
	updateDone  bool
	lastAdjIter uint8
	pendingAmt  int8
}

// Server is the authoritative game loop: it owns the only true copy of
// Game, applies each connected peer's buffered input on the tick the peer
// claims it belongs to, and runs the tick-sync adjustment algorithm that
// steers every client's clock toward a one-tick lead over the server.
type Server struct {
	game  *simulation.Game
	peers [simulation.MaxClients]serverPeer

	simulationTick uint64
	networkTick    uint64

	listener transport.Listener
	log      *slog.Logger
	sched    *scheduler.Scheduler

	acceptCh     chan transport.Peer
	disconnectCh chan int
}

// NewServer builds a Server over the given Game, ready to accept peers
// through listener once Run is called.
func NewServer(listener transport.Listener, game *simulation.Game, log *slog.Logger) *Server {
	return &Server{
		game:         game,
		listener:     listener,
		log:          log,
		sched:        scheduler.New(60),
		acceptCh:     make(chan transport.Peer, simulation.MaxClients),
		disconnectCh: make(chan int, simulation.MaxClients),
	}
}

// Run drives the server loop until ctx is cancelled. It never returns a
// nil error on cancellation; callers should treat context.Canceled as
// clean shutdown.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.acceptLoop(ctx) })
	g.Go(func() error {
		for ctx.Err() == nil {
			s.sched.Step(func() { s.tick(ctx) })
		}
		return ctx.Err()
	})
	return g.Wait()
}

func (s *Server) acceptLoop(ctx context.Context) error {
	for {
		peer, err := s.listener.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		select {
		case s.acceptCh <- peer:
		case <-ctx.Done():
			peer.Close()
			return ctx.Err()
		}
	}
}

func (s *Server) tick(ctx context.Context) {
	s.drainAccepts()
	s.drainDisconnects()
	s.drainInbound()
	s.applyInputs()
	s.advanceIdlePeers()

	s.simulationTick++
	if s.simulationTick%NetPerSimTicks == 0 {
		s.networkTick++
		s.flush()
	}
}

func (s *Server) drainAccepts() {
	for {
		select {
		case peer := <-s.acceptCh:
			s.connect(peer)
		default:
			return
		}
	}
}

func (s *Server) drainDisconnects() {
	for {
		select {
		case slot := <-s.disconnectCh:
			s.disconnect(slot)
		default:
			return
		}
	}
}

func (s *Server) connect(conn transport.Peer) {
	peerSlot := -1
	for i := range s.peers {
		if !s.peers[i].occupied {
			peerSlot = i
			break
		}
	}
	if peerSlot == -1 {
		s.log.Warn("peer slot exhaustion, refusing connection", "addr", conn.RemoteAddr())
		conn.Close()
		return
	}

	playerSlot := s.game.FirstFreeSlot()
	if playerSlot == -1 {
		s.log.Warn("player slot exhaustion, refusing connection", "addr", conn.RemoteAddr())
		conn.Close()
		return
	}

	existing := make([]int, 0, simulation.MaxClients)
	for i := range s.peers {
		if s.peers[i].occupied {
			existing = append(existing, i)
		}
	}

	s.game.Players[playerSlot] = simulation.NewPlayer()

	ps := &s.peers[peerSlot]
	*ps = serverPeer{
		occupied:   true,
		playerSlot: playerSlot,
		conn:       conn,
		inbox:      make(chan []byte, protocol.RingCapacity),
		out:        protocol.NewServerBatchEncoder(),
	}
	go s.readLoop(peerSlot, conn)

	ps.out.AppendConnected(protocol.ServerPacketConnected{
		Player:      s.game.Players[playerSlot],
		NetworkTick: s.networkTick,
		PeerIndex:   uint8(peerSlot),
	})
	for _, other := range existing {
		ps.out.AppendPeerConnected(protocol.ServerPacketPeerConnected{
			Player:    s.game.Players[s.peers[other].playerSlot],
			PeerIndex: uint8(other),
		})
	}
	for _, other := range existing {
		s.peers[other].out.AppendPeerConnected(protocol.ServerPacketPeerConnected{
			Player:    s.game.Players[playerSlot],
			PeerIndex: uint8(peerSlot),
		})
	}

	s.log.Info("peer connected", "peer_index", peerSlot, "addr", conn.RemoteAddr())
}

func (s *Server) readLoop(peerSlot int, conn transport.Peer) {
	ctx := context.Background()
	for {
		data, err := conn.Receive(ctx)
		if err != nil {
			select {
			case s.disconnectCh <- peerSlot:
			default:
			}
			return
		}
		ps := &s.peers[peerSlot]
		if !ps.occupied || ps.conn != conn {
			return
		}
		select {
		case ps.inbox <- data:
		default:
			s.log.Warn("peer inbox full, dropping batch", "peer_index", peerSlot)
		}
	}
}

func (s *Server) disconnect(peerSlot int) {
	ps := &s.peers[peerSlot]
	if !ps.occupied {
		return
	}
	playerSlot := ps.playerSlot
	s.game.Players[playerSlot] = simulation.Player{}
	ps.conn.Close()
	*ps = serverPeer{}

	for i := range s.peers {
		if s.peers[i].occupied {
			s.peers[i].out.AppendPeerDisconnected(protocol.ServerPacketPeerDisconnected{PeerIndex: uint8(peerSlot)})
		}
	}
	s.log.Info("peer disconnected", "peer_index", peerSlot)
}

func (s *Server) drainInbound() {
	for i := range s.peers {
		ps := &s.peers[i]
		if !ps.occupied {
			continue
		}
		for {
			select {
			case data := <-ps.inbox:
				s.handleClientBatch(ps, data)
				continue
			default:
			}
			break
		}
	}
}

func (s *Server) handleClientBatch(ps *serverPeer, data []byte) {
	dec, err := protocol.DecodeClientBatch(data)
	if err != nil {
		s.log.Warn("unreadable client batch", "err", err)
		return
	}

	c := int64(dec.Header.NetworkTick)
	diff := int64(s.networkTick) + (ValidTickWindow - 1) - c
	if diff < -128 || diff > 127 {
		s.log.Warn("adjustment overflow, skipping batch", "diff", diff)
		return
	}

	ps.lastAdjIter = dec.Header.AdjustmentIteration
	if c < int64(s.networkTick) {
		ps.out.AppendDropped()
		s.log.Info("late client batch dropped", "network_tick", c, "server_network_tick", s.networkTick)
		return
	}
	if diff < -(ValidTickWindow-1) || diff > 0 {
		// diff > 0: the client is behind and must speed up (negative
		// amount); diff < -1: it is too far ahead and must stall (positive
		// amount), matching scheduler.StepAdjusted's sign convention.
		ps.pendingAmt = int8(min(-diff, 127))
	}

	for dec.More() {
		typ, simTick, err := dec.Next()
		if err != nil {
			s.log.Warn("malformed client packet header", "err", err)
			return
		}
		switch typ {
		case protocol.ClientPacketUpdateType:
			pkt, err := dec.ReadUpdate()
			if err != nil {
				s.log.Warn("malformed UPDATE payload", "err", err)
				return
			}
			ps.log.Push(protocol.UpdateLogEntry{
				ClientSimTick:         simTick,
				ServerNetTickReceived: s.networkTick,
				Input:                 pkt.Input,
			})
		default:
			s.log.Warn("unknown client packet type", "type", typ)
		}
	}
}

// applyInputs implements §4.4 for the current simulation tick.
func (s *Server) applyInputs() {
	for i := range s.peers {
		ps := &s.peers[i]
		ps.updateDone = false
		if !ps.occupied {
			continue
		}

		entry, ok := ps.log.PeekFront()
		if !ok {
			continue
		}
		switch {
		case entry.ClientSimTick < s.simulationTick:
			ps.log.PopFront()
			s.log.Info("late input discarded", "peer_index", i, "client_tick", entry.ClientSimTick, "server_tick", s.simulationTick)
		case entry.ClientSimTick == s.simulationTick:
			ps.log.PopFront()
			p := &s.game.Players[ps.playerSlot]
			simulation.Step(s.game, p, entry.Input, simulation.DtNominal, false)
			ps.updateDone = true
			s.broadcastAuth(i, *p)
		default:
			// client is running ahead as intended; leave queued.
		}
	}
}

func (s *Server) broadcastAuth(peerSlot int, p simulation.Player) {
	for i := range s.peers {
		if !s.peers[i].occupied {
			continue
		}
		if i == peerSlot {
			s.peers[i].out.AppendAuth(protocol.ServerPacketAuth{Player: p, SimulationTick: s.simulationTick})
		} else {
			s.peers[i].out.AppendPeerAuth(protocol.ServerPacketPeerAuth{Player: p, SimulationTick: s.simulationTick, PeerIndex: uint8(peerSlot)})
		}
	}
}

// advanceIdlePeers keeps passive physics ticking for connected peers that
// had no matching input this tick (§4.4's closing paragraph).
func (s *Server) advanceIdlePeers() {
	for i := range s.peers {
		ps := &s.peers[i]
		if !ps.occupied || ps.updateDone {
			continue
		}
		p := &s.game.Players[ps.playerSlot]
		simulation.Step(s.game, p, simulation.Input{}, simulation.DtNominal, false)
	}
}

func (s *Server) flush() {
	for i := range s.peers {
		ps := &s.peers[i]
		if !ps.occupied {
			continue
		}
		if ps.out.NumPackets() == 0 && ps.pendingAmt == 0 {
			ps.out = protocol.NewServerBatchEncoder()
			continue
		}
		batch := ps.out.Finish(ps.pendingAmt, ps.lastAdjIter)
		if err := ps.conn.Send(batch); err != nil {
			s.log.Warn("send failed", "peer_index", i, "err", err)
		}
		ps.pendingAmt = 0
		ps.out = protocol.NewServerBatchEncoder()
	}
}
