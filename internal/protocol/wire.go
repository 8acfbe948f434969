// Package protocol implements the binary batched packet protocol described
// in spec §6: fixed-layout structs appended into a linear buffer, framed by
// a batch header that is back-patched once the packet count (and, for the
// server, the clock adjustment) is known. It generalizes the Serialize/
// DeserializeMessage pair from the teacher's shared/messages.go from one
// opaque envelope type into this concrete record set.
package protocol

import "github.com/duskreach/netplay/internal/simulation"

// ServerPacketType enumerates the packet kinds the server emits, matching
// the wire values in spec §6.2 exactly (servers and clients on either side
// of a version boundary must agree on these numbers).
type ServerPacketType uint32

const (
	ServerPacketConnectedType ServerPacketType = iota
	ServerPacketPeerConnectedType
	ServerPacketDroppedType
	ServerPacketAuthType
	ServerPacketPeerAuthType
	ServerPacketPeerDisconnectedType
)

// ClientPacketType enumerates the packet kinds the client emits.
type ClientPacketType uint32

const (
	ClientPacketUpdateType ClientPacketType = iota
)

// ServerBatchHeader prefixes every server->client batch. It is back-patched
// after the batch's packets are known: num_packets by the encoder, and the
// adjustment fields by the tick-sync algorithm (internal/session/server.go).
type ServerBatchHeader struct {
	NumPackets          uint16
	AdjustmentAmount    int8
	AdjustmentIteration uint8
}

// ClientBatchHeader prefixes every client->server batch.
type ClientBatchHeader struct {
	NetworkTick         uint64
	NumPackets          uint16
	AdjustmentIteration uint8
}

// ServerPacketHeader prefixes every packet within a server batch.
type ServerPacketHeader struct {
	Type ServerPacketType
}

// ClientPacketHeader prefixes every packet within a client batch.
type ClientPacketHeader struct {
	Type           ClientPacketType
	SimulationTick uint64
}

// ServerPacketConnected is sent once to a newly connected peer, carrying its
// own assigned identity and the server's current network tick.
type ServerPacketConnected struct {
	Player      simulation.Player
	NetworkTick uint64
	PeerIndex   uint8
}

// ServerPacketPeerConnected announces another peer's connection (sent to
// everyone else on a new connect, and to the new peer once per existing
// connection).
type ServerPacketPeerConnected struct {
	Player    simulation.Player
	PeerIndex uint8
}

// ServerPacketAuth is the authoritative state for the receiving peer's own
// player at a specific simulation tick.
type ServerPacketAuth struct {
	Player         simulation.Player
	SimulationTick uint64
}

// ServerPacketPeerAuth is the authoritative state for a remote player,
// applied verbatim with no replay on the receiving client.
type ServerPacketPeerAuth struct {
	Player         simulation.Player
	SimulationTick uint64
	PeerIndex      uint8
}

// ServerPacketPeerDisconnected announces a peer leaving.
type ServerPacketPeerDisconnected struct {
	PeerIndex uint8
}

// ServerPacketDropped carries no payload; it tells the client its last
// batch was rejected as too late (its network tick was behind the
// server's) so it can diagnose clock drift.
type ServerPacketDropped struct{}

// ClientPacketUpdate is the client's local input for one simulation tick.
type ClientPacketUpdate struct {
	Input simulation.Input
}
