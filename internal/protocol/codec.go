package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// MaxServerBatchSize and MaxClientBatchSize bound a single outbound batch
// (§5). Exceeding either is an encoding-side programming error, not a
// recoverable network condition, so Append panics rather than returning an
// error the caller would have to remember to check.
const (
	MaxServerBatchSize = 32000
	MaxClientBatchSize = 2048
)

var order = binary.LittleEndian

// ServerBatchEncoder accumulates packets for one server->client batch. The
// header is written as a placeholder up front and back-patched by Finish
// once the packet count and clock adjustment are known, mirroring the
// teacher's ByteBuffer-with-length-prefix pattern generalized from one
// envelope type to a framed multi-packet batch.
type ServerBatchEncoder struct {
	buf        bytes.Buffer
	numPackets uint16
}

// NewServerBatchEncoder starts a fresh batch with a zeroed header reserved
// at offset 0.
func NewServerBatchEncoder() *ServerBatchEncoder {
	e := &ServerBatchEncoder{}
	must(binary.Write(&e.buf, order, ServerBatchHeader{}))
	return e
}

func (e *ServerBatchEncoder) reservePacket(t ServerPacketType) {
	if e.numPackets == 0xFFFF {
		panic("protocol: server batch packet count overflow")
	}
	e.numPackets++
	must(binary.Write(&e.buf, order, ServerPacketHeader{Type: t}))
}

func (e *ServerBatchEncoder) checkBound() {
	if e.buf.Len() > MaxServerBatchSize {
		panic(fmt.Sprintf("protocol: server batch exceeds %d bytes", MaxServerBatchSize))
	}
}

// AppendConnected appends a CONNECTED packet.
func (e *ServerBatchEncoder) AppendConnected(p ServerPacketConnected) {
	e.reservePacket(ServerPacketConnectedType)
	must(binary.Write(&e.buf, order, p))
	e.checkBound()
}

// AppendPeerConnected appends a PEER_CONNECTED packet.
func (e *ServerBatchEncoder) AppendPeerConnected(p ServerPacketPeerConnected) {
	e.reservePacket(ServerPacketPeerConnectedType)
	must(binary.Write(&e.buf, order, p))
	e.checkBound()
}

// AppendDropped appends a DROPPED packet (no payload).
func (e *ServerBatchEncoder) AppendDropped() {
	e.reservePacket(ServerPacketDroppedType)
	e.checkBound()
}

// AppendAuth appends an AUTH packet.
func (e *ServerBatchEncoder) AppendAuth(p ServerPacketAuth) {
	e.reservePacket(ServerPacketAuthType)
	must(binary.Write(&e.buf, order, p))
	e.checkBound()
}

// AppendPeerAuth appends a PEER_AUTH packet.
func (e *ServerBatchEncoder) AppendPeerAuth(p ServerPacketPeerAuth) {
	e.reservePacket(ServerPacketPeerAuthType)
	must(binary.Write(&e.buf, order, p))
	e.checkBound()
}

// AppendPeerDisconnected appends a PEER_DISCONNECTED packet.
func (e *ServerBatchEncoder) AppendPeerDisconnected(p ServerPacketPeerDisconnected) {
	e.reservePacket(ServerPacketPeerDisconnectedType)
	must(binary.Write(&e.buf, order, p))
	e.checkBound()
}

// NumPackets reports how many packets have been appended so far.
func (e *ServerBatchEncoder) NumPackets() int { return int(e.numPackets) }

// Finish back-patches the header with the final packet count and the
// clock-adjustment fields, and returns the complete batch bytes. The
// encoder must not be reused afterward.
func (e *ServerBatchEncoder) Finish(adjustmentAmount int8, adjustmentIteration uint8) []byte {
	out := make([]byte, e.buf.Len())
	copy(out, e.buf.Bytes())

	var hdr bytes.Buffer
	must(binary.Write(&hdr, order, ServerBatchHeader{
		NumPackets:          e.numPackets,
		AdjustmentAmount:    adjustmentAmount,
		AdjustmentIteration: adjustmentIteration,
	}))
	copy(out[:hdr.Len()], hdr.Bytes())
	return out
}

// ClientBatchEncoder accumulates packets for one client->server batch.
type ClientBatchEncoder struct {
	buf        bytes.Buffer
	numPackets uint16
}

// NewClientBatchEncoder starts a fresh batch with a zeroed header reserved
// at offset 0.
func NewClientBatchEncoder() *ClientBatchEncoder {
	e := &ClientBatchEncoder{}
	must(binary.Write(&e.buf, order, ClientBatchHeader{}))
	return e
}

func (e *ClientBatchEncoder) checkBound() {
	if e.buf.Len() > MaxClientBatchSize {
		panic(fmt.Sprintf("protocol: client batch exceeds %d bytes", MaxClientBatchSize))
	}
}

// AppendUpdate appends an UPDATE packet for the given simulation tick.
func (e *ClientBatchEncoder) AppendUpdate(simulationTick uint64, p ClientPacketUpdate) {
	if e.numPackets == 0xFFFF {
		panic("protocol: client batch packet count overflow")
	}
	e.numPackets++
	must(binary.Write(&e.buf, order, ClientPacketHeader{Type: ClientPacketUpdateType, SimulationTick: simulationTick}))
	must(binary.Write(&e.buf, order, p))
	e.checkBound()
}

// Finish back-patches the header with the final packet count and network
// tick, and returns the complete batch bytes.
func (e *ClientBatchEncoder) Finish(networkTick uint64, adjustmentIteration uint8) []byte {
	out := make([]byte, e.buf.Len())
	copy(out, e.buf.Bytes())

	var hdr bytes.Buffer
	must(binary.Write(&hdr, order, ClientBatchHeader{
		NetworkTick:         networkTick,
		NumPackets:          e.numPackets,
		AdjustmentIteration: adjustmentIteration,
	}))
	copy(out[:hdr.Len()], hdr.Bytes())
	return out
}

// ServerBatchDecoder sequentially reads packets out of a decoded server
// batch, in the spirit of the original engine's "read header, switch on
// type, read payload" receive loop.
type ServerBatchDecoder struct {
	r         *bytes.Reader
	Header    ServerBatchHeader
	remaining int
}

// DecodeServerBatch reads the batch header and prepares a decoder for the
// packets that follow. It does not decode the packets themselves.
func DecodeServerBatch(data []byte) (*ServerBatchDecoder, error) {
	r := bytes.NewReader(data)
	var hdr ServerBatchHeader
	if err := binary.Read(r, order, &hdr); err != nil {
		return nil, fmt.Errorf("protocol: decode server batch header: %w", err)
	}
	return &ServerBatchDecoder{r: r, Header: hdr, remaining: int(hdr.NumPackets)}, nil
}

// More reports whether packets remain to be decoded.
func (d *ServerBatchDecoder) More() bool { return d.remaining > 0 }

// Next reads the next packet's header and returns its type; the caller must
// then call the matching ReadXxx to consume the payload before calling Next
// again (DROPPED has no payload, so nothing is read for it).
func (d *ServerBatchDecoder) Next() (ServerPacketType, error) {
	if d.remaining <= 0 {
		return 0, fmt.Errorf("protocol: no more packets in server batch")
	}
	var h ServerPacketHeader
	if err := binary.Read(d.r, order, &h); err != nil {
		return 0, fmt.Errorf("protocol: decode server packet header: %w", err)
	}
	d.remaining--
	return h.Type, nil
}

func (d *ServerBatchDecoder) ReadConnected() (ServerPacketConnected, error) {
	var p ServerPacketConnected
	err := binary.Read(d.r, order, &p)
	return p, err
}

func (d *ServerBatchDecoder) ReadPeerConnected() (ServerPacketPeerConnected, error) {
	var p ServerPacketPeerConnected
	err := binary.Read(d.r, order, &p)
	return p, err
}

func (d *ServerBatchDecoder) ReadAuth() (ServerPacketAuth, error) {
	var p ServerPacketAuth
	err := binary.Read(d.r, order, &p)
	return p, err
}

func (d *ServerBatchDecoder) ReadPeerAuth() (ServerPacketPeerAuth, error) {
	var p ServerPacketPeerAuth
	err := binary.Read(d.r, order, &p)
	return p, err
}

func (d *ServerBatchDecoder) ReadPeerDisconnected() (ServerPacketPeerDisconnected, error) {
	var p ServerPacketPeerDisconnected
	err := binary.Read(d.r, order, &p)
	return p, err
}

// ClientBatchDecoder sequentially reads packets out of a decoded client
// batch.
type ClientBatchDecoder struct {
	r         *bytes.Reader
	Header    ClientBatchHeader
	remaining int
}

// DecodeClientBatch reads the batch header and prepares a decoder for the
// packets that follow.
func DecodeClientBatch(data []byte) (*ClientBatchDecoder, error) {
	r := bytes.NewReader(data)
	var hdr ClientBatchHeader
	if err := binary.Read(r, order, &hdr); err != nil {
		return nil, fmt.Errorf("protocol: decode client batch header: %w", err)
	}
	return &ClientBatchDecoder{r: r, Header: hdr, remaining: int(hdr.NumPackets)}, nil
}

// More reports whether packets remain to be decoded.
func (d *ClientBatchDecoder) More() bool { return d.remaining > 0 }

// Next reads the next packet's header.
func (d *ClientBatchDecoder) Next() (ClientPacketType, uint64, error) {
	if d.remaining <= 0 {
		return 0, 0, fmt.Errorf("protocol: no more packets in client batch")
	}
	var h ClientPacketHeader
	if err := binary.Read(d.r, order, &h); err != nil {
		return 0, 0, fmt.Errorf("protocol: decode client packet header: %w", err)
	}
	d.remaining--
	return h.Type, h.SimulationTick, nil
}

func (d *ClientBatchDecoder) ReadUpdate() (ClientPacketUpdate, error) {
	var p ClientPacketUpdate
	err := binary.Read(d.r, order, &p)
	return p, err
}

func must(err error) {
	if err != nil {
		// binary.Write only fails this way when a struct contains a field of
		// non-fixed size; every wire struct here is plain floats/bools/ints,
		// so this indicates a protocol struct was edited incorrectly.
		panic(fmt.Sprintf("protocol: fixed-size struct write failed: %v", err))
	}
}
