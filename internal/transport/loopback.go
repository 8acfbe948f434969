package transport

import (
	"context"
	"sync"
)

// Loopback is an in-memory Transport used by tests that exercise the
// session loops without a real socket: Listen/Dial on the same *Loopback
// instance connect directly to each other's channel pair.
type Loopback struct {
	mu      sync.Mutex
	pending chan *loopbackPeer
	closed  bool
}

// NewLoopback creates a Loopback with room for backlog pending connections
// before Accept is called.
func NewLoopback(backlog int) *Loopback {
	return &Loopback{pending: make(chan *loopbackPeer, backlog)}
}

func (b *Loopback) Listen(ctx context.Context, address string) (Listener, error) {
	return &loopbackListener{bus: b}, nil
}

func (b *Loopback) Dial(ctx context.Context, address string) (Peer, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrClosed
	}
	b.mu.Unlock()

	toServer := make(chan []byte, 64)
	toClient := make(chan []byte, 64)
	closeCh := make(chan struct{})

	serverSide := &loopbackPeer{send: toClient, recv: toServer, closeCh: closeCh, addr: "client"}
	clientSide := &loopbackPeer{send: toServer, recv: toClient, closeCh: closeCh, addr: "server"}

	select {
	case b.pending <- serverSide:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return clientSide, nil
}

type loopbackListener struct {
	bus *Loopback
}

func (l *loopbackListener) Accept(ctx context.Context) (Peer, error) {
	select {
	case p, ok := <-l.bus.pending:
		if !ok {
			return nil, ErrClosed
		}
		return p, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *loopbackListener) Close() error {
	l.bus.mu.Lock()
	defer l.bus.mu.Unlock()
	if !l.bus.closed {
		l.bus.closed = true
		close(l.bus.pending)
	}
	return nil
}

type loopbackPeer struct {
	send    chan<- []byte
	recv    <-chan []byte
	closeCh chan struct{}
	addr    string

	closeOnce sync.Once
}

func (p *loopbackPeer) Send(data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	select {
	case p.send <- cp:
		return nil
	case <-p.closeCh:
		return ErrClosed
	}
}

func (p *loopbackPeer) Receive(ctx context.Context) ([]byte, error) {
	select {
	case data, ok := <-p.recv:
		if !ok {
			return nil, ErrClosed
		}
		return data, nil
	case <-p.closeCh:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *loopbackPeer) RemoteAddr() string { return p.addr }

func (p *loopbackPeer) Close() error {
	p.closeOnce.Do(func() { close(p.closeCh) })
	return nil
}
