// Package transport abstracts the reliable, ordered, packet-framed link
// between client and server (spec §6.1) behind a small interface, so the
// session loops in internal/session never import a networking library
// directly. The production implementation wraps
// github.com/sandertv/go-raknet the way the teacher's query package wraps
// it for the Minecraft protocol; tests run over an in-memory Loopback
// instead.
package transport

import (
	"context"
	"fmt"
)

// Peer is one established connection. Each Send is exactly one batch; each
// Receive returns exactly one batch (raknet preserves packet boundaries, so
// no length-prefixing is needed on top of it).
type Peer interface {
	Send(data []byte) error
	Receive(ctx context.Context) ([]byte, error)
	RemoteAddr() string
	Close() error
}

// Listener accepts inbound peer connections (server side).
type Listener interface {
	Accept(ctx context.Context) (Peer, error)
	Close() error
}

// Transport opens the server listener or dials the client connection. It is
// the seam RakNet and Loopback both implement.
type Transport interface {
	Listen(ctx context.Context, address string) (Listener, error)
	Dial(ctx context.Context, address string) (Peer, error)
}

// ErrClosed is returned by Receive/Accept once the underlying transport has
// been closed.
var ErrClosed = fmt.Errorf("transport: closed")
