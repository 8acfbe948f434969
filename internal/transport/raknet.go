package transport

import (
	"context"
	"log/slog"
	"net"

	"github.com/sandertv/go-raknet"
)

// RakNet is the production Transport, grounded on the same
// raknet.Dialer/raknet.ListenConfig pair the teacher's query network wraps
// for Minecraft's protocol — here used directly rather than wrapped,
// since this protocol needs no query-packet interception.
type RakNet struct {
	Log *slog.Logger
}

func (t RakNet) logger() *slog.Logger {
	if t.Log != nil {
		return t.Log
	}
	return slog.Default()
}

func (t RakNet) Listen(ctx context.Context, address string) (Listener, error) {
	lc := raknet.ListenConfig{ErrorLog: t.logger().With("transport", "raknet")}
	l, err := lc.Listen(address)
	if err != nil {
		return nil, err
	}
	return &rakNetListener{l: l}, nil
}

func (t RakNet) Dial(ctx context.Context, address string) (Peer, error) {
	d := raknet.Dialer{ErrorLog: t.logger().With("transport", "raknet")}
	conn, err := d.DialContext(ctx, address)
	if err != nil {
		return nil, err
	}
	return &rakNetPeer{conn: conn}, nil
}

type rakNetListener struct {
	l *raknet.Listener
}

func (rl *rakNetListener) Accept(ctx context.Context) (Peer, error) {
	conn, err := rl.l.Accept()
	if err != nil {
		return nil, err
	}
	return &rakNetPeer{conn: conn}, nil
}

func (rl *rakNetListener) Close() error { return rl.l.Close() }

type rakNetPeer struct {
	conn net.Conn
}

func (p *rakNetPeer) Send(data []byte) error {
	_, err := p.conn.Write(data)
	return err
}

func (p *rakNetPeer) Receive(ctx context.Context) ([]byte, error) {
	if dl, ok := ctx.Deadline(); ok {
		_ = p.conn.SetReadDeadline(dl)
	}
	buf := make([]byte, 32*1024)
	n, err := p.conn.Read(buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

func (p *rakNetPeer) RemoteAddr() string { return p.conn.RemoteAddr().String() }

func (p *rakNetPeer) Close() error { return p.conn.Close() }
