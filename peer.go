package lobby

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/anon55555/mt/rudp"
	"go.uber.org/zap"
)

// A DirectLink is a point-to-point Link to exactly one peer over rudp.
// It has no broadcast medium; Broadcast reaches the one peer.
type DirectLink struct {
	*rudp.Peer

	conn net.PacketConn
	peer Addr
	in   chan datagram
	log  *zap.Logger
}

func newDirectLink(p *rudp.Peer, conn net.PacketConn, log *zap.Logger) *DirectLink {
	if log == nil {
		log = zap.NewNop()
	}

	l := &DirectLink{
		Peer: p,
		conn: conn,
		peer: Addr(p.Addr().String()),
		in:   make(chan datagram, inboundQueueLen),
		log:  log,
	}

	go l.recv()

	return l
}

// DialDirect connects to the peer listening on addr
// and closes the socket when the DirectLink is closed
func DialDirect(addr string, log *zap.Logger) (*DirectLink, error) {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}

	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, err
	}

	return newDirectLink(rudp.Connect(conn, conn.RemoteAddr()), conn, log), nil
}

// ListenDirect waits on addr for a peer to connect.
// It returns when the first peer arrives or ctx is done.
func ListenDirect(ctx context.Context, addr string, log *zap.Logger) (*DirectLink, error) {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, err
	}

	l := rudp.Listen(conn)

	type accepted struct {
		p   *rudp.Peer
		err error
	}

	ch := make(chan accepted, 1)
	go func() {
		p, err := l.Accept()
		ch <- accepted{p, err}
	}()

	select {
	case <-ctx.Done():
		conn.Close()
		return nil, ctx.Err()
	case a := <-ch:
		if a.err != nil {
			conn.Close()
			return nil, fmt.Errorf("accept on %s: %w", addr, a.err)
		}

		return newDirectLink(a.p, conn, log), nil
	}
}

func (l *DirectLink) recv() {
	for {
		pkt, err := l.Recv()
		if err != nil {
			select {
			case <-l.Disco():
				msg := "direct link closed"
				if l.TimedOut() {
					msg += " (timed out)"
				}
				l.log.Info(msg, zap.String("peer", string(l.peer)))
				return
			default:
			}

			l.log.Debug("direct link receive", zap.Error(err))
			continue
		}

		enqueue(l.in, datagram{data: pkt.Data, from: l.peer})
	}
}

// WriteTo sends b to the peer; to must be the peer or Broadcast
func (l *DirectLink) WriteTo(b []byte, to Addr) error {
	if to != l.peer && to != Broadcast {
		return fmt.Errorf("direct link has no route to %s", to)
	}

	_, err := l.Send(rudp.Pkt{Data: b})
	return err
}

func (l *DirectLink) Broadcast(b []byte) error {
	return l.WriteTo(b, l.peer)
}

func (l *DirectLink) ReadFrom() ([]byte, Addr, bool) {
	return pollQueue(l.in)
}

// LocalAddr returns the local address of the socket
func (l *DirectLink) LocalAddr() Addr { return Addr(l.conn.LocalAddr().String()) }

// PeerAddr returns the address of the other end
func (l *DirectLink) PeerAddr() Addr { return l.peer }

// Close disconnects from the peer and closes the socket
func (l *DirectLink) Close() error {
	l.SendDisco(0, true)
	l.Peer.Close()

	select {
	case <-l.Disco():
	case <-time.After(time.Second):
	}

	return l.conn.Close()
}
