package lobby

import (
	"context"
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"
)

// UDPLink is a Link on a UDP socket that is allowed to broadcast.
// Broadcasts go to every configured target, which allows bridging
// several subnets by listing their broadcast addresses.
type UDPLink struct {
	conn    net.PacketConn
	targets []*net.UDPAddr
	in      chan datagram
	log     *zap.Logger

	mu    sync.Mutex
	addrs map[Addr]*net.UDPAddr
}

// ListenUDP opens a broadcast-capable socket on listen.
// targets are the addresses Broadcast sends to.
func ListenUDP(listen string, targets []string, log *zap.Logger) (*UDPLink, error) {
	if log == nil {
		log = zap.NewNop()
	}

	lc := net.ListenConfig{Control: setBroadcast}
	conn, err := lc.ListenPacket(context.Background(), "udp4", listen)
	if err != nil {
		return nil, err
	}

	l := &UDPLink{
		conn:  conn,
		in:    make(chan datagram, inboundQueueLen),
		log:   log,
		addrs: make(map[Addr]*net.UDPAddr),
	}

	for _, target := range targets {
		addr, err := net.ResolveUDPAddr("udp4", target)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("broadcast target %s: %w", target, err)
		}

		l.targets = append(l.targets, addr)
	}

	go l.recv()

	return l, nil
}

func (l *UDPLink) recv() {
	buf := make([]byte, 2*FrameSize)
	for {
		n, from, err := l.conn.ReadFrom(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Temporary() {
				continue
			}

			l.log.Debug("udp reader stopped", zap.Error(err))
			return
		}

		enqueue(l.in, datagram{
			data: append([]byte(nil), buf[:n]...),
			from: Addr(from.String()),
		})
	}
}

func (l *UDPLink) resolve(to Addr) (*net.UDPAddr, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if addr, ok := l.addrs[to]; ok {
		return addr, nil
	}

	addr, err := net.ResolveUDPAddr("udp4", string(to))
	if err != nil {
		return nil, err
	}

	l.addrs[to] = addr
	return addr, nil
}

func (l *UDPLink) WriteTo(b []byte, to Addr) error {
	addr, err := l.resolve(to)
	if err != nil {
		return err
	}

	_, err = l.conn.WriteTo(b, addr)
	return err
}

func (l *UDPLink) Broadcast(b []byte) error {
	var first error
	for _, addr := range l.targets {
		if _, err := l.conn.WriteTo(b, addr); err != nil && first == nil {
			first = err
		}
	}

	return first
}

func (l *UDPLink) ReadFrom() ([]byte, Addr, bool) {
	return pollQueue(l.in)
}

// LocalAddr returns the address the socket is bound to
func (l *UDPLink) LocalAddr() Addr { return Addr(l.conn.LocalAddr().String()) }

// Close closes the socket, which also stops the reader
func (l *UDPLink) Close() error { return l.conn.Close() }
