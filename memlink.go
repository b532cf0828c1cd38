package lobby

import "sync"

// Hub is an in-process network of MemLinks
type Hub struct {
	mu    sync.Mutex
	links map[Addr]*MemLink

	// Loss, if set, drops every frame it returns true for
	Loss func(from, to Addr, frame []byte) bool
}

// NewHub returns an empty Hub
func NewHub() *Hub {
	return &Hub{links: make(map[Addr]*MemLink)}
}

// Link attaches a new MemLink with the given address to the Hub
func (h *Hub) Link(addr Addr) *MemLink {
	h.mu.Lock()
	defer h.mu.Unlock()

	l := &MemLink{hub: h, addr: addr}
	h.links[addr] = l

	return l
}

func (h *Hub) deliver(from, to Addr, b []byte) {
	h.mu.Lock()
	dst := h.links[to]
	loss := h.Loss
	h.mu.Unlock()

	if dst == nil || (loss != nil && loss(from, to, b)) {
		return
	}

	dst.push(datagram{data: append([]byte(nil), b...), from: from})
}

// MemLink is a Link on a Hub.
// Broadcasts reach every link on the Hub including the sender.
type MemLink struct {
	hub  *Hub
	addr Addr

	mu     sync.Mutex
	queue  []datagram
	closed bool
}

func (l *MemLink) push(d datagram) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.closed {
		l.queue = append(l.queue, d)
	}
}

func (l *MemLink) WriteTo(b []byte, to Addr) error {
	if l.isClosed() {
		return ErrClosed
	}

	l.hub.deliver(l.addr, to, b)
	return nil
}

func (l *MemLink) Broadcast(b []byte) error {
	if l.isClosed() {
		return ErrClosed
	}

	l.hub.mu.Lock()
	addrs := make([]Addr, 0, len(l.hub.links))
	for addr := range l.hub.links {
		addrs = append(addrs, addr)
	}
	l.hub.mu.Unlock()

	for _, addr := range addrs {
		l.hub.deliver(l.addr, addr, b)
	}

	return nil
}

func (l *MemLink) ReadFrom() ([]byte, Addr, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.queue) == 0 {
		return nil, "", false
	}

	d := l.queue[0]
	l.queue = l.queue[1:]

	return d.data, d.from, true
}

// LocalAddr returns the address the MemLink was attached with
func (l *MemLink) LocalAddr() Addr { return l.addr }

// Close detaches the MemLink from its Hub
func (l *MemLink) Close() error {
	l.mu.Lock()
	l.closed = true
	l.queue = nil
	l.mu.Unlock()

	l.hub.mu.Lock()
	if l.hub.links[l.addr] == l {
		delete(l.hub.links, l.addr)
	}
	l.hub.mu.Unlock()

	return nil
}

func (l *MemLink) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.closed
}
