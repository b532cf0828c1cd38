package lobby

// Addr identifies a peer on a Link
type Addr string

// Broadcast is the destination of frames sent to every peer on the link
const Broadcast Addr = "*"

// A Link moves whole frames between peers.
// ReadFrom never blocks; it reports false when nothing is queued.
type Link interface {
	WriteTo(b []byte, to Addr) error
	Broadcast(b []byte) error
	ReadFrom() ([]byte, Addr, bool)
	LocalAddr() Addr
	Close() error
}

// inboundQueueLen is how many frames a socket-backed link buffers
// between two service calls
const inboundQueueLen = 256

type datagram struct {
	data []byte
	from Addr
}

func pollQueue(q <-chan datagram) ([]byte, Addr, bool) {
	select {
	case d := <-q:
		return d.data, d.from, true
	default:
		return nil, "", false
	}
}

// enqueue hands a frame to the service loop, dropping it if the loop
// has fallen behind
func enqueue(q chan<- datagram, d datagram) bool {
	select {
	case q <- d:
		return true
	default:
		framesDropped.WithLabelValues("queue_full").Inc()
		return false
	}
}
