package lobby

import "errors"

var (
	ErrShortFrame     = errors.New("frame has the wrong size")
	ErrBadMagic       = errors.New("frame does not start with the protocol magic")
	ErrUnknownCommand = errors.New("unknown command")
	ErrReentrant      = errors.New("dispatch called from inside dispatch")
	ErrClosed         = errors.New("use of closed link")
	ErrNotOwner       = errors.New("session is not owned locally")
	ErrNotJoined      = errors.New("not a confirmed member of a session")
	ErrNoSuchMember   = errors.New("no such member")
	ErrInSession      = errors.New("already part of a session")
	ErrNameEmpty      = errors.New("name is empty")

	// ErrLoopback is returned by Elect when the peer's tie-break
	// equals the local one, i.e. the link echoes our own frames
	ErrLoopback = errors.New("direct link is a loopback")

	ErrElectionTimeout = errors.New("no peer answered on the direct link")
)
