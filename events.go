package lobby

// EventKind says what an Event is about
type EventKind uint8

const (
	EventNone EventKind = iota
	EventStateChange
	EventNewSession
	EventSessionChanged
	EventNewMember
	EventMemberLeft
	EventSessionLeft
	EventOptionsChanged
	EventMessage
	EventNewChatter
	EventChatterLeft
	EventScenarioRequest
	EventReady
)

var eventNames = [...]string{
	"none", "state-change", "new-session", "session-changed", "new-member",
	"member-left", "session-left", "options-changed", "message",
	"new-chatter", "chatter-left", "scenario-request", "ready",
}

func (k EventKind) String() string {
	if int(k) < len(eventNames) {
		return eventNames[k]
	}

	return "unknown"
}

// An Event tells the UI something changed.
// Name is the session, player or chatter concerned.
type Event struct {
	Kind   EventKind
	Name   string
	Addr   Addr
	Text   string
	State  JoinState
	Reason RejectReason
}
