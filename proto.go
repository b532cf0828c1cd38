package lobby

// protoMagic must be at the start of every frame
const protoMagic uint32 = 0x4c424259

// FrameSize is the size of every frame on the wire
const FrameSize = 384

// NameMax is the width of every name field
const NameMax = 12

// MaxPlayers is the capacity of a session, including the owner
const MaxPlayers = 8

// Protocol timing in ticks
const (
	GameQueryPeriod    Tick = 120
	PlayerQueryPeriod  Tick = 35
	ChatAnnouncePeriod Tick = 91

	GameTimeout   Tick = 400
	PlayerTimeout Tick = 400
	MemberTimeout Tick = 600

	ChatQuiet Tick = 240
	ChatReply Tick = 120
	ChatStale Tick = 360

	OptionsPeriod Tick = 300

	RetryInterval Tick = 30
	MaxRetries         = -1
	GiveUp        Tick = 240

	DrainTicks Tick = 120
)

type frameKind uint8

const (
	frameData frameKind = iota
	frameDataAck
	frameAck
)

// headerSize is the size of the frame header preceding the body
const headerSize = 4 + 1 + 4

// Color is a player color
type Color uint8

const (
	ColorGold Color = iota
	ColorLightBlue
	ColorRed
	ColorGreen
	ColorOrange
	ColorGrey
	ColorBlue
	ColorBrown

	ColorCount
)

var colorNames = [...]string{"gold", "lightblue", "red", "green", "orange", "grey", "blue", "brown"}

func (c Color) String() string {
	if c < ColorCount {
		return colorNames[c]
	}

	return "invalid"
}

// ParseColor returns the Color with the given name or number
func ParseColor(s string) (Color, bool) {
	for i, name := range colorNames {
		if name == s {
			return Color(i), true
		}
	}

	if len(s) == 1 && s[0] >= '0' && s[0] < '0'+byte(ColorCount) {
		return Color(s[0] - '0'), true
	}

	return 0, false
}

// Faction is the side a player fights for
type Faction uint8

const (
	FactionAllies Faction = iota
	FactionSoviet
)

func (f Faction) String() string {
	switch f {
	case FactionAllies:
		return "allies"
	case FactionSoviet:
		return "soviet"
	}

	return "invalid"
}

// ParseFaction returns the Faction with the given name
func ParseFaction(s string) (Faction, bool) {
	switch s {
	case "allies":
		return FactionAllies, true
	case "soviet":
		return FactionSoviet, true
	}

	return 0, false
}

// RejectReason tells a requester why it is not (or no longer) part of a session
type RejectReason uint8

const (
	RejectNone RejectReason = iota
	RejectDuplicateName
	RejectFull
	RejectTooOld
	RejectTooNew
	RejectRevoked
	RejectDisbanded
	RejectConfigMismatch
)

func (r RejectReason) String() string {
	switch r {
	case RejectNone:
		return "none"
	case RejectDuplicateName:
		return "duplicate name"
	case RejectFull:
		return "session full"
	case RejectTooOld:
		return "version too old"
	case RejectTooNew:
		return "version too new"
	case RejectRevoked:
		return "removed by owner"
	case RejectDisbanded:
		return "session disbanded"
	case RejectConfigMismatch:
		return "configuration mismatch"
	}

	return "unknown"
}

// SignOffReason is carried by SignOff packets
type SignOffReason uint8

const (
	// SignOffLeave is a peer leaving on its own
	SignOffLeave SignOffReason = iota
	SignOffByOwner
	SignOffDisbanded
)

// JoinState is the requester's view of a join attempt
type JoinState uint8

const (
	Idle JoinState = iota
	AwaitingConfirm
	Confirmed
	Rejected
	StartGame
	StartGameLoad
)

func (s JoinState) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingConfirm:
		return "awaiting confirm"
	case Confirmed:
		return "confirmed"
	case Rejected:
		return "rejected"
	case StartGame:
		return "start game"
	case StartGameLoad:
		return "start saved game"
	}

	return "unknown"
}

// VersionRange is the inclusive range of protocol versions a peer speaks
type VersionRange struct {
	Min, Max uint32
}
