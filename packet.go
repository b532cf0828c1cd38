package lobby

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// Cmd is the command tag of a Packet
type Cmd uint16

const (
	CmdQueryGame Cmd = iota
	CmdAnswerGame
	CmdQueryPlayer
	CmdAnswerPlayer
	CmdChatAnnounce
	CmdChatRequest
	CmdQueryJoin
	CmdConfirmJoin
	CmdRejectJoin
	CmdGameOptions
	CmdSignOff
	CmdGo
	CmdLoadGame
	CmdMessage
	CmdPing
	CmdReqScenario
	CmdReadyToGo
	CmdConnect
)

var cmdNames = [...]string{
	"QueryGame", "AnswerGame", "QueryPlayer", "AnswerPlayer",
	"ChatAnnounce", "ChatRequest", "QueryJoin", "ConfirmJoin",
	"RejectJoin", "GameOptions", "SignOff", "Go", "LoadGame",
	"Message", "Ping", "ReqScenario", "ReadyToGo", "Connect",
}

func (c Cmd) String() string {
	if int(c) < len(cmdNames) {
		return cmdNames[c]
	}

	return fmt.Sprintf("Cmd(%d)", uint16(c))
}

// ErrFrameOverflow is returned when a packet does not fit in a frame
var ErrFrameOverflow = errors.New("packet does not fit in a frame")

// A Packet is one of the concrete command types below
type Packet interface {
	Cmd() Cmd
	Sender() string
	header() *Header
	encode(w io.Writer)
	decode(r io.Reader)
}

// Header is embedded in every packet and carries the sender name
type Header struct {
	Name string
}

// Sender returns the name of the peer that sent the packet
func (h Header) Sender() string { return h.Name }

func (h *Header) header() *Header { return h }

type QueryGame struct {
	Header
}

type AnswerGame struct {
	Header
	Session  string
	Open     bool
	Versions VersionRange
}

type QueryPlayer struct {
	Header
	Session string
}

type AnswerPlayer struct {
	Header
	Session string
	Color   Color
	Faction Faction
}

// ChatAnnounce advertises a peer that is available to chat.
// It is also the reply to ChatRequest and Ping.
type ChatAnnounce struct {
	Header
	ID    uuid.UUID
	Color Color
}

type ChatRequest struct {
	Header
	ID uuid.UUID
}

type Ping struct {
	Header
	ID uuid.UUID
}

type QueryJoin struct {
	Header
	Session  string
	Color    Color
	Faction  Faction
	Versions VersionRange
	RulesCRC uint32
}

type ConfirmJoin struct {
	Header
	Session string
	Color   Color
	Faction Faction
	Version uint32
}

type RejectJoin struct {
	Header
	Session string
	Reason  RejectReason
}

type GameOptions struct {
	Header
	Session string
	Options Options
}

type SignOff struct {
	Header
	Session string
	Reason  SignOffReason
}

type Go struct {
	Header
	Session string
	Version uint32
}

type LoadGame struct {
	Header
	Session string
	Version uint32
}

type Message struct {
	Header
	Session string
	Color   Color
	Text    string
}

type ReqScenario struct {
	Header
	Session string
}

type ReadyToGo struct {
	Header
	Session string
}

// Connect carries a tie-break during host election
type Connect struct {
	Header
	Seed uint32
	Salt uint32
}

func (*QueryGame) Cmd() Cmd    { return CmdQueryGame }
func (*AnswerGame) Cmd() Cmd   { return CmdAnswerGame }
func (*QueryPlayer) Cmd() Cmd  { return CmdQueryPlayer }
func (*AnswerPlayer) Cmd() Cmd { return CmdAnswerPlayer }
func (*ChatAnnounce) Cmd() Cmd { return CmdChatAnnounce }
func (*ChatRequest) Cmd() Cmd  { return CmdChatRequest }
func (*Ping) Cmd() Cmd         { return CmdPing }
func (*QueryJoin) Cmd() Cmd    { return CmdQueryJoin }
func (*ConfirmJoin) Cmd() Cmd  { return CmdConfirmJoin }
func (*RejectJoin) Cmd() Cmd   { return CmdRejectJoin }
func (*GameOptions) Cmd() Cmd  { return CmdGameOptions }
func (*SignOff) Cmd() Cmd      { return CmdSignOff }
func (*Go) Cmd() Cmd           { return CmdGo }
func (*LoadGame) Cmd() Cmd     { return CmdLoadGame }
func (*Message) Cmd() Cmd      { return CmdMessage }
func (*ReqScenario) Cmd() Cmd  { return CmdReqScenario }
func (*ReadyToGo) Cmd() Cmd    { return CmdReadyToGo }
func (*Connect) Cmd() Cmd      { return CmdConnect }

func (p *QueryGame) encode(w io.Writer) {}
func (p *QueryGame) decode(r io.Reader) {}

func (p *AnswerGame) encode(w io.Writer) {
	WriteName(w, p.Session)
	WriteBool(w, p.Open)
	writeVersions(w, p.Versions)
}

func (p *AnswerGame) decode(r io.Reader) {
	p.Session = ReadName(r)
	p.Open = ReadBool(r)
	p.Versions = readVersions(r)
}

func (p *QueryPlayer) encode(w io.Writer) { WriteName(w, p.Session) }
func (p *QueryPlayer) decode(r io.Reader) { p.Session = ReadName(r) }

func (p *AnswerPlayer) encode(w io.Writer) {
	WriteName(w, p.Session)
	WriteUint8(w, uint8(p.Color))
	WriteUint8(w, uint8(p.Faction))
}

func (p *AnswerPlayer) decode(r io.Reader) {
	p.Session = ReadName(r)
	p.Color = Color(ReadUint8(r))
	p.Faction = Faction(ReadUint8(r))
}

func (p *ChatAnnounce) encode(w io.Writer) {
	w.Write(p.ID[:])
	WriteUint8(w, uint8(p.Color))
}

func (p *ChatAnnounce) decode(r io.Reader) {
	io.ReadFull(r, p.ID[:])
	p.Color = Color(ReadUint8(r))
}

func (p *ChatRequest) encode(w io.Writer) { w.Write(p.ID[:]) }
func (p *ChatRequest) decode(r io.Reader) { io.ReadFull(r, p.ID[:]) }

func (p *Ping) encode(w io.Writer) { w.Write(p.ID[:]) }
func (p *Ping) decode(r io.Reader) { io.ReadFull(r, p.ID[:]) }

func (p *QueryJoin) encode(w io.Writer) {
	WriteName(w, p.Session)
	WriteUint8(w, uint8(p.Color))
	WriteUint8(w, uint8(p.Faction))
	writeVersions(w, p.Versions)
	WriteUint32(w, p.RulesCRC)
}

func (p *QueryJoin) decode(r io.Reader) {
	p.Session = ReadName(r)
	p.Color = Color(ReadUint8(r))
	p.Faction = Faction(ReadUint8(r))
	p.Versions = readVersions(r)
	p.RulesCRC = ReadUint32(r)
}

func (p *ConfirmJoin) encode(w io.Writer) {
	WriteName(w, p.Session)
	WriteUint8(w, uint8(p.Color))
	WriteUint8(w, uint8(p.Faction))
	WriteUint32(w, p.Version)
}

func (p *ConfirmJoin) decode(r io.Reader) {
	p.Session = ReadName(r)
	p.Color = Color(ReadUint8(r))
	p.Faction = Faction(ReadUint8(r))
	p.Version = ReadUint32(r)
}

func (p *RejectJoin) encode(w io.Writer) {
	WriteName(w, p.Session)
	WriteUint8(w, uint8(p.Reason))
}

func (p *RejectJoin) decode(r io.Reader) {
	p.Session = ReadName(r)
	p.Reason = RejectReason(ReadUint8(r))
}

func (p *GameOptions) encode(w io.Writer) {
	WriteName(w, p.Session)
	p.Options.encode(w)
}

func (p *GameOptions) decode(r io.Reader) {
	p.Session = ReadName(r)
	p.Options.decode(r)
}

func (p *SignOff) encode(w io.Writer) {
	WriteName(w, p.Session)
	WriteUint8(w, uint8(p.Reason))
}

func (p *SignOff) decode(r io.Reader) {
	p.Session = ReadName(r)
	p.Reason = SignOffReason(ReadUint8(r))
}

func (p *Go) encode(w io.Writer) {
	WriteName(w, p.Session)
	WriteUint32(w, p.Version)
}

func (p *Go) decode(r io.Reader) {
	p.Session = ReadName(r)
	p.Version = ReadUint32(r)
}

func (p *LoadGame) encode(w io.Writer) {
	WriteName(w, p.Session)
	WriteUint32(w, p.Version)
}

func (p *LoadGame) decode(r io.Reader) {
	p.Session = ReadName(r)
	p.Version = ReadUint32(r)
}

func (p *Message) encode(w io.Writer) {
	WriteName(w, p.Session)
	WriteUint8(w, uint8(p.Color))
	WriteString(w, p.Text)
}

func (p *Message) decode(r io.Reader) {
	p.Session = ReadName(r)
	p.Color = Color(ReadUint8(r))
	p.Text = ReadString(r)
}

func (p *ReqScenario) encode(w io.Writer) { WriteName(w, p.Session) }
func (p *ReqScenario) decode(r io.Reader) { p.Session = ReadName(r) }

func (p *ReadyToGo) encode(w io.Writer) { WriteName(w, p.Session) }
func (p *ReadyToGo) decode(r io.Reader) { p.Session = ReadName(r) }

func (p *Connect) encode(w io.Writer) {
	WriteUint32(w, p.Seed)
	WriteUint32(w, p.Salt)
}

func (p *Connect) decode(r io.Reader) {
	p.Seed = ReadUint32(r)
	p.Salt = ReadUint32(r)
}

func writeVersions(w io.Writer, v VersionRange) {
	WriteUint32(w, v.Min)
	WriteUint32(w, v.Max)
}

func readVersions(r io.Reader) VersionRange {
	return VersionRange{Min: ReadUint32(r), Max: ReadUint32(r)}
}

func newPacket(cmd Cmd) (Packet, error) {
	switch cmd {
	case CmdQueryGame:
		return &QueryGame{}, nil
	case CmdAnswerGame:
		return &AnswerGame{}, nil
	case CmdQueryPlayer:
		return &QueryPlayer{}, nil
	case CmdAnswerPlayer:
		return &AnswerPlayer{}, nil
	case CmdChatAnnounce:
		return &ChatAnnounce{}, nil
	case CmdChatRequest:
		return &ChatRequest{}, nil
	case CmdPing:
		return &Ping{}, nil
	case CmdQueryJoin:
		return &QueryJoin{}, nil
	case CmdConfirmJoin:
		return &ConfirmJoin{}, nil
	case CmdRejectJoin:
		return &RejectJoin{}, nil
	case CmdGameOptions:
		return &GameOptions{}, nil
	case CmdSignOff:
		return &SignOff{}, nil
	case CmdGo:
		return &Go{}, nil
	case CmdLoadGame:
		return &LoadGame{}, nil
	case CmdMessage:
		return &Message{}, nil
	case CmdReqScenario:
		return &ReqScenario{}, nil
	case CmdReadyToGo:
		return &ReadyToGo{}, nil
	case CmdConnect:
		return &Connect{}, nil
	}

	return nil, fmt.Errorf("%w %d", ErrUnknownCommand, uint16(cmd))
}

// encodeFrame builds a FrameSize frame. pkt is nil for ack frames.
func encodeFrame(kind frameKind, id uint32, pkt Packet) ([]byte, error) {
	w := bytes.NewBuffer(make([]byte, 0, FrameSize))

	WriteUint32(w, protoMagic)
	WriteUint8(w, uint8(kind))
	WriteUint32(w, id)

	if pkt != nil {
		WriteUint16(w, uint16(pkt.Cmd()))
		WriteName(w, pkt.Sender())
		pkt.encode(w)
	}

	if w.Len() > FrameSize {
		return nil, fmt.Errorf("%s: %w", pkt.Cmd(), ErrFrameOverflow)
	}

	w.Write(make([]byte, FrameSize-w.Len()))
	return w.Bytes(), nil
}

// decodeFrame parses a frame. The returned Packet is nil for ack frames.
func decodeFrame(data []byte) (frameKind, uint32, Packet, error) {
	if len(data) != FrameSize {
		return 0, 0, nil, ErrShortFrame
	}

	r := bytes.NewReader(data)
	if ReadUint32(r) != protoMagic {
		return 0, 0, nil, ErrBadMagic
	}

	kind := frameKind(ReadUint8(r))
	id := ReadUint32(r)

	switch kind {
	case frameAck:
		return kind, id, nil, nil
	case frameData, frameDataAck:
	default:
		return 0, 0, nil, fmt.Errorf("unknown frame kind %d", kind)
	}

	pkt, err := newPacket(Cmd(ReadUint16(r)))
	if err != nil {
		return 0, 0, nil, err
	}

	name := ReadName(r)
	pkt.decode(r)
	pkt.header().Name = name

	return kind, id, pkt, nil
}
