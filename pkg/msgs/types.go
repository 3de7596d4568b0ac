package msgs

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/golang/protobuf/proto"
)

// MessageType identifies the payload carried by a packet.
type MessageType byte

// MessageTypes
const (
	TypeSettings         MessageType = 0x01
	TypeSessionInfo      MessageType = 0x02
	TypePrevious         MessageType = 0x03
	TypeCurrent          MessageType = 0x04
	TypeNext             MessageType = 0x05
	TypeScreen           MessageType = 0x06
	TypeVolumePrevChange MessageType = 0x07
	TypeVolumeCurrChange MessageType = 0x08
	TypeVolumeNextChange MessageType = 0x09

	maxMessageType = TypeVolumeNextChange
)

var typeNames = map[MessageType]string{
	TypeSettings:         "SETTINGS",
	TypeSessionInfo:      "SESSION_INFO",
	TypePrevious:         "PREVIOUS",
	TypeCurrent:          "CURRENT",
	TypeNext:             "NEXT",
	TypeScreen:           "SCREEN",
	TypeVolumePrevChange: "VOLUME_PREV_CHANGE",
	TypeVolumeCurrChange: "VOLUME_CURR_CHANGE",
	TypeVolumeNextChange: "VOLUME_NEXT_CHANGE",
}

// BroadcastOrder is the order in which the full state is transmitted.
var BroadcastOrder = []MessageType{
	TypeSettings,
	TypeSessionInfo,
	TypePrevious,
	TypeCurrent,
	TypeNext,
	TypeScreen,
}

// String implements fmt.Stringer.
func (t MessageType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TYPE(%#x)", byte(t))
}

// IsValid indicates t is a known message type.
func (t MessageType) IsValid() bool {
	return t >= TypeSettings && t <= maxMessageType
}

// IsSession indicates t carries a Session for one ring slot.
func (t MessageType) IsSession() bool {
	return t >= TypePrevious && t <= TypeNext
}

// IsVolume indicates t carries a VolumeData for one ring slot.
func (t MessageType) IsVolume() bool {
	return t >= TypeVolumePrevChange && t <= TypeVolumeNextChange
}

// SlotIndex maps session and volume types to the ring slot index
// (0 previous, 1 current, 2 next). ok is false for other types.
func (t MessageType) SlotIndex() (index int, ok bool) {
	switch {
	case t.IsSession():
		return int(t - TypePrevious), true
	case t.IsVolume():
		return int(t - TypeVolumePrevChange), true
	}
	return 0, false
}

// ParseMessageType parses a type name like "session_info" or "CURRENT".
func ParseMessageType(name string) (MessageType, error) {
	name = strings.ToUpper(strings.Replace(name, "-", "_", -1))
	for t, n := range typeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown message type %q", name)
}

// ErrUnknownType indicates unknown type id.
type ErrUnknownType struct {
	Type MessageType
}

// Error implements error.
func (e *ErrUnknownType) Error() string {
	return fmt.Sprintf("unknown type: %x", byte(e.Type))
}

var (
	// ErrEmptyPacket indicates a packet without the type byte.
	ErrEmptyPacket = errors.New("empty packet")
	// ErrTypeMismatch indicates the payload doesn't match the message type.
	ErrTypeMismatch = errors.New("payload type mismatch")
)

// NewPayload creates an empty payload for the message type.
func NewPayload(t MessageType) (proto.Message, error) {
	switch {
	case t == TypeSettings:
		return &Settings{}, nil
	case t == TypeSessionInfo:
		return &SessionInfo{}, nil
	case t.IsSession():
		return &Session{}, nil
	case t == TypeScreen:
		return &Screen{}, nil
	case t.IsVolume():
		return &VolumeData{}, nil
	}
	return nil, &ErrUnknownType{Type: t}
}

// Packet is a typed message on the wire.
type Packet struct {
	Type    MessageType
	Payload []byte
}

// Encode creates a Packet from a payload.
func Encode(t MessageType, msg proto.Message) (*Packet, error) {
	expected, err := NewPayload(t)
	if err != nil {
		return nil, err
	}
	if reflect.TypeOf(expected) != reflect.TypeOf(msg) {
		return nil, ErrTypeMismatch
	}
	if s, ok := msg.(*Session); ok {
		msg = s.clipped()
	}
	data, err := proto.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return &Packet{Type: t, Payload: data}, nil
}

// Bytes returns encoded bytes for sending.
func (p *Packet) Bytes() []byte {
	b := make([]byte, len(p.Payload)+1)
	b[0] = byte(p.Type)
	copy(b[1:], p.Payload)
	return b
}

// Decode decodes the payload into the actual message.
func (p *Packet) Decode() (proto.Message, error) {
	msg, err := NewPayload(p.Type)
	if err != nil {
		return nil, err
	}
	if err = proto.Unmarshal(p.Payload, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// DecodePacket decodes bytes into Packet.
func DecodePacket(data []byte) (*Packet, error) {
	if len(data) == 0 {
		return nil, ErrEmptyPacket
	}
	pkt := &Packet{Type: MessageType(data[0])}
	if !pkt.Type.IsValid() {
		return nil, &ErrUnknownType{Type: pkt.Type}
	}
	if len(data) > 1 {
		pkt.Payload = append([]byte(nil), data[1:]...)
	}
	return pkt, nil
}

// SessionTypeAt returns the session message type of a ring slot.
func SessionTypeAt(index int) MessageType {
	return TypePrevious + MessageType(index)
}

// VolumeTypeAt returns the volume message type of a ring slot.
func VolumeTypeAt(index int) MessageType {
	return TypeVolumePrevChange + MessageType(index)
}
