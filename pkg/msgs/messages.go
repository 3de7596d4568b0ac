package msgs

import (
	"fmt"
	"unicode/utf8"

	"github.com/golang/protobuf/proto"
)

// MaxNameLen is the maximum number of bytes of a session name on the wire.
const MaxNameLen = 36

// DisplayMode selects the list of sessions the device navigates.
type DisplayMode int32

// DisplayModes
const (
	ModeOutput      DisplayMode = 0
	ModeInput       DisplayMode = 1
	ModeApplication DisplayMode = 2
	ModeGame        DisplayMode = 3
)

// String implements fmt.Stringer.
func (m DisplayMode) String() string {
	switch m {
	case ModeOutput:
		return "OUTPUT"
	case ModeInput:
		return "INPUT"
	case ModeApplication:
		return "APPLICATION"
	case ModeGame:
		return "GAME"
	}
	return fmt.Sprintf("MODE(%d)", int32(m))
}

// ScreenID identifies the screen shown by the device.
type ScreenID int32

// ScreenIDs
const (
	ScreenSplash     ScreenID = 0
	ScreenInfo       ScreenID = 1
	ScreenNavigate   ScreenID = 2
	ScreenEdit       ScreenID = 3
	ScreenGameSelect ScreenID = 4
)

// Settings is the device configuration.
type Settings struct {
	ContinuousScroll       bool   `protobuf:"varint,1,opt,name=continuous_scroll,proto3" json:"continuous_scroll,omitempty"`
	SleepWhenInactive      bool   `protobuf:"varint,2,opt,name=sleep_when_inactive,proto3" json:"sleep_when_inactive,omitempty"`
	SleepAfterSeconds      uint32 `protobuf:"varint,3,opt,name=sleep_after_seconds,proto3" json:"sleep_after_seconds,omitempty"`
	AccelerationPercentage uint32 `protobuf:"varint,4,opt,name=acceleration_percentage,proto3" json:"acceleration_percentage,omitempty"`
	VolumeStep             uint32 `protobuf:"varint,5,opt,name=volume_step,proto3" json:"volume_step,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *Settings) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Settings) Reset() { *m = Settings{} }

// String implements proto.Message.
func (m *Settings) String() string { return proto.CompactTextString(m) }

// SessionInfo tracks which session is focused.
type SessionInfo struct {
	Mode    DisplayMode `protobuf:"varint,1,opt,name=mode,proto3" json:"mode,omitempty"`
	Current uint32      `protobuf:"varint,2,opt,name=current,proto3" json:"current,omitempty"`
	Count   uint32      `protobuf:"varint,3,opt,name=count,proto3" json:"count,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *SessionInfo) ProtoMessage() {}

// Reset implements proto.Message.
func (m *SessionInfo) Reset() { *m = SessionInfo{} }

// String implements proto.Message.
func (m *SessionInfo) String() string { return proto.CompactTextString(m) }

// Session is one audio session (device or application) shown on the device.
// The zero value is the placeholder for an empty slot.
type Session struct {
	ID        int32  `protobuf:"varint,1,opt,name=id,proto3" json:"id,omitempty"`
	Name      string `protobuf:"bytes,2,opt,name=name,proto3" json:"name,omitempty"`
	IsDefault bool   `protobuf:"varint,3,opt,name=is_default,proto3" json:"is_default,omitempty"`
	Volume    uint32 `protobuf:"varint,4,opt,name=volume,proto3" json:"volume,omitempty"`
	IsMuted   bool   `protobuf:"varint,5,opt,name=is_muted,proto3" json:"is_muted,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *Session) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Session) Reset() { *m = Session{} }

// String implements proto.Message.
func (m *Session) String() string { return proto.CompactTextString(m) }

// IsEmpty indicates the session is a placeholder.
func (m *Session) IsEmpty() bool {
	return *m == Session{}
}

// VolumeData extracts the volume state.
func (m *Session) VolumeData() *VolumeData {
	return &VolumeData{ID: m.ID, Volume: m.Volume, IsMuted: m.IsMuted}
}

// clipped returns a copy with Name cut to MaxNameLen on a rune boundary.
func (m *Session) clipped() *Session {
	if len(m.Name) <= MaxNameLen {
		return m
	}
	s := *m
	n := MaxNameLen
	for n > 0 && !utf8.RuneStart(s.Name[n]) {
		n--
	}
	s.Name = s.Name[:n]
	return &s
}

// VolumeData is the volume state of one session.
type VolumeData struct {
	ID      int32  `protobuf:"varint,1,opt,name=id,proto3" json:"id,omitempty"`
	Volume  uint32 `protobuf:"varint,2,opt,name=volume,proto3" json:"volume,omitempty"`
	IsMuted bool   `protobuf:"varint,3,opt,name=is_muted,proto3" json:"is_muted,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *VolumeData) ProtoMessage() {}

// Reset implements proto.Message.
func (m *VolumeData) Reset() { *m = VolumeData{} }

// String implements proto.Message.
func (m *VolumeData) String() string { return proto.CompactTextString(m) }

// Screen is the display state of the device.
type Screen struct {
	ID   ScreenID    `protobuf:"varint,1,opt,name=id,proto3" json:"id,omitempty"`
	Mode DisplayMode `protobuf:"varint,2,opt,name=mode,proto3" json:"mode,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *Screen) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Screen) Reset() { *m = Screen{} }

// String implements proto.Message.
func (m *Screen) String() string { return proto.CompactTextString(m) }
