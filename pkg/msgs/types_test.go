package msgs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMessageTypeSlots(t *testing.T) {
	for i := 0; i < 3; i++ {
		idx, ok := SessionTypeAt(i).SlotIndex()
		require.True(t, ok)
		require.Equal(t, i, idx)
		idx, ok = VolumeTypeAt(i).SlotIndex()
		require.True(t, ok)
		require.Equal(t, i, idx)
	}
	_, ok := TypeSettings.SlotIndex()
	require.False(t, ok)
	_, ok = TypeScreen.SlotIndex()
	require.False(t, ok)
	require.False(t, MessageType(0).IsValid())
	require.False(t, MessageType(0x0a).IsValid())
}

func TestParseMessageType(t *testing.T) {
	for _, typ := range BroadcastOrder {
		parsed, err := ParseMessageType(strings.ToLower(typ.String()))
		require.NoError(t, err)
		require.Equal(t, typ, parsed)
	}
	parsed, err := ParseMessageType("volume-curr-change")
	require.NoError(t, err)
	require.Equal(t, TypeVolumeCurrChange, parsed)
	_, err = ParseMessageType("bogus")
	require.Error(t, err)
}

func TestPacketEncodeDecode(t *testing.T) {
	session := &Session{ID: -3, Name: "Speakers", IsDefault: true, Volume: 42}
	pkt, err := Encode(TypeCurrent, session)
	require.NoError(t, err)
	require.Equal(t, byte(TypeCurrent), pkt.Bytes()[0])

	decoded, err := DecodePacket(pkt.Bytes())
	require.NoError(t, err)
	require.Equal(t, TypeCurrent, decoded.Type)
	msg, err := decoded.Decode()
	require.NoError(t, err)
	require.Equal(t, session, msg)
}

func TestEncodeTypeMismatch(t *testing.T) {
	_, err := Encode(TypeSettings, &Session{})
	require.Equal(t, ErrTypeMismatch, err)
	_, err = Encode(MessageType(0x0f), &Session{})
	require.IsType(t, &ErrUnknownType{}, err)
}

func TestDecodePacketErrors(t *testing.T) {
	_, err := DecodePacket(nil)
	require.Equal(t, ErrEmptyPacket, err)
	_, err = DecodePacket([]byte{0x0e, 1, 2})
	require.IsType(t, &ErrUnknownType{}, err)

	pkt, err := DecodePacket([]byte{byte(TypeScreen)})
	require.NoError(t, err)
	msg, err := pkt.Decode()
	require.NoError(t, err)
	require.Equal(t, &Screen{}, msg)
}

func TestSessionNameClipped(t *testing.T) {
	name := strings.Repeat("a", MaxNameLen-1) + "é" + "tail"
	pkt, err := Encode(TypeNext, &Session{Name: name})
	require.NoError(t, err)
	msg, err := pkt.Decode()
	require.NoError(t, err)
	clipped := msg.(*Session).Name
	require.Equal(t, strings.Repeat("a", MaxNameLen-1), clipped)
	require.True(t, len(pkt.Payload) < 0x80)
}
