package cifx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarshallerHeaderRoundTrip(t *testing.T) {
	h := MarshallerHeader{
		Handle:   EncodeHandle(ObjectChannel, 1, 3),
		MethodID: MethodChanPutPacket,
		Sequence: (5 << sequenceNumberShift) | SequenceRequestBit,
		Error:    uint32(MarshNoError),
		DataSize: 16,
	}
	var buf [MarshallerHeaderSize]byte
	h.Encode(buf[:])

	got := DecodeMarshallerHeader(buf[:])
	require.Equal(t, h, got)
}

func TestHandleEncoding(t *testing.T) {
	h := EncodeHandle(ObjectChannel, 4, 9)
	require.True(t, h.Valid())
	require.Equal(t, ObjectChannel, h.Type())
	require.Equal(t, uint8(4), h.Index())
	require.Equal(t, uint8(9), h.Subindex())
}

func TestSystemChannelSubindex(t *testing.T) {
	h := EncodeHandle(ObjectSysdevice, 0, SystemChannelSubindex)
	require.Equal(t, uint8(SystemChannelSubindex), h.Subindex())
}

func TestReplySequencePreservesNumberClearsRequestBit(t *testing.T) {
	req := (uint32(12) << sequenceNumberShift) | SequenceRequestBit | SequenceSupportedBit
	reply := ReplySequence(req)
	require.Equal(t, uint32(0), reply&SequenceRequestBit)
	require.Equal(t, req&^SequenceRequestBit, reply)
}
