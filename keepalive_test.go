package cifx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func encodeKeepAliveFrame(comID uint32) []byte {
	payload := make([]byte, KeepAlivePayloadSize)
	encodeComID(payload, comID)
	hdr := TransportHeader{
		Cookie:   TransportCookie,
		Length:   KeepAlivePayloadSize,
		Checksum: CRC16(payload),
		DataType: DataTypeKeepAlive,
	}
	frame := make([]byte, TransportHeaderSize+len(payload))
	hdr.Encode(frame[:TransportHeaderSize])
	copy(frame[TransportHeaderSize:], payload)
	return frame
}

func TestKeepAliveFirstRequestMintsNonce(t *testing.T) {
	m, fc, idx := newTestMarshaller(t)

	m.RxData(idx, encodeKeepAliveFrame(0))

	require.Equal(t, 2, fc.count()) // ack + keep-alive reply
	hdr, payload := fc.last()
	require.Equal(t, DataTypeKeepAlive, hdr.DataType)
	require.Equal(t, StateOK, hdr.State)
	require.Len(t, payload, KeepAlivePayloadSize)
	require.NotEqual(t, uint32(0), decodeComID(payload))
}

func TestKeepAliveEchoMatchesLastComID(t *testing.T) {
	m, fc, idx := newTestMarshaller(t)

	m.RxData(idx, encodeKeepAliveFrame(0))
	_, firstPayload := fc.last()
	comID := decodeComID(firstPayload)

	m.RxData(idx, encodeKeepAliveFrame(comID))
	hdr, payload := fc.last()
	require.Equal(t, StateOK, hdr.State)
	require.Equal(t, comID, decodeComID(payload))
}

func TestKeepAliveMismatchedComIDIsError(t *testing.T) {
	m, fc, idx := newTestMarshaller(t)

	m.RxData(idx, encodeKeepAliveFrame(0))
	m.RxData(idx, encodeKeepAliveFrame(0xDEADBEEF))

	hdr, _ := fc.last()
	require.Equal(t, DataTypeAcknowledge, hdr.DataType)
	require.Equal(t, StateKeepAliveError, hdr.State)
}
