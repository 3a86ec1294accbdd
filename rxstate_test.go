package cifx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func encodeFrame(dataType DataType, payload []byte) []byte {
	hdr := TransportHeader{
		Cookie:   TransportCookie,
		Length:   uint32(len(payload)),
		Checksum: CRC16(payload),
		DataType: dataType,
	}
	frame := make([]byte, TransportHeaderSize+len(payload))
	hdr.Encode(frame[:TransportHeaderSize])
	copy(frame[TransportHeaderSize:], payload)
	return frame
}

func TestRxQueryServerProducesAckAndReply(t *testing.T) {
	m, fc, idx := newTestMarshaller(t)

	m.RxData(idx, encodeFrame(DataTypeQueryServer, nil))

	require.Equal(t, 2, fc.count())
	ackHdr, _ := fc.out[0], fc.payloads[0]
	require.Equal(t, DataTypeAcknowledge, ackHdr.DataType)
	replyHdr, replyPayload := fc.last()
	require.Equal(t, DataTypeQueryServer, replyHdr.DataType)
	require.NotEmpty(t, replyPayload)
}

func TestRxBadChecksumIsRejected(t *testing.T) {
	m, fc, idx := newTestMarshaller(t)

	frame := encodeFrame(DataTypeQueryServer, []byte{1, 2, 3, 4})
	// Corrupt the checksum field (bytes 8-9) without touching payload bytes.
	frame[8] ^= 0xFF

	m.RxData(idx, frame)

	require.Equal(t, 1, fc.count())
	hdr, _ := fc.last()
	require.Equal(t, StateChecksumError, hdr.State)
}

func TestRxUnknownDataTypeIsRejected(t *testing.T) {
	m, fc, idx := newTestMarshaller(t)

	m.RxData(idx, encodeFrame(DataType(0x9999), nil))

	hdr, _ := fc.last()
	require.Equal(t, DataTypeAcknowledge, hdr.DataType)
	require.Equal(t, StateDataTypeUnknown, hdr.State)
}

func TestRxOversizeFrameIsRejected(t *testing.T) {
	m, fc, idx := newTestMarshaller(t)

	oversized := make([]byte, 512) // connector's Rx buffers are 256 bytes
	m.RxData(idx, encodeFrame(DataTypeMarshaller, oversized))

	hdr, _ := fc.last()
	require.Equal(t, StateBufferOverflowError, hdr.State)
}

func TestRxPoolExhaustionReportsResourceError(t *testing.T) {
	d := newFakeDriver()
	m, err := NewMarshaller(MarshallerParams{Driver: d})
	require.NoError(t, err)

	fc := &fakeConnector{}
	idx, err := m.RegisterConnector(ConnectorParams{
		Conn: fc, RxCount: 1, RxSize: 64, TxCount: 1, TxSize: 64, FrameTimeoutMs: 2000,
	})
	require.NoError(t, err)

	slot := m.slot(idx)
	rxBuf, err := slot.pool.Acquire(BufRx)
	require.NoError(t, err)
	defer slot.pool.Release(rxBuf)

	m.RxData(idx, encodeFrame(DataTypeMarshaller, []byte{1, 2, 3, 4}))

	hdr, _ := fc.last()
	require.Equal(t, StateResourceError, hdr.State)
}

func TestRxQueueEmptyAfterAllDispatched(t *testing.T) {
	m, _, idx := newTestMarshaller(t)

	req := make([]byte, MarshallerHeaderSize)
	h := MarshallerHeader{Handle: EncodeHandle(ObjectClassFactory, 0, 0), MethodID: MethodCFServerVersion}
	h.Encode(req)
	m.RxData(idx, encodeFrame(DataTypeMarshaller, req))

	require.NoError(t, m.DispatchOne())
	require.ErrorIs(t, m.DispatchOne(), ErrQueueEmpty)
}
