package cifx

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func encodeMarshallerRequest(handle Handle, method uint32, payload []byte) []byte {
	body := make([]byte, MarshallerHeaderSize+len(payload))
	h := MarshallerHeader{Handle: handle, MethodID: method, Sequence: SequenceRequestBit, DataSize: uint32(len(payload))}
	h.Encode(body[:MarshallerHeaderSize])
	copy(body[MarshallerHeaderSize:], payload)
	return encodeFrame(DataTypeMarshaller, body)
}

// roundTrip feeds one marshaller request through Rx, dispatches it, and
// returns the decoded marshaller reply header plus its payload.
func roundTrip(t *testing.T, m *Marshaller, fc *fakeConnector, idx int, handle Handle, method uint32, payload []byte) (MarshallerHeader, []byte) {
	t.Helper()
	before := fc.count()
	m.RxData(idx, encodeMarshallerRequest(handle, method, payload))
	require.NoError(t, m.DispatchOne())
	require.Equal(t, before+2, fc.count()) // ack, then the dispatched reply

	_, replyFrame := fc.last()
	replyHdr := DecodeMarshallerHeader(replyFrame[:MarshallerHeaderSize])
	return replyHdr, replyFrame[MarshallerHeaderSize:]
}

func TestDispatchCreateInstanceThenOpenChannelThenPutPacket(t *testing.T) {
	m, fc, idx := newTestMarshaller(t)

	cfHandle := EncodeHandle(ObjectClassFactory, 0, 0)
	createPayload := []byte{byte(ObjectDriver)}
	replyHdr, replyPayload := roundTrip(t, m, fc, idx, cfHandle, MethodCFCreateInstance, createPayload)
	require.Equal(t, MarshNoError, MarshErr(replyHdr.Error))
	require.Len(t, replyPayload, 4)
	driverHandle := Handle(binary.LittleEndian.Uint32(replyPayload[0:4]))
	require.True(t, driverHandle.Valid())
	require.Equal(t, ObjectDriver, driverHandle.Type())

	openPayload := make([]byte, 33)
	copy(openPayload[:32], "cifX0")
	openPayload[32] = 0 // channel index
	replyHdr, replyPayload = roundTrip(t, m, fc, idx, driverHandle, MethodDrvOpenChannel, openPayload)
	require.Equal(t, MarshNoError, MarshErr(replyHdr.Error))
	require.Len(t, replyPayload, 4)
	chanHandle := Handle(binary.LittleEndian.Uint32(replyPayload[0:4]))
	require.True(t, chanHandle.Valid())
	require.Equal(t, ObjectChannel, chanHandle.Type())

	putPayload := make([]byte, 4+3)
	binary.LittleEndian.PutUint32(putPayload[0:4], 100) // timeoutMs
	copy(putPayload[4:], []byte{0xAA, 0xBB, 0xCC})
	replyHdr, _ = roundTrip(t, m, fc, idx, chanHandle, MethodChanPutPacket, putPayload)
	require.Equal(t, MarshNoError, MarshErr(replyHdr.Error))
}

func TestDispatchOpenChannelUnknownBoardIsInvalidParameter(t *testing.T) {
	m, fc, idx := newTestMarshaller(t)

	driverHandle := EncodeHandle(ObjectDriver, 0, SystemChannelSubindex)
	openPayload := make([]byte, 33)
	copy(openPayload[:32], "not-a-real-board")
	replyHdr, _ := roundTrip(t, m, fc, idx, driverHandle, MethodDrvOpenChannel, openPayload)
	require.Equal(t, MarshInvalidParameter, MarshErr(replyHdr.Error))
}

func TestDispatchChannelMethodWithoutOpenIsNotInitialized(t *testing.T) {
	m, fc, idx := newTestMarshaller(t)

	chanHandle := EncodeHandle(ObjectChannel, 0, 0)
	replyHdr, _ := roundTrip(t, m, fc, idx, chanHandle, MethodChanGetMBXState, nil)
	require.Equal(t, MarshChannelNotInitialized, MarshErr(replyHdr.Error))
}

func TestDispatchUnknownHandleIndexIsInvalidHandle(t *testing.T) {
	m, fc, idx := newTestMarshaller(t)

	badHandle := EncodeHandle(ObjectChannel, 200, 0)
	replyHdr, _ := roundTrip(t, m, fc, idx, badHandle, MethodChanGetMBXState, nil)
	require.Equal(t, MarshInvalidHandle, MarshErr(replyHdr.Error))
}

func TestDispatchChannelCapabilityMethodWithoutOpenIsNotInitialized(t *testing.T) {
	d := newResettableFakeDriver()
	m, fc, idx := newTestMarshallerWithDriver(t, d)

	chanHandle := EncodeHandle(ObjectChannel, 0, 0)
	replyHdr, _ := roundTrip(t, m, fc, idx, chanHandle, MethodChanReset, nil)
	require.Equal(t, MarshChannelNotInitialized, MarshErr(replyHdr.Error))
	require.Equal(t, 0, d.resets)
}

func TestDispatchUnsupportedCapabilityReturnsFunctionNotAvailable(t *testing.T) {
	m, fc, idx := newTestMarshaller(t)

	driverHandle := EncodeHandle(ObjectDriver, 0, SystemChannelSubindex)
	replyHdr, _ := roundTrip(t, m, fc, idx, driverHandle, MethodDrvRestartDevice, []byte{0})
	require.Equal(t, MarshFunctionNotAvailable, MarshErr(replyHdr.Error))
}
