package cifx

// Method IDs, exactly as defined by the cifX marshaller frame header this
// gateway is wire-compatible with (§4.5.1).
const (
	MethodCFServerVersion  uint32 = 0x00000000
	MethodCFCreateInstance uint32 = 0x00000001

	MethodDrvOpen            uint32 = 0x00000001
	MethodDrvClose            uint32 = 0x00000002
	MethodDrvGetInfo          uint32 = 0x00000003
	MethodDrvErrorDescr       uint32 = 0x00000004
	MethodDrvEnumBoards       uint32 = 0x00000005
	MethodDrvEnumChannels     uint32 = 0x00000006
	MethodDrvOpenChannel      uint32 = 0x00000008
	MethodDrvOpenSysdev       uint32 = 0x00000009
	MethodDrvRestartDevice    uint32 = 0x00000010

	MethodSysdevClose         uint32 = 0x00000001
	MethodSysdevInfo          uint32 = 0x00000002
	MethodSysdevReset         uint32 = 0x00000003
	MethodSysdevGetMBXState   uint32 = 0x00000004
	MethodSysdevPutPacket     uint32 = 0x00000005
	MethodSysdevGetPacket     uint32 = 0x00000006
	MethodSysdevDownload      uint32 = 0x00000007
	MethodSysdevFindFirstFile uint32 = 0x00000008
	MethodSysdevFindNextFile  uint32 = 0x00000009
	MethodSysdevUpload        uint32 = 0x00000010
	MethodSysdevResetEx       uint32 = 0x00000011

	MethodChanClose             uint32 = 0x00000001
	MethodChanDownload           uint32 = 0x00000002
	MethodChanGetMBXState         uint32 = 0x00000003
	MethodChanPutPacket           uint32 = 0x00000004
	MethodChanGetPacket           uint32 = 0x00000005
	MethodChanGetSendPacket       uint32 = 0x00000006
	MethodChanConfigLock          uint32 = 0x00000007
	MethodChanReset               uint32 = 0x00000008
	MethodChanInfo                uint32 = 0x00000009
	MethodChanWatchdog            uint32 = 0x00000010
	MethodChanHostState           uint32 = 0x00000011
	MethodChanIORead              uint32 = 0x00000012
	MethodChanIOWrite             uint32 = 0x00000013
	MethodChanIOReadSendData      uint32 = 0x00000014
	MethodChanBusState            uint32 = 0x00000015
	MethodChanControlBlock        uint32 = 0x00000016
	MethodChanStatusBlock         uint32 = 0x00000017
	MethodChanExtStatusBlock      uint32 = 0x00000018
	MethodChanUserBlock           uint32 = 0x00000019
	MethodChanFindFirstFile       uint32 = 0x00000020
	MethodChanFindNextFile        uint32 = 0x00000021
	MethodChanUpload              uint32 = 0x00000022
	MethodChanIOInfo              uint32 = 0x00000023
)

// methodCtx bundles what every sub-dispatcher needs: the request handle
// already decoded, the request payload past the marshaller header, and the
// reply area to fill (the same buffer, right after where the marshaller
// header will be re-encoded).
type methodCtx struct {
	m       *Marshaller
	handle  Handle
	req     []byte
	reply   []byte // scratch area sized to the buffer's remaining capacity
}

// dispatchMarshallerFrame is the HandlerFunc registered for
// DataTypeMarshaller (§4.5.1). It decodes the marshaller header, validates
// the handle's object type is known, sub-dispatches to one of the four
// object-type dispatchers, and re-encodes the marshaller header (with the
// resulting error and data_size) into the reply.
func (m *Marshaller) dispatchMarshallerFrame(buf *Buffer) int {
	if buf.UsedLength < MarshallerHeaderSize {
		return encodeMarshallerError(buf, MarshallerHeader{}, MarshInvalidParameter)
	}
	reqHdr := DecodeMarshallerHeader(buf.Payload[:MarshallerHeaderSize])
	reqPayload := buf.Payload[MarshallerHeaderSize:buf.UsedLength]
	reply := buf.Payload[MarshallerHeaderSize:]

	ctx := methodCtx{m: m, handle: reqHdr.Handle, req: reqPayload, reply: reply}

	if !reqHdr.Handle.Valid() && reqHdr.Handle.Type() != ObjectClassFactory {
		return encodeMarshallerError(buf, reqHdr, MarshInvalidHandle)
	}

	var (
		merr     MarshErr
		replyLen int
	)
	switch reqHdr.Handle.Type() {
	case ObjectClassFactory:
		merr, replyLen = classFactoryDispatch(ctx, reqHdr.MethodID)
	case ObjectDriver:
		merr, replyLen = driverDispatch(ctx, reqHdr.MethodID)
	case ObjectSysdevice:
		merr, replyLen = sysdeviceDispatch(ctx, reqHdr.MethodID)
	case ObjectChannel:
		merr, replyLen = channelDispatch(ctx, reqHdr.MethodID)
	default:
		merr, replyLen = MarshInvalidHandle, 0
	}

	replyHdr := MarshallerHeader{
		Handle:   reqHdr.Handle,
		MethodID: reqHdr.MethodID,
		Sequence: ReplySequence(reqHdr.Sequence),
		Error:    uint32(merr),
		DataSize: uint32(replyLen),
	}
	replyHdr.Encode(buf.Payload[:MarshallerHeaderSize])
	return MarshallerHeaderSize + replyLen
}

func encodeMarshallerError(buf *Buffer, reqHdr MarshallerHeader, merr MarshErr) int {
	replyHdr := MarshallerHeader{
		Handle:   reqHdr.Handle,
		MethodID: reqHdr.MethodID,
		Sequence: ReplySequence(reqHdr.Sequence),
		Error:    uint32(merr),
		DataSize: 0,
	}
	replyHdr.Encode(buf.Payload[:MarshallerHeaderSize])
	return MarshallerHeaderSize
}

// board resolves the handle's board entry, yielding MarshInvalidHandle when
// out of range (§8's Handle validation property).
func (c methodCtx) board() (int, *deviceEntry, MarshErr) {
	idx := c.handle.Index()
	e := c.m.devices.entry(idx)
	if e == nil {
		return 0, nil, MarshInvalidHandle
	}
	return int(idx), e, MarshNoError
}

func (c methodCtx) channelSlot() (*channelSlot, MarshErr) {
	boardIdx := c.handle.Index()
	chIdx := c.handle.Subindex()
	cs := c.m.devices.channel(boardIdx, chIdx)
	if cs == nil {
		return nil, MarshInvalidHandle
	}
	return cs, MarshNoError
}
