package cifx

import "encoding/binary"

// channelDispatch services the Channel object's methods (§4.5.1), the
// largest of the four method tables. Most of the optional methods are
// probed against a capability interface on the underlying Driver and report
// MarshFunctionNotAvailable when unimplemented, mirroring a null
// function-table entry in the reference driver (§6.3).
//
// original_source's HandleChannelCommand gates every method on
// ulOpenCnt != 0 before its own switch; resolving the slot and applying that
// gate once here, rather than in each handler, keeps it from being missed
// by new methods. Close is exempted: it has its own distinct
// already-closed handling.
func channelDispatch(c methodCtx, method uint32) (MarshErr, int) {
	slot, merr := c.channelSlot()
	if merr != MarshNoError {
		return merr, 0
	}
	if method == MethodChanClose {
		return chanClose(c, slot)
	}
	if slot.OpenCount == 0 {
		return MarshChannelNotInitialized, 0
	}
	switch method {
	case MethodChanGetMBXState:
		return chanGetMBXState(c, slot)
	case MethodChanPutPacket:
		return chanPutPacket(c, slot)
	case MethodChanGetPacket:
		return chanGetPacket(c, slot)
	case MethodChanGetSendPacket:
		return chanGetSendPacket(c, slot)
	case MethodChanConfigLock:
		return chanConfigLock(c, slot)
	case MethodChanReset:
		return chanReset(c, slot)
	case MethodChanInfo:
		return chanInfo(c, slot)
	case MethodChanWatchdog:
		return chanWatchdog(c, slot)
	case MethodChanHostState:
		return chanHostState(c, slot)
	case MethodChanIOInfo:
		return chanIOInfo(c, slot)
	case MethodChanIORead:
		return chanIORead(c, slot)
	case MethodChanIOWrite:
		return chanIOWrite(c, slot)
	case MethodChanIOReadSendData:
		return chanIOReadSendData(c, slot)
	case MethodChanBusState:
		return chanBusState(c, slot)
	case MethodChanControlBlock:
		return chanBlock(c, slot, blockControl)
	case MethodChanStatusBlock:
		return chanBlock(c, slot, blockStatus)
	case MethodChanExtStatusBlock:
		return chanBlock(c, slot, blockExtStatus)
	case MethodChanFindFirstFile, MethodChanFindNextFile:
		return chanFindFile(c, slot, method == MethodChanFindNextFile)
	case MethodChanUserBlock, MethodChanDownload, MethodChanUpload:
		return MarshFunctionNotAvailable, 0
	default:
		return MarshInvalidCommand, 0
	}
}

func chanClose(c methodCtx, slot *channelSlot) (MarshErr, int) {
	if slot.OpenCount == 0 {
		return MarshNotOpened, 0
	}
	slot.OpenCount--
	if slot.OpenCount == 0 {
		_ = c.m.driver.ChannelClose(slot.LibHandle)
	}
	return MarshNoError, 0
}

func chanGetMBXState(c methodCtx, slot *channelSlot) (MarshErr, int) {
	send, recv, status := c.m.driver.ChannelGetMBXState(slot.LibHandle)
	if status != DriverOK {
		return MarshInvalidParameter, 0
	}
	if len(c.reply) < 8 {
		return MarshBufferTooShort, 0
	}
	binary.LittleEndian.PutUint32(c.reply[0:4], send)
	binary.LittleEndian.PutUint32(c.reply[4:8], recv)
	return MarshNoError, 8
}

func chanPutPacket(c methodCtx, slot *channelSlot) (MarshErr, int) {
	if len(c.req) < 4 {
		return MarshInvalidParameter, 0
	}
	timeoutMs := binary.LittleEndian.Uint32(c.req[0:4])
	if status := c.m.driver.ChannelPutPacket(slot.LibHandle, c.req[4:], timeoutMs); status != DriverOK {
		return MarshInvalidParameter, 0
	}
	return MarshNoError, 0
}

func chanGetPacket(c methodCtx, slot *channelSlot) (MarshErr, int) {
	if len(c.req) < 8 {
		return MarshInvalidParameter, 0
	}
	maxLen := binary.LittleEndian.Uint32(c.req[0:4])
	timeoutMs := binary.LittleEndian.Uint32(c.req[4:8])
	packet, status := c.m.driver.ChannelGetPacket(slot.LibHandle, maxLen, timeoutMs)
	if status != DriverOK {
		return MarshInvalidParameter, 0
	}
	n := copy(c.reply, packet)
	return MarshNoError, n
}

func chanGetSendPacket(c methodCtx, slot *channelSlot) (MarshErr, int) {
	sp, ok := c.m.driver.(ChannelSendPacketer)
	if !ok {
		return MarshFunctionNotAvailable, 0
	}
	if len(c.req) < 4 {
		return MarshInvalidParameter, 0
	}
	maxLen := binary.LittleEndian.Uint32(c.req[0:4])
	packet, status := sp.ChannelGetSendPacket(slot.LibHandle, maxLen)
	if status != DriverOK {
		return MarshInvalidParameter, 0
	}
	n := copy(c.reply, packet)
	return MarshNoError, n
}

func chanConfigLock(c methodCtx, slot *channelSlot) (MarshErr, int) {
	cl, ok := c.m.driver.(ChannelConfigLocker)
	if !ok {
		return MarshFunctionNotAvailable, 0
	}
	if len(c.req) < 5 {
		return MarshInvalidParameter, 0
	}
	lock := c.req[0] != 0
	timeoutMs := binary.LittleEndian.Uint32(c.req[1:5])
	if status := cl.ChannelConfigLock(slot.LibHandle, lock, timeoutMs); status != DriverOK {
		return MarshInvalidParameter, 0
	}
	return MarshNoError, 0
}

func chanReset(c methodCtx, slot *channelSlot) (MarshErr, int) {
	r, ok := c.m.driver.(ChannelResetter)
	if !ok {
		return MarshFunctionNotAvailable, 0
	}
	var timeoutMs uint32
	if len(c.req) >= 4 {
		timeoutMs = binary.LittleEndian.Uint32(c.req[0:4])
	}
	if status := r.ChannelReset(slot.LibHandle, timeoutMs); status != DriverOK {
		return MarshInvalidParameter, 0
	}
	return MarshNoError, 0
}

func chanInfo(c methodCtx, slot *channelSlot) (MarshErr, int) {
	ii, ok := c.m.driver.(ChannelInfoer)
	if !ok {
		return MarshFunctionNotAvailable, 0
	}
	data, status := ii.ChannelInfo(slot.LibHandle)
	if status != DriverOK {
		return MarshInvalidParameter, 0
	}
	n := copy(c.reply, data)
	return MarshNoError, n
}

func chanWatchdog(c methodCtx, slot *channelSlot) (MarshErr, int) {
	w, ok := c.m.driver.(ChannelWatchdogger)
	if !ok {
		return MarshFunctionNotAvailable, 0
	}
	if len(c.req) < 4 {
		return MarshInvalidParameter, 0
	}
	mode := binary.LittleEndian.Uint32(c.req[0:4])
	val, status := w.ChannelWatchdog(slot.LibHandle, mode)
	if status != DriverOK {
		return MarshInvalidParameter, 0
	}
	if len(c.reply) < 4 {
		return MarshBufferTooShort, 0
	}
	binary.LittleEndian.PutUint32(c.reply[0:4], val)
	return MarshNoError, 4
}

func chanHostState(c methodCtx, slot *channelSlot) (MarshErr, int) {
	hs, ok := c.m.driver.(ChannelHostStater)
	if !ok {
		return MarshFunctionNotAvailable, 0
	}
	if len(c.req) < 5 {
		return MarshInvalidParameter, 0
	}
	set := c.req[0] != 0
	state := binary.LittleEndian.Uint32(c.req[1:5])
	val, status := hs.ChannelHostState(slot.LibHandle, set, state)
	if status != DriverOK {
		return MarshInvalidParameter, 0
	}
	if len(c.reply) < 4 {
		return MarshBufferTooShort, 0
	}
	binary.LittleEndian.PutUint32(c.reply[0:4], val)
	return MarshNoError, 4
}

func chanIOInfo(c methodCtx, slot *channelSlot) (MarshErr, int) {
	io, ok := c.m.driver.(ChannelIOer)
	if !ok {
		return MarshFunctionNotAvailable, 0
	}
	if len(c.req) < 4 {
		return MarshInvalidParameter, 0
	}
	area := binary.LittleEndian.Uint32(c.req[0:4])
	info, status := io.ChannelIOInfo(slot.LibHandle, area)
	if status != DriverOK {
		return MarshInvalidParameter, 0
	}
	if len(c.reply) < 8 {
		return MarshBufferTooShort, 0
	}
	binary.LittleEndian.PutUint32(c.reply[0:4], info.InputAreaSize)
	binary.LittleEndian.PutUint32(c.reply[4:8], info.OutputAreaSize)
	return MarshNoError, 8
}

func chanIORead(c methodCtx, slot *channelSlot) (MarshErr, int) {
	io, ok := c.m.driver.(ChannelIOer)
	if !ok {
		return MarshFunctionNotAvailable, 0
	}
	if len(c.req) < 12 {
		return MarshInvalidParameter, 0
	}
	area := binary.LittleEndian.Uint32(c.req[0:4])
	offset := binary.LittleEndian.Uint32(c.req[4:8])
	length := binary.LittleEndian.Uint32(c.req[8:12])
	data, status := io.ChannelIORead(slot.LibHandle, area, offset, length)
	if status != DriverOK {
		return MarshInvalidParameter, 0
	}
	n := copy(c.reply, data)
	return MarshNoError, n
}

func chanIOWrite(c methodCtx, slot *channelSlot) (MarshErr, int) {
	io, ok := c.m.driver.(ChannelIOer)
	if !ok {
		return MarshFunctionNotAvailable, 0
	}
	if len(c.req) < 8 {
		return MarshInvalidParameter, 0
	}
	area := binary.LittleEndian.Uint32(c.req[0:4])
	offset := binary.LittleEndian.Uint32(c.req[4:8])
	if status := io.ChannelIOWrite(slot.LibHandle, area, offset, c.req[8:]); status != DriverOK {
		return MarshInvalidParameter, 0
	}
	return MarshNoError, 0
}

func chanIOReadSendData(c methodCtx, slot *channelSlot) (MarshErr, int) {
	io, ok := c.m.driver.(ChannelIOer)
	if !ok {
		return MarshFunctionNotAvailable, 0
	}
	if len(c.req) < 12 {
		return MarshInvalidParameter, 0
	}
	area := binary.LittleEndian.Uint32(c.req[0:4])
	offset := binary.LittleEndian.Uint32(c.req[4:8])
	length := binary.LittleEndian.Uint32(c.req[8:12])
	data, status := io.ChannelIOReadSendData(slot.LibHandle, area, offset, length)
	if status != DriverOK {
		return MarshInvalidParameter, 0
	}
	n := copy(c.reply, data)
	return MarshNoError, n
}

func chanBusState(c methodCtx, slot *channelSlot) (MarshErr, int) {
	bs, ok := c.m.driver.(ChannelBusStater)
	if !ok {
		return MarshFunctionNotAvailable, 0
	}
	if len(c.req) < 1 {
		return MarshInvalidParameter, 0
	}
	on := c.req[0] != 0
	val, status := bs.ChannelBusState(slot.LibHandle, on)
	if status != DriverOK {
		return MarshInvalidParameter, 0
	}
	if len(c.reply) < 4 {
		return MarshBufferTooShort, 0
	}
	binary.LittleEndian.PutUint32(c.reply[0:4], val)
	return MarshNoError, 4
}

type blockKind int

const (
	blockControl blockKind = iota
	blockStatus
	blockExtStatus
)

// chanBlock services ControlBlock/StatusBlock/ExtStatusBlock, all three of
// which share the reference driver's read-or-write-one-buffer shape
// (CifXTransport.c's ChannelReadWriteBlock, per original_source).
func chanBlock(c methodCtx, slot *channelSlot, kind blockKind) (MarshErr, int) {
	ba, ok := c.m.driver.(ChannelBlockAccessor)
	if !ok {
		return MarshFunctionNotAvailable, 0
	}
	if len(c.req) < 1 {
		return MarshInvalidParameter, 0
	}
	read := c.req[0] != 0
	var writeData []byte
	if !read {
		writeData = c.req[1:]
	}

	var (
		data   []byte
		status DriverStatus
	)
	switch kind {
	case blockControl:
		data, status = ba.ChannelControlBlock(slot.LibHandle, read, writeData)
	case blockStatus:
		data, status = ba.ChannelStatusBlock(slot.LibHandle, read, writeData)
	case blockExtStatus:
		data, status = ba.ChannelExtendedStatusBlock(slot.LibHandle, read, writeData)
	}
	if status != DriverOK {
		return MarshInvalidParameter, 0
	}
	if !read {
		return MarshNoError, 0
	}
	n := copy(c.reply, data)
	return MarshNoError, n
}

func chanFindFile(c methodCtx, slot *channelSlot, next bool) (MarshErr, int) {
	ff, ok := c.m.driver.(ChannelFileFinder)
	if !ok {
		return MarshFunctionNotAvailable, 0
	}
	var (
		info   FileInfo
		found  bool
		status DriverStatus
	)
	if next {
		if len(c.req) < 4 {
			return MarshInvalidParameter, 0
		}
		info, found, status = ff.ChannelFindNextFile(slot.LibHandle, binary.LittleEndian.Uint32(c.req[0:4]))
	} else {
		info, found, status = ff.ChannelFindFirstFile(slot.LibHandle, trimName(c.req))
	}
	if status != DriverOK {
		return MarshInvalidParameter, 0
	}
	if !found {
		return MarshInvalidParameter, 0
	}
	const nameLen = 32
	if len(c.reply) < nameLen+4 {
		return MarshBufferTooShort, 0
	}
	copy(c.reply[:nameLen], padName(info.Name, nameLen))
	binary.LittleEndian.PutUint32(c.reply[nameLen:nameLen+4], info.Size)
	return MarshNoError, nameLen + 4
}
