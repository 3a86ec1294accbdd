package cifx

import "encoding/binary"

// sysdeviceDispatch services the Sysdevice object's methods (§4.5.1).
// Original_source's HandleSysdeviceCommand in CifXTransport.c applies the
// "open-count zero -> CIFX_DRV_CHANNEL_NOT_INITIALIZED"-shaped gate once,
// before the whole method switch, so every method except Close sees it
// uniformly; Close is exempted here since it has its own distinct
// already-closed handling.
func sysdeviceDispatch(c methodCtx, method uint32) (MarshErr, int) {
	_, entry, merr := c.board()
	if merr != MarshNoError {
		return merr, 0
	}
	if method == MethodSysdevClose {
		return sysClose(c, entry)
	}
	if entry.SysdeviceOpenCount == 0 {
		return MarshChannelNotInitialized, 0
	}
	switch method {
	case MethodSysdevInfo:
		return sysInfo(c, entry)
	case MethodSysdevReset, MethodSysdevResetEx:
		return sysReset(c, entry, method == MethodSysdevResetEx)
	case MethodSysdevGetMBXState:
		return sysGetMBXState(c, entry)
	case MethodSysdevPutPacket:
		return sysPutPacket(c, entry)
	case MethodSysdevGetPacket:
		return sysGetPacket(c, entry)
	case MethodSysdevFindFirstFile, MethodSysdevFindNextFile:
		return sysFindFile(c, entry, method == MethodSysdevFindNextFile)
	case MethodSysdevDownload, MethodSysdevUpload:
		// Bulk firmware transfer is outside this gateway's scope; a real
		// driver implementation would stream through PutPacket/GetPacket
		// instead (SPEC_FULL.md's supplemented-features note).
		return MarshFunctionNotAvailable, 0
	default:
		return MarshInvalidCommand, 0
	}
}

func sysClose(c methodCtx, entry *deviceEntry) (MarshErr, int) {
	if entry.SysdeviceOpenCount == 0 {
		return MarshNotOpened, 0
	}
	entry.SysdeviceOpenCount--
	if entry.SysdeviceOpenCount == 0 {
		_ = c.m.driver.SysdeviceClose(entry.SysdeviceLibHandle)
	}
	return MarshNoError, 0
}

func sysInfo(c methodCtx, entry *deviceEntry) (MarshErr, int) {
	if si, ok := c.m.driver.(SysdeviceInfoer); ok {
		data, status := si.SysdeviceInfo(entry.SysdeviceLibHandle)
		if status != DriverOK {
			return MarshInvalidParameter, 0
		}
		n := copy(c.reply, data)
		return MarshNoError, n
	}
	const nameLen = 32
	if len(c.reply) < nameLen {
		return MarshBufferTooShort, 0
	}
	copy(c.reply[:nameLen], padName(entry.Info.Name, nameLen))
	return MarshNoError, nameLen
}

func sysReset(c methodCtx, entry *deviceEntry, extended bool) (MarshErr, int) {
	r, ok := c.m.driver.(SysdeviceResetter)
	if !ok {
		return MarshFunctionNotAvailable, 0
	}
	var mode, timeoutMs uint32
	if len(c.req) >= 8 {
		mode = binary.LittleEndian.Uint32(c.req[0:4])
		timeoutMs = binary.LittleEndian.Uint32(c.req[4:8])
	}
	if status := r.SysdeviceReset(entry.SysdeviceLibHandle, extended, mode, timeoutMs); status != DriverOK {
		return MarshInvalidParameter, 0
	}
	return MarshNoError, 0
}

func sysGetMBXState(c methodCtx, entry *deviceEntry) (MarshErr, int) {
	send, recv, status := c.m.driver.SysdeviceGetMBXState(entry.SysdeviceLibHandle)
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

func sysPutPacket(c methodCtx, entry *deviceEntry) (MarshErr, int) {
	if len(c.req) < 4 {
		return MarshInvalidParameter, 0
	}
	timeoutMs := binary.LittleEndian.Uint32(c.req[0:4])
	if status := c.m.driver.SysdevicePutPacket(entry.SysdeviceLibHandle, c.req[4:], timeoutMs); status != DriverOK {
		return MarshInvalidParameter, 0
	}
	return MarshNoError, 0
}

func sysGetPacket(c methodCtx, entry *deviceEntry) (MarshErr, int) {
	if len(c.req) < 8 {
		return MarshInvalidParameter, 0
	}
	maxLen := binary.LittleEndian.Uint32(c.req[0:4])
	timeoutMs := binary.LittleEndian.Uint32(c.req[4:8])
	packet, status := c.m.driver.SysdeviceGetPacket(entry.SysdeviceLibHandle, maxLen, timeoutMs)
	if status != DriverOK {
		return MarshInvalidParameter, 0
	}
	n := copy(c.reply, packet)
	return MarshNoError, n
}

func sysFindFile(c methodCtx, entry *deviceEntry, next bool) (MarshErr, int) {
	ff, ok := c.m.driver.(SysdeviceFileFinder)
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
		info, found, status = ff.SysdeviceFindNextFile(entry.SysdeviceLibHandle, binary.LittleEndian.Uint32(c.req[0:4]))
	} else {
		info, found, status = ff.SysdeviceFindFirstFile(entry.SysdeviceLibHandle, trimName(c.req))
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
