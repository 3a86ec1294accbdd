package cifx

import (
	"encoding/binary"
	"sync/atomic"
)

// driverDispatch services the Driver object's methods (§4.5.1). The
// marshaller keeps exactly one live Driver, already Opened by
// buildDeviceTable at construction time; Open/Close here only adjust a
// client-visible reference count rather than re-touching the library.
func driverDispatch(c methodCtx, method uint32) (MarshErr, int) {
	switch method {
	case MethodDrvOpen:
		return drvOpen(c)
	case MethodDrvClose:
		return drvClose(c)
	case MethodDrvGetInfo:
		return drvGetInfo(c)
	case MethodDrvErrorDescr:
		return drvErrorDescr(c)
	case MethodDrvEnumBoards:
		return drvEnumBoards(c)
	case MethodDrvEnumChannels:
		return drvEnumChannels(c)
	case MethodDrvOpenChannel:
		return drvOpenChannel(c)
	case MethodDrvOpenSysdev:
		return drvOpenSysdev(c)
	case MethodDrvRestartDevice:
		return drvRestartDevice(c)
	default:
		return MarshInvalidCommand, 0
	}
}

func drvOpen(c methodCtx) (MarshErr, int) {
	atomic.AddUint32(&c.m.driverRefs, 1)
	return MarshNoError, 0
}

func drvClose(c methodCtx) (MarshErr, int) {
	atomic.AddUint32(&c.m.driverRefs, ^uint32(0))
	return MarshNoError, 0
}

// drvGetInfo reports the driver's own build information, distinct from
// Sysdevice.Info which reports a single board (§4.9). Reuses board 0's
// Name as the driver library name when at least one board is present.
func drvGetInfo(c methodCtx) (MarshErr, int) {
	const nameLen = 32
	if len(c.reply) < nameLen {
		return MarshBufferTooShort, 0
	}
	name := "cifX Driver"
	if e := c.m.devices.entry(0); e != nil {
		name = e.Info.Name
	}
	copy(c.reply[:nameLen], padName(name, nameLen))
	return MarshNoError, nameLen
}

// drvErrorDescr returns a fixed human-readable string regardless of the
// requested error code: the gateway does not carry the reference driver's
// full error-string table (SPEC_FULL.md's supplemented-features note).
func drvErrorDescr(c methodCtx) (MarshErr, int) {
	const text = "error description not available"
	n := copy(c.reply, text)
	return MarshNoError, n
}

func drvEnumBoards(c methodCtx) (MarshErr, int) {
	if len(c.reply) < 4 {
		return MarshBufferTooShort, 0
	}
	binary.LittleEndian.PutUint32(c.reply[0:4], uint32(len(c.m.devices.entries)))
	return MarshNoError, 4
}

// drvEnumChannels expects a one-byte board index and returns its channel
// count.
func drvEnumChannels(c methodCtx) (MarshErr, int) {
	if len(c.req) < 1 {
		return MarshInvalidParameter, 0
	}
	e := c.m.devices.entry(c.req[0])
	if e == nil {
		return MarshInvalidHandle, 0
	}
	if len(c.reply) < 4 {
		return MarshBufferTooShort, 0
	}
	binary.LittleEndian.PutUint32(c.reply[0:4], uint32(len(e.Channels)))
	return MarshNoError, 4
}

// drvOpenChannel opens a client handle to board/channel addressed by a
// 32-byte board name followed by a one-byte channel index, mirroring
// xChannelOpen's (szBoard, ulChannel) signature (§4.9).
func drvOpenChannel(c methodCtx) (MarshErr, int) {
	const nameLen = 32
	if len(c.req) < nameLen+1 {
		return MarshInvalidParameter, 0
	}
	name := trimName(c.req[:nameLen])
	chIdx := c.req[nameLen]

	boardIdx, entry, err := c.m.devices.findDevice(name)
	if err != nil {
		return MarshInvalidParameter, 0
	}
	if int(chIdx) >= len(entry.Channels) {
		return MarshInvalidParameter, 0
	}
	slot := &entry.Channels[chIdx]
	if slot.OpenCount == 0 {
		lib, status := c.m.driver.ChannelOpen(uint32(boardIdx), uint32(chIdx))
		if status != DriverOK {
			return MarshDriverNotLoaded, 0
		}
		slot.LibHandle = lib
	}
	slot.OpenCount++

	if len(c.reply) < 4 {
		return MarshBufferTooShort, 0
	}
	h := EncodeHandle(ObjectChannel, uint8(boardIdx), chIdx)
	binary.LittleEndian.PutUint32(c.reply[0:4], uint32(h))
	return MarshNoError, 4
}

// drvOpenSysdev mirrors drvOpenChannel for the board's system device slot
// (subindex SystemChannelSubindex, §3.1).
func drvOpenSysdev(c methodCtx) (MarshErr, int) {
	const nameLen = 32
	if len(c.req) < nameLen {
		return MarshInvalidParameter, 0
	}
	name := trimName(c.req[:nameLen])

	boardIdx, entry, err := c.m.devices.findDevice(name)
	if err != nil {
		return MarshInvalidParameter, 0
	}
	if entry.SysdeviceOpenCount == 0 {
		lib, status := c.m.driver.SysdeviceOpen(uint32(boardIdx))
		if status != DriverOK {
			return MarshDriverNotLoaded, 0
		}
		entry.SysdeviceLibHandle = lib
	}
	entry.SysdeviceOpenCount++

	if len(c.reply) < 4 {
		return MarshBufferTooShort, 0
	}
	h := EncodeHandle(ObjectSysdevice, uint8(boardIdx), SystemChannelSubindex)
	binary.LittleEndian.PutUint32(c.reply[0:4], uint32(h))
	return MarshNoError, 4
}

// drvRestartDevice probes the optional DriverRestarter capability (§6.3's
// capability-probing design note), returning MarshFunctionNotAvailable when
// the wrapped driver does not support a live restart.
func drvRestartDevice(c methodCtx) (MarshErr, int) {
	r, ok := c.m.driver.(DriverRestarter)
	if !ok {
		return MarshFunctionNotAvailable, 0
	}
	if len(c.req) < 1 {
		return MarshInvalidParameter, 0
	}
	if status := r.RestartDevice(uint32(c.req[0])); status != DriverOK {
		return MarshInvalidParameter, 0
	}
	return MarshNoError, 0
}

func trimName(b []byte) string {
	n := 0
	for n < len(b) && b[n] != 0 {
		n++
	}
	return string(b[:n])
}
