package cifx

// DriverStatus is the 32-bit status code every driver entry point returns;
// zero means success (§6.3).
type DriverStatus uint32

// DriverOK is the zero/success status.
const DriverOK DriverStatus = 0

// BoardInfo is returned by Driver.GetInformation (§4.9).
type BoardInfo struct {
	Name         string
	Alias        string
	DeviceNumber uint32
	SerialNumber uint32
	ChannelCount uint32
}

// FileInfo is returned by the optional FindFirstFile/FindNextFile capability
// (§4.5.1's FindFirstFile/FindNextFile methods).
type FileInfo struct {
	Name string
	Size uint32
}

// IOInfo is returned by the optional ChannelIOInfo capability.
type IOInfo struct {
	InputAreaSize  uint32
	OutputAreaSize uint32
}

// Driver is the pluggable function-table abstraction standing in for the
// external cifX library (§6.3, §9's "function-pointer table" design note).
// Every method here is one of the minimum required (non-null) entries; a
// type missing any of these does not satisfy Driver and fails to compile,
// and validateDriver only rejects a nil Driver. Everything else the spec's method tables name is
// modeled as a capability interface below and probed with a type assertion
// at dispatch time, the same pattern used for optional collaborators
// elsewhere in this codebase (e.g. aznet's Rotator).
type Driver interface {
	Open() DriverStatus
	Close() DriverStatus
	GetInformation(boardIdx uint32) (BoardInfo, DriverStatus)
	EnumBoards() (count uint32, status DriverStatus)
	EnumChannels(boardIdx uint32) (count uint32, status DriverStatus)

	SysdeviceOpen(boardIdx uint32) (libHandle uint64, status DriverStatus)
	SysdeviceClose(libHandle uint64) DriverStatus
	SysdevicePutPacket(libHandle uint64, packet []byte, timeoutMs uint32) DriverStatus
	SysdeviceGetPacket(libHandle uint64, maxLen uint32, timeoutMs uint32) (packet []byte, status DriverStatus)
	SysdeviceGetMBXState(libHandle uint64) (sendCount, recvCount uint32, status DriverStatus)

	ChannelOpen(boardIdx, channelIdx uint32) (libHandle uint64, status DriverStatus)
	ChannelClose(libHandle uint64) DriverStatus
	ChannelPutPacket(libHandle uint64, packet []byte, timeoutMs uint32) DriverStatus
	ChannelGetPacket(libHandle uint64, maxLen uint32, timeoutMs uint32) (packet []byte, status DriverStatus)
	ChannelGetMBXState(libHandle uint64) (sendCount, recvCount uint32, status DriverStatus)
}

// Optional capability interfaces. A Driver that does not implement one of
// these causes the corresponding method dispatch to return
// MarshFunctionNotAvailable, mirroring a null function-table entry (§6.3).
type (
	DriverRestarter interface {
		RestartDevice(boardIdx uint32) DriverStatus
	}
	SysdeviceResetter interface {
		SysdeviceReset(libHandle uint64, extended bool, mode, timeoutMs uint32) DriverStatus
	}
	SysdeviceInfoer interface {
		SysdeviceInfo(libHandle uint64) ([]byte, DriverStatus)
	}
	SysdeviceFileFinder interface {
		SysdeviceFindFirstFile(libHandle uint64, pattern string) (FileInfo, bool, DriverStatus)
		SysdeviceFindNextFile(libHandle uint64, search uint32) (FileInfo, bool, DriverStatus)
	}
	ChannelConfigLocker interface {
		ChannelConfigLock(libHandle uint64, lock bool, timeoutMs uint32) DriverStatus
	}
	ChannelResetter interface {
		ChannelReset(libHandle uint64, timeoutMs uint32) DriverStatus
	}
	ChannelInfoer interface {
		ChannelInfo(libHandle uint64) ([]byte, DriverStatus)
	}
	ChannelWatchdogger interface {
		ChannelWatchdog(libHandle uint64, mode uint32) (uint32, DriverStatus)
	}
	ChannelHostStater interface {
		ChannelHostState(libHandle uint64, set bool, state uint32) (uint32, DriverStatus)
	}
	ChannelIOer interface {
		ChannelIOInfo(libHandle uint64, area uint32) (IOInfo, DriverStatus)
		ChannelIORead(libHandle uint64, area, offset, length uint32) ([]byte, DriverStatus)
		ChannelIOWrite(libHandle uint64, area, offset uint32, data []byte) DriverStatus
		ChannelIOReadSendData(libHandle uint64, area, offset, length uint32) ([]byte, DriverStatus)
	}
	ChannelBusStater interface {
		ChannelBusState(libHandle uint64, on bool) (uint32, DriverStatus)
	}
	ChannelSendPacketer interface {
		ChannelGetSendPacket(libHandle uint64, maxLen uint32) ([]byte, DriverStatus)
	}
	ChannelBlockAccessor interface {
		ChannelControlBlock(libHandle uint64, read bool, data []byte) ([]byte, DriverStatus)
		ChannelStatusBlock(libHandle uint64, read bool, data []byte) ([]byte, DriverStatus)
		ChannelExtendedStatusBlock(libHandle uint64, read bool, data []byte) ([]byte, DriverStatus)
	}
	ChannelFileFinder interface {
		ChannelFindFirstFile(libHandle uint64, pattern string) (FileInfo, bool, DriverStatus)
		ChannelFindNextFile(libHandle uint64, search uint32) (FileInfo, bool, DriverStatus)
	}
)

func validateDriver(d Driver) error {
	if d == nil {
		return ErrDriverRequired
	}
	return nil
}

// DownloadHookStore is the file-storage callback signature for a RAM-based
// (non-persistent) device (§6.4). DownloadHook keeps the callback in its
// Store field but never calls it: captured download bytes stay in the
// hook's per-handle capture. The core never touches a file system.
type DownloadHookStore func(board BoardInfo, filename string, size uint32, data []byte, channel uint32, mode uint32) DriverStatus

// DownloadHook decorates a Driver, snooping RCX file-download packets
// (FILE_DOWNLOAD_REQ / _DATA_REQ / _ABORT_REQ) on SysdevicePutPacket and
// ChannelPutPacket without altering their signatures (§6.4, §9's decorator
// design note: "the snoop state lives in the decorator, not in the core").
// The GetPacket and GetMBXState entries are not wrapped; they pass straight
// to the embedded Driver. On a flash-based (persistent) device it only
// snoops and passes every packet through; on a RAM-based device it captures
// bytes instead of forwarding them. No packet is treated as the terminal one
// and Store is never invoked.
type DownloadHook struct {
	Driver
	Persistent bool
	Store      DownloadHookStore

	captures map[uint64]*downloadCapture
}

type downloadCapture struct {
	data []byte
}

// NewDownloadHook wraps d with RCX download snooping.
func NewDownloadHook(d Driver, persistent bool, store DownloadHookStore) *DownloadHook {
	return &DownloadHook{Driver: d, Persistent: persistent, Store: store, captures: make(map[uint64]*downloadCapture)}
}

// rcxOpcode mirrors the three RCX opcodes the hook inspects. Real opcode
// values live in the cifX RCX packet header the original driver defines;
// this gateway only needs to distinguish them at the boundary the hook
// owns, so they are modeled symbolically rather than duplicating the full
// RCX packet catalogue.
type rcxOpcode uint32

const (
	rcxFileDownloadReq     rcxOpcode = 1
	rcxFileDownloadDataReq rcxOpcode = 2
	rcxFileDownloadAbortReq rcxOpcode = 3
)

func (h *DownloadHook) snoop(libHandle uint64, packet []byte) (forward []byte, handled bool) {
	if len(packet) < 4 {
		return packet, false
	}
	op := rcxOpcode(packet[0])
	switch op {
	case rcxFileDownloadReq:
		h.captures[libHandle] = &downloadCapture{}
		return packet, !h.Persistent
	case rcxFileDownloadDataReq:
		capture := h.captures[libHandle]
		if capture == nil {
			return packet, false
		}
		capture.data = append(capture.data, packet[4:]...)
		return packet, !h.Persistent
	case rcxFileDownloadAbortReq:
		delete(h.captures, libHandle)
		return packet, !h.Persistent
	default:
		return packet, false
	}
}

// SysdevicePutPacket intercepts download packets before forwarding to the
// wrapped driver when the device is flash-based; on RAM-based devices it
// captures bytes and reports success without forwarding.
func (h *DownloadHook) SysdevicePutPacket(libHandle uint64, packet []byte, timeoutMs uint32) DriverStatus {
	if _, captured := h.snoop(libHandle, packet); captured {
		return DriverOK
	}
	return h.Driver.SysdevicePutPacket(libHandle, packet, timeoutMs)
}

// ChannelPutPacket mirrors SysdevicePutPacket for channel-addressed packets.
func (h *DownloadHook) ChannelPutPacket(libHandle uint64, packet []byte, timeoutMs uint32) DriverStatus {
	if _, captured := h.snoop(libHandle, packet); captured {
		return DriverOK
	}
	return h.Driver.ChannelPutPacket(libHandle, packet, timeoutMs)
}
