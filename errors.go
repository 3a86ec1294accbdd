package cifx

import "errors"

// Sentinel errors for conditions the core itself detects, distinct from the
// on-wire marshaller error codes (see MarshErr) which are carried to the
// client rather than returned to Go callers.
var (
	// ErrUnknownDataType names a frame data_type with no registered handler. No
	// function returns it: the receive path answers that case with a
	// StateDataTypeUnknown ACK.
	ErrUnknownDataType = errors.New("cifx: unknown data type")
	// ErrAlreadyRegistered is returned when a data_type already has a handler.
	ErrAlreadyRegistered = errors.New("cifx: transport already registered")
	// ErrPoolExhausted is returned by the buffer pool when a free-list is empty.
	ErrPoolExhausted = errors.New("cifx: buffer pool exhausted")
	// ErrBufferTooSmall names a declared frame length that exceeds buffer
	// capacity. No function returns it: the receive path answers that case
	// with a StateBufferOverflowError ACK.
	ErrBufferTooSmall = errors.New("cifx: buffer too small for frame")
	// ErrWrongFreeList is returned by BufferPool.Release when a buffer's type
	// tag names no free-list or the buffer belongs to another connector's
	// pool; indicates a programming error upstream.
	ErrWrongFreeList = errors.New("cifx: buffer released to wrong free-list")
	// ErrTransportGone is returned when a request-queue entry targets a data_type
	// that was unregistered after the frame was enqueued.
	ErrTransportGone = errors.New("cifx: transport unregistered before dispatch")
	// ErrQueueEmpty is returned by DispatchOne when no request is pending.
	ErrQueueEmpty = errors.New("cifx: request queue empty")
	// ErrConnectorFull names a connector table with no free slot. No function
	// returns it: RegisterConnector grows the table without limit.
	ErrConnectorFull = errors.New("cifx: no free connector slot")
	// ErrUnknownConnector is returned when a connector index does not name a
	// registered connector.
	ErrUnknownConnector = errors.New("cifx: unknown connector index")
	// ErrBadChecksum names a frame whose CRC-16 fails verification. No function
	// returns it: the receive path answers that case with a StateChecksumError
	// ACK.
	ErrBadChecksum = errors.New("cifx: checksum mismatch")
	// ErrDriverRequired is returned by NewMarshaller when the Driver itself is
	// nil.
	ErrDriverRequired = errors.New("cifx: driver missing a required entry point")
	// ErrBoardNotFound is returned by FindDevice when no board matches name or alias.
	ErrBoardNotFound = errors.New("cifx: board not found")
	// ErrChannelOutOfRange names a channel index past the board's channel count.
	// No function returns it: dispatch reports that case as MarshInvalidHandle
	// or MarshInvalidParameter in the marshaller reply.
	ErrChannelOutOfRange = errors.New("cifx: channel index out of range")
)

// MarshErr is a marshaller-level result code (§7.2), carried in the
// marshaller header's error field rather than returned as a Go error at the
// transport boundary. It still satisfies the error interface so handler code
// can use ordinary Go idioms (return err) internally.
type MarshErr uint32

const (
	MarshNoError                MarshErr = 0x00000000
	MarshInvalidHandle           MarshErr = 0xC0001001
	MarshInvalidParameter        MarshErr = 0xC0001002
	MarshInvalidCommand          MarshErr = 0xC0001003
	MarshFunctionNotAvailable    MarshErr = 0xC0001004
	MarshChannelNotInitialized   MarshErr = 0xC0001005
	MarshBufferTooShort          MarshErr = 0xC0001006
	MarshDriverNotLoaded         MarshErr = 0xC0001007
	MarshNotOpened               MarshErr = 0xC0001008
)

var marshErrText = map[MarshErr]string{
	MarshNoError:               "no error",
	MarshInvalidHandle:         "invalid handle",
	MarshInvalidParameter:      "invalid parameter",
	MarshInvalidCommand:        "invalid command",
	MarshFunctionNotAvailable:  "function not available",
	MarshChannelNotInitialized: "channel not initialized",
	MarshBufferTooShort:        "buffer too short",
	MarshDriverNotLoaded:       "driver not loaded",
	MarshNotOpened:             "not opened",
}

func (e MarshErr) Error() string {
	if s, ok := marshErrText[e]; ok {
		return s
	}
	return "marshaller error 0x" + hex32(uint32(e))
}

func hex32(v uint32) string {
	const digits = "0123456789abcdef"
	buf := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		buf[i] = digits[v&0xF]
		v >>= 4
	}
	return string(buf)
}

// TransportState is the one-byte result code placed in a reply or ACK's
// state field (§7.1).
type TransportState byte

const (
	StateOK                    TransportState = 0x00
	StateChecksumError         TransportState = 0x10
	StateLengthIncomplete      TransportState = 0x11
	StateDataTypeUnknown       TransportState = 0x12
	StateDeviceUnknown         TransportState = 0x13
	StateChannelUnknown        TransportState = 0x14
	StateSequenceError         TransportState = 0x15
	StateBufferOverflowError   TransportState = 0x16
	StateResourceError         TransportState = 0x17
	StateKeepAliveError        TransportState = 0x20
)
