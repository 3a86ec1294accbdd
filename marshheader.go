package cifx

import "encoding/binary"

// MarshallerHeaderSize is the fixed size, in bytes, of the marshaller header
// that follows the transport header when DataType == DataTypeMarshaller.
const MarshallerHeaderSize = 20

// Sequence bitfield masks within MarshallerHeader.Sequence (§3.1).
const (
	SequenceRequestBit   uint32 = 1 << 0
	SequenceSupportedBit uint32 = 1 << 1
	sequenceNumberShift         = 16
)

// ObjectType is the low byte of a Handle, naming the kind of remote object
// a method call addresses.
type ObjectType uint8

const (
	ObjectClassFactory ObjectType = 0
	ObjectDriver       ObjectType = 1
	ObjectSysdevice    ObjectType = 2
	ObjectChannel      ObjectType = 3
)

// SystemChannelSubindex is the subindex sentinel reserved for a board's
// system (administrative) device slot.
const SystemChannelSubindex = 0xFF

// Handle bitfield layout (§3.1): bit31 valid, bits23-16 subindex,
// bits15-8 index, bits7-0 object type.
const (
	handleValidBit    uint32 = 1 << 31
	handleSubindexMask uint32 = 0x00FF0000
	handleIndexMask    uint32 = 0x0000FF00
	handleTypeMask     uint32 = 0x000000FF
)

// Handle is the 32-bit encoded reference to a remote object.
type Handle uint32

// EncodeHandle builds a valid handle for the given object type, device
// index and subindex.
func EncodeHandle(ot ObjectType, index, subindex uint8) Handle {
	return Handle(handleValidBit | uint32(subindex)<<16 | uint32(index)<<8 | uint32(ot))
}

// Valid reports whether the handle's valid bit is set.
func (h Handle) Valid() bool { return uint32(h)&handleValidBit != 0 }

// Type returns the handle's object type.
func (h Handle) Type() ObjectType { return ObjectType(uint32(h) & handleTypeMask) }

// Index returns the handle's device/board index.
func (h Handle) Index() uint8 { return uint8((uint32(h) & handleIndexMask) >> 8) }

// Subindex returns the handle's channel subindex (or SystemChannelSubindex).
func (h Handle) Subindex() uint8 { return uint8((uint32(h) & handleSubindexMask) >> 16) }

// MarshallerHeader is the 20-byte header following the transport header for
// marshaller frames (§3.1).
type MarshallerHeader struct {
	Handle   Handle
	MethodID uint32
	Sequence uint32
	Error    uint32
	DataSize uint32
}

// Encode writes the header into the first MarshallerHeaderSize bytes of dst.
func (h MarshallerHeader) Encode(dst []byte) {
	_ = dst[MarshallerHeaderSize-1]
	binary.LittleEndian.PutUint32(dst[0:4], uint32(h.Handle))
	binary.LittleEndian.PutUint32(dst[4:8], h.MethodID)
	binary.LittleEndian.PutUint32(dst[8:12], h.Sequence)
	binary.LittleEndian.PutUint32(dst[12:16], h.Error)
	binary.LittleEndian.PutUint32(dst[16:20], h.DataSize)
}

// DecodeMarshallerHeader reads a MarshallerHeader from the first
// MarshallerHeaderSize bytes of src.
func DecodeMarshallerHeader(src []byte) MarshallerHeader {
	_ = src[MarshallerHeaderSize-1]
	return MarshallerHeader{
		Handle:   Handle(binary.LittleEndian.Uint32(src[0:4])),
		MethodID: binary.LittleEndian.Uint32(src[4:8]),
		Sequence: binary.LittleEndian.Uint32(src[8:12]),
		Error:    binary.LittleEndian.Uint32(src[12:16]),
		DataSize: binary.LittleEndian.Uint32(src[16:20]),
	}
}

// ReplySequence clears the request bit and preserves the 16-bit sequence
// number (see the reply-sequence Open Question in SPEC_FULL.md): the
// reference implementation zeroes the whole field, discarding correlation;
// this implementation keeps it since request/reply correlation is an
// explicit invariant (§3.2).
func ReplySequence(reqSequence uint32) uint32 {
	return reqSequence &^ SequenceRequestBit
}
