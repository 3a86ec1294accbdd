package cifx

import "encoding/binary"

// TransportHeaderSize is the fixed, on-wire size of the transport header in
// bytes: ulCookie+ulLength+usChecksum+usDataType+bDevice+bChannel+
// bSequenceNr+bState+usTransaction+usReserved, matching HIL_TRANSPORT_HEADER.
// The distilled narrative calls this "16 bytes" in one place; the struct
// layout it is itself built from totals 20, and 20 is what ships on the wire.
const TransportHeaderSize = 20

// TransportCookie is the little-endian start-of-frame sentinel.
const TransportCookie uint32 = 0xA55A5AA5

// Data-type codes selecting a transport handler. Values other than the ones
// below are reserved for user-registered handlers (§4.5).
const (
	DataTypeQueryServer DataType = 0x0000
	DataTypeQueryDevice DataType = 0x0001 // supplemental admin query, see original_source
	DataTypeMarshaller  DataType = 0x0200
	DataTypeAcknowledge DataType = 0x8000
	DataTypeKeepAlive   DataType = 0xFFFF
)

// DataType is the 16-bit code in the transport header selecting a handler.
type DataType uint16

// TransportHeader is the fixed-size frame header that precedes every
// payload on the wire. All integer fields are little-endian.
type TransportHeader struct {
	Cookie      uint32
	Length      uint32
	Checksum    uint16
	DataType    DataType
	Device      uint8
	Channel     uint8
	SequenceNr  uint8
	State       TransportState
	Transaction uint16
	Reserved    uint16
}

// Encode writes the header into the first TransportHeaderSize bytes of dst.
// dst must be at least TransportHeaderSize bytes long.
func (h TransportHeader) Encode(dst []byte) {
	_ = dst[TransportHeaderSize-1]
	binary.LittleEndian.PutUint32(dst[0:4], h.Cookie)
	binary.LittleEndian.PutUint32(dst[4:8], h.Length)
	binary.LittleEndian.PutUint16(dst[8:10], h.Checksum)
	binary.LittleEndian.PutUint16(dst[10:12], uint16(h.DataType))
	dst[12] = h.Device
	dst[13] = h.Channel
	dst[14] = h.SequenceNr
	dst[15] = byte(h.State)
	binary.LittleEndian.PutUint16(dst[16:18], h.Transaction)
	binary.LittleEndian.PutUint16(dst[18:20], h.Reserved)
}

// DecodeTransportHeader reads a TransportHeader from the first
// TransportHeaderSize bytes of src.
func DecodeTransportHeader(src []byte) TransportHeader {
	_ = src[TransportHeaderSize-1]
	return TransportHeader{
		Cookie:      binary.LittleEndian.Uint32(src[0:4]),
		Length:      binary.LittleEndian.Uint32(src[4:8]),
		Checksum:    binary.LittleEndian.Uint16(src[8:10]),
		DataType:    DataType(binary.LittleEndian.Uint16(src[10:12])),
		Device:      src[12],
		Channel:     src[13],
		SequenceNr:  src[14],
		State:       TransportState(src[15]),
		Transaction: binary.LittleEndian.Uint16(src[16:18]),
		Reserved:    binary.LittleEndian.Uint16(src[18:20]),
	}
}
