package cifx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransportHeaderRoundTrip(t *testing.T) {
	h := TransportHeader{
		Cookie:      TransportCookie,
		Length:      42,
		Checksum:    0xBEEF,
		DataType:    DataTypeMarshaller,
		Device:      2,
		Channel:     1,
		SequenceNr:  7,
		State:       StateOK,
		Transaction: 0x1234,
		Reserved:    0,
	}
	var buf [TransportHeaderSize]byte
	h.Encode(buf[:])

	got := DecodeTransportHeader(buf[:])
	require.Equal(t, h, got)
}

func TestTransportHeaderSizeIsTwenty(t *testing.T) {
	require.Equal(t, 20, TransportHeaderSize)
}
