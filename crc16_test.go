package cifx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCRC16Deterministic(t *testing.T) {
	payload := []byte("the quick brown fox")
	require.Equal(t, CRC16(payload), CRC16(payload))
}

func TestCRC16EmptyIsZero(t *testing.T) {
	// An empty payload's checksum is reserved to mean "skip verification"
	// (§4.2); CRC16 returns 0 for it (the init value 0xFFFF XORed with the
	// final 0xFFFF is 0 as well).
	require.Equal(t, uint16(0), CRC16(nil))
}

func TestCRC16DetectsSingleByteFlip(t *testing.T) {
	a := []byte("frame payload bytes")
	b := append([]byte(nil), a...)
	b[3] ^= 0x01
	require.NotEqual(t, CRC16(a), CRC16(b))
}

func TestVerifyChecksumZeroSkipsVerification(t *testing.T) {
	require.True(t, VerifyChecksum([]byte{1, 2, 3}, 0))
}

func TestVerifyChecksumRoundTrip(t *testing.T) {
	payload := []byte("hello world")
	good := CRC16(payload)
	require.True(t, VerifyChecksum(payload, good))
	require.False(t, VerifyChecksum(payload, good^0xFFFF))
}
