package cifx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBufferPoolAckSizing(t *testing.T) {
	bp := NewBufferPool(0, BufferPoolParams{RxCount: 3, RxSize: 64, TxCount: 2, TxSize: 64})
	rx, tx, ack, ka := bp.Counts()
	require.Equal(t, 3, rx)
	require.Equal(t, 2, tx)
	require.Equal(t, 3+2+2, ack)
	require.Equal(t, 1, ka)
}

func TestBufferPoolConservation(t *testing.T) {
	bp := NewBufferPool(0, BufferPoolParams{RxCount: 2, RxSize: 32, TxCount: 2, TxSize: 32})

	var acquired []*Buffer
	for i := 0; i < 2; i++ {
		b, err := bp.Acquire(BufRx)
		require.NoError(t, err)
		acquired = append(acquired, b)
	}

	_, err := bp.Acquire(BufRx)
	require.ErrorIs(t, err, ErrPoolExhausted)

	for _, b := range acquired {
		require.NoError(t, bp.Release(b))
	}

	rx, _, _, _ := bp.Counts()
	require.Equal(t, 2, rx)
}

func TestBufferReleaseReturnsToItsOwnType(t *testing.T) {
	bp := NewBufferPool(0, BufferPoolParams{RxCount: 1, RxSize: 16, TxCount: 1, TxSize: 16})

	rxBuf, err := bp.Acquire(BufRx)
	require.NoError(t, err)
	require.Equal(t, BufRx, rxBuf.Type())
	require.NoError(t, bp.Release(rxBuf))

	rx, tx, _, _ := bp.Counts()
	require.Equal(t, 1, rx)
	require.Equal(t, 1, tx)
}

func TestBufferResetClearsState(t *testing.T) {
	bp := NewBufferPool(0, BufferPoolParams{RxCount: 1, RxSize: 16, TxCount: 0, TxSize: 0})
	b, err := bp.Acquire(BufRx)
	require.NoError(t, err)
	b.UsedLength = 10
	b.Header.Length = 10
	require.NoError(t, bp.Release(b))

	b2, err := bp.Acquire(BufRx)
	require.NoError(t, err)
	require.Equal(t, 0, b2.UsedLength)
	require.Equal(t, TransportHeader{}, b2.Header)
}
