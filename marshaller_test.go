package cifx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCloseDeinitsConnectorsAndTearsDownDeviceTable(t *testing.T) {
	d := newFakeDriver()
	m, err := NewMarshaller(MarshallerParams{Driver: d})
	require.NoError(t, err)

	fc := &fakeConnector{}
	idx, err := m.RegisterConnector(ConnectorParams{
		Conn: fc, RxCount: 2, RxSize: 64, TxCount: 2, TxSize: 64, FrameTimeoutMs: 2000,
	})
	require.NoError(t, err)

	m.devices.entries[0].SysdeviceOpenCount = 1
	m.devices.entries[0].Channels[0].OpenCount = 1

	require.NoError(t, m.Close())
	require.Equal(t, 1, d.sysCloses)
	require.Equal(t, 1, d.chanCloses)
	require.Nil(t, m.slot(idx))
}
