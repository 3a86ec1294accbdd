package cifx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeDriver is a minimal in-memory Driver for core tests: one or more
// boards, each with a fixed channel count, and counting Open/Close calls.
type fakeDriver struct {
	boards []BoardInfo

	sysOpens, sysCloses     int
	chanOpens, chanCloses   int
	nextLibHandle           uint64
}

func (d *fakeDriver) Open() DriverStatus  { return DriverOK }
func (d *fakeDriver) Close() DriverStatus { return DriverOK }

func (d *fakeDriver) GetInformation(idx uint32) (BoardInfo, DriverStatus) {
	if int(idx) >= len(d.boards) {
		return BoardInfo{}, DriverStatus(MarshInvalidParameter)
	}
	return d.boards[idx], DriverOK
}

func (d *fakeDriver) EnumBoards() (uint32, DriverStatus) { return uint32(len(d.boards)), DriverOK }

func (d *fakeDriver) EnumChannels(idx uint32) (uint32, DriverStatus) {
	if int(idx) >= len(d.boards) {
		return 0, DriverStatus(MarshInvalidParameter)
	}
	return d.boards[idx].ChannelCount, DriverOK
}

func (d *fakeDriver) SysdeviceOpen(uint32) (uint64, DriverStatus) {
	d.sysOpens++
	d.nextLibHandle++
	return d.nextLibHandle, DriverOK
}
func (d *fakeDriver) SysdeviceClose(uint64) DriverStatus { d.sysCloses++; return DriverOK }
func (d *fakeDriver) SysdevicePutPacket(uint64, []byte, uint32) DriverStatus { return DriverOK }
func (d *fakeDriver) SysdeviceGetPacket(uint64, uint32, uint32) ([]byte, DriverStatus) {
	return nil, DriverOK
}
func (d *fakeDriver) SysdeviceGetMBXState(uint64) (uint32, uint32, DriverStatus) {
	return 0, 0, DriverOK
}

func (d *fakeDriver) ChannelOpen(uint32, uint32) (uint64, DriverStatus) {
	d.chanOpens++
	d.nextLibHandle++
	return d.nextLibHandle, DriverOK
}
func (d *fakeDriver) ChannelClose(uint64) DriverStatus { d.chanCloses++; return DriverOK }
func (d *fakeDriver) ChannelPutPacket(uint64, []byte, uint32) DriverStatus { return DriverOK }
func (d *fakeDriver) ChannelGetPacket(uint64, uint32, uint32) ([]byte, DriverStatus) {
	return nil, DriverOK
}
func (d *fakeDriver) ChannelGetMBXState(uint64) (uint32, uint32, DriverStatus) {
	return 0, 0, DriverOK
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{boards: []BoardInfo{
		{Name: "cifX0", Alias: "board0", DeviceNumber: 0, ChannelCount: 2},
	}}
}

// resettableFakeDriver adds the ChannelResetter capability on top of
// fakeDriver, for tests that need a Channel method to reach past its
// capability probe instead of short-circuiting to MarshFunctionNotAvailable.
type resettableFakeDriver struct {
	*fakeDriver
	resets int
}

func (d *resettableFakeDriver) ChannelReset(uint64, uint32) DriverStatus {
	d.resets++
	return DriverOK
}

func newResettableFakeDriver() *resettableFakeDriver {
	return &resettableFakeDriver{fakeDriver: newFakeDriver()}
}

func TestBuildDeviceTableEnumeratesBoardsAndChannels(t *testing.T) {
	d := newFakeDriver()
	dt, err := buildDeviceTable(d)
	require.NoError(t, err)
	require.Len(t, dt.entries, 1)
	require.Len(t, dt.entries[0].Channels, 2)
}

func TestFindDeviceCaseInsensitive(t *testing.T) {
	d := newFakeDriver()
	dt, err := buildDeviceTable(d)
	require.NoError(t, err)

	idx, entry, err := dt.findDevice("CIFX0")
	require.NoError(t, err)
	require.Equal(t, 0, idx)
	require.Equal(t, "cifX0", entry.Info.Name)

	_, _, err = dt.findDevice("nope")
	require.ErrorIs(t, err, ErrBoardNotFound)
}

func TestEntryAndChannelOutOfRange(t *testing.T) {
	d := newFakeDriver()
	dt, err := buildDeviceTable(d)
	require.NoError(t, err)

	require.Nil(t, dt.entry(5))
	require.Nil(t, dt.channel(0, 99))
	require.NotNil(t, dt.channel(0, 0))
}

func TestTeardownClosesOutstandingHandles(t *testing.T) {
	d := newFakeDriver()
	dt, err := buildDeviceTable(d)
	require.NoError(t, err)

	dt.entries[0].SysdeviceOpenCount = 1
	dt.entries[0].Channels[0].OpenCount = 1

	dt.teardown(d)
	require.Equal(t, 1, d.sysCloses)
	require.Equal(t, 1, d.chanCloses)
}
