package cifx

// NullDriver is a zero-board Driver implementation satisfying the minimum
// required entry points (§6.3) without touching any hardware. It exists so
// the gateway can be constructed and exercised (cmd/cifx-gatewayd uses it in
// -dry-run mode; this package's tests use their own fakeDriver) without a
// real cifX library binding, which is out of this repository's scope.
type NullDriver struct{}

func (NullDriver) Open() DriverStatus  { return DriverOK }
func (NullDriver) Close() DriverStatus { return DriverOK }

func (NullDriver) GetInformation(uint32) (BoardInfo, DriverStatus) {
	return BoardInfo{}, MarshInvalidParameter.asDriverStatus()
}

func (NullDriver) EnumBoards() (uint32, DriverStatus) { return 0, DriverOK }

func (NullDriver) EnumChannels(uint32) (uint32, DriverStatus) {
	return 0, MarshInvalidParameter.asDriverStatus()
}

func (NullDriver) SysdeviceOpen(uint32) (uint64, DriverStatus) {
	return 0, MarshInvalidParameter.asDriverStatus()
}
func (NullDriver) SysdeviceClose(uint64) DriverStatus { return DriverOK }
func (NullDriver) SysdevicePutPacket(uint64, []byte, uint32) DriverStatus {
	return MarshFunctionNotAvailable.asDriverStatus()
}
func (NullDriver) SysdeviceGetPacket(uint64, uint32, uint32) ([]byte, DriverStatus) {
	return nil, MarshFunctionNotAvailable.asDriverStatus()
}
func (NullDriver) SysdeviceGetMBXState(uint64) (uint32, uint32, DriverStatus) {
	return 0, 0, MarshFunctionNotAvailable.asDriverStatus()
}

func (NullDriver) ChannelOpen(uint32, uint32) (uint64, DriverStatus) {
	return 0, MarshInvalidParameter.asDriverStatus()
}
func (NullDriver) ChannelClose(uint64) DriverStatus { return DriverOK }
func (NullDriver) ChannelPutPacket(uint64, []byte, uint32) DriverStatus {
	return MarshFunctionNotAvailable.asDriverStatus()
}
func (NullDriver) ChannelGetPacket(uint64, uint32, uint32) ([]byte, DriverStatus) {
	return nil, MarshFunctionNotAvailable.asDriverStatus()
}
func (NullDriver) ChannelGetMBXState(uint64) (uint32, uint32, DriverStatus) {
	return 0, 0, MarshFunctionNotAvailable.asDriverStatus()
}

// asDriverStatus reinterprets a marshaller error code as a driver status for
// NullDriver's always-failing entry points; the two code spaces are
// otherwise distinct (§7.2 vs §6.3).
func (e MarshErr) asDriverStatus() DriverStatus { return DriverStatus(e) }
