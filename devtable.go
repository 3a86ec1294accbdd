package cifx

import "strings"

// channelSlot is one entry in a board's channel array (§3.1's Device Table
// Entry). OpenCount is incremented on each successful open and decremented
// on close; LibHandle is acquired on 0->1 and released on 1->0 (§3.2).
type channelSlot struct {
	OpenCount uint32
	LibHandle uint64
	Valid     bool
}

// deviceEntry is one board's row in the device table.
type deviceEntry struct {
	Info BoardInfo

	SysdeviceOpenCount uint32
	SysdeviceLibHandle uint64

	Channels []channelSlot
}

// deviceTable is the two-level device/channel table built at marshaller
// init by enumerating boards and channels through the Driver interface,
// and torn down at deinit after closing every outstanding library handle
// (§4.9, C10).
type deviceTable struct {
	entries []*deviceEntry
}

func buildDeviceTable(d Driver) (*deviceTable, error) {
	if status := d.Open(); status != DriverOK {
		return nil, driverError("driver open", status)
	}

	boardCount, status := d.EnumBoards()
	if status != DriverOK {
		return nil, driverError("enum boards", status)
	}

	dt := &deviceTable{entries: make([]*deviceEntry, 0, boardCount)}
	for i := uint32(0); i < boardCount; i++ {
		info, status := d.GetInformation(i)
		if status != DriverOK {
			continue
		}
		entry := &deviceEntry{Info: info}

		chCount, status := d.EnumChannels(i)
		if status == DriverOK && chCount > 0 {
			entry.Channels = make([]channelSlot, chCount)
			for c := range entry.Channels {
				entry.Channels[c].Valid = true
			}
		}
		dt.entries = append(dt.entries, entry)
	}
	return dt, nil
}

// teardown closes every outstanding library handle and the driver itself
// (§4.9's teardown procedure).
func (dt *deviceTable) teardown(d Driver) {
	for _, e := range dt.entries {
		if e.SysdeviceOpenCount > 0 {
			_ = d.SysdeviceClose(e.SysdeviceLibHandle)
		}
		for i := range e.Channels {
			if e.Channels[i].OpenCount > 0 {
				_ = d.ChannelClose(e.Channels[i].LibHandle)
			}
		}
	}
	_ = d.Close()
}

// findDevice compares name case-insensitively against both a board's name
// and alias (§4.9).
func (dt *deviceTable) findDevice(name string) (int, *deviceEntry, error) {
	for idx, e := range dt.entries {
		if strings.EqualFold(e.Info.Name, name) || strings.EqualFold(e.Info.Alias, name) {
			return idx, e, nil
		}
	}
	return 0, nil, ErrBoardNotFound
}

// entry returns the board at idx, or nil if out of range.
func (dt *deviceTable) entry(idx uint8) *deviceEntry {
	if int(idx) >= len(dt.entries) {
		return nil
	}
	return dt.entries[idx]
}

// channel returns the channel slot at (boardIdx, channelIdx), or nil if
// either index is out of range.
func (dt *deviceTable) channel(boardIdx, channelIdx uint8) *channelSlot {
	e := dt.entry(boardIdx)
	if e == nil || int(channelIdx) >= len(e.Channels) {
		return nil
	}
	return &e.Channels[channelIdx]
}

func driverError(op string, status DriverStatus) error {
	return &driverOpError{op: op, status: status}
}

type driverOpError struct {
	op     string
	status DriverStatus
}

func (e *driverOpError) Error() string {
	return "cifx: driver " + e.op + " failed with status 0x" + hex32(uint32(e.status))
}
