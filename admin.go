package cifx

import "encoding/binary"

// Admin reply layout constants (§4.6, cross-checked against
// HIL_TRANSPORT_ADMIN_QUERYSERVER_DATA_T in original_source).
const (
	queryServerNameLen = 32
	queryServerVersion = 1

	featureKeepAlive           uint32 = 0x00000001
	featureNXAPI               uint32 = 0x00000002
	featurePermanentConnection uint32 = 0x80000000
)

// Gateway release numbers reported in the QueryServer reply's four version
// fields; distinct from ClassFactory.ServerVersion (§4.5.1), which is a
// fixed cifX API compatibility marker rather than this gateway's own build.
const (
	gatewayVersionMajor    = 1
	gatewayVersionMinor    = 0
	gatewayVersionBuild    = 0
	gatewayVersionRevision = 0
)

// handleQueryServer builds and transmits the server-description reply
// (§4.6, scenario 1 of §8). The positive ACK for the request itself was
// already sent by the caller; this only emits the follow-on QUERYSERVER
// frame.
func (m *Marshaller) handleQueryServer(slot *connectorSlot, reqHdr TransportHeader) {
	types := m.registry.RegisteredTypes()
	types = append(types, DataTypeKeepAlive)

	size := queryServerVersion1Size(len(types))
	tx, err := slot.pool.Acquire(BufTx)
	if err != nil {
		return
	}
	if size > tx.Capacity() {
		_ = slot.pool.Release(tx)
		return
	}

	p := tx.Payload
	binary.LittleEndian.PutUint32(p[0:4], queryServerVersion)
	copy(p[4:4+queryServerNameLen], padName(ServerName, queryServerNameLen))
	off := 4 + queryServerNameLen
	binary.LittleEndian.PutUint32(p[off:off+4], gatewayVersionMajor)
	binary.LittleEndian.PutUint32(p[off+4:off+8], gatewayVersionMinor)
	binary.LittleEndian.PutUint32(p[off+8:off+12], gatewayVersionBuild)
	binary.LittleEndian.PutUint32(p[off+12:off+16], gatewayVersionRevision)
	off += 16
	binary.LittleEndian.PutUint32(p[off:off+4], featureKeepAlive)
	off += 4
	binary.LittleEndian.PutUint32(p[off:off+4], uint32(len(m.connectors)))
	off += 4
	binary.LittleEndian.PutUint32(p[off:off+4], uint32(slot.pool.rxCapacity()))
	off += 4
	binary.LittleEndian.PutUint32(p[off:off+4], uint32(len(types)))
	off += 4
	for _, t := range types {
		binary.LittleEndian.PutUint16(p[off:off+2], uint16(t))
		off += 2
	}

	tx.UsedLength = off
	tx.Header = TransportHeader{
		Cookie:      TransportCookie,
		Length:      uint32(off),
		Checksum:    CRC16(p[:off]),
		DataType:    DataTypeQueryServer,
		Device:      reqHdr.Device,
		Channel:     reqHdr.Channel,
		SequenceNr:  slot.nextSequenceNr(),
		State:       StateOK,
		Transaction: reqHdr.Transaction,
	}
	if err := slot.conn.Transmit(tx); err != nil {
		_ = slot.pool.Release(tx)
	}
}

func queryServerVersion1Size(typeCount int) int {
	return 4 + queryServerNameLen + 16 + 4 + 4 + 4 + 4 + typeCount*2
}

func padName(s string, n int) []byte {
	b := make([]byte, n)
	copy(b, s)
	return b
}

// handleQueryDevice services the supplemental QueryDevice admin command
// (data_type 0x0001), present in HIL_TRANSPORT_TYPE_QUERYDEVICE but dropped
// by the distilled component table; see SPEC_FULL.md's supplemented
// features. The request's transport-header `device` field selects the
// board; the reply reports its name, alias and channel count.
func (m *Marshaller) handleQueryDevice(slot *connectorSlot, reqHdr TransportHeader, _ []byte) {
	entry := m.devices.entry(reqHdr.Device)
	if entry == nil {
		m.sendAck(slot, reqHdr, StateDeviceUnknown)
		return
	}

	tx, err := slot.pool.Acquire(BufTx)
	if err != nil {
		return
	}

	const nameLen = 32
	size := 4 + nameLen + nameLen + 4
	if size > tx.Capacity() {
		_ = slot.pool.Release(tx)
		return
	}

	p := tx.Payload
	binary.LittleEndian.PutUint32(p[0:4], entry.Info.DeviceNumber)
	off := 4
	copy(p[off:off+nameLen], padName(entry.Info.Name, nameLen))
	off += nameLen
	copy(p[off:off+nameLen], padName(entry.Info.Alias, nameLen))
	off += nameLen
	binary.LittleEndian.PutUint32(p[off:off+4], uint32(len(entry.Channels)))
	off += 4

	tx.UsedLength = off
	tx.Header = TransportHeader{
		Cookie:      TransportCookie,
		Length:      uint32(off),
		Checksum:    CRC16(p[:off]),
		DataType:    DataTypeQueryDevice,
		Device:      reqHdr.Device,
		Channel:     reqHdr.Channel,
		SequenceNr:  slot.nextSequenceNr(),
		State:       StateOK,
		Transaction: reqHdr.Transaction,
	}
	if err := slot.conn.Transmit(tx); err != nil {
		_ = slot.pool.Release(tx)
	}
}
