package cifx

import "encoding/binary"

// rxScanState enumerates the receive state machine's states (§4.3).
type rxScanState int

const (
	scanSearchCookie rxScanState = iota
	scanSearchHeader
	scanWaitData
	scanCheckFrame
)

// rxState is the per-connector byte-driven frame locator and assembler. It
// holds no reference to the marshaller or connector; RxData (on Marshaller)
// drives it and supplies those collaborators explicitly, keeping the state
// machine itself trivially testable in isolation.
type rxState struct {
	state rxScanState

	cookieWindow uint32 // little-endian rolling 4-byte window
	cookieFilled int

	headerBuf [TransportHeaderSize]byte
	headerLen int

	cur *Buffer // current Rx/KeepAlive buffer being assembled; nil unless WaitData/CheckFrame

	monitorTimeout bool
	elapsedMs      int
}

func newRxState() *rxState {
	return &rxState{state: scanSearchCookie}
}

// reset clears the header accumulator, the offset and the timeout monitor,
// and releases the current buffer to its pool if one is still owned
// (invariant in §3.2: current Rx buffer != nil iff state in {WaitData, CheckFrame}).
func (r *rxState) reset(pool *BufferPool) {
	if r.cur != nil {
		_ = pool.Release(r.cur)
		r.cur = nil
	}
	r.state = scanSearchCookie
	r.cookieWindow = 0
	r.cookieFilled = 0
	r.headerLen = 0
	r.monitorTimeout = false
	r.elapsedMs = 0
}

// RxData feeds newly received bytes from the wire into the connector's
// receive state machine, driving buffer acquisition, checksum verification,
// ACK generation, admin handling, and request-queue enqueue as frames
// complete (§4.3). It is the ingress entry point referenced by §5's
// scheduling model; callers (concrete Connector implementations) invoke it
// from whatever thread performs the blocking socket read.
func (m *Marshaller) RxData(connIdx int, data []byte) {
	slot := m.slot(connIdx)
	if slot == nil {
		return
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()

	if slot.mode == ConnectorDisabled {
		return
	}

	for _, b := range data {
		m.feedByte(slot, b)
	}
}

func (m *Marshaller) feedByte(slot *connectorSlot, b byte) {
	r := slot.rx

	switch r.state {
	case scanSearchCookie:
		r.cookieWindow = (r.cookieWindow >> 8) | (uint32(b) << 24)
		if r.cookieFilled < 4 {
			r.cookieFilled++
		}
		if r.cookieFilled == 4 && littleEndianCookie(r.cookieWindow) == TransportCookie {
			r.state = scanSearchHeader
			r.headerLen = 0
			binary.LittleEndian.PutUint32(r.headerBuf[0:4], TransportCookie)
			r.headerLen = 4
			r.monitorTimeout = true
			r.elapsedMs = 0
		}

	case scanSearchHeader:
		r.headerBuf[r.headerLen] = b
		r.headerLen++
		if r.headerLen < TransportHeaderSize {
			return
		}
		m.onHeaderComplete(slot)

	case scanWaitData:
		r.cur.Payload[r.cur.UsedLength] = b
		r.cur.UsedLength++
		if uint32(r.cur.UsedLength) >= r.cur.Header.Length {
			r.state = scanCheckFrame
			m.onFrameComplete(slot)
		}

	case scanCheckFrame:
		// No bytes are consumed in this state; onFrameComplete transitions
		// straight back to SearchCookie or releases/enqueues synchronously.
	}
}

func littleEndianCookie(window uint32) uint32 {
	// window was built with the newest byte in the top 8 bits, so it already
	// holds the little-endian decode of the last four bytes. The byte swap
	// leaves TransportCookie unchanged because its four bytes read the same
	// in either order.
	return (window&0xFF)<<24 | (window&0xFF00)<<8 | (window&0xFF0000)>>8 | (window&0xFF000000)>>24
}

func (m *Marshaller) onHeaderComplete(slot *connectorSlot) {
	r := slot.rx
	hdr := DecodeTransportHeader(r.headerBuf[:])

	if hdr.DataType == DataTypeAcknowledge {
		// ACK carries no payload and needs no buffer; go straight back to
		// scanning for the next cookie.
		r.reset(slot.pool)
		return
	}

	bufType := BufRx
	if hdr.DataType == DataTypeKeepAlive {
		bufType = BufKeepAlive
	}

	buf, err := slot.pool.Acquire(bufType)
	if err != nil {
		m.metrics.IncrementFramesRejected(StateResourceError)
		m.sendAck(slot, hdr, StateResourceError)
		r.reset(slot.pool)
		return
	}

	if int(hdr.Length) > buf.Capacity() {
		m.metrics.IncrementFramesRejected(StateBufferOverflowError)
		m.sendAck(slot, hdr, StateBufferOverflowError)
		_ = slot.pool.Release(buf)
		r.reset(slot.pool)
		return
	}

	buf.Header = hdr
	r.cur = buf

	if hdr.Length == 0 {
		r.state = scanCheckFrame
		m.onFrameComplete(slot)
		return
	}
	r.state = scanWaitData
}

func (m *Marshaller) onFrameComplete(slot *connectorSlot) {
	r := slot.rx
	buf := r.cur
	hdr := buf.Header

	if hdr.Length > 0 && hdr.Checksum != 0 && CRC16(buf.Payload[:buf.UsedLength]) != hdr.Checksum {
		m.metrics.IncrementFramesRejected(StateChecksumError)
		m.sendAck(slot, hdr, StateChecksumError)
		r.reset(slot.pool)
		return
	}
	m.metrics.IncrementFramesReceived()
	m.metrics.IncrementBytesReceived(int64(TransportHeaderSize + buf.UsedLength))

	switch hdr.DataType {
	case DataTypeAcknowledge:
		r.reset(slot.pool)

	case DataTypeQueryServer:
		m.sendAck(slot, hdr, StateOK)
		m.handleQueryServer(slot, hdr)
		// buf was the Rx buffer that arrived empty; it carried no reply, release it.
		r.cur = nil
		_ = slot.pool.Release(buf)
		r.reset(slot.pool)

	case DataTypeQueryDevice:
		m.sendAck(slot, hdr, StateOK)
		m.handleQueryDevice(slot, hdr, buf.Payload[:buf.UsedLength])
		r.cur = nil
		_ = slot.pool.Release(buf)
		r.reset(slot.pool)

	case DataTypeKeepAlive:
		// The pool holds a single KeepAlive buffer and this request occupies
		// it; copy the request out and release the buffer first so the reply
		// can acquire it.
		req := &Buffer{UsedLength: buf.UsedLength, Payload: append([]byte(nil), buf.Payload[:buf.UsedLength]...)}
		r.cur = nil
		_ = slot.pool.Release(buf)
		m.handleKeepAlive(slot, hdr, req)
		r.reset(slot.pool)

	default:
		if _, ok := m.registry.lookup(hdr.DataType); !ok {
			m.metrics.IncrementFramesRejected(StateDataTypeUnknown)
			m.sendAck(slot, hdr, StateDataTypeUnknown)
			r.reset(slot.pool)
			return
		}
		m.sendAck(slot, hdr, StateOK)
		// Hand the buffer to the request queue; clear current-Rx so a later
		// reset() (on error or timeout) does not also release it.
		r.cur = nil
		m.enqueue(buf)
		r.state = scanSearchCookie
		r.cookieWindow = 0
		r.cookieFilled = 0
		r.monitorTimeout = false
	}
}

// sendAck builds and transmits a positive or negative acknowledgement
// directly from the ingress path, bypassing the request queue (§4.5,
// Control flow). Acks are over-provisioned (§4.1) so acquisition should
// always succeed; if it still fails the ack is silently dropped, matching
// the reference's documented fallback.
func (m *Marshaller) sendAck(slot *connectorSlot, reqHdr TransportHeader, state TransportState) {
	ack, err := slot.pool.Acquire(BufAck)
	if err != nil {
		return
	}
	ack.Header = TransportHeader{
		Cookie:      TransportCookie,
		Length:      0,
		Checksum:    0,
		DataType:    DataTypeAcknowledge,
		Device:      reqHdr.Device,
		Channel:     reqHdr.Channel,
		SequenceNr:  slot.nextSequenceNr(),
		State:       state,
		Transaction: reqHdr.Transaction,
	}
	ack.UsedLength = 0
	if err := slot.conn.Transmit(ack); err != nil {
		_ = slot.pool.Release(ack)
	}
}

// Tick advances the per-frame timeout monitor for every connector whose
// monitor_timeout flag is set, and invokes optional Poll callbacks (§4.8).
// The caller must invoke Tick at the configured rate (10ms nominal, §6.5).
func (m *Marshaller) Tick() {
	m.connMu.RLock()
	slots := make([]*connectorSlot, 0, len(m.connectors))
	for _, s := range m.connectors {
		if s != nil {
			slots = append(slots, s)
		}
	}
	m.connMu.RUnlock()

	for _, slot := range slots {
		slot.mu.Lock()
		if slot.rx.monitorTimeout {
			slot.rx.elapsedMs += m.tickMs
			if slot.frameTimeoutMs > 0 && slot.rx.elapsedMs > slot.frameTimeoutMs {
				slot.rx.reset(slot.pool)
			}
		}
		poller, hasPoll := slot.conn.(Poller)
		slot.mu.Unlock()

		if hasPoll {
			poller.Poll()
		}
	}
}
