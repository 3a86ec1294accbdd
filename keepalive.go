package cifx

import "sync/atomic"

// keepAliveState holds the advisory timeouts and the nonce generator shared
// across every connector's keep-alive handshake (§4.7).
type keepAliveState struct {
	clientTimeoutMs int
	serverTimeoutMs int
	nonce           uint32 // monotonically bumped to mint fresh non-zero ComIDs
}

func (k *keepAliveState) nextComID(avoid uint32) uint32 {
	for {
		v := atomic.AddUint32(&k.nonce, 1)
		if v != 0 && v != avoid {
			return v
		}
	}
}

// handleKeepAlive implements the keep-alive handshake (§4.7). It is called
// with slot.mu already held by the caller (onFrameComplete), consistent with
// every other admin/transport state-code decision living inside the Rx
// critical section.
func (m *Marshaller) handleKeepAlive(slot *connectorSlot, hdr TransportHeader, buf *Buffer) {
	if hdr.Length != KeepAlivePayloadSize {
		m.sendAck(slot, hdr, StateLengthIncomplete)
		return
	}

	clientComID := decodeComID(buf.Payload[:buf.UsedLength])

	var replyComID uint32
	switch {
	case clientComID == 0:
		replyComID = m.keepAlive.nextComID(slot.lastKeepAliveComID)
		slot.lastKeepAliveComID = replyComID
	case clientComID == slot.lastKeepAliveComID && slot.lastKeepAliveComID != 0:
		replyComID = clientComID
	default:
		m.sendAck(slot, hdr, StateKeepAliveError)
		return
	}

	m.sendAck(slot, hdr, StateOK)
	m.sendKeepAliveReply(slot, hdr, replyComID)
}

func (m *Marshaller) sendKeepAliveReply(slot *connectorSlot, reqHdr TransportHeader, comID uint32) {
	tx, err := slot.pool.Acquire(BufKeepAlive)
	if err != nil {
		// The KeepAlive pool has exactly one buffer (§4.1); if it is still
		// owned by an in-flight send the reply is simply skipped this round,
		// matching "at most one outstanding keep-alive per connector".
		return
	}
	encodeComID(tx.Payload[:KeepAlivePayloadSize], comID)
	tx.UsedLength = KeepAlivePayloadSize
	tx.Header = TransportHeader{
		Cookie:      TransportCookie,
		Length:      KeepAlivePayloadSize,
		Checksum:    CRC16(tx.Payload[:KeepAlivePayloadSize]),
		DataType:    DataTypeKeepAlive,
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

func decodeComID(payload []byte) uint32 {
	if len(payload) < 4 {
		return 0
	}
	return uint32(payload[0]) | uint32(payload[1])<<8 | uint32(payload[2])<<16 | uint32(payload[3])<<24
}

func encodeComID(dst []byte, v uint32) {
	dst[0] = byte(v)
	dst[1] = byte(v >> 8)
	dst[2] = byte(v >> 16)
	dst[3] = byte(v >> 24)
}
