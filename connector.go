package cifx

import (
	"sync"

	"github.com/google/uuid"
)

// ConnectorMode enables or disables ingress processing for a connector.
type ConnectorMode int

const (
	ConnectorEnabled ConnectorMode = iota
	ConnectorDisabled
)

// ModeAll is the sentinel connector index meaning "every registered connector".
const ModeAll = 0xFFFFFFFF

// Connector is the external collaborator contract (§4.4, §6.2's "Deliberately
// OUT of scope" list): the core calls Transmit to hand a filled buffer to the
// wire and Deinit on teardown; Poll is optional and is invoked from the
// timer tick (§4.8). A concrete implementation owns the actual byte stream
// (see tcpconn.go for the reference TCP connector).
type Connector interface {
	// Transmit hands buf to the wire. The implementation must eventually call
	// the marshaller's TxComplete(connectorIndex, buf) to release buf back to
	// its free-list, whether the send succeeded or failed.
	Transmit(buf *Buffer) error
	// Deinit shuts the connector down.
	Deinit()
}

// Poller is optionally implemented by a Connector that wants a callback on
// every timer tick (§4.8).
type Poller interface {
	Poll()
}

// ConnectorParams parameterises RegisterConnector (§4.4, §6.5).
type ConnectorParams struct {
	Conn            Connector
	RxCount         int
	RxSize          int
	TxCount         int
	TxSize          int
	FrameTimeoutMs  int // per-frame Rx assembly timeout; 0 disables
}

// connectorSlot holds everything the core keeps about one registered
// connector: its buffer pool, its receive state machine, and the mode gate
// evaluated at the ingress entry point (§4.4). The marshaller owns this
// slot and hands the Connector only a borrowed reference at each callback,
// avoiding the cyclic connector<->core ownership the original C exhibits
// (see SPEC_FULL.md Design Notes, §9).
type connectorSlot struct {
	mu sync.Mutex

	index int
	id    string // uuid, for correlating log lines across lifecycle events
	conn  Connector
	pool  *BufferPool
	rx    *rxState

	mode           ConnectorMode
	frameTimeoutMs int

	lastKeepAliveComID uint32
	sequenceNr         uint8
}

// nextSequenceNr returns the sequence number for the next server-originated
// frame on this connector and advances the counter (§3.1: "monotonic per
// connector, increments with every frame transmitted by the originator" —
// the gateway is the originator of ACKs, KeepAlive replies, and admin
// replies). Callers run inside the Rx critical section (slot.mu already
// held by RxData), so this does not lock. It wraps on overflow
// like the wire field it feeds.
func (s *connectorSlot) nextSequenceNr() uint8 {
	n := s.sequenceNr
	s.sequenceNr++
	return n
}

func newConnectorSlot(index int, p ConnectorParams) *connectorSlot {
	return &connectorSlot{
		index: index,
		id:    uuid.NewString(),
		conn:  p.Conn,
		pool: NewBufferPool(index, BufferPoolParams{
			RxCount: p.RxCount, RxSize: p.RxSize, TxCount: p.TxCount, TxSize: p.TxSize,
		}),
		rx:             newRxState(),
		mode:           ConnectorEnabled,
		frameTimeoutMs: p.FrameTimeoutMs,
	}
}
