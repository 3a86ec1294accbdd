package cifx

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// ServerName is reported in the QueryServer admin reply (§4.6).
const ServerName = "cifx-gatewayd"

// ServerVersion is the fixed ClassFactory.ServerVersion value (§4.5.1).
const ServerVersion uint32 = 0x00090000

// Marshaller is the top-level core (C1, C5-C11 from §2's component table):
// it owns the connector table, the buffer pools inside each connector slot,
// the transport registry and its built-in admin handlers, the request
// queue, the device/handle table and the keep-alive state machine. Its
// locks (connMu, queueMu and each connector slot's mu) are scoped to this
// instance rather than the process -- every exported method is safe for
// concurrent use by the ingress, timer and dispatcher goroutines described
// in §5.
type Marshaller struct {
	log *logrus.Entry

	metrics Metrics
	tickMs  int

	connMu     sync.RWMutex
	connectors []*connectorSlot

	registry *TransportRegistry

	queueMu sync.Mutex
	queue   []*Buffer
	onReq   func() // notification callback fired when a frame is enqueued (§4.5)

	devices *deviceTable
	driver  Driver

	keepAlive keepAliveState

	// driverRefs counts outstanding client-level Driver.Open calls (§4.9);
	// the underlying library connection was already opened once by
	// buildDeviceTable and is torn down only at marshaller Close.
	driverRefs uint32
}

// MarshallerParams supplies the mandatory construction-time collaborators.
type MarshallerParams struct {
	Driver Driver
}

// NewMarshaller builds a Marshaller, rejects a nil driver (§6.3), enumerates boards/channels into the device table (§4.9),
// and registers the built-in admin handlers (§4.6). opts tune buffer sizes,
// tick cadence and ambient collaborators (logger, metrics) via the
// functional-options pattern.
func NewMarshaller(params MarshallerParams, opts ...Option) (*Marshaller, error) {
	if err := validateDriver(params.Driver); err != nil {
		return nil, err
	}

	cfg := applyConfig(opts)

	m := &Marshaller{
		log:      cfg.logger.WithField("component", "marshaller"),
		metrics:  cfg.metrics,
		tickMs:   cfg.tickMs,
		registry: newTransportRegistry(),
		driver:   params.Driver,
	}

	devices, err := buildDeviceTable(params.Driver)
	if err != nil {
		return nil, err
	}
	m.devices = devices

	m.keepAlive.clientTimeoutMs = cfg.keepAliveClientTimeoutMs
	m.keepAlive.serverTimeoutMs = cfg.keepAliveServerTimeoutMs

	if err := m.registry.Register(DataTypeMarshaller, m.dispatchMarshallerFrame, nil); err != nil {
		return nil, err
	}

	m.log.WithField("boards", len(devices.entries)).Info("marshaller initialized")
	return m, nil
}

// RegisterConnector installs a new connector instance and allocates its
// buffer pool, returning its index (§6.5).
func (m *Marshaller) RegisterConnector(p ConnectorParams) (int, error) {
	m.connMu.Lock()
	defer m.connMu.Unlock()

	slot := newConnectorSlot(len(m.connectors), p)
	m.connectors = append(m.connectors, slot)
	if b, ok := p.Conn.(connectorBinder); ok {
		b.bind(m, slot.index)
	}
	m.metrics.IncrementConnectorsRegistered()
	m.log.WithFields(logrus.Fields{"connector": slot.index, "id": slot.id}).Info("connector registered")
	return slot.index, nil
}

// UnregisterConnector tears a connector down. Any request-queue entries
// already enqueued for this connector are left in place; dispatch
// re-validates the registry at drain time and the frame's origin rather than
// draining synchronously here (see the unregister-race Open Question in
// SPEC_FULL.md).
func (m *Marshaller) UnregisterConnector(index int) error {
	m.connMu.Lock()
	defer m.connMu.Unlock()

	if index < 0 || index >= len(m.connectors) || m.connectors[index] == nil {
		return ErrUnknownConnector
	}
	slot := m.connectors[index]
	m.connectors[index] = nil
	slot.conn.Deinit()
	m.log.WithField("connector", index).Info("connector unregistered")
	return nil
}

// Close tears every registered connector down and then the device table
// (§3.3, §4.9's teardown procedure): every outstanding library handle is
// closed via the Driver before the Driver itself is closed. Close is meant
// to be called once, at process shutdown.
func (m *Marshaller) Close() error {
	m.connMu.Lock()
	for i, slot := range m.connectors {
		if slot != nil {
			slot.conn.Deinit()
			m.connectors[i] = nil
		}
	}
	m.connMu.Unlock()

	m.devices.teardown(m.driver)
	m.log.Info("marshaller closed")
	return nil
}

// SetMode enables or disables one connector, or every connector when index
// is ModeAll (§6.5).
func (m *Marshaller) SetMode(index uint32, mode ConnectorMode) error {
	m.connMu.RLock()
	defer m.connMu.RUnlock()

	if index == ModeAll {
		for _, s := range m.connectors {
			if s != nil {
				s.mu.Lock()
				s.mode = mode
				s.mu.Unlock()
			}
		}
		return nil
	}
	if int(index) >= len(m.connectors) || m.connectors[index] == nil {
		return ErrUnknownConnector
	}
	s := m.connectors[index]
	s.mu.Lock()
	s.mode = mode
	s.mu.Unlock()
	return nil
}

// OnRequest installs the notification callback fired whenever a frame lands
// on the request queue (§4.5); user code typically wakes a dispatcher
// goroutine from it.
func (m *Marshaller) OnRequest(fn func()) { m.onReq = fn }

func (m *Marshaller) slot(index int) *connectorSlot {
	m.connMu.RLock()
	defer m.connMu.RUnlock()
	if index < 0 || index >= len(m.connectors) {
		return nil
	}
	return m.connectors[index]
}

func (m *Marshaller) enqueue(buf *Buffer) {
	m.queueMu.Lock()
	m.queue = append(m.queue, buf)
	cb := m.onReq
	m.queueMu.Unlock()
	m.metrics.IncrementRequestsQueued()
	if cb != nil {
		cb()
	}
}

// DispatchOne drains one request from the queue, invokes its registered
// handler, and transmits the reply (§4.5 steps 1-4). It returns
// ErrQueueEmpty if nothing is pending.
func (m *Marshaller) DispatchOne() error {
	m.queueMu.Lock()
	if len(m.queue) == 0 {
		m.queueMu.Unlock()
		return ErrQueueEmpty
	}
	buf := m.queue[0]
	m.queue = m.queue[1:]
	m.queueMu.Unlock()

	desc, ok := m.registry.lookup(buf.Header.DataType)
	if !ok {
		// The transport was unregistered after this frame was enqueued.
		slot := m.slot(buf.Connector)
		if slot != nil {
			_ = slot.pool.Release(buf)
		}
		m.log.WithField("data_type", buf.Header.DataType).Warn("dropping frame: transport gone")
		return ErrTransportGone
	}

	replyLen := desc.handler(buf)

	buf.UsedLength = replyLen
	buf.Header.Length = uint32(replyLen)
	buf.Header.Checksum = CRC16(buf.Payload[:replyLen])
	buf.Header.State = StateOK

	slot := m.slot(buf.Connector)
	if slot == nil {
		return ErrTransportGone
	}
	if err := slot.conn.Transmit(buf); err != nil {
		_ = slot.pool.Release(buf)
		return err
	}
	m.metrics.IncrementRequestsDispatched()
	return nil
}

// TxComplete releases buf back to its originating free-list once a
// Connector implementation has finished sending it (§4.4's transmit
// contract).
func (m *Marshaller) TxComplete(connIdx int, buf *Buffer) {
	slot := m.slot(connIdx)
	if slot == nil {
		return
	}
	_ = slot.pool.Release(buf)
}
