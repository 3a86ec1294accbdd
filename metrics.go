package cifx

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks gateway-level counters. Handlers and the core call
// Increment*; collectors (or a Prometheus registry) read via Get*, following
// the same increment/read split as the rest of this codebase's metrics
// surface.
type Metrics interface {
	IncrementConnectorsRegistered()
	IncrementFramesReceived()
	IncrementFramesRejected(state TransportState)
	IncrementRequestsQueued()
	IncrementRequestsDispatched()
	IncrementBytesSent(n int64)
	IncrementBytesReceived(n int64)

	GetConnectorsRegistered() int64
	GetFramesReceived() int64
	GetRequestsQueued() int64
	GetRequestsDispatched() int64
	GetBytesSent() int64
	GetBytesReceived() int64
}

// DefaultMetrics implements Metrics with plain atomic counters, the same
// approach this codebase has always used when no external collector is
// wired in.
type DefaultMetrics struct {
	connectorsRegistered int64
	framesReceived       int64
	requestsQueued       int64
	requestsDispatched   int64
	bytesSent            int64
	bytesReceived        int64
}

// NewDefaultMetrics creates a new DefaultMetrics instance.
func NewDefaultMetrics() *DefaultMetrics { return &DefaultMetrics{} }

func (m *DefaultMetrics) IncrementConnectorsRegistered() { atomic.AddInt64(&m.connectorsRegistered, 1) }
func (m *DefaultMetrics) IncrementFramesReceived()       { atomic.AddInt64(&m.framesReceived, 1) }
func (m *DefaultMetrics) IncrementFramesRejected(TransportState) {
	atomic.AddInt64(&m.framesReceived, 0) // rejected frames are not counted here; see PromMetrics for a labeled variant
}
func (m *DefaultMetrics) IncrementRequestsQueued()     { atomic.AddInt64(&m.requestsQueued, 1) }
func (m *DefaultMetrics) IncrementRequestsDispatched() { atomic.AddInt64(&m.requestsDispatched, 1) }
func (m *DefaultMetrics) IncrementBytesSent(n int64)   { atomic.AddInt64(&m.bytesSent, n) }
func (m *DefaultMetrics) IncrementBytesReceived(n int64) {
	atomic.AddInt64(&m.bytesReceived, n)
}

func (m *DefaultMetrics) GetConnectorsRegistered() int64 {
	return atomic.LoadInt64(&m.connectorsRegistered)
}
func (m *DefaultMetrics) GetFramesReceived() int64     { return atomic.LoadInt64(&m.framesReceived) }
func (m *DefaultMetrics) GetRequestsQueued() int64     { return atomic.LoadInt64(&m.requestsQueued) }
func (m *DefaultMetrics) GetRequestsDispatched() int64 { return atomic.LoadInt64(&m.requestsDispatched) }
func (m *DefaultMetrics) GetBytesSent() int64          { return atomic.LoadInt64(&m.bytesSent) }
func (m *DefaultMetrics) GetBytesReceived() int64      { return atomic.LoadInt64(&m.bytesReceived) }

// PromMetrics is a Metrics implementation backed by Prometheus collectors,
// registered against a caller-supplied registry and served over HTTP by
// cmd/cifx-gatewayd's -metrics-addr flag.
type PromMetrics struct {
	connectorsRegistered prometheus.Counter
	framesReceived       prometheus.Counter
	framesRejected       *prometheus.CounterVec
	requestsQueued       prometheus.Counter
	requestsDispatched   prometheus.Counter
	bytesSent            prometheus.Counter
	bytesReceived        prometheus.Counter
}

// NewPromMetrics registers cifX gateway counters against reg and returns a
// Metrics implementation backed by them.
func NewPromMetrics(reg prometheus.Registerer) *PromMetrics {
	pm := &PromMetrics{
		connectorsRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cifx", Name: "connectors_registered_total",
			Help: "Connectors registered since process start.",
		}),
		framesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cifx", Name: "frames_received_total",
			Help: "Frames that completed header+payload assembly.",
		}),
		framesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cifx", Name: "frames_rejected_total",
			Help: "Frames rejected by the receive state machine, by transport state code.",
		}, []string{"state"}),
		requestsQueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cifx", Name: "requests_queued_total",
			Help: "Frames handed to the request queue.",
		}),
		requestsDispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cifx", Name: "requests_dispatched_total",
			Help: "Requests drained and dispatched to a handler.",
		}),
		bytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cifx", Name: "bytes_sent_total", Help: "Bytes transmitted to clients.",
		}),
		bytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cifx", Name: "bytes_received_total", Help: "Bytes received from clients.",
		}),
	}
	reg.MustRegister(pm.connectorsRegistered, pm.framesReceived, pm.framesRejected,
		pm.requestsQueued, pm.requestsDispatched, pm.bytesSent, pm.bytesReceived)
	return pm
}

func (m *PromMetrics) IncrementConnectorsRegistered() { m.connectorsRegistered.Inc() }
func (m *PromMetrics) IncrementFramesReceived()       { m.framesReceived.Inc() }
func (m *PromMetrics) IncrementFramesRejected(state TransportState) {
	m.framesRejected.WithLabelValues(hex32(uint32(state))).Inc()
}
func (m *PromMetrics) IncrementRequestsQueued()       { m.requestsQueued.Inc() }
func (m *PromMetrics) IncrementRequestsDispatched()   { m.requestsDispatched.Inc() }
func (m *PromMetrics) IncrementBytesSent(n int64)     { m.bytesSent.Add(float64(n)) }
func (m *PromMetrics) IncrementBytesReceived(n int64) { m.bytesReceived.Add(float64(n)) }

// GetConnectorsRegistered and the rest of the Get* accessors are not
// supported by the Prometheus-backed implementation: counters are scraped
// through the registry, not read back in-process. They return 0.
func (m *PromMetrics) GetConnectorsRegistered() int64 { return 0 }
func (m *PromMetrics) GetFramesReceived() int64       { return 0 }
func (m *PromMetrics) GetRequestsQueued() int64       { return 0 }
func (m *PromMetrics) GetRequestsDispatched() int64   { return 0 }
func (m *PromMetrics) GetBytesSent() int64            { return 0 }
func (m *PromMetrics) GetBytesReceived() int64        { return 0 }
