package cifx

import (
	"github.com/sirupsen/logrus"
)

const (
	// DefaultTickMs is the recommended timer tick period (§4.8).
	DefaultTickMs = 10
	// DefaultFrameTimeoutMs is the default per-frame Rx assembly timeout.
	DefaultFrameTimeoutMs = 2000
	// DefaultKeepAliveClientTimeoutMs is the advisory client-side keep-alive timeout (§4.7).
	DefaultKeepAliveClientTimeoutMs = 500
	// DefaultKeepAliveServerTimeoutMs is the advisory server-side keep-alive timeout (§4.7).
	DefaultKeepAliveServerTimeoutMs = 2000
	// DefaultListenPort is the cifX transport's conventional TCP port (§6.2).
	DefaultListenPort = 50111
)

// Option configures a Marshaller at construction time, mirroring the
// functional-options pattern used throughout this codebase's predecessor.
type Option func(*config)

type config struct {
	logger  *logrus.Logger
	metrics Metrics
	tickMs  int

	keepAliveClientTimeoutMs int
	keepAliveServerTimeoutMs int
}

func defaultConfig() *config {
	return &config{
		logger:                   logrus.StandardLogger(),
		metrics:                  NewDefaultMetrics(),
		tickMs:                   DefaultTickMs,
		keepAliveClientTimeoutMs: DefaultKeepAliveClientTimeoutMs,
		keepAliveServerTimeoutMs: DefaultKeepAliveServerTimeoutMs,
	}
}

func applyConfig(opts []Option) *config {
	cfg := defaultConfig()
	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

// WithLogger sets the logrus logger used for lifecycle and error events. A
// nil logger is ignored and the standard logger is kept.
func WithLogger(l *logrus.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics sets a custom metrics implementation. If not provided, a
// default implementation backed by atomic counters is used.
func WithMetrics(m Metrics) Option {
	return func(c *config) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithTickMs overrides the expected timer cadence used to scale the
// per-frame timeout monitor (§4.8). Callers must still invoke Tick at this
// rate themselves; this only affects elapsed-time accounting.
func WithTickMs(ms int) Option {
	return func(c *config) {
		if ms > 0 {
			c.tickMs = ms
		}
	}
}

// WithKeepAliveTimeouts overrides the advisory client/server keep-alive
// timeouts (§4.7). These are informational only; the marshaller never
// actively closes a connection on keep-alive miss.
func WithKeepAliveTimeouts(clientMs, serverMs int) Option {
	return func(c *config) {
		if clientMs > 0 {
			c.keepAliveClientTimeoutMs = clientMs
		}
		if serverMs > 0 {
			c.keepAliveServerTimeoutMs = serverMs
		}
	}
}
