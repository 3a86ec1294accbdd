package cifx

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// connectorBinder is implemented by Connectors that need their marshaller
// and connector index at registration time, to route RxData/TxComplete
// calls back without the connector having to be constructed after its
// slot exists (§6.5, avoids the cyclic construction the reference driver's
// transport/device coupling otherwise forces).
type connectorBinder interface {
	bind(m *Marshaller, index int)
}

// TCPConnectorParams configures a TCPConnector (§6.2).
type TCPConnectorParams struct {
	// Addr is the listen address, e.g. ":50111". Empty binds DefaultListenPort
	// on every interface.
	Addr string
	// IdleReadTimeout closes the client connection if no bytes arrive within
	// this window; zero disables the deadline.
	IdleReadTimeout time.Duration
	Logger          *logrus.Entry
}

// TCPConnector is the reference Connector implementation (§6.2): a TCP
// listener accepting at most one client connection at a time, with
// TCP_NODELAY enabled and no TLS. A second connection attempt while a
// client is attached is rejected outright rather than displacing the
// current one.
type TCPConnector struct {
	addr        string
	idleTimeout time.Duration
	log         *logrus.Entry

	m     *Marshaller
	index int

	mu   sync.Mutex
	ln   net.Listener
	conn net.Conn

	backoff *AdaptivePoll
}

// NewTCPConnector builds a TCPConnector. Call Serve to start listening.
func NewTCPConnector(p TCPConnectorParams) *TCPConnector {
	addr := p.Addr
	if addr == "" {
		addr = fmt.Sprintf(":%d", DefaultListenPort)
	}
	log := p.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &TCPConnector{
		addr:        addr,
		idleTimeout: p.IdleReadTimeout,
		log:         log,
		backoff:     NewAdaptivePoll(DefaultAcceptBackoffFast, time.Second),
	}
}

func (t *TCPConnector) bind(m *Marshaller, index int) {
	t.m = m
	t.index = index
}

// Serve listens on Addr and runs the accept loop until ctx is cancelled or
// the listener fails. It blocks until both the accept loop and the
// cancellation watcher have returned.
func (t *TCPConnector) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", t.addr)
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.ln = ln
	t.mu.Unlock()
	t.log.WithField("addr", t.addr).Info("tcp connector listening")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		return ln.Close()
	})
	g.Go(func() error {
		return t.acceptLoop(ctx, ln)
	})
	return g.Wait()
}

func (t *TCPConnector) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			t.log.WithError(err).Warn("accept failed, backing off")
			t.backoff.Sleep()
			continue
		}
		t.backoff.Reset()

		t.mu.Lock()
		if t.conn != nil {
			t.mu.Unlock()
			t.log.Warn("rejecting connection: connector already has a client")
			_ = conn.Close()
			continue
		}
		if tc, ok := conn.(*net.TCPConn); ok {
			_ = tc.SetNoDelay(true)
		}
		t.conn = conn
		t.mu.Unlock()

		go t.readLoop(conn)
	}
}

func (t *TCPConnector) readLoop(conn net.Conn) {
	defer t.detach(conn)

	buf := make([]byte, 4096)
	for {
		if t.idleTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(t.idleTimeout))
		}
		n, err := conn.Read(buf)
		if n > 0 {
			t.m.RxData(t.index, buf[:n])
		}
		if err != nil {
			return
		}
	}
}

func (t *TCPConnector) detach(conn net.Conn) {
	t.mu.Lock()
	if t.conn == conn {
		t.conn = nil
	}
	t.mu.Unlock()
	_ = conn.Close()
}

// Transmit implements Connector: it writes the transport header followed by
// the payload to the current client connection and releases buf back to
// its free-list regardless of outcome (§4.4's transmit contract).
func (t *TCPConnector) Transmit(buf *Buffer) error {
	defer t.m.TxComplete(t.index, buf)

	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return ErrUnknownConnector
	}

	var hdr [TransportHeaderSize]byte
	buf.Header.Encode(hdr[:])
	if _, err := conn.Write(hdr[:]); err != nil {
		return err
	}
	if buf.UsedLength > 0 {
		if _, err := conn.Write(buf.Payload[:buf.UsedLength]); err != nil {
			return err
		}
	}
	t.m.metrics.IncrementBytesSent(int64(TransportHeaderSize + buf.UsedLength))
	return nil
}

// Deinit closes the listener and the attached client connection, if any.
func (t *TCPConnector) Deinit() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		_ = t.conn.Close()
		t.conn = nil
	}
	if t.ln != nil {
		_ = t.ln.Close()
	}
}
