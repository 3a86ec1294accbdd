// Command cifx-gatewayd runs the cifX marshaller transport over TCP,
// dispatching requests against a Driver implementation.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cifx "github.com/hilscher-community/cifx-gatewayd"
	"github.com/hilscher-community/cifx-gatewayd/internal/gwlog"
)

func main() {
	addr := flag.String("listen", fmt.Sprintf(":%d", cifx.DefaultListenPort), "TCP address to listen on")
	metricsAddr := flag.String("metrics-addr", "", "address to serve Prometheus metrics on (disabled if empty)")
	rxCount := flag.Int("rx-buffers", 4, "number of receive buffers per connector")
	rxSize := flag.Int("rx-size", 4096, "receive buffer size in bytes")
	txCount := flag.Int("tx-buffers", 4, "number of transmit buffers per connector")
	txSize := flag.Int("tx-size", 4096, "transmit buffer size in bytes")
	tickMs := flag.Int("tick-ms", cifx.DefaultTickMs, "timer tick period in milliseconds")
	frameTimeoutMs := flag.Int("frame-timeout-ms", cifx.DefaultFrameTimeoutMs, "per-frame assembly timeout in milliseconds")
	idleTimeout := flag.Duration("idle-timeout", 0, "close a client connection after this much read inactivity (0 disables)")
	dryRun := flag.Bool("dry-run", false, "use the built-in zero-board NullDriver instead of a real driver")
	flag.Parse()

	if !*dryRun {
		fmt.Fprintln(os.Stderr, "cifx-gatewayd: no real Driver wired in; pass -dry-run to use NullDriver, or embed this package with your own Driver")
		os.Exit(2)
	}

	log := gwlog.New()

	opts := []cifx.Option{
		cifx.WithLogger(log),
		cifx.WithTickMs(*tickMs),
	}
	var reg *prometheus.Registry
	if *metricsAddr != "" {
		reg = prometheus.NewRegistry()
		opts = append(opts, cifx.WithMetrics(cifx.NewPromMetrics(reg)))
	}

	m, err := cifx.NewMarshaller(cifx.MarshallerParams{Driver: cifx.NullDriver{}}, opts...)
	if err != nil {
		log.WithError(err).Fatal("failed to build marshaller")
	}

	conn := cifx.NewTCPConnector(cifx.TCPConnectorParams{
		Addr:            *addr,
		IdleReadTimeout: *idleTimeout,
		Logger:          log.WithField("component", "tcp-connector"),
	})

	if _, err := m.RegisterConnector(cifx.ConnectorParams{
		Conn:           conn,
		RxCount:        *rxCount,
		RxSize:         *rxSize,
		TxCount:        *txCount,
		TxSize:         *txSize,
		FrameTimeoutMs: *frameTimeoutMs,
	}); err != nil {
		log.WithError(err).Fatal("failed to register connector")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	notify := make(chan struct{}, 1)
	m.OnRequest(func() {
		select {
		case notify <- struct{}{}:
		default:
		}
	})

	go runDispatcher(ctx, m, notify)
	go runTicker(ctx, m, time.Duration(*tickMs)*time.Millisecond)

	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: *metricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("metrics server stopped")
			}
		}()
		go func() {
			<-ctx.Done()
			_ = srv.Close()
		}()
		log.WithField("addr", *metricsAddr).Info("serving metrics")
	}

	log.WithField("addr", *addr).Info("starting cifx-gatewayd")
	serveErr := conn.Serve(ctx)
	if err := m.Close(); err != nil {
		log.WithError(err).Error("marshaller close failed")
	}
	if serveErr != nil && ctx.Err() == nil {
		log.WithError(serveErr).Fatal("tcp connector stopped")
	}
	log.Info("shut down")
}

func runDispatcher(ctx context.Context, m *cifx.Marshaller, notify <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-notify:
			for {
				if err := m.DispatchOne(); err != nil {
					break
				}
			}
		}
	}
}

func runTicker(ctx context.Context, m *cifx.Marshaller, period time.Duration) {
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.Tick()
		}
	}
}
