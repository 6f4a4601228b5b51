// Package metrics exposes the router's Prometheus counters/gauges plus a
// cheap in-process snapshot for non-Prometheus deployments: every series is
// registered via promauto and mirrored into an atomic Snapshot so call
// sites never have to scrape their own counters back.
package metrics

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/skywire/mavrelay/internal/logging"
)

// Prometheus series, labeled by adapter kind ("udpin", "udpout", "tcpout",
// "serial") wherever a metric is per-connection-type.
var (
	FramesRx = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mavrelay_frames_rx_total",
		Help: "Total frames structurally parsed off the wire, by adapter kind.",
	}, []string{"adapter"})
	FramesTx = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mavrelay_frames_tx_total",
		Help: "Total frames successfully written to a connection, by adapter kind.",
	}, []string{"adapter"})
	FramesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mavrelay_frames_dropped_total",
		Help: "Total frames dropped, by reason (tx_overflow on send; failed_crc, not_a_frame on receive).",
	}, []string{"reason"})
	UnknownMessages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mavrelay_unknown_messages_total",
		Help: "Total frames whose message id has no entry in the loaded dialect.",
	})
	RouteTableSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mavrelay_route_table_size",
		Help: "Current number of learned (system,component) routes.",
	})
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mavrelay_active_connections",
		Help: "Current number of registered connections across all adapters.",
	})
	ActiveSubscriptions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mavrelay_active_subscriptions",
		Help: "Current number of local subscriptions.",
	})
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mavrelay_build_info",
		Help: "Build metadata (value is always 1).",
	}, []string{"version", "commit", "date"})
	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mavrelay_errors_total",
		Help: "Error counters by subsystem/kind.",
	}, []string{"where"})

	readinessMu sync.RWMutex
	readinessFn func() bool
)

// Error label constants (stable label values to bound cardinality).
const (
	ErrListen      = "listen"
	ErrDial        = "dial"
	ErrRead        = "read"
	ErrWrite       = "write"
	ErrSerialRead  = "serial_read"
	ErrSerialWrite = "serial_write"
)

// Drop reason constants, used with FramesDropped.
const (
	DropTxOverflow = "tx_overflow"
	DropFailedCRC  = "failed_crc"
	DropNotAFrame  = "not_a_frame"
)

// StartHTTP serves Prometheus metrics at /metrics and a readiness probe at
// /ready on addr.
func StartHTTP(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if IsReady() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready\n"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready\n"))
	})

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logging.L().Info("metrics_listen", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.L().Error("metrics_http_error", "error", err)
		}
	}()
	return srv
}

// Local mirrored counters, so non-Prometheus deployments can still log a
// periodic snapshot (cmd/mavrelay's -log-metrics-interval flag) without
// scraping their own HTTP endpoint.
var (
	localFramesRx    uint64
	localFramesTx    uint64
	localDropped     uint64
	localUnknownMsgs uint64
	localErrors      uint64
	localRoutes      uint64
	localConns       uint64
	localSubs        uint64
)

// Snapshot is a cheap copy of the local counters.
type Snapshot struct {
	FramesRx        uint64
	FramesTx        uint64
	Dropped         uint64
	UnknownMessages uint64
	Errors          uint64
	Routes          uint64
	Connections     uint64
	Subscriptions   uint64
}

func Snap() Snapshot {
	return Snapshot{
		FramesRx:        atomic.LoadUint64(&localFramesRx),
		FramesTx:        atomic.LoadUint64(&localFramesTx),
		Dropped:         atomic.LoadUint64(&localDropped),
		UnknownMessages: atomic.LoadUint64(&localUnknownMsgs),
		Errors:          atomic.LoadUint64(&localErrors),
		Routes:          atomic.LoadUint64(&localRoutes),
		Connections:     atomic.LoadUint64(&localConns),
		Subscriptions:   atomic.LoadUint64(&localSubs),
	}
}

// IncFrameRx records one frame parsed off the wire by the named adapter kind.
func IncFrameRx(adapter string) {
	FramesRx.WithLabelValues(adapter).Inc()
	atomic.AddUint64(&localFramesRx, 1)
}

// IncFrameTx records one frame written out by the named adapter kind.
func IncFrameTx(adapter string) {
	FramesTx.WithLabelValues(adapter).Inc()
	atomic.AddUint64(&localFramesTx, 1)
}

// IncDropped records one frame dropped for reason (see Drop* constants).
func IncDropped(reason string) {
	FramesDropped.WithLabelValues(reason).Inc()
	atomic.AddUint64(&localDropped, 1)
}

// IncUnknownMessage records one frame whose message id wasn't recognized.
func IncUnknownMessage() {
	UnknownMessages.Inc()
	atomic.AddUint64(&localUnknownMsgs, 1)
}

// IncError records one classified error under label (see Err* constants).
func IncError(label string) {
	Errors.WithLabelValues(label).Inc()
	atomic.AddUint64(&localErrors, 1)
}

// SetRouteTableSize records the router's current route count.
func SetRouteTableSize(n int) {
	RouteTableSize.Set(float64(n))
	atomic.StoreUint64(&localRoutes, uint64(n))
}

// SetActiveConnections records the router's current connection count.
func SetActiveConnections(n int) {
	ActiveConnections.Set(float64(n))
	atomic.StoreUint64(&localConns, uint64(n))
}

// SetActiveSubscriptions records the router's current subscription count.
func SetActiveSubscriptions(n int) {
	ActiveSubscriptions.Set(float64(n))
	atomic.StoreUint64(&localSubs, uint64(n))
}

// InitBuildInfo sets the build info gauge and pre-registers every error
// label series at 0, so the first real error doesn't pay first-write
// registration cost on the metrics scrape path.
func InitBuildInfo(version, commit, date string) {
	BuildInfo.WithLabelValues(version, commit, date).Set(1)
	for _, lbl := range []string{ErrListen, ErrDial, ErrRead, ErrWrite, ErrSerialRead, ErrSerialWrite} {
		Errors.WithLabelValues(lbl).Add(0)
	}
	for _, reason := range []string{DropTxOverflow, DropFailedCRC, DropNotAFrame} {
		FramesDropped.WithLabelValues(reason).Add(0)
	}
}

// SetReadinessFunc registers the function /ready and IsReady consult.
func SetReadinessFunc(fn func() bool) { readinessMu.Lock(); readinessFn = fn; readinessMu.Unlock() }

// IsReady invokes the registered readiness function, defaulting to true
// before one is registered so the endpoint doesn't flap during startup.
func IsReady() bool {
	readinessMu.RLock()
	fn := readinessFn
	readinessMu.RUnlock()
	if fn == nil {
		return true
	}
	return fn()
}

// Ready is a concise alias used at call sites.
func Ready() bool { return IsReady() }
