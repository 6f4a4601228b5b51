// Command mavrelay runs the MAVLink multi-link router: it binds the
// configured udpin/udpout/tcpout/serial endpoints, routes frames between
// them per §4.4, and unconditionally reports its own HEARTBEAT at 1Hz on
// every connection.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/skywire/mavrelay/internal/adapter"
	"github.com/skywire/mavrelay/internal/connstring"
	"github.com/skywire/mavrelay/internal/mavlink/common"
	"github.com/skywire/mavrelay/internal/metrics"
	"github.com/skywire/mavrelay/internal/router"
	"github.com/skywire/mavrelay/internal/serialport"
	"github.com/skywire/mavrelay/internal/wire"
)

const heartbeatInterval = time.Second

func main() {
	cfg, showVersion := parseFlags()
	if showVersion {
		fmt.Printf("mavrelay %s (commit %s, built %s)\n", version, commit, date)
		return
	}
	l := setupLogger(cfg.logFormat, cfg.logLevel)

	r, err := router.New(common.Dispatch, uint8(cfg.systemID), uint8(cfg.componentID))
	if err != nil {
		l.Error("router_init_error", "error", err)
		os.Exit(1)
	}
	defer r.Close()

	specs, err := connstring.ParseAll(cfg.endpoints)
	if err != nil {
		l.Error("endpoint_parse_error", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup
	startMetricsLogger(ctx, cfg.logMetricsEvery, l, &wg)

	pool := serialport.New()
	closers, udpinPort, startErr := startAdapters(r, pool, specs, l)
	if startErr != nil {
		l.Error("adapter_start_error", "error", startErr)
		os.Exit(1)
	}
	defer closeAll(closers)

	go runHeartbeat(ctx, r, &wg)

	if udpinPort > 0 {
		cleanupMDNS, mErr := startMDNS(ctx, cfg, udpinPort)
		if mErr != nil {
			l.Warn("mdns_start_failed", "error", mErr)
		} else {
			l.Info("mdns_started", "service", mdnsServiceType, "port", udpinPort)
			defer cleanupMDNS()
		}
	}

	metrics.SetReadinessFunc(func() bool { return ctx.Err() == nil })
	if cfg.metricsAddr != "" {
		metrics.InitBuildInfo(version, commit, date)
		srvHTTP := metrics.StartHTTP(cfg.metricsAddr)
		defer func() { _ = srvHTTP.Shutdown(context.Background()) }()
	}

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigCh
	l.Info("shutdown_signal", "signal", s.String())
	cancel()
	wg.Wait()
}

// startAdapters opens one connection adapter per spec, registering each
// with r. It returns their Close funcs (in open order) plus the bound port
// of a udpin listener, if any, for mDNS advertisement.
func startAdapters(r *router.Router, pool *serialport.Pool, specs []connstring.Spec, l *slog.Logger) ([]func(), int, error) {
	var closers []func()
	udpinPort := 0
	for _, spec := range specs {
		switch spec.Kind {
		case connstring.UDPIn:
			u, err := adapter.ListenUDPIn(r, common.Dispatch, spec.Host, spec.Port)
			if err != nil {
				closeAll(closers)
				return nil, 0, err
			}
			closers = append(closers, func() { _ = u.Close() })
			udpinPort = spec.Port
			l.Info("adapter_started", "kind", "udpin", "host", spec.Host, "port", spec.Port)

		case connstring.UDPOut:
			u, err := adapter.DialUDPOut(r, common.Dispatch, spec.Host, spec.Port)
			if err != nil {
				closeAll(closers)
				return nil, 0, err
			}
			closers = append(closers, func() { _ = u.Close() })
			l.Info("adapter_started", "kind", "udpout", "host", spec.Host, "port", spec.Port)

		case connstring.TCPOut:
			addr := spec.Host + ":" + strconv.Itoa(spec.Port)
			t := adapter.DialTCPOut(r, common.Dispatch, addr)
			closers = append(closers, t.Close)
			l.Info("adapter_started", "kind", "tcpout", "addr", addr)

		case connstring.Serial:
			s := adapter.OpenSerial(r, common.Dispatch, pool, spec.Device, spec.Baud)
			closers = append(closers, s.Close)
			l.Info("adapter_started", "kind", "serial", "device", spec.Device, "baud", spec.Baud)
		}
	}
	return closers, udpinPort, nil
}

// closeAll closes adapters in reverse of the order they were opened.
func closeAll(closers []func()) {
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
}

// runHeartbeat sends this process's own HEARTBEAT at 1Hz until ctx is done,
// exercising the router's local send path (§4.4 step 1-3) independently of
// any inbound traffic.
func runHeartbeat(ctx context.Context, r *router.Router, wg *sync.WaitGroup) {
	wg.Add(1)
	defer wg.Done()
	t := time.NewTicker(heartbeatInterval)
	defer t.Stop()
	msg := common.HeartbeatMessage{
		Type:           uint8(common.MavTypeGCS),
		Autopilot:      0,
		BaseMode:       0,
		SystemStatus:   4, // MAV_STATE_ACTIVE
		MavlinkVersion: 3,
	}
	for {
		select {
		case <-t.C:
			_ = r.Send(common.HeartbeatID, common.HeartbeatMessageCodec, msg, wire.V2)
		case <-ctx.Done():
			return
		}
	}
}
