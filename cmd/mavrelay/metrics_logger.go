package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/skywire/mavrelay/internal/metrics"
)

// startMetricsLogger periodically logs the metrics snapshot, for
// deployments that don't scrape the /metrics HTTP endpoint.
func startMetricsLogger(ctx context.Context, interval time.Duration, l *slog.Logger, wg *sync.WaitGroup) {
	if interval <= 0 {
		return
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				snap := metrics.Snap()
				l.Info("metrics_snapshot",
					"frames_rx", snap.FramesRx,
					"frames_tx", snap.FramesTx,
					"dropped", snap.Dropped,
					"unknown_messages", snap.UnknownMessages,
					"errors", snap.Errors,
					"routes", snap.Routes,
					"connections", snap.Connections,
					"subscriptions", snap.Subscriptions,
				)
			case <-ctx.Done():
				return
			}
		}
	}()
}
