// Package adapter implements the per-transport connection adapters (§4.3):
// udpin, udpout, tcpout and serial. Each adapter reframes its transport's
// byte stream into wire.Frame values and calls back into a Router via
// router.HandleFrame/AddConnection/RemoveConnection; none of them learn
// routes or apply dispatch policy themselves.
package adapter

import (
	"errors"

	"github.com/skywire/mavrelay/internal/metrics"
)

// Sentinel errors used for wrapping so callers can classify via errors.Is,
// for metrics classification.
var (
	ErrListen     = errors.New("adapter: listen")
	ErrDial       = errors.New("adapter: dial")
	ErrRead       = errors.New("adapter: read")
	ErrWrite      = errors.New("adapter: write")
	ErrTxOverflow = errors.New("adapter: tx overflow")
)

// mapErrToMetric maps wrapped sentinel errors to metrics labels so callers
// can classify I/O failures by kind for metrics purposes.
func mapErrToMetric(err error) string {
	switch {
	case errors.Is(err, ErrRead):
		return metrics.ErrRead
	case errors.Is(err, ErrWrite):
		return metrics.ErrWrite
	case errors.Is(err, ErrListen):
		return metrics.ErrListen
	case errors.Is(err, ErrDial):
		return metrics.ErrDial
	default:
		return "other"
	}
}
