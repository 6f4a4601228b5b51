// Package connstring parses and validates the router's connection-string
// arguments (§6): colon-separated tokens naming one transport adapter each.
package connstring

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
)

// Kind identifies which adapter a connection string names.
type Kind string

const (
	UDPIn   Kind = "udpin"
	UDPOut  Kind = "udpout"
	TCPOut  Kind = "tcpout"
	Serial  Kind = "serial"
)

// Startup errors (§7); an invalid connection string prevents the router
// from starting at all.
var (
	ErrInvalidProtocol   = errors.New("connstring: unknown protocol")
	ErrInvalidIPAddress  = errors.New("connstring: invalid ip address")
	ErrInvalidPort       = errors.New("connstring: invalid port")
	ErrInvalidBaud       = errors.New("connstring: invalid baud rate")
	ErrPortNotAttached   = errors.New("connstring: serial device not attached")
)

// Spec is one parsed and validated connection string.
type Spec struct {
	Kind   Kind
	Host   string // udpin/udpout/tcpout
	Port   int    // udpin/udpout/tcpout
	Device string // serial
	Baud   int    // serial
	Raw    string
}

// statFunc is overridable in tests so they don't depend on real device
// files existing on the test host.
var statFunc = os.Stat

// Parse validates one connection string of the form
// "<kind>:<arg>:<arg>" and returns its Spec.
func Parse(s string) (Spec, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return Spec{}, fmt.Errorf("%w: %q", ErrInvalidProtocol, s)
	}
	kind := Kind(parts[0])
	switch kind {
	case UDPIn, UDPOut, TCPOut:
		if len(parts) != 3 {
			return Spec{}, fmt.Errorf("%w: %q requires <kind>:<ip>:<port>", ErrInvalidProtocol, s)
		}
		host := parts[1]
		if net.ParseIP(host) == nil {
			return Spec{}, fmt.Errorf("%w: %q", ErrInvalidIPAddress, host)
		}
		port, err := strconv.Atoi(parts[2])
		if err != nil || port <= 0 || port > 65535 {
			return Spec{}, fmt.Errorf("%w: %q", ErrInvalidPort, parts[2])
		}
		return Spec{Kind: kind, Host: host, Port: port, Raw: s}, nil

	case Serial:
		if len(parts) != 3 {
			return Spec{}, fmt.Errorf("%w: %q requires serial:<device>:<baud>", ErrInvalidProtocol, s)
		}
		device := parts[1]
		if _, err := statFunc(device); err != nil {
			return Spec{}, fmt.Errorf("%w: %q: %v", ErrPortNotAttached, device, err)
		}
		baud, err := strconv.Atoi(parts[2])
		if err != nil || baud <= 0 {
			return Spec{}, fmt.Errorf("%w: %q", ErrInvalidBaud, parts[2])
		}
		return Spec{Kind: kind, Device: device, Baud: baud, Raw: s}, nil

	default:
		return Spec{}, fmt.Errorf("%w: %q", ErrInvalidProtocol, kind)
	}
}

// ParseAll validates every entry in strs, stopping at the first error so
// the caller can abort startup (§7: invalid connection strings are
// all-or-nothing).
func ParseAll(strs []string) ([]Spec, error) {
	specs := make([]Spec, 0, len(strs))
	for _, s := range strs {
		spec, err := Parse(s)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}
