package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/skywire/mavrelay/internal/connstring"
)

type appConfig struct {
	endpoints       []string
	systemID        int
	componentID     int
	logFormat       string
	logLevel        string
	metricsAddr     string
	logMetricsEvery time.Duration
	mdnsEnable      bool
	mdnsName        string
}

// endpointList accumulates -endpoint flags, a repeatable flag.Value.
type endpointList struct{ values *[]string }

func (e endpointList) String() string {
	if e.values == nil {
		return ""
	}
	return strings.Join(*e.values, ",")
}

func (e endpointList) Set(v string) error {
	*e.values = append(*e.values, v)
	return nil
}

func parseFlags() (*appConfig, bool) {
	cfg := &appConfig{}
	var endpoints []string
	flag.Var(endpointList{&endpoints}, "endpoint", "connection string (udpin:/udpout:/tcpout:/serial:), repeatable")
	systemID := flag.Int("system-id", 250, "local MAVLink system id used on the send path")
	componentID := flag.Int("component-id", 1, "local MAVLink component id used on the send path")
	logFormat := flag.String("log-format", "text", "Log format: text|json")
	logLevel := flag.String("log-level", "info", "Log level: debug|info|warn|error")
	metricsAddr := flag.String("metrics-addr", "", "Metrics HTTP listen address (e.g., :9100); empty disables")
	logMetricsEvery := flag.Duration("log-metrics-interval", 0, "If >0, periodically log metrics counters (for non-Prometheus setups)")
	mdnsEnable := flag.Bool("mdns-enable", false, "Enable mDNS advertisement")
	mdnsName := flag.String("mdns-name", "", "mDNS instance name (default mavrelay-<hostname>)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	setFlags := map[string]struct{}{}
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = struct{}{} })

	cfg.endpoints = endpoints
	cfg.systemID = *systemID
	cfg.componentID = *componentID
	cfg.logFormat = *logFormat
	cfg.logLevel = *logLevel
	cfg.metricsAddr = *metricsAddr
	cfg.logMetricsEvery = *logMetricsEvery
	cfg.mdnsEnable = *mdnsEnable
	cfg.mdnsName = *mdnsName

	if err := applyEnvOverrides(cfg, setFlags); err != nil {
		fmt.Printf("environment override error: %v\n", err)
		return nil, *showVersion
	}
	if err := cfg.validate(); err != nil {
		fmt.Printf("configuration error: %v\n", err)
		return nil, *showVersion
	}
	return cfg, *showVersion
}

// validate performs semantic validation of the parsed configuration,
// including parsing every endpoint connection string (§6), without
// attempting to open any socket or device.
func (c *appConfig) validate() error {
	if c == nil {
		return errors.New("nil config")
	}
	switch c.logFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log-format: %s", c.logFormat)
	}
	switch c.logLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log-level: %s", c.logLevel)
	}
	if c.systemID < 1 || c.systemID > 255 {
		return fmt.Errorf("system-id must be in [1,255] (got %d)", c.systemID)
	}
	if c.componentID < 1 || c.componentID > 255 {
		return fmt.Errorf("component-id must be in [1,255] (got %d)", c.componentID)
	}
	if len(c.endpoints) == 0 {
		return errors.New("at least one -endpoint is required")
	}
	if _, err := connstring.ParseAll(c.endpoints); err != nil {
		return fmt.Errorf("invalid endpoint: %w", err)
	}
	return nil
}

// applyEnvOverrides maps MAVRELAY_* environment variables to config fields
// unless a corresponding flag was explicitly set (flag wins over env).
func applyEnvOverrides(c *appConfig, set map[string]struct{}) error {
	var firstErr error
	get := func(k string) (string, bool) { v, ok := os.LookupEnv(k); return strings.TrimSpace(v), ok }

	if _, ok := set["endpoint"]; !ok {
		if v, ok := get("MAVRELAY_ENDPOINTS"); ok && v != "" {
			c.endpoints = append(c.endpoints, strings.Split(v, ",")...)
		}
	}
	if _, ok := set["system-id"]; !ok {
		if v, ok := get("MAVRELAY_SYSTEM_ID"); ok && v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.systemID = n
			} else if firstErr == nil {
				firstErr = fmt.Errorf("invalid MAVRELAY_SYSTEM_ID: %w", err)
			}
		}
	}
	if _, ok := set["component-id"]; !ok {
		if v, ok := get("MAVRELAY_COMPONENT_ID"); ok && v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.componentID = n
			} else if firstErr == nil {
				firstErr = fmt.Errorf("invalid MAVRELAY_COMPONENT_ID: %w", err)
			}
		}
	}
	if _, ok := set["log-format"]; !ok {
		if v, ok := get("MAVRELAY_LOG_FORMAT"); ok && v != "" {
			c.logFormat = v
		}
	}
	if _, ok := set["log-level"]; !ok {
		if v, ok := get("MAVRELAY_LOG_LEVEL"); ok && v != "" {
			c.logLevel = v
		}
	}
	if _, ok := set["metrics-addr"]; !ok {
		if v, ok := get("MAVRELAY_METRICS"); ok {
			c.metricsAddr = v
		}
	}
	if _, ok := set["log-metrics-interval"]; !ok {
		if v, ok := get("MAVRELAY_LOG_METRICS_INTERVAL"); ok && v != "" {
			if d, err := time.ParseDuration(v); err == nil && d >= 0 {
				c.logMetricsEvery = d
			} else if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid MAVRELAY_LOG_METRICS_INTERVAL: %w", err)
			}
		}
	}
	if _, ok := set["mdns-enable"]; !ok {
		if v, ok := get("MAVRELAY_MDNS_ENABLE"); ok && v != "" {
			switch strings.ToLower(v) {
			case "1", "true", "yes", "on":
				c.mdnsEnable = true
			case "0", "false", "no", "off":
				c.mdnsEnable = false
			}
		}
	}
	if _, ok := set["mdns-name"]; !ok {
		if v, ok := get("MAVRELAY_MDNS_NAME"); ok && v != "" {
			c.mdnsName = v
		}
	}
	return firstErr
}
