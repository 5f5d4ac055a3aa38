// Package config loads server configuration from the environment and
// command-line flags. Flags override environment values.
package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
	TransportTCP   = "tcp"
)

type Config struct {
	Transports      []string      `env:"CALCMCP_TRANSPORT" envDefault:"http" envSeparator:","`
	Host            string        `env:"HOST" envDefault:"0.0.0.0"`
	Port            int           `env:"PORT" envDefault:"8000"`
	TCPAddr         string        `env:"CALCMCP_TCP_ADDR" envDefault:"127.0.0.1:8090"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat       string        `env:"CALCMCP_LOG_FORMAT" envDefault:"json"`
	OTelEndpoint    string        `env:"CALCMCP_OTEL_ENDPOINT"`
	MetricsEnabled  bool          `env:"CALCMCP_METRICS_ENABLED" envDefault:"true"`
	ShutdownTimeout time.Duration `env:"CALCMCP_SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

// Parse reads environ (as returned by os.Environ) and then args.
func Parse(fs *flag.FlagSet, args []string, environ []string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: env.ToMap(environ)}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	transport := strings.Join(cfg.Transports, ",")
	fs.StringVar(&transport, "transport", transport, "comma-separated transports: stdio, http, tcp")
	fs.StringVar(&cfg.Host, "host", cfg.Host, "HTTP bind host")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "HTTP port")
	fs.StringVar(&cfg.TCPAddr, "tcp-addr", cfg.TCPAddr, "line-delimited TCP listen address")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: DEBUG, INFO, WARNING, ERROR")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: json or text")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.Transports = splitCSV(transport)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if len(c.Transports) == 0 {
		return errors.New("at least one transport is required")
	}
	seen := make(map[string]bool, len(c.Transports))
	for _, t := range c.Transports {
		switch t {
		case TransportStdio, TransportHTTP, TransportTCP:
		default:
			return fmt.Errorf("unknown transport %q (valid: stdio, http, tcp)", t)
		}
		if seen[t] {
			return fmt.Errorf("transport %q listed twice", t)
		}
		seen[t] = true
	}
	if seen[TransportStdio] && len(c.Transports) > 1 {
		return errors.New("stdio transport cannot be combined with other transports")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d, expected 1..65535", c.Port)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format %q, expected json or text", c.LogFormat)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid shutdown timeout %s", c.ShutdownTimeout)
	}
	return nil
}

// Has reports whether transport is enabled.
func (c Config) Has(transport string) bool {
	for _, t := range c.Transports {
		if t == transport {
			return true
		}
	}
	return false
}

func (c Config) HTTPAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func splitCSV(raw string) []string {
	out := make([]string, 0)
	for _, p := range strings.Split(raw, ",") {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
