// Package config provides centralized configuration management for the
// application. It loads settings from environment variables with sensible
// defaults and validates everything on startup to fail fast on
// misconfiguration.
package config

import "time"

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Upstream UpstreamConfig
	Settings SettingsConfig
	History  HistoryConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings. The app binds to loopback by
// default since it is a desktop-hosted tool.
type ServerConfig struct {
	// Host is the interface to bind to (default: 127.0.0.1)
	Host string `env:"SERVER_HOST" default:"127.0.0.1"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading a request (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing a response (default: 120s;
	// bulk exports can take a while against a slow upstream)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"120s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration for graceful shutdown (default: 10s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`

	// RequestTimeout is the middleware timeout for requests (default: 110s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"110s"`

	// OpenBrowser launches the default browser at startup (default: true)
	OpenBrowser bool `env:"SERVER_OPEN_BROWSER" default:"true"`
}

// UpstreamConfig holds settings for the property-management API client.
type UpstreamConfig struct {
	// BaseURL is the API root (default: production API)
	BaseURL string `env:"UPSTREAM_BASE_URL" default:"https://api.cloudbeds.com/api/v1.3"`

	// Timeout is the per-call network timeout (default: 30s)
	Timeout time.Duration `env:"UPSTREAM_TIMEOUT" default:"30s"`
}

// SettingsConfig holds credential store settings.
type SettingsConfig struct {
	// Path overrides the settings file location (default: ~/.propex/settings.json)
	Path string `env:"SETTINGS_PATH"`
}

// HistoryConfig holds export-history settings.
type HistoryConfig struct {
	// Enabled controls whether operations are recorded (default: true)
	Enabled bool `env:"HISTORY_ENABLED" default:"true"`

	// Path overrides the history database location (default: ~/.propex/history.db)
	Path string `env:"HISTORY_PATH"`

	// Retention is how long entries are kept (default: 2160h = 90 days)
	Retention time.Duration `env:"HISTORY_RETENTION" default:"2160h"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	if c.Host == "" {
		return ":" + itoa(c.Port)
	}
	return c.Host + ":" + itoa(c.Port)
}

// itoa converts an int to string without importing strconv in this file.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	n := len(b)
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		n--
		b[n] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		n--
		b[n] = '-'
	}
	return string(b[n:])
}
