package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/c360/taskql/errors"
	"github.com/c360/taskql/gateway/graphql"
	"github.com/c360/taskql/natsclient"
)

// Supported store drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig `json:"database"`
	Server   graphql.Config `json:"server"`
	NATS     NATSConfig     `json:"nats"`
}

// DatabaseConfig selects and configures the task store.
type DatabaseConfig struct {
	Driver string `json:"driver"`

	// PostgreSQL
	User     string `json:"user,omitempty"`
	Password string `json:"-"`
	Host     string `json:"host,omitempty"`
	Port     int    `json:"port,omitempty"`
	Database string `json:"database,omitempty"`
	SSLMode  string `json:"sslmode,omitempty"`

	// SQLite
	Path string `json:"path,omitempty"`

	InitSchema     bool          `json:"init_schema"`
	ConnectTimeout time.Duration `json:"connect_timeout"`
}

// NATSConfig defines the optional NATS connection used for task events.
// Events are disabled when URL is empty.
type NATSConfig struct {
	URL           string        `json:"url,omitempty"`
	SubjectPrefix string        `json:"subject_prefix,omitempty"`
	MaxReconnects int           `json:"max_reconnects,omitempty"`
	ReconnectWait time.Duration `json:"reconnect_wait,omitempty"`
}

// Enabled reports whether a NATS server is configured.
func (n NATSConfig) Enabled() bool {
	return n.URL != ""
}

// Default returns the configuration used when no environment is set.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:         DriverPostgres,
			Host:           "localhost",
			Port:           5432,
			SSLMode:        "disable",
			Path:           "tasks.db",
			ConnectTimeout: 5 * time.Second,
		},
		Server: graphql.DefaultConfig(),
		NATS: NATSConfig{
			SubjectPrefix: "tasks.events",
			MaxReconnects: -1,
			ReconnectWait: 2 * time.Second,
		},
	}
}

// Validate applies defaults and checks every section.
func (c *Config) Validate() error {
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	return c.NATS.Validate()
}

// Validate checks the store settings.
func (d *DatabaseConfig) Validate() error {
	if d.Driver == "" {
		d.Driver = DriverPostgres
	}
	d.Driver = strings.ToLower(d.Driver)

	if d.ConnectTimeout == 0 {
		d.ConnectTimeout = 5 * time.Second
	}
	if d.ConnectTimeout < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "DatabaseConfig", "Validate",
			"connect timeout must be positive")
	}

	switch d.Driver {
	case DriverPostgres:
		if d.Host == "" {
			d.Host = "localhost"
		}
		if d.Port == 0 {
			d.Port = 5432
		}
		if d.Port < 1 || d.Port > 65535 {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "DatabaseConfig", "Validate",
				fmt.Sprintf("port %d out of range", d.Port))
		}
		if d.SSLMode == "" {
			d.SSLMode = "disable"
		}
	case DriverSQLite:
		if d.Path == "" {
			d.Path = "tasks.db"
		}
	default:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "DatabaseConfig", "Validate",
			fmt.Sprintf("unknown driver %q (must be %q or %q)", d.Driver, DriverPostgres, DriverSQLite))
	}

	return nil
}

// Validate checks the NATS settings.
func (n *NATSConfig) Validate() error {
	if n.SubjectPrefix == "" {
		n.SubjectPrefix = "tasks.events"
	}
	if !isValidNATSSubject(n.SubjectPrefix) {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "NATSConfig", "Validate",
			fmt.Sprintf("subject prefix %q is not a valid NATS subject", n.SubjectPrefix))
	}
	if n.ReconnectWait == 0 {
		n.ReconnectWait = 2 * time.Second
	}
	return nil
}

// isValidNATSSubject rejects wildcards, whitespace and empty tokens.
func isValidNATSSubject(s string) bool {
	if s == "" || strings.ContainsAny(s, "*> \t\r\n") {
		return false
	}
	for _, token := range strings.Split(s, ".") {
		if token == "" {
			return false
		}
	}
	return true
}

// LogValue implements slog.LogValuer and keeps secrets out of logs.
func (c *Config) LogValue() slog.Value {
	db := c.Database
	password := ""
	if db.Password != "" {
		password = "[REDACTED]"
	}

	natsURL := c.NATS.URL
	if natsURL != "" {
		natsURL = natsclient.RedactURL(natsURL)
	}

	return slog.GroupValue(
		slog.Group("database",
			"driver", db.Driver,
			"user", db.User,
			"password", password,
			"host", db.Host,
			"port", db.Port,
			"database", db.Database,
			"path", db.Path,
			"init_schema", db.InitSchema,
		),
		slog.Group("server",
			"bind_address", c.Server.BindAddress,
			"path", c.Server.Path,
			"playground", c.Server.EnablePlayground,
			"cors_origins", c.Server.CORSOrigins,
			"max_query_depth", c.Server.MaxQueryDepth,
		),
		slog.Group("nats",
			"url", natsURL,
			"subject_prefix", c.NATS.SubjectPrefix,
		),
	)
}
