// Package config loads the runtime configuration for the patsakd server:
// backend connection details, listen address, and logging format, read from
// a YAML file with environment-variable overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// Config is the top-level configuration for one patsakd process.
type Config struct {
	Serv `mapstructure:",squash"`

	configPath string
	viper      *viper.Viper
}

// Serv holds the service-level settings: listen address, logging, and the
// backend the process's connections target.
type Serv struct {
	// AppName is used in log and debug messages.
	AppName string `mapstructure:"app_name"`

	// Production makes the "auto" log format choose JSON (see
	// ShouldUseJSONLogs). It does not change which opcodes internal/server
	// accepts.
	Production bool `mapstructure:"production"`

	// HostPort is the address internal/server listens on, e.g. "0.0.0.0:7500".
	HostPort string `mapstructure:"host_port"`

	// LogFormat is one of "auto", "json", "console".
	LogFormat string `mapstructure:"log_format"`

	// WatchdogBudget bounds how long a single work unit may run before the
	// server's watchdog terminates it.
	WatchdogBudget time.Duration `mapstructure:"watchdog_budget"`

	// RateLimiter bounds how fast one client connection may send requests.
	RateLimiter RateLimiter `mapstructure:"rate_limiter"`

	// DB configures the backend connections this process opens.
	DB Database `mapstructure:"database"`
}

// Database configures the backend connections a process opens; serve opens
// one per accepted client connection.
type Database struct {
	// ConnString is a full libpq/pgx connection string. When set it takes
	// precedence over the discrete Host/Port/User/... fields below.
	ConnString string `mapstructure:"connection_string"`

	Host     string `mapstructure:"host"`
	Port     uint16 `mapstructure:"port"`
	DBName   string `mapstructure:"db_name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`

	// Schema is the Postgres schema every RelVar the catalog manages lives
	// in; it's also the <S> the backend-contract stored helpers are looked
	// up against.
	Schema string `mapstructure:"schema"`

	// PoolSize is loaded from configuration (default 4); no code in this
	// module reads it.
	PoolSize int `mapstructure:"pool_size"`

	PingTimeout time.Duration `mapstructure:"ping_timeout"`
}

// RateLimiter sets the token-bucket limit internal/server applies to the
// request frames of each client connection.
type RateLimiter struct {
	Rate   float64 `mapstructure:"rate"`
	Bucket int     `mapstructure:"bucket"`
}

// DSN renders db into a pgx-compatible connection string, preferring an
// explicit ConnString when one is set.
func (db Database) DSN() string {
	if db.ConnString != "" {
		return db.ConnString
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		db.User, db.Password, db.Host, db.Port, db.DBName,
	)
}

// ShouldUseJSONLogs resolves the auto/json/console setting: explicit
// "json" always wins, "auto" follows Production, anything else is console.
func (c *Config) ShouldUseJSONLogs() bool {
	if c.LogFormat == "json" {
		return true
	}
	if c.LogFormat == "auto" && c.Production {
		return true
	}
	return false
}

// AbsolutePath resolves p against the directory the config file was loaded
// from, leaving already-absolute paths untouched.
func (c *Config) AbsolutePath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.configPath, p)
}

// Read loads configuration from configFile plus any PATSAK_-prefixed
// environment variable overrides, in the shape env vars for nested fields
// take (PATSAK_DATABASE_HOST overrides database.host).
func Read(configFile string) (*Config, error) {
	return ReadFS(configFile, afero.NewOsFs())
}

// ReadFS is Read against an explicit afero.Fs, so callers (and tests) can
// point patsakd at a config file without touching the real filesystem.
func ReadFS(configFile string, fs afero.Fs) (*Config, error) {
	v := newViperWithDefaults()
	v.SetFs(fs)
	v.SetConfigFile(configFile)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config %q: %w", configFile, err)
	}

	v.SetEnvPrefix("patsak")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{viper: v, configPath: filepath.Dir(configFile)}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

func newViperWithDefaults() *viper.Viper {
	v := viper.New()

	v.SetDefault("app_name", "patsakd")
	v.SetDefault("production", false)
	v.SetDefault("host_port", "0.0.0.0:7500")
	v.SetDefault("log_format", "auto")
	v.SetDefault("watchdog_budget", 10*time.Second)

	v.SetDefault("rate_limiter.rate", 50.0)
	v.SetDefault("rate_limiter.bucket", 100)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.schema", "public")
	v.SetDefault("database.pool_size", 4)
	v.SetDefault("database.ping_timeout", 5*time.Second)

	return v
}
