package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override, e.g. SPACES_HTTP_ADDR.
const EnvPrefix = "SPACES_"

const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverRemote   = "remote"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type GRPC struct {
	Addr string `yaml:"addr" env:"GRPC_ADDR"`
}

type HTTP struct {
	Addr           string        `yaml:"addr"           env:"HTTP_ADDR"`
	AllowedOrigins []string      `yaml:"allowedOrigins" env:"HTTP_ALLOWED_ORIGINS" envSeparator:","`
	Timeout        time.Duration `yaml:"timeout"        env:"HTTP_TIMEOUT"`
}

type Logging struct {
	Env       string `yaml:"env"       env:"LOG_ENV"`     // dev|stage|prod
	Service   string `yaml:"service"   env:"LOG_SERVICE"` // space-service
	Version   string `yaml:"version"   env:"LOG_VERSION"`
	Backend   string `yaml:"backend"   env:"LOG_BACKEND"` // std|zap
	Level     string `yaml:"level"     env:"LOG_LEVEL"`   // debug|info|warn|error
	AddSource bool   `yaml:"addSource" env:"LOG_ADD_SOURCE"`
	Debug     bool   `yaml:"debug"     env:"LOG_DEBUG"`
}

type Tracing struct {
	// Endpoint is an OTLP/HTTP collector URL; empty keeps spans in process.
	Endpoint    string  `yaml:"endpoint"    env:"TRACING_ENDPOINT"`
	SampleRatio float64 `yaml:"sampleRatio" env:"TRACING_SAMPLE_RATIO"`
}

type FileStorage struct {
	Path  string `yaml:"path"  env:"STORAGE_FILE_PATH"`
	Watch bool   `yaml:"watch" env:"STORAGE_FILE_WATCH"`
}

type Postgres struct {
	DSN string `yaml:"dsn" env:"STORAGE_POSTGRES_DSN"`
}

type SQLite struct {
	Path string `yaml:"path" env:"STORAGE_SQLITE_PATH"`
}

type Remote struct {
	BaseURL string        `yaml:"baseURL" env:"STORAGE_REMOTE_BASE_URL"`
	Timeout time.Duration `yaml:"timeout" env:"STORAGE_REMOTE_TIMEOUT"`
}

type Storage struct {
	Driver   string      `yaml:"driver"   env:"STORAGE_DRIVER"`
	File     FileStorage `yaml:"file"`
	Postgres Postgres    `yaml:"postgres"`
	SQLite   SQLite      `yaml:"sqlite"`
	Remote   Remote      `yaml:"remote"`
}

type Scheduler struct {
	Interval time.Duration `yaml:"interval" env:"SCHEDULER_INTERVAL"`
}

type Membership struct {
	// EnforceCapacity turns the advisory capacity into a hard limit.
	EnforceCapacity bool `yaml:"enforceCapacity" env:"MEMBERSHIP_ENFORCE_CAPACITY"`
}

type WS struct {
	PingEvery time.Duration `yaml:"pingEvery" env:"WS_PING_EVERY"`
}

type Config struct {
	HTTP       HTTP       `yaml:"http"`
	GRPC       GRPC       `yaml:"grpc"`
	Logging    Logging    `yaml:"logging"`
	Tracing    Tracing    `yaml:"tracing"`
	Storage    Storage    `yaml:"storage"`
	Scheduler  Scheduler  `yaml:"scheduler"`
	Membership Membership `yaml:"membership"`
	WS         WS         `yaml:"ws"`
}

// LoadConfig reads CONFIG_PATH (./config/config.yaml by default), applies
// SPACES_* environment overrides and fills defaults. A missing file is not an
// error; the environment alone may configure the service.
func LoadConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}
	return Load(path)
}

func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.GRPC.Addr == "" {
		c.GRPC.Addr = ":9090"
	}
	if c.HTTP.Timeout <= 0 {
		c.HTTP.Timeout = 15 * time.Second
	}

	if c.Logging.Service == "" {
		c.Logging.Service = "space-service"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}

	if c.Tracing.SampleRatio <= 0 || c.Tracing.SampleRatio > 1 {
		c.Tracing.SampleRatio = 1
	}

	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverFile
	}
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverFile:
		if c.Storage.File.Path == "" {
			c.Storage.File.Path = "./data/db.json"
		}
	case DriverSQLite:
		if c.Storage.SQLite.Path == "" {
			c.Storage.SQLite.Path = "./data/spaces.db"
		}
	case DriverPostgres:
		if c.Storage.Postgres.DSN == "" {
			return errors.New("storage.postgres.dsn is required")
		}
	case DriverRemote:
		if c.Storage.Remote.BaseURL == "" {
			return errors.New("storage.remote.baseURL is required")
		}
		if c.Storage.Remote.Timeout <= 0 {
			c.Storage.Remote.Timeout = 5 * time.Second
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}

	if c.Scheduler.Interval <= 0 {
		c.Scheduler.Interval = time.Second
	}
	if c.WS.PingEvery <= 0 {
		c.WS.PingEvery = 15 * time.Second
	}
	return nil
}
