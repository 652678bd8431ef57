package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Log      LogConfig
	HTTP     HTTPConfig
	Provider ProviderConfig
	Sync     SyncConfig
	Stream   StreamConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // postgres or sqlite
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	Path            string // sqlite file path
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
}

// RedisConfig holds Redis connection settings for the sync-event bridge
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	Channel  string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
	Output string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	CORSAllowOrigins []string
}

// ProviderConfig holds outbound provider call settings
type ProviderConfig struct {
	RequestTimeout time.Duration // catalog and status calls
	ProbeTimeout   time.Duration // reachability probes
	RetryAttempts  int
	RetryDelay     time.Duration
}

// SyncConfig holds the order reconciliation loop settings
type SyncConfig struct {
	Enabled      bool
	InitialDelay time.Duration
	Interval     time.Duration
	BatchSize    int
}

// StreamConfig holds the realtime push stream settings
type StreamConfig struct {
	Heartbeat    time.Duration
	MaxClients   int
	ClientBuffer int
}

// Load loads configuration from TOML file and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with SMM_ prefix (e.g., SMM_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("SMM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			Path:            v.GetString("database.path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			Channel:  v.GetString("redis.channel"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
		},
		Provider: ProviderConfig{
			RequestTimeout: v.GetDuration("provider.request_timeout"),
			ProbeTimeout:   v.GetDuration("provider.probe_timeout"),
			RetryAttempts:  v.GetInt("provider.retry_attempts"),
			RetryDelay:     v.GetDuration("provider.retry_delay"),
		},
		Sync: SyncConfig{
			Enabled:      v.GetBool("sync.enabled"),
			InitialDelay: v.GetDuration("sync.initial_delay"),
			Interval:     v.GetDuration("sync.interval"),
			BatchSize:    v.GetInt("sync.batch_size"),
		},
		Stream: StreamConfig{
			Heartbeat:    v.GetDuration("stream.heartbeat"),
			MaxClients:   v.GetInt("stream.max_clients"),
			ClientBuffer: v.GetInt("stream.client_buffer"),
		},
	}

	applyDefaults(cfg, v.IsSet("sync.enabled"))

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyDefaults(cfg *Config, syncSet bool) {
	if cfg.App.Name == "" {
		cfg.App.Name = "smm-sync-engine"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "smm.db"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 30
	}

	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Redis.Channel == "" {
		cfg.Redis.Channel = "smm:sync:events"
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		if cfg.App.Env == "production" {
			cfg.Log.Format = "json"
		} else {
			cfg.Log.Format = "console"
		}
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}

	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		// The SSE stream writes for the lifetime of the connection.
		cfg.HTTP.WriteTimeout = 0
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 120 * time.Second
	}

	if cfg.Provider.RequestTimeout == 0 {
		cfg.Provider.RequestTimeout = 30 * time.Second
	}
	if cfg.Provider.ProbeTimeout == 0 {
		cfg.Provider.ProbeTimeout = 5 * time.Second
	}
	if cfg.Provider.RetryAttempts == 0 {
		cfg.Provider.RetryAttempts = 3
	}
	if cfg.Provider.RetryDelay == 0 {
		cfg.Provider.RetryDelay = 2 * time.Second
	}

	if !syncSet {
		cfg.Sync.Enabled = true
	}
	if cfg.Sync.InitialDelay == 0 {
		cfg.Sync.InitialDelay = 30 * time.Second
	}
	if cfg.Sync.Interval == 0 {
		cfg.Sync.Interval = 5 * time.Minute
	}
	if cfg.Sync.BatchSize == 0 {
		cfg.Sync.BatchSize = 100
	}

	if cfg.Stream.Heartbeat == 0 {
		cfg.Stream.Heartbeat = 30 * time.Second
	}
	if cfg.Stream.MaxClients == 0 {
		cfg.Stream.MaxClients = 1000
	}
	if cfg.Stream.ClientBuffer == 0 {
		cfg.Stream.ClientBuffer = 100
	}
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}

	if c.Provider.RetryAttempts < 1 {
		return fmt.Errorf("provider.retry_attempts must be at least 1")
	}
	if c.Sync.Interval < time.Second {
		return fmt.Errorf("sync.interval must be at least 1s")
	}

	for _, origin := range c.HTTP.CORSAllowOrigins {
		if origin == "*" {
			continue
		}
		if _, err := url.ParseRequestURI(origin); err != nil {
			return fmt.Errorf("invalid CORS origin %q: %w", origin, err)
		}
	}

	return nil
}

// DSN returns the PostgreSQL connection string
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}
