package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Snapshot drivers supported by the service.
const (
	SnapshotDriverFile     = "file"
	SnapshotDriverRedis    = "redis"
	SnapshotDriverSQLite   = "sqlite"
	SnapshotDriverPostgres = "postgres"
)

// Config holds runtime configuration values for the dashboard service.
type Config struct {
	AppName        string
	AppEnv         string
	AppPort        string
	LogLevel       string
	BackendBaseURL string
	BackendTimeout time.Duration
	SnapshotDriver string
	SnapshotPath   string
	SnapshotKey    string
	RedisURL       string
	DatabaseURL    string
	JWTSecret      string
	NATSURL        string
	NATSSubject    string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("PEERREVIEW")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Peer Review Dashboard")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8090")
	v.SetDefault("log.level", "info")
	v.SetDefault("backend.base_url", "http://localhost:8080/api")
	v.SetDefault("backend.timeout", "10s")
	v.SetDefault("snapshot.driver", SnapshotDriverFile)
	v.SetDefault("snapshot.path", "./data")
	v.SetDefault("snapshot.key", "peerReview_platformData")
	v.SetDefault("nats.subject", "peerreview.dashboard.sync")

	timeoutString := v.GetString("backend.timeout")
	if timeoutString == "" {
		timeoutString = "10s"
	}

	timeout, err := time.ParseDuration(timeoutString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid backend timeout: %w", err)
	}
	if timeout <= 0 {
		return Config{}, fmt.Errorf("backend timeout must be positive")
	}

	cfg := Config{
		AppName:        v.GetString("app.name"),
		AppEnv:         v.GetString("app.env"),
		AppPort:        v.GetString("app.port"),
		LogLevel:       strings.ToLower(v.GetString("log.level")),
		BackendBaseURL: strings.TrimSpace(v.GetString("backend.base_url")),
		BackendTimeout: timeout,
		SnapshotDriver: strings.ToLower(strings.TrimSpace(v.GetString("snapshot.driver"))),
		SnapshotPath:   v.GetString("snapshot.path"),
		SnapshotKey:    v.GetString("snapshot.key"),
		RedisURL:       v.GetString("redis.url"),
		DatabaseURL:    v.GetString("database.url"),
		JWTSecret:      v.GetString("jwt.secret"),
		NATSURL:        v.GetString("nats.url"),
		NATSSubject:    v.GetString("nats.subject"),
	}

	if cfg.BackendBaseURL == "" {
		return Config{}, fmt.Errorf("backend base url must be provided")
	}

	switch cfg.SnapshotDriver {
	case SnapshotDriverFile:
	case SnapshotDriverRedis:
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("redis url must be provided for the redis snapshot driver")
		}
	case SnapshotDriverSQLite, SnapshotDriverPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("database url must be provided for the %s snapshot driver", cfg.SnapshotDriver)
		}
	default:
		return Config{}, fmt.Errorf("unknown snapshot driver %q", cfg.SnapshotDriver)
	}

	return cfg, nil
}
