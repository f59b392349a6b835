// Package bootstrap assembles the sync façade and its collaborators from configuration.
package bootstrap

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/noah-isme/peer-review-dashboard/internal/config"
	"github.com/noah-isme/peer-review-dashboard/internal/database"
	"github.com/noah-isme/peer-review-dashboard/internal/events"
	"github.com/noah-isme/peer-review-dashboard/internal/repository"
	"github.com/noah-isme/peer-review-dashboard/internal/service"
	"github.com/noah-isme/peer-review-dashboard/pkg/backend"
)

// Options overrides collaborators that are otherwise built from configuration.
type Options struct {
	Fs        afero.Fs
	Transport backend.Transport
	Publisher events.Publisher
}

// Container holds the wired dependencies shared by the API server and the CLI.
type Container struct {
	Config    config.Config
	Validator *validator.Validate
	Store     service.SnapshotStore
	Sync      service.PlatformSyncService

	closers []func() error
}

// New wires the snapshot store, backend transport, event publisher and sync façade.
func New(cfg config.Config, logger zerolog.Logger, opts Options) (*Container, error) {
	c := &Container{Config: cfg, Validator: service.NewValidator()}

	repo, err := c.snapshotRepository(opts.Fs)
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	normalizer, err := service.NewNormalizer()
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("build normalizer: %w", err)
	}

	transport := opts.Transport
	if transport == nil {
		client, err := backend.New(backend.Config{
			BaseURL: cfg.BackendBaseURL,
			Timeout: cfg.BackendTimeout,
			Logger:  logger,
		})
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("build backend client: %w", err)
		}
		transport = client
	}

	publisher := opts.Publisher
	if publisher == nil {
		publisher, err = c.publisher(logger)
		if err != nil {
			_ = c.Close()
			return nil, err
		}
	}

	c.Store = service.NewSnapshotStore(repo, normalizer, logger)
	c.Sync = service.NewPlatformSyncService(transport, c.Store, normalizer, c.Validator, publisher, logger)

	logger.Info().
		Str("snapshot_driver", cfg.SnapshotDriver).
		Str("backend", cfg.BackendBaseURL).
		Bool("events", cfg.NATSURL != "").
		Msg("dashboard sync wired")

	return c, nil
}

// Close releases connections opened during wiring, newest first.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

func (c *Container) snapshotRepository(fs afero.Fs) (repository.SnapshotRepository, error) {
	cfg := c.Config
	switch cfg.SnapshotDriver {
	case config.SnapshotDriverRedis:
		client, err := database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("connect snapshot redis: %w", err)
		}
		c.closers = append(c.closers, client.Close)
		return repository.NewRedisSnapshotRepository(client, cfg.SnapshotKey), nil
	case config.SnapshotDriverSQLite, config.SnapshotDriverPostgres:
		connect := database.ConnectPostgres
		if cfg.SnapshotDriver == config.SnapshotDriverSQLite {
			connect = database.ConnectSQLite
		}
		db, err := connect(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect snapshot database: %w", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			c.closers = append(c.closers, sqlDB.Close)
		}
		if err := database.MigrateSnapshots(db); err != nil {
			return nil, err
		}
		return repository.NewSQLSnapshotRepository(db, cfg.SnapshotKey), nil
	default:
		if fs == nil {
			fs = afero.NewOsFs()
		}
		return repository.NewFileSnapshotRepository(fs, cfg.SnapshotPath, cfg.SnapshotKey), nil
	}
}

func (c *Container) publisher(logger zerolog.Logger) (events.Publisher, error) {
	if c.Config.NATSURL == "" {
		return events.NopPublisher{}, nil
	}

	conn, err := events.Connect(c.Config.NATSURL, logger)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	publisher, err := events.NewNATSPublisher(conn, c.Config.NATSSubject, logger)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("build nats publisher: %w", err)
	}
	c.closers = append(c.closers, publisher.Close)
	return publisher, nil
}
