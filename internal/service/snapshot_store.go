package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/noah-isme/peer-review-dashboard/internal/models"
	"github.com/noah-isme/peer-review-dashboard/internal/observability"
	"github.com/noah-isme/peer-review-dashboard/internal/repository"
)

// SnapshotStore keeps the last known platform state between syncs.
type SnapshotStore interface {
	Load(ctx context.Context) models.PlatformState
	Save(ctx context.Context, state models.PlatformState) error
}

type snapshotStore struct {
	repo       repository.SnapshotRepository
	normalizer *Normalizer
	logger     zerolog.Logger
}

// NewSnapshotStore wraps a blob repository with decoding and baseline fallback.
func NewSnapshotStore(repo repository.SnapshotRepository, normalizer *Normalizer, logger zerolog.Logger) SnapshotStore {
	return &snapshotStore{
		repo:       repo,
		normalizer: normalizer,
		logger:     logger.With().Str("component", "snapshot_store").Logger(),
	}
}

// Load returns the persisted state or the baseline seed state. It never fails.
func (s *snapshotStore) Load(ctx context.Context) models.PlatformState {
	data, err := s.repo.Read(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrSnapshotNotFound) {
			return s.fallback("empty", nil)
		}
		return s.fallback("read_error", err)
	}

	payload, err := DecodePayload(data)
	if err != nil {
		return s.fallback("corrupt", err)
	}

	state, err := s.normalizer.Normalize(payload)
	if err != nil {
		return s.fallback("invalid", err)
	}
	return state
}

// Save overwrites the persisted snapshot with the given state.
func (s *snapshotStore) Save(ctx context.Context, state models.PlatformState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.repo.Write(ctx, data); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist snapshot")
		return fmt.Errorf("persist snapshot: %w", err)
	}
	return nil
}

func (s *snapshotStore) fallback(reason string, err error) models.PlatformState {
	observability.SnapshotFallbacks().WithLabelValues(reason).Inc()

	if err != nil {
		s.logger.Warn().Err(err).Str("reason", reason).Msg("snapshot unusable, serving baseline state")
	} else {
		s.logger.Debug().Str("reason", reason).Msg("no snapshot stored, serving baseline state")
	}
	return models.BaselinePlatformState()
}
