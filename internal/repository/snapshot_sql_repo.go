package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/peer-review-dashboard/internal/models"
)

type sqlSnapshotRepository struct {
	db  *gorm.DB
	key string
	now func() time.Time
}

// NewSQLSnapshotRepository stores the snapshot as one row keyed by the snapshot key.
func NewSQLSnapshotRepository(db *gorm.DB, key string) SnapshotRepository {
	if key == "" {
		key = DefaultSnapshotKey
	}
	return &sqlSnapshotRepository{db: db, key: key, now: time.Now}
}

func (r *sqlSnapshotRepository) Read(ctx context.Context) ([]byte, error) {
	var snapshot models.PlatformSnapshot
	if err := r.db.WithContext(ctx).Where("key = ?", r.key).First(&snapshot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSnapshotNotFound
		}
		return nil, err
	}
	if len(snapshot.Payload) == 0 {
		return nil, ErrSnapshotNotFound
	}
	return []byte(snapshot.Payload), nil
}

func (r *sqlSnapshotRepository) Write(ctx context.Context, payload []byte) error {
	snapshot := models.PlatformSnapshot{
		Key:       r.key,
		Payload:   datatypes.JSON(payload),
		UpdatedAt: r.now().UTC(),
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&snapshot).Error
}
