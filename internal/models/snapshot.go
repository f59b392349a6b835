package models

import (
	"time"

	"gorm.io/datatypes"
)

// PlatformSnapshot stores a serialized PlatformState under a fixed key.
type PlatformSnapshot struct {
	Key       string         `gorm:"primaryKey;size:128" json:"key"`
	Payload   datatypes.JSON `gorm:"type:json;not null" json:"payload"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// TableName pins the table name regardless of naming strategy.
func (PlatformSnapshot) TableName() string {
	return "platform_snapshots"
}
