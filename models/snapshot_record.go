package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SnapshotRecord is one saved version of the application snapshot.
// Rows are only ever inserted and pruned, never updated.
type SnapshotRecord struct {
	ID        string    `gorm:"type:uuid;primarykey"`
	Version   int64     `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"index"`
	Payload   string    `gorm:"type:text;not null"`
	Checksum  string    `gorm:"size:64;not null"`
	CaseCount int
	UserCount int
}

// BeforeCreate hook to generate UUID
func (r *SnapshotRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for SnapshotRecord model
func (SnapshotRecord) TableName() string {
	return "snapshots"
}
