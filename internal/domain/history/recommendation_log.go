package history

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	KindNewUser   = "new_user"
	KindKnownUser = "known_user"
)

// RecommendationLog records what was served, against which snapshot.
type RecommendationLog struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          *int           `gorm:"column:user_id;index" json:"userId,omitempty"`
	Kind            string         `gorm:"column:kind;size:32;not null;index" json:"kind"`
	Query           string         `gorm:"column:query;type:text" json:"query,omitempty"`
	SnapshotVersion int64          `gorm:"column:snapshot_version;not null" json:"snapshotVersion"`
	Items           datatypes.JSON `gorm:"column:items;not null" json:"items"`
	CreatedAt       time.Time      `gorm:"column:created_at;not null;index" json:"createdAt"`
}

func (RecommendationLog) TableName() string { return "recommendation_log" }

func (l *RecommendationLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	return nil
}
