package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/movierec-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return EnsureIndexes(db)
}

// EnsureIndexes adds indexes gorm tags cannot express portably.
func EnsureIndexes(db *gorm.DB) error {
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_user_email_unique ON "user"(email) WHERE email <> ''`).Error; err != nil {
		return fmt.Errorf("create idx_user_email_unique: %w", err)
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_recommendation_log_user_created ON recommendation_log(user_id, created_at)`).Error; err != nil {
		return fmt.Errorf("create idx_recommendation_log_user_created: %w", err)
	}
	return nil
}
