package history

import (
	"gorm.io/gorm"

	"github.com/yungbote/movierec-backend/internal/data/dberr"
	types "github.com/yungbote/movierec-backend/internal/domain"
	"github.com/yungbote/movierec-backend/internal/pkg/dbctx"
	"github.com/yungbote/movierec-backend/internal/pkg/logger"
)

type RecommendationLogRepo interface {
	Create(dbc dbctx.Context, logs []*types.RecommendationLog) ([]*types.RecommendationLog, error)
	ListByUser(dbc dbctx.Context, userID int, limit int) ([]*types.RecommendationLog, error)
}

type recommendationLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecommendationLogRepo(db *gorm.DB, baseLog *logger.Logger) RecommendationLogRepo {
	return &recommendationLogRepo{db: db, log: baseLog.With("repo", "RecommendationLogRepo")}
}

func (r *recommendationLogRepo) Create(dbc dbctx.Context, logs []*types.RecommendationLog) ([]*types.RecommendationLog, error) {
	if len(logs) == 0 {
		return []*types.RecommendationLog{}, nil
	}
	if err := dbc.DB(r.db).WithContext(dbc.Ctx).Create(&logs).Error; err != nil {
		return nil, dberr.Map("create recommendation logs", err)
	}
	return logs, nil
}

// ListByUser returns the newest entries first. limit <= 0 means no limit.
func (r *recommendationLogRepo) ListByUser(dbc dbctx.Context, userID int, limit int) ([]*types.RecommendationLog, error) {
	var results []*types.RecommendationLog
	q := dbc.DB(r.db).WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, dberr.Map("list recommendation logs", err)
	}
	return results, nil
}
