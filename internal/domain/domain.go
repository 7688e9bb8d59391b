package domain

import (
	"github.com/yungbote/movierec-backend/internal/domain/catalog"
	"github.com/yungbote/movierec-backend/internal/domain/history"
	"github.com/yungbote/movierec-backend/internal/domain/user"
)

type Movie = catalog.Movie
type Rating = catalog.Rating
type User = user.User
type RecommendationLog = history.RecommendationLog

const (
	RecommendationKindNewUser   = history.KindNewUser
	RecommendationKindKnownUser = history.KindKnownUser
)

// All lists every persisted model, in migration order.
func All() []any {
	return []any{
		&User{},
		&Movie{},
		&Rating{},
		&RecommendationLog{},
	}
}
