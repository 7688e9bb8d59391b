package testutil

import (
	"context"
	"testing"

	"gorm.io/gorm"

	types "github.com/yungbote/movierec-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, username string) *types.User {
	tb.Helper()
	u := &types.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "pw",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedMovie(tb testing.TB, ctx context.Context, tx *gorm.DB, id int, title, genre string) *types.Movie {
	tb.Helper()
	m := &types.Movie{
		MovieID:    id,
		MovieTitle: title,
		MovieGenre: genre,
		MovieImage: "https://img.example/" + title + ".jpg",
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed movie: %v", err)
	}
	return m
}

func SeedRating(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, movieID int, rating float64) *types.Rating {
	tb.Helper()
	r := &types.Rating{
		UserID:    userID,
		MovieID:   movieID,
		Rating:    rating,
		IsWatched: true,
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed rating: %v", err)
	}
	return r
}
