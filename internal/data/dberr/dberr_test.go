package dberr

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	pkgerrors "github.com/yungbote/movierec-backend/internal/pkg/errors"
)

func TestMap(t *testing.T) {
	cases := []struct {
		name string
		in   error
		want error
	}{
		{"gorm duplicate", gorm.ErrDuplicatedKey, pkgerrors.ErrConflict},
		{"pg unique", &pgconn.PgError{Code: "23505"}, pkgerrors.ErrConflict},
		{"pg fk", &pgconn.PgError{Code: "23503"}, pkgerrors.ErrNotFound},
		{"sqlite message", errors.New("UNIQUE constraint failed: user_movie.user_id"), pkgerrors.ErrConflict},
		{"not found", gorm.ErrRecordNotFound, pkgerrors.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Map("op", tc.in)
			if !errors.Is(got, tc.want) {
				t.Fatalf("Map(%v) = %v, want wrapping %v", tc.in, got, tc.want)
			}
		})
	}
	if Map("op", nil) != nil {
		t.Fatalf("Map(nil) should be nil")
	}
	plain := errors.New("boom")
	if got := Map("op", plain); !errors.Is(got, plain) {
		t.Fatalf("unmapped errors must stay wrapped, got %v", got)
	}
}
