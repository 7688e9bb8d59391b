package db_test

import (
	"testing"

	"github.com/yungbote/movierec-backend/internal/data/repos/testutil"
)

func TestAutoMigrateAllColumnNames(t *testing.T) {
	gdb := testutil.SQLite(t)
	m := gdb.Migrator()

	want := map[string][]string{
		"movie":      {"movie_id", "movie_title", "movie_genre", "movie_image"},
		"user":       {"user_id", "username", "email", "password"},
		"user_movie": {"user_id", "movie_id", "rating", "is_favorited", "is_watched"},
	}
	for table, cols := range want {
		if !m.HasTable(table) {
			t.Fatalf("table %q missing", table)
		}
		for _, col := range cols {
			if !m.HasColumn(table, col) {
				t.Errorf("%s.%s missing", table, col)
			}
		}
	}
	for _, camel := range []string{"userId", "movieId", "isFavorited"} {
		if m.HasColumn("user_movie", camel) {
			t.Errorf("user_movie.%s should not exist", camel)
		}
	}
}
