package user

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/movierec-backend/internal/data/repos/testutil"
	types "github.com/yungbote/movierec-backend/internal/domain"
	"github.com/yungbote/movierec-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/movierec-backend/internal/pkg/errors"
)

func TestUserRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := NewUserRepo(db, testutil.Logger(t))

	created, err := repo.Create(dbc, []*types.User{
		{Username: "ann", Email: "userrepo@example.com", Password: "pw"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 1 || created[0].UserID == 0 {
		t.Fatalf("Create: expected 1 user with an id, got %+v", created)
	}
	id := created[0].UserID

	got, err := repo.GetByID(dbc, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil || got.Username != "ann" {
		t.Fatalf("GetByID: unexpected result: %+v", got)
	}

	byEmail, err := repo.GetByEmail(dbc, "userrepo@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if byEmail == nil || byEmail.UserID != id {
		t.Fatalf("GetByEmail: unexpected result: %+v", byEmail)
	}

	exists, err := repo.EmailExists(dbc, "userrepo@example.com")
	if err != nil {
		t.Fatalf("EmailExists: %v", err)
	}
	if !exists {
		t.Fatalf("EmailExists: expected true")
	}
	exists, err = repo.EmailExists(dbc, "does-not-exist@example.com")
	if err != nil {
		t.Fatalf("EmailExists (missing): %v", err)
	}
	if exists {
		t.Fatalf("EmailExists (missing): expected false")
	}

	if err := repo.Update(dbc, id, map[string]any{"username": "anne"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ = repo.GetByID(dbc, id)
	if got.Username != "anne" || got.Email != "userrepo@example.com" {
		t.Fatalf("Update: partial update clobbered fields: %+v", got)
	}

	_, err = repo.Create(dbc, []*types.User{{Username: "dup", Email: "userrepo@example.com", Password: "pw"}})
	if !errors.Is(err, pkgerrors.ErrConflict) {
		t.Fatalf("Create duplicate email: expected ErrConflict, got %v", err)
	}
}

func TestUserRepoDeleteCascadesRatings(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := NewUserRepo(db, testutil.Logger(t))
	u := testutil.SeedUser(t, ctx, tx, "bob")
	other := testutil.SeedUser(t, ctx, tx, "carl")
	testutil.SeedMovie(t, ctx, tx, 1, "A", "Drama")
	testutil.SeedRating(t, ctx, tx, u.UserID, 1, 4)
	testutil.SeedRating(t, ctx, tx, other.UserID, 1, 3)

	deleted, err := repo.Delete(dbc, u.UserID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !deleted {
		t.Fatalf("Delete: expected user to exist")
	}

	var remaining int64
	if err := tx.Model(&types.Rating{}).Count(&remaining).Error; err != nil {
		t.Fatalf("count ratings: %v", err)
	}
	if remaining != 1 {
		t.Fatalf("expected only the other user's rating to remain, got %d", remaining)
	}

	deleted, err = repo.Delete(dbc, u.UserID)
	if err != nil {
		t.Fatalf("Delete (again): %v", err)
	}
	if deleted {
		t.Fatalf("Delete (again): expected false")
	}
}
