package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/movierec-backend/internal/data/repos"
	"github.com/yungbote/movierec-backend/internal/data/repos/testutil"
	"github.com/yungbote/movierec-backend/internal/model"
	"github.com/yungbote/movierec-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/movierec-backend/internal/pkg/errors"
	"github.com/yungbote/movierec-backend/internal/pkg/logger"
	"github.com/yungbote/movierec-backend/internal/pkg/pointers"
	"github.com/yungbote/movierec-backend/internal/recommend"
)

type fixture struct {
	db       *gorm.DB
	log      *logger.Logger
	users    repos.UserRepo
	movies   repos.MovieRepo
	ratings  repos.RatingRepo
	history  repos.RecommendationLogRepo
	holder   *recommend.SnapshotHolder
	recs     *recommendationService
	scorer   *stubScorer
	reloads  atomic.Int32
	notifier ChangeNotifier
}

// stubScorer ranks higher movie indexes first.
type stubScorer struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *stubScorer) Name() string { return "stub" }

func (s *stubScorer) Score(_ context.Context, pairs []model.Pair) ([]float32, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]float32, len(pairs))
	for i, p := range pairs {
		out[i] = float32(p.MovieIndex)
	}
	return out, nil
}

// newFixture seeds movies 1 Action (mean 4.5), 2 Comedy (3.0), 3
// Action,Comedy (4.2), 4 Drama (unrated) and users alice and bob who rated
// movies 1-3, plus carol with no ratings.
func newFixture(t *testing.T, refreshOnWrite bool) *fixture {
	t.Helper()
	db := testutil.SQLite(t)
	ctx := context.Background()
	f := &fixture{
		db:      db,
		log:     testutil.Logger(t),
		users:   repos.NewUserRepo(db, testutil.Logger(t)),
		movies:  repos.NewMovieRepo(db, testutil.Logger(t)),
		ratings: repos.NewRatingRepo(db, testutil.Logger(t)),
		history: repos.NewRecommendationLogRepo(db, testutil.Logger(t)),
		scorer:  &stubScorer{},
	}
	testutil.SeedMovie(t, ctx, db, 1, "One", "Action")
	testutil.SeedMovie(t, ctx, db, 2, "Two", "Comedy")
	testutil.SeedMovie(t, ctx, db, 3, "Three", "Action,Comedy")
	testutil.SeedMovie(t, ctx, db, 4, "Four", "Drama")
	alice := testutil.SeedUser(t, ctx, db, "alice")
	bob := testutil.SeedUser(t, ctx, db, "bob")
	testutil.SeedUser(t, ctx, db, "carol")
	testutil.SeedRating(t, ctx, db, alice.UserID, 1, 4)
	testutil.SeedRating(t, ctx, db, alice.UserID, 2, 3)
	testutil.SeedRating(t, ctx, db, bob.UserID, 1, 5)
	testutil.SeedRating(t, ctx, db, bob.UserID, 2, 3)
	testutil.SeedRating(t, ctx, db, bob.UserID, 3, 4.2)
	testutil.SeedRating(t, ctx, db, alice.UserID, 3, 4.2)

	src := NewSnapshotSource(f.movies, f.ratings, f.scorer)
	f.holder = recommend.NewSnapshotHolder(src, recommend.BuildOptions{EagerSimilarity: true, SimilarityNeighbors: 10}, f.log)
	rec := recommend.New(f.scorer, recommend.DefaultOptions())
	f.recs = NewRecommendationService(f.log, f.holder, rec, nil, f.users, f.history, RecommendationOptions{
		MaxTopN:                50,
		MaxConcurrentInference: 2,
		HistoryEnabled:         true,
	}).(*recommendationService)
	f.notifier = NewChangeNotifier(f.log, nil, ReloaderFunc(func(ctx context.Context) error {
		f.reloads.Add(1)
		_, err := f.holder.Reload(ctx)
		return err
	}), ChangeNotifierOptions{RefreshOnWrite: refreshOnWrite, Synchronous: true})
	return f
}

func (f *fixture) userID(t *testing.T, name string) int {
	t.Helper()
	u, err := f.users.GetByEmail(dbctx.Context{Ctx: context.Background()}, name+"@example.com")
	if err != nil || u == nil {
		t.Fatalf("lookup %s: %v", name, err)
	}
	return u.UserID
}

func TestUserServiceLifecycle(t *testing.T) {
	f := newFixture(t, false)
	svc := NewUserService(f.db, f.log, f.users, f.ratings, f.notifier)
	ctx := context.Background()

	u, err := svc.Create(ctx, CreateUserInput{Username: " dave ", Email: "Dave@Example.com", Password: "s3cret"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.Username != "dave" || u.Email != "dave@example.com" {
		t.Fatalf("fields not normalized: %+v", u)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("s3cret")) != nil {
		t.Fatalf("password not stored as bcrypt hash")
	}

	if _, err := svc.Create(ctx, CreateUserInput{Username: "dup", Email: "dave@example.com", Password: "x"}); !errors.Is(err, pkgerrors.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if _, err := svc.Create(ctx, CreateUserInput{Username: "nomail"}); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}

	name := "david"
	updated, err := svc.Update(ctx, u.UserID, UpdateUserInput{Username: &name})
	if err != nil || updated.Username != "david" || updated.Email != "dave@example.com" {
		t.Fatalf("Update: %+v %v", updated, err)
	}
	if _, err := svc.Update(ctx, 9999, UpdateUserInput{Username: &name}); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	detail, err := svc.Get(ctx, f.userID(t, "alice"))
	if err != nil || len(detail.Movies) != 3 {
		t.Fatalf("Get alice: %+v %v", detail, err)
	}

	if err := svc.Delete(ctx, f.userID(t, "alice")); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, 9999); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRatingServiceCreateAndUpdate(t *testing.T) {
	f := newFixture(t, false)
	svc := NewRatingService(f.db, f.log, f.ratings, f.users, f.movies, f.notifier)
	ctx := context.Background()
	carol := f.userID(t, "carol")

	rating := func(movieID int, r *float64) CreateRatingInput {
		return CreateRatingInput{UserID: pointers.Int(carol), MovieID: pointers.Int(movieID), Rating: r}
	}
	created, err := svc.Create(ctx, rating(4, pointers.Float64(3.5)))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !created.IsWatched || created.IsFavorited {
		t.Fatalf("expected defaults watched=true favorited=false, got %+v", created)
	}
	if _, err := svc.Create(ctx, rating(4, pointers.Float64(3.5))); !errors.Is(err, pkgerrors.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if _, err := svc.Create(ctx, rating(404, pointers.Float64(3.5))); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for movie, got %v", err)
	}
	if _, err := svc.Create(ctx, rating(4, nil)); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}

	updated, err := svc.Update(ctx, carol, UpdateRatingInput{MovieID: pointers.Int(4), IsWatched: pointers.Ptr(false)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.IsWatched || updated.Rating != 3.5 {
		t.Fatalf("explicit false not applied or rating changed: %+v", updated)
	}
	if _, err := svc.Update(ctx, carol, UpdateRatingInput{MovieID: pointers.Int(1), IsWatched: pointers.Ptr(false)}); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	n, err := svc.DeleteByUser(ctx, carol)
	if err != nil || n != 1 {
		t.Fatalf("DeleteByUser: %d %v", n, err)
	}
	if _, err := svc.ListByUser(ctx, carol); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for no ratings, got %v", err)
	}
}

func TestRecommendationServiceRequiresSnapshot(t *testing.T) {
	f := newFixture(t, false)
	if _, err := f.recs.TopRated(context.Background(), 0); !errors.Is(err, recommend.ErrSnapshotNotReady) {
		t.Fatalf("expected ErrSnapshotNotReady, got %v", err)
	}
	if f.recs.Status().Ready {
		t.Fatalf("status should not be ready")
	}
}

func TestRecommendationServiceNewUser(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	if _, err := f.recs.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	out, err := f.recs.ForNewUser(ctx, "Action", 10)
	if err != nil {
		t.Fatalf("ForNewUser: %v", err)
	}
	// Movie 3 sits closer to the Action centroid than movie 1.
	if len(out) != 2 || out[0].MovieID != 3 || out[1].MovieID != 1 {
		t.Fatalf("unexpected recommendations: %+v", out)
	}
	if _, err := f.recs.ForNewUser(ctx, "  ", 10); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if _, err := f.recs.ForNewUser(ctx, "Action", -1); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for negative top_n, got %v", err)
	}
	empty, err := f.recs.ForNewUser(ctx, "Western", 10)
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty result, got %v %v", empty, err)
	}
}

func TestRecommendationServiceKnownUser(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	if _, err := f.recs.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	if _, err := f.recs.ForUser(ctx, f.userID(t, "carol"), 5); !errors.Is(err, recommend.ErrUserNotEncoded) {
		t.Fatalf("expected ErrUserNotEncoded, got %v", err)
	}
	if _, err := f.recs.ForUser(ctx, 9999, 5); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if f.scorer.calls != 0 {
		t.Fatalf("model must not be called for unencoded users")
	}

	// alice rated every rated movie; nothing encodable remains.
	out, err := f.recs.ForUser(ctx, f.userID(t, "alice"), 5)
	if err != nil || len(out) != 0 {
		t.Fatalf("expected empty result, got %+v %v", out, err)
	}

	f.scorer.err = errors.New("boom")
	if _, err := f.recs.ForUser(ctx, f.userID(t, "alice"), 5); err != nil {
		t.Fatalf("empty candidate set must not reach the model: %v", err)
	}

	f.recs.Wait()
	logs, err := f.recs.History(ctx, f.userID(t, "alice"), 10)
	if err != nil || len(logs) == 0 {
		t.Fatalf("expected history entries, got %d %v", len(logs), err)
	}
}

func TestRecommendationServiceKnownUserScores(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	if _, err := f.recs.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	ratingSvc := NewRatingService(f.db, f.log, f.ratings, f.users, f.movies, f.notifier)

	// Once carol has a rating she is encoded; movies 2 and 3 remain.
	carol := f.userID(t, "carol")
	if _, err := ratingSvc.Create(ctx, CreateRatingInput{UserID: &carol, MovieID: pointers.Int(1), Rating: pointers.Float64(5)}); err != nil {
		t.Fatalf("Create rating: %v", err)
	}
	if f.reloads.Load() != 1 {
		t.Fatalf("expected a reload after the write, got %d", f.reloads.Load())
	}

	out, err := f.recs.ForUser(ctx, carol, 5)
	if err != nil {
		t.Fatalf("ForUser: %v", err)
	}
	if len(out) != 2 || out[0].MovieID != 3 || out[1].MovieID != 2 {
		t.Fatalf("expected movies 3 then 2 by score, got %+v", out)
	}

	f.scorer.err = model.ErrUnavailable
	if _, err := f.recs.ForUser(ctx, carol, 5); !errors.Is(err, recommend.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
	if _, err := f.recs.TopRated(ctx, 0); err != nil {
		t.Fatalf("snapshot must survive a model failure: %v", err)
	}
	f.recs.Wait()
}

func TestRecommendationServiceListingsAndSimilar(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	if _, err := f.recs.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	top, err := f.recs.TopRated(ctx, 0)
	if err != nil || len(top) != 3 || top[0].MovieID != 1 || top[1].MovieID != 3 {
		t.Fatalf("TopRated: %+v %v", top, err)
	}
	comedy, err := f.recs.TopRatedByGenre(ctx, "comedy", 0)
	if err != nil || len(comedy) != 2 || comedy[0].MovieID != 3 {
		t.Fatalf("TopRatedByGenre: %+v %v", comedy, err)
	}

	sim, err := f.recs.Similar(ctx, 1, 5)
	if err != nil || len(sim) == 0 {
		t.Fatalf("Similar: %+v %v", sim, err)
	}
	for _, s := range sim {
		if s.MovieID == 1 {
			t.Fatalf("a movie must not be its own neighbour")
		}
	}
	if _, err := f.recs.Similar(ctx, 999, 5); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	st := f.recs.Status()
	if !st.Ready || st.Movies != 4 || st.Ratings != 6 || !st.HasModel {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestAuthServiceLoginAndVerify(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	users := NewUserService(f.db, f.log, f.users, f.ratings, nil)
	if _, err := users.Create(ctx, CreateUserInput{Username: "erin", Email: "erin@example.com", Password: "hunter2"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	auth := NewAuthService(f.log, f.users, "test-secret", 0)

	if _, err := auth.Login(ctx, LoginInput{Email: "erin@example.com", Password: "wrong"}); !errors.Is(err, pkgerrors.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	res, err := auth.Login(ctx, LoginInput{Email: "ERIN@example.com", Password: "hunter2"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	uid, err := auth.VerifyToken(res.AccessToken)
	if err != nil || uid != res.UserID {
		t.Fatalf("VerifyToken: %d %v", uid, err)
	}
	other := NewAuthService(f.log, f.users, "other-secret", 0)
	if _, err := other.VerifyToken(res.AccessToken); !errors.Is(err, pkgerrors.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for foreign token, got %v", err)
	}
}

func TestChangeNotifierDisabledDoesNotReload(t *testing.T) {
	var calls atomic.Int32
	n := NewChangeNotifier(logger.NewNop(), nil, ReloaderFunc(func(context.Context) error {
		calls.Add(1)
		return nil
	}), ChangeNotifierOptions{Synchronous: true})
	n.RatingsChanged(context.Background(), 1, 2)
	n.CatalogChanged(context.Background(), 2)
	if calls.Load() != 0 {
		t.Fatalf("reload must be opt-in")
	}
	if err := n.Listen(context.Background()); err != nil {
		t.Fatalf("Listen without bus: %v", err)
	}
}
