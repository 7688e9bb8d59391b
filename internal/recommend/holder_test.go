package recommend

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	types "github.com/yungbote/movierec-backend/internal/domain"
	"github.com/yungbote/movierec-backend/internal/model"
	"github.com/yungbote/movierec-backend/internal/pkg/logger"
)

func TestSnapshotHolderLifecycle(t *testing.T) {
	var fail atomic.Bool
	src := SourceFunc(func(context.Context) (BuildInput, error) {
		if fail.Load() {
			return BuildInput{}, errors.New("db down")
		}
		return scenarioInput(), nil
	})
	h := NewSnapshotHolder(src, BuildOptions{}, logger.NewNop())

	if _, err := h.Current(); !errors.Is(err, ErrSnapshotNotReady) {
		t.Fatalf("expected ErrSnapshotNotReady, got %v", err)
	}
	if h.Ready() {
		t.Fatalf("holder should not be ready before the first load")
	}

	first, err := h.Reload(context.Background())
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	cur, err := h.Current()
	if err != nil || cur != first {
		t.Fatalf("Current should return the published snapshot")
	}

	fail.Store(true)
	if _, err := h.Reload(context.Background()); err == nil {
		t.Fatalf("expected reload error")
	}
	cur, _ = h.Current()
	if cur != first {
		t.Fatalf("failed reload must keep the previous snapshot")
	}

	fail.Store(false)
	second, err := h.Reload(context.Background())
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if second.Version <= first.Version {
		t.Fatalf("versions must increase: %d then %d", first.Version, second.Version)
	}
}

func TestSnapshotHolderCoalescesReloads(t *testing.T) {
	var loads atomic.Int32
	release := make(chan struct{})
	src := SourceFunc(func(context.Context) (BuildInput, error) {
		loads.Add(1)
		<-release
		return scenarioInput(), nil
	})
	h := NewSnapshotHolder(src, BuildOptions{}, logger.NewNop())

	var wg sync.WaitGroup
	results := make([]*Snapshot, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := h.Reload(context.Background())
			if err != nil {
				t.Errorf("Reload: %v", err)
				return
			}
			results[i] = s
		}(i)
	}
	// Let every caller join the in-flight reload before releasing it.
	deadline := time.Now().Add(2 * time.Second)
	for loads.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := loads.Load(); n < 1 || n > 2 {
		t.Fatalf("expected coalesced loads, got %d", n)
	}
}

func TestRunRefreshStopsWithContext(t *testing.T) {
	var loads atomic.Int32
	src := SourceFunc(func(context.Context) (BuildInput, error) {
		loads.Add(1)
		return scenarioInput(), nil
	})
	h := NewSnapshotHolder(src, BuildOptions{}, logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.RunRefresh(ctx, 5*time.Millisecond)
		close(done)
	}()
	deadline := time.Now().Add(2 * time.Second)
	for loads.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("RunRefresh did not stop")
	}
	if loads.Load() < 2 {
		t.Fatalf("expected periodic reloads, got %d", loads.Load())
	}
	if !h.Ready() {
		t.Fatalf("expected a published snapshot")
	}
}

func withoutUser(in BuildInput, userID int) BuildInput {
	kept := make([]*types.Rating, 0, len(in.Ratings))
	for _, r := range in.Ratings {
		if r.UserID != userID {
			kept = append(kept, r)
		}
	}
	in.Ratings = kept
	return in
}

func TestReloadKeepsEncodingsStable(t *testing.T) {
	var mu sync.Mutex
	in := scenarioInput()
	src := SourceFunc(func(context.Context) (BuildInput, error) {
		mu.Lock()
		defer mu.Unlock()
		return in, nil
	})
	h := NewSnapshotHolder(src, BuildOptions{}, logger.NewNop())

	first, err := h.Reload(context.Background())
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	before, ok := first.UserEncoder().Encode(11)
	if !ok {
		t.Fatalf("user 11 should be encoded")
	}

	mu.Lock()
	in = withoutUser(scenarioInput(), 10)
	in.Ratings = append(in.Ratings, rating(12, 2, 5))
	mu.Unlock()

	second, err := h.Reload(context.Background())
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	after, ok := second.UserEncoder().Encode(11)
	if !ok || after != before {
		t.Fatalf("user 11 index moved from %d to %d (ok=%v)", before, after, ok)
	}
	if idx, ok := second.UserEncoder().Encode(12); !ok || idx != 2 {
		t.Fatalf("new user should be appended at 2, got %d ok=%v", idx, ok)
	}
	for _, id := range []int{1, 2, 3} {
		a, _ := first.MovieEncoder().Encode(id)
		b, ok := second.MovieEncoder().Encode(id)
		if !ok || a != b {
			t.Fatalf("movie %d index moved from %d to %d", id, a, b)
		}
	}

	// user 10 keeps its slot but has nothing left to recommend from
	if second.HasRatings(10) {
		t.Fatalf("user 10 should have no ratings after the rebuild")
	}
	fs := &fakeScorer{scoreF: func(model.Pair) float32 { return 1 }}
	if _, err := New(fs, DefaultOptions()).RecommendForUser(context.Background(), second, 10, 5); !errors.Is(err, ErrUserNotEncoded) {
		t.Fatalf("expected ErrUserNotEncoded, got %v", err)
	}
	if fs.calls != 0 {
		t.Fatalf("scorer must not be called for a user without ratings")
	}
}

func TestReloadAfterWriteSeesTheWrite(t *testing.T) {
	var (
		mu      sync.Mutex
		in      = scenarioInput()
		loads   atomic.Int32
		started = make(chan struct{})
		release = make(chan struct{})
	)
	src := SourceFunc(func(context.Context) (BuildInput, error) {
		mu.Lock()
		snap := in
		snap.Ratings = append([]*types.Rating(nil), in.Ratings...)
		mu.Unlock()
		if loads.Add(1) == 1 {
			close(started)
			<-release
		}
		return snap, nil
	})
	h := NewSnapshotHolder(src, BuildOptions{}, logger.NewNop())

	firstDone := make(chan error, 1)
	go func() {
		_, err := h.Reload(context.Background())
		firstDone <- err
	}()
	<-started

	// the write commits while the first build holds pre-write tables
	mu.Lock()
	in.Ratings = append(in.Ratings, rating(12, 2, 5))
	mu.Unlock()

	type result struct {
		s   *Snapshot
		err error
	}
	secondDone := make(chan result, 1)
	go func() {
		s, err := h.Reload(context.Background())
		secondDone <- result{s, err}
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)

	if err := <-firstDone; err != nil {
		t.Fatalf("first Reload: %v", err)
	}
	res := <-secondDone
	if res.err != nil {
		t.Fatalf("second Reload: %v", res.err)
	}
	if !res.s.HasRated(12, 2) {
		t.Fatalf("reload requested after the write returned a snapshot without it")
	}
	if n := loads.Load(); n != 2 {
		t.Fatalf("expected 2 loads, got %d", n)
	}
	cur, _ := h.Current()
	if !cur.HasRated(12, 2) {
		t.Fatalf("published snapshot is missing the write")
	}
}
