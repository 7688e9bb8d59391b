package model

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/yungbote/movierec-backend/internal/pkg/logger"
)

const testManifest = `name: recommender-net
version: "3"
embedding_dim: 2
weights: weights.json
user_ids: [10, 11]
movie_ids: [1, 2, 3]
`

const testWeights = `{
  "user_embedding": [[1, 0], [0, 1]],
  "user_bias": [0, 0.5],
  "movie_embedding": [[2, 0], [0, -1], [1, 1]],
  "movie_bias": [0, 0, -1]
}`

func writeModel(t *testing.T, manifest, weights string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "weights.json"), []byte(weights), 0o644); err != nil {
		t.Fatalf("write weights: %v", err)
	}
	p := filepath.Join(dir, "manifest.yaml")
	if err := os.WriteFile(p, []byte(manifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return p
}

func sigmoid(x float64) float32 { return float32(1 / (1 + math.Exp(-x))) }

func TestLoadEmbeddingScorerScores(t *testing.T) {
	path := writeModel(t, testManifest, testWeights)
	store := NewArtifactStore(StorageOptions{}, logger.NewNop())
	defer store.Close()

	s, err := LoadEmbeddingScorer(context.Background(), store, path)
	if err != nil {
		t.Fatalf("LoadEmbeddingScorer: %v", err)
	}
	if s.Name() != "recommender-net" {
		t.Fatalf("unexpected name %q", s.Name())
	}
	if !s.HasVocabulary() || len(s.UserIDs()) != 2 || s.MovieIDs()[2] != 3 {
		t.Fatalf("vocabulary not loaded: %v %v", s.UserIDs(), s.MovieIDs())
	}

	got, err := s.Score(context.Background(), []Pair{{0, 0}, {1, 1}, {1, 2}})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	want := []float32{sigmoid(2), sigmoid(-1 + 0.5), sigmoid(1 + 0.5 - 1)}
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > 1e-6 {
			t.Fatalf("score %d: got %v want %v", i, got[i], want[i])
		}
	}
}

func TestEmbeddingScorerRejectsUnknownIndex(t *testing.T) {
	path := writeModel(t, testManifest, testWeights)
	store := NewArtifactStore(StorageOptions{}, logger.NewNop())
	s, err := LoadEmbeddingScorer(context.Background(), store, path)
	if err != nil {
		t.Fatalf("LoadEmbeddingScorer: %v", err)
	}
	if _, err := s.Score(context.Background(), []Pair{{UserIndex: 5, MovieIndex: 0}}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestLoadEmbeddingScorerValidatesShapes(t *testing.T) {
	badDim := `{"user_embedding": [[1, 0, 0]], "user_bias": [0], "movie_embedding": [[1, 0]], "movie_bias": [0]}`
	manifest := "embedding_dim: 2\nweights: weights.json\n"
	path := writeModel(t, manifest, badDim)
	store := NewArtifactStore(StorageOptions{}, logger.NewNop())
	if _, err := LoadEmbeddingScorer(context.Background(), store, path); err == nil {
		t.Fatalf("expected dimension error")
	}

	vocabMismatch := "embedding_dim: 2\nweights: weights.json\nuser_ids: [1, 2, 3]\n"
	path = writeModel(t, vocabMismatch, testWeights)
	if _, err := LoadEmbeddingScorer(context.Background(), store, path); err == nil {
		t.Fatalf("expected vocabulary size error")
	}
}

func TestParseManifest(t *testing.T) {
	if _, err := ParseManifest([]byte("embedding_dim: 4\n")); err == nil {
		t.Fatalf("expected missing weights error")
	}
	if _, err := ParseManifest([]byte("weights: w.json\nembedding_dim: 4\nuser_ids: [1, 1]\n")); err == nil {
		t.Fatalf("expected duplicate id error")
	}
	m, err := ParseManifest([]byte("weights: w.json\nembedding_dim: 4\n"))
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}
	if m.Name != "embedding" {
		t.Fatalf("expected default name, got %q", m.Name)
	}
}

func TestResolveRelative(t *testing.T) {
	cases := []struct{ base, ref, want string }{
		{"/models/v1/manifest.yaml", "weights.json", "/models/v1/weights.json"},
		{"/models/v1/manifest.yaml", "/abs/w.json", "/abs/w.json"},
		{"gs://bucket/models/v1/manifest.yaml", "weights.json", "gs://bucket/models/v1/weights.json"},
		{"gs://bucket/manifest.yaml", "gs://other/w.json", "gs://other/w.json"},
	}
	for _, tc := range cases {
		if got := resolveRelative(tc.base, tc.ref); got != tc.want {
			t.Errorf("resolveRelative(%q, %q) = %q, want %q", tc.base, tc.ref, got, tc.want)
		}
	}
	if _, _, err := splitGCSURI("gs://bucket-only"); err == nil {
		t.Fatalf("expected invalid uri error")
	}
}

func TestNewKindNone(t *testing.T) {
	s, err := New(context.Background(), Options{Kind: KindNone}, logger.NewNop())
	if err != nil || s != nil {
		t.Fatalf("expected nil scorer, got %v %v", s, err)
	}
	if _, err := New(context.Background(), Options{Kind: "quantum"}, logger.NewNop()); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}
