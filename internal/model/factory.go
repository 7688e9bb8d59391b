package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/movierec-backend/internal/pkg/logger"
)

const (
	KindNone   = "none"
	KindLocal  = "local"
	KindRemote = "remote"
)

type Options struct {
	Kind         string
	ManifestPath string
	Storage      StorageOptions
	Remote       RemoteOptions
}

// New builds the configured scorer. Kind none yields a nil Scorer, which the
// known-user recommender reports as unavailable.
func New(ctx context.Context, opts Options, baseLog *logger.Logger) (Scorer, error) {
	log := baseLog.With("component", "model")
	switch strings.ToLower(strings.TrimSpace(opts.Kind)) {
	case "", KindNone:
		log.Warn("no scoring model configured; known-user recommendations disabled")
		return nil, nil
	case KindLocal:
		store := NewArtifactStore(opts.Storage, baseLog)
		defer store.Close()
		s, err := LoadEmbeddingScorer(ctx, store, opts.ManifestPath)
		if err != nil {
			return nil, fmt.Errorf("load embedding model: %w", err)
		}
		log.Info("embedding model loaded",
			"name", s.Name(),
			"manifest", opts.ManifestPath,
			"users", len(s.w.UserEmbedding),
			"movies", len(s.w.MovieEmbedding),
			"vocabulary", s.HasVocabulary(),
		)
		return s, nil
	case KindRemote:
		s, err := NewRemoteScorer(opts.Remote, baseLog)
		if err != nil {
			return nil, err
		}
		log.Info("remote model configured", "name", s.Name(), "endpoint", s.endpoint)
		return s, nil
	default:
		return nil, fmt.Errorf("unknown model kind %q", opts.Kind)
	}
}
