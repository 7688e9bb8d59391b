package model

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest describes an exported embedding model. Weights is resolved
// relative to the manifest location unless it is absolute or gs://.
type Manifest struct {
	Name         string `yaml:"name"`
	Version      string `yaml:"version"`
	EmbeddingDim int    `yaml:"embedding_dim"`
	Weights      string `yaml:"weights"`

	// Training-time id vocabularies. Row i of the user embedding belongs to
	// UserIDs[i]; same for movies.
	UserIDs  []int `yaml:"user_ids"`
	MovieIDs []int `yaml:"movie_ids"`
}

func ParseManifest(raw []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	m.Name = strings.TrimSpace(m.Name)
	m.Weights = strings.TrimSpace(m.Weights)
	if m.Name == "" {
		m.Name = "embedding"
	}
	if m.Weights == "" {
		return nil, fmt.Errorf("manifest: weights path required")
	}
	if m.EmbeddingDim <= 0 {
		return nil, fmt.Errorf("manifest: embedding_dim must be positive, got %d", m.EmbeddingDim)
	}
	if err := checkUnique("user_ids", m.UserIDs); err != nil {
		return nil, err
	}
	if err := checkUnique("movie_ids", m.MovieIDs); err != nil {
		return nil, err
	}
	return &m, nil
}

func LoadManifest(ctx context.Context, store *ArtifactStore, uri string) (*Manifest, error) {
	raw, err := store.ReadAll(ctx, uri)
	if err != nil {
		return nil, err
	}
	m, err := ParseManifest(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", uri, err)
	}
	m.Weights = resolveRelative(uri, m.Weights)
	return m, nil
}

func checkUnique(field string, ids []int) error {
	seen := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("manifest: duplicate id %d in %s", id, field)
		}
		seen[id] = struct{}{}
	}
	return nil
}
