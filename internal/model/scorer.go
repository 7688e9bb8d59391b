package model

import (
	"context"
	"errors"
)

// ErrUnavailable means no model is configured or the model cannot be reached
// (including an open circuit breaker).
var ErrUnavailable = errors.New("model unavailable")

// ErrBadOutput means the model answered but the answer cannot be used.
var ErrBadOutput = errors.New("malformed model output")

// Pair is one (user, movie) input in dense encoded form.
type Pair struct {
	UserIndex  int
	MovieIndex int
}

// Scorer scores a batch of pairs in a single call and returns exactly one
// score per pair, in input order. Higher is better.
type Scorer interface {
	Name() string
	Score(ctx context.Context, pairs []Pair) ([]float32, error)
}

// Vocabulary is implemented by scorers that carry the training-time id lists.
// When present they define the dense encodings instead of the rating table.
type Vocabulary interface {
	UserIDs() []int
	MovieIDs() []int
}
