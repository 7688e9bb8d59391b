package recommend

import (
	"errors"

	"github.com/yungbote/movierec-backend/internal/model"
)

var (
	// ErrUserNotEncoded means the user had no ratings when the snapshot was
	// built. Callers should fall back to the genre recommender.
	ErrUserNotEncoded = errors.New("user has no rating history")
	// ErrModelOutput means the scorer answered with the wrong number of
	// scores or with non-finite values.
	ErrModelOutput = model.ErrBadOutput
	// ErrSnapshotNotReady is returned until the first snapshot is published.
	ErrSnapshotNotReady = errors.New("recommendation snapshot not ready")

	ErrModelUnavailable = model.ErrUnavailable
)
