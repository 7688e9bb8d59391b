package dberr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	pkgerrors "github.com/yungbote/movierec-backend/internal/pkg/errors"
)

// Map folds driver-level failures into the generic sentinels so callers above
// the repo layer never inspect driver types. op prefixes the message.
func Map(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w: %v", op, pkgerrors.ErrConflict, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%s: %w: %v", op, pkgerrors.ErrNotFound, err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, pkgerrors.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			return fmt.Errorf("%s: %w: %v", op, pkgerrors.ErrConflict, err) // unique_violation
		case "23503":
			return fmt.Errorf("%s: %w: %v", op, pkgerrors.ErrNotFound, err) // foreign_key_violation
		}
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique constraint failed") || strings.Contains(msg, "duplicate key") {
		return fmt.Errorf("%s: %w: %v", op, pkgerrors.ErrConflict, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
