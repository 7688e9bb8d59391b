package validation

import (
	"errors"
	"strings"
	"testing"

	pkgerrors "github.com/yungbote/movierec-backend/internal/pkg/errors"
)

type sample struct {
	Name  string `validate:"required"`
	Kind  string `validate:"oneof=a b"`
	Count int    `validate:"min=1"`
}

func TestStructCollectsEveryField(t *testing.T) {
	err := Struct(sample{Kind: "c"})
	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *Error, got %T (%v)", err, err)
	}
	if len(verr.Fields) != 3 {
		t.Fatalf("expected 3 field errors, got %d: %v", len(verr.Fields), verr)
	}
	if !strings.Contains(verr.Error(), "sample.Name is required") {
		t.Fatalf("unexpected message: %q", verr.Error())
	}
}

func TestStructPasses(t *testing.T) {
	if err := Struct(sample{Name: "x", Kind: "a", Count: 1}); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestErrorMatchesInvalidArgument(t *testing.T) {
	err := Struct(sample{})
	if !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument match, got %v", err)
	}
}
