package handlers

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	pkgerrors "github.com/yungbote/movierec-backend/internal/pkg/errors"
)

func intParam(c *gin.Context, name string) (int, error) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid %s %q: %w", name, c.Param(name), pkgerrors.ErrInvalidArgument)
	}
	return v, nil
}

// queryInt returns def when the query key is absent.
func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, raw, pkgerrors.ErrInvalidArgument)
	}
	return v, nil
}

func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return fmt.Errorf("invalid request body: %v: %w", err, pkgerrors.ErrInvalidArgument)
	}
	return nil
}
