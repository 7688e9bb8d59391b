package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/movierec-backend/internal/pkg/apierr"
	"github.com/yungbote/movierec-backend/internal/recommend"
)

// FromError maps service errors onto an HTTP status and code.
func FromError(err error) *apierr.Error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, recommend.ErrUserNotEncoded):
		return apierr.New(http.StatusUnprocessableEntity, "user_has_no_ratings", err)
	case errors.Is(err, recommend.ErrSnapshotNotReady):
		return apierr.New(http.StatusServiceUnavailable, "snapshot_not_ready", err)
	case errors.Is(err, recommend.ErrModelOutput):
		return apierr.New(http.StatusBadGateway, "model_bad_output", err)
	case errors.Is(err, recommend.ErrModelUnavailable):
		return apierr.New(http.StatusServiceUnavailable, "model_unavailable", err)
	}
	return apierr.FromError(err)
}

// RespondErr writes err through FromError. Internal failures get a generic
// message.
func RespondErr(c *gin.Context, err error) {
	ae := FromError(err)
	if ae.Status >= http.StatusInternalServerError && ae.Status != http.StatusServiceUnavailable && ae.Status != http.StatusBadGateway {
		_ = c.Error(err)
		RespondError(c, ae.Status, ae.Code, errors.New("internal server error"))
		return
	}
	RespondError(c, ae.Status, ae.Code, ae)
}
