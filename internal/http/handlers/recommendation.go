package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/movierec-backend/internal/http/response"
	pkgerrors "github.com/yungbote/movierec-backend/internal/pkg/errors"
	"github.com/yungbote/movierec-backend/internal/pkg/logger"
	"github.com/yungbote/movierec-backend/internal/recommend"
	"github.com/yungbote/movierec-backend/internal/services"
)

type RecommendationHandler struct {
	log        *logger.Logger
	recService services.RecommendationService
}

func NewRecommendationHandler(log *logger.Logger, recService services.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{log: log.With("handler", "RecommendationHandler"), recService: recService}
}

type newUserRequest struct {
	Genres *string `json:"genres"`
	TopN   int     `json:"top_n"`
}

type knownUserRequest struct {
	UserID *int `json:"userId"`
	TopN   int  `json:"top_n"`
}

// POST /api/recommendations/new-user
// body: { "genres": "Action|Comedy", "top_n": 10 }
func (rh *RecommendationHandler) NewUser(c *gin.Context) {
	var req newUserRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	if req.Genres == nil {
		response.RespondErr(c, fmt.Errorf("genres required: %w", pkgerrors.ErrInvalidArgument))
		return
	}
	out, err := rh.recService.ForNewUser(c.Request.Context(), *req.Genres, req.TopN)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, out)
}

// POST /api/recommendations/user
// body: { "userId": 42, "top_n": 10 }
func (rh *RecommendationHandler) KnownUser(c *gin.Context) {
	var req knownUserRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	if req.UserID == nil {
		response.RespondErr(c, fmt.Errorf("userId required: %w", pkgerrors.ErrInvalidArgument))
		return
	}
	out, err := rh.recService.ForUser(c.Request.Context(), *req.UserID, req.TopN)
	if err != nil {
		if errors.Is(err, recommend.ErrModelUnavailable) || errors.Is(err, recommend.ErrModelOutput) {
			rh.log.Warn("known-user recommendation failed", "user_id", *req.UserID, "error", err)
		}
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, out)
}

// POST /api/admin/reload
func (rh *RecommendationHandler) Reload(c *gin.Context) {
	info, err := rh.recService.Reload(c.Request.Context())
	if err != nil {
		rh.log.Error("snapshot reload failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "reload_failed", err)
		return
	}
	response.RespondOK(c, info)
}

// GET /api/admin/snapshot
func (rh *RecommendationHandler) Status(c *gin.Context) {
	response.RespondOK(c, rh.recService.Status())
}
