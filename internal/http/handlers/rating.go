package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/movierec-backend/internal/http/response"
	"github.com/yungbote/movierec-backend/internal/services"
)

type RatingHandler struct {
	ratingService services.RatingService
}

func NewRatingHandler(ratingService services.RatingService) *RatingHandler {
	return &RatingHandler{ratingService: ratingService}
}

// GET /api/user_movies
func (rh *RatingHandler) List(c *gin.Context) {
	out, err := rh.ratingService.List(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/user_movies/:userId
func (rh *RatingHandler) ListByUser(c *gin.Context) {
	userID, err := intParam(c, "userId")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	out, err := rh.ratingService.ListByUser(c.Request.Context(), userID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, out)
}

// POST /api/user_movies
func (rh *RatingHandler) Create(c *gin.Context) {
	var req services.CreateRatingInput
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	r, err := rh.ratingService.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, r)
}

// PUT /api/user_movies/:userId
// The rating is picked by movieId in the body.
func (rh *RatingHandler) Update(c *gin.Context) {
	userID, err := intParam(c, "userId")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	var req services.UpdateRatingInput
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	r, err := rh.ratingService.Update(c.Request.Context(), userID, req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, r)
}

// DELETE /api/user_movies/:userId
func (rh *RatingHandler) DeleteByUser(c *gin.Context) {
	userID, err := intParam(c, "userId")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	n, err := rh.ratingService.DeleteByUser(c.Request.Context(), userID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "User movies deleted successfully", "deleted": n})
}
