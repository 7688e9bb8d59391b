package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/movierec-backend/internal/http/response"
	"github.com/yungbote/movierec-backend/internal/services"
)

type UserHandler struct {
	userService services.UserService
	recService  services.RecommendationService
}

func NewUserHandler(userService services.UserService, recService services.RecommendationService) *UserHandler {
	return &UserHandler{userService: userService, recService: recService}
}

// GET /api/users
func (uh *UserHandler) List(c *gin.Context) {
	users, err := uh.userService.List(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, users)
}

// GET /api/users/:id
func (uh *UserHandler) Get(c *gin.Context) {
	id, err := intParam(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	u, err := uh.userService.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, u)
}

// POST /api/users
func (uh *UserHandler) Create(c *gin.Context) {
	var req services.CreateUserInput
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	u, err := uh.userService.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, u)
}

// PUT /api/users/:id
// Answers 201 like the create route; existing clients depend on it.
func (uh *UserHandler) Update(c *gin.Context) {
	id, err := intParam(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	var req services.UpdateUserInput
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	u, err := uh.userService.Update(c.Request.Context(), id, req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, u)
}

// DELETE /api/users/:id
func (uh *UserHandler) Delete(c *gin.Context) {
	id, err := intParam(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	if err := uh.userService.Delete(c.Request.Context(), id); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "User deleted successfully"})
}

// GET /api/users/:id/recommendations/history?limit=
func (uh *UserHandler) RecommendationHistory(c *gin.Context) {
	id, err := intParam(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	limit, err := queryInt(c, "limit", 20)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	out, err := uh.recService.History(c.Request.Context(), id, limit)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, out)
}
