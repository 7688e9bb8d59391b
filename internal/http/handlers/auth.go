package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/movierec-backend/internal/http/response"
	"github.com/yungbote/movierec-backend/internal/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// POST /api/login
func (ah *AuthHandler) Login(c *gin.Context) {
	var req services.LoginInput
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	res, err := ah.authService.Login(c.Request.Context(), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"access_token": res.AccessToken,
		"token_type":   res.TokenType,
		"expires_in":   int(ah.authService.GetAccessTTL().Seconds()),
		"expires_at":   res.ExpiresAt,
		"user_id":      res.UserID,
	})
}
