package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/yungbote/movierec-backend/internal/data/repos"
	pkgerrors "github.com/yungbote/movierec-backend/internal/pkg/errors"
	"github.com/yungbote/movierec-backend/internal/pkg/dbctx"
	"github.com/yungbote/movierec-backend/internal/pkg/logger"
	"github.com/yungbote/movierec-backend/internal/pkg/validation"
)

const tokenIssuer = "movierec"

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
	UserID      int       `json:"userId"`
}

type AuthService interface {
	Login(ctx context.Context, in LoginInput) (*LoginResult, error)
	// VerifyToken returns the user id carried by a valid access token.
	VerifyToken(tokenString string) (int, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	log          *logger.Logger
	userRepo     repos.UserRepo
	jwtSecretKey []byte
	accessTTL    time.Duration
	now          func() time.Time
}

func NewAuthService(log *logger.Logger, userRepo repos.UserRepo, jwtSecretKey string, accessTTL time.Duration) AuthService {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	return &authService{
		log:          log.With("service", "AuthService"),
		userRepo:     userRepo,
		jwtSecretKey: []byte(jwtSecretKey),
		accessTTL:    accessTTL,
		now:          time.Now,
	}
}

func (as *authService) GetAccessTTL() time.Duration { return as.accessTTL }

func (as *authService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	u, err := as.userRepo.GetByEmail(dbctx.Context{Ctx: ctx}, in.Email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("invalid credentials: %w", pkgerrors.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(in.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", pkgerrors.ErrUnauthorized)
	}

	now := as.now()
	expiresAt := now.Add(as.accessTTL)
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   strconv.Itoa(u.UserID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(as.jwtSecretKey)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	as.log.Info("user logged in", "user_id", u.UserID)
	return &LoginResult{AccessToken: signed, TokenType: "Bearer", ExpiresAt: expiresAt, UserID: u.UserID}, nil
}

func (as *authService) VerifyToken(tokenString string) (int, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		return as.jwtSecretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(as.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, fmt.Errorf("token expired: %w", pkgerrors.ErrUnauthorized)
		}
		return 0, fmt.Errorf("invalid token: %w", pkgerrors.ErrUnauthorized)
	}
	userID, err := strconv.Atoi(claims.Subject)
	if err != nil || userID <= 0 {
		return 0, fmt.Errorf("invalid token subject: %w", pkgerrors.ErrUnauthorized)
	}
	return userID, nil
}
