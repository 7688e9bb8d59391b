package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/movierec-backend/internal/data/repos"
	types "github.com/yungbote/movierec-backend/internal/domain"
	pkgerrors "github.com/yungbote/movierec-backend/internal/pkg/errors"
	"github.com/yungbote/movierec-backend/internal/pkg/dbctx"
	"github.com/yungbote/movierec-backend/internal/pkg/logger"
	"github.com/yungbote/movierec-backend/internal/pkg/validation"
)

type CreateUserInput struct {
	Username string `json:"username" validate:"required,max=50"`
	Email    string `json:"email" validate:"required,email,max=120"`
	Password string `json:"password" validate:"required,max=72"`
}

// UpdateUserInput is a partial update; nil and empty fields are left alone.
type UpdateUserInput struct {
	Username *string `json:"username" validate:"omitempty,max=50"`
	Email    *string `json:"email" validate:"omitempty,email,max=120"`
	Password *string `json:"password" validate:"omitempty,max=72"`
}

// UserDetail is a user with their ratings under "movies".
type UserDetail struct {
	*types.User
	Movies []*types.Rating `json:"movies"`
}

type UserService interface {
	List(ctx context.Context) ([]*types.User, error)
	Get(ctx context.Context, userID int) (*UserDetail, error)
	Create(ctx context.Context, in CreateUserInput) (*types.User, error)
	Update(ctx context.Context, userID int, in UpdateUserInput) (*types.User, error)
	Delete(ctx context.Context, userID int) error
}

type userService struct {
	db         *gorm.DB
	log        *logger.Logger
	userRepo   repos.UserRepo
	ratingRepo repos.RatingRepo
	changes    ChangeNotifier
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, ratingRepo repos.RatingRepo, changes ChangeNotifier) UserService {
	serviceLog := log.With("service", "UserService")
	return &userService{
		db:         db,
		log:        serviceLog,
		userRepo:   userRepo,
		ratingRepo: ratingRepo,
		changes:    orNop(changes),
	}
}

func (us *userService) List(ctx context.Context) ([]*types.User, error) {
	return us.userRepo.List(dbctx.Context{Ctx: ctx})
}

func (us *userService) Get(ctx context.Context, userID int) (*UserDetail, error) {
	dbc := dbctx.Context{Ctx: ctx}
	u, err := us.userRepo.GetByID(dbc, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("user %d: %w", userID, pkgerrors.ErrNotFound)
	}
	ratings, err := us.ratingRepo.ListByUser(dbc, userID)
	if err != nil {
		return nil, err
	}
	return &UserDetail{User: u, Movies: ratings}, nil
}

func (us *userService) Create(ctx context.Context, in CreateUserInput) (*types.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = normalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	var created *types.User
	err = us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		taken, err := us.userRepo.EmailExists(dbc, in.Email)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("email already registered: %w", pkgerrors.ErrConflict)
		}
		out, err := us.userRepo.Create(dbc, []*types.User{{
			Username: in.Username,
			Email:    in.Email,
			Password: hash,
		}})
		if err != nil {
			return err
		}
		created = out[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	us.log.Info("user created", "user_id", created.UserID)
	return created, nil
}

func (us *userService) Update(ctx context.Context, userID int, in UpdateUserInput) (*types.User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if in.Username != nil && strings.TrimSpace(*in.Username) != "" {
		updates["username"] = strings.TrimSpace(*in.Username)
	}
	email := ""
	if in.Email != nil {
		email = normalizeEmail(*in.Email)
	}
	if email != "" {
		updates["email"] = email
	}
	if in.Password != nil && *in.Password != "" {
		hash, err := hashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		updates["password"] = hash
	}

	var updated *types.User
	err := us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		u, err := us.userRepo.GetByID(dbc, userID)
		if err != nil {
			return err
		}
		if u == nil {
			return fmt.Errorf("user %d: %w", userID, pkgerrors.ErrNotFound)
		}
		if email != "" && email != u.Email {
			taken, err := us.userRepo.EmailExists(dbc, email)
			if err != nil {
				return err
			}
			if taken {
				return fmt.Errorf("email already registered: %w", pkgerrors.ErrConflict)
			}
		}
		if len(updates) > 0 {
			if err := us.userRepo.Update(dbc, userID, updates); err != nil {
				return err
			}
		}
		updated, err = us.userRepo.GetByID(dbc, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (us *userService) Delete(ctx context.Context, userID int) error {
	deleted, err := us.userRepo.Delete(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("user %d: %w", userID, pkgerrors.ErrNotFound)
	}
	us.log.Info("user deleted", "user_id", userID)
	us.changes.RatingsChanged(ctx, userID, 0)
	return nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}
