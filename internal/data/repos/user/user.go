package user

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yungbote/movierec-backend/internal/data/dberr"
	types "github.com/yungbote/movierec-backend/internal/domain"
	"github.com/yungbote/movierec-backend/internal/pkg/dbctx"
	"github.com/yungbote/movierec-backend/internal/pkg/logger"
)

type UserRepo interface {
	Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error)
	GetByID(dbc dbctx.Context, userID int) (*types.User, error)
	GetByEmail(dbc dbctx.Context, email string) (*types.User, error)
	List(dbc dbctx.Context) ([]*types.User, error)
	EmailExists(dbc dbctx.Context, email string) (bool, error)
	Update(dbc dbctx.Context, userID int, updates map[string]any) error
	Delete(dbc dbctx.Context, userID int) (bool, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{db: db, log: repoLog}
}

func (ur *userRepo) Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error) {
	if len(users) == 0 {
		return []*types.User{}, nil
	}
	if err := dbc.DB(ur.db).WithContext(dbc.Ctx).Create(&users).Error; err != nil {
		return nil, dberr.Map("create users", err)
	}
	return users, nil
}

// GetByID returns nil, nil when the user does not exist.
func (ur *userRepo) GetByID(dbc dbctx.Context, userID int) (*types.User, error) {
	var out types.User
	err := dbc.DB(ur.db).WithContext(dbc.Ctx).Where("user_id = ?", userID).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dberr.Map("get user", err)
	}
	return &out, nil
}

// GetByEmail returns nil, nil when no user carries the address.
func (ur *userRepo) GetByEmail(dbc dbctx.Context, email string) (*types.User, error) {
	var out types.User
	err := dbc.DB(ur.db).WithContext(dbc.Ctx).Where("email = ?", email).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dberr.Map("get user by email", err)
	}
	return &out, nil
}

func (ur *userRepo) List(dbc dbctx.Context) ([]*types.User, error) {
	var results []*types.User
	if err := dbc.DB(ur.db).WithContext(dbc.Ctx).Order("user_id ASC").Find(&results).Error; err != nil {
		return nil, dberr.Map("list users", err)
	}
	return results, nil
}

func (ur *userRepo) EmailExists(dbc dbctx.Context, email string) (bool, error) {
	var count int64
	if err := dbc.DB(ur.db).WithContext(dbc.Ctx).
		Model(&types.User{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		return false, dberr.Map("email exists", err)
	}
	return count > 0, nil
}

func (ur *userRepo) Update(dbc dbctx.Context, userID int, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	err := dbc.DB(ur.db).WithContext(dbc.Ctx).
		Model(&types.User{}).
		Where("user_id = ?", userID).
		Updates(updates).Error
	return dberr.Map("update user", err)
}

// Delete removes the user together with every rating they own. The bool
// reports whether the user existed.
func (ur *userRepo) Delete(dbc dbctx.Context, userID int) (bool, error) {
	var deleted bool
	err := dbc.DB(ur.db).WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		if err := txx.Where("user_id = ?", userID).Delete(&types.Rating{}).Error; err != nil {
			return err
		}
		res := txx.Where("user_id = ?", userID).Delete(&types.User{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, dberr.Map("delete user", err)
	}
	return deleted, nil
}
