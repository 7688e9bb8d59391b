package user

import "time"

type User struct {
	UserID    int       `gorm:"column:user_id;primaryKey;autoIncrement" json:"userId"`
	Username  string    `gorm:"column:username;size:50" json:"username"`
	Email     string    `gorm:"column:email;size:120;index" json:"email"`
	Password  string    `gorm:"column:password;not null" json:"-"`
	CreatedAt time.Time `gorm:"column:created_at" json:"-"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"-"`
}

func (User) TableName() string { return "user" }
