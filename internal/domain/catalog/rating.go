package catalog

import "time"

// Rating is the user_movie association. (UserID, MovieID) is the natural key.
//
// IsWatched defaults to true at the service layer, not through a column
// default, so that an explicit false survives gorm's zero-value handling.
type Rating struct {
	UserID      int       `gorm:"column:user_id;primaryKey;autoIncrement:false" json:"userId"`
	MovieID     int       `gorm:"column:movie_id;primaryKey;autoIncrement:false;index" json:"movieId"`
	Rating      float64   `gorm:"column:rating;not null" json:"rating"`
	IsFavorited bool      `gorm:"column:is_favorited;not null" json:"isFavorited"`
	IsWatched   bool      `gorm:"column:is_watched;not null" json:"isWatched"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"-"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"-"`
}

func (Rating) TableName() string { return "user_movie" }
