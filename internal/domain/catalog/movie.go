package catalog

// Movie is catalog reference data. MovieGenre keeps the raw delimited tag
// list exactly as seeded; tokenization happens in the feature builder.
type Movie struct {
	MovieID    int    `gorm:"column:movie_id;primaryKey;autoIncrement" json:"movieId"`
	MovieTitle string `gorm:"column:movie_title;size:300;not null" json:"movieTitle"`
	MovieGenre string `gorm:"column:movie_genre;size:300" json:"movieGenre"`
	MovieImage string `gorm:"column:movie_image;size:300" json:"movieImage"`
}

func (Movie) TableName() string { return "movie" }
