package recommend

import (
	"fmt"
	"strconv"
	"strings"
)

// MeanRating is a movie's numeric mean. It is rendered as a one-decimal
// string only when encoded to JSON.
type MeanRating float64

func (m MeanRating) String() string {
	return strconv.FormatFloat(float64(m), 'f', 1, 64)
}

func (m MeanRating) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(m.String())), nil
}

// UnmarshalJSON accepts the quoted display form and plain numbers.
func (m *MeanRating) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = unq
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("mean_rating: %w", err)
	}
	*m = MeanRating(f)
	return nil
}

// Recommendation is the record shape shared by every recommendation and
// listing path.
type Recommendation struct {
	MovieID    int        `json:"movieId"`
	MovieTitle string     `json:"movieTitle"`
	MovieGenre string     `json:"movieGenre"`
	MeanRating MeanRating `json:"mean_rating"`
	MovieImage string     `json:"movieImage"`
}
