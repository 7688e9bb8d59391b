package recommend

import (
	"math"
	"sort"
)

type cell struct {
	idx   int
	value float64
}

// UserItemMatrix is the users x movies rating matrix. Rows are users and
// columns are movies, both in ascending id order; every unrated cell reads as
// zero. Storage is sparse in both orientations.
type UserItemMatrix struct {
	userIDs  []int
	movieIDs []int
	rowOf    map[int]int
	colOf    map[int]int
	rows     [][]cell
	cols     [][]cell
	norms    []float64
}

func newUserItemMatrix(rows []FeatureRow) *UserItemMatrix {
	users := map[int]struct{}{}
	movies := map[int]struct{}{}
	for _, r := range rows {
		users[r.UserID] = struct{}{}
		movies[r.MovieID] = struct{}{}
	}
	m := &UserItemMatrix{
		userIDs:  sortedKeys(users),
		movieIDs: sortedKeys(movies),
	}
	m.rowOf = indexOf(m.userIDs)
	m.colOf = indexOf(m.movieIDs)
	m.rows = make([][]cell, len(m.userIDs))
	m.cols = make([][]cell, len(m.movieIDs))
	for _, r := range rows {
		ri, ci := m.rowOf[r.UserID], m.colOf[r.MovieID]
		m.rows[ri] = append(m.rows[ri], cell{idx: ci, value: r.Rating})
		m.cols[ci] = append(m.cols[ci], cell{idx: ri, value: r.Rating})
	}
	m.norms = make([]float64, len(m.cols))
	for ci := range m.cols {
		sort.Slice(m.cols[ci], func(a, b int) bool { return m.cols[ci][a].idx < m.cols[ci][b].idx })
		var sq float64
		for _, c := range m.cols[ci] {
			sq += c.value * c.value
		}
		m.norms[ci] = math.Sqrt(sq)
	}
	for ri := range m.rows {
		sort.Slice(m.rows[ri], func(a, b int) bool { return m.rows[ri][a].idx < m.rows[ri][b].idx })
	}
	return m
}

func (m *UserItemMatrix) UserIDs() []int { return append([]int(nil), m.userIDs...) }
func (m *UserItemMatrix) MovieIDs() []int { return append([]int(nil), m.movieIDs...) }
func (m *UserItemMatrix) Rows() int { return len(m.userIDs) }
func (m *UserItemMatrix) Cols() int { return len(m.movieIDs) }

// At returns the rating at (userID, movieID), zero when unrated or unknown.
func (m *UserItemMatrix) At(userID, movieID int) float64 {
	ri, ok := m.rowOf[userID]
	if !ok {
		return 0
	}
	ci, ok := m.colOf[movieID]
	if !ok {
		return 0
	}
	col := m.cols[ci]
	k := sort.Search(len(col), func(i int) bool { return col[i].idx >= ri })
	if k < len(col) && col[k].idx == ri {
		return col[k].value
	}
	return 0
}

// Dense materializes the full matrix. Intended for small catalogs and tests.
func (m *UserItemMatrix) Dense() [][]float64 {
	out := make([][]float64, len(m.rows))
	for ri, row := range m.rows {
		dense := make([]float64, len(m.movieIDs))
		for _, c := range row {
			dense[c.idx] = c.value
		}
		out[ri] = dense
	}
	return out
}

func sortedKeys(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func indexOf(ids []int) map[int]int {
	out := make(map[int]int, len(ids))
	for i, id := range ids {
		out[id] = i
	}
	return out
}
