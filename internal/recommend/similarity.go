package recommend

import (
	"context"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

type Neighbor struct {
	MovieID int     `json:"movieId"`
	Score   float64 `json:"score"`
}

// cosine is the cosine similarity of two dense vectors; zero when either is
// the zero vector.
func cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Cosine is the similarity of two movie columns of the matrix.
func (m *UserItemMatrix) Cosine(movieA, movieB int) float64 {
	ca, ok := m.colOf[movieA]
	if !ok {
		return 0
	}
	cb, ok := m.colOf[movieB]
	if !ok {
		return 0
	}
	if m.norms[ca] == 0 || m.norms[cb] == 0 {
		return 0
	}
	a, b := m.cols[ca], m.cols[cb]
	var dot float64
	for i, j := 0, 0; i < len(a) && j < len(b); {
		switch {
		case a[i].idx == b[j].idx:
			dot += a[i].value * b[j].value
			i++
			j++
		case a[i].idx < b[j].idx:
			i++
		default:
			j++
		}
	}
	return dot / (m.norms[ca] * m.norms[cb])
}

// neighbors scores column ci against every column sharing at least one user.
// scratch must have Cols() length and be zeroed; it is left zeroed.
func (m *UserItemMatrix) neighbors(ci int, k int, scratch []float64, touched []int) ([]Neighbor, []int) {
	touched = touched[:0]
	for _, uc := range m.cols[ci] {
		for _, rc := range m.rows[uc.idx] {
			if rc.idx == ci {
				continue
			}
			if scratch[rc.idx] == 0 {
				touched = append(touched, rc.idx)
			}
			scratch[rc.idx] += uc.value * rc.value
		}
	}
	out := make([]Neighbor, 0, len(touched))
	for _, cj := range touched {
		dot := scratch[cj]
		scratch[cj] = 0
		if dot == 0 || m.norms[ci] == 0 || m.norms[cj] == 0 {
			continue
		}
		out = append(out, Neighbor{MovieID: m.movieIDs[cj], Score: dot / (m.norms[ci] * m.norms[cj])})
	}
	sortNeighbors(out)
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out, touched
}

func sortNeighbors(ns []Neighbor) {
	sort.Slice(ns, func(i, j int) bool {
		if ns[i].Score != ns[j].Score {
			return ns[i].Score > ns[j].Score
		}
		return ns[i].MovieID < ns[j].MovieID
	})
}

// Neighbors computes the k most similar movies for one movie on demand.
func (m *UserItemMatrix) Neighbors(movieID, k int) []Neighbor {
	ci, ok := m.colOf[movieID]
	if !ok {
		return []Neighbor{}
	}
	out, _ := m.neighbors(ci, k, make([]float64, len(m.movieIDs)), nil)
	return out
}

// ComputeSimilarities runs the item-item cosine for every movie column,
// keeping the k best neighbours of each (k <= 0 keeps all non-zero ones).
func ComputeSimilarities(ctx context.Context, m *UserItemMatrix, k, workers int) (map[int][]Neighbor, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	n := len(m.movieIDs)
	results := make([][]Neighbor, n)

	chunk := (n + workers - 1) / workers
	if chunk == 0 {
		chunk = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < n; start += chunk {
		lo, hi := start, start+chunk
		if hi > n {
			hi = n
		}
		g.Go(func() error {
			scratch := make([]float64, n)
			var touched []int
			for ci := lo; ci < hi; ci++ {
				if ci%256 == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				results[ci], touched = m.neighbors(ci, k, scratch, touched)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[int][]Neighbor, n)
	for ci, ns := range results {
		out[m.movieIDs[ci]] = ns
	}
	return out, nil
}
