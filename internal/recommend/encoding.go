package recommend

// Encoder is a bidirectional map between raw ids and dense zero-based
// indices, assigned in first-appearance order.
type Encoder struct {
	ids   []int
	index map[int]int
}

func NewEncoder(ids []int) *Encoder {
	e := &Encoder{
		ids:   make([]int, 0, len(ids)),
		index: make(map[int]int, len(ids)),
	}
	for _, id := range ids {
		e.add(id)
	}
	return e
}

func (e *Encoder) add(id int) {
	if _, ok := e.index[id]; ok {
		return
	}
	e.index[id] = len(e.ids)
	e.ids = append(e.ids, id)
}

func (e *Encoder) Encode(id int) (int, bool) {
	idx, ok := e.index[id]
	return idx, ok
}

func (e *Encoder) Decode(idx int) (int, bool) {
	if idx < 0 || idx >= len(e.ids) {
		return 0, false
	}
	return e.ids[idx], true
}

func (e *Encoder) Len() int { return len(e.ids) }

// IDs returns a copy of the ids in index order.
func (e *Encoder) IDs() []int {
	out := make([]int, len(e.ids))
	copy(out, e.ids)
	return out
}
