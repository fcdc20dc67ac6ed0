package grid

import "encoding/json"

// Set is an ordered cell collection with O(1) membership. Cells live in an
// index-addressable slice; a parallel map from packed key to slice index
// answers occupancy queries.
type Set struct {
	cells []Cell
	index map[Key]int
}

// NewSet returns a set holding cells in order. Duplicates are dropped.
func NewSet(cells ...Cell) *Set {
	s := &Set{
		cells: make([]Cell, 0, len(cells)),
		index: make(map[Key]int, len(cells)),
	}
	for _, c := range cells {
		s.Add(c)
	}
	return s
}

// Len returns the number of cells.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.cells)
}

// Has reports membership.
func (s *Set) Has(c Cell) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[c.Key()]
	return ok
}

// HasXY reports membership of (x, y).
func (s *Set) HasXY(x, y int) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[KeyOf(x, y)]
	return ok
}

// Index returns the slice position of c, or -1.
func (s *Set) Index(c Cell) int {
	if s == nil {
		return -1
	}
	if i, ok := s.index[c.Key()]; ok {
		return i
	}
	return -1
}

// At returns the i-th cell.
func (s *Set) At(i int) Cell {
	return s.cells[i]
}

// Last returns the most recently appended cell.
func (s *Set) Last() (Cell, bool) {
	if s.Len() == 0 {
		return Cell{}, false
	}
	return s.cells[len(s.cells)-1], true
}

// Add appends c. It returns false if c was already present.
func (s *Set) Add(c Cell) bool {
	if s.index == nil {
		s.index = make(map[Key]int)
	}
	k := c.Key()
	if _, ok := s.index[k]; ok {
		return false
	}
	s.index[k] = len(s.cells)
	s.cells = append(s.cells, c)
	return true
}

// Remove deletes c by swapping the last cell into its slot.
func (s *Set) Remove(c Cell) bool {
	if s == nil {
		return false
	}
	k := c.Key()
	i, ok := s.index[k]
	if !ok {
		return false
	}
	last := len(s.cells) - 1
	if i != last {
		moved := s.cells[last]
		s.cells[i] = moved
		s.index[moved.Key()] = i
	}
	s.cells = s.cells[:last]
	delete(s.index, k)
	return true
}

// Filter keeps the cells for which keep returns true, preserving order.
// It returns the number of removed cells.
func (s *Set) Filter(keep func(Cell) bool) int {
	kept := s.cells[:0]
	removed := 0
	for _, c := range s.cells {
		if keep(c) {
			kept = append(kept, c)
			continue
		}
		removed++
	}
	s.cells = kept
	if removed > 0 {
		s.reindex()
	}
	return removed
}

// Cells returns a copy of the cells in order.
func (s *Set) Cells() []Cell {
	if s == nil {
		return nil
	}
	out := make([]Cell, len(s.cells))
	copy(out, s.cells)
	return out
}

// Clone returns an independent copy.
func (s *Set) Clone() *Set {
	return NewSet(s.Cells()...)
}

// Translate returns a copy shifted by d.
func (s *Set) Translate(d Cell) *Set {
	out := &Set{
		cells: make([]Cell, len(s.cells)),
		index: make(map[Key]int, len(s.cells)),
	}
	for i, c := range s.cells {
		n := c.Add(d)
		out.cells[i] = n
		out.index[n.Key()] = i
	}
	return out
}

// Touches reports whether any 8-neighbor of c is in s.
func (s *Set) Touches(c Cell) bool {
	for _, d := range Dirs8 {
		if s.Has(c.Add(d)) {
			return true
		}
	}
	return false
}

// MarshalJSON encodes the set as an ordered cell list.
func (s *Set) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.cells)
}

// UnmarshalJSON decodes an ordered cell list.
func (s *Set) UnmarshalJSON(data []byte) error {
	var cells []Cell
	if err := json.Unmarshal(data, &cells); err != nil {
		return err
	}
	*s = *NewSet(cells...)
	return nil
}

func (s *Set) reindex() {
	s.index = make(map[Key]int, len(s.cells))
	for i, c := range s.cells {
		s.index[c.Key()] = i
	}
}
