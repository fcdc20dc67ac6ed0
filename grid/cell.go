// Package grid implements the integer cell grid that bodies and organs live on:
// packed cell keys, ordered occupancy sets and quantized directions.
package grid

import "math"

// Cell is a position on the unbounded grid.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Key is a packed coordinate pair, usable as a map key without allocation.
type Key uint64

// KeyOf packs (x, y).
func KeyOf(x, y int) Key {
	return Key(uint64(uint32(int32(x)))<<32 | uint64(uint32(int32(y))))
}

// Key returns the packed key of c.
func (c Cell) Key() Key {
	return KeyOf(c.X, c.Y)
}

// Cell unpacks k.
func (k Key) Cell() Cell {
	return Cell{X: int(int32(uint32(k >> 32))), Y: int(int32(uint32(k)))}
}

// Add returns c offset by d.
func (c Cell) Add(d Cell) Cell {
	return Cell{X: c.X + d.X, Y: c.Y + d.Y}
}

// Sub returns c - d.
func (c Cell) Sub(d Cell) Cell {
	return Cell{X: c.X - d.X, Y: c.Y - d.Y}
}

// Dirs8 lists the 8-neighborhood offsets in a fixed order.
// Enumeration order matters for determinism; do not reorder.
var Dirs8 = [8]Cell{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1},
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

// Dirs4 lists the axis-aligned offsets.
var Dirs4 = [4]Cell{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}

// Chebyshev returns the king-move distance between a and b.
func Chebyshev(a, b Cell) int {
	dx := abs(a.X - b.X)
	dy := abs(a.Y - b.Y)
	if dx > dy {
		return dx
	}
	return dy
}

// Manhattan returns |dx| + |dy|.
func Manhattan(a, b Cell) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

// Dist returns the Euclidean distance between a and b.
func Dist(a, b Cell) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}

// Adjacent8 reports whether a and b are distinct 8-neighbors.
func Adjacent8(a, b Cell) bool {
	return a != b && Chebyshev(a, b) == 1
}

// Round rounds half up. round(v+1) == round(v)+1 holds for every v, which
// keeps successive steps 8-adjacent.
func Round(v float64) int {
	return int(math.Floor(v + 0.5))
}

// Sign returns -1, 0 or 1.
func Sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
