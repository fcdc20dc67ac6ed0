package grid

import "math"

// FineBuckets is the number of 5-degree angle buckets used before arity
// quantization.
const FineBuckets = 72

// Vec is a float step vector.
type Vec struct {
	X, Y float64
}

// Add returns v + w.
func (v Vec) Add(w Vec) Vec {
	return Vec{X: v.X + w.X, Y: v.Y + w.Y}
}

// Dot returns the dot product.
func (v Vec) Dot(w Vec) float64 {
	return v.X*w.X + v.Y*w.Y
}

// Cell rounds v to the nearest grid cell.
func (v Vec) Cell() Cell {
	return Cell{X: Round(v.X), Y: Round(v.Y)}
}

// VecOf converts a cell to a vector.
func VecOf(c Cell) Vec {
	return Vec{X: float64(c.X), Y: float64(c.Y)}
}

// Heading is a direction quantized to Arity equal sectors (8 or 16).
type Heading struct {
	Index int `json:"index" yaml:"index"`
	Arity int `json:"arity" yaml:"arity"`
}

// Angle returns the heading angle in radians.
func (h Heading) Angle() float64 {
	return float64(h.Index) * 2 * math.Pi / float64(h.Arity)
}

// Step returns the heading as a Chebyshev-normalized vector: the dominant
// axis component is exactly ±1, so every step moves to an 8-neighbor.
func (h Heading) Step() Vec {
	return chebyshevUnit(h.Angle())
}

// Unit returns the Euclidean unit vector of the heading.
func (h Heading) Unit() Vec {
	a := h.Angle()
	return Vec{X: clean(math.Cos(a)), Y: clean(math.Sin(a))}
}

// Rotate turns the heading by n sectors (positive is counter-clockwise).
func (h Heading) Rotate(n int) Heading {
	return Heading{Index: mod(h.Index+n, h.Arity), Arity: h.Arity}
}

// MirrorX reflects the heading across the vertical axis (negates x).
func (h Heading) MirrorX() Heading {
	return Heading{Index: mod(h.Arity/2-h.Index, h.Arity), Arity: h.Arity}
}

// Perp returns the heading turned a quarter circle in the direction of sign.
func (h Heading) Perp(sign int) Heading {
	return h.Rotate(sign * h.Arity / 4)
}

// FineBucket snaps an angle to one of FineBuckets buckets.
func FineBucket(angle float64) int {
	b := Round(angle / (2 * math.Pi / FineBuckets))
	return mod(b, FineBuckets)
}

// BucketAngle returns the center angle of a fine bucket.
func BucketAngle(bucket int) float64 {
	return float64(mod(bucket, FineBuckets)) * 2 * math.Pi / FineBuckets
}

// Quantize maps a fine bucket to the arity heading with the largest dot
// product against it. Ties resolve to the lower index.
func Quantize(bucket, arity int) Heading {
	a := BucketAngle(bucket)
	u := Vec{X: math.Cos(a), Y: math.Sin(a)}
	best, bestDot := 0, math.Inf(-1)
	for i := 0; i < arity; i++ {
		d := Heading{Index: i, Arity: arity}.Unit().Dot(u)
		if d > bestDot+1e-9 {
			best, bestDot = i, d
		}
	}
	return Heading{Index: best, Arity: arity}
}

// HeadingToward quantizes the direction from "from" to "to".
// A zero-length direction yields fallback.
func HeadingToward(from, to Cell, arity int, fallback Heading) Heading {
	dx, dy := float64(to.X-from.X), float64(to.Y-from.Y)
	if dx == 0 && dy == 0 {
		return fallback
	}
	return Quantize(FineBucket(math.Atan2(dy, dx)), arity)
}

// BucketScan returns fine buckets ordered by angular distance from center:
// center, center+1, center-1, center+2, ...
func BucketScan(center int) []int {
	out := make([]int, 0, FineBuckets)
	out = append(out, mod(center, FineBuckets))
	for d := 1; d <= FineBuckets/2; d++ {
		out = append(out, mod(center+d, FineBuckets))
		if d != FineBuckets/2 {
			out = append(out, mod(center-d, FineBuckets))
		}
	}
	return out
}

func chebyshevUnit(a float64) Vec {
	x, y := clean(math.Cos(a)), clean(math.Sin(a))
	m := math.Max(math.Abs(x), math.Abs(y))
	return Vec{X: clean(x / m), Y: clean(y / m)}
}

func clean(v float64) float64 {
	r := math.Round(v)
	if math.Abs(v-r) < 1e-9 {
		return r
	}
	return v
}

func mod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}
