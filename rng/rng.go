// Package rng provides the seeded generators and coordinate hashes used by the
// growth engine. Every stochastic choice in sprout is drawn from a *rand.Rand
// built here; nothing reads ambient randomness.
package rng

import (
	"hash/fnv"
	"math/rand"
)

// Mulberry32 is a small 32-bit state generator. It implements rand.Source64
// so it can back a *rand.Rand.
type Mulberry32 struct {
	state uint32
}

// NewMulberry32 returns a generator seeded with seed.
func NewMulberry32(seed uint32) *Mulberry32 {
	return &Mulberry32{state: seed}
}

// Uint32 returns the next 32 bits of the stream.
func (m *Mulberry32) Uint32() uint32 {
	m.state += 0x6D2B79F5
	t := m.state
	t = (t ^ t>>15) * (t | 1)
	t ^= t + (t^t>>7)*(t|61)
	return t ^ t>>14
}

// Float64 returns a value in [0, 1) from a single draw.
func (m *Mulberry32) Float64() float64 {
	return float64(m.Uint32()) / 4294967296.0
}

// Uint64 implements rand.Source64.
func (m *Mulberry32) Uint64() uint64 {
	hi := uint64(m.Uint32())
	lo := uint64(m.Uint32())
	return hi<<32 | lo
}

// Int63 implements rand.Source.
func (m *Mulberry32) Int63() int64 {
	return int64(m.Uint64() >> 1)
}

// Seed implements rand.Source. Only the low 32 bits are kept.
func (m *Mulberry32) Seed(seed int64) {
	m.state = uint32(seed)
}

// New returns a *rand.Rand backed by a mulberry32 stream.
func New(seed uint32) *rand.Rand {
	return rand.New(NewMulberry32(seed))
}

// Hash32 mixes vals into a well-distributed 32-bit value.
func Hash32(vals ...uint32) uint32 {
	h := uint32(0x811C9DC5)
	for _, v := range vals {
		h = fmix(h ^ fmix(v+0x9E3779B9))
		h = h*5 + 0xE6546B64
	}
	return fmix(h ^ uint32(len(vals)))
}

// Unit maps Hash32(vals...) to [0, 1).
func Unit(vals ...uint32) float64 {
	return float64(Hash32(vals...)) / 4294967296.0
}

// Coord converts a signed grid coordinate to hash input.
func Coord(v int) uint32 {
	return uint32(int32(v))
}

// Derive returns the seed of an isolated stream for (seed, tick, salt).
func Derive(seed uint32, tick uint64, salt string) uint32 {
	f := fnv.New32a()
	f.Write([]byte(salt))
	return Hash32(seed, uint32(tick), uint32(tick>>32), f.Sum32())
}

// Stream is shorthand for New(Derive(seed, tick, salt)).
func Stream(seed uint32, tick uint64, salt string) *rand.Rand {
	return New(Derive(seed, tick, salt))
}

// fmix is the murmur3 finalizer.
func fmix(h uint32) uint32 {
	h ^= h >> 16
	h *= 0x85EBCA6B
	h ^= h >> 13
	h *= 0xC2B2AE35
	h ^= h >> 16
	return h
}
