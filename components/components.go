// Package components defines ECS components for the colony.
package components

import (
	"github.com/google/uuid"

	"github.com/pthm-cable/sprout/morph"
)

// Origin records how an organism came to exist.
type Origin uint8

const (
	OriginRoot      Origin = iota // Seeded directly
	OriginBud                     // Grown from a detached module
	OriginSymbiosis               // Offspring of a genome merge
)

var originNames = [...]string{"root", "bud", "symbiosis"}

func (o Origin) String() string {
	if int(o) < len(originNames) {
		return originNames[o]
	}
	return "unknown"
}

// Specimen holds the organism an entity stands for. The organism is owned
// by the entity; nothing else keeps a reference to it.
type Specimen struct {
	Org *morph.Organism
}

// Clock tracks when an organism joined the colony and how many colony
// ticks it has lived through. The organism's own MutationTicks drive its
// RNG streams.
type Clock struct {
	Born uint64 // Colony tick of creation
	Age  uint64 // Colony ticks stepped
}

// Lineage records ancestry.
type Lineage struct {
	Origin     Origin
	Parent     uuid.UUID // Zero for roots
	Mate       uuid.UUID // Second parent of a symbiosis offspring
	Generation int
}
