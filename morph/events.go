package morph

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/pthm-cable/sprout/grid"
)

// EventKind identifies engine events.
type EventKind uint8

const (
	EventBodyGrown EventKind = iota
	EventBodyStalled
	EventBodyShrunk
	EventModulePlaced
	EventMirrorPlaced
	EventPlacementFailed
	EventModulesGrown
	EventModulePruned
	EventModuleReattached
	EventModuleDropped
	EventModuleDetached
	EventEyeNormalized
)

var eventNames = [...]string{
	"body_grown",
	"body_stalled",
	"body_shrunk",
	"module_placed",
	"mirror_placed",
	"placement_failed",
	"modules_grown",
	"module_pruned",
	"module_reattached",
	"module_dropped",
	"module_detached",
	"eye_normalized",
}

func (k EventKind) String() string {
	if int(k) < len(eventNames) {
		return eventNames[k]
	}
	return fmt.Sprintf("event(%d)", uint8(k))
}

// MarshalText encodes the kind by name.
func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Reason explains a placement failure. Failures are data, never errors.
type Reason string

const (
	ReasonNone        Reason = ""
	ReasonMinBody     Reason = "min_body"
	ReasonNoAnchor    Reason = "no_anchor"
	ReasonBlocked     Reason = "blocked"
	ReasonTooClose    Reason = "too_close"
	ReasonUnknownType Reason = "unknown_type"
)

// Event is a structured record of something the engine did to an organism.
type Event struct {
	Tick     uint64    // Organism mutation tick
	Organism uuid.UUID // Which organism
	Kind     EventKind
	Module   string    // Organ type, if any
	Reason   Reason    // Placement failure reason
	Count    int       // Cells or modules affected
	Cell     grid.Cell // Anchor or reference cell
}

// Sink receives engine events. Sinks are owned by the caller; organisms
// never hold a reference to one.
type Sink interface {
	Record(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Record implements Sink.
func (f SinkFunc) Record(ev Event) { f(ev) }

type discard struct{}

func (discard) Record(Event) {}

// Discard drops all events.
var Discard Sink = discard{}
