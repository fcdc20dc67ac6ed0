// Package morph grows and mutates creature bodies on the cell grid: body
// expansion shaped by a wave field, organ placement, incremental organ growth
// and integrity repair.
//
// All operations are synchronous and take an explicit *rand.Rand. An Engine
// holds no per-organism state; callers must not run two operations on the same
// organism concurrently.
package morph

import (
	"github.com/pthm-cable/sprout/config"
	"github.com/pthm-cable/sprout/organs"
)

// Engine applies growth operations using one configuration and organ table.
type Engine struct {
	cfg  *config.Config
	reg  *organs.Registry
	sink Sink
}

// NewEngine creates an engine. cfg must come from config.Load (or Default)
// so the organ registry is populated. A nil sink discards events.
func NewEngine(cfg *config.Config, sink Sink) *Engine {
	if sink == nil {
		sink = Discard
	}
	reg := cfg.Derived.Registry
	if reg == nil {
		panic("morph: config has no organ registry; load it with config.Load")
	}
	return &Engine{cfg: cfg, reg: reg, sink: sink}
}

// Config returns the engine configuration.
func (e *Engine) Config() *config.Config { return e.cfg }

// Registry returns the organ table.
func (e *Engine) Registry() *organs.Registry { return e.reg }

// WithSink returns a copy of e that records into sink.
func (e *Engine) WithSink(sink Sink) *Engine {
	c := *e
	if sink == nil {
		sink = Discard
	}
	c.sink = sink
	return &c
}

func (e *Engine) emit(o *Organism, ev Event) {
	ev.Tick = o.MutationTicks
	ev.Organism = o.ID
	e.sink.Record(ev)
}
