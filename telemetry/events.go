// Package telemetry turns engine events into structured logs, per-window
// growth statistics and CSV output.
package telemetry

import (
	"context"
	"log/slog"

	"github.com/pthm-cable/sprout/morph"
)

// LogSink writes engine events to a slog logger, keyed by organism id.
// Growth and placement chatter is logged at debug level; structural changes
// (repair, detachment, normalization) at info.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink on logger; nil means slog.Default().
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// Record implements morph.Sink.
func (s *LogSink) Record(ev morph.Event) {
	attrs := []slog.Attr{
		slog.String("organism", ev.Organism.String()),
		slog.Uint64("tick", ev.Tick),
	}
	if ev.Module != "" {
		attrs = append(attrs, slog.String("module", ev.Module))
	}
	if ev.Reason != morph.ReasonNone {
		attrs = append(attrs, slog.String("reason", string(ev.Reason)))
	}
	if ev.Count != 0 {
		attrs = append(attrs, slog.Int("count", ev.Count))
	}
	s.logger.LogAttrs(context.Background(), levelOf(ev.Kind), ev.Kind.String(), attrs...)
}

func levelOf(k morph.EventKind) slog.Level {
	switch k {
	case morph.EventModulePruned, morph.EventModuleReattached, morph.EventModuleDropped,
		morph.EventModuleDetached, morph.EventEyeNormalized, morph.EventBodyShrunk:
		return slog.LevelInfo
	}
	return slog.LevelDebug
}

// Buffer keeps events in memory until drained.
type Buffer struct {
	events []morph.Event
}

// Record implements morph.Sink.
func (b *Buffer) Record(ev morph.Event) { b.events = append(b.events, ev) }

// Len returns the number of buffered events.
func (b *Buffer) Len() int { return len(b.events) }

// Drain returns the buffered events and empties the buffer.
func (b *Buffer) Drain() []morph.Event {
	out := b.events
	b.events = nil
	return out
}

// multiSink fans out to several sinks in order.
type multiSink []morph.Sink

func (m multiSink) Record(ev morph.Event) {
	for _, s := range m {
		s.Record(ev)
	}
}

// Tee returns a sink that records into every non-nil sink.
func Tee(sinks ...morph.Sink) morph.Sink {
	var out multiSink
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}

// EventRecord is the CSV row for one event.
type EventRecord struct {
	Tick     uint64 `csv:"tick"`
	Organism string `csv:"organism"`
	Kind     string `csv:"kind"`
	Module   string `csv:"module"`
	Reason   string `csv:"reason"`
	Count    int    `csv:"count"`
	X        int    `csv:"x"`
	Y        int    `csv:"y"`
}

// NewEventRecord flattens ev for CSV output.
func NewEventRecord(ev morph.Event) EventRecord {
	return EventRecord{
		Tick:     ev.Tick,
		Organism: ev.Organism.String(),
		Kind:     ev.Kind.String(),
		Module:   ev.Module,
		Reason:   string(ev.Reason),
		Count:    ev.Count,
		X:        ev.Cell.X,
		Y:        ev.Cell.Y,
	}
}
