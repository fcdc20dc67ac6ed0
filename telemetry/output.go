package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/sprout/config"
	"github.com/pthm-cable/sprout/morph"
)

// GenomeRecord is the CSV row for an exported genome.
type GenomeRecord struct {
	Tick     uint64 `csv:"tick"`
	Organism string `csv:"organism"`
	Seed     uint32 `csv:"seed"`
	Modules  int    `csv:"modules"`
	Genome   string `csv:"genome"`
}

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir         string
	growthFile  *os.File
	eventsFile  *os.File
	genomesFile *os.File

	// Track if headers have been written
	growthHeaderWritten  bool
	eventsHeaderWritten  bool
	genomesHeaderWritten bool
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	files := []struct {
		name string
		dst  **os.File
	}{
		{"growth.csv", &om.growthFile},
		{"events.csv", &om.eventsFile},
		{"genomes.csv", &om.genomesFile},
	}
	for _, f := range files {
		fh, err := os.Create(filepath.Join(dir, f.name))
		if err != nil {
			om.Close()
			return nil, fmt.Errorf("creating %s: %w", f.name, err)
		}
		*f.dst = fh
	}
	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	configPath := filepath.Join(om.dir, "config.yaml")
	return cfg.WriteYAML(configPath)
}

// writeRows marshals records to f, with headers on the first call only.
func writeRows(f *os.File, headerWritten *bool, records any) error {
	if !*headerWritten {
		if err := gocsv.Marshal(records, f); err != nil {
			return err
		}
		*headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, f)
}

// WriteStats writes a window stats record to growth.csv.
func (om *OutputManager) WriteStats(stats TickStats) error {
	if om == nil {
		return nil
	}
	if err := writeRows(om.growthFile, &om.growthHeaderWritten, []TickStats{stats}); err != nil {
		return fmt.Errorf("writing growth stats: %w", err)
	}
	return nil
}

// WriteEvents appends events to events.csv.
func (om *OutputManager) WriteEvents(events []morph.Event) error {
	if om == nil || len(events) == 0 {
		return nil
	}
	records := make([]EventRecord, len(events))
	for i, ev := range events {
		records[i] = NewEventRecord(ev)
	}
	if err := writeRows(om.eventsFile, &om.eventsHeaderWritten, records); err != nil {
		return fmt.Errorf("writing events: %w", err)
	}
	return nil
}

// WriteGenome appends a genome record to genomes.csv.
func (om *OutputManager) WriteGenome(rec GenomeRecord) error {
	if om == nil {
		return nil
	}
	if err := writeRows(om.genomesFile, &om.genomesHeaderWritten, []GenomeRecord{rec}); err != nil {
		return fmt.Errorf("writing genome: %w", err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, f := range []*os.File{om.growthFile, om.eventsFile, om.genomesFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
