package main

import (
	"fmt"
	"log/slog"

	"github.com/mlange-42/ark/ecs"
	"github.com/spf13/cobra"

	"github.com/pthm-cable/sprout/colony"
	"github.com/pthm-cable/sprout/config"
	"github.com/pthm-cable/sprout/genome"
	"github.com/pthm-cable/sprout/grid"
	"github.com/pthm-cable/sprout/morph"
	"github.com/pthm-cable/sprout/telemetry"
)

// growOptions are shared by grow and genome.
type growOptions struct {
	seed     uint32
	ticks    int
	bias     string
	budEvery int
}

func (o *growOptions) register(cmd *cobra.Command) {
	cmd.Flags().Uint32Var(&o.seed, "seed", 1, "Organism seed")
	cmd.Flags().IntVar(&o.ticks, "ticks", 200, "Colony ticks to run")
	cmd.Flags().StringVar(&o.bias, "bias", "", "Attraction point as x,y (empty = none)")
	cmd.Flags().IntVar(&o.budEvery, "bud-every", 0, "Bud the root organism every N ticks (0 = never)")
}

func (o *growOptions) biases(eng *morph.Engine) ([]morph.Bias, error) {
	if o.bias == "" {
		return nil, nil
	}
	var p grid.Cell
	if _, err := fmt.Sscanf(o.bias, "%d,%d", &p.X, &p.Y); err != nil {
		return nil, fmt.Errorf("parsing --bias %q: %w", o.bias, err)
	}
	return []morph.Bias{eng.TargetBias(p)}, nil
}

var (
	growOpts  growOptions
	outputDir string
)

var growCmd = &cobra.Command{
	Use:   "grow",
	Short: "Grow a colony from a seed and log its statistics",
	Args:  cobra.NoArgs,
	RunE:  runGrow,
}

func init() {
	growOpts.register(growCmd)
	growCmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory for CSV logs and config snapshot")
}

// run steps col for o.ticks ticks, budding root on schedule, and calls each
// after every tick.
func (o *growOptions) run(col *colony.Colony, root ecs.Entity, each func(tick uint64) error) error {
	biases, err := o.biases(col.Engine())
	if err != nil {
		return err
	}
	for i := 0; i < o.ticks; i++ {
		col.Step(biases...)
		tick := col.Tick()

		if o.budEvery > 0 && tick%uint64(o.budEvery) == 0 {
			if _, err := col.Bud(root); err != nil {
				slog.Debug("bud skipped", "tick", tick, "error", err)
			}
		}
		if each == nil {
			continue
		}
		if err := each(tick); err != nil {
			return err
		}
	}
	return nil
}

func runGrow(cmd *cobra.Command, args []string) error {
	cfg := config.Cfg()
	eng := morph.NewEngine(cfg, nil)

	output, err := telemetry.NewOutputManager(outputDir)
	if err != nil {
		return err
	}
	defer output.Close()
	if err := output.WriteConfig(cfg); err != nil {
		return err
	}

	collector := telemetry.NewCollector(cfg.Telemetry.StatsWindow)
	events := &telemetry.Buffer{}
	perf := telemetry.NewPerfCollector(cfg.Telemetry.StatsWindow)
	col := colony.New(eng, telemetry.Tee(telemetry.NewLogSink(nil), collector, events), perf)

	root := col.Seed(growOpts.seed, morph.Options{})
	slog.Info("starting growth",
		"seed", growOpts.seed,
		"ticks", growOpts.ticks,
		"organism", col.Organism(root).ID,
	)

	err = growOpts.run(col, root, func(tick uint64) error {
		if err := output.WriteEvents(events.Drain()); err != nil {
			return err
		}
		if !collector.ShouldFlush(tick) {
			return nil
		}
		stats := collector.Flush(tick, col.Organisms())
		stats.LogStats()
		return output.WriteStats(stats)
	})
	if err != nil {
		return err
	}

	for _, o := range col.Organisms() {
		if err := eng.Validate(o); err != nil {
			return fmt.Errorf("organism %s: %w", o.ID, err)
		}
		g := genome.Extract(o)
		enc, err := genome.Encode(g)
		if err != nil {
			return err
		}
		if err := output.WriteGenome(telemetry.GenomeRecord{
			Tick:     col.Tick(),
			Organism: o.ID.String(),
			Seed:     g.Seed,
			Modules:  len(g.Modules),
			Genome:   enc,
		}); err != nil {
			return err
		}
	}

	slog.Info("growth finished",
		"tick", col.Tick(),
		"organisms", col.Len(),
		"perf", perf.Stats(),
	)
	return nil
}
