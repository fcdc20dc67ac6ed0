package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/sprout/colony"
	"github.com/pthm-cable/sprout/config"
	"github.com/pthm-cable/sprout/genome"
	"github.com/pthm-cable/sprout/morph"
)

// errUnrecognized is reported for any genome string that fails to decode.
var errUnrecognized = errors.New("fingerprint not recognized")

var genomeOpts growOptions

var genomeCmd = &cobra.Command{
	Use:   "genome",
	Short: "Grow an organism and print its genome string",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng := morph.NewEngine(config.Cfg(), nil)
		col := colony.New(eng, nil, nil)
		root := col.Seed(genomeOpts.seed, morph.Options{})
		if err := genomeOpts.run(col, root, nil); err != nil {
			return err
		}
		s, err := genome.Encode(genome.Extract(col.Organism(root)))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), s)
		return nil
	},
}

var decodeCmd = &cobra.Command{
	Use:   "decode <genome>",
	Short: "Print the JSON form of a genome string",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := decode(args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, g)
	},
}

var mergeGrow bool

var mergeCmd = &cobra.Command{
	Use:   "merge <genome-a> <genome-b>",
	Short: "Cross two genomes and print both offspring",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := decode(args[0])
		if err != nil {
			return err
		}
		b, err := decode(args[1])
		if err != nil {
			return err
		}
		eng := morph.NewEngine(config.Cfg(), nil)
		x, y := genome.Merge(a, b)
		for _, child := range []genome.Genome{x, y} {
			if mergeGrow {
				// Round-trip through a grown organism so the printed genome
				// reflects what actually fit on the body.
				res, err := genome.Instantiate(eng, child)
				if err != nil {
					return err
				}
				child = genome.Extract(res.Organism)
			}
			s, err := genome.Encode(child)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s)
		}
		return nil
	},
}

func init() {
	genomeOpts.register(genomeCmd)
	mergeCmd.Flags().BoolVar(&mergeGrow, "grow", false, "Instantiate each offspring and print the genome it grew into")
}

func decode(s string) (genome.Genome, error) {
	g, err := genome.Decode(s)
	if err != nil {
		return genome.Genome{}, fmt.Errorf("%w: %w", errUnrecognized, err)
	}
	return g, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
