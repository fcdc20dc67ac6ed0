// Command sprout grows procedural creatures from a seed, exports their
// genomes and breeds new ones from genome strings.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/sprout/config"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:           "sprout",
	Short:         "Procedural creature growth engine",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize config before anything else
		if err := config.Init(configPath); err != nil {
			return err
		}

		// JSON logs go to stderr so genome output on stdout stays pipeable
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.yaml (empty = use defaults)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every engine event")
	rootCmd.AddCommand(growCmd, genomeCmd, decodeCmd, mergeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("sprout failed", "error", err)
		os.Exit(1)
	}
}
