// Package cmd assembles the photometry-go command line interface.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nkarvinen/photometry-go/cmd/compare"
	"github.com/nkarvinen/photometry-go/cmd/directory"
	"github.com/nkarvinen/photometry-go/cmd/file"
	"github.com/nkarvinen/photometry-go/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "photometry",
		Short: "Fiber photometry signal correction and group analysis",
		Long: `photometry-go processes calcium-dependent fluorescence recordings:
photobleaching correction, reference channel motion regression, fixed-baseline
Z-score normalization and group mean ± SEM aggregation.`,
	}

	// Set up the global flags for the root command.
	setupFlags(rootCmd, settings)

	subcommands := []*cobra.Command{
		file.Command(settings),
		directory.Command(settings),
		compare.Command(settings),
	}

	rootCmd.AddCommand(subcommands...)

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().IntVar(&settings.Photometry.Threads, "threads", viper.GetInt("photometry.threads"), "Number of analysis workers, 0 to use all CPUs")
	rootCmd.PersistentFlags().Float64Var(&settings.Photometry.Baseline.Start, "baseline-start", viper.GetFloat64("photometry.baseline.start"), "Z-score baseline window start in seconds from recording start")
	rootCmd.PersistentFlags().Float64Var(&settings.Photometry.Baseline.End, "baseline-end", viper.GetFloat64("photometry.baseline.end"), "Z-score baseline window end in seconds from recording start")
	rootCmd.PersistentFlags().Float64Var(&settings.Photometry.BinSize, "binsize", viper.GetFloat64("photometry.binsize"), "Group aggregation resolution in seconds")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
