package file

import (
	"github.com/spf13/cobra"

	"github.com/nkarvinen/photometry-go/internal/analysis"
	"github.com/nkarvinen/photometry-go/internal/conf"
)

// Command creates the file command for analyzing a single recording CSV.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "file [input.csv]",
		Short: "Analyze a single recording file",
		Long:  `Run the correction pipeline on one animal's raw recording CSV and write its corrected trace artifacts.`,
		Args:  cobra.ExactArgs(1), // the command expects exactly one argument
		RunE: func(cmd *cobra.Command, args []string) error {
			settings.Input.Path = args[0]
			return analysis.FileAnalysis(settings)
		},
	}

	// Set up flags specific to the 'file' command
	setupFlags(cmd, settings)

	return cmd
}

// setupFlags configures flags specific to the file command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) {
	cmd.Flags().StringVarP(&settings.Output.File.Path, "output", "o", settings.Output.File.Path, "Path to output directory")
	cmd.Flags().StringVarP(&settings.Input.Group, "group", "g", "", "Group label for the animal")
}
