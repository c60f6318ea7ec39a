package directory

import (
	"github.com/spf13/cobra"

	"github.com/nkarvinen/photometry-go/internal/analysis"
	"github.com/nkarvinen/photometry-go/internal/conf"
)

// Command creates a new cobra.Command for directory analysis.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "directory [path]",
		Short: "Analyze all *.csv recordings in a directory as one group",
		Long:  "Provide a directory path to process every raw recording CSV within it and produce the group's mean ± SEM trace.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings.Input.Path = args[0]
			return analysis.DirectoryAnalysis(settings)
		},
	}

	setupFlags(cmd, settings)

	return cmd
}

// setupFlags defines flags specific to the directory command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) {
	cmd.Flags().BoolVarP(&settings.Input.Recursive, "recursive", "r", false, "Recursively analyze subdirectories")
	cmd.Flags().StringVarP(&settings.Output.File.Path, "output", "o", settings.Output.File.Path, "Path to output directory")
	cmd.Flags().StringVarP(&settings.Input.Group, "group", "g", "", "Group label, defaults to the directory name")
}
