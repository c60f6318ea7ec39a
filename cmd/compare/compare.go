package compare

import (
	"github.com/spf13/cobra"

	"github.com/nkarvinen/photometry-go/internal/analysis"
	"github.com/nkarvinen/photometry-go/internal/conf"
)

// Command creates the compare command for a full control-versus-test run.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Process control and test groups and render the comparison figure",
		Long: `Process every recording in the control and test directories, aggregate each
group to a mean ± SEM trace and render the combined comparison figure.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return analysis.CompareAnalysis(settings)
		},
	}

	setupFlags(cmd, settings)

	return cmd
}

// setupFlags defines flags specific to the compare command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) {
	cmd.Flags().StringVar(&settings.Input.Control, "control", settings.Input.Control, "Folder containing raw control group CSV files")
	cmd.Flags().StringVar(&settings.Input.Test, "test", settings.Input.Test, "Folder containing raw test group CSV files")
	cmd.Flags().StringVarP(&settings.Output.File.Path, "output", "o", settings.Output.File.Path, "Output base folder")
}
