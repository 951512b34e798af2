package cmd

import (
	"dwhctl/internal/pipeline"

	"github.com/spf13/cobra"
)

var runCheckSources bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Recreate the tables, load and transform in one go",
	Long:  `Equivalent to 'dwhctl create-tables' followed by 'dwhctl etl' on one connection.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return executePhases(cmd, pipeline.Phases, runOptions{checkSources: runCheckSources})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runCheckSources, "check-sources", false, "verify the sources exist before loading")
}
