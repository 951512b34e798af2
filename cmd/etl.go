package cmd

import (
	"dwhctl/internal/loader"
	"dwhctl/internal/transform"

	"github.com/spf13/cobra"
)

var etlCheckSources bool

var etlCmd = &cobra.Command{
	Use:   "etl",
	Short: "Load the staging tables and populate the star schema",
	Long: `Copy the event logs and song metadata into the staging tables, then insert
new rows into the songplay fact table and the user, song, artist and time
dimensions.

Run 'dwhctl create-tables' first. Staging tables are not truncated, so run
create-tables again before loading the same sources twice.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return executePhases(cmd, []string{loader.Phase, transform.Phase}, runOptions{checkSources: etlCheckSources})
	},
}

func init() {
	rootCmd.AddCommand(etlCmd)
	etlCmd.Flags().BoolVar(&etlCheckSources, "check-sources", false, "verify the sources exist before loading")
}
