package cmd

import (
	"dwhctl/internal/schema"

	"github.com/spf13/cobra"
)

var createTablesCmd = &cobra.Command{
	Use:   "create-tables",
	Short: "Drop and recreate the staging and star-schema tables",
	Long: `Drop every staging, fact and dimension table and create them again, empty.

Statements commit one at a time. A failure part-way leaves the schema
partially created; run the command again to start over.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return executePhases(cmd, []string{schema.Phase}, runOptions{})
	},
}

func init() {
	rootCmd.AddCommand(createTablesCmd)
}
