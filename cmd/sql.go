package cmd

import (
	"fmt"

	"dwhctl/internal/pipeline"
	"dwhctl/internal/schema"
	"dwhctl/internal/ui"
	"dwhctl/pkg/models"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var sqlShowSchema bool

var sqlCmd = &cobra.Command{
	Use:   "sql [phase...]",
	Short: "Print the statements a phase would run",
	Long: `Render the statements of the schema, load and transform phases for the
selected engine without connecting. With no arguments every phase is printed.`,
	ValidArgs: pipeline.Phases,
	Args:      cobra.OnlyValidArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if sqlShowSchema {
			schema.NewVisualizer(ui.SupportsColor() && !viper.GetBool("no-color")).Write(cmd.OutOrStdout())
			return nil
		}

		phases := args
		if len(phases) == 0 {
			phases = pipeline.Phases
		}
		ordered, err := pipeline.Order(phases)
		if err != nil {
			return err
		}

		engine, err := selectedEngine()
		if err != nil {
			return err
		}
		// the file is optional here, statements render with empty values
		cfg, err := loadConfig()
		if err != nil {
			cfg = defaultModel()
		}

		runner := pipeline.NewRunner(buildStages(cfg, engine, nil), logger, nil)
		w := cmd.OutOrStdout()
		for _, phase := range ordered {
			stmts, err := runner.Statements(phase)
			if err != nil {
				return err
			}
			for _, stmt := range stmts {
				fmt.Fprintf(w, "-- %s: %s\n%s;\n\n", phase, stmt.Name, stmt.SQL)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sqlCmd)
	sqlCmd.Flags().BoolVar(&sqlShowSchema, "tables", false, "describe the table catalog instead of printing SQL")
}

func defaultModel() *models.Config {
	cfg := &models.Config{}
	cfg.ApplyDefaults()
	return cfg
}
