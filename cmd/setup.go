package cmd

import (
	"fmt"

	"dwhctl/internal/config"
	"dwhctl/internal/ui"
	"dwhctl/pkg/models"

	"github.com/spf13/cobra"
)

var setupForce bool

// newConfigWizard is replaced in tests.
var newConfigWizard = ui.NewConfigWizard

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create dwh.cfg interactively",
	Long: `Ask for the AWS credentials, the cluster shape, the database settings and
the S3 sources and write them to the configuration file. Values from an
existing file are offered as defaults.`,
	Args: cobra.NoArgs,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
	setupCmd.Flags().BoolVar(&setupForce, "force", false, "overwrite an existing file without asking")
}

func runSetup(cmd *cobra.Command, args []string) error {
	out := newUI()
	path := configPath()

	var base *models.Config
	if config.Exists(path) {
		if !setupForce {
			overwrite, err := ui.Confirm(fmt.Sprintf("%s already exists. Overwrite it?", path), false)
			if err != nil {
				return err
			}
			if !overwrite {
				out.Info("Setup cancelled")
				return nil
			}
		}
		if existing, err := config.Load(path); err == nil {
			base = existing
		}
	}

	cfg, err := newConfigWizard().Run(base)
	if err != nil {
		return err
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}

	out.Success(fmt.Sprintf("Configuration written to %s", path))
	if plain := config.PlaintextSecrets(cfg); len(plain) > 0 {
		out.Info("Run 'dwhctl encrypt-config' to encrypt the secrets in place")
	}
	return nil
}
