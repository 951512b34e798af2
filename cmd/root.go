package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"dwhctl/internal/config"
	"dwhctl/internal/observability"
	"dwhctl/internal/ui"
	"dwhctl/internal/warehouse"
	"dwhctl/pkg/models"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "dwhctl",
	Short: "Load song play logs into a Redshift star schema",
	Long: `dwhctl provisions a Redshift cluster, creates the staging and star-schema
tables, bulk loads the raw JSON event logs and song metadata from S3 and
transforms them into the songplay fact table and its dimensions.

Pass --engine duckdb to run the same pipeline against a local DuckDB file
using the JSON files under [LOCAL] LOG_DATA_DIR and SONG_DATA_DIR.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		ui.SetColor(ui.SupportsColor() && !viper.GetBool("no-color"))
		logger = newLogger()
		observability.SetDefaultLogger(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var logger *observability.Logger

// Execute runs the root command with a context cancelled on SIGINT and
// SIGTERM, printing any error and exiting non-zero.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		ui.ShowError(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", config.DefaultConfigFile, "path to dwh.cfg (env DWH_CONFIG)")
	flags.String("engine", string(warehouse.EngineRedshift), "warehouse engine: redshift or duckdb")
	flags.BoolP("verbose", "v", false, "print every statement and debug logs")
	flags.BoolP("quiet", "q", false, "print errors only")
	flags.Bool("no-color", false, "disable colored output")
	flags.String("log-level", "warn", "log level: debug, info, warn, error")
	flags.String("log-format", "console", "log format: console or json")
	flags.Duration("statement-timeout", 0, "per-statement timeout, 0 waits for the warehouse")

	for _, name := range []string{"config", "engine", "verbose", "quiet", "no-color", "log-level", "log-format", "statement-timeout"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
}

// initConfig binds DWH_* environment variables to the global flags, so
// DWH_CONFIG and DWH_ENGINE work like --config and --engine.
func initConfig() {
	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func newLogger() *observability.Logger {
	level := observability.LogLevelFromString(viper.GetString("log-level"))
	if viper.GetBool("verbose") {
		level = observability.DebugLevel
	}
	return observability.NewLogger(observability.LoggerConfig{
		Level:   level,
		Output:  os.Stderr,
		Format:  viper.GetString("log-format"),
		Service: "dwhctl",
		Version: Version,
	})
}

func newUI() *ui.UI {
	return ui.NewUI(viper.GetBool("verbose"), viper.GetBool("quiet"))
}

func configPath() string {
	return config.GetConfigFile()
}

func selectedEngine() (warehouse.Engine, error) {
	return warehouse.ParseEngine(viper.GetString("engine"))
}

// loadConfig reads dwh.cfg, expands secrets and checks the keys scopes need.
func loadConfig(scopes ...config.Scope) (*models.Config, error) {
	cfg, err := config.LoadResolved(configPath(), nil)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg, scopes...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openWarehouse connects to the engine selected on the command line. The
// caller closes the returned service.
func openWarehouse(ctx context.Context, cfg *models.Config, engine warehouse.Engine) (*warehouse.Service, error) {
	wcfg := warehouse.ConfigFromModel(cfg, engine)
	wcfg.StatementTimeout = viper.GetDuration("statement-timeout")

	svc := warehouse.NewService(wcfg, logger)
	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()
	if err := svc.Connect(connectCtx); err != nil {
		return nil, err
	}
	return svc, nil
}
