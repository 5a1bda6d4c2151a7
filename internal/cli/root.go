package cli

import (
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"chainalytics/internal/config"
	"chainalytics/internal/engine"
	"chainalytics/internal/feed"
	"chainalytics/internal/logging"
	"chainalytics/internal/store"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Engine *engine.Engine
	Store  store.AnalyticsStore
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	var engineOpts []engine.Option

	dbPath := filepath.Join(config.DefaultConfigDir(), "analytics.db")
	dataStore, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize store, history will be unavailable")
	} else {
		app.Store = dataStore
		engineOpts = append(engineOpts, engine.WithStore(dataStore))
		logger.Debug().Msg("SQLite store initialized")
	}

	provider := feed.NewFileProvider(cfg.Feed.DataDir)
	app.Engine = engine.New(provider, cfg, logger, engineOpts...)

	rootCmd := &cobra.Command{
		Use:   "chainalytics",
		Short: "Options chain analytics and strategy recommendation CLI",
		Long: `chainalytics reads option chain snapshots, computes Greeks and
chain-level analytics (max pain, put/call ratio, IV skew, support and
resistance), and recommends option strategies for a market outlook.

Snapshots are JSON files named <SYMBOL>.json in the feed data directory.

Use 'chainalytics help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/chainalytics)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newChainCmd(app))
	rootCmd.AddCommand(newAnalyzeCmd(app))
	rootCmd.AddCommand(newHistoryCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"version": Version})
			} else {
				output.Printf("chainalytics v%s\n", Version)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			return showConfig(output, app.Config)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("✓ Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) error {
	output.Bold("Engine Configuration")
	output.Printf("  Risk-Free Rate:     %.2f%%\n", cfg.Engine.RiskFreeRate*100)
	output.Printf("  Default IV:         %s\n", FormatIV(cfg.Engine.DefaultIV))
	output.Printf("  Assumed Volatility: %s\n", FormatIV(cfg.Engine.AssumedVolatility))
	output.Printf("  Payoff Width:       ±%.0f%%\n", cfg.Engine.PayoffWidth*100)
	output.Printf("  Payoff Samples:     %d\n", cfg.Engine.PayoffSamples)
	output.Println()

	output.Bold("Cache")
	output.Printf("  TTL:                %s\n", cfg.Cache.TTL)
	output.Println()

	output.Bold("Feed")
	output.Printf("  Data Directory:     %s\n", cfg.Feed.DataDir)

	return nil
}
