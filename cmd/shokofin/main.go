package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/shokofin/shokofin/internal/config"
	"github.com/shokofin/shokofin/internal/database"
	"github.com/shokofin/shokofin/internal/metrics"
	"github.com/shokofin/shokofin/internal/shoko/api"
	"github.com/shokofin/shokofin/internal/tasks"
	"github.com/shokofin/shokofin/internal/usersync"
)

var (
	// Version information (set via ldflags during build)
	version = "dev"
	commit  = "none"
	date    = "unknown"
	// Global flags
	cfgFile   string
	logLevel  string
	noColor   bool
	debugMode bool

	// Global config and logger
	cfg    *config.Config
	logger *slog.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// skipsSetup reports whether cmd runs without config, logger and database
func skipsSetup(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "version", "release", "help":
		return true
	case "init", "path":
		return cmd.Parent() != nil && cmd.Parent().Name() == "config"
	}
	return false
}

var rootCmd = &cobra.Command{
	Use:   "shokofin",
	Short: "Shoko metadata and user data companion",
	Long: `shokofin reads series and episode metadata from a Shoko Server, keeps a
local copy of episode watch state and runs the user data sync tasks
(import, export and two-way sync) on demand.

It also ships the release tooling used to publish the plugin manifest.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// lipgloss picks its color profile from the environment on first render
		if noColor {
			_ = os.Setenv("NO_COLOR", "1")
		}

		if skipsSetup(cmd) {
			logger = slog.Default()
			return nil
		}

		if err := config.InitializeDirs(); err != nil {
			return fmt.Errorf("failed to initialize directories: %w", err)
		}

		var err error
		var v *viper.Viper
		cfg, v, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		applyFlagOverrides(cfg)

		logger, err = config.InitLogger(&cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if err := database.Init(&cfg.Database); err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}

		// Setup hot reload
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			logger.Info("Config file changed", "name", e.Name)
			var next config.Config
			if err := v.Unmarshal(&next); err != nil {
				logger.Error("Failed to reload config", "error", err)
				return
			}
			if err := next.Validate(); err != nil {
				logger.Error("Ignoring invalid config", "error", err)
				return
			}
			applyFlagOverrides(&next)
			*cfg = next
		})

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	},
}

func applyFlagOverrides(c *config.Config) {
	if debugMode {
		c.Advanced.Debug = true
		if logLevel == "" {
			c.Logging.Level = "debug"
		}
	}
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	if noColor {
		c.Logging.Color = false
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/shokofin/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug mode (verbose HTTP logging)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// newAPIClient builds the Shoko client, preferring a key saved by `login`
func newAPIClient() *api.Client {
	client := api.NewClient(cfg, logger)
	if client.HasAPIKey() || database.GetDB() == nil {
		return client
	}

	if key, err := database.GetSetting(database.GetDB(), database.SettingAPIKey); err != nil {
		logger.Warn("failed to read stored api key", "error", err)
	} else if key != "" {
		client.SetAPIKey(key)
	}
	return client
}

// newTaskRegistry registers the user data tasks against a fresh sync manager
func newTaskRegistry(client *api.Client) (*tasks.Registry, error) {
	metrics.Register()

	manager := usersync.NewManager(client, database.GetDB(), cfg.Sync.Series, logger)
	registry := tasks.NewRegistry(logger)
	for _, task := range []tasks.Task{
		tasks.NewImportUserDataTask(manager),
		tasks.NewExportUserDataTask(manager),
		tasks.NewSyncUserDataTask(manager),
	} {
		if err := registry.Register(task); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// versionCmd displays version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("shokofin version %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
	},
}

// configCmd handles configuration operations
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := cfgFile
		if configPath == "" {
			configPath = config.ConfigPath()
		}

		force, _ := cmd.Flags().GetBool("force")
		if err := config.WriteDefault(configPath, force); err != nil {
			return fmt.Errorf("failed to save default configuration: %w", err)
		}

		fmt.Printf("Default configuration generated successfully at: %s\n", configPath)
		fmt.Printf("Set shoko.url and shoko.api_key (or run `shokofin login`) before syncing.\n")
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		shown := *cfg
		if shown.Shoko.APIKey != "" {
			shown.Shoko.APIKey = "********"
		}
		if shown.Shoko.Password != "" {
			shown.Shoko.Password = "********"
		}

		data, err := yaml.Marshal(&shown)
		if err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		fmt.Print(string(data))
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Display configuration file path",
	Run: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			fmt.Println(cfgFile)
		} else {
			fmt.Println(config.ConfigPath())
		}
	},
}

func init() {
	configInitCmd.Flags().Bool("force", false, "overwrite an existing configuration file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}
