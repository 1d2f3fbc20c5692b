package main

import (
	"context"
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nailstudio/salon-backend/internal/config"
	"github.com/nailstudio/salon-backend/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version string

var envFile string

var rootCmd = &cobra.Command{
	Use:   "salon",
	Short: "Backend of the nail-salon site",
	Long: `salon serves the public site API, the admin panel API and the Telegram
webhook of a single nail master's site, and notifies subscribed chats about
new booking requests.`,
	Args:          cobra.OnlyValidArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(*cobra.Command, []string) error {
		return loadEnvFile(envFile)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional dotenv file read before the environment")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

// loadEnvFile applies path on top of the environment. Variables already set
// win; a missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func appVersion() string {
	return sysutil.FirstNonEmpty(version, "dev")
}

// loadConfig reads the configuration and installs the global logger.
func loadConfig() (config.Config, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	closer, err := sysutil.SetupLogger(sysutil.LogOptions{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
		File:   cfg.LogFile,
	})
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, func() { _ = closer.Close() }, nil
}
