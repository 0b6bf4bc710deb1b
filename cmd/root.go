package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"clip-editor/infrastructure/config"
	"clip-editor/infrastructure/logging"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
	cfg      *config.Config
	cfgErr   error
)

var rootCmd = &cobra.Command{
	Use:   "clip-editor",
	Short: "Import, preview, filter, trim and export video clips",
	Long: `clip-editor runs a single-clip editing session in the terminal:

  - Import a clip from the import directory (or wait for one to be dropped in)
  - Preview it live through a color filter
  - Trim it to a start/end range
  - Export the result with ffmpeg, optionally publishing it to Google Drive

Example:
  clip-editor edit
  clip-editor export --source beach.mov --filter sepia --start 2 --end 8`,
	SilenceUsage: true,
}

// Execute runs the root command; SIGINT/SIGTERM cancel the running operation
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: trace, debug, info, warn, error (overrides config)")
}

func initConfig() {
	if cfgFile == "" {
		cfgFile = "config/config.yaml"
	}

	// Config file is optional for some commands (like help). A file that exists
	// but cannot be read or parsed is kept as an error for commands to report.
	cfg, cfgErr = loadConfigFile(cfgFile)
}

// loadConfigFile loads path; a missing file yields a nil config and no error
func loadConfigFile(path string) (*config.Config, error) {
	c, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// GetConfig returns the loaded configuration
func GetConfig() *config.Config {
	return cfg
}

// configOrDefault returns the loaded configuration, or the defaults when no
// config file exists; editing works without running setup first
func configOrDefault() (*config.Config, error) {
	if cfgErr != nil {
		return nil, cfgErr
	}
	if cfg != nil {
		return cfg, nil
	}
	return config.Default(), nil
}

// newLogger builds the command logger; --log-level wins over the config file
func newLogger(c *config.Config) hclog.Logger {
	level := c.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	return logging.New(level, os.Stderr)
}
