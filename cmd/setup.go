package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"clip-editor/domain/video"
	"clip-editor/infrastructure/config"
	"clip-editor/infrastructure/prompt"

	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create configuration file interactively",
	Long: `Prompts for configuration values and creates config.yaml.

This command guides you through setting up your configuration file
with import/export directories, export quality, the preview size and,
optionally, the Google Drive folder exports are published to.`,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		path = "config/config.yaml"
	}
	return RunSetupWithPrompter(prompt.Default, path, os.Stdout)
}

// RunSetupWithPrompter runs the setup with a given prompter (for testing)
func RunSetupWithPrompter(prompter prompt.Prompter, configPath string, out io.Writer) error {
	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		overwrite, err := prompter.Confirm("config.yaml already exists. Overwrite?", false)
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if !overwrite {
			fmt.Fprintln(out, "Setup cancelled.")
			return nil
		}
	}

	fmt.Fprintln(out, "Welcome to clip-editor setup!")
	fmt.Fprintln(out)

	cfg := config.Default()

	if err := promptPaths(prompter, cfg); err != nil {
		return err
	}
	if err := promptExport(prompter, cfg); err != nil {
		return err
	}
	if err := promptPreview(prompter, cfg); err != nil {
		return err
	}
	if err := promptGoogle(prompter, cfg); err != nil {
		return err
	}

	// Ensure config directory exists
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := config.Save(cfg, configPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Configuration saved to %s\n", configPath)
	return nil
}

func promptPaths(prompter prompt.Prompter, cfg *config.Config) error {
	importDir, err := prompter.Input("Which directory should clips be imported from?", cfg.Paths.ImportDirectory)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if importDir == "" {
		return fmt.Errorf("import directory is required")
	}
	cfg.Paths.ImportDirectory = importDir

	exportDir, err := prompter.Input("Where should exported clips go?", cfg.Paths.ExportDirectory)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if exportDir == "" {
		return fmt.Errorf("export directory is required")
	}
	cfg.Paths.ExportDirectory = exportDir

	return nil
}

func promptExport(prompter prompt.Prompter, cfg *config.Config) error {
	choice, err := prompter.Select("Export quality?", []string{
		string(video.PresetHighest),
		string(video.PresetMedium),
		string(video.PresetPassthrough),
	})
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	preset, err := video.ParsePreset(choice)
	if err != nil {
		return err
	}
	cfg.Export.Preset = string(preset)

	container, err := prompter.Input("Output container (mov, mp4, mkv)?", cfg.Export.Container)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if container != "" {
		cfg.Export.Container = container
	}
	return nil
}

func promptPreview(prompter prompt.Prompter, cfg *config.Config) error {
	width, err := promptInt(prompter, "Preview width in pixels?", cfg.Preview.Width)
	if err != nil {
		return err
	}
	height, err := promptInt(prompter, "Preview height in pixels?", cfg.Preview.Height)
	if err != nil {
		return err
	}
	cfg.Preview.Width = width
	cfg.Preview.Height = height
	return nil
}

func promptInt(prompter prompt.Prompter, message string, def int) (int, error) {
	raw, err := prompter.Input(message, strconv.Itoa(def))
	if err != nil {
		return 0, fmt.Errorf("prompt cancelled")
	}
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%q is not a positive number", raw)
	}
	return n, nil
}

func promptGoogle(prompter prompt.Prompter, cfg *config.Config) error {
	publish, err := prompter.Confirm("Publish exports to Google Drive?", false)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if !publish {
		return nil
	}

	credentials, err := prompter.Input("Path to Google credentials file?", "credentials.json")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if credentials == "" {
		credentials = "credentials.json"
	}
	cfg.Google.CredentialsFile = credentials

	userAuth, err := prompter.Confirm("Is this an OAuth client (sign in as yourself) rather than a service account?", true)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if userAuth {
		cfg.Google.TokenFile = "token.json"
	}

	folder, err := prompter.Input("Google Drive folder ID for exports?", "")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if folder == "" {
		return fmt.Errorf("folder ID is required")
	}
	cfg.Google.ExportsFolderID = folder

	return nil
}
