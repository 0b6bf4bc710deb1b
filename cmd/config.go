package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"clip-editor/infrastructure/config"

	"github.com/spf13/cobra"
)

// DefaultOutput is the default output writer for config commands
var DefaultOutput io.Writer = os.Stdout

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration entries",
	Long: `Manage enabled filters, the export preset and the import/export directories
in the configuration file.

Examples:
  clip-editor config show
  clip-editor config filters
  clip-editor config enable sepia
  clip-editor config disable invert
  clip-editor config set preset medium
  clip-editor config set export-dir ~/Movies/exports`,
}

func init() {
	rootCmd.AddCommand(configCmd)

	// Add subcommands
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configFiltersCmd)
	configCmd.AddCommand(configEnableCmd)
	configCmd.AddCommand(configDisableCmd)
	configCmd.AddCommand(configSetCmd)
}

func requireConfig() (*config.Config, error) {
	if cfgErr != nil {
		return nil, cfgErr
	}
	c := GetConfig()
	if c == nil {
		return nil, fmt.Errorf("config file not found. Run 'clip-editor setup' first")
	}
	return c, nil
}

// --- SHOW command ---

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := configOrDefault()
		if err != nil {
			return err
		}
		return RunConfigShowWithDependencies(c, DefaultOutput)
	},
}

// RunConfigShowWithDependencies prints the settings commands act on
func RunConfigShowWithDependencies(c *config.Config, out io.Writer) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "import directory\t%s\n", c.Paths.ImportDirectory)
	fmt.Fprintf(w, "export directory\t%s\n", c.Paths.ExportDirectory)
	fmt.Fprintf(w, "export preset\t%s\n", c.Export.Preset)
	fmt.Fprintf(w, "container\t%s\n", c.Export.Container)
	fmt.Fprintf(w, "preview\t%dx%d\n", c.Preview.Width, c.Preview.Height)
	fmt.Fprintf(w, "log level\t%s\n", c.Log.Level)
	drive := "not configured"
	if c.DriveConfigured() {
		drive = "folder " + c.Google.ExportsFolderID
	}
	fmt.Fprintf(w, "google drive\t%s\n", drive)
	return w.Flush()
}

// --- FILTERS command ---

var configFiltersCmd = &cobra.Command{
	Use:   "filters",
	Short: "List enabled filters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		return RunConfigFiltersWithDependencies(c, cfgFile, DefaultOutput)
	},
}

// RunConfigFiltersWithDependencies lists the enabled filters
func RunConfigFiltersWithDependencies(c *config.Config, configPath string, out io.Writer) error {
	mgr := config.NewConfigManager(c, configPath)
	ids, err := mgr.EnabledFilters()
	if err != nil {
		return err
	}
	if len(c.Filters.Enabled) == 0 {
		fmt.Fprintln(out, "All filters enabled:")
	}
	for _, id := range ids {
		fmt.Fprintf(out, "  %s\n", id)
	}
	return nil
}

// --- ENABLE / DISABLE commands ---

var configEnableCmd = &cobra.Command{
	Use:   "enable <filter>",
	Short: "Enable a filter",
	Long: `Add a filter to filters.enabled. While the list is empty every filter is
offered, so the first enable narrows the catalog to that filter.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		return RunConfigEnableWithDependencies(c, cfgFile, args[0], DefaultOutput)
	},
}

// RunConfigEnableWithDependencies runs the enable command with injected dependencies
func RunConfigEnableWithDependencies(c *config.Config, configPath, id string, out io.Writer) error {
	if err := config.NewConfigManager(c, configPath).EnableFilter(id); err != nil {
		return err
	}
	fmt.Fprintf(out, "Enabled filter %q\n", id)
	return nil
}

var configDisableCmd = &cobra.Command{
	Use:   "disable <filter>",
	Short: "Disable a filter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		return RunConfigDisableWithDependencies(c, cfgFile, args[0], DefaultOutput)
	},
}

// RunConfigDisableWithDependencies runs the disable command with injected dependencies
func RunConfigDisableWithDependencies(c *config.Config, configPath, id string, out io.Writer) error {
	if err := config.NewConfigManager(c, configPath).DisableFilter(id); err != nil {
		return err
	}
	fmt.Fprintf(out, "Disabled filter %q\n", id)
	return nil
}

// --- SET command ---

var configSetCmd = &cobra.Command{
	Use:   "set [preset|import-dir|export-dir] <value>",
	Short: "Change a setting",
	Long: `Change the export preset or a directory.

Examples:
  clip-editor config set preset passthrough
  clip-editor config set import-dir /media/camera
  clip-editor config set export-dir ~/Movies/exports`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		return RunConfigSetWithDependencies(c, cfgFile, args[0], args[1], DefaultOutput)
	},
}

// RunConfigSetWithDependencies runs the set command with injected dependencies
func RunConfigSetWithDependencies(c *config.Config, configPath, key, value string, out io.Writer) error {
	mgr := config.NewConfigManager(c, configPath)

	switch key {
	case "preset":
		if err := mgr.SetPreset(value); err != nil {
			return err
		}
		fmt.Fprintf(out, "Export preset set to %s\n", c.Export.Preset)

	case "import-dir":
		if err := mgr.SetImportDirectory(value); err != nil {
			return err
		}
		fmt.Fprintf(out, "Import directory set to %s\n", c.Paths.ImportDirectory)

	case "export-dir":
		if err := mgr.SetExportDirectory(value); err != nil {
			return err
		}
		fmt.Fprintf(out, "Export directory set to %s\n", c.Paths.ExportDirectory)

	default:
		return fmt.Errorf("unknown setting %q. Use preset, import-dir, or export-dir", key)
	}

	return nil
}
