package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"clip-editor/domain/filter"

	"github.com/spf13/cobra"
)

var filtersShowExpr bool

var filtersCmd = &cobra.Command{
	Use:   "filters",
	Short: "List the filters available for preview and export",
	Long: `List the filter catalog. When filters.enabled is set in the config file
only those filters are offered.

Example:
  clip-editor filters
  clip-editor filters --expr`,
	RunE: runFilters,
}

func init() {
	rootCmd.AddCommand(filtersCmd)
	filtersCmd.Flags().BoolVar(&filtersShowExpr, "expr", false, "Show the ffmpeg filter expression")
}

func runFilters(cmd *cobra.Command, args []string) error {
	c, err := configOrDefault()
	if err != nil {
		return err
	}
	catalog, err := filter.DefaultCatalog().Restrict(c.Filters.Enabled)
	if err != nil {
		return fmt.Errorf("invalid filters.enabled in config: %w", err)
	}
	return RunFiltersWithDependencies(catalog, filtersShowExpr, os.Stdout)
}

// RunFiltersWithDependencies prints the catalog of provider (for testing)
func RunFiltersWithDependencies(provider filter.CatalogProvider, showExpr bool, out io.Writer) error {
	filters := provider.Filters()
	if len(filters) == 0 {
		fmt.Fprintln(out, "No filters available.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if showExpr {
		fmt.Fprintln(w, "ID\tNAME\tEXPRESSION")
	} else {
		fmt.Fprintln(w, "ID\tNAME")
	}
	for _, f := range filters {
		if showExpr {
			fmt.Fprintf(w, "%s\t%s\t%s\n", f.ID, f.Name, f.Expr)
		} else {
			fmt.Fprintf(w, "%s\t%s\n", f.ID, f.Name)
		}
	}
	return w.Flush()
}
