package handlers

import (
	"fmt"

	"github.com/spf13/cobra"

	"necromancer/internal/sources"
)

// NewSourcesCmd creates the sources command, which reports whether each
// source could run without scraping anything.
func NewSourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "Show which sources are configured",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, src := range sources.FromConfig(cfg).Sources() {
				err := src.Ready()
				switch {
				case err == nil:
					fmt.Fprintf(out, "  ✓ %-12s ready\n", src.Name())
				case sources.IsNotConfigured(err):
					fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("  - %-12s %v", src.Name(), err)))
				default:
					fmt.Fprintf(out, "  ✗ %-12s %v\n", src.Name(), err)
				}
			}
			return nil
		},
	}
}
