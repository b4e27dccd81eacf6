package handlers

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"necromancer/internal/config"
	"necromancer/internal/tui"
)

// NewInitCmd creates the init command that writes an example config
func NewInitCmd() *cobra.Command {
	var (
		path  string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create an example configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if _, err := os.Stat(path); err == nil && !force {
				ok, err := tui.Confirm(fmt.Sprintf("%s already exists. Overwrite?", path), cmd.InOrStdin(), out)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(out, "Cancelled.")
					return nil
				}
			}

			if err := config.WriteExample(path, true); err != nil {
				return fmt.Errorf("error creating config file: %w", err)
			}

			fmt.Fprintf(out, "✓ Configuration file created: %s\n\n", path)
			fmt.Fprintln(out, "Next steps:")
			fmt.Fprintf(out, "1. Edit %s with your credentials and preferences\n", path)
			fmt.Fprintln(out, "2. Run 'necromancer auth google' if you enabled Gmail or Drive")
			fmt.Fprintln(out, "3. Run 'necromancer generate' to build your portfolio")
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "necromancer.yaml", "where to write the config file")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file without asking")

	return cmd
}
