package handlers

import (
	"fmt"

	"github.com/spf13/cobra"

	"necromancer/internal/pipeline"
	"necromancer/internal/sources"
	"necromancer/internal/tui"
)

// NewReviewCmd creates the review command
func NewReviewCmd() *cobra.Command {
	var noAI bool

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Browse categorized projects in a terminal UI before generating",
		Long: `Review scrapes and processes every source like generate --dry-run, then
opens a terminal browser over the result so categories and summaries can be
checked before a site is written. Tab cycles through the categories.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			builder := pipeline.NewBuilder(cfg).
				WithScraper(sources.FromConfig(cfg)).
				WithProgress(cmd.ErrOrStderr())
			if noAI {
				builder = builder.WithoutAI()
			}
			p, err := builder.Build(cmd.Context())
			if err != nil {
				return err
			}
			defer p.Close()

			result, err := p.Run(cmd.Context(), pipeline.RunOptions{DryRun: true})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "Launching review...")
			return tui.Run(result.Portfolio.Projects)
		},
	}

	cmd.Flags().BoolVar(&noAI, "no-ai", false, "use the keyword rules and templates even when an API key is set")

	return cmd
}
