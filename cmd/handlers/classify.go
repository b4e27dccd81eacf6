package handlers

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"necromancer/internal/categorization"
	"necromancer/internal/core"
	"necromancer/internal/pipeline"
)

// NewClassifyCmd creates the classify command for a single ad hoc project
func NewClassifyCmd() *cobra.Command {
	var (
		title       string
		description string
		tags        []string
		noAI        bool
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Categorize and summarize one project without scraping",
		Long: `Classify runs a single project through the same categorization and
summary tiers as generate, and prints the result. Nothing is scraped or written.

Examples:
  # Classify a project
  necromancer classify --title "Automated Test Suite Builder" \
    --description "wrote a CI pipeline in Python" --tag python --tag ci

  # Compare with the keyword rules only
  necromancer classify --title "Brand refresh" --no-ai

  # Machine readable output
  necromancer classify --title "Quarterly report" --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(cmd, title, description, tags, noAI, asJSON)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "project title")
	cmd.Flags().StringVar(&description, "description", "", "project description")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "project tag (repeatable)")
	cmd.Flags().BoolVar(&noAI, "no-ai", false, "use the keyword rules and templates even when an API key is set")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the processed project as JSON")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func runClassify(cmd *cobra.Command, title, description string, tags []string, noAI, asJSON bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	builder := pipeline.NewBuilder(cfg)
	if noAI {
		builder = builder.WithoutAI()
	}
	p, err := builder.Build(cmd.Context())
	if err != nil {
		return err
	}
	defer p.Close()

	owner := cfg.Owner().Name
	project, err := p.ProcessOne(cmd.Context(), core.Project{
		Title:       title,
		Description: description,
		Tags:        tags,
	}, owner)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(project)
	}

	info := categorization.InfoFor(project.Category)
	fmt.Fprintln(out, titleStyle.Render(project.Title))
	fmt.Fprintf(out, "Category:   %s %s\n", info.Icon, project.Category.DisplayName())
	fmt.Fprintf(out, "Confidence: %.2f (%s)\n", project.Confidence, project.ClassifiedBy)
	if len(project.Tags) > 0 {
		fmt.Fprintf(out, "Tags:       %s\n", strings.Join(project.Tags, ", "))
	}
	fmt.Fprintf(out, "Summary:    %s\n", project.Summary)
	fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("summary by %s", project.SummarizedBy)))
	return nil
}
