package handlers

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"necromancer/internal/categorization"
	"necromancer/internal/config"
	"necromancer/internal/core"
	"necromancer/internal/pipeline"
	"necromancer/internal/render"
	"necromancer/internal/sources"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(1, 2)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// NewGenerateCmd creates the generate command, the full scrape to site run
func NewGenerateCmd() *cobra.Command {
	var (
		output string
		dryRun bool
		noAI   bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Scrape every source and generate the portfolio website",
		Long: `Generate runs the whole pipeline:

  1. Scrapes every enabled source (manual file, Gmail, Drive, Slack, Figma, screenshots)
  2. Files each project under a category
  3. Writes a short summary for each project
  4. Applies the free tier project cap
  5. Renders the static site into portfolio.output_dir

A source that fails or is not configured is reported and skipped; the run
only fails when no source produced a single project.

Examples:
  # Generate with the default config
  necromancer generate

  # Choose the output directory name
  necromancer generate --output my-portfolio

  # Categorize and summarize without writing a site
  necromancer generate --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, output, dryRun, noAI)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "name of the output directory (default portfolio_YYYYMMDD_HHMMSS)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "process projects without writing the site")
	cmd.Flags().BoolVar(&noAI, "no-ai", false, "use the keyword rules and templates even when an API key is set")

	return cmd
}

func runGenerate(cmd *cobra.Command, output string, dryRun, noAI bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	gen, err := render.NewGenerator(cfg.Portfolio.OutputDir)
	if err != nil {
		return err
	}
	builder := pipeline.NewBuilder(cfg).
		WithScraper(sources.FromConfig(cfg)).
		WithGenerator(gen).
		WithProgress(out)
	if noAI {
		builder = builder.WithoutAI()
	}
	p, err := builder.Build(cmd.Context())
	if err != nil {
		return err
	}
	defer p.Close()

	fmt.Fprintln(out, titleStyle.Render("🧟 Portfolio Necromancer: resurrecting your work..."))
	fmt.Fprintln(out)

	result, err := p.Run(cmd.Context(), pipeline.RunOptions{OutputName: output, DryRun: dryRun})
	if result != nil {
		printReports(out, result.Reports)
	}
	if errors.Is(err, core.ErrNoProjects) {
		fmt.Fprintln(out, warnStyle.Render("No projects found. Enable a source in your config or add entries to the manual projects file."))
		return err
	}
	if err != nil {
		return err
	}

	printSummary(out, cfg, result)
	return nil
}

// printReports lists sources that did not scrape cleanly.
func printReports(w io.Writer, reports []sources.Report) {
	var lines []string
	for _, r := range reports {
		switch r.State {
		case sources.StateFailed:
			lines = append(lines, fmt.Sprintf("  ✗ %s: %s", r.Source, r.Error))
		case sources.StateSkipped:
			if r.Error != "" {
				lines = append(lines, dimStyle.Render(fmt.Sprintf("  - %s skipped: %s", r.Source, r.Error)))
			}
		}
	}
	if len(lines) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Source report:")
	fmt.Fprintln(w, strings.Join(lines, "\n"))
}

func printSummary(w io.Writer, cfg *config.Config, result *pipeline.RunResult) {
	portfolio := result.Portfolio
	counts := portfolio.CountByCategory()

	var b strings.Builder
	b.WriteString(titleStyle.Render("🎉 Portfolio Successfully Resurrected!"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Owner: %s\n", portfolio.Owner.Name)
	fmt.Fprintf(&b, "Total Projects: %d\n", len(portfolio.Projects))
	if result.Stats.Dropped > 0 {
		fmt.Fprintf(&b, "%s\n", warnStyle.Render(fmt.Sprintf("%d projects over the free tier limit were left out", result.Stats.Dropped)))
	}
	b.WriteString("\nProjects by Category:\n")
	for _, info := range categorization.DefaultCategories() {
		if n := counts[info.Category]; n > 0 {
			fmt.Fprintf(&b, "  %s %s: %d\n", info.Icon, info.Category.DisplayName(), n)
		}
	}
	b.WriteString("\n")
	if result.OutputPath != "" {
		fmt.Fprintf(&b, "📁 Portfolio Location: %s\n", result.OutputPath)
		b.WriteString("🌐 Open index.html in your browser to view\n")
	} else {
		b.WriteString(dimStyle.Render("Dry run: no site was written") + "\n")
	}
	if portfolio.Options.ShowWatermark || !cfg.Features.CustomBranding {
		b.WriteString("\n💡 Tip: Upgrade to Pro to remove the watermark and add custom branding!")
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, boxStyle.Render(strings.TrimRight(b.String(), "\n")))
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("Completed in %s", result.Stats.ProcessingTime.Round(time.Millisecond))))
}
