package sources

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"necromancer/internal/core"
	"necromancer/internal/logger"
)

// State is where a source is in a scrape run.
type State string

const (
	StatePending  State = "pending"
	StateScraping State = "scraping"
	StateScraped  State = "scraped"
	StateFailed   State = "failed"
	StateSkipped  State = "skipped"
)

// Report records how one source fared.
type Report struct {
	Source   core.Source   `json:"source"`
	State    State         `json:"state"`
	Records  int           `json:"records"`
	Err      error         `json:"-"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Manager runs sources one after another and collects their records.
type Manager struct {
	sources []Source
	log     zerolog.Logger
}

// NewManager creates a new source manager
func NewManager(sources ...Source) *Manager {
	return &Manager{
		sources: sources,
		log:     logger.For("sources"),
	}
}

// Sources returns the registered sources in run order.
func (m *Manager) Sources() []Source {
	return m.sources
}

// ScrapeAll runs every source in order. A failed source is recorded in its
// report and contributes no records; it never stops the run. Records come
// back in source order, stamped with their source.
func (m *Manager) ScrapeAll(ctx context.Context) ([]core.Project, []Report) {
	reports := make([]Report, len(m.sources))
	for i, src := range m.sources {
		reports[i] = Report{Source: src.Name(), State: StatePending}
	}

	var projects []core.Project
	for i, src := range m.sources {
		report := &reports[i]

		if err := src.Ready(); err != nil {
			report.State = StateSkipped
			report.Err = err
			report.Error = err.Error()
			m.log.Info().Str("source", string(src.Name())).Str("reason", err.Error()).Msg("Skipping source")
			continue
		}

		if err := ctx.Err(); err != nil {
			m.fail(report, err)
			continue
		}

		report.State = StateScraping
		start := time.Now()
		records, err := m.scrapeOne(ctx, src)
		report.Duration = time.Since(start)
		if err != nil {
			m.fail(report, core.NewSourceError(src.Name(), err))
			continue
		}

		for j := range records {
			if records[j].Source == "" {
				records[j].Source = src.Name()
			}
		}
		report.State = StateScraped
		report.Records = len(records)
		projects = append(projects, records...)
		m.log.Info().Str("source", string(src.Name())).Int("records", len(records)).Dur("duration", report.Duration).Msg("Scraped source")
	}

	return projects, reports
}

func (m *Manager) fail(report *Report, err error) {
	report.State = StateFailed
	report.Err = err
	report.Error = err.Error()
	m.log.Warn().Err(err).Str("source", string(report.Source)).Msg("Source failed")
}

// scrapeOne shields the run from a panicking scraper.
func (m *Manager) scrapeOne(ctx context.Context, src Source) (records []core.Project, err error) {
	defer func() {
		if r := recover(); r != nil {
			records = nil
			err = fmt.Errorf("scraper panicked: %v", r)
		}
	}()
	return src.Scrape(ctx)
}

// Failed returns the reports of sources that failed.
func Failed(reports []Report) []Report {
	var out []Report
	for _, r := range reports {
		if r.State == StateFailed {
			out = append(out, r)
		}
	}
	return out
}

// IsNotConfigured reports whether err means the source was skipped.
func IsNotConfigured(err error) bool {
	return errors.Is(err, ErrNotConfigured)
}
