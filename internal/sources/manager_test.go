package sources

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"necromancer/internal/core"
)

// MockSource is a scriptable source.
type MockSource struct {
	name      core.Source
	projects  []core.Project
	readyErr  error
	scrapeErr error
	panicMsg  string
	calls     int
}

func (m *MockSource) Name() core.Source { return m.name }

func (m *MockSource) Ready() error { return m.readyErr }

func (m *MockSource) Scrape(ctx context.Context) ([]core.Project, error) {
	m.calls++
	if m.panicMsg != "" {
		panic(m.panicMsg)
	}
	if m.scrapeErr != nil {
		return nil, m.scrapeErr
	}
	return m.projects, nil
}

func titled(titles ...string) []core.Project {
	out := make([]core.Project, len(titles))
	for i, title := range titles {
		out[i] = core.Project{Title: title}
	}
	return out
}

func TestScrapeAll_CollectsInSourceOrder(t *testing.T) {
	manual := &MockSource{name: core.SourceManual, projects: titled("A", "B")}
	slack := &MockSource{name: core.SourceSlack, projects: titled("C")}

	projects, reports := NewManager(manual, slack).ScrapeAll(context.Background())

	require.Len(t, projects, 3)
	for i, want := range []string{"A", "B", "C"} {
		assert.Equal(t, want, projects[i].Title)
	}
	assert.Equal(t, core.SourceManual, projects[0].Source)
	assert.Equal(t, core.SourceSlack, projects[2].Source)

	for _, r := range reports {
		assert.Equal(t, StateScraped, r.State, r.Source)
	}
	assert.Equal(t, 2, reports[0].Records)
	assert.Equal(t, 1, reports[1].Records)
}

func TestScrapeAll_FailedSourceDoesNotStopRun(t *testing.T) {
	email := &MockSource{name: core.SourceEmail, scrapeErr: errors.New("auth expired")}
	manual := &MockSource{name: core.SourceManual, projects: titled("Kept")}

	projects, reports := NewManager(email, manual).ScrapeAll(context.Background())

	require.Len(t, projects, 1)
	assert.Equal(t, "Kept", projects[0].Title)
	assert.Equal(t, StateFailed, reports[0].State)
	assert.True(t, core.Is(reports[0].Err, core.ErrCodeSource), "got %v", reports[0].Err)
	assert.NotEmpty(t, reports[0].Error)

	failed := Failed(reports)
	require.Len(t, failed, 1)
	assert.Equal(t, core.SourceEmail, failed[0].Source)
}

func TestScrapeAll_UnconfiguredSourceIsSkipped(t *testing.T) {
	figma := &MockSource{
		name:     core.SourceFigma,
		readyErr: fmt.Errorf("%w: figma team id not set", ErrNotConfigured),
	}

	projects, reports := NewManager(figma).ScrapeAll(context.Background())

	assert.Empty(t, projects)
	assert.Equal(t, StateSkipped, reports[0].State)
	assert.True(t, IsNotConfigured(reports[0].Err), "got %v", reports[0].Err)
	assert.Zero(t, figma.calls, "skipped source should not be scraped")
	assert.Empty(t, Failed(reports), "skipped sources are not failures")
}

func TestScrapeAll_RecoversPanic(t *testing.T) {
	broken := &MockSource{name: core.SourceScreenshot, panicMsg: "nil map"}
	manual := &MockSource{name: core.SourceManual, projects: titled("Survivor")}

	projects, reports := NewManager(broken, manual).ScrapeAll(context.Background())

	require.Len(t, projects, 1)
	assert.Equal(t, StateFailed, reports[0].State)
}

func TestScrapeAll_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	manual := &MockSource{name: core.SourceManual, projects: titled("A")}
	projects, reports := NewManager(manual).ScrapeAll(ctx)

	assert.Empty(t, projects)
	assert.Equal(t, StateFailed, reports[0].State)
	assert.ErrorIs(t, reports[0].Err, context.Canceled)
	assert.Zero(t, manual.calls, "source should not run after cancellation")
}

func TestScrapeAll_KeepsExplicitSource(t *testing.T) {
	manual := &MockSource{name: core.SourceManual, projects: []core.Project{{Title: "X", Source: core.SourceFigma}}}

	projects, _ := NewManager(manual).ScrapeAll(context.Background())

	assert.Equal(t, core.SourceFigma, projects[0].Source)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"this is a long line", 10, "this is..."},
		{"héllo wörld", 8, "héllo..."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, truncate(tt.in, tt.max), "truncate(%q, %d)", tt.in, tt.max)
	}
}

func TestLooksLikeProject(t *testing.T) {
	assert.True(t, looksLikeProject("We LAUNCHED the new site"))
	assert.False(t, looksLikeProject("lunch on friday?"))
}
