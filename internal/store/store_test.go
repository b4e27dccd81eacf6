package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"necromancer/internal/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func samplePortfolio(at time.Time) *core.Portfolio {
	return &core.Portfolio{
		Owner: core.Owner{Name: "Ada Lovelace", Email: "ada@example.com"},
		Projects: []core.Project{
			{ID: "p1", Title: "Payments API", Category: core.CategoryCode, Confidence: 0.8,
				ClassifiedBy: core.TierRules, Summary: "Built it.", SummarizedBy: core.TierTemplate},
			{ID: "p2", Title: "Brand Refresh", Category: core.CategoryDesign, Confidence: 0.6,
				ClassifiedBy: core.TierAI, Summary: "Drew it.", SummarizedBy: core.TierAI},
			{ID: "p3", Title: "CLI Toolkit", Category: core.CategoryCode, Confidence: 0.7,
				ClassifiedBy: core.TierRules, Summary: "Shipped it.", SummarizedBy: core.TierTemplate},
		},
		Options:     core.PresentationOptions{Theme: "modern", ColorScheme: "green"},
		GeneratedAt: at,
	}
}

func TestNewStore(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewStore(tmpDir)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer func() { _ = store.Close() }()

	dbPath := filepath.Join(tmpDir, "necromancer.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file should be created")
	}
}

func TestNewStore_InvalidDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	invalidPath := filepath.Join(tmpDir, "file.txt")
	_ = os.WriteFile(invalidPath, []byte("test"), 0644)

	if _, err := NewStore(invalidPath); err == nil {
		t.Error("Expected error when creating store in invalid directory")
	}
}

func TestSaveAndGetPortfolio(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

	if err := store.SavePortfolio(ctx, "id-1", "/srv/id-1", samplePortfolio(at), 2); err != nil {
		t.Fatalf("SavePortfolio failed: %v", err)
	}

	got, err := store.GetPortfolio(ctx, "id-1")
	if err != nil {
		t.Fatalf("GetPortfolio failed: %v", err)
	}
	if got.OwnerName != "Ada Lovelace" || got.OwnerEmail != "ada@example.com" {
		t.Errorf("Unexpected owner: %s <%s>", got.OwnerName, got.OwnerEmail)
	}
	if got.ProjectCount != 3 || got.Dropped != 2 {
		t.Errorf("Expected 3 projects and 2 dropped, got %d and %d", got.ProjectCount, got.Dropped)
	}
	if got.Categories["Code"] != 2 || got.Categories["Design"] != 1 {
		t.Errorf("Unexpected category counts: %v", got.Categories)
	}
	if _, ok := got.Categories["Writing"]; ok {
		t.Error("Empty categories should not be stored")
	}
	if !got.CreatedAt.Equal(at) {
		t.Errorf("Expected created_at %v, got %v", at, got.CreatedAt)
	}
	if got.Path != "/srv/id-1" {
		t.Errorf("Unexpected path %q", got.Path)
	}

	if len(got.Projects) != 3 {
		t.Fatalf("Expected 3 projects, got %d", len(got.Projects))
	}
	for i, want := range []string{"p1", "p2", "p3"} {
		if got.Projects[i].ID != want {
			t.Errorf("Project %d: expected %s, got %s", i, want, got.Projects[i].ID)
		}
	}
	if got.Projects[1].ClassifiedBy != "ai" || got.Projects[1].Category != "Design" {
		t.Errorf("Unexpected project record: %+v", got.Projects[1])
	}
}

func TestSavePortfolio_Replaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	p := samplePortfolio(time.Now().UTC())

	if err := store.SavePortfolio(ctx, "id-1", "/a", p, 0); err != nil {
		t.Fatalf("SavePortfolio failed: %v", err)
	}
	p.Projects = p.Projects[:1]
	if err := store.SavePortfolio(ctx, "id-1", "/a", p, 0); err != nil {
		t.Fatalf("SavePortfolio failed: %v", err)
	}

	got, err := store.GetPortfolio(ctx, "id-1")
	if err != nil {
		t.Fatalf("GetPortfolio failed: %v", err)
	}
	if len(got.Projects) != 1 || got.ProjectCount != 1 {
		t.Errorf("Expected the second save to replace the first, got %d projects", len(got.Projects))
	}
}

func TestGetPortfolio_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetPortfolio(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestListPortfolios_NewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "mid", "new"} {
		at := base.Add(time.Duration(i) * time.Hour)
		if err := store.SavePortfolio(ctx, id, "/"+id, samplePortfolio(at), 0); err != nil {
			t.Fatalf("SavePortfolio failed: %v", err)
		}
	}

	list, err := store.ListPortfolios(ctx, 2)
	if err != nil {
		t.Fatalf("ListPortfolios failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("Expected 2 portfolios, got %d", len(list))
	}
	if list[0].ID != "new" || list[1].ID != "mid" {
		t.Errorf("Expected newest first, got %s, %s", list[0].ID, list[1].ID)
	}
	if list[0].Projects != nil {
		t.Error("Listing should not load projects")
	}
}

func TestGetStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		if err := store.SavePortfolio(ctx, id, "/"+id, samplePortfolio(time.Now().UTC()), 0); err != nil {
			t.Fatalf("SavePortfolio failed: %v", err)
		}
	}

	stats, err := store.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.Portfolios != 2 || stats.Projects != 6 {
		t.Errorf("Expected 2 portfolios and 6 projects, got %d and %d", stats.Portfolios, stats.Projects)
	}
	if stats.ByCategory["Code"] != 4 {
		t.Errorf("Expected 4 code projects, got %d", stats.ByCategory["Code"])
	}
	if stats.Size == 0 {
		t.Error("Expected a non-empty database file")
	}
}

func TestDeleteOlderThan(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	_ = store.SavePortfolio(ctx, "old", "/old", samplePortfolio(now.Add(-48*time.Hour)), 0)
	_ = store.SavePortfolio(ctx, "new", "/new", samplePortfolio(now), 0)

	removed, err := store.DeleteOlderThan(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteOlderThan failed: %v", err)
	}
	if len(removed) != 1 || removed["old"] != "/old" {
		t.Errorf("Expected only the old portfolio removed, got %v", removed)
	}
	if _, err := store.GetPortfolio(ctx, "old"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected old portfolio gone, got %v", err)
	}
	if _, err := store.GetPortfolio(ctx, "new"); err != nil {
		t.Errorf("Expected new portfolio kept, got %v", err)
	}
}
