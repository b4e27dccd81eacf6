package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"necromancer/internal/core"
)

// ErrNotFound is returned when no portfolio has the requested id.
var ErrNotFound = errors.New("portfolio not found")

// Store is the SQLite catalog of generated portfolios. The sites themselves
// live on disk; the catalog keeps who they were built for and what went in.
type Store struct {
	db   *sql.DB
	path string
}

// Record describes one generated portfolio
type Record struct {
	ID           string          `json:"id"`
	OwnerName    string          `json:"owner_name"`
	OwnerEmail   string          `json:"owner_email"`
	Theme        string          `json:"theme"`
	ColorScheme  string          `json:"color_scheme"`
	ProjectCount int             `json:"project_count"`
	Dropped      int             `json:"dropped"`
	Categories   map[string]int  `json:"categories"`
	Path         string          `json:"-"`
	CreatedAt    time.Time       `json:"created_at"`
	Projects     []ProjectRecord `json:"projects,omitempty"`
}

// ProjectRecord is one project as it was rendered
type ProjectRecord struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Category     string  `json:"category"`
	Confidence   float64 `json:"confidence"`
	ClassifiedBy string  `json:"classified_by"`
	Summary      string  `json:"summary"`
	SummarizedBy string  `json:"summarized_by"`
}

// NewStore opens (creating if needed) the catalog database in dataDir
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "necromancer.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows one writer; requests share a single connection.
	db.SetMaxOpenConns(1)

	store := &Store{
		db:   db,
		path: dbPath,
	}

	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

// initialize creates the necessary tables
func (s *Store) initialize() error {
	portfoliosTable := `
	CREATE TABLE IF NOT EXISTS portfolios (
		id TEXT PRIMARY KEY,
		owner_name TEXT,
		owner_email TEXT,
		theme TEXT,
		color_scheme TEXT,
		project_count INTEGER,
		dropped INTEGER,
		categories TEXT,
		path TEXT,
		created_at DATETIME
	);`

	projectsTable := `
	CREATE TABLE IF NOT EXISTS projects (
		portfolio_id TEXT,
		position INTEGER,
		project_id TEXT,
		title TEXT,
		category TEXT,
		confidence REAL,
		classified_by TEXT,
		summary TEXT,
		summarized_by TEXT,
		PRIMARY KEY (portfolio_id, position),
		FOREIGN KEY (portfolio_id) REFERENCES portfolios (id) ON DELETE CASCADE
	);`

	createdIndex := `CREATE INDEX IF NOT EXISTS idx_portfolios_created ON portfolios (created_at);`

	for _, stmt := range []string{portfoliosTable, projectsTable, createdIndex} {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// SavePortfolio records a generated portfolio and its projects. Saving the
// same id again replaces the earlier record.
func (s *Store) SavePortfolio(ctx context.Context, id, path string, portfolio *core.Portfolio, dropped int) error {
	counts := make(map[string]int)
	for c, n := range portfolio.CountByCategory() {
		if n > 0 {
			counts[string(c)] = n
		}
	}
	categories, err := json.Marshal(counts)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE portfolio_id = ?`, id); err != nil {
		return fmt.Errorf("failed to replace projects: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
	INSERT OR REPLACE INTO portfolios
	(id, owner_name, owner_email, theme, color_scheme, project_count, dropped, categories, path, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		portfolio.Owner.Name,
		portfolio.Owner.Email,
		portfolio.Options.Theme,
		portfolio.Options.ColorScheme,
		len(portfolio.Projects),
		dropped,
		string(categories),
		path,
		portfolio.GeneratedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save portfolio: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO projects
	(portfolio_id, position, project_id, title, category, confidence, classified_by, summary, summarized_by)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare project insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range portfolio.Projects {
		if _, err := stmt.ExecContext(ctx, id, i, p.ID, p.Title, string(p.Category), p.Confidence,
			string(p.ClassifiedBy), p.Summary, string(p.SummarizedBy)); err != nil {
			return fmt.Errorf("failed to save project %s: %w", p.ID, err)
		}
	}

	return tx.Commit()
}

const selectPortfolio = `
	SELECT id, owner_name, owner_email, theme, color_scheme, project_count, dropped, categories, path, created_at
	FROM portfolios`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var r Record
	var categories string
	if err := row.Scan(&r.ID, &r.OwnerName, &r.OwnerEmail, &r.Theme, &r.ColorScheme,
		&r.ProjectCount, &r.Dropped, &categories, &r.Path, &r.CreatedAt); err != nil {
		return nil, err
	}
	if categories != "" {
		if err := json.Unmarshal([]byte(categories), &r.Categories); err != nil {
			return nil, fmt.Errorf("corrupt category counts for %s: %w", r.ID, err)
		}
	}
	return &r, nil
}

// GetPortfolio returns a portfolio with its projects in rendered order
func (s *Store) GetPortfolio(ctx context.Context, id string) (*Record, error) {
	r, err := scanRecord(s.db.QueryRowContext(ctx, selectPortfolio+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load portfolio: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
	SELECT project_id, title, category, confidence, classified_by, summary, summarized_by
	FROM projects WHERE portfolio_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load projects: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p ProjectRecord
		if err := rows.Scan(&p.ID, &p.Title, &p.Category, &p.Confidence, &p.ClassifiedBy, &p.Summary, &p.SummarizedBy); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		r.Projects = append(r.Projects, p)
	}
	return r, rows.Err()
}

// ListPortfolios returns the newest portfolios first, without projects
func (s *Store) ListPortfolios(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, selectPortfolio+` ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan portfolio: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// Stats summarizes the catalog
type Stats struct {
	Portfolios  int            `json:"portfolios"`
	Projects    int            `json:"projects"`
	ByCategory  map[string]int `json:"by_category"`
	Size        int64          `json:"size_bytes"`
	LastUpdated time.Time      `json:"last_updated"`
}

// GetStats returns counts across every stored portfolio
func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByCategory: make(map[string]int)}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM portfolios`).Scan(&stats.Portfolios); err != nil {
		return nil, fmt.Errorf("failed to get count: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT category, COUNT(*) FROM projects GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("failed to get category counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var category string
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			return nil, err
		}
		stats.ByCategory[category] = n
		stats.Projects += n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if fileInfo, err := os.Stat(s.path); err == nil {
		stats.Size = fileInfo.Size()
		stats.LastUpdated = fileInfo.ModTime()
	}

	return stats, nil
}

// DeleteOlderThan removes portfolios created before cutoff and returns their
// ids and paths so the caller can remove the files.
func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, path FROM portfolios WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to find old portfolios: %w", err)
	}
	old := make(map[string]string)
	for rows.Next() {
		var id, path string
		if err := rows.Scan(&id, &path); err != nil {
			rows.Close()
			return nil, err
		}
		old[id] = path
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for id := range old {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE portfolio_id = ?`, id); err != nil {
			return nil, fmt.Errorf("failed to delete projects of %s: %w", id, err)
		}
		if _, err := s.db.ExecContext(ctx, `DELETE FROM portfolios WHERE id = ?`, id); err != nil {
			return nil, fmt.Errorf("failed to delete portfolio %s: %w", id, err)
		}
	}
	return old, nil
}
