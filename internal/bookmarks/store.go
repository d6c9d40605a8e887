// Package bookmarks persists saved insights in a local SQLite database.
package bookmarks

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/datalens-ai/analytics-console/internal/model"
	"github.com/datalens-ai/analytics-console/pkg/metrics"
)

const schema = `
CREATE TABLE IF NOT EXISTS bookmarks (
	id           TEXT PRIMARY KEY,
	created_at   TIMESTAMP NOT NULL,
	title        TEXT NOT NULL,
	query        TEXT NOT NULL,
	summary      TEXT,
	chart_config TEXT,
	tags         TEXT NOT NULL DEFAULT '[]',
	notes        TEXT
);
CREATE INDEX IF NOT EXISTS idx_bookmarks_created_at ON bookmarks(created_at DESC);
`

// ErrNotFound is returned when a bookmark identifier does not exist.
var ErrNotFound = errors.New("bookmark not found")

// Store is a durable bookmark store keyed by a stable identifier.
type Store struct {
	db *sql.DB
}

// Open opens (and if necessary initializes) the store at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open bookmark database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("bookmark database ping failed: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize bookmark schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add persists a new bookmark and returns it with identifier and timestamp
// assigned.
func (s *Store) Add(insight model.BookmarkedInsight) (model.BookmarkedInsight, error) {
	insight.ID = "bm-" + uuid.Must(uuid.NewV7()).String()
	insight.Timestamp = time.Now()
	if insight.Tags == nil {
		insight.Tags = []string{}
	}

	if err := s.insert(insight); err != nil {
		return model.BookmarkedInsight{}, err
	}
	metrics.BookmarkOpsTotal.WithLabelValues("add").Inc()
	return insight, nil
}

func (s *Store) insert(insight model.BookmarkedInsight) error {
	tags, err := json.Marshal(insight.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO bookmarks (id, created_at, title, query, summary, chart_config, tags, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		insight.ID, insight.Timestamp, insight.Title, insight.Query,
		insight.Summary, string(insight.ChartConfig), string(tags), insight.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to insert bookmark: %w", err)
	}
	return nil
}

// Remove deletes a bookmark by identifier.
func (s *Store) Remove(id string) error {
	res, err := s.db.Exec(`DELETE FROM bookmarks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete bookmark: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	metrics.BookmarkOpsTotal.WithLabelValues("remove").Inc()
	return nil
}

// Update applies non-zero fields of updates to an existing bookmark.
func (s *Store) Update(id string, updates model.BookmarkedInsight) (model.BookmarkedInsight, error) {
	existing, err := s.Get(id)
	if err != nil {
		return model.BookmarkedInsight{}, err
	}

	if updates.Title != "" {
		existing.Title = updates.Title
	}
	if updates.Query != "" {
		existing.Query = updates.Query
	}
	if updates.Summary != "" {
		existing.Summary = updates.Summary
	}
	if len(updates.ChartConfig) > 0 {
		existing.ChartConfig = updates.ChartConfig
	}
	if updates.Tags != nil {
		existing.Tags = updates.Tags
	}
	if updates.Notes != "" {
		existing.Notes = updates.Notes
	}

	if err := s.insert(existing); err != nil {
		return model.BookmarkedInsight{}, err
	}
	metrics.BookmarkOpsTotal.WithLabelValues("update").Inc()
	return existing, nil
}

// Get fetches one bookmark by identifier.
func (s *Store) Get(id string) (model.BookmarkedInsight, error) {
	row := s.db.QueryRow(
		`SELECT id, created_at, title, query, summary, chart_config, tags, notes
		 FROM bookmarks WHERE id = ?`, id)

	insight, err := scanBookmark(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.BookmarkedInsight{}, ErrNotFound
	}
	return insight, err
}

// List returns all bookmarks, newest first.
func (s *Store) List() ([]model.BookmarkedInsight, error) {
	rows, err := s.db.Query(
		`SELECT id, created_at, title, query, summary, chart_config, tags, notes
		 FROM bookmarks ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}
	defer rows.Close()

	var out []model.BookmarkedInsight
	for rows.Next() {
		insight, err := scanBookmark(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, insight)
	}
	return out, rows.Err()
}

// ByTag returns the bookmarks carrying the given tag, newest first.
func (s *Store) ByTag(tag string) ([]model.BookmarkedInsight, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}
	var out []model.BookmarkedInsight
	for _, b := range all {
		if b.HasTag(tag) {
			out = append(out, b)
		}
	}
	return out, nil
}

// Tags returns the sorted set of distinct tags across all bookmarks.
func (s *Store) Tags() ([]string, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	for _, b := range all {
		for _, t := range b.Tags {
			seen[t] = struct{}{}
		}
	}
	tags := make([]string, 0, len(seen))
	for t := range seen {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags, nil
}

// Clear deletes every bookmark.
func (s *Store) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM bookmarks`); err != nil {
		return fmt.Errorf("failed to clear bookmarks: %w", err)
	}
	return nil
}

// Export serializes all bookmarks to an indented JSON document.
func (s *Store) Export() ([]byte, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}
	if all == nil {
		all = []model.BookmarkedInsight{}
	}
	return json.MarshalIndent(all, "", "  ")
}

// Import merges bookmarks from a JSON document produced by Export. Imported
// entries keep their identifiers and timestamps; a non-array document is
// rejected.
func (s *Store) Import(data []byte) error {
	var imported []model.BookmarkedInsight
	if err := json.Unmarshal(data, &imported); err != nil {
		return fmt.Errorf("invalid bookmark document: %w", err)
	}
	for _, b := range imported {
		if b.ID == "" {
			b.ID = "bm-" + uuid.Must(uuid.NewV7()).String()
		}
		if b.Timestamp.IsZero() {
			b.Timestamp = time.Now()
		}
		if b.Tags == nil {
			b.Tags = []string{}
		}
		if err := s.insert(b); err != nil {
			return err
		}
	}
	metrics.BookmarkOpsTotal.WithLabelValues("import").Inc()
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBookmark(row scanner) (model.BookmarkedInsight, error) {
	var (
		insight     model.BookmarkedInsight
		summary     sql.NullString
		chartConfig sql.NullString
		notes       sql.NullString
		tags        string
	)

	err := row.Scan(&insight.ID, &insight.Timestamp, &insight.Title, &insight.Query,
		&summary, &chartConfig, &tags, &notes)
	if err != nil {
		return model.BookmarkedInsight{}, err
	}

	insight.Summary = summary.String
	insight.Notes = notes.String
	if chartConfig.Valid && chartConfig.String != "" {
		insight.ChartConfig = json.RawMessage(chartConfig.String)
	}
	if err := json.Unmarshal([]byte(tags), &insight.Tags); err != nil {
		insight.Tags = []string{}
	}
	return insight, nil
}
