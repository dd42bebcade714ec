package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/thebeakers/spsdaily/pkg/article"
)

// SeenEntry is one row of the permanent seen-article ledger. Existence
// alone is the gate signal; entries are never expired or deleted.
type SeenEntry struct {
	URL       string    `db:"url"`
	Headline  string    `db:"headline"`
	Category  string    `db:"category"`
	FirstSeen time.Time `db:"first_seen"`
}

// ArchiveEntry is one approved article in the permanent archive. The
// archive is independent of the live feed's size cap and never evicted.
type ArchiveEntry struct {
	ID           int64     `db:"id" json:"-"`
	URL          string    `db:"url" json:"url"`
	Headline     string    `db:"headline" json:"headline"`
	Teaser       string    `db:"teaser" json:"teaser"`
	Source       string    `db:"source" json:"source"`
	Category     string    `db:"category" json:"category"`
	WordCount    int       `db:"word_count" json:"word_count,omitempty"`
	ApprovedDate string    `db:"approved_date" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"-"`
}

// ArchiveListOpts controls archive listing.
type ArchiveListOpts struct {
	Category string
	Since    string // approved_date lower bound, inclusive (YYYY-MM-DD)
	Limit    int
}

// Store is the persistence interface for the seen ledger and the archive.
type Store interface {
	HasSeen(ctx context.Context, url string) (bool, error)
	MarkSeen(ctx context.Context, url, headline, category string) error
	CountSeen(ctx context.Context) (int, error)

	AddToArchive(ctx context.Context, c *article.Candidate, approvedDate string) error
	ListArchive(ctx context.Context, opts ArchiveListOpts) ([]ArchiveEntry, error)

	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) HasSeen(ctx context.Context, url string) (bool, error) {
	var entry SeenEntry
	err := s.db.GetContext(ctx, &entry, "SELECT * FROM seen_articles WHERE url = ?", url)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup seen %s: %w", url, err)
	}
	return true, nil
}

// MarkSeen records a URL in the ledger. Re-marking an already-seen URL is
// a no-op, not an error.
func (s *SQLiteStore) MarkSeen(ctx context.Context, url, headline, category string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO seen_articles (url, headline, category, first_seen)
		VALUES (?, ?, ?, ?)
	`, url, headline, category, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark seen %s: %w", url, err)
	}
	return nil
}

func (s *SQLiteStore) CountSeen(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM seen_articles"); err != nil {
		return 0, fmt.Errorf("count seen: %w", err)
	}
	return n, nil
}

// AddToArchive upserts one approved candidate. A repeated approval of the
// same URL replaces the row in place rather than duplicating it.
func (s *SQLiteStore) AddToArchive(ctx context.Context, c *article.Candidate, approvedDate string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO archive (url, headline, teaser, source, category, word_count, approved_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, c.URL, c.Headline, c.Teaser, c.Source, c.Category, c.WordCount, approvedDate, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("archive %s: %w", c.URL, err)
	}
	return nil
}

func (s *SQLiteStore) ListArchive(ctx context.Context, opts ArchiveListOpts) ([]ArchiveEntry, error) {
	builder := sq.Select("*").From("archive").
		OrderBy("approved_date DESC", "category", "id DESC")

	if opts.Category != "" {
		builder = builder.Where(sq.Eq{"category": opts.Category})
	}
	if opts.Since != "" {
		builder = builder.Where(sq.GtOrEq{"approved_date": opts.Since})
	}
	if opts.Limit > 0 {
		builder = builder.Limit(uint64(opts.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build archive query: %w", err)
	}

	var entries []ArchiveEntry
	if err := s.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list archive: %w", err)
	}
	return entries, nil
}
