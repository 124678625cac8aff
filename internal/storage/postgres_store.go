package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/samvad-hq/samvad-news-importer/internal/domain"
)

const uniqueViolation = "23505"

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS news_categories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS news_authors (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS news_articles (
		id TEXT PRIMARY KEY,
		slug TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		excerpt TEXT NOT NULL,
		content TEXT NOT NULL,
		category_id TEXT REFERENCES news_categories(id),
		author_id TEXT REFERENCES news_authors(id),
		tags TEXT[] NOT NULL,
		image_url TEXT,
		image_alt TEXT,
		image_credit TEXT,
		gallery TEXT[],
		source_url TEXT,
		seo_title TEXT,
		seo_description TEXT,
		featured BOOLEAN NOT NULL DEFAULT FALSE,
		published_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS news_import_sources (
		url TEXT PRIMARY KEY,
		expires_at TIMESTAMPTZ NOT NULL
	)`,
}

// postgresStore implements a Store backed by PostgreSQL.
type postgresStore struct {
	conn          *sql.DB
	defaultAuthor string
	sourceTTL     time.Duration
}

func openPostgres(dsn string, opts Options) (Store, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	s := &postgresStore{conn: conn, defaultAuthor: opts.DefaultAuthor, sourceTTL: opts.SourceTTL}
	if err := s.migrate(context.Background(), opts); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *postgresStore) migrate(ctx context.Context, opts Options) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range postgresSchema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	for _, c := range opts.Categories {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO news_categories (id, name) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
			uuid.NewString(), categoryKey(c)); err != nil {
			return fmt.Errorf("seed category %q: %w", c, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO news_authors (id, name) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
		uuid.NewString(), opts.DefaultAuthor); err != nil {
		return fmt.Errorf("seed author: %w", err)
	}
	return tx.Commit()
}

func (s *postgresStore) Close() error { return s.conn.Close() }

func (s *postgresStore) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := s.conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM news_articles WHERE slug = $1)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query slug: %w", err)
	}
	return exists, nil
}

func (s *postgresStore) FindCategoryID(ctx context.Context, name string) (string, bool, error) {
	var id string
	err := s.conn.QueryRowContext(ctx,
		`SELECT id FROM news_categories WHERE name = $1`, categoryKey(name)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query category: %w", err)
	}
	return id, true, nil
}

func (s *postgresStore) FindDefaultAuthor(ctx context.Context) (string, error) {
	var id string
	err := s.conn.QueryRowContext(ctx,
		`SELECT id FROM news_authors WHERE name = $1`, s.defaultAuthor).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("query default author: %w", err)
	}
	return id, nil
}

func (s *postgresStore) InsertArticle(ctx context.Context, a domain.CanonicalArticle) (domain.InsertedArticle, error) {
	id := uuid.NewString()
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO news_articles (
			id, slug, title, excerpt, content, category_id, author_id, tags,
			image_url, image_alt, image_credit, gallery, source_url,
			seo_title, seo_description, featured, published_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		id, a.Slug, a.Title, a.Excerpt, a.Content, nullable(a.CategoryID), nullable(a.AuthorID),
		pq.Array(a.Tags), a.ImageURL, a.ImageAlt, a.ImageCredit, pq.Array(a.Gallery), a.SourceURL,
		a.SEOTitle, a.SEODescription, a.Featured, a.PublishedAt,
	)
	if err != nil {
		return domain.InsertedArticle{}, mapInsertError(a.Slug, err)
	}
	return domain.InsertedArticle{ID: id, Slug: a.Slug}, nil
}

func (s *postgresStore) SeenSource(ctx context.Context, sourceURL string) (bool, error) {
	var exists bool
	err := s.conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM news_import_sources WHERE url = $1 AND expires_at > NOW())`,
		sourceURL).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query source: %w", err)
	}
	return exists, nil
}

func (s *postgresStore) MarkSource(ctx context.Context, sourceURL string) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO news_import_sources (url, expires_at) VALUES ($1, $2)
		ON CONFLICT (url) DO UPDATE SET expires_at = excluded.expires_at`,
		sourceURL, time.Now().Add(s.sourceTTL))
	if err != nil {
		return fmt.Errorf("mark source: %w", err)
	}
	return nil
}

// mapInsertError turns a unique violation on the slug into ErrDuplicateSlug.
func mapInsertError(slug string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return fmt.Errorf("insert article %q: %w", slug, domain.ErrDuplicateSlug)
	}
	return fmt.Errorf("insert article %q: %w: %w", slug, domain.ErrPersistence, err)
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
