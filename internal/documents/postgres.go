package documents

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

const schemaSQL = `CREATE TABLE IF NOT EXISTS topic_documents (
	name        TEXT PRIMARY KEY,
	content     TEXT NOT NULL,
	fingerprint TEXT NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// PostgresSource reads documents from the topic_documents table.
type PostgresSource struct {
	pool *pgxpool.Pool
}

// NewPostgresSource creates a PostgreSQL-backed document source.
func NewPostgresSource(pool *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

// EnsureSchema creates the topic_documents table if it does not exist.
func (s *PostgresSource) EnsureSchema(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("document source pool is nil")
	}
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create topic_documents: %w", err)
	}
	return nil
}

func (s *PostgresSource) Fetch(ctx context.Context, name string) (Document, error) {
	if s == nil || s.pool == nil {
		return Document{}, fetchError(name, fmt.Errorf("document source pool is nil"))
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var text, fingerprint string
	err := s.pool.QueryRow(ctx,
		`SELECT content, fingerprint
		 FROM topic_documents
		 WHERE name = $1`,
		name,
	).Scan(&text, &fingerprint)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, fetchError(name, fs.ErrNotExist)
		}
		return Document{}, fetchError(name, fmt.Errorf("query document: %w", err))
	}

	return Document{Name: name, Text: text, Fingerprint: fingerprint}, nil
}

// Put inserts or replaces a document.
func (s *PostgresSource) Put(ctx context.Context, doc Document) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("document source pool is nil")
	}
	if err := checkName(doc.Name); err != nil {
		return err
	}
	if doc.Fingerprint == "" {
		doc.Fingerprint = Fingerprint(doc.Text)
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO topic_documents (name, content, fingerprint, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (name)
		 DO UPDATE SET content = EXCLUDED.content,
		               fingerprint = EXCLUDED.fingerprint,
		               updated_at = NOW()`,
		doc.Name,
		doc.Text,
		doc.Fingerprint,
	)
	if err != nil {
		return fmt.Errorf("upsert document %s: %w", doc.Name, err)
	}
	return nil
}

// Seed copies the named documents from src into the table.
func (s *PostgresSource) Seed(ctx context.Context, src Source, names []string) error {
	for _, name := range names {
		doc, err := src.Fetch(ctx, name)
		if err != nil {
			return fmt.Errorf("seeding %s: %w", name, err)
		}
		if err := s.Put(ctx, doc); err != nil {
			return err
		}
		slog.Info("topic document seeded", "name", name, "fingerprint", doc.Fingerprint)
	}
	return nil
}
