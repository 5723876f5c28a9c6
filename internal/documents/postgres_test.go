package documents_test

import (
	"errors"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/p-n-ai/pai-predict/internal/documents"
	"github.com/p-n-ai/pai-predict/internal/platform/database"
)

func TestPostgresSource_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}

	ctx := t.Context()
	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("predict"),
		postgres.WithUsername("predict"),
		postgres.WithPassword("predict"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(ctr); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	url, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("ConnectionString() error = %v", err)
	}
	db, err := database.Open(ctx, url, database.Options{MaxConns: 2, MinConns: 1})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(db.Close)

	src := documents.NewPostgresSource(db.Pool)
	if err := src.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	// Twice to check it is idempotent.
	if err := src.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema() second call error = %v", err)
	}

	seed := documents.NewDirSource(fstest.MapFS{
		"pass.txt":   {Data: []byte(passText)},
		"decent.txt": {Data: []byte("1. IT in Business\nHigh Probability\n- ERP\n")},
	})
	if err := src.Seed(ctx, seed, []string{"pass.txt", "decent.txt"}); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	doc, err := src.Fetch(ctx, "pass.txt")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if doc.Text != passText {
		t.Errorf("Text = %q, want %q", doc.Text, passText)
	}
	if doc.Fingerprint != documents.Fingerprint(passText) {
		t.Errorf("Fingerprint = %q, want digest of text", doc.Fingerprint)
	}

	updated := "1. Business Ethics\nHigh Probability\n- CSR\n"
	if err := src.Put(ctx, documents.NewDocument("pass.txt", updated)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	doc, err = src.Fetch(ctx, "pass.txt")
	if err != nil {
		t.Fatalf("Fetch() after update error = %v", err)
	}
	if doc.Text != updated {
		t.Errorf("Text after update = %q, want %q", doc.Text, updated)
	}

	_, err = src.Fetch(ctx, "missing.txt")
	if !errors.Is(err, documents.ErrFetchFailed) || !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Fetch(missing) error = %v, want ErrFetchFailed wrapping fs.ErrNotExist", err)
	}
}
