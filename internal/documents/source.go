// Package documents fetches topic documents: the plain-text files, one per
// prediction mode, that list subjects and their probability-ranked topics.
package documents

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// ErrFetchFailed wraps every failure to retrieve a document.
var ErrFetchFailed = errors.New("fetch failed")

// Document is the raw text of one topic document.
type Document struct {
	Name        string `json:"name"`
	Text        string `json:"text"`
	Fingerprint string `json:"fingerprint"`
}

// NewDocument builds a Document and computes its fingerprint.
func NewDocument(name, text string) Document {
	return Document{Name: name, Text: text, Fingerprint: Fingerprint(text)}
}

// Fingerprint returns the hex BLAKE2b-256 digest of text.
func Fingerprint(text string) string {
	sum := blake2b.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Source retrieves documents by name.
type Source interface {
	Fetch(ctx context.Context, name string) (Document, error)
}

// fetchError wraps err so that errors.Is(err, ErrFetchFailed) holds while the
// original cause stays reachable.
func fetchError(name string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrFetchFailed, name, err)
}

// checkName rejects names that are not plain relative paths.
func checkName(name string) error {
	if name == "" || !fs.ValidPath(name) || name == "." || strings.Contains(name, "\\") {
		return fmt.Errorf("invalid document name %q", name)
	}
	return nil
}
