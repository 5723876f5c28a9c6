package documents

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxDocumentBytes is the largest response body accepted as a document.
const maxDocumentBytes = 4 << 20

// HTTPSource fetches documents by relative path from a base URL, the way the
// page loads its static text files.
type HTTPSource struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSource creates a source rooted at baseURL.
func NewHTTPSource(baseURL string) *HTTPSource {
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *HTTPSource) Fetch(ctx context.Context, name string) (Document, error) {
	if err := checkName(name); err != nil {
		return Document{}, fetchError(name, err)
	}

	endpoint, err := url.JoinPath(s.baseURL, name)
	if err != nil {
		return Document{}, fetchError(name, fmt.Errorf("building url: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Document{}, fetchError(name, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Accept", "text/plain")

	resp, err := s.client.Do(req)
	if err != nil {
		return Document{}, fetchError(name, fmt.Errorf("sending request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Document{}, fetchError(name, fs.ErrNotExist)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Document{}, fetchError(name, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes+1))
	if err != nil {
		return Document{}, fetchError(name, fmt.Errorf("reading response: %w", err))
	}
	if len(data) > maxDocumentBytes {
		return Document{}, fetchError(name, fmt.Errorf("document larger than %d bytes", maxDocumentBytes))
	}
	return NewDocument(name, string(data)), nil
}
