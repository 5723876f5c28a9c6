package web

import (
	"errors"
	"io/fs"
	"net/http"
	"strings"
)

// handleTopicDocument serves a raw topic document. The fingerprint doubles as
// a strong ETag.
func (s *Server) handleTopicDocument(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	doc, err := s.source.Fetch(r.Context(), name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeJSON(w, http.StatusNotFound, apiError{Error: codeNotFound, Message: "no document named " + name})
			return
		}
		writeError(w, err, nil)
		return
	}

	etag := `"` + doc.Fingerprint + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(doc.Text))
}

func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}
