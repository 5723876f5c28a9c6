// Package predict runs one prediction: it resolves the selected subject and
// mode through the catalog, fetches the mode's topic document and extracts the
// subject's buckets, recording each step in an activity log.
package predict

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/p-n-ai/pai-predict/internal/activity"
	"github.com/p-n-ai/pai-predict/internal/catalog"
	"github.com/p-n-ai/pai-predict/internal/documents"
	"github.com/p-n-ai/pai-predict/internal/selection"
	"github.com/p-n-ai/pai-predict/internal/topics"
)

// Result is the outcome of a prediction. Log is filled on failure too.
type Result struct {
	Buckets  topics.Buckets   `json:"buckets"`
	Document string           `json:"document"`
	Subject  string           `json:"subject"`
	Mode     string           `json:"mode"`
	Log      []activity.Entry `json:"log"`
}

// Prediction converts a successful result into the form kept with a session.
func (r Result) Prediction(at time.Time) *selection.Prediction {
	return &selection.Prediction{
		Subject:  r.Subject,
		Mode:     r.Mode,
		Document: r.Document,
		Buckets:  r.Buckets,
		At:       at,
	}
}

// ServiceConfig holds dependencies for the prediction service.
type ServiceConfig struct {
	Catalog *catalog.Catalog
	Source  documents.Source
}

// Service runs predictions.
type Service struct {
	catalog *catalog.Catalog
	source  documents.Source
}

// NewService creates a prediction service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{catalog: cfg.Catalog, source: cfg.Source}
}

// Catalog returns the catalog the service resolves selections against.
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

// Predict produces the buckets for sel. Errors are selection.ErrNoModeSelected,
// selection.ErrUnknownOption, topics.ErrSubjectNotFound or
// documents.ErrFetchFailed, and the returned Result carries the log either way.
func (s *Service) Predict(ctx context.Context, sel selection.Selection) (Result, error) {
	log := activity.NewLog()
	res := Result{Buckets: topics.Buckets{High: []string{}, Moderate: []string{}, Low: []string{}}, Mode: sel.Mode}
	done := func(err error) (Result, error) {
		res.Log = log.Entries()
		return res, err
	}

	if sel.Mode == "" {
		return done(selection.ErrNoModeSelected)
	}
	mode, ok := s.catalog.Mode(sel.Mode)
	if !ok {
		return done(fmt.Errorf("%w: mode %q", selection.ErrUnknownOption, sel.Mode))
	}
	res.Document = mode.Document

	for _, line := range analyzingLines(s.catalog, sel) {
		log.Info("%s", line)
	}
	log.Info("STATUS: FETCHING TOPICS...")

	subject, ok := s.catalog.Subject(sel.Subject)
	if !ok {
		log.Error("ERROR: SUBJECT %q NOT FOUND IN %s", sel.Subject, strings.ToUpper(mode.Document))
		return done(fmt.Errorf("%w: no subject with id %q", topics.ErrSubjectNotFound, sel.Subject))
	}
	res.Subject = subject.Heading

	doc, err := s.source.Fetch(ctx, mode.Document)
	if err != nil {
		slog.Warn("topic document fetch failed", "document", mode.Document, "error", err)
		log.Error("ERROR LOADING FILE: %v", err)
		return done(err)
	}

	buckets, err := topics.Extract(doc.Text, subject.Heading)
	if err != nil {
		if errors.Is(err, topics.ErrSubjectNotFound) {
			log.Error("ERROR: SUBJECT %q NOT FOUND IN %s", subject.Heading, strings.ToUpper(mode.Document))
			return done(fmt.Errorf("%w: %q in %s", topics.ErrSubjectNotFound, subject.Heading, mode.Document))
		}
		return done(err)
	}

	log.Info("FILE LOADED: %s", strings.ToUpper(mode.Document))
	log.Info("SUBJECT SECTION FOUND: %s", strings.ToUpper(subject.Heading))
	log.Info("STATUS: PARSING TOPICS...")
	res.Buckets = buckets
	log.Info("STATUS: TOPICS LOADED SUCCESSFULLY")

	slog.Info("prediction complete",
		"subject", subject.ID,
		"mode", mode.ID,
		"high", len(buckets.High),
		"moderate", len(buckets.Moderate),
		"low", len(buckets.Low),
	)
	return done(nil)
}

// analyzingLines are the lines logged when the predict button is pressed.
func analyzingLines(cat *catalog.Catalog, sel selection.Selection) []string {
	status := selection.StatusLines(cat, sel)
	university := strings.TrimPrefix(status[0], "SYSTEM: ")
	stream := strings.TrimPrefix(status[1], "STREAM: ")
	return []string{
		"ANALYZING: " + university + " " + stream,
		status[3],
		"MODE: " + strings.ToUpper(sel.Mode),
	}
}
