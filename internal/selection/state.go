// Package selection tracks a visitor's choices on the prediction page and
// gates the predict action on a mode having been chosen.
package selection

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/p-n-ai/pai-predict/internal/activity"
	"github.com/p-n-ai/pai-predict/internal/catalog"
	"github.com/p-n-ai/pai-predict/internal/topics"
)

var (
	// ErrNoModeSelected is returned when predict is attempted before a mode is chosen.
	ErrNoModeSelected = errors.New("no mode selected")
	// ErrPredictInFlight is returned while an earlier prediction is still running.
	ErrPredictInFlight = errors.New("prediction already in progress")
	// ErrUnknownOption is returned for IDs not present in the catalog.
	ErrUnknownOption = errors.New("unknown option")
)

// Selection is the set of choices driving a prediction. Values are catalog IDs.
type Selection struct {
	University string `json:"university"`
	Stream     string `json:"stream"`
	Year       string `json:"year"`
	Subject    string `json:"subject"`
	Mode       string `json:"mode,omitempty"`
}

// Prediction is the last completed result kept with the state.
type Prediction struct {
	Subject  string         `json:"subject"`
	Mode     string         `json:"mode"`
	Document string         `json:"document"`
	Buckets  topics.Buckets `json:"buckets"`
	At       time.Time      `json:"at"`
}

// State is one visitor's selection plus the predict gate and status log.
type State struct {
	ID         string           `json:"id"`
	Selection  Selection        `json:"selection"`
	Predicting bool             `json:"predicting"`
	Log        []activity.Entry `json:"log"`
	Last       *Prediction      `json:"last,omitempty"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// New returns a state holding the catalog defaults and no mode.
func New(cat *catalog.Catalog) State {
	d := cat.Defaults
	return State{
		Selection: Selection{
			University: d.University,
			Stream:     d.Stream,
			Year:       d.Year,
			Subject:    d.Subject,
		},
		Log: []activity.Entry{},
	}
}

// NewWithDefaultMode returns New with the catalog's default mode applied, as
// the page does on load. Without a default mode it equals New.
func NewWithDefaultMode(cat *catalog.Catalog) State {
	st := New(cat)
	if cat.Defaults.Mode != "" {
		// The catalog validated its default mode, so this cannot fail.
		_ = st.SetMode(cat, cat.Defaults.Mode)
	}
	return st
}

// SetUniversity changes the university.
func (s *State) SetUniversity(cat *catalog.Catalog, id string) error {
	if _, ok := cat.University(id); !ok {
		return fmt.Errorf("%w: university %q", ErrUnknownOption, id)
	}
	s.Selection.University = id
	return nil
}

// SetStream changes the stream.
func (s *State) SetStream(cat *catalog.Catalog, id string) error {
	if _, ok := cat.Stream(id); !ok {
		return fmt.Errorf("%w: stream %q", ErrUnknownOption, id)
	}
	s.Selection.Stream = id
	return nil
}

// SetYear changes the year.
func (s *State) SetYear(cat *catalog.Catalog, id string) error {
	if _, ok := cat.Year(id); !ok {
		return fmt.Errorf("%w: year %q", ErrUnknownOption, id)
	}
	s.Selection.Year = id
	return nil
}

// SetSubject changes the subject.
func (s *State) SetSubject(cat *catalog.Catalog, id string) error {
	if _, ok := cat.Subject(id); !ok {
		return fmt.Errorf("%w: subject %q", ErrUnknownOption, id)
	}
	s.Selection.Subject = id
	return nil
}

// SetMode records the chosen mode, unlocks prediction and replaces the log
// with the current selection summary.
func (s *State) SetMode(cat *catalog.Catalog, id string) error {
	mode, ok := cat.Mode(id)
	if !ok {
		return fmt.Errorf("%w: mode %q", ErrUnknownOption, id)
	}
	s.Selection.Mode = id

	log := activity.NewLog()
	for _, line := range StatusLines(cat, s.Selection) {
		log.Info("%s", line)
	}
	log.Info("MODE: %s SELECTED", strings.ToUpper(mode.Title))
	s.Log = log.Entries()
	return nil
}

// PredictEnabled reports whether the predict action is available.
func (s *State) PredictEnabled() bool {
	return s.Selection.Mode != "" && !s.Predicting
}

// BeginPredict takes the predict gate.
func (s *State) BeginPredict() error {
	if s.Selection.Mode == "" {
		return ErrNoModeSelected
	}
	if s.Predicting {
		return ErrPredictInFlight
	}
	s.Predicting = true
	return nil
}

// FinishPredict releases the predict gate and keeps p as the last result
// when it is not nil. The chosen mode stays, so predict remains available.
func (s *State) FinishPredict(p *Prediction) {
	s.Predicting = false
	if p != nil {
		s.Last = p
	}
}

// StatusLines renders the four selection fields the way the page logs them.
// Unknown IDs are shown as-is.
func StatusLines(cat *catalog.Catalog, sel Selection) []string {
	university := sel.University
	if o, ok := cat.University(sel.University); ok {
		university = o.Name
	}
	stream := sel.Stream
	if o, ok := cat.Stream(sel.Stream); ok {
		stream = o.Name
	}
	year := sel.Year
	if o, ok := cat.Year(sel.Year); ok {
		year = o.Name
	}
	subject := sel.Subject
	if s, ok := cat.Subject(sel.Subject); ok {
		subject = s.Name
	}

	return []string{
		"SYSTEM: " + strings.ToUpper(university),
		"STREAM: " + strings.ToUpper(stream),
		"YEAR: " + strings.ToUpper(year),
		"SUBJECT: " + strings.ToUpper(subject),
	}
}
