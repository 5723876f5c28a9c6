// Package topics parses topic documents into probability buckets.
//
// A topic document is a flat list of numbered sections:
//
//	1. Business Ethics
//	High Probability
//	- Corporate governance
//	Moderate Probability
//	- Whistleblowing
//	Low Probability
//	- Ethical theories
//	2. Business Communication
//	...
//
// Extract locates the section for one subject and splits it into three buckets.
package topics

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// ErrSubjectNotFound is returned when no numbered heading names the subject.
var ErrSubjectNotFound = errors.New("subject not found")

// Tier identifies a probability bucket.
type Tier int

const (
	TierNone Tier = iota // before the first label
	TierHigh
	TierModerate
	TierLow
)

func (t Tier) String() string {
	switch t {
	case TierHigh:
		return "high"
	case TierModerate:
		return "moderate"
	case TierLow:
		return "low"
	default:
		return "none"
	}
}

// Label returns the marker text that opens the tier in a document.
func (t Tier) Label() string {
	switch t {
	case TierHigh:
		return "High Probability"
	case TierModerate:
		return "Moderate Probability"
	case TierLow:
		return "Low Probability"
	default:
		return ""
	}
}

// Tiers lists the buckets in reporting order.
var Tiers = []Tier{TierHigh, TierModerate, TierLow}

// Buckets holds the topics of one subject section, ordered as in the document.
type Buckets struct {
	High     []string `json:"high"`
	Moderate []string `json:"moderate"`
	Low      []string `json:"low"`
}

// Get returns the topics of a tier.
func (b Buckets) Get(t Tier) []string {
	switch t {
	case TierHigh:
		return b.High
	case TierModerate:
		return b.Moderate
	case TierLow:
		return b.Low
	default:
		return nil
	}
}

// Len returns the total number of topics across tiers.
func (b Buckets) Len() int {
	return len(b.High) + len(b.Moderate) + len(b.Low)
}

func (b *Buckets) add(t Tier, topic string) {
	switch t {
	case TierHigh:
		b.High = append(b.High, topic)
	case TierModerate:
		b.Moderate = append(b.Moderate, topic)
	case TierLow:
		b.Low = append(b.Low, topic)
	}
}

// Extract finds the section headed "<n>. <subject>" in text and returns its
// topics grouped by tier. Matching of the heading and the tier labels is
// case-insensitive. A tier whose label is missing is returned empty.
func Extract(text, subject string) (Buckets, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return Buckets{}, ErrSubjectNotFound
	}

	fold := cases.Fold()
	want := fold.String(subject)

	var (
		found   bool
		current = TierNone
		out     = Buckets{High: []string{}, Moderate: []string{}, Low: []string{}}
	)

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")

		if title, ok := headingTitle(line); ok {
			if found {
				break
			}
			if titleMatches(fold.String(title), want) {
				found = true
			}
			continue
		}
		if !found {
			continue
		}

		if t, rest, ok := nextLabel(line, current); ok {
			current = t
			if topic := labelRemainder(rest); topic != "" {
				out.add(current, topic)
			}
			continue
		}
		if current == TierNone {
			continue
		}
		if topic := cleanTopic(line); topic != "" {
			out.add(current, topic)
		}
	}

	if !found {
		return Buckets{}, ErrSubjectNotFound
	}
	return out, nil
}

// headingTitle reports whether line is a numbered heading ("12. Title") and
// returns the title with surrounding whitespace removed.
func headingTitle(line string) (string, bool) {
	line = strings.TrimPrefix(line, "\ufeff")
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(line) || line[i] != '.' {
		return "", false
	}
	return strings.TrimSpace(line[i+1:]), true
}

// titleMatches accepts the subject as the whole title or as a prefix that ends
// on a word boundary, so "Business Ethics (Paper II)" still matches.
func titleMatches(title, want string) bool {
	if !strings.HasPrefix(title, want) {
		return false
	}
	rest := title[len(want):]
	if rest == "" {
		return true
	}
	r, _ := utf8.DecodeRuneInString(rest)
	return !isWordRune(r)
}

// nextLabel finds the earliest label in line for a tier after current and
// returns that tier with the text following the label. Labels of the current
// or an earlier tier are ordinary topic text.
func nextLabel(line string, current Tier) (Tier, string, bool) {
	best, bestAt, bestEnd := TierNone, -1, 0
	for _, t := range Tiers {
		if t <= current {
			continue
		}
		if at, end := indexFold(line, t.Label()); at >= 0 && (bestAt < 0 || at < bestAt) {
			best, bestAt, bestEnd = t, at, end
		}
	}
	if bestAt < 0 {
		return TierNone, "", false
	}
	return best, line[bestEnd:], true
}

// indexFold is a case-insensitive strings.Index that also returns the end of
// the match in s.
func indexFold(s, substr string) (int, int) {
	n := utf8.RuneCountInString(substr)
	for i := range s {
		j, k := i, 0
		for ; k < n && j < len(s); k++ {
			_, size := utf8.DecodeRuneInString(s[j:])
			j += size
		}
		if k < n {
			break
		}
		if strings.EqualFold(s[i:j], substr) {
			return i, j
		}
	}
	return -1, -1
}

// labelRemainder turns the text after a label ("High Probability: Topic X")
// into a topic. Punctuation and a bare "Topics" qualifier yield nothing.
func labelRemainder(rest string) string {
	rest = strings.TrimLeftFunc(rest, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
	topic := cleanTopic(rest)
	if !strings.ContainsFunc(topic, isWordRune) {
		return ""
	}
	switch strings.ToLower(strings.TrimRightFunc(topic, unicode.IsPunct)) {
	case "topic", "topics":
		return ""
	}
	return topic
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func cleanTopic(line string) string {
	line = strings.TrimSpace(line)
	if line == "-" {
		return ""
	}
	line = strings.TrimPrefix(line, "- ")
	return strings.TrimSpace(line)
}
