package predict_test

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/p-n-ai/pai-predict/internal/activity"
	"github.com/p-n-ai/pai-predict/internal/catalog"
	"github.com/p-n-ai/pai-predict/internal/documents"
	"github.com/p-n-ai/pai-predict/internal/predict"
	"github.com/p-n-ai/pai-predict/internal/selection"
	"github.com/p-n-ai/pai-predict/internal/topics"
)

const decentText = `1. Principles of Management & Organizational Behavior
High Probability
- Planning process
Moderate Probability
- Motivation theories
Low Probability
- Span of control

2. Business Ethics
High Probability
- Topic A
Moderate Probability
- Topic B
Low Probability
- Topic C
3. Next Subject
High Probability
- Not this
`

func newService(files fstest.MapFS) *predict.Service {
	return predict.NewService(predict.ServiceConfig{
		Catalog: catalog.Default(),
		Source:  documents.NewDirSource(files),
	})
}

func messages(res predict.Result) []string {
	out := make([]string, 0, len(res.Log))
	for _, e := range res.Log {
		out = append(out, e.Message)
	}
	return out
}

func TestPredict_Success(t *testing.T) {
	svc := newService(fstest.MapFS{"decent.txt": {Data: []byte(decentText)}})
	sel := selection.Selection{University: "calcutta", Stream: "bba", Year: "1", Subject: "ethics", Mode: "be-decent"}

	res, err := svc.Predict(context.Background(), sel)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}

	want := topics.Buckets{High: []string{"Topic A"}, Moderate: []string{"Topic B"}, Low: []string{"Topic C"}}
	if !reflect.DeepEqual(res.Buckets, want) {
		t.Errorf("Buckets = %+v, want %+v", res.Buckets, want)
	}
	if res.Document != "decent.txt" || res.Subject != "Business Ethics" || res.Mode != "be-decent" {
		t.Errorf("Result = %+v", res)
	}

	wantLog := []string{
		"ANALYZING: UNIVERSITY OF CALCUTTA BBA",
		"SUBJECT: BUSINESS ETHICS",
		"MODE: BE-DECENT",
		"STATUS: FETCHING TOPICS...",
		"FILE LOADED: DECENT.TXT",
		"SUBJECT SECTION FOUND: BUSINESS ETHICS",
		"STATUS: PARSING TOPICS...",
		"STATUS: TOPICS LOADED SUCCESSFULLY",
	}
	if got := messages(res); !reflect.DeepEqual(got, wantLog) {
		t.Errorf("Log = %q\nwant %q", got, wantLog)
	}
}

func TestPredict_SubjectWithSpecialCharacters(t *testing.T) {
	svc := newService(fstest.MapFS{"decent.txt": {Data: []byte(decentText)}})
	sel := selection.Selection{University: "calcutta", Stream: "bba", Year: "1", Subject: "pom", Mode: "be-decent"}

	res, err := svc.Predict(context.Background(), sel)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if !reflect.DeepEqual(res.Buckets.High, []string{"Planning process"}) {
		t.Errorf("High = %q", res.Buckets.High)
	}
}

func TestPredict_Errors(t *testing.T) {
	files := fstest.MapFS{"decent.txt": {Data: []byte(decentText)}}
	base := selection.Selection{University: "calcutta", Stream: "bba", Year: "1", Subject: "ethics"}

	tests := []struct {
		name    string
		mutate  func(*selection.Selection)
		wantErr error
		lastLog string
	}{
		{
			name:    "no mode",
			mutate:  func(*selection.Selection) {},
			wantErr: selection.ErrNoModeSelected,
		},
		{
			name:    "unknown mode",
			mutate:  func(s *selection.Selection) { s.Mode = "ace-it" },
			wantErr: selection.ErrUnknownOption,
		},
		{
			name:    "document missing",
			mutate:  func(s *selection.Selection) { s.Mode = "just-pass" },
			wantErr: documents.ErrFetchFailed,
		},
		{
			name:    "subject not in document",
			mutate:  func(s *selection.Selection) { s.Mode = "be-decent"; s.Subject = "finance" },
			wantErr: topics.ErrSubjectNotFound,
			lastLog: `ERROR: SUBJECT "Financial Institutions & Markets" NOT FOUND IN DECENT.TXT`,
		},
		{
			name:    "subject not in catalog",
			mutate:  func(s *selection.Selection) { s.Mode = "be-decent"; s.Subject = "law" },
			wantErr: topics.ErrSubjectNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := base
			tt.mutate(&sel)

			res, err := newService(files).Predict(context.Background(), sel)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Predict() error = %v, want %v", err, tt.wantErr)
			}
			if res.Buckets.High == nil || res.Buckets.Moderate == nil || res.Buckets.Low == nil {
				t.Error("buckets should be empty, not nil, on failure")
			}
			if n := len(res.Buckets.High) + len(res.Buckets.Moderate) + len(res.Buckets.Low); n != 0 {
				t.Errorf("got %d topics on failure, want 0", n)
			}
			if tt.lastLog != "" {
				msgs := messages(res)
				if len(msgs) == 0 || msgs[len(msgs)-1] != tt.lastLog {
					t.Errorf("last log = %q, want %q", msgs, tt.lastLog)
				}
				if res.Log[len(res.Log)-1].Level != activity.LevelError {
					t.Error("failure line should be an error entry")
				}
			}
		})
	}
}

func TestPredict_FetchFailureLogged(t *testing.T) {
	svc := newService(fstest.MapFS{})
	sel := selection.Selection{University: "calcutta", Stream: "bba", Year: "1", Subject: "ethics", Mode: "just-pass"}

	res, _ := svc.Predict(context.Background(), sel)
	msgs := messages(res)
	if len(msgs) != 5 {
		t.Fatalf("Log = %q, want 4 progress lines and 1 error", msgs)
	}
	if got := msgs[4]; !strings.HasPrefix(got, "ERROR LOADING FILE: ") {
		t.Errorf("last line = %q, want ERROR LOADING FILE prefix", got)
	}
}

func TestPredict_Idempotent(t *testing.T) {
	svc := newService(fstest.MapFS{"decent.txt": {Data: []byte(decentText)}})
	sel := selection.Selection{University: "calcutta", Stream: "bba", Year: "1", Subject: "ethics", Mode: "be-decent"}

	first, _ := svc.Predict(context.Background(), sel)
	second, _ := svc.Predict(context.Background(), sel)
	if !reflect.DeepEqual(first.Buckets, second.Buckets) {
		t.Errorf("repeated predictions differ: %+v vs %+v", first.Buckets, second.Buckets)
	}
}

func TestResult_Prediction(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	res := predict.Result{
		Buckets:  topics.Buckets{High: []string{"A"}},
		Document: "pass.txt",
		Subject:  "Business Ethics",
		Mode:     "just-pass",
	}
	p := res.Prediction(at)
	if p.Subject != res.Subject || p.Document != res.Document || p.Mode != res.Mode || !p.At.Equal(at) {
		t.Errorf("Prediction() = %+v", p)
	}
}
