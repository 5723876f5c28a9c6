package selection_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/p-n-ai/pai-predict/internal/catalog"
	"github.com/p-n-ai/pai-predict/internal/selection"
	"github.com/p-n-ai/pai-predict/internal/topics"
)

func TestNew_DefaultsWithoutMode(t *testing.T) {
	cat := catalog.Default()
	st := selection.New(cat)

	want := selection.Selection{University: "calcutta", Stream: "bba", Year: "1", Subject: "pom"}
	if st.Selection != want {
		t.Errorf("Selection = %+v, want %+v", st.Selection, want)
	}
	if st.PredictEnabled() {
		t.Error("PredictEnabled() should be false before a mode is chosen")
	}
	if len(st.Log) != 0 {
		t.Errorf("Log = %v, want empty", st.Log)
	}
}

func TestNewWithDefaultMode(t *testing.T) {
	st := selection.NewWithDefaultMode(catalog.Default())

	if st.Selection.Mode != "be-decent" {
		t.Errorf("Mode = %q, want be-decent", st.Selection.Mode)
	}
	if !st.PredictEnabled() {
		t.Error("PredictEnabled() should be true after the default mode is applied")
	}
	if len(st.Log) != 5 {
		t.Errorf("len(Log) = %d, want 5", len(st.Log))
	}
}

func TestBeginPredict_NoModeSelected(t *testing.T) {
	st := selection.New(catalog.Default())

	err := st.BeginPredict()
	if !errors.Is(err, selection.ErrNoModeSelected) {
		t.Fatalf("BeginPredict() error = %v, want ErrNoModeSelected", err)
	}
	if st.Predicting {
		t.Error("Predicting should stay false after a refused predict")
	}
}

func TestSetMode_UnlocksPredict(t *testing.T) {
	cat := catalog.Default()
	st := selection.New(cat)

	if err := st.SetMode(cat, "just-pass"); err != nil {
		t.Fatalf("SetMode() error = %v", err)
	}
	if !st.PredictEnabled() {
		t.Fatal("PredictEnabled() should be true after SetMode")
	}

	var got []string
	for _, e := range st.Log {
		got = append(got, e.Message)
	}
	want := []string{
		"SYSTEM: UNIVERSITY OF CALCUTTA",
		"STREAM: BBA",
		"YEAR: 1ST YEAR",
		"SUBJECT: PRINCIPLES OF MANAGEMENT & OB",
		"MODE: JUST PASS SELECTED",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Log = %q, want %q", got, want)
	}
}

func TestSetMode_ReplacesLog(t *testing.T) {
	cat := catalog.Default()
	st := selection.New(cat)

	_ = st.SetMode(cat, "just-pass")
	_ = st.SetMode(cat, "be-decent")

	if len(st.Log) != 5 {
		t.Fatalf("len(Log) = %d, want 5 (log is re-rendered, not appended)", len(st.Log))
	}
	if last := st.Log[4].Message; last != "MODE: BE DECENT SELECTED" {
		t.Errorf("last line = %q, want MODE: BE DECENT SELECTED", last)
	}
}

func TestSetMode_Unknown(t *testing.T) {
	cat := catalog.Default()
	st := selection.New(cat)

	err := st.SetMode(cat, "ace-it")
	if !errors.Is(err, selection.ErrUnknownOption) {
		t.Fatalf("SetMode() error = %v, want ErrUnknownOption", err)
	}
	if st.Selection.Mode != "" || st.PredictEnabled() {
		t.Error("unknown mode must not unlock predict")
	}
}

func TestPredict_AvailableAcrossRepeatedPredictions(t *testing.T) {
	cat := catalog.Default()
	st := selection.New(cat)
	_ = st.SetMode(cat, "be-decent")

	for i := 0; i < 3; i++ {
		if err := st.BeginPredict(); err != nil {
			t.Fatalf("BeginPredict() #%d error = %v", i, err)
		}
		if st.PredictEnabled() {
			t.Fatalf("PredictEnabled() #%d should be false while predicting", i)
		}
		if err := st.BeginPredict(); !errors.Is(err, selection.ErrPredictInFlight) {
			t.Fatalf("second BeginPredict() #%d error = %v, want ErrPredictInFlight", i, err)
		}
		st.FinishPredict(nil)
		if !st.PredictEnabled() {
			t.Fatalf("PredictEnabled() #%d should be true after FinishPredict", i)
		}
	}
}

func TestFinishPredict_KeepsLastResult(t *testing.T) {
	cat := catalog.Default()
	st := selection.NewWithDefaultMode(cat)
	_ = st.BeginPredict()

	p := &selection.Prediction{
		Subject:  "Business Ethics",
		Mode:     "be-decent",
		Document: "decent.txt",
		Buckets:  topics.Buckets{High: []string{"A"}},
	}
	st.FinishPredict(p)
	if st.Last != p {
		t.Error("FinishPredict should keep the prediction")
	}

	_ = st.BeginPredict()
	st.FinishPredict(nil)
	if st.Last != p {
		t.Error("FinishPredict(nil) should keep the previous prediction")
	}
}

func TestSetters(t *testing.T) {
	cat, err := catalog.Parse([]byte(`universities:
  - id: calcutta
    name: University of Calcutta
  - id: mumbai
    name: University of Mumbai
streams:
  - id: bba
    name: BBA
  - id: bcom
    name: B.Com
years:
  - id: "1"
    name: 1st Year
  - id: "2"
    name: 2nd Year
subjects:
  - id: pom
    name: POM
    heading: Principles of Management
  - id: ethics
    name: Ethics
    heading: Business Ethics
modes:
  - id: just-pass
    title: Just Pass
    document: pass.txt
defaults:
  university: calcutta
  stream: bba
  year: "1"
  subject: pom
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	st := selection.New(cat)
	tests := []struct {
		name  string
		set   func(string) error
		good  string
		bad   string
		check func() string
	}{
		{"university", func(id string) error { return st.SetUniversity(cat, id) }, "mumbai", "oxford", func() string { return st.Selection.University }},
		{"stream", func(id string) error { return st.SetStream(cat, id) }, "bcom", "mba", func() string { return st.Selection.Stream }},
		{"year", func(id string) error { return st.SetYear(cat, id) }, "2", "5", func() string { return st.Selection.Year }},
		{"subject", func(id string) error { return st.SetSubject(cat, id) }, "ethics", "law", func() string { return st.Selection.Subject }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.set(tt.good); err != nil {
				t.Fatalf("set(%q) error = %v", tt.good, err)
			}
			if got := tt.check(); got != tt.good {
				t.Errorf("value = %q, want %q", got, tt.good)
			}
			if err := tt.set(tt.bad); !errors.Is(err, selection.ErrUnknownOption) {
				t.Errorf("set(%q) error = %v, want ErrUnknownOption", tt.bad, err)
			}
			if got := tt.check(); got != tt.good {
				t.Errorf("value after bad set = %q, want unchanged %q", got, tt.good)
			}
		})
	}
}

func TestStatusLines_UnknownIDsShownRaw(t *testing.T) {
	lines := selection.StatusLines(catalog.Default(), selection.Selection{
		University: "x", Stream: "y", Year: "z", Subject: "w",
	})
	want := []string{"SYSTEM: X", "STREAM: Y", "YEAR: Z", "SUBJECT: W"}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("StatusLines() = %q, want %q", lines, want)
	}
}
