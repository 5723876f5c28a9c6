package activity_test

import (
	"reflect"
	"sync"
	"testing"

	"github.com/p-n-ai/pai-predict/internal/activity"
)

func TestLog_AppendAndRead(t *testing.T) {
	l := activity.NewLog()

	l.Info("SUBJECT: %s", "BUSINESS ETHICS")
	l.Error("ERROR LOADING FILE: %s", "timeout")

	entries := l.Entries()
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].Level != activity.LevelInfo || entries[0].Message != "SUBJECT: BUSINESS ETHICS" {
		t.Errorf("entries[0] = %+v", entries[0])
	}
	if entries[1].Level != activity.LevelError {
		t.Errorf("entries[1].Level = %q, want error", entries[1].Level)
	}
	if entries[0].Time.IsZero() {
		t.Error("Time should be set")
	}
	if entries[0].String() != "> SUBJECT: BUSINESS ETHICS" {
		t.Errorf("String() = %q", entries[0].String())
	}
	if !l.HasErrors() {
		t.Error("HasErrors() = false, want true")
	}
}

func TestLog_EntriesIsACopy(t *testing.T) {
	l := activity.NewLog()
	l.Info("one")

	entries := l.Entries()
	entries[0].Message = "changed"

	if l.Messages()[0] != "one" {
		t.Error("mutating Entries() result changed the log")
	}
}

func TestLog_Reset(t *testing.T) {
	l := activity.NewLog()
	l.Error("bad")
	l.Reset()

	if len(l.Entries()) != 0 {
		t.Errorf("len(entries) = %d after Reset, want 0", len(l.Entries()))
	}
	if l.HasErrors() {
		t.Error("HasErrors() should be false after Reset")
	}
}

func TestFromEntries(t *testing.T) {
	src := activity.NewLog()
	src.Info("a")
	src.Info("b")

	l := activity.FromEntries(src.Entries())
	l.Info("c")

	if got := l.Messages(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("Messages() = %v, want [a b c]", got)
	}
	if got := src.Messages(); len(got) != 2 {
		t.Errorf("source log changed: %v", got)
	}
}

func TestLog_ConcurrentAppend(t *testing.T) {
	l := activity.NewLog()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Info("tick")
		}()
	}
	wg.Wait()

	if n := len(l.Entries()); n != 50 {
		t.Errorf("len(entries) = %d, want 50", n)
	}
}
