package logbook

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestTailReturnsRecentLinesAndTotal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "activity.log")
	book, err := New(path)
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	for i := 0; i < 5; i++ {
		book.Info("entry-%d", i)
	}
	lines, total := book.Tail(3)
	if total != 5 {
		t.Fatalf("total lines = %d, want 5", total)
	}
	if len(lines) != 3 {
		t.Fatalf("len(lines) = %d, want 3", len(lines))
	}
	for idx, want := range []string{"entry-2", "entry-3", "entry-4"} {
		if !strings.Contains(lines[idx], want) {
			t.Fatalf("line %d = %q, missing %s", idx, lines[idx], want)
		}
	}
}

func TestAppendFoldsMultilineMessages(t *testing.T) {
	fixed := time.Date(2026, 10, 14, 9, 30, 0, 0, time.Local)
	book, err := New(filepath.Join(t.TempDir(), "activity.log"), WithClock(func() time.Time { return fixed }))
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	book.Error("Error Sending Reminder ·\nCould not send\tthe reminder.")
	lines, total := book.Tail(10)
	if total != 1 || len(lines) != 1 {
		t.Fatalf("expected a single entry, got %d (%v)", total, lines)
	}
	want := "2026-10-14 09:30:00 ERROR Error Sending Reminder · Could not send the reminder."
	if lines[0] != want {
		t.Fatalf("line = %q, want %q", lines[0], want)
	}
}

func TestTailOnMissingFile(t *testing.T) {
	book, err := New(filepath.Join(t.TempDir(), "nested", "activity.log"))
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	lines, total := book.Tail(4)
	if lines != nil || total != 0 {
		t.Fatalf("expected empty tail, got %v/%d", lines, total)
	}
	var nilBook *Logbook
	nilBook.Info("ignored")
	if got := nilBook.Path(); got != "" {
		t.Fatalf("nil logbook path = %q", got)
	}
}
