package debuglog

import (
	"strings"
	"testing"
)

func TestLogfAndEntries(t *testing.T) {
	l := New(10)
	l.Logf("eventbrite", "fetched %d events", 3)
	l.Logf("cache", "write failed: %v", "boom")

	entries := l.Entries()
	if len(entries) != 2 {
		t.Fatalf("got %d entries", len(entries))
	}
	if !strings.Contains(entries[0], "[eventbrite] fetched 3 events") {
		t.Fatalf("entry = %q", entries[0])
	}

	l.Clear()
	if len(l.Entries()) != 0 {
		t.Fatal("not cleared")
	}
}

func TestBounded(t *testing.T) {
	l := New(3)
	for i := 0; i < 10; i++ {
		l.Logf("t", "entry %d", i)
	}
	entries := l.Entries()
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if !strings.HasSuffix(entries[2], "entry 9") {
		t.Fatalf("last entry = %q", entries[2])
	}
}

func TestNilLogIsSafe(t *testing.T) {
	var l *Log
	l.Logf("tag", "message")
	if l.Entries() != nil {
		t.Fatal("nil log returned entries")
	}
	l.Clear()
}
