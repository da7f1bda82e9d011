package debuglog

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// Log — ограниченный журнал диагностики: кто из источников что вернул и
// почему. Записи дублируются в stderr через стандартный log.
// Nil-приёмник безопасен: запись уходит только в stderr.
type Log struct {
	mu      sync.Mutex
	max     int
	entries []string
}

func New(max int) *Log {
	if max <= 0 {
		max = 200
	}
	return &Log{max: max}
}

// Logf appends a timestamped entry tagged with the component name.
func (l *Log) Logf(tag, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Printf("[%s] %s", tag, msg)
	if l == nil {
		return
	}
	entry := fmt.Sprintf("%s [%s] %s", time.Now().UTC().Format("2006-01-02 15:04:05"), tag, msg)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
	if len(l.entries) > l.max {
		l.entries = l.entries[len(l.entries)-l.max:]
	}
}

// Entries returns a copy of the current trail, oldest first.
func (l *Log) Entries() []string {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Log) Clear() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}
