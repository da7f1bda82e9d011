package cache

import (
	"context"
	"encoding/json"
	"log"
	"sort"
	"sync"
	"time"

	"event-hub/internal/model"
)

// Memory — реализация Store в памяти: для запуска без базы и для тестов.
// Семантика та же, что у Postgres: last-writer-wins по ключу, чтение
// фильтрует протухшие записи, удаляет их только Purge*.
type Memory struct {
	mu    sync.Mutex
	now   func() time.Time
	seq   int64
	items map[string]memEntry // event key → entry
}

type memEntry struct {
	data      []byte
	location  string
	cachedAt  time.Time
	expiresAt time.Time
	seq       int64
}

func NewMemory() *Memory {
	return &Memory{
		now:   time.Now,
		items: make(map[string]memEntry),
	}
}

func (s *Memory) Put(_ context.Context, events []model.Event, locationTag string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for _, e := range events {
		data, err := json.Marshal(e)
		if err != nil {
			return err
		}
		s.seq++
		s.items[e.Key()] = memEntry{
			data:      data,
			location:  locationTag,
			cachedAt:  now,
			expiresAt: now.Add(ttl),
			seq:       s.seq,
		}
	}
	return nil
}

func (s *Memory) Get(_ context.Context, locationTag string) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()

	var live []memEntry
	for _, en := range s.items {
		if en.location == locationTag && en.expiresAt.After(now) {
			live = append(live, en)
		}
	}
	// Свежезакэшированные первыми
	sort.Slice(live, func(i, j int) bool {
		if !live[i].cachedAt.Equal(live[j].cachedAt) {
			return live[i].cachedAt.After(live[j].cachedAt)
		}
		return live[i].seq > live[j].seq
	})

	events := make([]model.Event, 0, len(live))
	for _, en := range live {
		var e model.Event
		if err := json.Unmarshal(en.data, &e); err != nil {
			log.Printf("[cache] skipping corrupt entry: %v", err)
			continue
		}
		events = append(events, e)
	}
	return events, nil
}

func (s *Memory) PurgeAll(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.items))
	s.items = make(map[string]memEntry)
	return n, nil
}

func (s *Memory) PurgeExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	var n int64
	for k, en := range s.items {
		if !en.expiresAt.After(now) {
			delete(s.items, k)
			n++
		}
	}
	return n, nil
}
