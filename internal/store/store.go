package store

import (
	"sync"

	"go.uber.org/zap"

	"github.com/lojhan/hashtable/internal/hashtable"
)

type Stats struct {
	Keys       int
	Buckets    int
	LoadFactor float64
}

// Store is the keyspace shared by every connection. The underlying table is
// single-owner, so every access goes through mu.
type Store struct {
	mu     sync.Mutex
	data   *hashtable.Table[string, string, hashtable.StringHasher]
	logger *zap.Logger
}

func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		data:   hashtable.New[string, string, hashtable.StringHasher](),
		logger: logger,
	}
}

func (s *Store) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	defer s.observeResize(s.data.Cap())
	s.data.Insert(key, value)
}

// SetNX stores value only if key does not exist yet.
func (s *Store) SetNX(key, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	defer s.observeResize(s.data.Cap())
	return s.data.WeakInsert(key, value)
}

// SetXX overwrites the value of an existing key and never creates one.
func (s *Store) SetXX(key, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.data.Contains(key) {
		return false
	}
	s.data.Insert(key, value)
	return true
}

func (s *Store) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.data.Get(key)
}

// Delete removes the given keys and returns how many existed.
func (s *Store) Delete(keys ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	defer s.observeResize(s.data.Cap())
	deleted := 0
	for _, key := range keys {
		if s.data.Remove(key) {
			deleted++
		}
	}
	return deleted
}

// Exists counts how many of the given keys are present. Repeated keys are
// counted each time.
func (s *Store) Exists(keys ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, key := range keys {
		if s.data.Contains(key) {
			count++
		}
	}
	return count
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.data.Len()
}

func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		Keys:       s.data.Len(),
		Buckets:    s.data.Cap(),
		LoadFactor: s.data.LoadFactor(),
	}
}

func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.data.Keys()
}

func (s *Store) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info("flushing keyspace", zap.Int("keys", s.data.Len()))
	s.data.Clear()
}

func (s *Store) observeResize(before int) {
	if after := s.data.Cap(); after != before {
		s.logger.Debug("keyspace rehashed",
			zap.Int("from_buckets", before),
			zap.Int("to_buckets", after),
			zap.Int("keys", s.data.Len()),
		)
	}
}
