package daemon

import (
	"sync"

	"github.com/carlosrabelo/cscc/domain/entities"
)

// Store holds the latest raw dump of every collected switch
type Store struct {
	mu    sync.RWMutex
	dumps map[string]entities.RawSwitchDump
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{dumps: make(map[string]entities.RawSwitchDump)}
}

// Put replaces the dump of one switch
func (s *Store) Put(switchIP string, dump entities.RawSwitchDump) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dumps[switchIP] = dump
}

// Get returns the dump of one switch
func (s *Store) Get(switchIP string) (entities.RawSwitchDump, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dump, ok := s.dumps[switchIP]
	return dump, ok
}

// Snapshot returns a document of every stored switch. Dumps are never mutated after
// Put, so the document can be encoded without holding the lock.
func (s *Store) Snapshot() entities.RawDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc := make(entities.RawDocument, len(s.dumps))
	for ip, dump := range s.dumps {
		doc[ip] = dump
	}
	return doc
}

// Len returns the number of stored switches
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.dumps)
}
