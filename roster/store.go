package roster

import (
	"sort"
	"sync"
)

// Entry is one roster contact.
type Entry struct {
	Address string
	Nick    string
}

// Store keeps nicknames keyed by address. Contents live only as long as
// the process.
type Store struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewStore returns an empty roster.
func NewStore() *Store {
	return &Store{entries: make(map[string]string)}
}

// SetNick records nick for address, replacing any previous value.
func (s *Store) SetNick(address, nick string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[address] = nick
}

// Nick returns the nickname for address.
func (s *Store) Nick(address string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	nick, ok := s.entries[address]
	return nick, ok
}

// Entries returns all contacts sorted by address.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, 0, len(s.entries))
	for addr, nick := range s.entries {
		out = append(out, Entry{Address: addr, Nick: nick})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Address < out[j].Address
	})
	return out
}
