package conversation

import (
	"sync"

	"frontdesk/internal/domain"
)

// DefaultHistoryLimit is the number of recent turns fed to the reply generator.
const DefaultHistoryLimit = 10

// Store keeps each sender's conversation in insertion order for the process lifetime.
// There is no eviction.
type Store struct {
	mu    sync.RWMutex
	turns map[string][]domain.Turn
}

func NewStore() *Store {
	return &Store{turns: make(map[string][]domain.Turn)}
}

// Append adds a turn at the end of sender's conversation, creating it if absent.
func (s *Store) Append(sender string, role domain.Role, text string) {
	s.mu.Lock()
	s.turns[sender] = append(s.turns[sender], domain.Turn{Role: role, Text: text})
	s.mu.Unlock()
}

// RecentHistory returns up to limit of the most recent turns, oldest first.
// A non-positive limit means DefaultHistoryLimit. The result is a copy.
func (s *Store) RecentHistory(sender string, limit int) []domain.Turn {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.turns[sender]
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	out := make([]domain.Turn, len(all))
	copy(out, all)
	return out
}

// Len reports how many turns are stored for sender.
func (s *Store) Len(sender string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns[sender])
}
