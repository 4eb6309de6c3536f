package conversation

import (
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/Qairow13/InstGPT/internal/model/conversation"
)

// DefaultCapacity is the number of turns kept per user.
const DefaultCapacity = 10

var (
	ErrUserRequired = errors.New("user id is required")
	ErrInvalidRole  = errors.New("invalid turn role")
)

// Store keeps the most recent turns of every user in memory. Users are never
// forgotten; only each user's own history is trimmed.
type Store struct {
	mu       sync.RWMutex
	capacity int
	turns    map[string][]conversation.Turn
}

// NewStore builds an empty store. A non-positive capacity falls back to
// DefaultCapacity.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		capacity: capacity,
		turns:    make(map[string][]conversation.Turn),
	}
}

// Capacity returns the per-user turn limit.
func (s *Store) Capacity() int {
	return s.capacity
}

// Append records a turn for userID, dropping the oldest turns once the
// conversation exceeds the store capacity.
func (s *Store) Append(userID string, role conversation.Role, content string) (conversation.Turn, error) {
	if userID == "" {
		return conversation.Turn{}, ErrUserRequired
	}
	if !role.Valid() {
		return conversation.Turn{}, ErrInvalidRole
	}

	turn := conversation.Turn{
		ID:      uuid.NewString(),
		Role:    role,
		Content: content,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	turns := append(s.turns[userID], turn)
	if overflow := len(turns) - s.capacity; overflow > 0 {
		// copy into a fresh slice so the evicted prefix can be collected
		trimmed := make([]conversation.Turn, s.capacity, s.capacity+1)
		copy(trimmed, turns[overflow:])
		turns = trimmed
	}
	s.turns[userID] = turns
	return turn, nil
}

// History returns a copy of the stored turns for userID, oldest first. Unknown
// users yield an empty slice and are not registered.
func (s *Store) History(userID string) []conversation.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.turns[userID]
	copied := make([]conversation.Turn, len(turns))
	copy(copied, turns)
	return copied
}

// Len returns the number of turns held for userID.
func (s *Store) Len(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns[userID])
}

// Users lists the user ids that have at least one turn, sorted.
func (s *Store) Users() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.turns))
	for id := range s.turns {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	sort.Strings(ids)
	return ids
}
