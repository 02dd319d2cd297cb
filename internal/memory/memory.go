// Package memory holds per-conversation dialogue history. The store
// keeps a bounded turn buffer per identity and renders the recent
// tail as model context.
package memory

import (
	"strings"
	"sync"
)

// Turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

const (
	// maxTurns bounds the retained buffer per identity. Appending
	// beyond it evicts the oldest turn.
	maxTurns = 10
	// contextTurns is how many recent turns Context renders.
	contextTurns = 5
)

// Turn is one utterance in a conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Store keeps dialogue history keyed by conversation identity.
// Implementations must be safe for concurrent use.
type Store interface {
	// Append pushes a turn onto the identity's buffer, evicting the
	// oldest turn when the buffer is full.
	Append(id, role, content string)
	// Context renders the identity's recent turns as a prompt
	// fragment, or "" when the identity has no history.
	Context(id string) string
	// History returns a copy of the identity's retained buffer.
	History(id string) []Turn
	// Clear discards the identity's history.
	Clear(id string)
}

// InMemoryStore is the process-lifetime Store used in production.
// Identities are never expired; the buffer cap keeps each one small.
type InMemoryStore struct {
	mu    sync.RWMutex
	turns map[string][]Turn
}

// NewInMemoryStore returns an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{turns: make(map[string][]Turn)}
}

// Append implements Store.
func (s *InMemoryStore) Append(id, role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := append(s.turns[id], Turn{Role: role, Content: content})
	if len(buf) > maxTurns {
		buf = buf[len(buf)-maxTurns:]
	}
	s.turns[id] = buf
}

// Context implements Store.
func (s *InMemoryStore) Context(id string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	buf := s.turns[id]
	if len(buf) == 0 {
		return ""
	}
	if len(buf) > contextTurns {
		buf = buf[len(buf)-contextTurns:]
	}

	var sb strings.Builder
	sb.WriteString("\n\nPrevious conversation:\n")
	for _, t := range buf {
		if t.Role == RoleUser {
			sb.WriteString("User: ")
		} else {
			sb.WriteString("Assistant: ")
		}
		sb.WriteString(t.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}

// History implements Store.
func (s *InMemoryStore) History(id string) []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	buf := s.turns[id]
	if len(buf) == 0 {
		return nil
	}
	out := make([]Turn, len(buf))
	copy(out, buf)
	return out
}

// Clear implements Store.
func (s *InMemoryStore) Clear(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.turns, id)
}
