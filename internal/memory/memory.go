// Package memory holds the conversation history injected into every
// generation call.
package memory

import (
	"sync"

	"yelly/internal/domain"
)

// DefaultMaxTurns bounds prompt size; the oldest turns are discarded
// first once the cap is exceeded.
const DefaultMaxTurns = 20

// Memory is an ordered, capped sequence of conversation turns.
// Append-only during a session; cleared explicitly or when a new video
// is loaded.
type Memory struct {
	mu       sync.Mutex
	maxTurns int
	turns    []domain.Turn
}

func New(maxTurns int) *Memory {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &Memory{maxTurns: maxTurns}
}

// AddUser appends a user turn.
func (m *Memory) AddUser(content string) {
	m.append(domain.Turn{Role: domain.RoleUser, Content: content})
}

// AddAssistant appends an assistant turn.
func (m *Memory) AddAssistant(content string) {
	m.append(domain.Turn{Role: domain.RoleAssistant, Content: content})
}

func (m *Memory) append(t domain.Turn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, t)
	if len(m.turns) > m.maxTurns {
		m.turns = m.turns[len(m.turns)-m.maxTurns:]
	}
}

// Turns returns a copy of the retained history, oldest first.
func (m *Memory) Turns() []domain.Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Turn, len(m.turns))
	copy(out, m.turns)
	return out
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.turns)
}

// Clear discards all retained turns.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = nil
}
