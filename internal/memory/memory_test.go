package memory

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yelly/internal/domain"
)

func TestMemory_OrderAndRoles(t *testing.T) {
	m := New(10)
	m.AddUser("hi")
	m.AddAssistant("hello!")

	turns := m.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, domain.Turn{Role: domain.RoleUser, Content: "hi"}, turns[0])
	assert.Equal(t, domain.Turn{Role: domain.RoleAssistant, Content: "hello!"}, turns[1])
}

func TestMemory_DropsOldestBeyondCap(t *testing.T) {
	m := New(20)
	for i := 0; i < 25; i++ {
		m.AddUser(strconv.Itoa(i))
	}

	require.Equal(t, 20, m.Len())
	turns := m.Turns()
	assert.Equal(t, "5", turns[0].Content)
	assert.Equal(t, "24", turns[len(turns)-1].Content)
}

func TestMemory_ZeroCapUsesDefault(t *testing.T) {
	m := New(0)
	for i := 0; i < DefaultMaxTurns+5; i++ {
		m.AddUser("x")
	}
	assert.Equal(t, DefaultMaxTurns, m.Len())
}

func TestMemory_TurnsReturnsCopy(t *testing.T) {
	m := New(10)
	m.AddUser("original")

	turns := m.Turns()
	turns[0].Content = "mutated"
	assert.Equal(t, "original", m.Turns()[0].Content)
}

func TestMemory_Clear(t *testing.T) {
	m := New(10)
	m.AddUser("hi")
	m.AddAssistant("hello")
	m.Clear()
	assert.Equal(t, 0, m.Len())
	assert.Empty(t, m.Turns())
}
