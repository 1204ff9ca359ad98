// ABOUTME: In-memory conversation history
// ABOUTME: Append-only ordered log with contiguous request/response pairs

package history

import (
	"sync"

	"github.com/omniq-ai/omniq-gateway/models"
)

type entry struct {
	id   uint64
	turn models.Turn
}

// Log records conversation turns in order. It is reset on process restart
// and never persisted. Each request's user/assistant pair stays contiguous
// even when requests interleave: the assistant turn is inserted directly
// after its own user turn.
type Log struct {
	mu      sync.Mutex
	nextID  uint64
	entries []entry
}

func NewLog() *Log {
	return &Log{nextID: 1}
}

// Begin appends the user turn for a query and returns a token for Complete.
func (l *Log) Begin(query string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextID
	l.nextID++
	l.entries = append(l.entries, entry{
		id:   id,
		turn: models.Turn{Role: models.RoleUser, Content: query},
	})
	return id
}

// Complete records the assistant reply for the query identified by id,
// placing it immediately after the matching user turn.
func (l *Log) Complete(id uint64, reply string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	turn := models.Turn{Role: models.RoleAssistant, Content: reply}
	for i := range l.entries {
		if l.entries[i].id == id {
			l.entries = append(l.entries, entry{})
			copy(l.entries[i+2:], l.entries[i+1:])
			l.entries[i+1] = entry{turn: turn}
			return
		}
	}
	// Unknown id; keep the reply rather than dropping it.
	l.entries = append(l.entries, entry{turn: turn})
}

// Snapshot returns a copy of the history in order.
func (l *Log) Snapshot() []models.Turn {
	l.mu.Lock()
	defer l.mu.Unlock()

	turns := make([]models.Turn, len(l.entries))
	for i, e := range l.entries {
		turns[i] = e.turn
	}
	return turns
}

// Len reports the number of recorded turns.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
