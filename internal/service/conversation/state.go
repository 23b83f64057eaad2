package conversation

import (
	"sync"

	"github.com/sandevgo/piichat/internal/core"
)

// DefaultPreamble seeds every conversation. It is sent to the model but never
// shown in the transcript.
var DefaultPreamble = []core.Turn{
	{Role: core.RoleUser, Content: "You are an assistant."},
	{Role: core.RoleAssistant, Content: "OK"},
}

// State is the ordered turn log of one conversation. Turns are only ever
// appended; Reset and Rollback are the only ways to shorten it.
type State struct {
	mu       sync.RWMutex
	preamble []core.Turn
	turns    []core.Turn
}

// NewState returns a state seeded with a copy of preamble, or with
// DefaultPreamble when preamble is nil.
func NewState(preamble []core.Turn) *State {
	if preamble == nil {
		preamble = DefaultPreamble
	}
	s := &State{preamble: cloneTurns(preamble)}
	s.turns = cloneTurns(s.preamble)
	return s
}

func (s *State) Append(role core.Role, content string) core.Turn {
	turn := core.Turn{Role: role, Content: content}

	s.mu.Lock()
	s.turns = append(s.turns, turn)
	s.mu.Unlock()

	return turn
}

// Reset drops every turn after the preamble.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = cloneTurns(s.preamble)
}

// Rollback truncates the log back to n turns. It never cuts into the preamble.
func (s *State) Rollback(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n < len(s.preamble) {
		n = len(s.preamble)
	}
	if n < len(s.turns) {
		s.turns = s.turns[:n:n]
	}
}

// Turns returns a copy of the full log, preamble included.
func (s *State) Turns() []core.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTurns(s.turns)
}

func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

func (s *State) Preamble() []core.Turn {
	return cloneTurns(s.preamble)
}

// VisibleTranscript pairs the turns after the preamble into exchanges. An
// unpaired trailing turn is left out.
func (s *State) VisibleTranscript() []core.Exchange {
	s.mu.RLock()
	defer s.mu.RUnlock()

	visible := s.turns[len(s.preamble):]
	exchanges := make([]core.Exchange, 0, len(visible)/2)
	for i := 0; i+1 < len(visible); i += 2 {
		exchanges = append(exchanges, core.Exchange{
			User:      visible[i].Content,
			Assistant: visible[i+1].Content,
		})
	}
	return exchanges
}

func cloneTurns(turns []core.Turn) []core.Turn {
	out := make([]core.Turn, len(turns))
	copy(out, turns)
	return out
}
