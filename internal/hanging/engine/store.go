// Package engine orchestrates hanging-protocol matching: the stage
// navigation state machine, the protocol library with best-match selection,
// and the engine that publishes viewport assignments to subscribers.
package engine

import "github.com/mrsinham/hangforge/internal/hanging"

// StageStore holds the active protocol's stage list and the current stage
// index. Navigation is bounded: stepping past either end is a no-op reported
// through the boolean queries, never an error.
type StageStore struct {
	protocol *hanging.Protocol
	index    int
}

// SetProtocol replaces the active protocol and resets the stage index to 0.
func (s *StageStore) SetProtocol(p *hanging.Protocol) {
	s.protocol = p
	s.index = 0
}

// Current returns the active stage model, or nil when no protocol is set.
func (s *StageStore) Current() *hanging.Stage {
	if s.protocol == nil || s.index >= len(s.protocol.Stages) {
		return nil
	}
	return s.protocol.Stages[s.index]
}

// Index returns the active stage index.
func (s *StageStore) Index() int { return s.index }

// NumStages returns the number of stages in the active protocol.
func (s *StageStore) NumStages() int {
	if s.protocol == nil {
		return 0
	}
	return len(s.protocol.Stages)
}

// HasNext reports whether a later stage exists.
func (s *StageStore) HasNext() bool {
	return s.protocol != nil && s.index < len(s.protocol.Stages)-1
}

// HasPrevious reports whether an earlier stage exists.
func (s *StageStore) HasPrevious() bool {
	return s.protocol != nil && s.index > 0
}

// Next advances to the next stage. Returns false (and stays put) at the last
// stage.
func (s *StageStore) Next() bool {
	if !s.HasNext() {
		return false
	}
	s.index++
	return true
}

// Previous steps back to the previous stage. Returns false (and stays put)
// at the first stage.
func (s *StageStore) Previous() bool {
	if !s.HasPrevious() {
		return false
	}
	s.index--
	return true
}

// SetIndex jumps to a specific stage. Out-of-range indexes are rejected.
func (s *StageStore) SetIndex(index int) bool {
	if s.protocol == nil || index < 0 || index >= len(s.protocol.Stages) {
		return false
	}
	s.index = index
	return true
}
