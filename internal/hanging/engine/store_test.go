package engine

import (
	"testing"

	"github.com/mrsinham/hangforge/internal/hanging"
)

func protocolWithStages(n int) *hanging.Protocol {
	p := hanging.NewProtocol("nav-test")
	for i := 0; i < n; i++ {
		stage := hanging.NewStage("", hanging.Grid{Rows: 1, Columns: 1})
		stage.Viewports = []hanging.Viewport{{}}
		p.AddStage(stage)
	}
	return p
}

func TestStageStore_InitialState(t *testing.T) {
	var s StageStore

	if s.Current() != nil {
		t.Error("Current() should be nil without a protocol")
	}
	if s.NumStages() != 0 {
		t.Errorf("NumStages() = %d, want 0", s.NumStages())
	}
	if s.HasNext() || s.HasPrevious() {
		t.Error("navigation queries should be false without a protocol")
	}
	if s.Next() || s.Previous() {
		t.Error("navigation should be a no-op without a protocol")
	}
}

func TestStageStore_SetProtocolResetsIndex(t *testing.T) {
	var s StageStore
	s.SetProtocol(protocolWithStages(3))
	s.Next()

	s.SetProtocol(protocolWithStages(2))
	if s.Index() != 0 {
		t.Errorf("Index() = %d after SetProtocol, want 0", s.Index())
	}
}

func TestStageStore_BoundedNavigation(t *testing.T) {
	var s StageStore
	s.SetProtocol(protocolWithStages(3))

	// Calling Next N times from index 0 leaves index = N-1, never beyond.
	for i := 0; i < 3; i++ {
		s.Next()
	}
	if s.Index() != 2 {
		t.Errorf("Index() = %d after 3 Next calls on 3 stages, want 2", s.Index())
	}
	if s.HasNext() {
		t.Error("HasNext() should be false at the last stage")
	}
	if s.Next() {
		t.Error("Next() at the last stage should report false")
	}

	for i := 0; i < 5; i++ {
		s.Previous()
	}
	if s.Index() != 0 {
		t.Errorf("Index() = %d after walking back, want 0", s.Index())
	}
	if s.HasPrevious() {
		t.Error("HasPrevious() should be false at the first stage")
	}
	if s.Previous() {
		t.Error("Previous() at the first stage should report false")
	}
}

func TestStageStore_SetIndex(t *testing.T) {
	var s StageStore
	s.SetProtocol(protocolWithStages(3))

	tests := []struct {
		index    int
		expected bool
	}{
		{0, true},
		{2, true},
		{3, false},
		{-1, false},
	}

	for _, tc := range tests {
		if got := s.SetIndex(tc.index); got != tc.expected {
			t.Errorf("SetIndex(%d) = %v, want %v", tc.index, got, tc.expected)
		}
	}
}

func TestStageStore_Current(t *testing.T) {
	var s StageStore
	p := protocolWithStages(2)
	p.Stages[0].Name = "first"
	p.Stages[1].Name = "second"
	s.SetProtocol(p)

	if s.Current().Name != "first" {
		t.Errorf("Current().Name = %q, want first", s.Current().Name)
	}
	s.Next()
	if s.Current().Name != "second" {
		t.Errorf("Current().Name = %q, want second", s.Current().Name)
	}
}
