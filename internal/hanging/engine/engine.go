package engine

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/mrsinham/hangforge/internal/displayset"
	"github.com/mrsinham/hangforge/internal/hanging"
	"github.com/mrsinham/hangforge/internal/hanging/match"
)

// Assignment is the published result of one matching run: one slot per
// viewport of the active stage. An empty slot holds a nil display set.
type Assignment struct {
	ProtocolID         string
	ProtocolName       string
	StageIndex         int
	StageName          string
	LayoutTemplateName string
	Structure          hanging.ViewportStructure
	Slots              []match.SlotResult
}

// Subscriber receives assignment change notifications.
type Subscriber func(*Assignment)

// Engine owns the active protocol and republishes the viewport assignment
// whenever the protocol, the stage, or the display-set collection changes.
//
// Matching runs synchronously: each call that changes an input computes the
// new assignment before returning, so consumers never observe partial state.
type Engine struct {
	matcher *match.Matcher
	store   StageStore
	logger  *log.Logger

	protocol    *hanging.Protocol
	displaySets []*displayset.DisplaySet

	assignment *Assignment
	subs       map[int]Subscriber
	nextSubID  int
}

// New creates an engine using the given matcher.
func New(matcher *match.Matcher, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		matcher: matcher,
		logger:  logger,
		subs:    make(map[int]Subscriber),
	}
}

// SetProtocol validates and activates a protocol, resets the stage to 0 and
// runs a fresh match. On validation failure the previous protocol and
// assignment stay untouched.
func (e *Engine) SetProtocol(p *hanging.Protocol) error {
	if p == nil {
		return fmt.Errorf("no protocol given")
	}
	if err := p.Validate(e.matcher.Validators()); err != nil {
		return fmt.Errorf("protocol rejected: %w", err)
	}

	e.protocol = p
	e.store.SetProtocol(p)
	e.logger.Debugf("protocol %q activated with %d stages", p.Name, len(p.Stages))
	e.rematch()
	return nil
}

// Protocol returns the active protocol, or nil.
func (e *Engine) Protocol() *hanging.Protocol { return e.protocol }

// SetDisplaySets replaces the display-set collection (e.g. when new series
// arrive from the data source) and re-runs matching for the current stage.
func (e *Engine) SetDisplaySets(sets []*displayset.DisplaySet) {
	e.displaySets = sets
	if e.protocol != nil {
		e.rematch()
	}
}

// Assignment returns the current assignment snapshot. It is nil until the
// first matching run completes, which distinguishes "matching not yet run"
// from "matched with empty slots".
func (e *Engine) Assignment() *Assignment { return e.assignment }

// Stage navigation. Moving to a new stage re-runs matching and republishes.

// NextStage advances to the next stage if one exists.
func (e *Engine) NextStage() bool {
	if !e.store.Next() {
		return false
	}
	e.rematch()
	return true
}

// PreviousStage steps back to the previous stage if one exists.
func (e *Engine) PreviousStage() bool {
	if !e.store.Previous() {
		return false
	}
	e.rematch()
	return true
}

// SetStage jumps to a specific stage index.
func (e *Engine) SetStage(index int) bool {
	if !e.store.SetIndex(index) {
		return false
	}
	e.rematch()
	return true
}

// HasNextStage reports whether a later stage exists.
func (e *Engine) HasNextStage() bool { return e.store.HasNext() }

// HasPreviousStage reports whether an earlier stage exists.
func (e *Engine) HasPreviousStage() bool { return e.store.HasPrevious() }

// StageIndex returns the active stage index.
func (e *Engine) StageIndex() int { return e.store.Index() }

// NumStages returns the stage count of the active protocol.
func (e *Engine) NumStages() int { return e.store.NumStages() }

// CurrentStage returns the active stage model.
func (e *Engine) CurrentStage() *hanging.Stage { return e.store.Current() }

// Subscribe registers a subscriber for assignment changes and returns an
// unsubscribe function. The subscriber is not called with the current
// assignment; it fires on the next change.
func (e *Engine) Subscribe(fn Subscriber) func() {
	id := e.nextSubID
	e.nextSubID++
	e.subs[id] = fn
	return func() { delete(e.subs, id) }
}

// rematch recomputes the assignment for the current stage and notifies
// subscribers.
func (e *Engine) rematch() {
	stage := e.store.Current()
	if stage == nil {
		return
	}

	slots := e.matcher.MatchStage(stage, e.displaySets)
	e.assignment = &Assignment{
		ProtocolID:         e.protocol.ID,
		ProtocolName:       e.protocol.Name,
		StageIndex:         e.store.Index(),
		StageName:          stage.Name,
		LayoutTemplateName: stage.Structure.LayoutTemplateName(),
		Structure:          stage.Structure,
		Slots:              slots,
	}

	filled := 0
	for _, slot := range slots {
		if slot.DisplaySet != nil {
			filled++
		}
	}
	e.logger.Debugf("matched stage %d of %q: %d/%d slots filled",
		e.store.Index(), e.protocol.Name, filled, len(slots))

	for _, fn := range e.subs {
		fn(e.assignment)
	}
}
