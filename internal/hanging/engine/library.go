package engine

import (
	"fmt"
	"sort"

	"github.com/mrsinham/hangforge/internal/displayset"
	"github.com/mrsinham/hangforge/internal/hanging"
	"github.com/mrsinham/hangforge/internal/hanging/attribute"
	"github.com/mrsinham/hangforge/internal/hanging/match"
)

// Library is an in-memory collection of protocols with best-match selection
// against a study. A protocol scores through its protocol-level matching
// rules; ties resolve by explicit priority, then name.
type Library struct {
	matcher   *match.Matcher
	protocols map[string]*hanging.Protocol
	defaultID string
}

// NewLibrary creates an empty protocol library.
func NewLibrary(matcher *match.Matcher) *Library {
	return &Library{
		matcher:   matcher,
		protocols: make(map[string]*hanging.Protocol),
	}
}

// Add validates and stores a protocol. Adding a protocol with the id of an
// existing locked protocol is rejected.
func (l *Library) Add(p *hanging.Protocol) error {
	if err := p.Validate(l.matcher.Validators()); err != nil {
		return err
	}
	if existing, ok := l.protocols[p.ID]; ok && existing.Locked {
		return fmt.Errorf("protocol %q is locked and cannot be replaced", existing.Name)
	}
	l.protocols[p.ID] = p
	return nil
}

// Remove deletes a protocol. Locked protocols cannot be removed.
func (l *Library) Remove(id string) error {
	p, ok := l.protocols[id]
	if !ok {
		return fmt.Errorf("no protocol with id %q", id)
	}
	if p.Locked {
		return fmt.Errorf("protocol %q is locked and cannot be removed", p.Name)
	}
	delete(l.protocols, id)
	return nil
}

// Get returns a protocol by id.
func (l *Library) Get(id string) (*hanging.Protocol, bool) {
	p, ok := l.protocols[id]
	return p, ok
}

// SetDefault marks the fallback protocol returned when nothing matches.
func (l *Library) SetDefault(id string) error {
	if _, ok := l.protocols[id]; !ok {
		return fmt.Errorf("no protocol with id %q", id)
	}
	l.defaultID = id
	return nil
}

// All returns every protocol, sorted by name for stable listings.
func (l *Library) All() []*hanging.Protocol {
	out := make([]*hanging.Protocol, 0, len(l.protocols))
	for _, p := range l.protocols {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// scored pairs a protocol with its match score for ranking.
type scored struct {
	protocol *hanging.Protocol
	score    float64
}

// BestMatch returns the protocol best suited to the given study, ranked by
// protocol-rule score, then priority, then name. When no protocol scores
// above zero the default protocol is returned; with no default configured
// the result is nil.
func (l *Library) BestMatch(study *displayset.DisplaySet) *hanging.Protocol {
	bag := l.matcher.StudyBag(study)
	return l.bestMatchBag(bag)
}

func (l *Library) bestMatchBag(bag attribute.Bag) *hanging.Protocol {
	var matched []scored
	for _, p := range l.protocols {
		if len(p.MatchingRules) == 0 {
			continue
		}
		score, eligible, _ := l.matcher.Score(p.MatchingRules, attribute.LevelStudy, bag)
		if eligible && score > 0 {
			matched = append(matched, scored{protocol: p, score: score})
		}
	}

	if len(matched) == 0 {
		if l.defaultID != "" {
			return l.protocols[l.defaultID]
		}
		return nil
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].score != matched[j].score {
			return matched[i].score > matched[j].score
		}
		if matched[i].protocol.Priority != matched[j].protocol.Priority {
			return matched[i].protocol.Priority > matched[j].protocol.Priority
		}
		return matched[i].protocol.Name < matched[j].protocol.Name
	})
	return matched[0].protocol
}
