// Package attribute provides attribute resolution for hanging-protocol
// rule matching: built-in attribute lookup, caller-registered custom
// attributes, and per-level attribute bags.
package attribute

import (
	"fmt"
	"strings"
)

// Level represents the matching hierarchy level an attribute belongs to.
type Level string

const (
	LevelStudy    Level = "study"
	LevelSeries   Level = "series"
	LevelInstance Level = "instance"
)

// AllLevels returns all valid matching levels, outermost first.
func AllLevels() []Level {
	return []Level{LevelStudy, LevelSeries, LevelInstance}
}

// ParseLevel parses a string into a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "study":
		return LevelStudy, nil
	case "series":
		return LevelSeries, nil
	case "instance", "image":
		return LevelInstance, nil
	default:
		return "", fmt.Errorf("invalid level %q (valid: study, series, instance)", s)
	}
}

// Bag is a flat set of named attribute values at one matching level.
type Bag map[string]any

// Get returns the value for name and whether it is present.
// A key stored with a nil value counts as absent.
func (b Bag) Get(name string) (any, bool) {
	if b == nil {
		return nil, false
	}
	v, ok := b[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Clone returns a shallow copy of the bag.
func (b Bag) Clone() Bag {
	out := make(Bag, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Merge returns a new bag containing all entries of b overlaid with overlay.
// Overlay entries win on key collision.
func (b Bag) Merge(overlay Bag) Bag {
	out := b.Clone()
	for k, v := range overlay {
		out[k] = v
	}
	return out
}
