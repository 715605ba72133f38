package attribute

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/log"
)

// Callback computes a custom attribute value from the attributes resolved so
// far at the relevant level. Returning an error resolves the attribute to
// absent; it never aborts a matching run.
type Callback func(bag Bag) (any, error)

// Custom describes one caller-registered custom attribute.
type Custom struct {
	ID       string
	Name     string
	Level    Level
	Callback Callback
}

// Registry holds caller-registered custom attributes. It is populated at
// application startup and treated as read-only during matching runs.
//
// The registry is an explicit dependency of the resolver rather than a
// package-level variable so that hosts can run independent engines with
// independent attribute sets.
type Registry struct {
	custom map[string]Custom
	logger *log.Logger
}

// NewRegistry creates an empty custom attribute registry.
func NewRegistry(logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Default()
	}
	return &Registry{
		custom: make(map[string]Custom),
		logger: logger,
	}
}

// Register adds a custom attribute with the callback used to calculate its
// value. Registering an id twice replaces the previous definition.
func (r *Registry) Register(id, name string, level Level, callback Callback) error {
	if id == "" {
		return fmt.Errorf("custom attribute id must not be empty")
	}
	if callback == nil {
		return fmt.Errorf("custom attribute %q has no callback", id)
	}
	if _, ok := r.custom[id]; ok {
		r.logger.Warnf("custom attribute %q registered twice, replacing previous definition", id)
	}
	r.custom[id] = Custom{ID: id, Name: name, Level: level, Callback: callback}
	return nil
}

// Has reports whether an attribute id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.custom[id]
	return ok
}

// IDs returns all registered attribute ids, sorted.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.custom))
	for id := range r.custom {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// At returns the custom attributes registered at the given level, sorted by
// id so that resolution order is deterministic.
func (r *Registry) At(level Level) []Custom {
	var out []Custom
	for _, c := range r.custom {
		if c.Level == level {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Resolve overlays the custom attributes declared at level onto base and
// returns the resulting bag. Each callback receives the bag assembled so far,
// built-ins merged with previously resolved custom attributes. A callback
// error is logged and the attribute stays absent; matching continues.
func (r *Registry) Resolve(level Level, base Bag) Bag {
	bag := base.Clone()
	for _, c := range r.At(level) {
		if _, ok := bag.Get(c.ID); ok {
			// The source object already carries this attribute.
			continue
		}
		value, err := c.Callback(bag)
		if err != nil {
			r.logger.Debugf("custom attribute %q failed at %s level: %v", c.ID, level, err)
			continue
		}
		bag[c.ID] = value
	}
	return bag
}
