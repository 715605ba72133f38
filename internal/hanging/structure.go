package hanging

import (
	"fmt"
	"sort"
)

// ViewportStructure describes the layout shape of a stage. Implementations
// are polymorphic over the layout type so that new layouts can be added
// without changing consumers.
type ViewportStructure interface {
	// NumViewports returns the number of viewport slots this layout provides.
	NumViewports() int

	// LayoutTemplateName returns the identifier of the layout template used
	// by the rendering collaborator.
	LayoutTemplateName() string

	// Type returns the persisted layout type name (e.g. "grid").
	Type() string

	// Properties returns the persisted layout parameters.
	Properties() map[string]any
}

// Grid is the rows-by-columns layout. It is currently the only shipped
// layout type.
type Grid struct {
	Rows    int
	Columns int
}

// NumViewports returns rows multiplied by columns.
func (g Grid) NumViewports() int { return g.Rows * g.Columns }

// LayoutTemplateName returns the grid layout template identifier.
func (g Grid) LayoutTemplateName() string { return "gridLayout" }

// Type returns "grid".
func (g Grid) Type() string { return "grid" }

// Properties returns the persisted grid parameters.
func (g Grid) Properties() map[string]any {
	return map[string]any{"rows": g.Rows, "columns": g.Columns}
}

// StructureParser builds a ViewportStructure from its persisted properties.
type StructureParser func(properties map[string]any) (ViewportStructure, error)

// structureParsers maps layout type names to their parsers.
var structureParsers = map[string]StructureParser{
	"grid": parseGrid,
}

// RegisterStructureType registers a parser for a new layout type. Shipped
// types cannot be replaced.
func RegisterStructureType(name string, parser StructureParser) error {
	if name == "" || parser == nil {
		return fmt.Errorf("structure type registration requires a name and a parser")
	}
	if _, exists := structureParsers[name]; exists {
		return fmt.Errorf("structure type %q is already registered", name)
	}
	structureParsers[name] = parser
	return nil
}

// StructureTypes returns the registered layout type names, sorted.
func StructureTypes() []string {
	names := make([]string, 0, len(structureParsers))
	for name := range structureParsers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseStructure builds a ViewportStructure from its persisted type and
// properties.
func ParseStructure(typeName string, properties map[string]any) (ViewportStructure, error) {
	parser, ok := structureParsers[typeName]
	if !ok {
		return nil, fmt.Errorf("unknown viewport structure type %q (known: %v)", typeName, StructureTypes())
	}
	return parser(properties)
}

func parseGrid(properties map[string]any) (ViewportStructure, error) {
	rows, err := intProperty(properties, "rows")
	if err != nil {
		return nil, err
	}
	columns, err := intProperty(properties, "columns")
	if err != nil {
		return nil, err
	}
	if rows < 1 || columns < 1 {
		return nil, fmt.Errorf("grid structure requires rows >= 1 and columns >= 1, got %dx%d", rows, columns)
	}
	return Grid{Rows: rows, Columns: columns}, nil
}

// intProperty reads an integer layout property, tolerating the numeric types
// the JSON and YAML decoders produce.
func intProperty(properties map[string]any, key string) (int, error) {
	raw, ok := properties[key]
	if !ok {
		return 0, fmt.Errorf("viewport structure is missing property %q", key)
	}
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("viewport structure property %q must be an integer, got %v", key, v)
		}
		return int(v), nil
	default:
		return 0, fmt.Errorf("viewport structure property %q must be an integer, got %T", key, raw)
	}
}
