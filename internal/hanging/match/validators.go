// Package match implements rule evaluation and viewport matching: the
// validator registry, per-rule scoring and the slot assignment algorithm.
package match

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gobwas/glob"

	"github.com/mrsinham/hangforge/internal/hanging"
)

// ValidatorFunc evaluates one constraint against an attribute value. It is a
// pure function: same inputs, same verdict.
type ValidatorFunc func(value any, opts hanging.ConstraintOptions) bool

// Validators is the registry of named validator functions. It ships with the
// closed set of built-in kinds and accepts caller extensions.
type Validators struct {
	funcs map[string]ValidatorFunc
}

// NewValidators creates a registry populated with the built-in validators.
func NewValidators() *Validators {
	v := &Validators{funcs: make(map[string]ValidatorFunc)}
	v.funcs["equals"] = validateEquals
	v.funcs["doesNotEqual"] = not(validateEquals)
	v.funcs["contains"] = validateContains
	v.funcs["doesNotContain"] = not(validateContains)
	v.funcs["startsWith"] = validateStartsWith
	v.funcs["endsWith"] = validateEndsWith
	v.funcs["greaterThan"] = validateGreaterThan
	v.funcs["lessThan"] = validateLessThan
	v.funcs["range"] = validateRange
	v.funcs["globMatch"] = validateGlob
	return v
}

// Register adds a custom validator kind. Built-in kinds cannot be replaced.
func (v *Validators) Register(kind string, fn ValidatorFunc) error {
	if kind == "" || fn == nil {
		return fmt.Errorf("validator registration requires a kind and a function")
	}
	if _, exists := v.funcs[kind]; exists {
		return fmt.Errorf("validator %q is already registered", kind)
	}
	v.funcs[kind] = fn
	return nil
}

// Has reports whether a validator kind is known.
func (v *Validators) Has(kind string) bool {
	_, ok := v.funcs[kind]
	return ok
}

// Names returns all registered validator kinds, sorted.
func (v *Validators) Names() []string {
	names := make([]string, 0, len(v.funcs))
	for name := range v.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (v *Validators) get(kind string) (ValidatorFunc, bool) {
	fn, ok := v.funcs[kind]
	return fn, ok
}

func not(fn ValidatorFunc) ValidatorFunc {
	return func(value any, opts hanging.ConstraintOptions) bool {
		return !fn(value, opts)
	}
}

func validateEquals(value any, opts hanging.ConstraintOptions) bool {
	// Numeric comparison first so that 2 equals 2.0 across decoders.
	if a, aok := toFloat(value); aok {
		if b, bok := toFloat(opts.Value); bok {
			return a == b
		}
	}
	as, aok := toString(value)
	bs, bok := toString(opts.Value)
	return aok && bok && as == bs
}

func validateContains(value any, opts hanging.ConstraintOptions) bool {
	want, ok := toString(opts.Value)
	if !ok {
		return false
	}
	switch v := value.(type) {
	case []string:
		for _, item := range v {
			if item == want {
				return true
			}
		}
		return false
	case []any:
		for _, item := range v {
			if s, ok := toString(item); ok && s == want {
				return true
			}
		}
		return false
	default:
		s, ok := toString(value)
		return ok && strings.Contains(s, want)
	}
}

func validateStartsWith(value any, opts hanging.ConstraintOptions) bool {
	s, sok := toString(value)
	prefix, pok := toString(opts.Value)
	return sok && pok && strings.HasPrefix(s, prefix)
}

func validateEndsWith(value any, opts hanging.ConstraintOptions) bool {
	s, sok := toString(value)
	suffix, pok := toString(opts.Value)
	return sok && pok && strings.HasSuffix(s, suffix)
}

func validateGreaterThan(value any, opts hanging.ConstraintOptions) bool {
	a, aok := toFloat(value)
	b, bok := toFloat(opts.Value)
	return aok && bok && a > b
}

func validateLessThan(value any, opts hanging.ConstraintOptions) bool {
	a, aok := toFloat(value)
	b, bok := toFloat(opts.Value)
	return aok && bok && a < b
}

func validateRange(value any, opts hanging.ConstraintOptions) bool {
	a, ok := toFloat(value)
	if !ok {
		return false
	}
	if opts.Min != nil && a < *opts.Min {
		return false
	}
	if opts.Max != nil && a > *opts.Max {
		return false
	}
	return opts.Min != nil || opts.Max != nil
}

func validateGlob(value any, opts hanging.ConstraintOptions) bool {
	s, sok := toString(value)
	pattern, pok := toString(opts.Value)
	if !sok || !pok {
		return false
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return false
	}
	return g.Match(s)
}

// toString renders scalar values as strings for the string validators.
func toString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case fmt.Stringer:
		return v.String(), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}

// toFloat coerces numeric values, including numeric strings, to float64.
func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
