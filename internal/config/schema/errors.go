package schema

import (
	"fmt"
	"strings"
)

// ViolationKind classifies why a value was rejected.
type ViolationKind int

// Violation kinds.
const (
	ViolationType ViolationKind = iota
	ViolationRange
	ViolationIntegral
	ViolationEnum
	ViolationLength
	ViolationColor
)

// String returns the kind name.
func (k ViolationKind) String() string {
	switch k {
	case ViolationType:
		return "type"
	case ViolationRange:
		return "range"
	case ViolationIntegral:
		return "integral"
	case ViolationEnum:
		return "enum"
	case ViolationLength:
		return "length"
	case ViolationColor:
		return "color"
	default:
		return "unknown"
	}
}

// Violation records one value that failed validation and the default that
// replaced it.
type Violation struct {
	// Path is the dot-separated path to the offending value.
	Path string

	// Kind classifies the failure.
	Kind ViolationKind

	// Reason describes what is wrong.
	Reason string

	// Observed is the rejected value.
	Observed any

	// Default is the value substituted in its place.
	Default any
}

// Error implements the error interface so violations can be logged or
// joined like any other error.
func (v *Violation) Error() string {
	if v.Path == "" {
		return v.Reason
	}
	return fmt.Sprintf("%s: %s", v.Path, v.Reason)
}

// String returns a one-line summary including the substituted default.
func (v *Violation) String() string {
	return fmt.Sprintf("%s (got %v, using default %v)", v.Error(), v.Observed, v.Default)
}

// Violations is a list of validation failures.
type Violations []*Violation

// ForPath returns the violations recorded at path.
func (vs Violations) ForPath(path string) Violations {
	var out Violations
	for _, v := range vs {
		if v.Path == path {
			out = append(out, v)
		}
	}
	return out
}

// Under returns the violations at path or beneath it.
func (vs Violations) Under(path string) Violations {
	if path == "" {
		return vs
	}
	prefix := path + "."
	var out Violations
	for _, v := range vs {
		if v.Path == path || strings.HasPrefix(v.Path, prefix) {
			out = append(out, v)
		}
	}
	return out
}

func newTypeViolation(path string, kind Kind, observed any) *Violation {
	return &Violation{
		Path:     path,
		Kind:     ViolationType,
		Reason:   fmt.Sprintf("expected %s, got %s", kind, typeName(observed)),
		Observed: observed,
	}
}

func newRangeViolation(path string, observed any, min, max *float64) *Violation {
	var expected string
	switch {
	case min != nil && max != nil:
		expected = fmt.Sprintf("between %v and %v", *min, *max)
	case min != nil:
		expected = fmt.Sprintf(">= %v", *min)
	default:
		expected = fmt.Sprintf("<= %v", *max)
	}
	return &Violation{
		Path:     path,
		Kind:     ViolationRange,
		Reason:   fmt.Sprintf("value %v is out of range, must be %s", observed, expected),
		Observed: observed,
	}
}

func newEnumViolation(path string, observed any, allowed []string) *Violation {
	return &Violation{
		Path:     path,
		Kind:     ViolationEnum,
		Reason:   fmt.Sprintf("value %v is not one of %s", observed, strings.Join(allowed, ", ")),
		Observed: observed,
	}
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "nothing"
	case bool:
		return "boolean"
	case string:
		return "string"
	case map[string]any:
		return "table"
	}
	if isNumber(v) {
		return "number"
	}
	if toSlice(v) != nil {
		return "array"
	}
	return fmt.Sprintf("%T", v)
}
