package schema

import (
	"fmt"
	"math"
	"slices"
	"unicode/utf8"
)

// Validate checks doc against the schema rooted at root.
//
// Validation never fails: every leaf that is missing or null takes its default, and
// every leaf that is present but invalid takes its default and adds exactly
// one Violation. The returned Values is always complete.
func Validate(doc map[string]any, root *Node) (*Values, Violations) {
	if !root.IsGroup() {
		return newValues(root, map[string]any{}), nil
	}
	var violations Violations
	data := validateGroup("", doc, root, &violations)
	return newValues(root, data), violations
}

// validateGroup walks the children of a group, returning typed values.
func validateGroup(path string, doc map[string]any, group *Node, violations *Violations) map[string]any {
	out := make(map[string]any, len(group.children))
	for _, f := range group.children {
		childPath := JoinPath(path, f.Name)
		raw, present := doc[f.Name]

		if f.Node.IsGroup() {
			sub, ok := raw.(map[string]any)
			if present && raw != nil && !ok {
				v := newTypeViolation(childPath, KindGroup, raw)
				v.Default = f.Node.Defaults()
				*violations = append(*violations, v)
			}
			out[f.Name] = newValues(f.Node, validateGroup(childPath, sub, f.Node, violations))
			continue
		}

		if !present || raw == nil {
			typed, _ := checkLeaf(childPath, f.Node.Default, f.Node)
			out[f.Name] = typed
			continue
		}

		typed, v := checkLeaf(childPath, raw, f.Node)
		if v != nil {
			v.Default = cloneValue(f.Node.Default)
			*violations = append(*violations, v)
			typed, _ = checkLeaf(childPath, f.Node.Default, f.Node)
		}
		out[f.Name] = typed
	}
	return out
}

// checkLeaf converts a raw value to its typed form, or reports the first
// constraint it fails.
func checkLeaf(path string, raw any, node *Node) (any, *Violation) {
	c := node.Constraints
	if c == nil {
		c = &Constraints{}
	}

	switch node.Kind {
	case KindBoolean:
		b, ok := raw.(bool)
		if !ok {
			return false, newTypeViolation(path, node.Kind, raw)
		}
		return b, nil

	case KindNumber:
		if !isNumber(raw) {
			return 0.0, newTypeViolation(path, node.Kind, raw)
		}
		f := toFloat64(raw)
		if math.IsNaN(f) {
			return 0.0, &Violation{Path: path, Kind: ViolationRange, Reason: "value is NaN", Observed: raw}
		}
		if c.Integral && f != math.Trunc(f) {
			return 0.0, &Violation{
				Path:     path,
				Kind:     ViolationIntegral,
				Reason:   fmt.Sprintf("value %v is not a whole number", raw),
				Observed: raw,
			}
		}
		if (c.Min != nil && f < *c.Min) || (c.Max != nil && f > *c.Max) {
			return 0.0, newRangeViolation(path, raw, c.Min, c.Max)
		}
		return f, nil

	case KindString:
		s, ok := raw.(string)
		if !ok {
			return "", newTypeViolation(path, node.Kind, raw)
		}
		if len(c.Enum) > 0 && !slices.Contains(c.Enum, s) {
			return "", newEnumViolation(path, raw, c.Enum)
		}
		n := utf8.RuneCountInString(s)
		if c.MinLength != nil && n < *c.MinLength {
			return "", &Violation{
				Path:     path,
				Kind:     ViolationLength,
				Reason:   fmt.Sprintf("string length %d is less than minimum %d", n, *c.MinLength),
				Observed: raw,
			}
		}
		if c.MaxLength != nil && n > *c.MaxLength {
			return "", &Violation{
				Path:     path,
				Kind:     ViolationLength,
				Reason:   fmt.Sprintf("string length %d is greater than maximum %d", n, *c.MaxLength),
				Observed: raw,
			}
		}
		return s, nil

	case KindColor:
		col, reason := parseColor(raw, node.HasAlpha)
		if reason != "" {
			return Color{}, &Violation{Path: path, Kind: ViolationColor, Reason: reason, Observed: raw}
		}
		return col, nil

	default:
		return nil, newTypeViolation(path, node.Kind, raw)
	}
}

// Helper functions

func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	default:
		return false
	}
}

func toFloat64(v any) float64 {
	switch val := v.(type) {
	case int:
		return float64(val)
	case int8:
		return float64(val)
	case int16:
		return float64(val)
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	case uint:
		return float64(val)
	case uint8:
		return float64(val)
	case uint16:
		return float64(val)
	case uint32:
		return float64(val)
	case uint64:
		return float64(val)
	case float32:
		return float64(val)
	case float64:
		return val
	default:
		return 0
	}
}

func toSlice(v any) []any {
	switch val := v.(type) {
	case []any:
		return val
	case []int:
		out := make([]any, len(val))
		for i, n := range val {
			out[i] = n
		}
		return out
	case []int64:
		out := make([]any, len(val))
		for i, n := range val {
			out[i] = n
		}
		return out
	case []float64:
		out := make([]any, len(val))
		for i, n := range val {
			out[i] = n
		}
		return out
	default:
		return nil
	}
}
