package schema

// Values is a validated, typed view of a configuration group.
//
// Every leaf declared by the schema is present: booleans are bool, numbers
// are float64, strings are string and colors are Color. Nested groups are
// *Values. Values is read-only.
type Values struct {
	node *Node
	data map[string]any
}

func newValues(node *Node, data map[string]any) *Values {
	return &Values{node: node, data: data}
}

// Schema returns the node these values were validated against.
func (v *Values) Schema() *Node {
	if v == nil {
		return nil
	}
	return v.node
}

// Get returns the typed value at a dot-separated path.
func (v *Values) Get(path string) (any, bool) {
	if v == nil {
		return nil, false
	}
	parts := SplitPath(path)
	if len(parts) == 0 {
		return v, true
	}
	current := v
	for i, part := range parts {
		val, ok := current.data[part]
		if !ok {
			return nil, false
		}
		if i == len(parts)-1 {
			return val, true
		}
		next, ok := val.(*Values)
		if !ok {
			return nil, false
		}
		current = next
	}
	return nil, false
}

// Has reports whether path names a value.
func (v *Values) Has(path string) bool {
	_, ok := v.Get(path)
	return ok
}

// Bool returns the boolean at path, or false.
func (v *Values) Bool(path string) bool {
	val, _ := v.Get(path)
	b, _ := val.(bool)
	return b
}

// Number returns the number at path, or 0.
func (v *Values) Number(path string) float64 {
	val, _ := v.Get(path)
	f, _ := val.(float64)
	return f
}

// Int returns the number at path truncated to an int.
func (v *Values) Int(path string) int {
	return int(v.Number(path))
}

// String returns the string at path, or "".
func (v *Values) String(path string) string {
	val, _ := v.Get(path)
	s, _ := val.(string)
	return s
}

// Color returns the color at path, or opaque black.
func (v *Values) Color(path string) Color {
	val, _ := v.Get(path)
	c, ok := val.(Color)
	if !ok {
		return Color{A: 1}
	}
	return c
}

// Blend mixes the colors at two paths in Lab space. t=0 yields the first.
func (v *Values) Blend(pathA, pathB string, t float64) Color {
	a, b := v.Color(pathA), v.Color(pathB)
	r, g, bl := a.Colorful().BlendLab(b.Colorful(), t).Clamped().RGB255()
	return Color{R: r, G: g, B: bl, A: a.A + (b.A-a.A)*t}
}

// Group returns the nested group at path. A missing group yields an empty
// Values so callers can chain accessors.
func (v *Values) Group(path string) *Values {
	val, _ := v.Get(path)
	g, ok := val.(*Values)
	if !ok {
		return newValues(nil, map[string]any{})
	}
	return g
}

// Keys returns the names of the direct children in schema order.
func (v *Values) Keys() []string {
	if v == nil || v.node == nil {
		return nil
	}
	keys := make([]string, 0, len(v.node.children))
	for _, f := range v.node.children {
		keys = append(keys, f.Name)
	}
	return keys
}

// Map returns the values as a nested map of plain Go values.
// Colors are returned in their raw document form.
func (v *Values) Map() map[string]any {
	out := make(map[string]any, len(v.data))
	for k, val := range v.data {
		switch x := val.(type) {
		case *Values:
			out[k] = x.Map()
		case Color:
			withAlpha := false
			if v.node != nil {
				if child := v.node.Child(k); child != nil {
					withAlpha = child.HasAlpha
				}
			}
			out[k] = x.Value(withAlpha)
		default:
			out[k] = val
		}
	}
	return out
}
