// Package schema describes the shape of module configuration and validates
// loaded documents against it.
//
// A schema is a tree of Nodes. Leaves carry a kind, a default and optional
// constraints; groups carry an ordered list of named children. Declaration
// order defines the order in which a regenerated configuration file is
// written, while lookups are always by name.
package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the type of value a Node describes.
type Kind int

// Node kinds.
const (
	KindBoolean Kind = iota
	KindNumber
	KindString
	KindColor
	KindGroup
)

// String returns the kind name used in diagnostics.
func (k Kind) String() string {
	switch k {
	case KindBoolean:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindColor:
		return "color"
	case KindGroup:
		return "group"
	default:
		return "unknown"
	}
}

// Errors returned when a schema tree is malformed.
var (
	// ErrInvalidSchema is the umbrella error for malformed schema trees.
	ErrInvalidSchema = errors.New("invalid schema")

	// ErrInvalidName indicates a child name that cannot be used in a path.
	ErrInvalidName = errors.New("invalid child name")
)

// Node describes one configuration key: either a leaf value or a group of
// named children.
type Node struct {
	// Kind is the value type.
	Kind Kind

	// Default is the raw document value used when the user has none.
	// Groups have no default; their children supply it.
	Default any

	// Description is comment text written above the entry on regeneration.
	// It is never interpreted.
	Description string

	// Constraints restrict leaf values. Nil means unconstrained.
	Constraints *Constraints

	// HasAlpha marks a color as RGBA instead of RGB.
	HasAlpha bool

	// RenamedFrom lists legacy sibling names whose value is carried over
	// when this key is absent from a user document.
	RenamedFrom []string

	children []*Field
	index    map[string]int
}

// Field is a named child of a group node.
type Field struct {
	Name string
	Node *Node
}

// Constraints restrict the values accepted for a leaf.
type Constraints struct {
	// Min and Max bound numbers (inclusive).
	Min *float64
	Max *float64

	// Integral requires a whole number.
	Integral bool

	// Enum lists the allowed strings.
	Enum []string

	// MinLength and MaxLength bound string length in runes.
	MinLength *int
	MaxLength *int
}

// NewGroup creates an empty group node.
func NewGroup(description string) *Node {
	return &Node{
		Kind:        KindGroup,
		Description: description,
		index:       make(map[string]int),
	}
}

// IsGroup reports whether the node is a group.
func (n *Node) IsGroup() bool {
	return n != nil && n.Kind == KindGroup
}

// Add appends a named child to a group. Adding a name twice replaces the
// earlier child in place, keeping its position.
func (n *Node) Add(name string, child *Node) *Node {
	if n.index == nil {
		n.index = make(map[string]int)
	}
	if i, ok := n.index[name]; ok {
		n.children[i].Node = child
		return n
	}
	n.index[name] = len(n.children)
	n.children = append(n.children, &Field{Name: name, Node: child})
	return n
}

// Fields returns the children of a group in declaration order.
func (n *Node) Fields() []*Field {
	if n == nil {
		return nil
	}
	return n.children
}

// Child returns the named child of a group, or nil.
func (n *Node) Child(name string) *Node {
	if n == nil || n.index == nil {
		return nil
	}
	i, ok := n.index[name]
	if !ok {
		return nil
	}
	return n.children[i].Node
}

// Lookup returns the node at a dot-separated path, or nil.
// An empty path returns n itself.
func (n *Node) Lookup(path string) *Node {
	current := n
	for _, part := range SplitPath(path) {
		current = current.Child(part)
		if current == nil {
			return nil
		}
	}
	return current
}

// Defaults returns the default document for this node. For a leaf this is
// its default value; for a group it is a nested map of all defaults.
func (n *Node) Defaults() any {
	if !n.IsGroup() {
		return cloneValue(n.Default)
	}
	m := make(map[string]any, len(n.children))
	for _, f := range n.children {
		m[f.Name] = f.Node.Defaults()
	}
	return m
}

// Walk visits every node depth-first in declaration order.
// The callback receives the dot-separated path of each node; the root has
// the empty path. Returning false skips the node's children.
func (n *Node) Walk(fn func(path string, node *Node) bool) {
	n.walk("", fn)
}

func (n *Node) walk(path string, fn func(string, *Node) bool) {
	if !fn(path, n) || !n.IsGroup() {
		return
	}
	for _, f := range n.children {
		f.Node.walk(JoinPath(path, f.Name), fn)
	}
}

// Check verifies that the tree is well formed: child names usable in dotted
// paths and file keys, and defaults that satisfy their own kind and
// constraints.
func (n *Node) Check() error {
	var errs []error
	n.Walk(func(path string, node *Node) bool {
		if node == nil {
			errs = append(errs, fmt.Errorf("%s: nil node", path))
			return false
		}
		if !node.IsGroup() {
			if _, v := checkLeaf(path, node.Default, node); v != nil {
				errs = append(errs, fmt.Errorf("%s: default %v: %s", path, node.Default, v.Reason))
			}
			return false
		}
		for _, f := range node.children {
			if f.Name == "" || strings.ContainsAny(f.Name, ". \t\n\"'[]=#") {
				errs = append(errs, fmt.Errorf("%s: %w %q", path, ErrInvalidName, f.Name))
			}
		}
		return true
	})
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidSchema, errors.Join(errs...))
	}
	return nil
}

// SplitPath splits a dot-separated path into its parts, ignoring empty
// segments.
func SplitPath(path string) []string {
	if path == "" {
		return nil
	}
	raw := strings.Split(path, ".")
	parts := raw[:0]
	for _, p := range raw {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// JoinPath joins a base path and a child name.
func JoinPath(base, name string) string {
	if base == "" {
		return name
	}
	return base + "." + name
}

// cloneValue copies slices and maps so defaults are never aliased by the
// documents built from them.
func cloneValue(v any) any {
	switch val := v.(type) {
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
