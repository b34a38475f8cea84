package schema

// Builder provides a fluent API for constructing schema nodes.
type Builder struct {
	node *Node
}

// Build returns the constructed node.
func (b *Builder) Build() *Node {
	return b.node
}

// Description sets the comment text written above the entry.
func (b *Builder) Description(desc string) *Builder {
	b.node.Description = desc
	return b
}

// Range bounds a number to [min, max].
func (b *Builder) Range(min, max float64) *Builder {
	c := b.constraints()
	c.Min = &min
	c.Max = &max
	return b
}

// Minimum sets the inclusive lower bound for a number.
func (b *Builder) Minimum(min float64) *Builder {
	b.constraints().Min = &min
	return b
}

// Maximum sets the inclusive upper bound for a number.
func (b *Builder) Maximum(max float64) *Builder {
	b.constraints().Max = &max
	return b
}

// Enum restricts a string to the given values.
func (b *Builder) Enum(values ...string) *Builder {
	b.constraints().Enum = values
	return b
}

// MinLength sets the minimum string length.
func (b *Builder) MinLength(length int) *Builder {
	b.constraints().MinLength = &length
	return b
}

// MaxLength sets the maximum string length.
func (b *Builder) MaxLength(length int) *Builder {
	b.constraints().MaxLength = &length
	return b
}

// RenamedFrom records legacy names for this key.
func (b *Builder) RenamedFrom(names ...string) *Builder {
	b.node.RenamedFrom = append(b.node.RenamedFrom, names...)
	return b
}

// Field adds a named child to a group builder.
func (b *Builder) Field(name string, child *Builder) *Builder {
	b.node.Add(name, child.Build())
	return b
}

// Node adds an already built child to a group builder.
func (b *Builder) Node(name string, child *Node) *Builder {
	b.node.Add(name, child)
	return b
}

func (b *Builder) constraints() *Constraints {
	if b.node.Constraints == nil {
		b.node.Constraints = &Constraints{}
	}
	return b.node.Constraints
}

// Convenience functions for creating common node types

// Bool creates a boolean leaf.
func Bool(def bool) *Builder {
	return &Builder{node: &Node{Kind: KindBoolean, Default: def}}
}

// Number creates a number leaf.
func Number(def float64) *Builder {
	return &Builder{node: &Node{Kind: KindNumber, Default: def}}
}

// Integer creates a number leaf that only accepts whole numbers.
func Integer(def int64) *Builder {
	b := &Builder{node: &Node{Kind: KindNumber, Default: def}}
	b.constraints().Integral = true
	return b
}

// IntRange creates an integer leaf bounded to [min, max].
func IntRange(def, min, max int64) *Builder {
	return Integer(def).Range(float64(min), float64(max))
}

// String creates a string leaf.
func String(def string) *Builder {
	return &Builder{node: &Node{Kind: KindString, Default: def}}
}

// StringEnum creates a string leaf restricted to values.
func StringEnum(def string, values ...string) *Builder {
	return String(def).Enum(values...)
}

// RGB creates an opaque color leaf.
func RGB(r, g, b uint8) *Builder {
	c := Color{R: r, G: g, B: b, A: 1}
	return &Builder{node: &Node{Kind: KindColor, Default: c.Value(false)}}
}

// RGBA creates a color leaf with an alpha channel.
func RGBA(r, g, b uint8, a float64) *Builder {
	c := Color{R: r, G: g, B: b, A: a}
	return &Builder{node: &Node{Kind: KindColor, Default: c.Value(true), HasAlpha: true}}
}

// Group creates a group builder.
func Group() *Builder {
	return &Builder{node: NewGroup("")}
}
