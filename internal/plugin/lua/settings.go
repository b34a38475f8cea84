package lua

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/modcore/internal/config/schema"
)

// buildSchema turns a script's settings list into a schema group.
//
// Lua tables have no key order, so settings are declared as a sequence:
//
//	schema = {
//	    { name = "Enabled", default = true, description = "Turn on" },
//	    { name = "Range", default = 64, integer = true, min = 0, max = 256 },
//	    { name = "Mode", default = "fast", enum = { "fast", "slow" } },
//	    { name = "Tint", color = { 255, 128, 0 } },
//	    { name = "Hud", fields = { ... } },
//	}
func (b *Bridge) buildSchema(description string, list *lua.LTable) (*schema.Node, error) {
	group := schema.NewGroup(description)
	if list == nil {
		return group, nil
	}

	for i := 1; i <= list.Len(); i++ {
		entry, ok := list.RawGetInt(i).(*lua.LTable)
		if !ok {
			return nil, fmt.Errorf("%w: entry %d is not a table", ErrInvalidSetting, i)
		}
		name, ok := b.GetTableString(entry, "name")
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: entry %d has no name", ErrInvalidSetting, i)
		}
		node, err := b.buildSetting(entry)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		group.Add(name, node)
	}
	return group, nil
}

func (b *Bridge) buildSetting(entry *lua.LTable) (*schema.Node, error) {
	desc, _ := b.GetTableString(entry, "description")

	if fields, ok := b.GetTableTable(entry, "fields"); ok {
		return b.buildSchema(desc, fields)
	}

	var builder *schema.Builder
	if color, ok := b.GetTableTable(entry, "color"); ok {
		c, err := b.colorDefault(color)
		if err != nil {
			return nil, err
		}
		builder = c
	} else {
		switch def := entry.RawGetString("default").(type) {
		case lua.LBool:
			builder = schema.Bool(bool(def))
		case lua.LNumber:
			if entry.RawGetString("integer") == lua.LTrue {
				if float64(def) != float64(int64(def)) {
					return nil, fmt.Errorf("%w: default %v is not a whole number", ErrInvalidSetting, def)
				}
				builder = schema.Integer(int64(def))
			} else {
				builder = schema.Number(float64(def))
			}
		case lua.LString:
			builder = schema.String(string(def))
		default:
			return nil, fmt.Errorf("%w: missing or unsupported default (%s)", ErrInvalidSetting, def.Type())
		}
	}
	builder.Description(desc)

	if n, ok := entry.RawGetString("min").(lua.LNumber); ok {
		builder.Minimum(float64(n))
	}
	if n, ok := entry.RawGetString("max").(lua.LNumber); ok {
		builder.Maximum(float64(n))
	}
	if n, ok := entry.RawGetString("min_length").(lua.LNumber); ok {
		builder.MinLength(int(n))
	}
	if n, ok := entry.RawGetString("max_length").(lua.LNumber); ok {
		builder.MaxLength(int(n))
	}
	if enum, ok := b.GetTableTable(entry, "enum"); ok {
		builder.Enum(b.stringList(enum)...)
	}
	if renamed, ok := b.GetTableTable(entry, "renamed_from"); ok {
		builder.RenamedFrom(b.stringList(renamed)...)
	}
	return builder.Build(), nil
}

// colorDefault reads {r, g, b} or {r, g, b, a}.
func (b *Bridge) colorDefault(t *lua.LTable) (*schema.Builder, error) {
	n := t.Len()
	if n != 3 && n != 4 {
		return nil, fmt.Errorf("%w: color needs 3 or 4 components, got %d", ErrInvalidSetting, n)
	}

	var rgb [3]uint8
	for i := range rgb {
		v, ok := t.RawGetInt(i + 1).(lua.LNumber)
		if !ok || v < 0 || v > 255 || float64(v) != float64(int64(v)) {
			return nil, fmt.Errorf("%w: color channel %d must be a whole number in [0, 255]", ErrInvalidSetting, i+1)
		}
		rgb[i] = uint8(v)
	}
	if n == 3 {
		return schema.RGB(rgb[0], rgb[1], rgb[2]), nil
	}

	a, ok := t.RawGetInt(4).(lua.LNumber)
	if !ok {
		return nil, fmt.Errorf("%w: color alpha must be a number", ErrInvalidSetting)
	}
	return schema.RGBA(rgb[0], rgb[1], rgb[2], float64(a)), nil
}

func (b *Bridge) stringList(t *lua.LTable) []string {
	out := make([]string, 0, t.Len())
	for i := 1; i <= t.Len(); i++ {
		if s, ok := t.RawGetInt(i).(lua.LString); ok {
			out = append(out, string(s))
		}
	}
	return out
}
