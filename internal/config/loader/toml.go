package loader

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// TOMLCodec reads and writes TOML documents.
//
// Encoding writes root-level leaves first, then one [table] per group.
// Within a table, leaves precede nested [a.b] tables; otherwise entries keep
// their given order. Leaf values are rendered by go-toml, with nested tables
// inside a leaf written inline.
type TOMLCodec struct{}

// Name implements Codec.
func (TOMLCodec) Name() string { return "toml" }

// Decode implements Codec.
func (TOMLCodec) Decode(data []byte) (Document, error) {
	var doc Document
	if err := toml.Unmarshal(data, &doc); err != nil {
		perr := &ParseError{Message: err.Error(), Err: err}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			perr.Line, perr.Column = derr.Position()
		}
		return nil, perr
	}
	if doc == nil {
		doc = make(Document)
	}
	return doc, nil
}

// Encode implements Codec.
func (TOMLCodec) Encode(entries []*Entry) ([]byte, error) {
	w := &tomlWriter{}
	if err := w.writeLeaves(entries); err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.IsGroup() {
			if err := w.writeTable([]string{e.Key}, e); err != nil {
				return nil, err
			}
		}
	}
	return w.buf.Bytes(), nil
}

type tomlWriter struct {
	buf bytes.Buffer
}

func (w *tomlWriter) writeComment(comment string) {
	for _, line := range splitComment(comment) {
		if line == "" {
			w.buf.WriteString("#\n")
			continue
		}
		w.buf.WriteString("# ")
		w.buf.WriteString(line)
		w.buf.WriteByte('\n')
	}
}

func (w *tomlWriter) writeLeaves(entries []*Entry) error {
	for _, e := range entries {
		if e.IsGroup() {
			continue
		}
		value, err := encodeTOMLValue(e.Value)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", e.Key, err)
		}
		w.writeComment(e.Comment)
		w.buf.WriteString(tomlKey(e.Key))
		w.buf.WriteString(" = ")
		w.buf.Write(value)
		w.buf.WriteByte('\n')
	}
	return nil
}

func (w *tomlWriter) writeTable(path []string, group *Entry) error {
	if w.buf.Len() > 0 {
		w.buf.WriteByte('\n')
	}
	w.writeComment(group.Comment)

	keys := make([]string, len(path))
	for i, p := range path {
		keys[i] = tomlKey(p)
	}
	w.buf.WriteString("[" + strings.Join(keys, ".") + "]\n")

	if err := w.writeLeaves(group.Children); err != nil {
		return fmt.Errorf("%s: %w", strings.Join(path, "."), err)
	}
	for _, e := range group.Children {
		if !e.IsGroup() {
			continue
		}
		sub := append(append([]string(nil), path...), e.Key)
		if err := w.writeTable(sub, e); err != nil {
			return err
		}
	}
	return nil
}

// encodeTOMLValue renders a single value by encoding a one-key table and
// keeping the right-hand side.
func encodeTOMLValue(v any) ([]byte, error) {
	if v == nil {
		return nil, errors.New("toml cannot represent a null value")
	}
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf).SetTablesInline(true)
	if err := enc.Encode(map[string]any{"v": v}); err != nil {
		return nil, err
	}
	out := bytes.TrimRight(buf.Bytes(), "\n")
	i := bytes.Index(out, []byte(" = "))
	if i < 0 {
		return nil, fmt.Errorf("unexpected toml encoding %q", out)
	}
	return out[i+3:], nil
}

func tomlKey(k string) string {
	if k == "" {
		return `""`
	}
	for _, c := range k {
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-' || c == '_' {
			continue
		}
		return strconv.Quote(k)
	}
	return k
}
