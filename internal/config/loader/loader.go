// Package loader reads and writes the user configuration document.
//
// Documents are decoded into untyped nested maps and encoded from an
// ordered Entry tree, so that a regenerated file always lists keys in
// schema order with their description comments above them. TOML is the
// default format; YAML is selected by file extension.
package loader

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Document is an untyped configuration document: nested string-keyed maps
// whose leaves are raw decoded values.
type Document = map[string]any

// Entry is one key of an ordered document tree.
type Entry struct {
	// Key is the entry name within its parent.
	Key string

	// Comment is written above the entry. Multiple lines are allowed.
	Comment string

	// Value holds the leaf value. It is ignored for groups.
	Value any

	// Children holds group members in output order. A non-nil slice, even
	// an empty one, marks the entry as a group.
	Children []*Entry
}

// IsGroup reports whether the entry is a group.
func (e *Entry) IsGroup() bool {
	return e.Children != nil
}

// Codec converts between bytes and documents.
type Codec interface {
	// Name returns the format name.
	Name() string

	// Decode parses data into a document. Empty input is an empty document.
	Decode(data []byte) (Document, error)

	// Encode renders entries in order, with comments.
	Encode(entries []*Entry) ([]byte, error)
}

// CodecFor selects a codec from a file extension. Unknown extensions use
// TOML.
func CodecFor(path string) Codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAMLCodec{}
	default:
		return TOMLCodec{}
	}
}

// ToDocument flattens an entry tree into a document.
func ToDocument(entries []*Entry) Document {
	doc := make(Document, len(entries))
	for _, e := range entries {
		if e.IsGroup() {
			doc[e.Key] = ToDocument(e.Children)
			continue
		}
		doc[e.Key] = e.Value
	}
	return doc
}

// ParseError represents an error while parsing a configuration file.
type ParseError struct {
	Path    string
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("parse error in %s at line %d, column %d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s at line %d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Clone creates a deep copy of a document.
func Clone(src Document) Document {
	if src == nil {
		return nil
	}

	dst := make(Document, len(src))
	for key, val := range src {
		dst[key] = CloneValue(val)
	}
	return dst
}

// CloneValue deep-copies maps and slices inside a decoded value.
func CloneValue(val any) any {
	switch v := val.(type) {
	case map[string]any:
		return Clone(v)
	case []any:
		dst := make([]any, len(v))
		for i, item := range v {
			dst[i] = CloneValue(item)
		}
		return dst
	default:
		return val
	}
}

// splitComment breaks a comment into lines, dropping trailing blank ones.
func splitComment(comment string) []string {
	comment = strings.TrimRight(strings.ReplaceAll(comment, "\r\n", "\n"), "\n")
	if comment == "" {
		return nil
	}
	return strings.Split(comment, "\n")
}
