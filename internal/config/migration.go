package config

import (
	"sort"

	"github.com/dshills/modcore/internal/config/loader"
	"github.com/dshills/modcore/internal/config/schema"
)

// Reconciled is a user document brought into the shape of the current
// schema. It contains exactly the schema's keys, in schema order, each
// holding the user's prior value when there was one and the default
// otherwise.
type Reconciled struct {
	entries []*loader.Entry
	doc     loader.Document

	// Inserted lists leaf paths that received their default.
	Inserted []string

	// Pruned lists document paths dropped because the schema no longer
	// has them, or because a group position held a non-table value.
	Pruned []string

	// Renamed lists values carried over from a legacy key.
	Renamed []Rename
}

// Rename records a value moved from a legacy key to its current name.
type Rename struct {
	From string
	To   string
}

// Reconcile merges an existing document with the schema rooted at root.
//
// Leaves keep the existing value verbatim, without validation; a null
// value counts as absent. Missing leaves and groups are filled with
// defaults. Keys unknown to the schema are dropped. A leaf missing under
// its current name takes the value of the first legacy name listed in its
// RenamedFrom that the document has.
//
// The existing document is not modified.
func Reconcile(existing loader.Document, root *schema.Node) *Reconciled {
	r := &Reconciled{}
	if root.IsGroup() {
		r.entries = r.group("", existing, root)
	} else {
		r.entries = []*loader.Entry{}
	}
	r.doc = loader.ToDocument(r.entries)
	return r
}

func (r *Reconciled) group(path string, existing map[string]any, node *schema.Node) []*loader.Entry {
	fields := node.Fields()
	entries := make([]*loader.Entry, 0, len(fields))
	known := make(map[string]bool, len(fields))

	for _, f := range fields {
		known[f.Name] = true
		childPath := schema.JoinPath(path, f.Name)
		entry := &loader.Entry{Key: f.Name, Comment: f.Node.Description}

		if f.Node.IsGroup() {
			raw, present := existing[f.Name]
			sub, ok := raw.(map[string]any)
			if present && raw != nil && !ok {
				r.Pruned = append(r.Pruned, childPath)
			}
			entry.Children = r.group(childPath, sub, f.Node)
			entries = append(entries, entry)
			continue
		}

		entry.Value = r.leaf(path, childPath, existing, f)
		entries = append(entries, entry)
	}

	var stale []string
	for key := range existing {
		if !known[key] {
			stale = append(stale, schema.JoinPath(path, key))
		}
	}
	sort.Strings(stale)
	r.Pruned = append(r.Pruned, stale...)

	return entries
}

func (r *Reconciled) leaf(path, childPath string, existing map[string]any, f *schema.Field) any {
	if v, ok := existing[f.Name]; ok && v != nil {
		return loader.CloneValue(v)
	}
	for _, legacy := range f.Node.RenamedFrom {
		if v, ok := existing[legacy]; ok && v != nil {
			r.Renamed = append(r.Renamed, Rename{From: schema.JoinPath(path, legacy), To: childPath})
			return loader.CloneValue(v)
		}
	}
	r.Inserted = append(r.Inserted, childPath)
	return f.Node.Defaults()
}

// Entries returns the ordered entry tree used for serialization.
func (r *Reconciled) Entries() []*loader.Entry {
	return r.entries
}

// Document returns a copy of the reconciled document.
func (r *Reconciled) Document() loader.Document {
	return loader.Clone(r.doc)
}

// Get returns the value at a dot-separated path.
func (r *Reconciled) Get(path string) (any, bool) {
	parts := schema.SplitPath(path)
	if len(parts) == 0 {
		return nil, false
	}

	current := any(r.doc)
	for _, part := range parts {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Changed reports whether reconciliation altered the document's shape.
func (r *Reconciled) Changed() bool {
	return len(r.Inserted) > 0 || len(r.Pruned) > 0 || len(r.Renamed) > 0
}
