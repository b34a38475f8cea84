// Package config keeps a user-editable configuration document in step with
// the schema declared by the running modules.
//
// # Pipeline
//
// Every load runs the same steps:
//
//	┌──────────────┐   ┌─────────────┐   ┌──────────┐   ┌────────────┐
//	│ loader.Store │ → │  Reconcile  │ → │ persist  │ → │  Validate  │
//	└──────────────┘   └─────────────┘   └──────────┘   └────────────┘
//
// Reconcile keeps every value the user already has, inserts defaults for
// new keys and drops keys the schema no longer declares. The result is
// written back in schema order with each description as a comment, so a
// user sees new options the first time a new version runs. Writing is
// skipped when the encoded document is unchanged, which makes a reload
// triggered by the write itself a no-op.
//
// Validate then produces typed values. A leaf that fails its kind or
// constraints takes its default and is reported as a Violation; the file
// keeps the user's value.
//
// # Sub-packages
//
//   - loader: TOML and YAML codecs and the file store
//   - schema: schema nodes, builders, validation and typed values
//   - notify: change notification between successive loads
//   - watcher: file watching for live reload
//
// # Basic Usage
//
//	root := schema.Group().
//	    Field("Feature", schema.Group().
//	        Field("Enabled", schema.Bool(true).Description("Turn the feature on")).
//	        Field("Threshold", schema.Number(0.25).Range(0, 1))).
//	    Build()
//
//	m := config.NewManager(loader.NewStore("modcore.toml"))
//	res, err := m.Load(root)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	threshold := res.Values.Number("Feature.Threshold")
//
// # Error Handling
//
//   - ErrSchemaRoot: the schema root is not a group
//   - ErrPersist: the reconciled document could not be written
//   - loader.ParseError: the document could not be parsed
package config
