package config

import (
	"maps"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/modcore/internal/config/loader"
	"github.com/dshills/modcore/internal/config/schema"
)

func featureSchema() *schema.Node {
	return schema.Group().
		Field("Feature", schema.Group().
			Description("Feature settings").
			Field("Enabled", schema.Bool(true).Description("Turn the feature on")).
			Field("Threshold", schema.Number(0.25).Range(0, 1).Description("Cutoff in [0, 1]"))).
		Build()
}

func richSchema() *schema.Node {
	return schema.Group().
		Field("Debug", schema.Bool(false).Description("Verbose logging")).
		Field("Hud", schema.Group().
			Description("Heads-up display\nshown while playing").
			Field("Enabled", schema.Bool(true)).
			Field("Scale", schema.Number(1.0).Range(0.5, 4)).
			Field("Mode", schema.StringEnum("compact", "compact", "full")).
			Field("Tint", schema.RGB(255, 128, 0).Description("Text color")).
			Field("Shade", schema.RGBA(0, 0, 0, 0.5)).
			Field("Layout", schema.Group().
				Field("Columns", schema.IntRange(2, 1, 6)).
				Field("Title", schema.String("Stats")))).
		Field("Radar", schema.Group().
			Field("Range", schema.Integer(64).RenamedFrom("Distance"))).
		Build()
}

func TestReconcile_FeatureScenario(t *testing.T) {
	doc := loader.Document{
		"Feature": map[string]any{"Enabled": false, "Threshold": int64(5)},
	}

	r := Reconcile(doc, featureSchema())
	assert.Equal(t, loader.Document{
		"Feature": map[string]any{"Enabled": false, "Threshold": int64(5)},
	}, r.Document())
	assert.False(t, r.Changed())

	values, violations := schema.Validate(r.Document(), featureSchema())
	assert.False(t, values.Bool("Feature.Enabled"))
	assert.Equal(t, 0.25, values.Number("Feature.Threshold"))
	require.Len(t, violations, 1)
	assert.Equal(t, "Feature.Threshold", violations[0].Path)
}

func TestReconcile_EmptyDocumentTwoGroups(t *testing.T) {
	root := schema.Group().
		Field("Zeta", schema.Group().
			Field("B", schema.Bool(true)).
			Field("A", schema.Integer(3))).
		Field("Alpha", schema.Group().
			Field("Y", schema.String("y")).
			Field("X", schema.Number(0.5))).
		Build()

	r := Reconcile(loader.Document{}, root)

	assert.Equal(t, root.Defaults(), map[string]any(r.Document()))

	var order []string
	var walk func(prefix string, entries []*loader.Entry)
	walk = func(prefix string, entries []*loader.Entry) {
		for _, e := range entries {
			order = append(order, schema.JoinPath(prefix, e.Key))
			if e.IsGroup() {
				walk(schema.JoinPath(prefix, e.Key), e.Children)
			}
		}
	}
	walk("", r.Entries())
	assert.Equal(t, []string{"Zeta", "Zeta.B", "Zeta.A", "Alpha", "Alpha.Y", "Alpha.X"}, order)
	assert.Equal(t, []string{"Zeta.B", "Zeta.A", "Alpha.Y", "Alpha.X"}, r.Inserted)

	out, err := loader.TOMLCodec{}.Encode(r.Entries())
	require.NoError(t, err)
	assert.Equal(t, "[Zeta]\nB = true\nA = 3\n\n[Alpha]\nY = 'y'\nX = 0.5\n", string(out))
}

func TestReconcile_PreservesValues(t *testing.T) {
	doc := loader.Document{
		"Debug": true,
		"Hud": map[string]any{
			"Scale":  "huge",
			"Tint":   "#00ff00",
			"Layout": map[string]any{"Columns": int64(99)},
		},
	}

	r := Reconcile(doc, richSchema())

	for path, want := range map[string]any{
		"Debug":              true,
		"Hud.Scale":          "huge",
		"Hud.Tint":           "#00ff00",
		"Hud.Layout.Columns": int64(99),
	} {
		got, ok := r.Get(path)
		require.True(t, ok, path)
		assert.Equal(t, want, got, path)
	}
}

func TestReconcile_InsertsDefaults(t *testing.T) {
	r := Reconcile(loader.Document{"Hud": map[string]any{"Enabled": false}}, richSchema())

	got, _ := r.Get("Hud.Tint")
	assert.Equal(t, []any{int64(255), int64(128), int64(0)}, got)
	got, _ = r.Get("Hud.Layout.Title")
	assert.Equal(t, "Stats", got)
	got, _ = r.Get("Hud.Enabled")
	assert.Equal(t, false, got)
	assert.NotContains(t, r.Inserted, "Hud.Enabled")
	assert.Contains(t, r.Inserted, "Radar.Range")
}

func TestReconcile_PrunesStaleKeys(t *testing.T) {
	doc := loader.Document{
		"Old":   int64(1),
		"Debug": false,
		"Hud": map[string]any{
			"Removed": "x",
			"Layout":  "not a table",
		},
		"Radar": map[string]any{"Range": int64(10)},
	}

	r := Reconcile(doc, richSchema())
	out := r.Document()

	assert.NotContains(t, out, "Old")
	assert.NotContains(t, out["Hud"], "Removed")
	assert.Equal(t, []string{"Hud.Layout", "Hud.Removed", "Old"}, r.Pruned)

	layout, ok := r.Get("Hud.Layout")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"Columns": int64(2), "Title": "Stats"}, layout)

	assert.ElementsMatch(t, []string{"Debug", "Hud", "Radar"}, slices.Collect(maps.Keys(out)))
}

func TestReconcile_NullIsAbsent(t *testing.T) {
	r := Reconcile(loader.Document{"Debug": nil, "Hud": nil}, richSchema())

	got, _ := r.Get("Debug")
	assert.Equal(t, false, got)
	got, _ = r.Get("Hud.Mode")
	assert.Equal(t, "compact", got)
	assert.Empty(t, r.Pruned)
}

func TestReconcile_RenamedFrom(t *testing.T) {
	doc := loader.Document{"Radar": map[string]any{"Distance": int64(128)}}

	r := Reconcile(doc, richSchema())

	got, _ := r.Get("Radar.Range")
	assert.Equal(t, int64(128), got)
	assert.Equal(t, []Rename{{From: "Radar.Distance", To: "Radar.Range"}}, r.Renamed)
	assert.Equal(t, []string{"Radar.Distance"}, r.Pruned)

	// The current name wins over a legacy one.
	doc = loader.Document{"Radar": map[string]any{"Distance": int64(128), "Range": int64(7)}}
	got, _ = Reconcile(doc, richSchema()).Get("Radar.Range")
	assert.Equal(t, int64(7), got)
}

func TestReconcile_DoesNotAliasInput(t *testing.T) {
	tint := []any{int64(1), int64(2), int64(3)}
	doc := loader.Document{"Hud": map[string]any{"Tint": tint}}

	r := Reconcile(doc, richSchema())
	got, _ := r.Get("Hud.Tint")
	got.([]any)[0] = int64(9)

	assert.Equal(t, int64(1), tint[0])
}

func TestReconcile_NonGroupRoot(t *testing.T) {
	r := Reconcile(loader.Document{"a": 1}, schema.Bool(true).Build())
	assert.Empty(t, r.Entries())
	assert.Empty(t, r.Document())
}

func TestReconcile_Idempotent(t *testing.T) {
	docs := map[string]loader.Document{
		"empty": {},
		"partial": {
			"Hud": map[string]any{"Scale": 2.0, "Mode": "full", "Shade": []any{int64(1), int64(2), int64(3), 0.25}},
		},
		"messy": {
			"Stale": "gone",
			"Debug": "yes",
			"Hud": map[string]any{
				"Tint":   "#112233",
				"Layout": map[string]any{"Columns": 2.5, "Title": "It's \"quoted\"\nand multi-line"},
				"Extra":  map[string]any{"x": int64(1)},
			},
			"Radar": map[string]any{"Distance": int64(3)},
		},
	}

	codecs := []loader.Codec{loader.TOMLCodec{}, loader.YAMLCodec{}}
	for _, codec := range codecs {
		for name, doc := range docs {
			t.Run(codec.Name()+"/"+name, func(t *testing.T) {
				first, err := codec.Encode(Reconcile(doc, richSchema()).Entries())
				require.NoError(t, err)

				decoded, err := codec.Decode(first)
				require.NoError(t, err)
				again := Reconcile(decoded, richSchema())
				assert.False(t, again.Changed())

				second, err := codec.Encode(again.Entries())
				require.NoError(t, err)
				assert.Equal(t, string(first), string(second))
			})
		}
	}
}
