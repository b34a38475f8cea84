package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYAMLCodec_EncodeKeepsOrderAndComments(t *testing.T) {
	out, err := YAMLCodec{}.Encode([]*Entry{
		{Key: "zeta", Comment: "Last letter", Value: true},
		{Key: "alpha", Children: []*Entry{
			{Key: "tint", Comment: "Tint color", Value: []any{int64(1), int64(2), int64(3)}},
		}},
	})
	require.NoError(t, err)

	want := `# Last letter
zeta: true
alpha:
  # Tint color
  tint: [1, 2, 3]
`
	assert.Equal(t, want, string(out))
}

func TestYAMLCodec_RoundTripIsStable(t *testing.T) {
	c := YAMLCodec{}
	first, err := c.Encode(sampleEntries())
	require.NoError(t, err)

	doc, err := c.Decode(first)
	require.NoError(t, err)
	assert.Equal(t, true, doc["Feature"].(map[string]any)["Enabled"])
	assert.Equal(t, "x", doc["Feature"].(map[string]any)["Sub"].(map[string]any)["Name"])

	entries := sampleEntries()
	entries[1].Children[3].Value = doc["Feature"].(map[string]any)["Tint"]
	second, err := c.Encode(entries)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestYAMLCodec_DecodeEmpty(t *testing.T) {
	doc, err := YAMLCodec{}.Decode([]byte(""))
	require.NoError(t, err)
	assert.Empty(t, doc)
}

func TestYAMLCodec_DecodeError(t *testing.T) {
	_, err := YAMLCodec{}.Decode([]byte("- a\n- b\n"))
	require.Error(t, err)
	assert.IsType(t, &ParseError{}, err)
}
