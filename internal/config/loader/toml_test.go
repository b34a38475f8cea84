package loader

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntries() []*Entry {
	return []*Entry{
		{Key: "Debug", Comment: "Verbose logging", Value: false},
		{Key: "Feature", Comment: "Feature settings", Children: []*Entry{
			{Key: "Enabled", Comment: "Turn on", Value: true},
			{Key: "Threshold", Comment: "Cutoff\nsecond line", Value: 0.25},
			{Key: "Sub", Children: []*Entry{
				{Key: "Name", Value: "x"},
			}},
			{Key: "Tint", Value: []any{int64(1), int64(2), int64(3)}},
		}},
	}
}

func TestTOMLCodec_Encode(t *testing.T) {
	out, err := TOMLCodec{}.Encode(sampleEntries())
	require.NoError(t, err)

	want := `# Verbose logging
Debug = false

# Feature settings
[Feature]
# Turn on
Enabled = true
# Cutoff
# second line
Threshold = 0.25
Tint = [1, 2, 3]

[Feature.Sub]
Name = 'x'
`
	assert.Equal(t, want, string(out))
}

func TestTOMLCodec_RoundTrip(t *testing.T) {
	c := TOMLCodec{}
	out, err := c.Encode(sampleEntries())
	require.NoError(t, err)

	doc, err := c.Decode(out)
	require.NoError(t, err)

	assert.Equal(t, ToDocument(sampleEntries()), doc)
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, doc["Feature"].(map[string]any)["Tint"])
}

func TestTOMLCodec_WholeFloatsStayFloats(t *testing.T) {
	c := TOMLCodec{}
	out, err := c.Encode([]*Entry{{Key: "n", Value: 5.0}, {Key: "i", Value: int64(5)}})
	require.NoError(t, err)
	assert.Equal(t, "n = 5.0\ni = 5\n", string(out))

	doc, err := c.Decode(out)
	require.NoError(t, err)
	assert.Equal(t, 5.0, doc["n"])
	assert.Equal(t, int64(5), doc["i"])
}

func TestTOMLCodec_InlineTableLeaf(t *testing.T) {
	out, err := TOMLCodec{}.Encode([]*Entry{{Key: "odd", Value: map[string]any{"b": int64(2), "a": int64(1)}}})
	require.NoError(t, err)
	assert.Equal(t, "odd = {a = 1, b = 2}\n", string(out))
}

func TestTOMLCodec_EmptyGroup(t *testing.T) {
	out, err := TOMLCodec{}.Encode([]*Entry{{Key: "Empty", Children: []*Entry{}}})
	require.NoError(t, err)
	assert.Equal(t, "[Empty]\n", string(out))
}

func TestTOMLCodec_QuotedKeys(t *testing.T) {
	out, err := TOMLCodec{}.Encode([]*Entry{{Key: "héllo", Value: true}})
	require.NoError(t, err)
	assert.Equal(t, "\"héllo\" = true\n", string(out))
}

func TestTOMLCodec_NullValue(t *testing.T) {
	_, err := TOMLCodec{}.Encode([]*Entry{{Key: "n", Value: nil}})
	assert.Error(t, err)
}

func TestTOMLCodec_DecodeEmpty(t *testing.T) {
	doc, err := TOMLCodec{}.Decode(nil)
	require.NoError(t, err)
	assert.Empty(t, doc)
}

func TestTOMLCodec_DecodeError(t *testing.T) {
	_, err := TOMLCodec{}.Decode([]byte("[broken\nkey = "))
	require.Error(t, err)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Greater(t, perr.Line, 0)
}

func TestCodecFor(t *testing.T) {
	assert.Equal(t, "toml", CodecFor("modcore.toml").Name())
	assert.Equal(t, "toml", CodecFor("modcore.cfg").Name())
	assert.Equal(t, "yaml", CodecFor("modcore.yaml").Name())
	assert.Equal(t, "yaml", CodecFor("MODCORE.YML").Name())
}

func TestParseError_Error(t *testing.T) {
	assert.Equal(t, "parse error in a.toml: bad", (&ParseError{Path: "a.toml", Message: "bad"}).Error())
	assert.Equal(t, "parse error in a.toml at line 3: bad", (&ParseError{Path: "a.toml", Line: 3, Message: "bad"}).Error())
	assert.Equal(t, "parse error in a.toml at line 3, column 2: bad",
		(&ParseError{Path: "a.toml", Line: 3, Column: 2, Message: "bad"}).Error())
}

func TestClone(t *testing.T) {
	src := Document{"a": map[string]any{"b": []any{int64(1)}}}
	dst := Clone(src)
	dst["a"].(map[string]any)["b"].([]any)[0] = int64(2)

	assert.Equal(t, int64(1), src["a"].(map[string]any)["b"].([]any)[0])
	assert.Nil(t, Clone(nil))
}
