package loader

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_LoadMissing(t *testing.T) {
	s := NewStore("/cfg/modcore.toml", WithFs(afero.NewMemMapFs()))

	doc, exists, err := s.Load()
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Empty(t, doc)
}

func TestStore_SaveThenLoad(t *testing.T) {
	fsys := afero.NewMemMapFs()
	s := NewStore("/cfg/nested/modcore.toml", WithFs(fsys))

	require.NoError(t, s.Save(sampleEntries()))

	doc, exists, err := s.Load()
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, ToDocument(sampleEntries()), doc)

	_, err = fsys.Stat("/cfg/nested/modcore.toml.tmp")
	assert.Error(t, err, "temporary file should be renamed away")
}

func TestStore_LoadParseError(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/modcore.toml", []byte("Feature = [unclosed\n"), 0o644))
	s := NewStore("/modcore.toml", WithFs(fsys))

	doc, exists, err := s.Load()
	require.Error(t, err)
	assert.True(t, exists)
	assert.Empty(t, doc)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "/modcore.toml", perr.Path)
}

func TestStore_YAMLByExtension(t *testing.T) {
	fsys := afero.NewMemMapFs()
	s := NewStore("/modcore.yaml", WithFs(fsys))
	assert.Equal(t, "yaml", s.Codec().Name())

	require.NoError(t, s.Save([]*Entry{{Key: "Debug", Comment: "Verbose", Value: true}}))

	raw, err := s.ReadRaw()
	require.NoError(t, err)
	assert.Equal(t, "# Verbose\nDebug: true\n", string(raw))
}

func TestStore_WithCodec(t *testing.T) {
	s := NewStore("/modcore.conf", WithFs(afero.NewMemMapFs()), WithCodec(YAMLCodec{}))
	assert.Equal(t, "yaml", s.Codec().Name())
	assert.Equal(t, "/modcore.conf", s.Path())
}

func TestStore_SaveEncodingError(t *testing.T) {
	fsys := afero.NewMemMapFs()
	s := NewStore("/modcore.toml", WithFs(fsys))

	err := s.Save([]*Entry{{Key: "n", Value: nil}})
	require.Error(t, err)

	exists, _ := afero.Exists(fsys, "/modcore.toml")
	assert.False(t, exists)
}
