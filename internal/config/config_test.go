package config

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/modcore/internal/config/loader"
	"github.com/dshills/modcore/internal/config/notify"
	"github.com/dshills/modcore/internal/config/schema"
)

const featureTOML = `# Feature settings
[Feature]
# Turn the feature on
Enabled = true
# Cutoff in [0, 1]
Threshold = 0.25
`

func newTestManager(t *testing.T, path string, opts ...Option) (*Manager, afero.Fs) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	return NewManager(loader.NewStore(path, loader.WithFs(fsys)), opts...), fsys
}

func TestManager_FirstRunGeneratesDefaults(t *testing.T) {
	m, fsys := newTestManager(t, "/cfg/modcore.toml")

	res, err := m.Load(featureSchema())
	require.NoError(t, err)
	assert.False(t, res.Existed)
	assert.True(t, res.Saved)
	assert.NoError(t, res.Err())
	assert.Empty(t, res.Violations)
	assert.True(t, res.Values.Bool("Feature.Enabled"))

	data, err := afero.ReadFile(fsys, "/cfg/modcore.toml")
	require.NoError(t, err)
	assert.Equal(t, featureTOML, string(data))
}

func TestManager_SecondLoadDoesNotRewrite(t *testing.T) {
	m, fsys := newTestManager(t, "/modcore.toml")
	_, err := m.Load(featureSchema())
	require.NoError(t, err)

	info, err := fsys.Stat("/modcore.toml")
	require.NoError(t, err)

	res, err := m.Load(featureSchema())
	require.NoError(t, err)
	assert.True(t, res.Existed)
	assert.False(t, res.Saved)
	assert.Empty(t, res.Changes)

	after, err := fsys.Stat("/modcore.toml")
	require.NoError(t, err)
	assert.Equal(t, info.ModTime(), after.ModTime())
}

func TestManager_FeatureScenario(t *testing.T) {
	m, fsys := newTestManager(t, "/modcore.toml")
	require.NoError(t, afero.WriteFile(fsys, "/modcore.toml", []byte("[Feature]\nEnabled = false\nThreshold = 5\n"), 0o644))

	res, err := m.Load(featureSchema())
	require.NoError(t, err)

	assert.False(t, res.Values.Bool("Feature.Enabled"))
	assert.Equal(t, 0.25, res.Values.Number("Feature.Threshold"))
	require.Len(t, res.Violations, 1)
	assert.Equal(t, "Feature.Threshold", res.Violations[0].Path)

	data, err := afero.ReadFile(fsys, "/modcore.toml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "Threshold = 5\n")
	assert.Contains(t, string(data), "# Turn the feature on\nEnabled = false\n")
}

func TestManager_ParseErrorKeepsFile(t *testing.T) {
	var logs bytes.Buffer
	m, fsys := newTestManager(t, "/modcore.toml", WithLogger(zerolog.New(&logs)))
	broken := []byte("[Feature\nEnabled = ")
	require.NoError(t, afero.WriteFile(fsys, "/modcore.toml", broken, 0o644))

	res, err := m.Load(featureSchema())
	require.NoError(t, err)

	var perr *loader.ParseError
	require.True(t, errors.As(res.ReadErr, &perr))
	assert.True(t, res.Existed)
	assert.False(t, res.Saved)
	assert.True(t, res.Values.Bool("Feature.Enabled"))
	assert.Contains(t, logs.String(), "Configuration unreadable")

	data, err := afero.ReadFile(fsys, "/modcore.toml")
	require.NoError(t, err)
	assert.Equal(t, broken, data)
}

func TestManager_ReadOnly(t *testing.T) {
	m, fsys := newTestManager(t, "/modcore.toml", WithReadOnly(true))

	res, err := m.Load(featureSchema())
	require.NoError(t, err)
	assert.False(t, res.Saved)

	exists, err := afero.Exists(fsys, "/modcore.toml")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestManager_SaveError(t *testing.T) {
	fsys := afero.NewReadOnlyFs(afero.NewMemMapFs())
	m := NewManager(loader.NewStore("/modcore.toml", loader.WithFs(fsys)))

	res, err := m.Load(featureSchema())
	require.NoError(t, err)
	assert.ErrorIs(t, res.SaveErr, ErrPersist)
	assert.ErrorIs(t, res.Err(), ErrPersist)
	assert.NotNil(t, res.Values)
}

func TestManager_LogsViolations(t *testing.T) {
	var logs bytes.Buffer
	m, fsys := newTestManager(t, "/modcore.toml", WithLogger(zerolog.New(&logs)))
	require.NoError(t, afero.WriteFile(fsys, "/modcore.toml", []byte("[Feature]\nEnabled = 'no'\n"), 0o644))

	res, err := m.Load(featureSchema())
	require.NoError(t, err)
	require.Len(t, res.Violations, 1)
	assert.Contains(t, logs.String(), `"path":"Feature.Enabled"`)
	assert.Contains(t, logs.String(), "using default")
}

func TestManager_PublishesChanges(t *testing.T) {
	n := notify.New()
	var got []notify.Change
	n.SubscribePath("Feature", func(c notify.Change) {
		if c.Type == notify.ChangeSet {
			got = append(got, c)
		}
	})

	m, fsys := newTestManager(t, "/modcore.toml", WithNotifier(n))
	_, err := m.Load(featureSchema())
	require.NoError(t, err)
	got = nil

	require.NoError(t, afero.WriteFile(fsys, "/modcore.toml", []byte("[Feature]\nThreshold = 0.75\n"), 0o644))
	res, err := m.Load(featureSchema())
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "Feature.Threshold", got[0].Path)
	assert.Equal(t, 0.75, got[0].NewValue)
	assert.Equal(t, "/modcore.toml", got[0].Source)
	assert.Equal(t, res.Values, m.Current())
}

func TestManager_YAML(t *testing.T) {
	m, fsys := newTestManager(t, "/modcore.yaml")

	_, err := m.Load(featureSchema())
	require.NoError(t, err)

	data, err := afero.ReadFile(fsys, "/modcore.yaml")
	require.NoError(t, err)
	assert.Equal(t, `# Feature settings
Feature:
  # Turn the feature on
  Enabled: true
  # Cutoff in [0, 1]
  Threshold: 0.25
`, string(data))
}

func TestManager_SchemaRoot(t *testing.T) {
	m, _ := newTestManager(t, "/modcore.toml")
	_, err := m.Load(schema.Bool(true).Build())
	assert.ErrorIs(t, err, ErrSchemaRoot)
}
