package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvAddr, "")
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	s, err := Load(filepath.Join(t.TempDir(), "none.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
	assert.Equal(t, 12.0, s.Layout.MarginLeft)
	assert.Equal(t, 3, s.Gemini.ImageConcurrency)
	assert.Equal(t, 920.0, s.Pagination.BaseThresholdContent)
}

func TestLoadPartialFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[layout]
header_top_gap = 8
margin_left = 20

[server]
addr = ":9000"
`), 0o600))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8.0, s.Layout.HeaderTopGap)
	assert.Equal(t, 20.0, s.Layout.MarginLeft)
	assert.Equal(t, 12.0, s.Layout.MarginRight, "unset keys keep defaults")
	assert.Equal(t, ":9000", s.Server.Addr)
	assert.Equal(t, Default().Gemini, s.Gemini)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(EnvAPIKey, "secret")
	t.Setenv(EnvAddr, ":7000")
	s, err := Load(filepath.Join(t.TempDir(), "none.toml"))
	require.NoError(t, err)
	assert.Equal(t, "secret", s.Gemini.APIKey)
	assert.Equal(t, ":7000", s.Server.Addr)
}

func TestLoadInvalid(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[layout\nmargin_left = "), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	s := Default()
	s.Gemini.APIKey = "k"
	s.Gemini.Temperature = 0.5
	s.Layout.HeaderContentGap = 4
	s.Export.Format = "pdf"

	require.NoError(t, Save(path, s))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, s, loaded)
}

func TestPaginationOptions(t *testing.T) {
	o := Pagination{BaseThresholdContent: 900, FallbackSplitRatio: 2}.Options()
	assert.Equal(t, 900.0, o.BaseThresholdContent)
	assert.Equal(t, 1000.0, o.BaseThresholdCover)
	assert.Equal(t, 0.7, o.FallbackSplitRatio, "out of range ratios are ignored")
	assert.Equal(t, 50, o.MaxPages)
}

func TestGeminiConversions(t *testing.T) {
	g := Default().Gemini
	g.APIKey = "k"
	assert.Equal(t, "k", g.Client().APIKey)
	assert.Equal(t, g.TextModel, g.Client().TextModel)
	assert.Equal(t, 2, g.Generation().ImageBurst)
}
