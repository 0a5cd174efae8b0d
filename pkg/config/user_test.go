package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadUser_Defaults(t *testing.T) {
	cfg, err := LoadUser(WithUserConfigPath(filepath.Join(t.TempDir(), "missing.toml")), WithoutEnv())
	require.NoError(t, err)

	assert.Empty(t, cfg.Abbreviations)
	assert.Equal(t, DefaultCacheDir(), cfg.CacheDir)
}

func TestLoadUser_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
cache_dir = "/var/cache/diecut"

[abbreviations]
company = "https://git.company.com/{}.git"
`), 0o644))

	cfg, err := LoadUser(WithUserConfigPath(path), WithoutEnv())
	require.NoError(t, err)

	assert.Equal(t, "/var/cache/diecut", cfg.CacheDir)
	assert.Equal(t, map[string]string{"company": "https://git.company.com/{}.git"}, cfg.Abbreviations)
}

func TestLoadUser_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("cache_dir = \"/from/file\"\n"), 0o644))

	t.Setenv("DIECUT_CACHE_DIR", "/from/env")
	t.Setenv("DIECUT_ABBREVIATIONS__CORP", "https://git.corp/{}.git")

	cfg, err := LoadUser(WithUserConfigPath(path))
	require.NoError(t, err)

	assert.Equal(t, "/from/env", cfg.CacheDir)
	assert.Equal(t, "https://git.corp/{}.git", cfg.Abbreviations["corp"])
}

func TestLoadUser_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("not valid [[ toml"), 0o644))

	_, err := LoadUser(WithUserConfigPath(path), WithoutEnv())
	require.Error(t, err)
}
