package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields and format validations for Config.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Missing install directory.
	cfg := new(Config)

	err := Validate(cfg)
	require.Error(t, err)

	// Bad API URL.
	cfg = &Config{
		InstallDir: t.TempDir(),
		APIURL:     "not a url",
	}

	err = Validate(cfg)
	require.Error(t, err)

	// Defaults are filled for everything else.
	cfg = &Config{
		InstallDir: t.TempDir(),
	}

	err = Validate(cfg)
	require.NoError(t, err)
	require.Equal(t, DefaultAPIURL, cfg.APIURL)
	require.Equal(t, DefaultDownloadBaseURL, cfg.DownloadBaseURL)
	require.Equal(t, DefaultServiceName, cfg.ServiceName)
	require.Equal(t, DefaultTimeout, cfg.Timeout)
	require.NotEmpty(t, cfg.DownloadDir)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	cfg := Default()
	cfg.InstallDir = dir
	cfg.AllowPrerelease = true
	cfg.Backup = true
	cfg.Force = true

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.InstallDir, loaded.InstallDir)
	require.Equal(t, cfg.APIURL, loaded.APIURL)
	require.True(t, loaded.AllowPrerelease)
	require.True(t, loaded.Backup)

	// Force is a runtime flag and never persisted.
	require.False(t, loaded.Force)

	// File exists.
	_, err = os.Stat(path)
	require.NoError(t, err)
}
