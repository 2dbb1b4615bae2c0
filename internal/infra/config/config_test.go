package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
s3:
  region: us-east-1
  bucket: vids
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, int64(5*1024*1024), cfg.Download.PartSize)
	assert.Equal(t, 120, cfg.Download.TimeoutSeconds)
	assert.Equal(t, "yt-dlp", cfg.Resolver.Binary)
	assert.Equal(t, "vodarc.db", cfg.Store.SQLitePath)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadRequiresBucket(t *testing.T) {
	path := writeConfig(t, `
s3:
  region: us-east-1
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3.bucket")
}

func TestLoadRejectsUndersizedParts(t *testing.T) {
	path := writeConfig(t, `
s3:
  region: us-east-1
  bucket: vids
download:
  part_size: 1024
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "part_size")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
