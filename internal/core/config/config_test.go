package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMissingFileUsesDefaults(t *testing.T) {
	c, err := Read(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", c.DB.Driver)
	assert.Equal(t, "./data/local_database.db", c.DB.DSN)
	assert.Equal(t, 30, c.Backup.IntervalMin)
	assert.Equal(t, 0, c.Backup.Keep)
	assert.Equal(t, "session", c.Session.CookieName)
	assert.Equal(t, 8080, c.App.HTTP.Port)
}

func TestReadYAMLOverridesAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := []byte(`
app:
  http:
    port: 9090
db:
  dsn: /tmp/x.db
backup:
  interval_min: 5
  keep: 3
storage:
  upload_dir: /srv/uploads
`)
	require.NoError(t, os.WriteFile(path, yaml, 0o644))
	t.Setenv("APP_SESSION_SECRET", "from-env")

	c, err := Read(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, c.App.HTTP.Port)
	assert.Equal(t, "/tmp/x.db", c.DB.DSN)
	assert.Equal(t, 5, c.Backup.IntervalMin)
	assert.Equal(t, 3, c.Backup.Keep)
	assert.Equal(t, "/srv/uploads", c.Storage.UploadDir)
	assert.Equal(t, "from-env", c.Session.Secret)
}

func TestReadRejectsBrokenYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app: [unclosed"), 0o644))

	_, err := Read(path)
	assert.Error(t, err)
}
