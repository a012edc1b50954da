package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("storage", "", "")
	fs.String("delete-policy", "", "")
	fs.String("output", "", "")
	fs.Bool("no-seed", false, "")
	fs.String("unmapped", "", "")
	return fs
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "cascade", cfg.DeletePolicy)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "table", cfg.Output)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.True(t, cfg.Seed.Auto)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage:
  driver: sqlite
  sqlite_path: from-file.db
delete_policy: restrict
output: json
log:
  level: debug
`), 0o600))
	t.Setenv("REGISTRAR_DELETE_POLICY", "orphan")
	t.Setenv("REGISTRAR_STORAGE__SQLITE_PATH", "from-env.db")

	fs := testFlags()
	require.NoError(t, fs.Parse([]string{"--output", "csv", "--no-seed", "--unmapped", "x"}))

	cfg, err := Load(path, fs)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Storage.Driver, "file overrides default")
	assert.Equal(t, "from-env.db", cfg.Storage.SQLitePath, "env overrides file")
	assert.Equal(t, "orphan", cfg.DeletePolicy, "env overrides file")
	assert.Equal(t, "csv", cfg.Output, "flag overrides file")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.False(t, cfg.Seed.Auto, "--no-seed disables auto seeding")
}

func TestLoadPicksUpDefaultFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFile), []byte("unique_names: true\n"), 0o600))

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.True(t, cfg.UniqueNames)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Chdir(t.TempDir())
	tests := []struct {
		name      string
		env       map[string]string
		errSubstr string
	}{
		{"delete policy", map[string]string{"REGISTRAR_DELETE_POLICY": "sometimes"}, "delete_policy"},
		{"storage driver", map[string]string{"REGISTRAR_STORAGE__DRIVER": "etcd"}, "storage.driver"},
		{"output", map[string]string{"REGISTRAR_OUTPUT": "xml"}, "output"},
		{"s3 bucket", map[string]string{"REGISTRAR_BLOB__DRIVER": "s3"}, "blob.s3.bucket"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("", nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
}
