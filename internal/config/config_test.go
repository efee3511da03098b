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
	dir := t.TempDir()
	path := filepath.Join(dir, "patsak.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestReadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "app_name: myapp\n")
	cfg, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "myapp", cfg.AppName)
	assert.Equal(t, "0.0.0.0:7500", cfg.HostPort)
	assert.Equal(t, "public", cfg.DB.Schema)
}

func TestReadOverridesDatabaseFields(t *testing.T) {
	path := writeConfig(t, "database:\n  host: db.internal\n  schema: app\n")
	cfg, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.DB.Host)
	assert.Equal(t, "app", cfg.DB.Schema)
}

func TestDatabaseDSNPrefersConnString(t *testing.T) {
	db := Database{ConnString: "postgres://explicit", Host: "ignored"}
	assert.Equal(t, "postgres://explicit", db.DSN())
}

func TestDatabaseDSNBuildsFromFields(t *testing.T) {
	db := Database{Host: "localhost", Port: 5432, User: "u", Password: "p", DBName: "d"}
	assert.Equal(t, "postgres://u:p@localhost:5432/d?sslmode=disable", db.DSN())
}

func TestShouldUseJSONLogs(t *testing.T) {
	cfg := &Config{Serv: Serv{LogFormat: "auto", Production: true}}
	assert.True(t, cfg.ShouldUseJSONLogs())

	cfg.Production = false
	assert.False(t, cfg.ShouldUseJSONLogs())

	cfg.LogFormat = "json"
	assert.True(t, cfg.ShouldUseJSONLogs())
}

func TestEnvOverride(t *testing.T) {
	path := writeConfig(t, "app_name: myapp\n")
	t.Setenv("PATSAK_APP_NAME", "from-env")
	cfg, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.AppName)
}
