package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskbank/app/logic"
	"taskbank/app/store"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "taskbank.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: 127.0.0.1:9000
  shutdown_timeout: 3s
store:
  driver: sqlite
  sqlite:
    path: /tmp/tasks.db
log:
  level: debug
board:
  unpositioned_locks: drop
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout, "unset keys keep defaults")
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "/tmp/tasks.db", cfg.Store.SQLite.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, logic.UnpositionedDrop, cfg.Compiler().Unpositioned)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TASKBANK_ADDR", ":7070")
	t.Setenv("TASKBANK_STORE", "memory")
	t.Setenv("NEO4J_URI", "neo4j://db:7687")
	t.Setenv("NEO4J_PASSWORD", "secret")

	cfg, err := Load(writeConfig(t, "server:\n  addr: :9000\n"))
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, "neo4j://db:7687", cfg.Store.Neo4j.URI)
	assert.Equal(t, "secret", cfg.Store.Neo4j.Password)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad yaml":     "server: [",
		"bad driver":   "store:\n  driver: postgres\n",
		"bad policy":   "board:\n  unpositioned_locks: ignore\n",
		"empty sqlite": "store:\n  driver: sqlite\n  sqlite:\n    path: \"\"\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	s, err := OpenStore(ctx, StoreConfig{Driver: DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &store.MemoryStore{}, s)

	s, err = OpenStore(ctx, StoreConfig{
		Driver: DriverSQLite,
		SQLite: SQLiteConfig{Path: filepath.Join(t.TempDir(), "tasks.db")},
	})
	require.NoError(t, err)
	assert.IsType(t, &store.SQLiteStore{}, s)
	require.NoError(t, s.Close(ctx))

	_, err = OpenStore(ctx, StoreConfig{Driver: "postgres"})
	assert.Error(t, err)
}
