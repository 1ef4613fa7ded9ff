// Package config loads taskbank settings: built-in defaults, then an optional
// YAML file, then environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"taskbank/app/logic"
)

// DefaultPath is read when no --config flag is given. A missing file is fine.
const DefaultPath = "taskbank.yaml"

// Store drivers.
const (
	DriverNeo4j  = "neo4j"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Neo4jConfig holds the Neo4j connection settings.
type Neo4jConfig struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// SQLiteConfig locates the SQLite database file.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// StoreConfig selects and configures the task store.
type StoreConfig struct {
	Driver string       `yaml:"driver"`
	Neo4j  Neo4jConfig  `yaml:"neo4j"`
	SQLite SQLiteConfig `yaml:"sqlite"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// BoardConfig tunes how Main is compiled.
type BoardConfig struct {
	// UnpositionedLocks is "reorder" or "drop".
	UnpositionedLocks string `yaml:"unpositioned_locks"`
}

// Config models taskbank.yaml.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
	Log    LogConfig    `yaml:"log"`
	Board  BoardConfig  `yaml:"board"`
}

// Default returns the settings used when nothing else is configured.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            "0.0.0.0:8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Driver: DriverNeo4j,
			Neo4j: Neo4jConfig{
				URI:      "neo4j://neo4j:7687",
				Username: "neo4j",
				Password: "password",
			},
			SQLite: SQLiteConfig{Path: "db/tasks.db"},
		},
		Log: LogConfig{Level: "info"},
		Board: BoardConfig{
			UnpositionedLocks: string(logic.UnpositionedReorder),
		},
	}
}

// Load reads path over the defaults and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.Server.Addr, "TASKBANK_ADDR")
	set(&c.Store.Driver, "TASKBANK_STORE")
	set(&c.Store.SQLite.Path, "TASKBANK_SQLITE_PATH")
	set(&c.Log.Level, "TASKBANK_LOG_LEVEL")
	set(&c.Store.Neo4j.URI, "NEO4J_URI")
	set(&c.Store.Neo4j.Username, "NEO4J_USERNAME")
	set(&c.Store.Neo4j.Password, "NEO4J_PASSWORD")
	set(&c.Store.Neo4j.Database, "NEO4J_DATABASE")
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverNeo4j:
		if c.Store.Neo4j.URI == "" {
			return errors.New("config: store.neo4j.uri is required")
		}
	case DriverSQLite:
		if c.Store.SQLite.Path == "" {
			return errors.New("config: store.sqlite.path is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	if c.Server.Addr == "" {
		return errors.New("config: server.addr is required")
	}
	if _, err := logic.ParseUnpositionedPolicy(c.Board.UnpositionedLocks); err != nil {
		return fmt.Errorf("config: board: %w", err)
	}
	return nil
}

// Compiler returns the Main compiler described by the board settings.
func (c *Config) Compiler() logic.Compiler {
	policy, _ := logic.ParseUnpositionedPolicy(c.Board.UnpositionedLocks)
	return logic.Compiler{Unpositioned: policy}
}
