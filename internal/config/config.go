package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Default values applied when the config file or environment leaves a field unset.
const (
	DefaultListenAddr = ":8080"
	DefaultChunkSize  = 500
)

// Config holds the runtime configuration for mediadex.
type Config struct {
	// LibraryRoot is the root of the on-disk media library. It must contain
	// an "items" subdirectory holding one sidecar directory per item.
	LibraryRoot string `toml:"library_root"`

	// DatabasePath is the full path to the SQLite index file. The parent
	// directory must exist and be writable.
	DatabasePath string `toml:"database_path"`

	// ListenAddr is the address the API server binds to.
	ListenAddr string `toml:"listen_addr"`

	// ChunkSize is the number of items processed per read+write chunk.
	ChunkSize int `toml:"chunk_size"`

	// StatWorkers caps the stat/diff phase concurrency. 0 derives it from
	// host CPU count.
	StatWorkers int `toml:"stat_workers"`

	// ParseWorkers caps the read+hash+normalize phase concurrency. 0 derives
	// it from host CPU count.
	ParseWorkers int `toml:"parse_workers"`

	// MtimeMapPath points at the optional bulk modification-time map.
	// Empty means "<library_root>/mtimes.json".
	MtimeMapPath string `toml:"mtime_map_path"`

	// FolderTreePath points at the optional folder hierarchy description.
	// Empty disables recursive folder aggregation (fallback path).
	FolderTreePath string `toml:"folder_tree_path"`
}

// ItemsDir returns the directory containing the per-item sidecar directories.
func (c *Config) ItemsDir() string {
	return filepath.Join(c.LibraryRoot, "items")
}

// ResolvedMtimeMapPath returns the configured mtime map path or its default.
func (c *Config) ResolvedMtimeMapPath() string {
	if c.MtimeMapPath != "" {
		return c.MtimeMapPath
	}
	return filepath.Join(c.LibraryRoot, "mtimes.json")
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path and applies
// environment overrides and defaults.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// FromEnv builds a Config purely from environment variables and defaults,
// for deployments without a config file.
func FromEnv() *Config {
	cfg := &Config{}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg
}

// applyEnv overlays MEDIADEX_* environment variables onto the config.
func (c *Config) applyEnv() {
	if v := os.Getenv("MEDIADEX_LIBRARY_ROOT"); v != "" {
		c.LibraryRoot = v
	}
	if v := os.Getenv("MEDIADEX_DATABASE_PATH"); v != "" {
		c.DatabasePath = v
	}
	if v := os.Getenv("MEDIADEX_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("MEDIADEX_CHUNK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.ChunkSize = n
		}
	}
	if v := os.Getenv("MEDIADEX_STAT_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.StatWorkers = n
		}
	}
	if v := os.Getenv("MEDIADEX_PARSE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.ParseWorkers = n
		}
	}
	if v := os.Getenv("MEDIADEX_MTIME_MAP_PATH"); v != "" {
		c.MtimeMapPath = v
	}
	if v := os.Getenv("MEDIADEX_FOLDER_TREE_PATH"); v != "" {
		c.FolderTreePath = v
	}
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.DatabasePath == "" && c.LibraryRoot != "" {
		c.DatabasePath = filepath.Join(c.LibraryRoot, "index.db")
	}
}

// Validate checks that the library layout required by the sync pipeline is
// present. A failure here is fatal: no sync run may start against a missing
// or partial library root.
func (c *Config) Validate() error {
	if c.LibraryRoot == "" {
		return fmt.Errorf("library_root is required")
	}

	info, err := os.Stat(c.LibraryRoot)
	if err != nil {
		return fmt.Errorf("library root %s: %w", c.LibraryRoot, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("library root %s is not a directory", c.LibraryRoot)
	}

	itemsDir := c.ItemsDir()
	info, err = os.Stat(itemsDir)
	if err != nil {
		return fmt.Errorf("items directory %s: %w", itemsDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("items path %s is not a directory", itemsDir)
	}

	if c.DatabasePath == "" {
		return fmt.Errorf("database_path is required")
	}

	return nil
}

// Init writes a config file at the specified path, refusing to overwrite.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}
