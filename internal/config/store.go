package config

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"uetool/internal/fault"
	"uetool/internal/lockfile"
	"uetool/internal/paths"
)

// Store reads and writes the configuration file.
type Store struct {
	path     string
	lockPath string
}

// NewStore returns a store for the files laid out in pp.
func NewStore(pp paths.UserPaths) *Store {
	return &Store{path: pp.ConfigFile, lockPath: pp.LockFile}
}

// Path returns the configuration file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the configuration. A missing file is created with the default
// configuration. A file that fails to decode yields a
// *fault.ConfigCorruptionError rather than an empty configuration.
func (s *Store) Load() (Config, error) {
	contents, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			if err := s.Save(cfg); err != nil {
				return Config{}, err
			}
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(contents))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, &fault.ConfigCorruptionError{Path: s.path, Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, &fault.ConfigCorruptionError{Path: s.path, Err: err}
	}
	if cfg.Engines == nil {
		cfg.Engines = []EngineEntry{}
	}
	return cfg, nil
}

// Save overwrites the configuration file atomically.
func (s *Store) Save(cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("prepare config directory: %w", err)
	}

	buf, err := cfg.Marshal()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "config-*.json")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		return fmt.Errorf("write config temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close config temp: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}

// Update runs load, mutate and save under the store's exclusive lock so
// concurrent invocations cannot lose each other's writes. Returning an error
// from fn leaves the file untouched.
func (s *Store) Update(ctx context.Context, fn func(*Config) error) (Config, error) {
	release, err := lockfile.Acquire(ctx, s.lockPath)
	if err != nil {
		return Config{}, err
	}
	defer release()

	cfg, err := s.Load()
	if err != nil {
		return Config{}, err
	}
	if err := fn(&cfg); err != nil {
		return Config{}, err
	}
	if err := s.Save(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
