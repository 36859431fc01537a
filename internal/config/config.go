// Package config persists the engines registered by hand and the engine
// source directory, and loads user settings.
package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"uetool/internal/engine"
	"uetool/internal/version"
)

// EngineEntry is a manually registered engine as stored on disk.
type EngineEntry struct {
	Version version.Version `json:"Version"`
	Path    string          `json:"Path"`
}

// Config is the persisted uetool state. Scanned engines are derived from
// SourceDirectory at load time and never stored.
type Config struct {
	Engines         []EngineEntry `json:"Engines"`
	SourceDirectory string        `json:"SourceDirectory"`
}

// Default returns the empty configuration written on first use.
func Default() Config {
	return Config{Engines: []EngineEntry{}}
}

// Validate rejects entries that cannot describe an engine.
func (c Config) Validate() error {
	for i, e := range c.Engines {
		if e.Version.IsZero() {
			return fmt.Errorf("engine %d: missing version", i)
		}
		if strings.TrimSpace(e.Path) == "" {
			return fmt.Errorf("engine %d (%s): missing path", i, e.Version)
		}
	}
	return nil
}

// Registry builds the engine registry from a scan of the source directory
// plus the custom entries. Scan problems and duplicates are logged.
func (c Config) Registry(logger *log.Logger) *engine.Registry {
	reg := engine.NewRegistry(logger)
	if c.SourceDirectory != "" {
		reg.AddScanned(engine.Scan(c.SourceDirectory))
	}
	for _, e := range c.Engines {
		reg.AddCustom(e.Version, e.Path)
	}
	return reg
}

// SetCustom replaces the stored engines with the registry's custom entries.
func (c *Config) SetCustom(installs []engine.Install) {
	c.Engines = make([]EngineEntry, 0, len(installs))
	for _, inst := range installs {
		c.Engines = append(c.Engines, EngineEntry{Version: inst.Version, Path: inst.Path})
	}
}

// Marshal returns the indented JSON encoding of the configuration.
func (c Config) Marshal() ([]byte, error) {
	if c.Engines == nil {
		c.Engines = []EngineEntry{}
	}
	buf, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return append(buf, '\n'), nil
}
