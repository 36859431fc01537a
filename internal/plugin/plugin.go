// Package plugin reads Unreal plugin descriptors and derives package names.
package plugin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"uetool/internal/fault"
)

// DescriptorExt is the plugin descriptor file extension.
const DescriptorExt = ".uplugin"

// Descriptor holds the descriptor fields used for output naming.
type Descriptor struct {
	FriendlyName string `json:"FriendlyName"`
	VersionName  string `json:"VersionName"`
}

// Plugin is a located plugin: its root directory and parsed descriptor.
type Plugin struct {
	Root           string
	DescriptorPath string
	Descriptor     Descriptor
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadDescriptor parses a .uplugin file.
func ReadDescriptor(path string) (Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Descriptor{}, fmt.Errorf("read plugin descriptor: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	var d Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return Descriptor{}, fmt.Errorf("parse plugin descriptor %s: %w", path, err)
	}
	if strings.TrimSpace(d.FriendlyName) == "" {
		return Descriptor{}, fmt.Errorf("plugin descriptor %s: FriendlyName is empty", path)
	}
	if strings.TrimSpace(d.VersionName) == "" {
		return Descriptor{}, fmt.Errorf("plugin descriptor %s: VersionName is empty", path)
	}
	return d, nil
}

// Find walks upward from each start directory in turn and returns the first
// directory holding exactly one descriptor. Empty starts are ignored.
func Find(starts ...string) (Plugin, error) {
	var tried []string
	for _, start := range starts {
		if strings.TrimSpace(start) == "" {
			continue
		}
		abs, err := filepath.Abs(start)
		if err != nil {
			return Plugin{}, fmt.Errorf("resolve %s: %w", start, err)
		}
		tried = append(tried, abs)

		descriptor, ok, err := findUpward(abs)
		if err != nil {
			return Plugin{}, err
		}
		if !ok {
			continue
		}
		d, err := ReadDescriptor(descriptor)
		if err != nil {
			return Plugin{}, err
		}
		return Plugin{Root: filepath.Dir(descriptor), DescriptorPath: descriptor, Descriptor: d}, nil
	}
	return Plugin{}, fault.NotFound("plugin descriptor", strings.Join(tried, ", "))
}

func findUpward(dir string) (string, bool, error) {
	for {
		matches, err := filepath.Glob(filepath.Join(dir, "*"+DescriptorExt))
		if err != nil {
			return "", false, fmt.Errorf("search %s: %w", dir, err)
		}
		if len(matches) == 1 {
			if info, err := os.Stat(matches[0]); err == nil && info.Mode().IsRegular() {
				return matches[0], true, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

// PackageName joins the descriptor's friendly name (spaces removed), its
// version name, an optional WithHost marker and the engine version with "-".
func PackageName(d Descriptor, engineVersion string, withHost bool) string {
	parts := []string{strings.ReplaceAll(d.FriendlyName, " ", ""), d.VersionName}
	if withHost {
		parts = append(parts, "WithHost")
	}
	parts = append(parts, engineVersion)
	return strings.Join(parts, "-")
}
