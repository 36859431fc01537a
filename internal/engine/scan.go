// Package engine keeps track of known Unreal Engine installations, either
// discovered under a source directory or registered by hand.
package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"uetool/internal/version"
)

// Install is a single engine installation.
type Install struct {
	Version version.Version `json:"version"`
	Path    string          `json:"path"`
	Custom  bool            `json:"custom"`
}

// MatchedBy implements version.Candidate.
func (i Install) MatchedBy(sel version.Selector) bool {
	return sel.Matches(i.Version)
}

func (i Install) String() string {
	return i.Version.String()
}

// Skip records a directory entry that could not be used as an engine.
type Skip struct {
	Name   string
	Reason string
}

// ScanResult partitions a source directory listing into usable engines and
// skipped entries.
type ScanResult struct {
	Engines []Install
	Skipped []Skip
}

// Scan lists the immediate subdirectories of dir and keeps those whose names
// parse as versions. Unreadable directories and unparseable names end up in
// Skipped; Scan itself never fails.
func Scan(dir string) ScanResult {
	var res ScanResult
	if dir == "" {
		return res
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		res.Skipped = append(res.Skipped, Skip{Name: dir, Reason: fmt.Sprintf("read source directory: %v", err)})
		return res
	}

	// ReadDir already sorts by name; keep that so duplicate resolution is stable.
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		v, err := version.Parse(entry.Name())
		if err != nil {
			res.Skipped = append(res.Skipped, Skip{Name: entry.Name(), Reason: err.Error()})
			continue
		}
		res.Engines = append(res.Engines, Install{
			Version: v,
			Path:    filepath.Join(dir, entry.Name()),
		})
	}
	return res
}

func sortDescending(installs []Install) {
	sort.SliceStable(installs, func(i, j int) bool {
		return version.Compare(installs[i].Version, installs[j].Version) > 0
	})
}
