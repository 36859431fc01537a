// Package tools checks that the external programs uetool drives are
// installed and recent enough.
package tools

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"strings"

	"uetool/internal/runner"
)

// Status captures the resolved state of one external tool.
type Status struct {
	Tool      string   `json:"tool"`
	Version   string   `json:"version,omitempty"`
	Minimum   string   `json:"minimum,omitempty"`
	Path      string   `json:"path,omitempty"`
	Satisfied bool     `json:"satisfied"`
	Error     string   `json:"error,omitempty"`
	Hints     []string `json:"hints,omitempty"`
}

// Definition describes how to find and version-check a tool.
type Definition struct {
	Name    string
	Command string
	// Prefix are leading arguments from a configured command line.
	Prefix         []string
	VersionArgs    []string
	MinimumVersion string
}

// Definitions returns the tools uetool depends on. buildTool is the
// configured build tool command line.
func Definitions(buildTool string) ([]Definition, error) {
	command, prefix, err := runner.Split(buildTool)
	if err != nil {
		return nil, err
	}
	python := "python3"
	if runtime.GOOS == "windows" {
		python = "python"
	}
	return []Definition{
		{Name: "git", Command: "git", VersionArgs: []string{"--version"}, MinimumVersion: "2.20"},
		{Name: "python", Command: python, VersionArgs: []string{"--version"}, MinimumVersion: "3.7"},
		{Name: "build tool", Command: command, Prefix: prefix},
	}, nil
}

// Checker probes tools through a Runner.
type Checker struct {
	Runner runner.Runner
	// LookPath defaults to exec.LookPath.
	LookPath func(string) (string, error)
}

// Detect returns one status per definition, in order.
func (c *Checker) Detect(ctx context.Context, defs []Definition) []Status {
	statuses := make([]Status, 0, len(defs))
	for _, def := range defs {
		statuses = append(statuses, c.detectOne(ctx, def))
	}
	return statuses
}

func (c *Checker) detectOne(ctx context.Context, def Definition) Status {
	status := Status{Tool: def.Name, Minimum: def.MinimumVersion}

	lookPath := c.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	path, err := lookPath(def.Command)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			status.Error = fmt.Sprintf("%s not found in PATH", def.Command)
		} else {
			status.Error = err.Error()
		}
		status.Hints = installHints(def.Name)
		return status
	}
	status.Path = path

	if len(def.VersionArgs) == 0 {
		status.Satisfied = true
		return status
	}

	args := append(append([]string(nil), def.Prefix...), def.VersionArgs...)
	res, err := c.Runner.Run(ctx, path, args, runner.RunOptions{})
	if err != nil {
		status.Error = fmt.Sprintf("%s version: %v", def.Name, err)
		return status
	}
	out := strings.TrimSpace(string(res.Stdout))
	if out == "" {
		out = strings.TrimSpace(string(res.Stderr))
	}
	status.Version = extractVersion(firstLine(out))
	status.Satisfied = meetsMinimum(status.Version, def.MinimumVersion)
	if !status.Satisfied {
		status.Error = fmt.Sprintf("version %s below minimum %s", NonEmpty(status.Version, "unknown"), def.MinimumVersion)
		status.Hints = installHints(def.Name)
	}
	return status
}

// NonEmpty returns value, or fallback when value is blank.
func NonEmpty(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return strings.TrimSpace(text[:idx])
	}
	return text
}

var versionRegex = regexp.MustCompile(`[0-9]+(?:\.[0-9]+){1,3}`)

func extractVersion(line string) string {
	return versionRegex.FindString(line)
}

func meetsMinimum(version, minimum string) bool {
	if minimum == "" {
		return true
	}
	if version == "" {
		return false
	}

	vParts := numericParts(version)
	mParts := numericParts(minimum)
	for len(vParts) < len(mParts) {
		vParts = append(vParts, 0)
	}
	for len(mParts) < len(vParts) {
		mParts = append(mParts, 0)
	}
	for i := range vParts {
		if vParts[i] != mParts[i] {
			return vParts[i] > mParts[i]
		}
	}
	return true
}

func numericParts(version string) []int {
	var parts []int
	for _, field := range strings.Split(version, ".") {
		val, err := strconv.Atoi(field)
		if err != nil {
			break
		}
		parts = append(parts, val)
	}
	return parts
}

func installHints(tool string) []string {
	switch tool {
	case "git":
		if runtime.GOOS == "windows" {
			return []string{"Install git via winget: winget install Git.Git"}
		}
		return []string{"Install git with your package manager, e.g. sudo apt install git"}
	case "python":
		if runtime.GOOS == "windows" {
			return []string{"Install Python via winget: winget install Python.Python.3.12"}
		}
		return []string{"Install Python 3 with your package manager"}
	case "build tool":
		return []string{"Install ue4cli: pip install ue4cli", "or set build_tool in settings.yaml"}
	}
	return nil
}
