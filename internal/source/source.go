// Package source installs engine source trees from git and runs their
// setup scripts.
package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/log"

	"uetool/internal/paths"
	"uetool/internal/runner"
	"uetool/internal/version"
)

// DefaultRemote is Epic's engine repository. Access requires a linked
// GitHub account.
const DefaultRemote = "https://github.com/EpicGames/UnrealEngine.git"

// Installer clones and prepares engine sources.
type Installer struct {
	Runner runner.Runner
	// Git is the git executable; empty means "git".
	Git    string
	Remote string
	Stdout io.Writer
	Stderr io.Writer
	Logger *log.Logger

	// HostOS overrides runtime.GOOS when picking setup scripts.
	HostOS string
}

// Branch returns the release branch cloned for v.
func Branch(v version.Version) string {
	return v.String() + "-release"
}

// Target returns where v is cloned under sourceDir.
func Target(sourceDir string, v version.Version) string {
	return filepath.Join(sourceDir, v.String())
}

// Install clones v into sourceDir and runs Setup and GenerateProjectFiles.
// It refuses to touch an existing target directory.
func (in *Installer) Install(ctx context.Context, sourceDir string, v version.Version) (string, error) {
	if sourceDir == "" {
		return "", fmt.Errorf("no source directory configured; set one with `uetool engine source <dir>`")
	}
	target := Target(sourceDir, v)
	exists, err := paths.DirExists(target)
	if err != nil {
		return "", err
	}
	if exists {
		return "", fmt.Errorf("%s already exists: %w", target, os.ErrExist)
	}
	if err := os.MkdirAll(sourceDir, 0o755); err != nil {
		return "", fmt.Errorf("create source dir: %w", err)
	}

	git := in.Git
	if git == "" {
		git = "git"
	}
	remote := in.Remote
	if remote == "" {
		remote = DefaultRemote
	}

	logger := in.logger().With("version", v)
	logger.Info("cloning engine source", "remote", remote, "branch", Branch(v), "target", target)
	args := []string{"clone", "--branch", Branch(v), "--depth", "1", remote, target}
	if _, err := in.Runner.Run(ctx, git, args, in.runOptions("")); err != nil {
		return "", fmt.Errorf("clone: %w", err)
	}

	for _, script := range in.scripts() {
		logger.Info("running setup script", "script", script)
		if _, err := in.Runner.Run(ctx, filepath.Join(target, script), nil, in.runOptions(target)); err != nil {
			return target, fmt.Errorf("%s: %w", script, err)
		}
	}
	return target, nil
}

func (in *Installer) scripts() []string {
	host := in.HostOS
	if host == "" {
		host = runtime.GOOS
	}
	if host == "windows" {
		return []string{"Setup.bat", "GenerateProjectFiles.bat"}
	}
	return []string{"Setup.sh", "GenerateProjectFiles.sh"}
}

func (in *Installer) runOptions(dir string) runner.RunOptions {
	return runner.RunOptions{Dir: dir, Stdout: in.Stdout, Stderr: in.Stderr}
}

func (in *Installer) logger() *log.Logger {
	if in.Logger == nil {
		return log.New(io.Discard)
	}
	return in.Logger
}
