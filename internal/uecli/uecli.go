// Package uecli drives a ue4cli-compatible build tool: reading and setting
// the engine root and packaging plugins.
package uecli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"

	"uetool/internal/runner"
)

// EnvToolchainRoot is the variable UnrealBuildTool reads the Linux cross
// toolchain location from.
const EnvToolchainRoot = "LINUX_MULTIARCH_ROOT"

// Tool is a configured build tool command.
type Tool struct {
	command string
	prefix  []string
	runner  runner.Runner

	Stdout io.Writer
	Stderr io.Writer
}

// New parses commandLine (e.g. "ue4" or "python -m ue4cli").
func New(commandLine string, r runner.Runner) (*Tool, error) {
	command, prefix, err := runner.Split(commandLine)
	if err != nil {
		return nil, fmt.Errorf("build tool: %w", err)
	}
	return &Tool{command: command, prefix: prefix, runner: r}, nil
}

func (t *Tool) args(rest ...string) []string {
	return append(append([]string(nil), t.prefix...), rest...)
}

// Root returns the engine root the tool currently points at.
func (t *Tool) Root(ctx context.Context) (string, error) {
	res, err := t.runner.Run(ctx, t.command, t.args("root"), runner.RunOptions{})
	if err != nil {
		return "", err
	}
	return lastLine(string(res.Stdout)), nil
}

// SetRoot points the tool at an engine root.
func (t *Tool) SetRoot(ctx context.Context, root string) error {
	_, err := t.runner.Run(ctx, t.command, t.args("setroot", root), runner.RunOptions{
		Stdout: t.Stdout,
		Stderr: t.Stderr,
	})
	return err
}

// EnsureRoot sets the engine root only when it differs from the current one.
// It reports whether a change was made.
func (t *Tool) EnsureRoot(ctx context.Context, root string) (bool, error) {
	current, err := t.Root(ctx)
	if err == nil && samePath(current, root) {
		return false, nil
	}
	// A failing `root` usually means no root is configured yet.
	if err := t.SetRoot(ctx, root); err != nil {
		return false, err
	}
	return true, nil
}

// PackageRequest describes one plugin packaging run.
type PackageRequest struct {
	PluginDir     string
	OutputDir     string
	Platforms     []Platform
	NoHost        bool
	ToolchainRoot string
}

// PackageArgs returns the arguments passed after the tool prefix.
func PackageArgs(req PackageRequest) []string {
	args := []string{
		"package",
		"-TargetPlatforms=" + joinPlatforms(req.Platforms, "+"),
		"-Package=" + req.OutputDir,
	}
	if req.NoHost {
		args = append(args, "-NoHostPlatform")
	}
	return args
}

// Package builds and packages a plugin. The toolchain root, when set, is
// passed to this invocation only.
func (t *Tool) Package(ctx context.Context, req PackageRequest) error {
	opts := runner.RunOptions{
		Dir:    req.PluginDir,
		Stdout: t.Stdout,
		Stderr: t.Stderr,
	}
	if req.ToolchainRoot != "" {
		opts.Env = runner.Env(map[string]string{EnvToolchainRoot: req.ToolchainRoot})
	}
	_, err := t.runner.Run(ctx, t.command, t.args(PackageArgs(req)...), opts)
	return err
}

func lastLine(out string) string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

func samePath(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	ca, cb := filepath.Clean(a), filepath.Clean(b)
	if runtime.GOOS == "windows" {
		return strings.EqualFold(ca, cb)
	}
	return ca == cb
}
