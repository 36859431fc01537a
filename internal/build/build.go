// Package build sequences plugin packaging across engine versions.
package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"uetool/internal/archive"
	"uetool/internal/engine"
	"uetool/internal/fault"
	"uetool/internal/plugin"
	"uetool/internal/toolchain"
	"uetool/internal/uecli"
	"uetool/internal/version"
)

// Engines is the engine lookup the orchestrator needs.
type Engines interface {
	Versions(reverse bool) []version.Version
	Resolve(selector string) (engine.Install, error)
	Lookup(v version.Version) (engine.Install, error)
}

// Tool selects the engine root and packages plugins.
type Tool interface {
	EnsureRoot(ctx context.Context, root string) (bool, error)
	Package(ctx context.Context, req uecli.PackageRequest) error
}

// Catalog maps an engine version to its toolchain release.
type Catalog interface {
	Resolve(engineVersion string) (toolchain.Release, error)
}

// Toolchains makes a release available on disk and returns its root.
type Toolchains interface {
	Ensure(ctx context.Context, rel toolchain.Release, policy toolchain.Policy) (string, error)
}

// ArchiveFunc zips src into dest, skipping the named top-level folders.
type ArchiveFunc func(src, dest string, exclude []string) (archive.Stats, error)

// Request describes one packaging run.
type Request struct {
	// Versions are engine selectors used verbatim. Ignored when All is set.
	Versions []string
	All      bool
	// Reverse orders All oldest first.
	Reverse bool

	Platforms []uecli.Platform
	// PluginDirs are search starts, tried in order.
	PluginDirs []string
	WithHost   bool
	OutputDir  string
	Policy     toolchain.Policy
	// Timeout bounds each external invocation; zero means no limit.
	Timeout time.Duration
}

// Plan is a resolved request ready to execute.
type Plan struct {
	Request  Request
	Versions []string
	Plugin   plugin.Plugin
}

// Artifact is one packaged version.
type Artifact struct {
	Version   string `json:"version"`
	Dir       string `json:"dir"`
	Zip       string `json:"zip"`
	Files     int    `json:"files"`
	Bytes     int64  `json:"bytes"`
	Toolchain string `json:"toolchain,omitempty"`
}

// SkippedVersion is a requested version that could not be built.
type SkippedVersion struct {
	Version string `json:"version"`
	Reason  string `json:"reason"`
}

// Result is the outcome of a run. Artifacts built before an abort are kept.
type Result struct {
	State   State            `json:"state"`
	Plugin  string           `json:"plugin,omitempty"`
	Built   []Artifact       `json:"built"`
	Skipped []SkippedVersion `json:"skipped"`
}

// Orchestrator runs builds. Engines, Tool and Catalog are required;
// Toolchains is only needed for Linux-family platforms.
type Orchestrator struct {
	Engines    Engines
	Tool       Tool
	Catalog    Catalog
	Toolchains Toolchains
	Archive    ArchiveFunc
	Reporter   ProgressReporter
	Logger     *log.Logger
}

// Plan resolves the versions to build and locates the plugin.
func (o *Orchestrator) Plan(req Request) (Plan, error) {
	versions := append([]string(nil), req.Versions...)
	if req.All {
		versions = versions[:0]
		for _, v := range o.Engines.Versions(req.Reverse) {
			versions = append(versions, v.String())
		}
	}
	if len(versions) == 0 {
		return Plan{}, fault.NotFound("engine versions", "")
	}
	if len(req.Platforms) == 0 {
		return Plan{}, errors.New("no target platforms")
	}

	p, err := plugin.Find(req.PluginDirs...)
	if err != nil {
		return Plan{}, err
	}
	return Plan{Request: req, Versions: versions, Plugin: p}, nil
}

// Run plans and executes req.
func (o *Orchestrator) Run(ctx context.Context, req Request) (Result, error) {
	plan, err := o.Plan(req)
	if err != nil {
		return Result{State: StateAborted}, err
	}
	return o.Execute(ctx, plan)
}

// Execute builds each planned version in order. A version with no matching
// engine is skipped. An ambiguous version or any later failure aborts the
// remaining versions.
func (o *Orchestrator) Execute(ctx context.Context, plan Plan) (Result, error) {
	res := Result{State: StatePerVersionBuild, Plugin: plan.Plugin.Descriptor.FriendlyName}
	logger := o.logger()
	reporter := o.reporter()

	for _, v := range plan.Versions {
		if err := ctx.Err(); err != nil {
			res.State = StateAborted
			return res, err
		}

		inst, err := o.resolve(plan, v)
		if errors.Is(err, fault.ErrNotFound) {
			logger.Error("engine not available, skipping", "version", v, "err", err)
			res.Skipped = append(res.Skipped, SkippedVersion{Version: v, Reason: err.Error()})
			reporter.Skip(v, err)
			continue
		}
		if err != nil {
			reporter.Fail(v, err)
			res.State = StateAborted
			return res, fmt.Errorf("engine %s: %w", v, err)
		}

		artifact, err := o.buildOne(ctx, plan, v, inst)
		if err != nil {
			reporter.Fail(v, err)
			res.State = StateAborted
			return res, fmt.Errorf("engine %s: %w", v, err)
		}
		res.Built = append(res.Built, artifact)
		reporter.Complete(artifact)
	}

	res.State = StateDone
	return res, nil
}

// resolve maps a planned version to its engine. Versions expanded from the
// registry are looked up exactly; user selectors must match one engine.
func (o *Orchestrator) resolve(plan Plan, v string) (engine.Install, error) {
	if !plan.Request.All {
		return o.Engines.Resolve(v)
	}
	parsed, err := version.Parse(v)
	if err != nil {
		return engine.Install{}, err
	}
	return o.Engines.Lookup(parsed)
}

func (o *Orchestrator) buildOne(ctx context.Context, plan Plan, v string, inst engine.Install) (Artifact, error) {
	req := plan.Request
	logger := o.logger().With("version", v)
	reporter := o.reporter()

	reporter.Start(v, StageRoot)
	changed, err := withTimeout(ctx, req.Timeout, func(ctx context.Context) (bool, error) {
		return o.Tool.EnsureRoot(ctx, inst.Path)
	})
	if err != nil {
		return Artifact{}, fmt.Errorf("set engine root: %w", err)
	}
	if changed {
		logger.Info("engine root set", "root", inst.Path)
	}

	var toolchainRoot, toolchainName string
	if uecli.NeedsToolchain(req.Platforms) {
		reporter.Start(v, StageToolchain)
		rel, err := o.Catalog.Resolve(inst.Version.String())
		if err != nil {
			return Artifact{}, err
		}
		if o.Toolchains == nil {
			return Artifact{}, fault.NotFound("toolchain installer", rel.Name())
		}
		toolchainRoot, err = o.Toolchains.Ensure(ctx, rel, req.Policy)
		if err != nil {
			return Artifact{}, err
		}
		toolchainName = rel.Name()
		logger.Debug("using toolchain", "toolchain", toolchainName, "root", toolchainRoot)
	}

	name := plugin.PackageName(plan.Plugin.Descriptor, v, req.WithHost)
	outDir := filepath.Join(req.OutputDir, name)

	reporter.Start(v, StagePackage)
	_, err = withTimeout(ctx, req.Timeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, o.Tool.Package(ctx, uecli.PackageRequest{
			PluginDir:     plan.Plugin.Root,
			OutputDir:     outDir,
			Platforms:     req.Platforms,
			NoHost:        !req.WithHost,
			ToolchainRoot: toolchainRoot,
		})
	})
	if err != nil {
		return Artifact{}, err
	}

	reporter.Start(v, StageArchive)
	var exclude []string
	if !req.WithHost {
		exclude = archive.HostFolders
	}
	zipPath := outDir + ".zip"
	stats, err := o.archive()(outDir, zipPath, exclude)
	if err != nil {
		return Artifact{}, err
	}
	logger.Info("packaged", "zip", zipPath, "files", stats.Files)

	return Artifact{
		Version:   v,
		Dir:       outDir,
		Zip:       zipPath,
		Files:     stats.Files,
		Bytes:     stats.Bytes,
		Toolchain: toolchainName,
	}, nil
}

func withTimeout[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return fn(ctx)
}

func (o *Orchestrator) logger() *log.Logger {
	if o.Logger == nil {
		return log.New(io.Discard)
	}
	return o.Logger
}

func (o *Orchestrator) reporter() ProgressReporter {
	if o.Reporter == nil {
		return nopReporter{}
	}
	return o.Reporter
}

func (o *Orchestrator) archive() ArchiveFunc {
	if o.Archive == nil {
		return archive.ZipDir
	}
	return o.Archive
}
