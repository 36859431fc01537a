package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"uetool/internal/build"
	"uetool/internal/config"
	"uetool/internal/logx"
	"uetool/internal/runner"
	"uetool/internal/toolchain"
	"uetool/internal/tui"
	"uetool/internal/uecli"
)

type packageOptions struct {
	all       bool
	reverse   bool
	withHost  bool
	platforms []string
	pluginDir string
	outputDir string
	policy    string
	timeout   time.Duration
}

func newPluginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugin",
		Short: "Build and package plugins",
	}
	cmd.AddCommand(newPluginPackageCmd())
	return cmd
}

func newPluginPackageCmd() *cobra.Command {
	opts := &packageOptions{}
	cmd := &cobra.Command{
		Use:   "package [version...]",
		Short: "Package the current plugin for one or more engine versions",
		Long: `Package the plugin for each requested engine version and zip the result.

The plugin is searched upward from --plugin-dir when given, and only there.
Without it the current directory is tried first, then the directory holding
the uetool executable.

Versions whose engine is not installed are skipped. A version matching more
than one engine, or any packaging failure, stops the run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPluginPackage(cmd, args, opts)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.all, "all", false, "Package for every known engine, newest first")
	f.BoolVar(&opts.reverse, "reverse", false, "With --all, go oldest first")
	f.BoolVar(&opts.withHost, "with-host", false, "Include host platform binaries")
	f.StringSliceVarP(&opts.platforms, "platform", "p", []string{string(uecli.Win64)}, "Target platforms (Win64, Android, Linux, LinuxArm64)")
	f.StringVar(&opts.pluginDir, "plugin-dir", "", "Directory inside the plugin to package; disables the cwd and executable-dir fallbacks")
	f.StringVarP(&opts.outputDir, "output", "o", "", "Output directory (defaults to the output_dir setting)")
	f.StringVar(&opts.policy, "toolchain-policy", "", "prompt, auto or never (defaults to the toolchain_policy setting)")
	f.DurationVar(&opts.timeout, "timeout", 0, "Limit for each build tool invocation (defaults to the timeout setting)")
	return cmd
}

func runPluginPackage(cmd *cobra.Command, args []string, opts *packageOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if len(args) == 0 && !opts.all {
		return fmt.Errorf("give one or more engine versions, or --all")
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	if err := s.paths.EnsureDirs(); err != nil {
		return err
	}
	_, reg, err := s.registry()
	if err != nil {
		return err
	}
	platforms, err := uecli.ParsePlatforms(opts.platforms)
	if err != nil {
		return err
	}
	policy := firstNonEmpty(opts.policy, s.settings.ToolchainPolicy)
	switch policy {
	case config.PolicyPrompt, config.PolicyAuto, config.PolicyNever:
	default:
		return fmt.Errorf("unknown toolchain policy %q", policy)
	}
	timeout := opts.timeout
	if timeout == 0 {
		timeout = s.settings.Timeout
	}

	starts := pluginSearchStarts(opts.pluginDir)

	mode := tui.DetectMode(cmd.OutOrStdout(), noProgress, outputJSON)
	var console io.Writer
	if mode != tui.ModeTUI {
		console = cmd.ErrOrStderr()
	}
	runLog, err := logx.Open(s.paths.LogsDir, console, verbose)
	if err != nil {
		return err
	}
	defer runLog.Close()

	tool, err := uecli.New(s.settings.BuildTool, runner.CmdRunner{})
	if err != nil {
		return err
	}
	tool.Stdout, tool.Stderr = io.Writer(runLog), io.Writer(runLog)
	if mode == tui.ModePlain && verbose {
		tool.Stdout = io.MultiWriter(runLog, cmd.ErrOrStderr())
		tool.Stderr = tool.Stdout
	}

	catalog, err := toolchain.Builtin()
	if err != nil {
		return err
	}
	installer := s.installer(cmd, runLog.Logger)

	orch := &build.Orchestrator{
		Engines:    reg,
		Tool:       tool,
		Catalog:    catalog,
		Toolchains: installer,
		Logger:     runLog.Logger,
	}
	plan, err := orch.Plan(build.Request{
		Versions:   args,
		All:        opts.all,
		Reverse:    opts.reverse,
		Platforms:  platforms,
		PluginDirs: starts,
		WithHost:   opts.withHost,
		OutputDir:  firstNonEmpty(opts.outputDir, s.settings.OutputDir),
		Policy:     toolchain.Policy(policy),
		Timeout:    timeout,
	})
	if err != nil {
		return err
	}
	runLog.Logger.Info("packaging", "plugin", plan.Plugin.Root, "versions", plan.Versions, "platforms", platforms)

	var (
		res    build.Result
		runErr error
	)
	switch mode {
	case tui.ModeTUI:
		// Ask about missing toolchains before the table takes the terminal.
		if uecli.NeedsToolchain(platforms) && toolchain.Policy(policy) == toolchain.PolicyPrompt {
			prepareToolchains(ctx, catalog, installer, plan.Versions, runLog)
		}
		installer.Prompt = nil

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		title := fmt.Sprintf("%s %s", plan.Plugin.Descriptor.FriendlyName, plan.Plugin.Descriptor.VersionName)
		model := tui.NewBuildModel(title, plan.Versions)
		if err := tui.RunWithWork(cmd.OutOrStdout(), model, cancel, func(send func(tea.Msg)) {
			orch.Reporter = tui.NewTableReporter(send)
			res, runErr = orch.Execute(ctx, plan)
		}); err != nil {
			return err
		}
	default:
		orch.Reporter = tui.LogReporter{Logger: runLog.Logger}
		res, runErr = orch.Execute(ctx, plan)
	}

	if outputJSON {
		if err := printJSON(cmd, res); err != nil {
			return err
		}
	} else {
		printBuildSummary(cmd, res, len(plan.Versions), runLog.Path)
	}
	return runErr
}

// pluginSearchStarts lists where to look for the plugin descriptor. An
// explicit directory replaces the defaults.
func pluginSearchStarts(explicit string) []string {
	if explicit != "" {
		return []string{explicit}
	}
	cwd, _ := os.Getwd()
	return []string{cwd, executableDir()}
}

// prepareToolchains installs, after confirmation, the toolchains the planned
// versions need. Failures are left for the build to report at the right
// version.
func prepareToolchains(ctx context.Context, catalog *toolchain.Catalog, in *toolchain.Installer, versions []string, runLog *logx.RunLog) {
	seen := map[string]bool{}
	for _, v := range versions {
		rel, err := catalog.Resolve(v)
		if err != nil || seen[rel.Name()] {
			continue
		}
		seen[rel.Name()] = true
		if _, err := in.Ensure(ctx, rel, toolchain.PolicyPrompt); err != nil {
			runLog.Logger.Warn("toolchain not prepared", "toolchain", rel.Name(), "err", err)
		}
	}
}

func printBuildSummary(cmd *cobra.Command, res build.Result, planned int, logPath string) {
	var total int64
	for _, a := range res.Built {
		total += a.Bytes
	}
	cmd.Printf("\nBuilt %d of %d version(s), %s total.\n", len(res.Built), planned, humanize.Bytes(uint64(total)))
	for _, a := range res.Built {
		cmd.Printf("  %-10s %s (%s)\n", a.Version, a.Zip, humanize.Bytes(uint64(a.Bytes)))
	}
	for _, sk := range res.Skipped {
		cmd.Printf("  %-10s skipped: %s\n", sk.Version, sk.Reason)
	}
	cmd.Printf("Log: %s\n", logPath)
}
