// Package cli wires the uetool command tree.
package cli

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags.
var Version = "dev"

var (
	outputJSON bool
	verbose    bool
	noProgress bool
)

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := fang.Execute(
		context.Background(),
		newRootCmd(),
		fang.WithVersion(Version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uetool",
		Short: "Unreal Engine source, toolchain and plugin packaging helper",
		Long: `uetool keeps track of Unreal Engine installs, provisions the Linux
cross-compile toolchain each engine needs, and packages plugins for several
engine versions in one run.`,
		SilenceUsage: true,
	}
	cmd.SetOut(os.Stdout)

	cmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output machine-readable JSON")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "Disable the live progress table")

	cmd.AddCommand(newEngineCmd())
	cmd.AddCommand(newToolchainCmd())
	cmd.AddCommand(newPluginCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newDoctorCmd())

	return cmd
}
