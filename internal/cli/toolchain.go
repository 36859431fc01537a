package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"uetool/internal/toolchain"
	"uetool/internal/tui"
)

func newToolchainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toolchain",
		Short: "Resolve and install Linux cross-compile toolchains",
	}

	cmd.AddCommand(newToolchainListCmd())
	cmd.AddCommand(newToolchainResolveCmd())
	cmd.AddCommand(newToolchainInstallCmd())
	return cmd
}

type toolchainStatus struct {
	Name      string   `json:"name"`
	Clang     string   `json:"clang"`
	Engines   []string `json:"engines"`
	Installed bool     `json:"installed"`
	Path      string   `json:"path"`
	URL       string   `json:"url"`
	Error     string   `json:"error,omitempty"`
}

func statusFor(in *toolchain.Installer, rel toolchain.Release) toolchainStatus {
	engines := make([]string, len(rel.Engines))
	for i, v := range rel.Engines {
		engines[i] = v.String()
	}
	return toolchainStatus{
		Name:      rel.Name(),
		Clang:     rel.Clang.String(),
		Engines:   engines,
		Installed: in.Installed(rel),
		Path:      in.Path(rel),
		URL:       rel.URL(in.CDN),
	}
}

func newToolchainListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List catalog toolchains and whether they are installed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			catalog, err := toolchain.Builtin()
			if err != nil {
				return err
			}
			in := s.installer(cmd, s.logger)

			var statuses []toolchainStatus
			for _, rel := range catalog.Releases() {
				statuses = append(statuses, statusFor(in, rel))
			}
			if outputJSON {
				return printJSON(cmd, statuses)
			}
			printToolchainTable(cmd, statuses)
			return nil
		},
	}
}

func newToolchainResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <engine-version>",
		Short: "Print the toolchain required by an engine version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			catalog, err := toolchain.Builtin()
			if err != nil {
				return err
			}
			rel, err := catalog.Resolve(args[0])
			if err != nil {
				return err
			}
			st := statusFor(s.installer(cmd, s.logger), rel)
			if outputJSON {
				return printJSON(cmd, st)
			}
			cmd.Println(st.Name)
			return nil
		},
	}
}

func newToolchainInstallCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "install <engine-version|all>",
		Short: "Download and install the toolchain for an engine version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			catalog, err := toolchain.Builtin()
			if err != nil {
				return err
			}

			var releases []toolchain.Release
			if strings.EqualFold(args[0], "all") {
				releases = catalog.Releases()
			} else {
				rel, err := catalog.Resolve(args[0])
				if err != nil {
					return err
				}
				releases = []toolchain.Release{rel}
			}

			in := s.installer(cmd, s.logger)
			spin := !outputJSON && !verbose && tui.IsTerminal(cmd.ErrOrStderr())

			var (
				statuses []toolchainStatus
				errs     []error
			)
			for _, rel := range releases {
				var sw *tui.StatusWriter
				if spin && (force || !in.Installed(rel)) {
					sw = tui.NewStatusWriter(cmd.ErrOrStderr(), "Installing "+rel.Name())
				}
				_, err := in.Install(cmd.Context(), rel, force)
				if sw != nil {
					sw.Stop("")
				}
				st := statusFor(in, rel)
				if err != nil {
					st.Error = err.Error()
					errs = append(errs, fmt.Errorf("%s: %w", rel.Name(), err))
				}
				statuses = append(statuses, st)
			}

			if outputJSON {
				if err := printJSON(cmd, statuses); err != nil {
					return err
				}
			} else {
				printToolchainTable(cmd, statuses)
			}
			return errors.Join(errs...)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Reinstall even if the toolchain is present")
	return cmd
}

func printToolchainTable(cmd *cobra.Command, statuses []toolchainStatus) {
	if len(statuses) == 0 {
		cmd.Println("(no toolchains)")
		return
	}
	cmd.Printf("%-30s %-8s %-10s %-10s %s\n", "Toolchain", "Clang", "Engines", "Status", "Path")
	for _, st := range statuses {
		status := tui.StatusMissing
		if st.Installed {
			status = tui.StatusInstalled
		}
		cmd.Printf("%-30s %-8s %-10s %-10s %s\n", st.Name, st.Clang, strings.Join(st.Engines, ","), status, st.Path)
		if st.Error != "" {
			cmd.Printf("  error: %s\n", st.Error)
		}
	}
}
