package cli

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"uetool/internal/runner"
	"uetool/internal/tools"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that git, Python and the build tool are available",
		Args:  cobra.NoArgs,
		RunE:  runDoctor,
	}
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defs, err := tools.Definitions(s.settings.BuildTool)
	if err != nil {
		return err
	}
	checker := &tools.Checker{Runner: runner.CmdRunner{}}
	statuses := checker.Detect(cmd.Context(), defs)

	if outputJSON {
		if err := printJSON(cmd, statuses); err != nil {
			return err
		}
	} else {
		printStatusTable(cmd, statuses)
		if runtime.GOOS != "windows" {
			cmd.Println("\nnote: toolchain installers only run on Windows hosts")
		}
	}

	var errs []error
	for _, st := range statuses {
		if !st.Satisfied {
			errs = append(errs, fmt.Errorf("%s: %s", st.Tool, st.Error))
		}
	}
	return errors.Join(errs...)
}

func printStatusTable(cmd *cobra.Command, statuses []tools.Status) {
	cmd.Printf("%-11s %-10s %-8s %-4s %s\n", "Tool", "Version", "Minimum", "OK", "Path")
	for _, st := range statuses {
		ok := "no"
		if st.Satisfied {
			ok = "yes"
		}
		cmd.Printf("%-11s %-10s %-8s %-4s %s\n", st.Tool, tools.NonEmpty(st.Version, "-"), tools.NonEmpty(st.Minimum, "-"), ok, tools.NonEmpty(st.Path, "(missing)"))
		if st.Error != "" {
			cmd.Printf("  error: %s\n", st.Error)
		}
		for _, hint := range st.Hints {
			cmd.Printf("  hint: %s\n", hint)
		}
	}
}
