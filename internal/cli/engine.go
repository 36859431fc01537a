package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"uetool/internal/config"
	"uetool/internal/paths"
	"uetool/internal/runner"
	"uetool/internal/source"
	"uetool/internal/tui"
	"uetool/internal/version"
)

func newEngineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "engine",
		Short: "Manage known Unreal Engine installs",
	}

	cmd.AddCommand(newEngineListCmd())
	cmd.AddCommand(newEngineAddCmd())
	cmd.AddCommand(newEnginePathCmd())
	cmd.AddCommand(newEngineSourceCmd())
	cmd.AddCommand(newEngineInstallCmd())
	return cmd
}

type engineRow struct {
	Version string `json:"version"`
	Origin  string `json:"origin"`
	Path    string `json:"path"`
}

func newEngineListCmd() *cobra.Command {
	var reverse bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List scanned and manually added engines, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			_, reg, err := s.registry()
			if err != nil {
				return err
			}

			all := reg.All()
			rows := make([]engineRow, 0, len(all))
			for _, inst := range all {
				origin := "source"
				if inst.Custom {
					origin = "custom"
				}
				rows = append(rows, engineRow{Version: inst.Version.String(), Origin: origin, Path: inst.Path})
			}
			if reverse {
				for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
					rows[i], rows[j] = rows[j], rows[i]
				}
			}

			if outputJSON {
				return printJSON(cmd, rows)
			}
			printEngineTable(cmd, rows)
			return nil
		},
	}
	cmd.Flags().BoolVar(&reverse, "reverse", false, "List oldest first")
	return cmd
}

func printEngineTable(cmd *cobra.Command, rows []engineRow) {
	if len(rows) == 0 {
		cmd.Println("(no engines; set a source directory or add one with `uetool engine add`)")
		return
	}
	cmd.Printf("%-18s %-7s %s\n", "Version", "Origin", "Path")
	for _, r := range rows {
		cmd.Printf("%-18s %-7s %s\n", r.Version, r.Origin, r.Path)
	}
}

func newEngineAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <version> <path>",
		Short: "Register an engine install outside the source directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := version.Parse(args[0])
			if err != nil {
				return err
			}
			dir, err := filepath.Abs(args[1])
			if err != nil {
				return fmt.Errorf("resolve %s: %w", args[1], err)
			}
			ok, err := paths.DirExists(dir)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("engine directory %s does not exist", dir)
			}

			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			added := false
			_, err = s.store.Update(cmd.Context(), func(cfg *config.Config) error {
				if !cfg.Registry(s.logger).AddCustom(v, dir) {
					return nil
				}
				cfg.Engines = append(cfg.Engines, config.EngineEntry{Version: v, Path: dir})
				added = true
				return nil
			})
			if err != nil {
				return err
			}
			if !added {
				cmd.Printf("Engine %s is already registered; nothing changed\n", v)
				return nil
			}
			cmd.Printf("Added engine %s at %s\n", v, dir)
			return nil
		},
	}
}

func newEnginePathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path <version>",
		Short: "Print the install path of the engine matching a version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			_, reg, err := s.registry()
			if err != nil {
				return err
			}
			inst, err := reg.Resolve(args[0])
			if err != nil {
				return err
			}
			if outputJSON {
				return printJSON(cmd, engineRow{Version: inst.Version.String(), Path: inst.Path})
			}
			cmd.Println(inst.Path)
			return nil
		},
	}
}

func newEngineSourceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "source [dir]",
		Short: "Show or set the directory scanned for engine installs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				cfg, err := s.store.Load()
				if err != nil {
					return err
				}
				cmd.Println(tui.NonEmptyOrDash(cfg.SourceDirectory))
				return nil
			}

			dir, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve %s: %w", args[0], err)
			}
			if _, err := s.store.Update(cmd.Context(), func(cfg *config.Config) error {
				cfg.SourceDirectory = dir
				return nil
			}); err != nil {
				return err
			}
			if ok, _ := paths.DirExists(dir); !ok {
				s.logger.Warn("source directory does not exist yet", "dir", dir)
			}
			cmd.Printf("Source directory set to %s\n", dir)
			return nil
		},
	}
}

func newEngineInstallCmd() *cobra.Command {
	var remote string
	cmd := &cobra.Command{
		Use:   "install <version>",
		Short: "Clone an engine release into the source directory and run its setup scripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := version.Parse(args[0])
			if err != nil {
				return err
			}
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			cfg, err := s.store.Load()
			if err != nil {
				return err
			}

			in := &source.Installer{
				Runner: runner.CmdRunner{},
				Remote: firstNonEmpty(remote, s.settings.GitRemote),
				Stdout: cmd.ErrOrStderr(),
				Stderr: cmd.ErrOrStderr(),
				Logger: s.logger,
			}
			target, err := in.Install(cmd.Context(), cfg.SourceDirectory, v)
			if err != nil {
				return err
			}
			cmd.Printf("Engine %s installed at %s\n", v, target)
			return nil
		},
	}
	cmd.Flags().StringVar(&remote, "remote", "", "Git remote to clone from (defaults to the git_remote setting)")
	return cmd
}
