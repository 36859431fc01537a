package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"uetool/internal/config"
	"uetool/internal/paths"
	"uetool/internal/runner"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or edit uetool settings",
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())
	cmd.AddCommand(newConfigEditCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings in YAML and the stored engines",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where uetool keeps its files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pp, err := paths.Resolve()
			if err != nil {
				return err
			}
			if outputJSON {
				return printJSON(cmd, map[string]string{
					"root":     pp.Root,
					"config":   pp.ConfigFile,
					"settings": pp.SettingsFile,
					"logs":     pp.LogsDir,
				})
			}
			cmd.Printf("root:     %s\nconfig:   %s\nsettings: %s\nlogs:     %s\n", pp.Root, pp.ConfigFile, pp.SettingsFile, pp.LogsDir)
			return nil
		},
	}
}

func newConfigEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Open settings.yaml in $EDITOR",
		Args:  cobra.NoArgs,
		RunE:  runConfigEdit,
	}
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	cfg, err := s.store.Load()
	if err != nil {
		return err
	}

	if outputJSON {
		return printJSON(cmd, struct {
			Settings config.Settings `json:"settings"`
			Config   config.Config   `json:"config"`
		}{s.settings, cfg})
	}

	data, err := s.settings.Marshal()
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	fmt.Fprintf(cmd.OutOrStdout(), "\n# %s\n", s.store.Path())
	engines, err := cfg.Marshal()
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), string(engines))
	return nil
}

func runConfigEdit(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	if err := ensureSettingsFile(s.paths.SettingsFile, s.settings); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("VISUAL"))
	if editor == "" {
		editor = strings.TrimSpace(os.Getenv("EDITOR"))
	}
	if editor == "" {
		editor = defaultEditor()
	}
	command, args, err := runner.Split(editor)
	if err != nil {
		return fmt.Errorf("invalid EDITOR value: %w", err)
	}

	_, err = runner.CmdRunner{}.Run(cmd.Context(), command, append(args, s.paths.SettingsFile), runner.RunOptions{
		Dir:    s.paths.Root,
		Stdin:  cmd.InOrStdin(),
		Stdout: cmd.OutOrStdout(),
		Stderr: cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("editor exited with error: %w", err)
	}

	// Surface a broken edit now rather than on the next build.
	if _, err := config.LoadSettings(s.paths.SettingsFile); err != nil {
		return fmt.Errorf("settings are invalid after edit: %w", err)
	}
	return nil
}

func ensureSettingsFile(path string, current config.Settings) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat settings: %w", err)
	}

	data, err := current.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write default settings: %w", err)
	}
	return nil
}
