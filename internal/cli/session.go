package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"uetool/internal/config"
	"uetool/internal/engine"
	"uetool/internal/logx"
	"uetool/internal/paths"
	"uetool/internal/runner"
	"uetool/internal/toolchain"
	"uetool/internal/tui"
)

// session bundles the per-invocation state every command starts from.
type session struct {
	paths    paths.UserPaths
	settings config.Settings
	store    *config.Store
	logger   *log.Logger
}

func openSession(cmd *cobra.Command) (*session, error) {
	pp, err := paths.Resolve()
	if err != nil {
		return nil, err
	}
	if err := pp.EnsureRoot(); err != nil {
		return nil, err
	}
	settings, err := config.LoadSettings(pp.SettingsFile)
	if err != nil {
		return nil, err
	}
	return &session{
		paths:    pp,
		settings: settings,
		store:    config.NewStore(pp),
		logger:   logx.Console(cmd.ErrOrStderr(), verbose),
	}, nil
}

func (s *session) registry() (config.Config, *engine.Registry, error) {
	cfg, err := s.store.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, cfg.Registry(s.logger), nil
}

func (s *session) installer(cmd *cobra.Command, logger *log.Logger) *toolchain.Installer {
	return &toolchain.Installer{
		Dir:          s.settings.ToolchainsDir,
		CDN:          s.settings.ToolchainCDN,
		DownloadsDir: s.paths.DownloadsDir,
		Retries:      s.settings.DownloadRetries,
		Runner:       runner.CmdRunner{},
		Logger:       logger,
		Prompt:       confirmFunc(cmd),
	}
}

// confirmFunc returns a yes/no prompt, or nil when stdin and stderr are not
// both terminals.
func confirmFunc(cmd *cobra.Command) func(string) (bool, error) {
	if outputJSON || !tui.IsTerminal(cmd.InOrStdin()) || !tui.IsTerminal(cmd.ErrOrStderr()) {
		return nil
	}
	reader := bufio.NewReader(cmd.InOrStdin())
	return func(question string) (bool, error) {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s [y/N] ", question)
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, err
		}
		return isYes(line), nil
	}
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func executableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Dir(exe)
}
