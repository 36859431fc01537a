package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"uetool/internal/paths"
)

// EnvPrefix prefixes environment overrides, e.g. UETOOL_BUILD_TOOL.
const EnvPrefix = "UETOOL"

// Toolchain install policies.
const (
	PolicyPrompt = "prompt"
	PolicyAuto   = "auto"
	PolicyNever  = "never"
)

// Settings are user preferences read from settings.yaml and the environment.
type Settings struct {
	BuildTool       string        `mapstructure:"build_tool" yaml:"build_tool" json:"build_tool"`
	OutputDir       string        `mapstructure:"output_dir" yaml:"output_dir" json:"output_dir"`
	ToolchainsDir   string        `mapstructure:"toolchains_dir" yaml:"toolchains_dir" json:"toolchains_dir"`
	ToolchainCDN    string        `mapstructure:"toolchain_cdn" yaml:"toolchain_cdn" json:"toolchain_cdn"`
	ToolchainPolicy string        `mapstructure:"toolchain_policy" yaml:"toolchain_policy" json:"toolchain_policy"`
	Timeout         time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
	DownloadRetries int           `mapstructure:"download_retries" yaml:"download_retries" json:"download_retries"`
	GitRemote       string        `mapstructure:"git_remote" yaml:"git_remote" json:"git_remote"`
}

// DefaultSettings returns the baseline settings.
func DefaultSettings() Settings {
	return Settings{
		BuildTool:       "ue4",
		OutputDir:       paths.DefaultOutputDir(),
		ToolchainsDir:   paths.DefaultToolchainsDir(),
		ToolchainCDN:    "https://cdn.unrealengine.com/Toolchain_Linux",
		ToolchainPolicy: PolicyPrompt,
		Timeout:         4 * time.Hour,
		DownloadRetries: 3,
		GitRemote:       "https://github.com/EpicGames/UnrealEngine.git",
	}
}

// LoadSettings reads path when it exists and applies UETOOL_* environment
// overrides on top of the defaults.
func LoadSettings(path string) (Settings, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultSettings()
	v.SetDefault("build_tool", defaults.BuildTool)
	v.SetDefault("output_dir", defaults.OutputDir)
	v.SetDefault("toolchains_dir", defaults.ToolchainsDir)
	v.SetDefault("toolchain_cdn", defaults.ToolchainCDN)
	v.SetDefault("toolchain_policy", defaults.ToolchainPolicy)
	v.SetDefault("timeout", defaults.Timeout)
	v.SetDefault("download_retries", defaults.DownloadRetries)
	v.SetDefault("git_remote", defaults.GitRemote)

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return Settings{}, fmt.Errorf("read settings %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return Settings{}, fmt.Errorf("stat settings: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks enumerated and numeric fields.
func (s Settings) Validate() error {
	switch s.ToolchainPolicy {
	case PolicyPrompt, PolicyAuto, PolicyNever:
	default:
		return fmt.Errorf("toolchain_policy must be one of %s, %s, %s; got %q", PolicyPrompt, PolicyAuto, PolicyNever, s.ToolchainPolicy)
	}
	if strings.TrimSpace(s.BuildTool) == "" {
		return fmt.Errorf("build_tool must not be empty")
	}
	if s.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if s.DownloadRetries < 0 {
		return fmt.Errorf("download_retries must not be negative")
	}
	return nil
}

// Marshal returns the YAML encoding of the settings.
func (s Settings) Marshal() ([]byte, error) {
	buf, err := yaml.Marshal(&s)
	if err != nil {
		return nil, fmt.Errorf("marshal settings: %w", err)
	}
	return buf, nil
}
