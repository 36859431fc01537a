package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// EnvConfigDir overrides the per-user uetool directory.
const EnvConfigDir = "UETOOL_CONFIG_DIR"

// UserPaths captures canonical per-user locations for uetool state.
type UserPaths struct {
	Root         string
	ConfigFile   string
	SettingsFile string
	LockFile     string
	LogsDir      string
	DownloadsDir string
}

// Resolve determines the per-user directory, honouring UETOOL_CONFIG_DIR.
func Resolve() (UserPaths, error) {
	if override, ok := os.LookupEnv(EnvConfigDir); ok && override != "" {
		abs, err := filepath.Abs(override)
		if err != nil {
			return UserPaths{}, fmt.Errorf("resolve %s: %w", EnvConfigDir, err)
		}
		return At(abs), nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return UserPaths{}, fmt.Errorf("detect user config dir: %w", err)
	}
	return At(filepath.Join(dir, "uetool")), nil
}

// At lays out the uetool files under root.
func At(root string) UserPaths {
	return UserPaths{
		Root:         root,
		ConfigFile:   filepath.Join(root, "config.json"),
		SettingsFile: filepath.Join(root, "settings.yaml"),
		LockFile:     filepath.Join(root, "config.lock"),
		LogsDir:      filepath.Join(root, "logs"),
		DownloadsDir: filepath.Join(root, "downloads"),
	}
}

// EnsureRoot makes sure the uetool directory exists on disk.
func (p UserPaths) EnsureRoot() error {
	if err := os.MkdirAll(p.Root, 0o755); err != nil {
		return fmt.Errorf("create uetool dir: %w", err)
	}
	return nil
}

// EnsureDirs creates the logs and downloads directories.
func (p UserPaths) EnsureDirs() error {
	for _, dir := range []string{p.Root, p.LogsDir, p.DownloadsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// DefaultToolchainsDir is where cross toolchains are installed when the
// settings do not name a directory.
func DefaultToolchainsDir() string {
	if runtime.GOOS == "windows" {
		return `C:\UnrealToolchains`
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "UnrealToolchains")
	}
	return filepath.Join(home, "UnrealToolchains")
}

// DefaultOutputDir is where packaged plugins land when the settings do not
// name a directory.
func DefaultOutputDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "uetool-packages")
	}
	return filepath.Join(home, "UnrealPackages")
}

// FileExists reports whether a path exists and is a regular file.
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// DirExists reports whether a path exists and is a directory.
func DirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}
