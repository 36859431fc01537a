package toolchain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"

	"uetool/internal/fault"
	"uetool/internal/lockfile"
	"uetool/internal/paths"
	"uetool/internal/runner"
)

// Policy decides what Ensure does when a toolchain is missing.
type Policy string

const (
	PolicyPrompt Policy = "prompt"
	PolicyAuto   Policy = "auto"
	PolicyNever  Policy = "never"
)

// ErrDeclined is returned when the user refuses an install prompt.
var ErrDeclined = errors.New("toolchain install declined")

// Installer checks for and installs toolchains under Dir.
type Installer struct {
	Dir          string
	CDN          string
	DownloadsDir string
	Retries      int
	// RetryInterval is the first backoff delay; zero means one second.
	RetryInterval time.Duration
	Runner        runner.Runner
	Client        *http.Client
	Logger        *log.Logger

	// Prompt asks the user a yes/no question. Nil means the session is not
	// interactive and PolicyPrompt behaves like PolicyNever.
	Prompt func(question string) (bool, error)

	// HostOS overrides runtime.GOOS; installers only run on Windows.
	HostOS string
}

// Path returns where rel is (or would be) installed.
func (in *Installer) Path(rel Release) string {
	return filepath.Join(in.Dir, rel.Name())
}

// Installed reports whether rel is present on disk.
func (in *Installer) Installed(rel Release) bool {
	ok, err := paths.DirExists(in.Path(rel))
	return err == nil && ok
}

// Ensure returns the root of rel, installing it first when missing and the
// policy allows it.
func (in *Installer) Ensure(ctx context.Context, rel Release, policy Policy) (string, error) {
	root := in.Path(rel)
	if in.Installed(rel) {
		return root, nil
	}

	switch policy {
	case PolicyAuto:
	case PolicyPrompt:
		if in.Prompt == nil {
			return "", fmt.Errorf("%w (not running interactively; install it with `uetool toolchain install`)", fault.NotFound("installed toolchain", rel.Name()))
		}
		ok, err := in.Prompt(fmt.Sprintf("Toolchain %s is not installed in %s. Download and install it now?", rel.Name(), in.Dir))
		if err != nil {
			return "", fmt.Errorf("prompt: %w", err)
		}
		if !ok {
			return "", fmt.Errorf("%s: %w", rel.Name(), ErrDeclined)
		}
	case PolicyNever:
		return "", fault.NotFound("installed toolchain", rel.Name())
	default:
		return "", fmt.Errorf("unknown toolchain policy %q", policy)
	}

	return in.Install(ctx, rel, false)
}

// Install downloads the installer for rel and runs it silently. A nonzero
// installer exit is returned as *fault.ExternalToolError.
func (in *Installer) Install(ctx context.Context, rel Release, force bool) (string, error) {
	host := in.HostOS
	if host == "" {
		host = runtime.GOOS
	}
	if host != "windows" {
		return "", fmt.Errorf("toolchain installers only run on Windows hosts (this is %s)", host)
	}

	root := in.Path(rel)
	unlock, err := lockfile.Acquire(ctx, filepath.Join(in.DownloadsDir, rel.Name()+".lock"))
	if err != nil {
		return "", err
	}
	defer unlock()

	if !force && in.Installed(rel) {
		return root, nil
	}

	installer := filepath.Join(in.DownloadsDir, "native-linux-"+rel.Name()+".exe")
	if err := in.download(ctx, rel.URL(in.CDN), installer, force); err != nil {
		return "", err
	}

	in.logger().Info("running toolchain installer", "release", rel.Name(), "dir", root)
	if _, err := in.Runner.Run(ctx, installer, []string{"/S", "/D=" + root}, runner.RunOptions{}); err != nil {
		return "", err
	}
	if !in.Installed(rel) {
		return "", fmt.Errorf("installer for %s finished but %s is missing", rel.Name(), root)
	}
	return root, nil
}

func (in *Installer) download(ctx context.Context, url, dest string, force bool) error {
	if !force {
		if ok, _ := paths.FileExists(dest); ok {
			return nil
		}
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("prepare download destination: %w", err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Second
	if in.RetryInterval > 0 {
		policy.InitialInterval = in.RetryInterval
	}
	policy.MaxElapsedTime = 5 * time.Minute
	retries := in.Retries
	if retries < 0 {
		retries = 0
	}
	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(retries)), ctx)

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := in.fetch(ctx, url, dest)
		if err != nil {
			in.logger().Warn("toolchain download failed", "url", url, "attempt", attempt, "err", err)
		}
		return err
	}, b)
}

type statusError struct {
	url    string
	status string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("download %s: unexpected status %s", e.url, e.status)
}

func (in *Installer) fetch(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("User-Agent", "uetool/1.0")

	client := in.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := &statusError{url: url, status: resp.Status}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return backoff.Permanent(err)
		}
		return err
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(dest), "download-*.tmp")
	if err != nil {
		return backoff.Permanent(fmt.Errorf("create temp file: %w", err))
	}
	tmpPath := tmpFile.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		tmpFile.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if runtime.GOOS != "windows" {
		_ = os.Chmod(tmpPath, 0o755)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		return backoff.Permanent(fmt.Errorf("finalize download: %w", err))
	}
	return nil
}

func (in *Installer) logger() *log.Logger {
	if in.Logger == nil {
		return log.New(io.Discard)
	}
	return in.Logger
}
