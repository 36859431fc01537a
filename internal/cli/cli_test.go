package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"uetool/internal/paths"
)

func setupHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(paths.EnvConfigDir, filepath.Join(dir, "uetool"))
	t.Setenv("UETOOL_TOOLCHAINS_DIR", filepath.Join(dir, "toolchains"))
	t.Setenv("UETOOL_OUTPUT_DIR", filepath.Join(dir, "out"))
	return dir
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func mkdir(t *testing.T, parts ...string) string {
	t.Helper()
	dir := filepath.Join(parts...)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	return dir
}

func TestEngineAddListPath(t *testing.T) {
	home := setupHome(t)
	engineDir := mkdir(t, home, "engines", "UE_5.4")

	if _, _, err := run(t, "engine", "add", "5.4.2", engineDir); err != nil {
		t.Fatalf("engine add error: %v", err)
	}
	out, stderr, err := run(t, "engine", "add", "5.4", mkdir(t, home, "other"))
	if err != nil {
		t.Fatalf("duplicate engine add should not fail: %v", err)
	}
	if !strings.Contains(stderr, "already registered") {
		t.Fatalf("expected duplicate warning on stderr, got %q", stderr)
	}
	if !strings.Contains(out, "nothing changed") {
		t.Fatalf("expected no-op notice, got %q", out)
	}

	out, _, err = run(t, "engine", "list", "--json")
	if err != nil {
		t.Fatalf("engine list error: %v", err)
	}
	var rows []engineRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode list: %v\n%s", err, out)
	}
	if len(rows) != 1 || rows[0].Version != "5.4.2" || rows[0].Origin != "custom" {
		t.Fatalf("unexpected rows %+v", rows)
	}

	out, _, err = run(t, "engine", "path", "5.4")
	if err != nil {
		t.Fatalf("engine path error: %v", err)
	}
	if strings.TrimSpace(out) != engineDir {
		t.Fatalf("engine path = %q, want %q", out, engineDir)
	}
}

func TestEngineListMergesSourceDirectory(t *testing.T) {
	home := setupHome(t)
	src := mkdir(t, home, "source")
	mkdir(t, src, "5.3.0")
	mkdir(t, src, "5.5")
	mkdir(t, src, "notes")

	if _, _, err := run(t, "engine", "source", src); err != nil {
		t.Fatalf("engine source error: %v", err)
	}
	if _, _, err := run(t, "engine", "add", "5.4.2", mkdir(t, home, "custom")); err != nil {
		t.Fatalf("engine add error: %v", err)
	}

	out, stderr, err := run(t, "engine", "list")
	if err != nil {
		t.Fatalf("engine list error: %v", err)
	}
	i55, i54, i53 := strings.Index(out, "5.5"), strings.Index(out, "5.4.2"), strings.Index(out, "5.3.0")
	if i55 < 0 || !(i55 < i54 && i54 < i53) {
		t.Fatalf("expected newest first, got:\n%s", out)
	}
	if !strings.Contains(stderr, "notes") {
		t.Fatalf("expected a warning about the skipped entry, got %q", stderr)
	}
}

func TestEnginePathNotFound(t *testing.T) {
	setupHome(t)
	if _, _, err := run(t, "engine", "path", "5.4"); err == nil {
		t.Fatal("expected not found on an empty registry")
	}
}

func TestCorruptConfigIsFatal(t *testing.T) {
	home := setupHome(t)
	cfgDir := mkdir(t, home, "uetool")
	if err := os.WriteFile(filepath.Join(cfgDir, "config.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, err := run(t, "engine", "list"); err == nil || !strings.Contains(err.Error(), "corrupt") {
		t.Fatalf("expected corruption error, got %v", err)
	}
}

func TestToolchainResolveJSON(t *testing.T) {
	setupHome(t)
	out, _, err := run(t, "toolchain", "resolve", "5.4.2", "--json")
	if err != nil {
		t.Fatalf("toolchain resolve error: %v", err)
	}
	var st toolchainStatus
	if err := json.Unmarshal([]byte(out), &st); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if st.Name != "v22_clang-16.0.6-centos7" || st.Installed {
		t.Fatalf("unexpected status %+v", st)
	}
	if !strings.HasSuffix(st.URL, "/native-linux-v22_clang-16.0.6-centos7.exe") {
		t.Fatalf("unexpected url %s", st.URL)
	}
}

func TestToolchainResolveUnsupported(t *testing.T) {
	setupHome(t)
	if _, _, err := run(t, "toolchain", "resolve", "4.27"); err == nil {
		t.Fatal("expected no toolchain for 4.27")
	}
}

func TestToolchainListShowsInstalled(t *testing.T) {
	home := setupHome(t)
	mkdir(t, home, "toolchains", "v23_clang-18.1.0-rockylinux8")

	out, _, err := run(t, "toolchain", "list")
	if err != nil {
		t.Fatalf("toolchain list error: %v", err)
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "v23_") && !strings.Contains(line, "installed") {
			t.Fatalf("expected v23 installed, got %q", line)
		}
		if strings.HasPrefix(line, "v25_") && !strings.Contains(line, "missing") {
			t.Fatalf("expected v25 missing, got %q", line)
		}
	}
}

func TestPluginPackageNeedsVersions(t *testing.T) {
	setupHome(t)
	if _, _, err := run(t, "plugin", "package"); err == nil {
		t.Fatal("expected an error without versions")
	}
}

func TestPluginPackageAllWithoutEngines(t *testing.T) {
	setupHome(t)
	_, _, err := run(t, "plugin", "package", "--all", "--plugin-dir", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "no engine versions") {
		t.Fatalf("expected no engine versions error, got %v", err)
	}
}

func TestPluginSearchStarts(t *testing.T) {
	if got := pluginSearchStarts("/work/MyPlugin"); len(got) != 1 || got[0] != "/work/MyPlugin" {
		t.Fatalf("explicit dir should be the only start, got %v", got)
	}
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	got := pluginSearchStarts("")
	if len(got) != 2 || got[0] != cwd {
		t.Fatalf("expected cwd then executable dir, got %v", got)
	}
}

func TestConfigShowAndPath(t *testing.T) {
	home := setupHome(t)

	out, _, err := run(t, "config", "show")
	if err != nil {
		t.Fatalf("config show error: %v", err)
	}
	for _, want := range []string{"build_tool: ue4", "toolchain_policy: prompt", `"Engines": []`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}

	out, _, err = run(t, "config", "path")
	if err != nil {
		t.Fatalf("config path error: %v", err)
	}
	if !strings.Contains(out, filepath.Join(home, "uetool", "config.json")) {
		t.Fatalf("unexpected paths output:\n%s", out)
	}
}

func TestIsYes(t *testing.T) {
	for answer, want := range map[string]bool{"y\n": true, "YES": true, "": false, "n": false, "maybe": false} {
		if got := isYes(answer); got != want {
			t.Errorf("isYes(%q) = %v, want %v", answer, got, want)
		}
	}
}
