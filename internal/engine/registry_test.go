package engine

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"uetool/internal/fault"
	"uetool/internal/version"
)

func mkdirs(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.MkdirAll(filepath.Join(root, name), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", name, err)
		}
	}
}

func versions(installs []Install) []string {
	out := make([]string, len(installs))
	for i, inst := range installs {
		out[i] = inst.Version.String()
	}
	return out
}

func TestScanSkipsUnparseableNames(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "5.3.0", "UE_5.4", "Backup", "notes", "5.x")
	if err := os.WriteFile(filepath.Join(root, "5.9.0"), []byte("file, not dir"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	res := Scan(root)

	if diff := cmp.Diff([]string{"5.3.0", "5.4"}, versions(res.Engines)); diff != "" {
		t.Fatalf("engines mismatch (-want +got):\n%s", diff)
	}
	if len(res.Skipped) != 3 {
		t.Fatalf("expected 3 skipped entries, got %+v", res.Skipped)
	}
	if res.Engines[1].Path != filepath.Join(root, "UE_5.4") {
		t.Fatalf("unexpected path %s", res.Engines[1].Path)
	}
}

func TestScanMissingDirectory(t *testing.T) {
	res := Scan(filepath.Join(t.TempDir(), "absent"))
	if len(res.Engines) != 0 {
		t.Fatalf("expected no engines, got %v", res.Engines)
	}
	if len(res.Skipped) != 1 {
		t.Fatalf("expected one skipped entry for the directory, got %v", res.Skipped)
	}
}

func TestRegistryAllNewestFirst(t *testing.T) {
	r := NewRegistry(nil)
	r.AddCustom(version.MustParse("5.3.0"), "/a")
	r.AddCustom(version.MustParse("5.4.2"), "/b")

	if diff := cmp.Diff([]string{"5.4.2", "5.3.0"}, versions(r.All())); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}

	reversed := r.Versions(true)
	if reversed[0].String() != "5.3.0" || reversed[1].String() != "5.4.2" {
		t.Fatalf("unexpected reversed order %v", reversed)
	}
}

func TestRegistryAddCustomRejectsDuplicate(t *testing.T) {
	var buf bytes.Buffer
	r := NewRegistry(log.New(&buf))
	r.AddScanned(ScanResult{Engines: []Install{{Version: version.MustParse("5.4.2"), Path: "/scanned"}}})

	if r.AddCustom(version.MustParse("5.4.2"), "/custom") {
		t.Fatal("expected duplicate add to be rejected")
	}
	if r.Len() != 1 {
		t.Fatalf("expected 1 engine, got %d", r.Len())
	}
	if !strings.Contains(buf.String(), "already registered") {
		t.Fatalf("expected warning in log, got %q", buf.String())
	}
	if !r.AddCustom(version.MustParse("5.5.0"), "/custom") {
		t.Fatal("expected new version to be accepted")
	}
	if len(r.Custom()) != 1 {
		t.Fatalf("expected one custom engine, got %v", r.Custom())
	}
}

func TestRegistryResolvePath(t *testing.T) {
	r := NewRegistry(nil)
	r.AddCustom(version.MustParse("5.3.0"), "/a")
	r.AddCustom(version.MustParse("5.4.2"), "/b")

	path, err := r.ResolvePath("5.4")
	if err != nil {
		t.Fatalf("ResolvePath error: %v", err)
	}
	if path != "/b" {
		t.Fatalf("expected /b, got %s", path)
	}

	if _, err := r.ResolvePath("5.9"); !errors.Is(err, fault.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := r.ResolvePath("5"); !errors.Is(err, fault.ErrAmbiguous) {
		t.Fatalf("expected ambiguous, got %v", err)
	}
}

func TestRegistryResolvePathEmpty(t *testing.T) {
	r := NewRegistry(nil)
	if _, err := r.ResolvePath("5.4"); !errors.Is(err, fault.ErrNotFound) {
		t.Fatalf("expected not found on empty registry, got %v", err)
	}
}

func TestRegistryResolveAll(t *testing.T) {
	r := NewRegistry(nil)
	r.AddScanned(Scan(func() string {
		root := t.TempDir()
		mkdirs(t, root, "5.5.0", "5.5.1-prerelease", "5.4.0")
		return root
	}()))

	got, err := r.ResolveAll("5.5")
	if err != nil {
		t.Fatalf("ResolveAll error: %v", err)
	}
	if diff := cmp.Diff([]string{"5.5.1-prerelease", "5.5.0"}, versions(got)); diff != "" {
		t.Fatalf("matches mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistryRejectsOverlappingVersions(t *testing.T) {
	cases := []struct {
		first, second string
	}{
		{"5.4", "5.4.2"},
		{"5.4.2", "5.4"},
		{"5.5.0", "5.5.0-prerelease"},
		{"5.5.0-prerelease", "5.5.0"},
	}
	for _, tc := range cases {
		r := NewRegistry(nil)
		if !r.AddCustom(version.MustParse(tc.first), "/first") {
			t.Fatalf("AddCustom(%s) rejected on empty registry", tc.first)
		}
		if r.AddCustom(version.MustParse(tc.second), "/second") {
			t.Fatalf("expected %s to collide with %s", tc.second, tc.first)
		}
		if r.Len() != 1 {
			t.Fatalf("%s then %s: expected 1 engine, got %d", tc.first, tc.second, r.Len())
		}
	}
}

func TestRegistryScanKeepsFirstOfOverlappingFolders(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "5.4", "5.4.2", "5.5.0", "5.5.0-prerelease")

	r := NewRegistry(nil)
	r.AddScanned(Scan(root))
	if r.Len() != 2 {
		t.Fatalf("expected 2 engines after dropping overlaps, got %v", versions(r.All()))
	}
	for _, v := range r.Versions(false) {
		inst, err := r.Lookup(v)
		if err != nil {
			t.Fatalf("Lookup(%s) error: %v", v, err)
		}
		if !version.Equal(inst.Version, v) {
			t.Fatalf("Lookup(%s) returned %s", v, inst.Version)
		}
	}
}

func TestRegistryLookupIsExact(t *testing.T) {
	r := NewRegistry(nil)
	r.AddCustom(version.MustParse("5.4.2"), "/b")
	r.AddCustom(version.MustParse("5.5.1-prerelease"), "/c")

	inst, err := r.Lookup(version.MustParse("5.4.2"))
	if err != nil {
		t.Fatalf("Lookup error: %v", err)
	}
	if inst.Path != "/b" {
		t.Fatalf("expected /b, got %s", inst.Path)
	}
	if _, err := r.Lookup(version.MustParse("5.5.1")); !errors.Is(err, fault.ErrNotFound) {
		t.Fatalf("expected release lookup to miss the prerelease, got %v", err)
	}
	if _, err := r.Lookup(version.MustParse("5.4.3")); !errors.Is(err, fault.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
