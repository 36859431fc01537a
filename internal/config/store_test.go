package config

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"uetool/internal/fault"
	"uetool/internal/paths"
	"uetool/internal/version"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(paths.At(filepath.Join(t.TempDir(), "uetool")))
}

func TestLoadCreatesDefault(t *testing.T) {
	s := testStore(t)

	cfg, err := s.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(cfg.Engines) != 0 || cfg.SourceDirectory != "" {
		t.Fatalf("expected empty default, got %+v", cfg)
	}

	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("expected config file to be written: %v", err)
	}
	if !strings.Contains(string(data), `"Engines": []`) {
		t.Fatalf("unexpected default contents:\n%s", data)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := testStore(t)
	original := []byte(`{
  "Engines": [
    {
      "Version": "5.4",
      "Path": "/opt/UE_5.4"
    },
    {
      "Version": "5.5.0-prerelease",
      "Path": "/opt/ue-5.5"
    }
  ],
  "SourceDirectory": "/src/engines"
}
`)
	if err := os.MkdirAll(filepath.Dir(s.Path()), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(s.Path(), original, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := s.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if err := s.Save(cfg); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	saved, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(original, saved) {
		t.Fatalf("round trip changed file\nwant:\n%s\ngot:\n%s", original, saved)
	}
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	cases := map[string]string{
		"syntax":      `{"Engines": [`,
		"bad version": `{"Engines": [{"Version": "five", "Path": "/x"}], "SourceDirectory": ""}`,
		"empty path":  `{"Engines": [{"Version": "5.4.0", "Path": ""}], "SourceDirectory": ""}`,
		"unknown key": `{"Engine": [], "SourceDirectory": ""}`,
	}
	for name, body := range cases {
		s := testStore(t)
		if err := os.MkdirAll(filepath.Dir(s.Path()), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(s.Path(), []byte(body), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		_, err := s.Load()
		var corrupt *fault.ConfigCorruptionError
		if !errors.As(err, &corrupt) {
			t.Fatalf("%s: expected ConfigCorruptionError, got %v", name, err)
		}
		data, _ := os.ReadFile(s.Path())
		if string(data) != body {
			t.Fatalf("%s: corrupt file must not be overwritten", name)
		}
	}
}

func TestUpdateSerialisesWriters(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Update(ctx, func(c *Config) error {
				c.Engines = append(c.Engines, EngineEntry{
					Version: version.New(5, i, 0),
					Path:    filepath.Join("/engines", version.New(5, i, 0).String()),
				})
				return nil
			})
			if err != nil {
				t.Errorf("Update error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	cfg, err := s.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(cfg.Engines) != 8 {
		t.Fatalf("expected 8 engines after concurrent updates, got %d", len(cfg.Engines))
	}
}

func TestUpdateErrorLeavesFile(t *testing.T) {
	s := testStore(t)
	if _, err := s.Load(); err != nil {
		t.Fatalf("Load error: %v", err)
	}
	before, _ := os.ReadFile(s.Path())

	boom := errors.New("boom")
	_, err := s.Update(context.Background(), func(c *Config) error {
		c.SourceDirectory = "/changed"
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	after, _ := os.ReadFile(s.Path())
	if !bytes.Equal(before, after) {
		t.Fatal("file changed despite error")
	}
}

func TestRegistryCombinesScanAndCustom(t *testing.T) {
	src := t.TempDir()
	for _, name := range []string{"5.3.0", "Docs"} {
		if err := os.MkdirAll(filepath.Join(src, name), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	cfg := Config{
		SourceDirectory: src,
		Engines: []EngineEntry{
			{Version: version.MustParse("5.4.2"), Path: "/b"},
			{Version: version.MustParse("5.3.0"), Path: "/dup"},
		},
	}

	reg := cfg.Registry(nil)
	all := reg.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 engines, got %v", all)
	}
	if all[0].Path != "/b" || all[1].Path != filepath.Join(src, "5.3.0") {
		t.Fatalf("unexpected registry contents %+v", all)
	}

	cfg.SetCustom(reg.Custom())
	if len(cfg.Engines) != 1 || cfg.Engines[0].Path != "/b" {
		t.Fatalf("expected only surviving custom engine, got %+v", cfg.Engines)
	}
}
