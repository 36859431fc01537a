// Package archive zips packaged plugin output.
package archive

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

// Top-level folders left out of plugin archives unless host binaries were
// requested.
var HostFolders = []string{"Intermediate", "Binaries"}

// Stats summarises a written archive.
type Stats struct {
	Path  string
	Files int
	Bytes int64
}

// ZipDir writes the contents of src to dest. Top-level entries named in
// exclude (case-insensitive) are skipped. The archive is written to a temp
// file and renamed into place.
func ZipDir(src, dest string, exclude []string) (Stats, error) {
	info, err := os.Stat(src)
	if err != nil {
		return Stats{}, fmt.Errorf("stat archive source: %w", err)
	}
	if !info.IsDir() {
		return Stats{}, fmt.Errorf("archive source %s is not a directory", src)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return Stats{}, fmt.Errorf("prepare archive dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), "archive-*.zip")
	if err != nil {
		return Stats{}, fmt.Errorf("create temp archive: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	zw := zip.NewWriter(tmp)
	stats := Stats{Path: dest}

	walkErr := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if excluded(rel, exclude) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		n, err := addFile(zw, path, filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		stats.Files++
		stats.Bytes += n
		return nil
	})
	if walkErr != nil {
		zw.Close()
		tmp.Close()
		return Stats{}, fmt.Errorf("archive %s: %w", src, walkErr)
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		return Stats{}, fmt.Errorf("finish archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Stats{}, fmt.Errorf("close archive: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return Stats{}, fmt.Errorf("finalize archive: %w", err)
	}
	return stats, nil
}

func excluded(rel string, exclude []string) bool {
	top, _, _ := strings.Cut(filepath.ToSlash(rel), "/")
	for _, name := range exclude {
		if strings.EqualFold(top, name) {
			return true
		}
	}
	return false
}

func addFile(zw *zip.Writer, path, name string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return 0, err
	}
	header.Name = name
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return 0, err
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return io.Copy(w, f)
}
