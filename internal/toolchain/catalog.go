// Package toolchain maps engine versions to the Linux cross-compile
// toolchain they require and installs missing toolchains.
package toolchain

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"uetool/internal/version"
)

//go:embed catalog.yaml
var builtinCatalog []byte

// OS tags used in toolchain release names.
const (
	OSCentOS7     = "centos7"
	OSRockyLinux8 = "rockylinux8"
)

// Release is one published toolchain.
type Release struct {
	Tag     string
	Clang   version.Version
	OS      string
	Engines []version.Version
}

// Name is the release's folder and installer stem, e.g.
// "v23_clang-18.1.0-rockylinux8".
func (r Release) Name() string {
	return fmt.Sprintf("%s_clang-%s-%s", r.Tag, r.Clang, r.OS)
}

func (r Release) String() string {
	return r.Name()
}

// URL returns the installer download location under base.
func (r Release) URL(base string) string {
	return strings.TrimRight(base, "/") + "/native-linux-" + r.Name() + ".exe"
}

// MatchedBy implements version.Candidate: a release matches when any of its
// supported engine minors does.
func (r Release) MatchedBy(sel version.Selector) bool {
	for _, v := range r.Engines {
		if sel.Matches(v) {
			return true
		}
	}
	return false
}

// Catalog is an immutable list of releases.
type Catalog struct {
	releases []Release
}

type catalogFile struct {
	Releases []struct {
		Tag     string   `yaml:"tag"`
		Clang   string   `yaml:"clang"`
		OS      string   `yaml:"os"`
		Engines []string `yaml:"engines"`
	} `yaml:"releases"`
}

// Parse decodes a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var raw catalogFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode toolchain catalog: %w", err)
	}

	c := &Catalog{releases: make([]Release, 0, len(raw.Releases))}
	for i, entry := range raw.Releases {
		if entry.Tag == "" || entry.OS == "" {
			return nil, fmt.Errorf("toolchain catalog entry %d: tag and os are required", i)
		}
		clang, err := version.Parse(entry.Clang)
		if err != nil {
			return nil, fmt.Errorf("toolchain catalog entry %s: %w", entry.Tag, err)
		}
		if len(entry.Engines) == 0 {
			return nil, fmt.Errorf("toolchain catalog entry %s: no engines", entry.Tag)
		}
		rel := Release{Tag: entry.Tag, Clang: clang, OS: entry.OS}
		for _, e := range entry.Engines {
			v, err := version.Normalize(e)
			if err != nil {
				return nil, fmt.Errorf("toolchain catalog entry %s: %w", entry.Tag, err)
			}
			rel.Engines = append(rel.Engines, v)
		}
		c.releases = append(c.releases, rel)
	}
	return c, nil
}

var loadBuiltin = sync.OnceValues(func() (*Catalog, error) {
	return Parse(builtinCatalog)
})

// Builtin returns the catalog compiled into the binary.
func Builtin() (*Catalog, error) {
	return loadBuiltin()
}

// Releases returns the catalog entries in file order.
func (c *Catalog) Releases() []Release {
	return append([]Release(nil), c.releases...)
}

// Resolve finds the release for an engine version. The version is truncated
// to major.minor first, so "5.5.1" and "5.5.0-prerelease" both resolve to the
// 5.5 toolchain. Exactly one release must match.
func (c *Catalog) Resolve(engineVersion string) (Release, error) {
	mm, err := version.Normalize(engineVersion)
	if err != nil {
		return Release{}, fmt.Errorf("resolve toolchain: %w", err)
	}
	return version.ResolveUnique("toolchain", version.SelectorFor(mm), c.releases)
}
