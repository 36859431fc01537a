// Package version parses engine and toolchain version strings and matches
// loose selectors such as "5.5" against concrete versions.
package version

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// Version is a major.minor[.patch][-pre] engine version. Prerelease versions
// sort before the release they precede: 5.5.0-preview < 5.5.0 < 5.5.1.
type Version struct {
	Major int
	Minor int
	Patch int
	Pre   string

	// parts records how many numeric components were written so String
	// reproduces "5.4" rather than "5.4.0".
	parts int
}

// New returns a three-component version.
func New(major, minor, patch int) Version {
	return Version{Major: major, Minor: minor, Patch: patch, parts: 3}
}

var folderPrefixes = []string{"UE_", "UE-", "UE", "v", "V"}

// Parse reads a version from free-form text. Launcher-style folder names
// ("UE_5.4") are accepted. At least major.minor is required.
func Parse(s string) (Version, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Version{}, fmt.Errorf("empty version")
	}
	text := raw
	for _, prefix := range folderPrefixes {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimPrefix(text, prefix)
			break
		}
	}

	nums, pre, err := splitComponents(text)
	if err != nil {
		return Version{}, fmt.Errorf("parse version %q: %w", raw, err)
	}
	if len(nums) < 2 || len(nums) > 3 {
		return Version{}, fmt.Errorf("parse version %q: want major.minor[.patch]", raw)
	}

	v := Version{Major: nums[0], Minor: nums[1], Pre: pre, parts: len(nums)}
	if len(nums) == 3 {
		v.Patch = nums[2]
	}
	if !semver.IsValid(v.canonical()) {
		return Version{}, fmt.Errorf("parse version %q: invalid prerelease tag %q", raw, pre)
	}
	return v, nil
}

// MustParse is Parse for literals; it panics on error.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Normalize parses s and truncates it to major.minor, dropping any patch and
// prerelease suffix. Toolchain catalogs are keyed this way.
func Normalize(s string) (Version, error) {
	v, err := Parse(s)
	if err != nil {
		return Version{}, err
	}
	return v.MajorMinor(), nil
}

func splitComponents(text string) ([]int, string, error) {
	core, pre, hasPre := strings.Cut(text, "-")
	if hasPre && strings.TrimSpace(pre) == "" {
		return nil, "", fmt.Errorf("empty prerelease tag")
	}
	if core == "" {
		return nil, "", fmt.Errorf("missing numeric components")
	}

	fields := strings.Split(core, ".")
	nums := make([]int, 0, len(fields))
	for _, field := range fields {
		if field == "" {
			return nil, "", fmt.Errorf("empty component")
		}
		n, err := strconv.Atoi(field)
		if err != nil || n < 0 {
			return nil, "", fmt.Errorf("component %q is not a number", field)
		}
		nums = append(nums, n)
	}
	return nums, pre, nil
}

// MajorMinor truncates v to its major.minor pair.
func (v Version) MajorMinor() Version {
	return Version{Major: v.Major, Minor: v.Minor, parts: 2}
}

// IsPrerelease reports whether v carries a prerelease tag.
func (v Version) IsPrerelease() bool {
	return v.Pre != ""
}

// IsZero reports whether v is the zero value.
func (v Version) IsZero() bool {
	return v == Version{}
}

func (v Version) String() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(v.Major))
	b.WriteByte('.')
	b.WriteString(strconv.Itoa(v.Minor))
	if v.parts != 2 {
		b.WriteByte('.')
		b.WriteString(strconv.Itoa(v.Patch))
	}
	if v.Pre != "" {
		b.WriteByte('-')
		b.WriteString(v.Pre)
	}
	return b.String()
}

// Compare returns -1, 0 or 1 using semantic version precedence. A missing
// patch compares as 0 and a prerelease is lower than the release with the same
// numbers.
func Compare(a, b Version) int {
	return semver.Compare(a.canonical(), b.canonical())
}

// Equal reports whether a and b name the same engine version.
func Equal(a, b Version) bool {
	return Compare(a, b) == 0 && a.Pre == b.Pre
}

func (v Version) canonical() string {
	c := fmt.Sprintf("v%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Pre != "" {
		c += "-" + v.Pre
	}
	return c
}

// Less reports whether v sorts before other.
func (v Version) Less(other Version) bool {
	return Compare(v, other) < 0
}

// SortDescending orders versions newest first.
func SortDescending(vs []Version) {
	sort.SliceStable(vs, func(i, j int) bool { return Compare(vs[i], vs[j]) > 0 })
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
