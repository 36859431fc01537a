package uecli

import (
	"fmt"
	"strings"
)

// Platform is an engine target platform.
type Platform string

const (
	Win64      Platform = "Win64"
	Android    Platform = "Android"
	Linux      Platform = "Linux"
	LinuxArm64 Platform = "LinuxArm64"
)

// Platforms lists every supported target.
var Platforms = []Platform{Win64, Android, Linux, LinuxArm64}

// ParsePlatform matches a platform name case-insensitively.
func ParsePlatform(s string) (Platform, error) {
	for _, p := range Platforms {
		if strings.EqualFold(strings.TrimSpace(s), string(p)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown platform %q (want one of %s)", s, joinPlatforms(Platforms, ", "))
}

// ParsePlatforms parses a list, dropping duplicates while keeping order.
func ParsePlatforms(values []string) ([]Platform, error) {
	seen := map[Platform]bool{}
	var out []Platform
	for _, v := range values {
		p, err := ParsePlatform(v)
		if err != nil {
			return nil, err
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out, nil
}

// IsLinuxFamily reports whether building for p needs the cross toolchain.
func (p Platform) IsLinuxFamily() bool {
	return p == Linux || p == LinuxArm64
}

// NeedsToolchain reports whether any of platforms is in the Linux family.
func NeedsToolchain(platforms []Platform) bool {
	for _, p := range platforms {
		if p.IsLinuxFamily() {
			return true
		}
	}
	return false
}

func joinPlatforms(platforms []Platform, sep string) string {
	names := make([]string, len(platforms))
	for i, p := range platforms {
		names[i] = string(p)
	}
	return strings.Join(names, sep)
}
