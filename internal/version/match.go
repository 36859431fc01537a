package version

import (
	"fmt"
	"strings"

	"uetool/internal/fault"
)

// Selector is a loosely specified version such as "5", "5.5" or
// "5.4.2-prerelease". It matches every version that starts with the
// components it names.
type Selector struct {
	nums []int
	pre  string
	raw  string
}

// ParseSelector reads a selector with one to three numeric components and an
// optional prerelease tag.
func ParseSelector(s string) (Selector, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Selector{}, fmt.Errorf("empty version selector")
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
		return Selector{}, fmt.Errorf("parse selector %q: %w", raw, err)
	}
	if len(nums) > 3 {
		return Selector{}, fmt.Errorf("parse selector %q: too many components", raw)
	}
	if pre != "" && len(nums) < 3 {
		return Selector{}, fmt.Errorf("parse selector %q: prerelease needs major.minor.patch", raw)
	}
	return Selector{nums: nums, pre: pre, raw: raw}, nil
}

// SelectorFor returns the selector naming exactly v's written components.
func SelectorFor(v Version) Selector {
	nums := []int{v.Major, v.Minor}
	if v.parts != 2 {
		nums = append(nums, v.Patch)
	}
	return Selector{nums: nums, pre: v.Pre, raw: v.String()}
}

func (s Selector) String() string { return s.raw }

// Matches reports whether v starts with the selector's components. A
// selector without a prerelease tag also matches prereleases.
func (s Selector) Matches(v Version) bool {
	have := []int{v.Major, v.Minor, v.Patch}
	for i, n := range s.nums {
		if have[i] != n {
			return false
		}
	}
	if s.pre != "" && s.pre != v.Pre {
		return false
	}
	return true
}

// Candidate is anything a selector can be resolved against.
type Candidate interface {
	MatchedBy(Selector) bool
	String() string
}

// ResolveAll returns every candidate matched by sel, in input order. Zero
// matches yield a fault.NotFoundError naming kind.
func ResolveAll[T Candidate](kind string, sel Selector, candidates []T) ([]T, error) {
	var matches []T
	for _, c := range candidates {
		if c.MatchedBy(sel) {
			matches = append(matches, c)
		}
	}
	if len(matches) == 0 {
		return nil, fault.NotFound(kind, sel.String())
	}
	return matches, nil
}

// ResolveUnique returns the single candidate matched by sel. Several matches
// yield a fault.AmbiguousMatchError listing them.
func ResolveUnique[T Candidate](kind string, sel Selector, candidates []T) (T, error) {
	var zero T
	matches, err := ResolveAll(kind, sel, candidates)
	if err != nil {
		return zero, err
	}
	if len(matches) > 1 {
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.String()
		}
		return zero, &fault.AmbiguousMatchError{Kind: kind, Query: sel.String(), Candidates: names}
	}
	return matches[0], nil
}
