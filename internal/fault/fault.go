// Package fault defines the error taxonomy shared by engine, toolchain,
// plugin and build resolution.
package fault

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is matched by every NotFoundError through errors.Is.
var ErrNotFound = errors.New("not found")

// ErrAmbiguous is matched by every AmbiguousMatchError through errors.Is.
var ErrAmbiguous = errors.New("ambiguous match")

// NotFoundError reports that nothing matched a selector or location.
type NotFoundError struct {
	Kind  string
	Query string
}

func (e *NotFoundError) Error() string {
	if e.Query == "" {
		return fmt.Sprintf("no %s found", e.Kind)
	}
	return fmt.Sprintf("no %s found for %q", e.Kind, e.Query)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound builds a NotFoundError.
func NotFound(kind, query string) error {
	return &NotFoundError{Kind: kind, Query: query}
}

// AmbiguousMatchError reports several matches where exactly one was required.
type AmbiguousMatchError struct {
	Kind       string
	Query      string
	Candidates []string
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("%q matches %d %ss: %s", e.Query, len(e.Candidates), e.Kind, strings.Join(e.Candidates, ", "))
}

func (e *AmbiguousMatchError) Is(target error) bool { return target == ErrAmbiguous }

// ExternalToolError reports a failed external invocation.
type ExternalToolError struct {
	Command  string
	Args     []string
	ExitCode int
	Err      error
}

func (e *ExternalToolError) Error() string {
	line := strings.TrimSpace(e.Command + " " + strings.Join(e.Args, " "))
	if e.ExitCode != 0 {
		return fmt.Sprintf("%s: exit status %d", line, e.ExitCode)
	}
	return fmt.Sprintf("%s: %v", line, e.Err)
}

func (e *ExternalToolError) Unwrap() error { return e.Err }

// ConfigCorruptionError reports a persisted configuration that cannot be
// decoded. Callers must not fall back to an empty configuration.
type ConfigCorruptionError struct {
	Path string
	Err  error
}

func (e *ConfigCorruptionError) Error() string {
	return fmt.Sprintf("config %s is corrupt: %v", e.Path, e.Err)
}

func (e *ConfigCorruptionError) Unwrap() error { return e.Err }
