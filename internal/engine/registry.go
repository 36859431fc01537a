package engine

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"uetool/internal/fault"
	"uetool/internal/version"
)

// Registry is the in-memory set of known engines. Versions are unique: the
// first registration of a version wins and later ones are dropped with a
// warning.
type Registry struct {
	scanned []Install
	custom  []Install
	logger  *log.Logger
}

// NewRegistry returns an empty registry. A nil logger discards warnings.
func NewRegistry(logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Registry{logger: logger}
}

// AddScanned registers the engines of a scan and reports its skipped entries
// as warnings.
func (r *Registry) AddScanned(res ScanResult) {
	for _, skip := range res.Skipped {
		r.logger.Warn("skipping source entry", "name", skip.Name, "reason", skip.Reason)
	}
	for _, inst := range res.Engines {
		if existing, ok := r.find(inst.Version); ok {
			r.logger.Warn("duplicate engine version ignored", "version", inst.Version, "path", inst.Path, "kept", existing.Path)
			continue
		}
		inst.Custom = false
		r.scanned = append(r.scanned, inst)
	}
}

// AddCustom registers a manually added engine. It returns false, after
// logging a warning, when an engine with a matching version is already known.
func (r *Registry) AddCustom(v version.Version, path string) bool {
	if existing, ok := r.find(v); ok {
		r.logger.Warn("engine version already registered", "version", v, "existing", existing.Version, "path", existing.Path)
		return false
	}
	r.custom = append(r.custom, Install{Version: v, Path: path, Custom: true})
	return true
}

// find reports a known engine overlapping v in either direction: 5.4 and
// 5.4.2 collide, as do 5.5.0 and 5.5.0-preview.
func (r *Registry) find(v version.Version) (Install, bool) {
	sel := version.SelectorFor(v)
	for _, list := range [][]Install{r.scanned, r.custom} {
		for _, inst := range list {
			if sel.Matches(inst.Version) || version.SelectorFor(inst.Version).Matches(v) {
				return inst, true
			}
		}
	}
	return Install{}, false
}

// All returns scanned and custom engines, newest first.
func (r *Registry) All() []Install {
	all := make([]Install, 0, len(r.scanned)+len(r.custom))
	all = append(all, r.scanned...)
	all = append(all, r.custom...)
	sortDescending(all)
	return all
}

// Custom returns the manually added engines in registration order.
func (r *Registry) Custom() []Install {
	return append([]Install(nil), r.custom...)
}

// Len reports the number of known engines.
func (r *Registry) Len() int {
	return len(r.scanned) + len(r.custom)
}

// Versions lists every known version, newest first, or oldest first when
// reverse is set.
func (r *Registry) Versions(reverse bool) []version.Version {
	all := r.All()
	out := make([]version.Version, len(all))
	for i, inst := range all {
		if reverse {
			out[len(all)-1-i] = inst.Version
		} else {
			out[i] = inst.Version
		}
	}
	return out
}

// Resolve returns the single engine matching selector.
func (r *Registry) Resolve(selector string) (Install, error) {
	sel, err := version.ParseSelector(selector)
	if err != nil {
		return Install{}, fmt.Errorf("resolve engine: %w", err)
	}
	return version.ResolveUnique("engine", sel, r.All())
}

// Lookup returns the engine registered with exactly v.
func (r *Registry) Lookup(v version.Version) (Install, error) {
	for _, inst := range r.All() {
		if version.Equal(inst.Version, v) {
			return inst, nil
		}
	}
	return Install{}, fault.NotFound("engine", v.String())
}

// ResolvePath returns the installation path of the single engine matching
// selector.
func (r *Registry) ResolvePath(selector string) (string, error) {
	inst, err := r.Resolve(selector)
	if err != nil {
		return "", err
	}
	return inst.Path, nil
}

// ResolveAll returns every engine matching selector, newest first.
func (r *Registry) ResolveAll(selector string) ([]Install, error) {
	sel, err := version.ParseSelector(selector)
	if err != nil {
		return nil, fmt.Errorf("resolve engines: %w", err)
	}
	return version.ResolveAll("engine", sel, r.All())
}
