package build

// State is the orchestrator's position in a run.
type State int

const (
	StateResolvingVersions State = iota
	StateResolvingPlugin
	StatePerVersionBuild
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateResolvingVersions:
		return "resolving-versions"
	case StateResolvingPlugin:
		return "resolving-plugin"
	case StatePerVersionBuild:
		return "building"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Stage is a step of a single version's build.
type Stage string

const (
	StageRoot      Stage = "selecting engine"
	StageToolchain Stage = "toolchain"
	StagePackage   Stage = "packaging"
	StageArchive   Stage = "archiving"
)

// ProgressReporter receives per-version progress. Implementations must be
// safe to call from the goroutine running the build.
type ProgressReporter interface {
	Start(version string, stage Stage)
	Skip(version string, err error)
	Complete(artifact Artifact)
	Fail(version string, err error)
}

type nopReporter struct{}

func (nopReporter) Start(string, Stage) {}
func (nopReporter) Skip(string, error)  {}
func (nopReporter) Complete(Artifact)   {}
func (nopReporter) Fail(string, error)  {}
