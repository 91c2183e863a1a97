package model

import "github.com/m-mizutani/goerr/v2"

// SourceType selects how the newest build of a repository is located
type SourceType string

const (
	// SourceRelease uses the repository's latest published release
	SourceRelease SourceType = "release"

	// SourceArtifact uses the newest successful workflow run on a branch
	SourceArtifact SourceType = "artifact"
)

// RepositorySpec identifies one upstream project and how its artifact is
// selected and installed. Specs are built once at startup from the
// manifest and read-only afterwards.
type RepositorySpec struct {
	Owner   string     // Repository owner
	Name    string     // Repository name
	Source  SourceType // Where builds come from
	Branch  string     // Workflow branch filter (artifact sources)
	MoveTo  string     // Subdirectory under the destination ("" = root)
	Match   string     // Substring an artifact name must contain
	Exclude string     // Substring a release asset name must not contain
	Flatten bool       // Strip a single wrapping top-level directory
}

// FullName returns the owner/name form used in logs and status lines
func (s RepositorySpec) FullName() string {
	return s.Owner + "/" + s.Name
}

// Validate checks the spec is complete enough to process
func (s RepositorySpec) Validate() error {
	if s.Owner == "" || s.Name == "" {
		return goerr.New("repository spec requires owner and name",
			goerr.V("owner", s.Owner), goerr.V("name", s.Name))
	}

	switch s.Source {
	case SourceRelease:
	case SourceArtifact:
		if s.Branch == "" {
			return goerr.New("artifact source requires a branch",
				goerr.V("repo", s.FullName()))
		}
	default:
		return goerr.New("unknown source type",
			goerr.V("repo", s.FullName()), goerr.V("source", string(s.Source)))
	}

	return nil
}
