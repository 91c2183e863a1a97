package interfaces

import (
	"context"

	"github.com/remix-community/remixget/pkg/domain/model"
)

// ArtifactSource defines operations against the build hosting platform
type ArtifactSource interface {
	// Locate resolves the newest matching build of the repository to a
	// downloadable artifact reference
	Locate(ctx context.Context, spec model.RepositorySpec) (*model.ArtifactReference, error)

	// Download streams the artifact body to dest, reporting byte progress
	// through cb (which may be nil). It returns the path it wrote.
	Download(ctx context.Context, ref *model.ArtifactReference, dest string, cb model.ProgressFunc) (string, error)
}
