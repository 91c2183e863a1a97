package interfaces

import (
	"context"

	"github.com/remix-community/remixget/pkg/domain/model"
)

// Fetcher defines the full download-and-install pipeline
type Fetcher interface {
	// Fetch processes every configured repository and returns the run
	// report. A non-nil error means an environmental failure that halted
	// the run; per-repository failures are recorded in the report instead.
	Fetch(ctx context.Context) (*model.RunReport, error)

	// Inspect locates the newest build for every configured repository
	// without downloading anything
	Inspect(ctx context.Context) ([]model.RepoResult, error)
}

// StatusSink receives pipeline status for presentation to the user
type StatusSink interface {
	// Stage announces that the repository entered the given stage
	Stage(spec model.RepositorySpec, stage model.Stage)

	// Progress reports download byte progress for the repository
	Progress(spec model.RepositorySpec, written, total int64)

	// Failure announces that the repository failed during the given stage
	Failure(spec model.RepositorySpec, stage model.Stage, err error)
}
