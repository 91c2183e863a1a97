package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/remix-community/remixget/pkg/domain/interfaces"
	"github.com/remix-community/remixget/pkg/domain/model"
	"github.com/remix-community/remixget/pkg/domain/types"
	"github.com/remix-community/remixget/pkg/utils/async"
)

// FetchConfig holds the run-wide settings for the pipeline. It is built
// once at startup and read-only afterwards; no component reads ambient
// process state for these paths.
type FetchConfig struct {
	Repositories []model.RepositorySpec // Processed in order
	Destination  string                 // Destination root accumulating all artifacts
	TempRoot     string                 // Parent for the per-run temp dir ("" = system temp)
	Parallel     int                    // Concurrent pipelines; <=1 means sequential
}

type fetchUseCase struct {
	source interfaces.ArtifactSource
	sink   interfaces.StatusSink
	cfg    FetchConfig
}

// NewFetch creates a Fetcher processing the configured repositories
// against the given artifact source, reporting status through sink
func NewFetch(source interfaces.ArtifactSource, sink interfaces.StatusSink, cfg FetchConfig) interfaces.Fetcher {
	return &fetchUseCase{
		source: source,
		sink:   sink,
		cfg:    cfg,
	}
}

// Fetch runs the locate → download → extract → install pipeline for every
// configured repository. A repository failure is recorded in the report
// and processing continues; an environmental failure (destination or temp
// root unusable) halts the run and is returned as an error.
func (uc *fetchUseCase) Fetch(ctx context.Context) (*model.RunReport, error) {
	logger := ctxlog.From(ctx)

	if err := os.MkdirAll(uc.cfg.Destination, 0o755); err != nil {
		return nil, goerr.Wrap(err, "failed to create destination directory",
			goerr.T(types.ErrTagFilesystem), goerr.V("dir", uc.cfg.Destination))
	}

	tempRoot, err := os.MkdirTemp(uc.cfg.TempRoot, "remixget-*")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create temporary directory",
			goerr.T(types.ErrTagFilesystem), goerr.V("root", uc.cfg.TempRoot))
	}
	defer func() {
		if err := os.RemoveAll(tempRoot); err != nil {
			logger.Warn("Failed to remove temporary directory",
				"dir", tempRoot, "error", err)
		}
	}()

	logger.Info("Starting fetch run",
		"repositories", len(uc.cfg.Repositories),
		"destination", uc.cfg.Destination,
		"temp_root", tempRoot,
		"parallel", uc.cfg.Parallel,
	)

	results := make([]model.RepoResult, len(uc.cfg.Repositories))

	// Install writes into the shared destination, so it stays serialized
	// even when the pipelines run in parallel
	var installMu sync.Mutex

	if uc.cfg.Parallel > 1 {
		group := async.NewGroup(uc.cfg.Parallel)
		for i, spec := range uc.cfg.Repositories {
			group.Go(ctx, func(ctx context.Context) error {
				results[i] = uc.processRepo(ctx, spec, tempRoot, &installMu)
				return nil
			})
		}
		group.Wait()
	} else {
		for i, spec := range uc.cfg.Repositories {
			results[i] = uc.processRepo(ctx, spec, tempRoot, &installMu)
		}
	}

	report := &model.RunReport{Results: results}

	if report.Succeeded() > 0 {
		if err := CleanupArtifacts(ctx, uc.cfg.Destination); err != nil {
			logger.Warn("Failed to clean up build metadata", "error", err)
		}
	}

	logger.Info("Fetch run finished",
		"succeeded", report.Succeeded(),
		"failed", report.Failed(),
	)

	return report, nil
}

// processRepo drives one repository through the pipeline state machine
func (uc *fetchUseCase) processRepo(ctx context.Context, spec model.RepositorySpec, tempRoot string, installMu *sync.Mutex) model.RepoResult {
	logger := ctxlog.From(ctx)

	fail := func(stage model.Stage, ref *model.ArtifactReference, err error) model.RepoResult {
		logger.Error("Repository pipeline failed",
			"repo", spec.FullName(),
			"stage", string(stage),
			"error", err,
		)
		uc.sink.Failure(spec, stage, err)
		return model.RepoResult{
			Spec:      spec,
			Stage:     model.StageFailed,
			FailedAt:  stage,
			Reference: ref,
			Err:       err,
		}
	}

	uc.sink.Stage(spec, model.StageLocating)
	ref, err := uc.source.Locate(ctx, spec)
	if err != nil {
		return fail(model.StageLocating, nil, err)
	}

	logger.Info("Located newest build",
		"repo", spec.FullName(),
		"artifact", ref.Name,
		"build", ref.BuildLabel,
		"size_bytes", ref.Size,
	)

	uc.sink.Stage(spec, model.StageDownloading)
	archive := filepath.Join(tempRoot, fmt.Sprintf("%s-%s.zip", spec.Owner, spec.Name))
	if _, err := uc.source.Download(ctx, ref, archive, func(written, total int64) {
		uc.sink.Progress(spec, written, total)
	}); err != nil {
		return fail(model.StageDownloading, ref, err)
	}

	uc.sink.Stage(spec, model.StageExtracting)
	staging := filepath.Join(tempRoot, spec.Owner+"-"+spec.Name)
	if err := Extract(ctx, archive, staging); err != nil {
		return fail(model.StageExtracting, ref, err)
	}

	if spec.Flatten {
		if err := FlattenRoot(staging); err != nil {
			return fail(model.StageExtracting, ref, err)
		}
	}

	// The archive is no longer needed once its contents are staged
	if err := os.Remove(archive); err != nil {
		logger.Warn("Failed to remove downloaded archive",
			"path", archive, "error", err)
	}

	uc.sink.Stage(spec, model.StageInstalling)
	dest := uc.cfg.Destination
	if spec.MoveTo != "" {
		dest = filepath.Join(dest, spec.MoveTo)
	}

	installMu.Lock()
	err = Install(ctx, staging, dest)
	installMu.Unlock()
	if err != nil {
		return fail(model.StageInstalling, ref, err)
	}

	uc.sink.Stage(spec, model.StageDone)

	return model.RepoResult{
		Spec:      spec,
		Stage:     model.StageDone,
		Reference: ref,
	}
}

// Inspect locates the newest build of every configured repository without
// downloading anything
func (uc *fetchUseCase) Inspect(ctx context.Context) ([]model.RepoResult, error) {
	results := make([]model.RepoResult, 0, len(uc.cfg.Repositories))

	for _, spec := range uc.cfg.Repositories {
		ref, err := uc.source.Locate(ctx, spec)
		if err != nil {
			results = append(results, model.RepoResult{
				Spec:     spec,
				Stage:    model.StageFailed,
				FailedAt: model.StageLocating,
				Err:      err,
			})
			continue
		}

		results = append(results, model.RepoResult{
			Spec:      spec,
			Stage:     model.StageDone,
			Reference: ref,
		})
	}

	return results, nil
}
