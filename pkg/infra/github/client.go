package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/remix-community/remixget/pkg/domain/interfaces"
	"github.com/remix-community/remixget/pkg/domain/model"
	"github.com/remix-community/remixget/pkg/domain/types"
)

const defaultNightlyBase = "https://nightly.link"

type client struct {
	gh          *github.Client
	httpClient  *http.Client
	token       string
	baseURL     string
	nightlyBase string
}

// Option is a functional option for client configuration
type Option func(*client)

// WithToken sets the API token used for authenticated requests. Without a
// token, workflow artifacts are fetched through the nightly.link mirror
// because the artifact endpoint itself requires authentication.
func WithToken(token string) Option {
	return func(c *client) {
		c.token = token
	}
}

// WithBaseURL overrides the API base URL (GitHub Enterprise, tests)
func WithBaseURL(raw string) Option {
	return func(c *client) {
		c.baseURL = raw
	}
}

// WithHTTPClient overrides the HTTP client used for API calls and downloads
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.httpClient = hc
	}
}

// WithNightlyBase overrides the nightly.link mirror base URL (tests)
func WithNightlyBase(base string) Option {
	return func(c *client) {
		c.nightlyBase = strings.TrimSuffix(base, "/")
	}
}

// NewClient creates an ArtifactSource backed by the GitHub REST API
func NewClient(opts ...Option) (interfaces.ArtifactSource, error) {
	c := &client{
		httpClient:  http.DefaultClient,
		nightlyBase: defaultNightlyBase,
	}

	for _, opt := range opts {
		opt(c)
	}

	gh := github.NewClient(c.httpClient)
	if c.token != "" {
		gh = gh.WithAuthToken(c.token)
	}

	if c.baseURL != "" {
		u, err := url.Parse(c.baseURL)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid API base URL", goerr.V("url", c.baseURL))
		}
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		gh.BaseURL = u
	}

	c.gh = gh

	return c, nil
}

// Locate resolves the newest matching build of the repository
func (c *client) Locate(ctx context.Context, spec model.RepositorySpec) (*model.ArtifactReference, error) {
	switch spec.Source {
	case model.SourceRelease:
		return c.locateRelease(ctx, spec)
	case model.SourceArtifact:
		return c.locateArtifact(ctx, spec)
	default:
		return nil, goerr.New("unknown source type",
			goerr.V("repo", spec.FullName()), goerr.V("source", string(spec.Source)))
	}
}

// locateRelease picks the latest published release and its first asset
// not matching the exclusion substring
func (c *client) locateRelease(ctx context.Context, spec model.RepositorySpec) (*model.ArtifactReference, error) {
	rel, _, err := c.gh.Repositories.GetLatestRelease(ctx, spec.Owner, spec.Name)
	if err != nil {
		return nil, wrapAPIError(err, "failed to fetch latest release", spec)
	}

	for _, asset := range rel.Assets {
		if spec.Exclude != "" && strings.Contains(asset.GetName(), spec.Exclude) {
			continue
		}

		return &model.ArtifactReference{
			DownloadURL: asset.GetBrowserDownloadURL(),
			Name:        rel.GetName(),
			Size:        int64(asset.GetSize()),
			BuildID:     rel.GetID(),
			BuildLabel:  rel.GetTagName(),
		}, nil
	}

	return nil, goerr.New("latest release has no matching asset",
		goerr.T(types.ErrTagNotFound),
		goerr.V("repo", spec.FullName()),
		goerr.V("release", rel.GetTagName()),
		goerr.V("exclude", spec.Exclude))
}

// locateArtifact picks the newest successful workflow run on the
// configured branch and resolves its matching artifact
func (c *client) locateArtifact(ctx context.Context, spec model.RepositorySpec) (*model.ArtifactReference, error) {
	logger := ctxlog.From(ctx)

	runs, _, err := c.gh.Actions.ListRepositoryWorkflowRuns(ctx, spec.Owner, spec.Name, &github.ListWorkflowRunsOptions{
		Branch:      spec.Branch,
		Status:      "success",
		ListOptions: github.ListOptions{PerPage: 50},
	})
	if err != nil {
		return nil, wrapAPIError(err, "failed to list workflow runs", spec)
	}

	run := newestRun(runs.WorkflowRuns, spec.Branch)
	if run == nil {
		return nil, goerr.New("no successful workflow run on branch",
			goerr.T(types.ErrTagNotFound),
			goerr.V("repo", spec.FullName()),
			goerr.V("branch", spec.Branch))
	}

	logger.Debug("Selected workflow run",
		"repo", spec.FullName(),
		"run_id", run.GetID(),
		"head_sha", run.GetHeadSHA(),
		"created_at", run.GetCreatedAt(),
	)

	arts, _, err := c.gh.Actions.ListWorkflowRunArtifacts(ctx, spec.Owner, spec.Name, run.GetID(), &github.ListOptions{PerPage: 50})
	if err != nil {
		return nil, wrapAPIError(err, "failed to list run artifacts", spec)
	}

	for _, art := range arts.Artifacts {
		if art.GetExpired() {
			continue
		}
		if spec.Match != "" && !strings.Contains(art.GetName(), spec.Match) {
			continue
		}

		ref := &model.ArtifactReference{
			Name:       art.GetName(),
			Size:       art.GetSizeInBytes(),
			BuildID:    run.GetID(),
			BuildLabel: run.GetHeadSHA(),
		}

		if c.token != "" {
			u, _, err := c.gh.Actions.DownloadArtifact(ctx, spec.Owner, spec.Name, art.GetID(), 3)
			if err != nil {
				return nil, wrapAPIError(err, "failed to resolve artifact download URL", spec)
			}
			ref.DownloadURL = u.String()
			ref.Authenticated = true
		} else {
			// The artifact endpoint requires authentication; nightly.link
			// mirrors artifacts of public repositories without it.
			ref.DownloadURL = fmt.Sprintf("%s/%s/%s/actions/artifacts/%d.zip",
				c.nightlyBase, spec.Owner, spec.Name, art.GetID())
		}

		return ref, nil
	}

	return nil, goerr.New("workflow run has no matching artifact",
		goerr.T(types.ErrTagNotFound),
		goerr.V("repo", spec.FullName()),
		goerr.V("run_id", run.GetID()),
		goerr.V("match", spec.Match))
}

// newestRun returns the successful run with the maximum creation time,
// breaking ties on the highest run ID. The API returns runs newest-first,
// but the selection is explicit rather than trusting response order.
func newestRun(runs []*github.WorkflowRun, branch string) *github.WorkflowRun {
	var best *github.WorkflowRun
	for _, run := range runs {
		if run.GetConclusion() != "success" {
			continue
		}
		if branch != "" && run.GetHeadBranch() != branch {
			continue
		}
		if best == nil {
			best = run
			continue
		}

		created := run.GetCreatedAt().Time
		bestCreated := best.GetCreatedAt().Time
		if created.After(bestCreated) || (created.Equal(bestCreated) && run.GetID() > best.GetID()) {
			best = run
		}
	}
	return best
}

// Download streams the artifact body to dest, overwriting any existing
// file, and verifies the byte count against Content-Length when reported
func (c *client) Download(ctx context.Context, ref *model.ArtifactReference, dest string, cb model.ProgressFunc) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.DownloadURL, nil)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create download request",
			goerr.T(types.ErrTagNetwork), goerr.V("url", ref.DownloadURL))
	}
	req.Header.Set("User-Agent", "remixget/"+types.Version)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", goerr.Wrap(err, "failed to download artifact",
			goerr.T(types.ErrTagNetwork), goerr.V("url", ref.DownloadURL))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", goerr.New("unexpected status code on download",
			goerr.T(types.ErrTagNetwork),
			goerr.V("url", ref.DownloadURL),
			goerr.V("status", resp.StatusCode))
	}

	f, err := os.Create(dest)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create download file",
			goerr.T(types.ErrTagFilesystem), goerr.V("path", dest))
	}
	defer f.Close()

	total := resp.ContentLength
	if total <= 0 {
		total = ref.Size
	}

	written, err := io.Copy(io.MultiWriter(f, &progressWriter{total: total, cb: cb}), resp.Body)
	if err != nil {
		return "", goerr.Wrap(err, "download interrupted",
			goerr.T(types.ErrTagNetwork),
			goerr.V("url", ref.DownloadURL),
			goerr.V("written", written))
	}

	if resp.ContentLength > 0 && written != resp.ContentLength {
		return "", goerr.New("truncated download",
			goerr.T(types.ErrTagNetwork),
			goerr.V("url", ref.DownloadURL),
			goerr.V("expected", resp.ContentLength),
			goerr.V("written", written))
	}

	return dest, nil
}

// progressWriter counts bytes flowing through an io.MultiWriter and
// forwards them to the progress callback
type progressWriter struct {
	written int64
	total   int64
	cb      model.ProgressFunc
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.written += int64(len(p))
	if w.cb != nil {
		w.cb(w.written, w.total)
	}
	return len(p), nil
}

// wrapAPIError maps go-github errors onto the error taxonomy
func wrapAPIError(err error, msg string, spec model.RepositorySpec) error {
	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	var respErr *github.ErrorResponse

	opts := []goerr.Option{goerr.V("repo", spec.FullName())}

	switch {
	case errors.As(err, &rateErr), errors.As(err, &abuseErr):
		opts = append(opts, goerr.T(types.ErrTagRateLimit))
	case errors.As(err, &respErr) && respErr.Response != nil && respErr.Response.StatusCode == http.StatusNotFound:
		opts = append(opts, goerr.T(types.ErrTagNotFound))
	default:
		opts = append(opts, goerr.T(types.ErrTagNetwork))
	}

	return goerr.Wrap(err, msg, opts...)
}
