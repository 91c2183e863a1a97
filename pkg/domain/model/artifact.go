package model

// ArtifactReference is the result of locating the newest build of a
// repository. It is created per locate call and discarded once the
// artifact has been downloaded.
type ArtifactReference struct {
	DownloadURL   string // Resolved artifact download URL
	Name          string // Artifact or release display name
	Size          int64  // Reported size in bytes (0 if unknown)
	BuildID       int64  // Workflow run ID or release ID
	BuildLabel    string // Release tag or head commit identifying the build
	Authenticated bool   // Whether the URL requires the API token
}

// ProgressFunc receives byte progress during a download. total is 0 when
// the server does not report a length.
type ProgressFunc func(written, total int64)
