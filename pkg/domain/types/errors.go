package types

import "github.com/m-mizutani/goerr/v2"

// Error tags classify failures so the UI can tell the user what kind of
// problem hit which repository. Tags are attached with goerr.T at the
// point of failure and inspected with goerr.HasTag.
var (
	// ErrTagNotFound: no matching successful build or release exists
	ErrTagNotFound = goerr.NewTag("not_found")

	// ErrTagNetwork: transport or API failure, including truncated downloads
	ErrTagNetwork = goerr.NewTag("network")

	// ErrTagRateLimit: the hosting API reported throttling
	ErrTagRateLimit = goerr.NewTag("rate_limit")

	// ErrTagCorruptArchive: the downloaded archive cannot be opened or read
	ErrTagCorruptArchive = goerr.NewTag("corrupt_archive")

	// ErrTagCrossVolume: a move across storage volumes failed and the
	// copy fallback could not complete either
	ErrTagCrossVolume = goerr.NewTag("cross_volume")

	// ErrTagFilesystem: generic create/write failure on local paths
	ErrTagFilesystem = goerr.NewTag("filesystem")
)

// ErrLabel returns a short human-readable label for the first known tag
// in the error chain, or "error" for untagged errors.
func ErrLabel(err error) string {
	switch {
	case goerr.HasTag(err, ErrTagNotFound):
		return "not found"
	case goerr.HasTag(err, ErrTagNetwork):
		return "network error"
	case goerr.HasTag(err, ErrTagRateLimit):
		return "rate limited"
	case goerr.HasTag(err, ErrTagCorruptArchive):
		return "corrupt archive"
	case goerr.HasTag(err, ErrTagCrossVolume):
		return "cross-volume move"
	case goerr.HasTag(err, ErrTagFilesystem):
		return "filesystem error"
	}
	return "error"
}
