package usecase

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/remix-community/remixget/pkg/domain/types"
)

// Extract unpacks the zip archive at archivePath into stagingDir,
// preserving relative paths. stagingDir is created by this call and
// removed again if extraction fails, so a corrupt archive never leaves a
// partial tree behind.
func Extract(ctx context.Context, archivePath, stagingDir string) error {
	logger := ctxlog.From(ctx)

	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return goerr.Wrap(err, "failed to open archive",
			goerr.T(types.ErrTagCorruptArchive), goerr.V("archive", archivePath))
	}
	defer zr.Close()

	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return goerr.Wrap(err, "failed to create staging directory",
			goerr.T(types.ErrTagFilesystem), goerr.V("dir", stagingDir))
	}

	for _, file := range zr.File {
		if err := extractFile(file, stagingDir); err != nil {
			// Remove the partial tree so a failed extraction is invisible
			if rmErr := os.RemoveAll(stagingDir); rmErr != nil {
				logger.Warn("Failed to remove partial staging directory",
					"dir", stagingDir, "error", rmErr)
			}
			return err
		}
	}

	logger.Debug("Extracted archive",
		"archive", archivePath,
		"staging_dir", stagingDir,
		"entries", len(zr.File),
	)

	return nil
}

// extractFile extracts a single zip entry into the destination directory
func extractFile(file *zip.File, destDir string) error {
	// Security check: prevent path traversal attacks
	destPath := filepath.Join(destDir, file.Name)
	if !strings.HasPrefix(destPath, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return goerr.New("archive entry escapes extraction root",
			goerr.T(types.ErrTagCorruptArchive),
			goerr.V("entry", file.Name), goerr.V("dest", destPath))
	}

	if file.FileInfo().IsDir() {
		if err := os.MkdirAll(destPath, 0o755); err != nil {
			return goerr.Wrap(err, "failed to create directory entry",
				goerr.T(types.ErrTagFilesystem), goerr.V("dir", destPath))
		}
		return nil
	}

	rc, err := file.Open()
	if err != nil {
		return goerr.Wrap(err, "failed to open archive entry",
			goerr.T(types.ErrTagCorruptArchive), goerr.V("entry", file.Name))
	}
	defer rc.Close()

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return goerr.Wrap(err, "failed to create parent directories",
			goerr.T(types.ErrTagFilesystem), goerr.V("dir", filepath.Dir(destPath)))
	}

	destFile, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, file.FileInfo().Mode().Perm())
	if err != nil {
		return goerr.Wrap(err, "failed to create destination file",
			goerr.T(types.ErrTagFilesystem), goerr.V("path", destPath))
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, rc); err != nil {
		return goerr.Wrap(err, "failed to read archive entry",
			goerr.T(types.ErrTagCorruptArchive), goerr.V("entry", file.Name))
	}

	return nil
}

// FlattenRoot lifts the contents of a single wrapping top-level directory
// up into dir. Release archives wrap everything in a versioned directory;
// after flattening the payload sits at the staging root. Directories with
// zero or multiple entries are left untouched.
func FlattenRoot(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return goerr.Wrap(err, "failed to read staging directory",
			goerr.T(types.ErrTagFilesystem), goerr.V("dir", dir))
	}

	if len(entries) != 1 || !entries[0].IsDir() {
		return nil
	}

	wrapper := filepath.Join(dir, entries[0].Name())
	children, err := os.ReadDir(wrapper)
	if err != nil {
		return goerr.Wrap(err, "failed to read wrapper directory",
			goerr.T(types.ErrTagFilesystem), goerr.V("dir", wrapper))
	}

	for _, child := range children {
		src := filepath.Join(wrapper, child.Name())
		dst := filepath.Join(dir, child.Name())
		if err := os.Rename(src, dst); err != nil {
			return goerr.Wrap(err, "failed to lift entry out of wrapper directory",
				goerr.T(types.ErrTagFilesystem),
				goerr.V("src", src), goerr.V("dst", dst))
		}
	}

	if err := os.Remove(wrapper); err != nil {
		return goerr.Wrap(err, "failed to remove wrapper directory",
			goerr.T(types.ErrTagFilesystem), goerr.V("dir", wrapper))
	}

	return nil
}
