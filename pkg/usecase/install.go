package usecase

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/remix-community/remixget/pkg/domain/types"
)

// Install merges every file under srcDir into destDir, preserving
// relative paths, creating intermediate directories, and overwriting
// files that already exist at the same relative path. Files already in
// the destination but absent from srcDir are left alone. On success the
// emptied srcDir is removed; on failure the remaining source files stay
// in place so nothing is silently lost.
func Install(ctx context.Context, srcDir, destDir string) error {
	logger := ctxlog.From(ctx)

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return goerr.Wrap(err, "failed to create destination directory",
			goerr.T(types.ErrTagFilesystem), goerr.V("dir", destDir))
	}

	var moved int
	err := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return goerr.Wrap(err, "failed to walk staging tree",
				goerr.T(types.ErrTagFilesystem), goerr.V("path", path))
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return goerr.Wrap(err, "failed to resolve relative path",
				goerr.T(types.ErrTagFilesystem), goerr.V("path", path))
		}

		target := filepath.Join(destDir, rel)
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return goerr.Wrap(err, "failed to create target directory",
				goerr.T(types.ErrTagFilesystem), goerr.V("dir", filepath.Dir(target)))
		}

		if err := moveFile(path, target); err != nil {
			return err
		}

		moved++
		return nil
	})
	if err != nil {
		return err
	}

	// Only directory skeleton remains at this point
	if err := os.RemoveAll(srcDir); err != nil {
		logger.Warn("Failed to remove emptied staging directory",
			"dir", srcDir, "error", err)
	}

	logger.Debug("Installed staging tree",
		"src", srcDir,
		"dest", destDir,
		"files", moved,
	)

	return nil
}

// renameFile is swappable so tests can simulate a cross-volume rename
var renameFile = os.Rename

// moveFile relocates src to dst, overwriting dst. Rename is attempted
// first; when src and dst sit on different volumes the rename fails with
// EXDEV and the file is copied and the source removed instead.
func moveFile(src, dst string) error {
	err := renameFile(src, dst)
	if err == nil {
		return nil
	}

	if !isCrossDevice(err) {
		return goerr.Wrap(err, "failed to move file into destination",
			goerr.T(types.ErrTagFilesystem),
			goerr.V("src", src), goerr.V("dst", dst))
	}

	if err := copyFile(src, dst); err != nil {
		return goerr.Wrap(err, "cross-volume move failed, source left in place",
			goerr.T(types.ErrTagCrossVolume),
			goerr.V("src", src), goerr.V("dst", dst))
	}

	if err := os.Remove(src); err != nil {
		return goerr.Wrap(err, "failed to remove source after cross-volume copy",
			goerr.T(types.ErrTagCrossVolume),
			goerr.V("src", src), goerr.V("dst", dst))
	}

	return nil
}

func isCrossDevice(err error) bool {
	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) {
		return false
	}
	return errors.Is(linkErr.Err, syscall.EXDEV)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}

	return out.Close()
}

// Debug symbols and build-system droppings shipped inside the artifacts
// that have no use in an installed tree.
var cleanupPatterns = []string{"*.pdb", "CRC.txt", "artifacts_readme.txt"}

// CleanupArtifacts deletes debug symbols and build metadata files from
// the installed destination tree
func CleanupArtifacts(ctx context.Context, destDir string) error {
	logger := ctxlog.From(ctx)

	var removed int
	err := filepath.WalkDir(destDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return goerr.Wrap(err, "failed to walk destination tree",
				goerr.T(types.ErrTagFilesystem), goerr.V("path", path))
		}
		if d.IsDir() {
			return nil
		}

		for _, pattern := range cleanupPatterns {
			ok, matchErr := filepath.Match(pattern, d.Name())
			if matchErr != nil {
				return goerr.Wrap(matchErr, "invalid cleanup pattern",
					goerr.V("pattern", pattern))
			}
			if !ok {
				continue
			}

			if err := os.Remove(path); err != nil {
				return goerr.Wrap(err, "failed to remove build metadata file",
					goerr.T(types.ErrTagFilesystem), goerr.V("path", path))
			}
			removed++
			break
		}

		return nil
	})
	if err != nil {
		return err
	}

	logger.Debug("Cleaned up build metadata", "dest", destDir, "removed", removed)

	return nil
}
