package usecase_test

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"syscall"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"github.com/remix-community/remixget/pkg/domain/types"
	"github.com/remix-community/remixget/pkg/usecase"
)

// writeTree materializes name→content entries under dir
func writeTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()

	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		gt.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		gt.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// listTree returns the sorted relative paths of all files under dir
func listTree(t *testing.T, dir string) []string {
	t.Helper()

	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	gt.NoError(t, err)
	sort.Strings(paths)
	return paths
}

func TestInstall_MergePreservesExistingFiles(t *testing.T) {
	ctx := context.Background()
	tempDir := t.TempDir()

	dest := filepath.Join(tempDir, "remix")
	writeTree(t, dest, map[string]string{
		"keep.ini":      "user settings",
		".trex/old.dll": "previous runtime",
	})

	staging := filepath.Join(tempDir, "staging")
	writeTree(t, staging, map[string]string{
		"a.dll":       "new binary",
		"sub/b.json":  "data",
		".trex/x.dll": "runtime",
	})

	gt.NoError(t, usecase.Install(ctx, staging, dest))

	gt.Equal(t, listTree(t, dest), []string{
		".trex/old.dll", ".trex/x.dll", "a.dll", "keep.ini", "sub/b.json",
	})

	// Unrelated file is untouched
	content, err := os.ReadFile(filepath.Join(dest, "keep.ini"))
	gt.NoError(t, err)
	gt.Equal(t, string(content), "user settings")

	// The emptied staging tree is gone
	_, err = os.Stat(staging)
	gt.True(t, os.IsNotExist(err))
}

func TestInstall_OverwritesSamePath(t *testing.T) {
	ctx := context.Background()
	tempDir := t.TempDir()

	dest := filepath.Join(tempDir, "remix")
	writeTree(t, dest, map[string]string{"a.dll": "old"})

	staging := filepath.Join(tempDir, "staging")
	writeTree(t, staging, map[string]string{"a.dll": "new"})

	gt.NoError(t, usecase.Install(ctx, staging, dest))

	content, err := os.ReadFile(filepath.Join(dest, "a.dll"))
	gt.NoError(t, err)
	gt.Equal(t, string(content), "new")
}

func TestInstall_Idempotent(t *testing.T) {
	ctx := context.Background()
	tempDir := t.TempDir()
	dest := filepath.Join(tempDir, "remix")

	files := map[string]string{"a.dll": "binary", "sub/b.json": "data"}

	for range 2 {
		staging := filepath.Join(tempDir, "staging")
		writeTree(t, staging, files)
		gt.NoError(t, usecase.Install(ctx, staging, dest))
	}

	gt.Equal(t, listTree(t, dest), []string{"a.dll", "sub/b.json"})
}

func TestInstall_CreatesDestination(t *testing.T) {
	ctx := context.Background()
	tempDir := t.TempDir()

	staging := filepath.Join(tempDir, "staging")
	writeTree(t, staging, map[string]string{"a.dll": "binary"})

	dest := filepath.Join(tempDir, "nested", "remix")
	gt.NoError(t, usecase.Install(ctx, staging, dest))

	_, err := os.Stat(filepath.Join(dest, "a.dll"))
	gt.NoError(t, err)
}

func TestInstall_CrossVolumeFallback(t *testing.T) {
	ctx := context.Background()
	tempDir := t.TempDir()

	// Every rename reports a cross-device link, forcing the
	// copy-then-delete fallback
	restore := usecase.SetRenameForTest(func(oldpath, newpath string) error {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: syscall.EXDEV}
	})
	defer restore()

	dest := filepath.Join(tempDir, "remix")
	staging := filepath.Join(tempDir, "staging")
	writeTree(t, staging, map[string]string{"a.dll": "binary", "sub/b.json": "data"})

	gt.NoError(t, usecase.Install(ctx, staging, dest))

	content, err := os.ReadFile(filepath.Join(dest, "a.dll"))
	gt.NoError(t, err)
	gt.Equal(t, string(content), "binary")
	gt.Equal(t, listTree(t, dest), []string{"a.dll", "sub/b.json"})

	// The copied sources are removed with the staging tree
	_, err = os.Stat(staging)
	gt.True(t, os.IsNotExist(err))
}

func TestInstall_CrossVolumeCopyFailureKeepsSource(t *testing.T) {
	ctx := context.Background()
	tempDir := t.TempDir()

	restore := usecase.SetRenameForTest(func(oldpath, newpath string) error {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: syscall.EXDEV}
	})
	defer restore()

	dest := filepath.Join(tempDir, "remix")
	staging := filepath.Join(tempDir, "staging")
	writeTree(t, staging, map[string]string{"a.dll": "binary"})

	// A directory squatting on the target path makes the fallback copy
	// fail after the simulated cross-device rename
	gt.NoError(t, os.MkdirAll(filepath.Join(dest, "a.dll"), 0o755))

	err := usecase.Install(ctx, staging, dest)
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, types.ErrTagCrossVolume))

	// The source file is still in place, not silently lost
	content, readErr := os.ReadFile(filepath.Join(staging, "a.dll"))
	gt.NoError(t, readErr)
	gt.Equal(t, string(content), "binary")
}

func TestCleanupArtifacts(t *testing.T) {
	ctx := context.Background()
	dest := t.TempDir()

	writeTree(t, dest, map[string]string{
		"a.dll":                      "binary",
		"d3d9.pdb":                   "debug symbols",
		".trex/runtime.pdb":          "debug symbols",
		"CRC.txt":                    "checksums",
		".trex/artifacts_readme.txt": "readme",
		"config.json":                "data",
	})

	gt.NoError(t, usecase.CleanupArtifacts(ctx, dest))

	gt.Equal(t, listTree(t, dest), []string{"a.dll", "config.json"})
}
