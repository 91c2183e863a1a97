package usecase

// SetRenameForTest swaps the rename primitive and returns a restore func
func SetRenameForTest(f func(oldpath, newpath string) error) func() {
	prev := renameFile
	renameFile = f
	return func() { renameFile = prev }
}
