package model

// Stage is the processing state of one repository within a run.
// Repositories move Pending → Locating → Downloading → Extracting →
// Installing → Done, or to Failed from any stage.
type Stage string

const (
	StagePending     Stage = "pending"
	StageLocating    Stage = "locating"
	StageDownloading Stage = "downloading"
	StageExtracting  Stage = "extracting"
	StageInstalling  Stage = "installing"
	StageDone        Stage = "done"
	StageFailed      Stage = "failed"
)

// Terminal reports whether the stage is a terminal state
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageFailed
}
