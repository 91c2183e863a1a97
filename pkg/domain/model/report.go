package model

// RepoResult is the terminal outcome of one repository's pipeline
type RepoResult struct {
	Spec      RepositorySpec     // The processed repository
	Stage     Stage              // Terminal state: StageDone or StageFailed
	FailedAt  Stage              // Stage that was running when Err occurred
	Reference *ArtifactReference // Located artifact, if locating succeeded
	Err       error              // Failure cause, nil when Stage is StageDone
}

// RunReport aggregates the outcome of a whole run
type RunReport struct {
	Results []RepoResult
}

// Succeeded returns the number of repositories that reached StageDone
func (r *RunReport) Succeeded() int {
	var n int
	for _, res := range r.Results {
		if res.Stage == StageDone {
			n++
		}
	}
	return n
}

// Failed returns the number of repositories that reached StageFailed
func (r *RunReport) Failed() int {
	return len(r.Results) - r.Succeeded()
}
