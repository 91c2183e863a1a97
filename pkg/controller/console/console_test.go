package console_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"github.com/remix-community/remixget/pkg/controller/console"
	"github.com/remix-community/remixget/pkg/domain/model"
	"github.com/remix-community/remixget/pkg/domain/types"
)

func testSpec() model.RepositorySpec {
	return model.RepositorySpec{
		Owner:  "NVIDIAGameWorks",
		Name:   "dxvk-remix",
		Source: model.SourceArtifact,
		Branch: "main",
	}
}

func TestConsole_Stage(t *testing.T) {
	var buf bytes.Buffer
	ui := console.New(console.WithWriter(&buf), console.WithNoColor())

	ui.Stage(testSpec(), model.StageDownloading)
	ui.Stage(testSpec(), model.StageDone)

	out := buf.String()
	gt.String(t, out).Contains("[NVIDIAGameWorks/dxvk-remix] downloading")
	gt.String(t, out).Contains("[NVIDIAGameWorks/dxvk-remix] done")
}

func TestConsole_ProgressThrottled(t *testing.T) {
	var buf bytes.Buffer
	ui := console.New(console.WithWriter(&buf), console.WithNoColor())

	// Ten small steps within the same 10% bucket produce one line each
	// time a new bucket is reached, not one line per callback
	for written := int64(1); written <= 100; written++ {
		ui.Progress(testSpec(), written, 100)
	}

	lines := strings.Count(buf.String(), "\n")
	gt.Equal(t, lines, 11)
	gt.String(t, buf.String()).Contains("100 B / 100 B")
}

func TestConsole_ProgressUnknownTotal(t *testing.T) {
	var buf bytes.Buffer
	ui := console.New(console.WithWriter(&buf), console.WithNoColor())

	ui.Progress(testSpec(), 1024, 0)
	gt.Equal(t, buf.Len(), 0)
}

func TestConsole_Failure(t *testing.T) {
	var buf bytes.Buffer
	ui := console.New(console.WithWriter(&buf), console.WithNoColor())

	err := goerr.New("no successful workflow run on branch", goerr.T(types.ErrTagNotFound))
	ui.Failure(testSpec(), model.StageLocating, err)

	out := buf.String()
	gt.String(t, out).Contains("locating failed (not found)")
	gt.String(t, out).Contains("no successful workflow run")
}

func TestConsole_Abort(t *testing.T) {
	var buf bytes.Buffer
	ui := console.New(console.WithWriter(&buf), console.WithNoColor())

	err := goerr.New("failed to create destination directory", goerr.T(types.ErrTagFilesystem))
	ui.Abort(err)

	out := buf.String()
	gt.String(t, out).Contains("run aborted (filesystem error)")
	gt.String(t, out).Contains("failed to create destination directory")
}

func TestConsole_Summary(t *testing.T) {
	var buf bytes.Buffer
	ui := console.New(console.WithWriter(&buf), console.WithNoColor())

	report := &model.RunReport{
		Results: []model.RepoResult{
			{
				Spec:  testSpec(),
				Stage: model.StageDone,
				Reference: &model.ArtifactReference{
					Name:       "dxvk-remix-release",
					BuildLabel: "abc123",
				},
			},
			{
				Spec:     model.RepositorySpec{Owner: "NVIDIAGameWorks", Name: "bridge-remix"},
				Stage:    model.StageFailed,
				FailedAt: model.StageDownloading,
				Err:      goerr.New("connection reset", goerr.T(types.ErrTagNetwork)),
			},
		},
	}

	ui.Summary(report)

	out := buf.String()
	gt.String(t, out).Contains("ok NVIDIAGameWorks/dxvk-remix (dxvk-remix-release @ abc123)")
	gt.String(t, out).Contains("failed NVIDIAGameWorks/bridge-remix during downloading")
	gt.String(t, out).Contains("1 of 2 repositories failed")
}

func TestConsole_SummaryAllGood(t *testing.T) {
	var buf bytes.Buffer
	ui := console.New(console.WithWriter(&buf), console.WithNoColor())

	ui.Summary(&model.RunReport{
		Results: []model.RepoResult{
			{
				Spec:      testSpec(),
				Stage:     model.StageDone,
				Reference: &model.ArtifactReference{Name: "dxvk-remix-release"},
			},
		},
	})

	gt.String(t, buf.String()).Contains("Success!")
}

func TestConsole_WaitForEnter(t *testing.T) {
	var buf bytes.Buffer
	ui := console.New(
		console.WithWriter(&buf),
		console.WithInput(strings.NewReader("\n")),
		console.WithNoColor(),
	)

	gt.NoError(t, ui.WaitForEnter("Press Enter to continue..."))
	gt.String(t, buf.String()).Contains("Press Enter to continue...")
}

func TestConsole_WaitForEnterEOF(t *testing.T) {
	ui := console.New(
		console.WithWriter(&bytes.Buffer{}),
		console.WithInput(strings.NewReader("")),
		console.WithNoColor(),
	)

	// A closed stdin (piped execution) must not error out the run
	gt.NoError(t, ui.WaitForEnter("Press Enter to exit..."))
}

func TestConsole_Inspection(t *testing.T) {
	var buf bytes.Buffer
	ui := console.New(console.WithWriter(&buf), console.WithNoColor())

	ui.Inspection([]model.RepoResult{
		{
			Spec:  testSpec(),
			Stage: model.StageDone,
			Reference: &model.ArtifactReference{
				Name:       "dxvk-remix-release",
				BuildLabel: "abc123",
				Size:       5 * 1024 * 1024,
			},
		},
		{
			Spec:     model.RepositorySpec{Owner: "NVIDIAGameWorks", Name: "bridge-remix"},
			Stage:    model.StageFailed,
			FailedAt: model.StageLocating,
			Err:      goerr.New("no successful workflow run on branch"),
		},
	})

	out := buf.String()
	gt.String(t, out).Contains("dxvk-remix-release @ abc123 (5.0 MiB)")
	gt.String(t, out).Contains("no successful workflow run")
}
