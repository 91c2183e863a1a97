package console

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"

	"github.com/remix-community/remixget/pkg/domain/model"
	"github.com/remix-community/remixget/pkg/domain/types"
)

// config holds internal console configuration
type config struct {
	out     io.Writer
	in      io.Reader
	noColor bool
}

// Option is a functional option for Console configuration
type Option func(*config)

// WithWriter sets the output writer (default os.Stdout)
func WithWriter(w io.Writer) Option {
	return func(c *config) {
		c.out = w
	}
}

// WithInput sets the input reader for prompts (default os.Stdin)
func WithInput(r io.Reader) Option {
	return func(c *config) {
		c.in = r
	}
}

// WithNoColor disables colored output
func WithNoColor() Option {
	return func(c *config) {
		c.noColor = true
	}
}

// Console renders pipeline status to an interactive terminal and blocks
// on user acknowledgment prompts. It implements interfaces.StatusSink.
type Console struct {
	mu  sync.Mutex
	out io.Writer
	in  *bufio.Reader

	repo    *color.Color
	good    *color.Color
	bad     *color.Color
	faint   *color.Color
	lastPct map[string]int64
}

// New creates a console UI
func New(opts ...Option) *Console {
	cfg := &config{
		out: os.Stdout,
		in:  os.Stdin,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	c := &Console{
		out:     cfg.out,
		in:      bufio.NewReader(cfg.in),
		repo:    color.New(color.FgBlue, color.Bold),
		good:    color.New(color.FgGreen),
		bad:     color.New(color.FgRed),
		faint:   color.New(color.Faint),
		lastPct: make(map[string]int64),
	}

	if cfg.noColor {
		for _, cc := range []*color.Color{c.repo, c.good, c.bad, c.faint} {
			cc.DisableColor()
		}
	}

	return c
}

// Banner prints the greeting shown before the run starts
func (c *Console) Banner() {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintln(c.out, "RTX Remix Download Script")
	fmt.Fprintln(c.out, "Requests the latest builds from the official GitHub repositories,")
	fmt.Fprintln(c.out, "downloads them, and assembles the remix directory next to this program.")
	fmt.Fprintln(c.out)
}

// WaitForEnter prints the prompt and blocks until the user presses Enter
func (c *Console) WaitForEnter(prompt string) error {
	c.mu.Lock()
	fmt.Fprint(c.out, prompt)
	c.mu.Unlock()

	if _, err := c.in.ReadString('\n'); err != nil && err != io.EOF {
		return err
	}
	return nil
}

var stageText = map[model.Stage]string{
	model.StageLocating:    "locating the newest build",
	model.StageDownloading: "downloading",
	model.StageExtracting:  "extracting",
	model.StageInstalling:  "installing",
	model.StageDone:        "done",
}

// Stage announces that the repository entered the given stage
func (c *Console) Stage(spec model.RepositorySpec, stage model.Stage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	text, ok := stageText[stage]
	if !ok {
		text = string(stage)
	}

	if stage == model.StageDone {
		fmt.Fprintf(c.out, "[%s] %s\n", c.repo.Sprint(spec.FullName()), c.good.Sprint(text))
		return
	}
	fmt.Fprintf(c.out, "[%s] %s\n", c.repo.Sprint(spec.FullName()), text)
}

// Progress reports download byte progress, throttled to 10% steps so the
// output stays readable without terminal control sequences
func (c *Console) Progress(spec model.RepositorySpec, written, total int64) {
	if total <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	pct := written * 100 / total
	step := pct / 10 * 10
	if last, ok := c.lastPct[spec.FullName()]; ok && step <= last {
		return
	}
	c.lastPct[spec.FullName()] = step

	fmt.Fprintf(c.out, "[%s] %s\n",
		c.repo.Sprint(spec.FullName()),
		c.faint.Sprintf("%3d%% (%s / %s)", pct, fmtBytes(written), fmtBytes(total)))
}

// Failure announces that the repository failed during the given stage
func (c *Console) Failure(spec model.RepositorySpec, stage model.Stage, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.out, "[%s] %s\n",
		c.repo.Sprint(spec.FullName()),
		c.bad.Sprintf("%s failed (%s): %v", string(stage), types.ErrLabel(err), err))
}

// Abort announces an environmental failure that halted the whole run,
// so the cause is on screen before the exit prompt blocks
func (c *Console) Abort(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.out, "\n%s\n",
		c.bad.Sprintf("run aborted (%s): %v", types.ErrLabel(err), err))
}

// Summary prints the terminal state of every repository after the run
func (c *Console) Summary(report *model.RunReport) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintln(c.out)
	for _, res := range report.Results {
		name := c.repo.Sprint(res.Spec.FullName())
		switch res.Stage {
		case model.StageDone:
			label := res.Reference.Name
			if res.Reference.BuildLabel != "" {
				label = fmt.Sprintf("%s @ %s", res.Reference.Name, res.Reference.BuildLabel)
			}
			fmt.Fprintf(c.out, "  %s %s (%s)\n", c.good.Sprint("ok"), name, label)
		default:
			fmt.Fprintf(c.out, "  %s %s during %s: %v\n",
				c.bad.Sprint("failed"), name, string(res.FailedAt), res.Err)
		}
	}

	if report.Failed() == 0 {
		fmt.Fprintf(c.out, "\n%s\n", c.good.Sprint("Success!"))
	} else {
		fmt.Fprintf(c.out, "\n%s\n",
			c.bad.Sprintf("%d of %d repositories failed", report.Failed(), len(report.Results)))
	}
}

// Inspection prints located builds without downloading them
func (c *Console) Inspection(results []model.RepoResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, res := range results {
		name := c.repo.Sprint(res.Spec.FullName())
		if res.Err != nil {
			fmt.Fprintf(c.out, "  %s %s: %v\n", c.bad.Sprint("!"), name, res.Err)
			continue
		}
		fmt.Fprintf(c.out, "  %s %s: %s @ %s (%s)\n",
			c.good.Sprint("*"), name,
			res.Reference.Name, res.Reference.BuildLabel, fmtBytes(res.Reference.Size))
	}
}

func fmtBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
