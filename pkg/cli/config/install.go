package config

import (
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Install holds destination and run-mode configuration. Paths are
// resolved once at startup and passed down explicitly; nothing else reads
// ambient process state.
type Install struct {
	Destination string
	TempRoot    string
	Parallel    bool
	NoPrompt    bool
}

// Flags returns CLI flags for install configuration
func (c *Install) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "dest",
			Usage:       "Destination directory (default: remix next to the executable)",
			Destination: &c.Destination,
			Sources:     cli.EnvVars("REMIXGET_DEST"),
		},
		&cli.StringFlag{
			Name:        "temp-dir",
			Usage:       "Parent directory for temporary downloads (default: system temp)",
			Destination: &c.TempRoot,
			Sources:     cli.EnvVars("REMIXGET_TEMP_DIR"),
		},
		&cli.BoolFlag{
			Name:        "parallel",
			Usage:       "Fetch repositories concurrently",
			Destination: &c.Parallel,
			Sources:     cli.EnvVars("REMIXGET_PARALLEL"),
		},
		&cli.BoolFlag{
			Name:        "no-prompt",
			Usage:       "Skip interactive prompts (for scripted use)",
			Destination: &c.NoPrompt,
			Sources:     cli.EnvVars("REMIXGET_NO_PROMPT"),
		},
	}
}

// ResolveDestination returns the absolute destination root, defaulting to
// a remix directory next to the executable like the original script
func (c *Install) ResolveDestination() (string, error) {
	if c.Destination != "" {
		abs, err := filepath.Abs(c.Destination)
		if err != nil {
			return "", goerr.Wrap(err, "failed to resolve destination path",
				goerr.V("dest", c.Destination))
		}
		return abs, nil
	}

	exe, err := os.Executable()
	if err != nil {
		return "", goerr.Wrap(err, "failed to locate executable for default destination")
	}
	return filepath.Join(filepath.Dir(exe), "remix"), nil
}
