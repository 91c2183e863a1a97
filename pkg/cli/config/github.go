package config

import "github.com/urfave/cli/v3"

// GitHub holds GitHub API configuration
type GitHub struct {
	Token   string
	BaseURL string
}

// Flags returns CLI flags for GitHub configuration. The token is
// optional: without it, workflow artifacts are fetched through the
// nightly.link mirror and API calls count against the anonymous rate
// limit.
func (c *GitHub) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "github-token",
			Usage:       "GitHub API token (optional, raises rate limits)",
			Destination: &c.Token,
			Sources:     cli.EnvVars("REMIXGET_GITHUB_TOKEN", "GITHUB_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "github-api",
			Usage:       "GitHub API base URL",
			Destination: &c.BaseURL,
			Sources:     cli.EnvVars("REMIXGET_GITHUB_API"),
		},
	}
}
