package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/remix-community/remixget/pkg/cli/config"
	"github.com/remix-community/remixget/pkg/controller/console"
	"github.com/remix-community/remixget/pkg/usecase"
)

func cmdList() *cli.Command {
	var (
		githubCfg   config.GitHub
		manifestCfg config.Manifest
	)

	flags := append(githubCfg.Flags(), manifestCfg.Flags()...)

	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "Show the newest build of each repository without downloading",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repos, err := manifestCfg.Load()
			if err != nil {
				return goerr.Wrap(err, "failed to load repository manifest")
			}

			source, err := newArtifactSource(githubCfg)
			if err != nil {
				return err
			}

			ui := console.New()
			uc := usecase.NewFetch(source, ui, usecase.FetchConfig{
				Repositories: repos,
			})

			results, err := uc.Inspect(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to inspect repositories")
			}

			ui.Inspection(results)
			return nil
		},
	}
}
