package cli

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/remix-community/remixget/pkg/cli/config"
	"github.com/remix-community/remixget/pkg/controller/console"
	"github.com/remix-community/remixget/pkg/domain/interfaces"
	githubinfra "github.com/remix-community/remixget/pkg/infra/github"
	"github.com/remix-community/remixget/pkg/usecase"
)

func cmdFetch() *cli.Command {
	var (
		githubCfg   config.GitHub
		installCfg  config.Install
		manifestCfg config.Manifest
	)

	flags := append(githubCfg.Flags(), installCfg.Flags()...)
	flags = append(flags, manifestCfg.Flags()...)

	return &cli.Command{
		Name:    "fetch",
		Aliases: []string{"f"},
		Usage:   "Download the latest builds and assemble the remix directory",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			repos, err := manifestCfg.Load()
			if err != nil {
				return goerr.Wrap(err, "failed to load repository manifest")
			}

			dest, err := installCfg.ResolveDestination()
			if err != nil {
				return err
			}

			logger.Info("Starting fetch",
				slog.Int("repositories", len(repos)),
				slog.String("destination", dest),
			)

			source, err := newArtifactSource(githubCfg)
			if err != nil {
				return err
			}

			ui := console.New()
			if !installCfg.NoPrompt {
				ui.Banner()
				if err := ui.WaitForEnter("Press Enter to continue..."); err != nil {
					return goerr.Wrap(err, "failed to read acknowledgment")
				}
			}

			parallel := 1
			if installCfg.Parallel {
				parallel = len(repos)
			}

			uc := usecase.NewFetch(source, ui, usecase.FetchConfig{
				Repositories: repos,
				Destination:  dest,
				TempRoot:     installCfg.TempRoot,
				Parallel:     parallel,
			})

			report, runErr := uc.Fetch(ctx)
			if report != nil {
				ui.Summary(report)
			}
			if runErr != nil {
				ui.Abort(runErr)
			}

			// The prompt keeps the window (and any error text) visible
			// when the binary is double-clicked
			if !installCfg.NoPrompt {
				if err := ui.WaitForEnter("\nPress Enter to exit..."); err != nil {
					logger.Warn("Failed to read exit acknowledgment", "error", err)
				}
			}

			if runErr != nil {
				return goerr.Wrap(runErr, "fetch run aborted")
			}
			return nil
		},
	}
}

// newArtifactSource builds the GitHub-backed artifact source from config
func newArtifactSource(cfg config.GitHub) (interfaces.ArtifactSource, error) {
	var opts []githubinfra.Option
	if cfg.Token != "" {
		opts = append(opts, githubinfra.WithToken(cfg.Token))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, githubinfra.WithBaseURL(cfg.BaseURL))
	}

	source, err := githubinfra.NewClient(opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create GitHub client")
	}
	return source, nil
}
