package config

import (
	_ "embed"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"

	"github.com/remix-community/remixget/pkg/domain/model"
)

//go:embed manifest.toml
var defaultManifest []byte

// Manifest holds the repository manifest configuration
type Manifest struct {
	Path string
}

// Flags returns CLI flags for manifest configuration
func (c *Manifest) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "manifest",
			Usage:       "TOML manifest overriding the built-in repository set",
			Destination: &c.Path,
			Sources:     cli.EnvVars("REMIXGET_MANIFEST"),
		},
	}
}

type repoEntry struct {
	Owner   string `toml:"owner"`
	Name    string `toml:"name"`
	Source  string `toml:"source"`
	Branch  string `toml:"branch"`
	MoveTo  string `toml:"move_to"`
	Match   string `toml:"match"`
	Exclude string `toml:"exclude"`
	Flatten bool   `toml:"flatten"`
}

type manifestDoc struct {
	Repositories []repoEntry `toml:"repositories"`
}

// Load parses the manifest file, or the embedded default when no path is
// configured, and returns the validated repository specs
func (c *Manifest) Load() ([]model.RepositorySpec, error) {
	data := defaultManifest
	if c.Path != "" {
		var err error
		data, err = os.ReadFile(c.Path)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read manifest file",
				goerr.V("path", c.Path))
		}
	}

	var doc manifestDoc
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, goerr.Wrap(err, "failed to parse manifest",
			goerr.V("path", c.Path))
	}

	if len(doc.Repositories) == 0 {
		return nil, goerr.New("manifest defines no repositories",
			goerr.V("path", c.Path))
	}

	specs := make([]model.RepositorySpec, 0, len(doc.Repositories))
	for _, entry := range doc.Repositories {
		spec := model.RepositorySpec{
			Owner:   entry.Owner,
			Name:    entry.Name,
			Source:  model.SourceType(entry.Source),
			Branch:  entry.Branch,
			MoveTo:  entry.MoveTo,
			Match:   entry.Match,
			Exclude: entry.Exclude,
			Flatten: entry.Flatten,
		}

		if err := spec.Validate(); err != nil {
			return nil, goerr.Wrap(err, "invalid repository entry in manifest",
				goerr.V("path", c.Path))
		}

		specs = append(specs, spec)
	}

	return specs, nil
}
