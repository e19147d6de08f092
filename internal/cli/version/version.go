// Package version reports build information for the CLI.
package version

import (
	"fmt"
	"runtime"

	goversion "github.com/hashicorp/go-version"
)

// Set at build time with -ldflags "-X".
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// Info describes one build.
type Info struct {
	Version   string
	BuildDate string
	GitCommit string
	GoVersion string
	Platform  string
}

// Get returns the running build.
func Get() Info {
	return Info{
		Version:   Version,
		BuildDate: BuildDate,
		GitCommit: GitCommit,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func (i Info) String() string {
	return fmt.Sprintf("queryset version %s (%s %s)", i.Version, i.Platform, i.GoVersion)
}

// Rows lists the build as field/value pairs for a table.
func (i Info) Rows() [][]string {
	return [][]string{
		{"version", i.Version},
		{"commit", i.GitCommit},
		{"built", i.BuildDate},
		{"go", i.GoVersion},
		{"platform", i.Platform},
	}
}

// Semver returns the version in canonical major.minor.patch form. Builds
// without a release version, such as "dev", are an error.
func (i Info) Semver() (string, error) {
	v, err := goversion.NewSemver(i.Version)
	if err != nil {
		return "", fmt.Errorf("build %q has no release version: %w", i.Version, err)
	}
	return v.String(), nil
}
