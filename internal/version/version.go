// Package version provides version information for the optimize CLI.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Build-time variables set via ldflags.
var (
	// Version is the CLI version (set via ldflags).
	Version = "v0.0.0-dev"

	// GitCommit is the git commit hash.
	GitCommit = "unknown"

	// BuildDate is the build timestamp.
	BuildDate = "unknown"
)

// bundlerModule is the module whose version is reported as the engine.
const bundlerModule = "github.com/evanw/esbuild"

// Info contains version information.
type Info struct {
	// Version is the CLI version (set via ldflags).
	Version string `json:"version"`

	// GitCommit is the git commit hash.
	GitCommit string `json:"gitCommit"`

	// BuildDate is the build timestamp.
	BuildDate string `json:"buildDate"`

	// GoVersion is the Go version used to build.
	GoVersion string `json:"goVersion"`

	// BundlerVersion is the esbuild version linked into the binary.
	BundlerVersion string `json:"bundlerVersion"`
}

// Get returns the current version information.
func Get() Info {
	return Info{
		Version:        Version,
		GitCommit:      GitCommit,
		BuildDate:      BuildDate,
		GoVersion:      runtime.Version(),
		BundlerVersion: dependencyVersion(bundlerModule),
	}
}

// String returns a human-readable version string.
func (i Info) String() string {
	return fmt.Sprintf("optimize:\n  Version:  %s\n  Build ID: %s/%s\n  Go:       %s\n\nesbuild:\n  Version:  %s",
		i.Version, i.BuildDate, i.GitCommit, i.GoVersion, i.BundlerVersion)
}

// dependencyVersion reads a module version from the embedded build info.
func dependencyVersion(path string) string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	return findDependency(bi.Deps, path)
}

func findDependency(deps []*debug.Module, path string) string {
	for _, d := range deps {
		if d.Path != path {
			continue
		}
		if d.Replace != nil {
			return d.Replace.Version
		}
		return d.Version
	}
	return "unknown"
}
