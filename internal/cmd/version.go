package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opmodel/optimize/internal/cmdtypes"
	"github.com/opmodel/optimize/internal/output"
	"github.com/opmodel/optimize/internal/version"
)

// NewVersionCmd creates the version command.
func NewVersionCmd(_ *cmdtypes.GlobalConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Show optimize version information.

Displays:
  - optimize version, commit, and build date
  - esbuild version linked into the binary`,
		RunE: runVersion,
	}
}

func runVersion(_ *cobra.Command, _ []string) error {
	info := version.Get()

	output.Println(fmt.Sprintf("optimize version %s", info.Version))
	output.Println(fmt.Sprintf("  Commit:    %s", info.GitCommit))
	output.Println(fmt.Sprintf("  Built:     %s", info.BuildDate))
	output.Println(fmt.Sprintf("  Go:        %s", info.GoVersion))
	output.Println(fmt.Sprintf("  esbuild:   %s", info.BundlerVersion))

	return nil
}
