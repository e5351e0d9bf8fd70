package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opmodel/optimize/internal/cmdtypes"
	"github.com/opmodel/optimize/internal/cmdutil"
	"github.com/opmodel/optimize/internal/output"
)

// NewCleanCmd creates the clean command.
func NewCleanCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove the output folder",
		Long: `Run the after-packaging phase: remove the output folder, unless the
service sets custom.optimize.debug, in which case it is kept for inspection.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return runClean(c, cfg)
		},
	}
}

func runClean(c *cobra.Command, cfg *cmdtypes.GlobalConfig) error {
	s, err := cmdutil.Open(cfg)
	if err != nil {
		return fail("loading service", err)
	}

	report, err := s.Controller.After(c.Context())
	if err != nil {
		return fail("clean failed", err)
	}

	status := output.StatusCleaned
	switch {
	case report.Disabled:
		status = output.StatusSkipped
	case report.Debug:
		status = output.StatusKept
	}
	_, err = fmt.Fprintln(c.OutOrStdout(), output.FormatCheckmark(fmt.Sprintf("%s %s", report.OutputRoot, status)))
	return err
}
