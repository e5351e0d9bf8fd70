package cmd

import (
	"github.com/spf13/cobra"

	"github.com/opmodel/optimize/internal/cmdtypes"
	"github.com/opmodel/optimize/internal/cmdutil"
	"github.com/opmodel/optimize/internal/output"
	"github.com/opmodel/optimize/internal/pipeline"
)

// NewBuildCmd creates the build command.
func NewBuildCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	var (
		sf            cmdutil.ScopeFlags
		writeManifest bool
	)

	c := &cobra.Command{
		Use:   "build",
		Short: "Bundle functions into the output folder",
		Long: `Clean the output folder, then bundle every function (or one with
--function) into <prefix>/<function>/ together with its include paths and
external modules.

The rewritten handlers and packaging manifests are reported. With
--write-manifest they are also saved to the service manifest; restore the
original manifest before building again, since a handler that already
points into the output folder is rejected.

Examples:
  # Build every function of the service in the current directory
  optimize build

  # Build one function and show a table
  optimize build -f api -o table

  # Keep the rewritten handlers in serverless.yml
  optimize build --write-manifest`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return runBuild(c, cfg, &sf, writeManifest)
		},
	}

	sf.AddTo(c)
	c.Flags().BoolVar(&writeManifest, "write-manifest", false,
		"Save rewritten handlers and packaging to the service manifest")
	return c
}

func runBuild(c *cobra.Command, cfg *cmdtypes.GlobalConfig, sf *cmdutil.ScopeFlags, writeManifest bool) error {
	ctx := c.Context()

	s, err := cmdutil.Open(cfg)
	if err != nil {
		return fail("loading service", err)
	}

	var report *pipeline.Report
	err = output.RunWithSpinner(ctx, func() error {
		var runErr error
		report, runErr = s.Controller.Before(ctx, sf.Scope())
		return runErr
	}, output.WithTitle("Optimizing functions"))
	if err != nil {
		return fail("build failed", err)
	}

	if writeManifest && !report.Disabled {
		if err := s.Service.Save(s.FS); err != nil {
			return fail("saving service manifest", err)
		}
		output.Info("service manifest updated", "path", s.Service.File())
	}

	cmdutil.LogUnits(report)
	built, skipped := report.Built()
	output.Info(output.FormatSummary(built, skipped, report.OutputRoot))

	if err := cmdutil.WriteReport(c.OutOrStdout(), report, outputFormat(cfg)); err != nil {
		return fail("writing report", err)
	}
	return nil
}
