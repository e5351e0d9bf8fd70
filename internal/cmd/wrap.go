package cmd

import (
	"context"
	"errors"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/opmodel/optimize/internal/cmdtypes"
	"github.com/opmodel/optimize/internal/cmdutil"
	"github.com/opmodel/optimize/internal/output"
)

// NewWrapCmd creates the wrap command.
func NewWrapCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	var sf cmdutil.ScopeFlags

	c := &cobra.Command{
		Use:   "wrap [flags] -- command [args...]",
		Short: "Build, run a packaging command, then clean",
		Long: `Run the full lifecycle around a packaging command: build the functions,
write the rewritten service manifest, run the command in the service
directory, restore the original manifest, and remove the output folder
(kept when debug is set).

The command's exit code is passed through.

Examples:
  # Package with the serverless framework
  optimize wrap -- serverless package

  # Deploy a single function
  optimize wrap -f api -- serverless deploy function -f api`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runWrap(c, cfg, &sf, args)
		},
	}

	sf.AddTo(c)
	return c
}

func runWrap(c *cobra.Command, cfg *cmdtypes.GlobalConfig, sf *cmdutil.ScopeFlags, argv []string) error {
	s, err := cmdutil.Open(cfg)
	if err != nil {
		return fail("loading service", err)
	}

	packageStep := func(ctx context.Context) error {
		if !s.Controller.Enabled() {
			return runHost(ctx, cfg.Settings.ServiceDir, argv)
		}

		original, err := s.FS.ReadFile(s.Service.File())
		if err != nil {
			return err
		}
		if err := s.Service.Save(s.FS); err != nil {
			return err
		}
		defer func() {
			if err := s.FS.WriteFile(s.Service.File(), original); err != nil {
				output.Warn("could not restore service manifest", "path", s.Service.File(), "error", err)
			}
		}()

		return runHost(ctx, cfg.Settings.ServiceDir, argv)
	}

	report, err := s.Controller.Run(c.Context(), sf.Scope(), packageStep)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			output.Error("packaging command failed", "command", argv[0], "code", exitErr.ExitCode())
			return &cmdtypes.ExitError{Code: exitErr.ExitCode(), Err: err, Printed: true}
		}
		return fail("wrap failed", err)
	}

	cmdutil.LogUnits(report)
	return nil
}

func runHost(ctx context.Context, dir string, argv []string) error {
	output.Debug("running packaging command", "command", argv)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
