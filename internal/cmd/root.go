package cmd

import (
	"github.com/spf13/cobra"

	"github.com/opmodel/optimize/internal/cmdtypes"
	"github.com/opmodel/optimize/internal/config"
	"github.com/opmodel/optimize/internal/output"
)

// rootFlags are the persistent flags shared by every command.
type rootFlags struct {
	service     string
	config      string
	manifest    string
	output      string
	concurrency int
	verbose     bool
	timestamps  bool
}

// NewRootCmd creates the root command for the optimize CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&cmdtypes.GlobalConfig{})
}

func newRootCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	var f rootFlags

	rootCmd := &cobra.Command{
		Use:   "optimize",
		Short: "Bundle and minify serverless functions",
		Long: `optimize bundles each function of a serverless service into a single
minified file, copies the resources it needs beside it, and points the
service manifest at the result so only the optimized folder gets packaged.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(c *cobra.Command, _ []string) error {
			return initializeGlobals(c, cfg, &f)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&f.service, "service", "s", "", "Service directory (env: OPTIMIZE_SERVICE, default: current directory)")
	pf.StringVar(&f.config, "config", "", "Path to settings file (env: OPTIMIZE_CONFIG, default: <service>/.optimize.yaml)")
	pf.StringVarP(&f.manifest, "manifest", "m", "", "Service manifest file name (env: OPTIMIZE_MANIFEST)")
	pf.StringVarP(&f.output, "output", "o", "", "Report format: yaml, json, table (env: OPTIMIZE_OUTPUT)")
	pf.IntVarP(&f.concurrency, "concurrency", "j", 0, "Parallel function builds, 0 for one per function (env: OPTIMIZE_CONCURRENCY)")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "Enable verbose output")
	pf.BoolVar(&f.timestamps, "timestamps", true, "Show timestamps in log output")

	rootCmd.AddCommand(NewBuildCmd(cfg))
	rootCmd.AddCommand(NewCleanCmd(cfg))
	rootCmd.AddCommand(NewWrapCmd(cfg))
	rootCmd.AddCommand(NewExplainCmd(cfg))
	rootCmd.AddCommand(NewVersionCmd(cfg))

	return rootCmd
}

// initializeGlobals resolves settings and sets up logging.
func initializeGlobals(c *cobra.Command, cfg *cmdtypes.GlobalConfig, f *rootFlags) error {
	// Verbose logging is needed while settings resolve.
	output.SetupLogging(output.LogConfig{Verbose: f.verbose})

	flags := config.Flags{
		Service:            f.service,
		Config:             f.config,
		Manifest:           f.manifest,
		Output:             f.output,
		Concurrency:        f.concurrency,
		ConcurrencyChanged: c.Flags().Changed("concurrency"),
	}
	if c.Flags().Changed("timestamps") {
		flags.Timestamps = output.BoolPtr(f.timestamps)
	}

	settings, err := config.Resolve(flags)
	if err != nil {
		return fail("resolving settings", err)
	}

	cfg.Settings = settings
	cfg.Verbose = f.verbose

	output.SetupLogging(output.LogConfig{
		Verbose:    f.verbose,
		Timestamps: settings.Timestamps,
	})
	config.LogResolvedValues(settings.Values)

	return nil
}

// outputFormat returns the resolved report format.
func outputFormat(cfg *cmdtypes.GlobalConfig) output.Format {
	format, _ := output.ParseFormat(cfg.Settings.Output)
	return format
}
