// Package cmdutil provides shared command utilities: flag groups, service
// and controller setup, and report output.
package cmdutil

import (
	"github.com/spf13/cobra"

	"github.com/opmodel/optimize/internal/pipeline"
)

// ScopeFlags holds the flag limiting a command to one function
// (build, wrap).
type ScopeFlags struct {
	Function string
}

// AddTo registers the scope flags on the given cobra command.
func (f *ScopeFlags) AddTo(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.Function, "function", "f", "",
		"Optimize only this function (default: all)")
}

// Scope returns the pipeline scope for the flags.
func (f *ScopeFlags) Scope() pipeline.Scope {
	return pipeline.Scope{Function: f.Function}
}
