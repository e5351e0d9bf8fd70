package cmd

import (
	"github.com/opmodel/optimize/internal/cmdtypes"
	"github.com/opmodel/optimize/internal/cmdutil"
)

// fail reports err once and wraps it with its exit code.
func fail(msg string, err error) error {
	if err == nil {
		return nil
	}
	cmdutil.PrintError(msg, err)
	return &cmdtypes.ExitError{Code: ExitCodeFromError(err), Err: err, Printed: true}
}
