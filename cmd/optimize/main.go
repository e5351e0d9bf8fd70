// Package main is the entry point for the optimize CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/opmodel/optimize/internal/cmd"
	"github.com/opmodel/optimize/internal/cmdtypes"
)

func main() {
	rootCmd := cmd.NewRootCmd()

	if err := rootCmd.Execute(); err != nil {
		var exitErr *cmdtypes.ExitError
		if errors.As(err, &exitErr) {
			if !exitErr.Printed {
				fmt.Fprintln(os.Stderr, err)
			}
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cmdtypes.ExitGeneralError)
	}
}
