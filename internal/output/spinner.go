package output

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/huh/spinner"
	"golang.org/x/term"
)

// SpinnerOption configures RunWithSpinner.
type SpinnerOption func(*spinner.Spinner)

// WithTitle sets the text shown next to the spinner.
func WithTitle(title string) SpinnerOption {
	return func(s *spinner.Spinner) { s.Title(title) }
}

// IsTTY reports whether stdout is attached to a terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// RunWithSpinner runs action while a spinner is shown. Without a
// terminal the action runs inline. The spinner stops when the action
// returns or ctx is done; in the latter case ctx.Err() is returned and the
// action keeps running in the background until it notices ctx itself.
func RunWithSpinner(ctx context.Context, action func() error, opts ...SpinnerOption) error {
	if !IsTTY() {
		return action()
	}

	errCh := make(chan error, 1)
	go func() { errCh <- action() }()

	s := spinner.New().Title("Working...")
	for _, opt := range opts {
		opt(s)
	}

	var (
		actionErr error
		finished  bool
	)
	err := s.Action(func() {
		select {
		case actionErr = <-errCh:
			finished = true
		case <-ctx.Done():
		}
	}).Run()
	if finished {
		return actionErr
	}
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("spinner: %w", err)
	}
	return ctx.Err()
}
