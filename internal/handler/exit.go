package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/tigrisdata/cli/internal/messages"
	"github.com/tigrisdata/cli/internal/prompt"
)

// ExitError ends the process with Code without printing anything more. The
// failure has already been reported to the user.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the process exit status.
func (e *ExitError) ExitCode() int {
	return e.Code
}

// Fail prints the command's failure message with err as detail and returns
// an ExitError so nothing else is printed. Cancellations are returned as is
// and reported once by the dispatcher.
func (e *Env) Fail(err error, vars messages.Vars) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, prompt.ErrCancelled) {
		return err
	}
	e.Messages().Failure(err, vars)
	return &ExitError{Code: 1}
}
