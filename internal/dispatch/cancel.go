package dispatch

import (
	"context"
	"errors"

	"github.com/tigrisdata/cli/internal/prompt"
)

func isCancellation(err error) bool {
	return errors.Is(err, prompt.ErrCancelled) || errors.Is(err, context.Canceled)
}
