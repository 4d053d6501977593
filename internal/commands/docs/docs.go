// Package docs prints the command reference.
package docs

import (
	"bytes"
	"context"
	"errors"

	"github.com/tigrisdata/cli/internal/args"
	"github.com/tigrisdata/cli/internal/display"
	"github.com/tigrisdata/cli/internal/handler"
)

func init() {
	handler.Provide("docs", handler.Module{Default: Docs})
}

// Docs writes the Markdown reference of the available commands, rendered
// for the terminal unless --raw is set or output is not a terminal.
func Docs(ctx context.Context, env *handler.Env, opts args.Options) error {
	if env.Reference == nil {
		return errors.New("command reference is not available")
	}
	var buf bytes.Buffer
	env.Reference(&buf)

	if opts.Bool("raw", "") {
		_, err := env.Out.Write(buf.Bytes())
		return err
	}
	return display.RenderMarkdown(env.Out, buf.String())
}
