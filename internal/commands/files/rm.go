package files

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tigrisdata/cli/internal/args"
	"github.com/tigrisdata/cli/internal/commands/cmdutil"
	"github.com/tigrisdata/cli/internal/handler"
	"github.com/tigrisdata/cli/internal/messages"
	"github.com/tigrisdata/cli/internal/storage"
)

// Remove deletes a bucket, an object, or every object a folder or wildcard
// names. Each deletion is confirmed unless --force is given.
func Remove(ctx context.Context, env *handler.Env, opts args.Options) error {
	raw := cmdutil.Value(opts, "path", "", 0)
	force := opts.Bool("force", "f")
	recursive := opts.Bool("recursive", "r")

	p := storage.ParseRemotePath(raw)
	vars := messages.Vars{"path": raw}
	if p.Bucket == "" {
		return env.Fail(errInvalidPath, vars)
	}

	client, err := env.Storage(ctx)
	if err != nil {
		return env.Fail(err, vars)
	}

	if p.Key == "" && !strings.HasSuffix(raw, "/") {
		vars["path"] = p.String()
		ok, err := cmdutil.Confirm(env, force, fmt.Sprintf("Are you sure you want to delete bucket '%s'?", p.Bucket))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(env.Out, "Aborted")
			return nil
		}
		if err := client.RemoveBucket(ctx, p.Bucket); err != nil {
			return env.Fail(err, vars)
		}
		env.Messages().Success(vars)
		return nil
	}

	sel, err := expand(ctx, client, p, raw, recursive)
	if errors.Is(err, errFolder) {
		return env.Fail(folderError("remove"), vars)
	}
	if err != nil {
		return env.Fail(err, vars)
	}

	if !sel.Multiple {
		vars["path"] = p.String()
		ok, err := cmdutil.Confirm(env, force, fmt.Sprintf("Are you sure you want to delete '%s'?", p))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(env.Out, "Aborted")
			return nil
		}
		if err := client.RemoveObject(ctx, p.Bucket, p.Key); err != nil {
			return env.Fail(err, vars)
		}
		env.Messages().Success(vars)
		return nil
	}

	if len(sel.Keys) == 0 {
		fmt.Fprintln(env.Out, "No objects to remove")
		return nil
	}
	ok, err := cmdutil.Confirm(env, force, fmt.Sprintf("Are you sure you want to delete %d object(s)?", len(sel.Keys)))
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(env.Out, "Aborted")
		return nil
	}

	removed := 0
	for _, key := range sel.Keys {
		target := storage.Path{Bucket: sel.Bucket, Key: key}
		if err := client.RemoveObject(ctx, sel.Bucket, key); err != nil {
			fmt.Fprintf(env.Err, "Failed to remove %s: %v\n", key, err)
			continue
		}
		fmt.Fprintf(env.Out, "Removed %s\n", target)
		removed++
	}
	fmt.Fprintf(env.Out, "Removed %d object(s)\n", removed)
	if removed < len(sel.Keys) {
		return &handler.ExitError{Code: 1}
	}
	return nil
}
