package files

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/tigrisdata/cli/internal/args"
	"github.com/tigrisdata/cli/internal/commands/cmdutil"
	"github.com/tigrisdata/cli/internal/handler"
	"github.com/tigrisdata/cli/internal/messages"
	"github.com/tigrisdata/cli/internal/storage"
)

// Copy copies objects server side. A folder or wildcard source keeps the
// key layout below its prefix under the destination.
func Copy(ctx context.Context, env *handler.Env, opts args.Options) error {
	return transfer(ctx, env, opts, "copy")
}

// Move copies like Copy and removes each source once its copy succeeded.
func Move(ctx context.Context, env *handler.Env, opts args.Options) error {
	return transfer(ctx, env, opts, "move")
}

func transfer(ctx context.Context, env *handler.Env, opts args.Options, verb string) error {
	rawSrc := cmdutil.Value(opts, "src", "", 0)
	rawDest := cmdutil.Value(opts, "dest", "", 1)
	recursive := opts.Bool("recursive", "r")
	vars := messages.Vars{"dest": rawDest, "count": 0}

	if rawSrc == "" || rawDest == "" {
		return env.Fail(errors.New("both src and dest arguments are required"), vars)
	}
	src := storage.ParseRemotePath(rawSrc)
	dest := storage.ParseRemotePath(rawDest)
	if src.Bucket == "" || dest.Bucket == "" {
		return env.Fail(errInvalidPath, vars)
	}
	vars["dest"] = dest.String()

	client, err := env.Storage(ctx)
	if err != nil {
		return env.Fail(err, vars)
	}

	sel, err := expand(ctx, client, src, rawSrc, recursive)
	if errors.Is(err, errFolder) {
		return env.Fail(folderError(verb), vars)
	}
	if err != nil {
		return env.Fail(err, vars)
	}
	if len(sel.Keys) == 0 {
		return env.Fail(fmt.Errorf("No objects to %s", verb), vars)
	}

	destFolder := dest.Key == "" || dest.IsFolder() || sel.Multiple
	destPrefix := dest.Key
	if destFolder && destPrefix != "" && !strings.HasSuffix(destPrefix, "/") {
		destPrefix += "/"
	}

	count := 0
	var failed bool
	for _, key := range sel.Keys {
		from := storage.Path{Bucket: sel.Bucket, Key: key}
		to := storage.Path{Bucket: dest.Bucket, Key: dest.Key}
		switch {
		case sel.Multiple:
			to.Key = destPrefix + strings.TrimPrefix(key, sel.Prefix)
		case destFolder:
			to.Key = destPrefix + path.Base(key)
		}
		if from == to {
			return env.Fail(fmt.Errorf("%s and %s are the same object", from, to), vars)
		}

		if err := client.CopyObject(ctx, from, to); err != nil {
			if !sel.Multiple {
				return env.Fail(err, vars)
			}
			fmt.Fprintf(env.Err, "Failed to %s %s: %v\n", verb, from, err)
			failed = true
			continue
		}
		if verb == "move" {
			if err := client.RemoveObject(ctx, from.Bucket, from.Key); err != nil {
				fmt.Fprintf(env.Err, "Copied %s but failed to remove it: %v\n", from, err)
				failed = true
			}
		}
		if sel.Multiple {
			fmt.Fprintf(env.Out, "%s -> %s\n", from, to)
		}
		count++
	}

	vars["count"] = count
	env.Messages().Success(vars)
	if failed {
		return &handler.ExitError{Code: 1}
	}
	return nil
}
