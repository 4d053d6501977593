package objects

import (
	"context"
	"errors"
	"fmt"

	"github.com/tigrisdata/cli/internal/args"
	"github.com/tigrisdata/cli/internal/commands/cmdutil"
	"github.com/tigrisdata/cli/internal/handler"
	"github.com/tigrisdata/cli/internal/messages"
	"github.com/tigrisdata/cli/internal/storage"
)

// Set changes the access level of an object, renaming it on the way when a
// new key is given.
func Set(ctx context.Context, env *handler.Env, opts args.Options) error {
	msgs := env.Messages()
	bucket := cmdutil.Value(opts, "bucket", "", 0)
	key := cmdutil.Value(opts, "key", "", 1)
	access := opts.String("access", "a")
	newKey := opts.String("new-key", "n")
	vars := messages.Vars{"bucket": bucket, "key": key}
	msgs.Start(vars)

	switch {
	case bucket == "":
		return env.Fail(errors.New("Bucket name is required"), vars)
	case key == "":
		return env.Fail(errors.New("Object key is required"), vars)
	case access == "":
		return env.Fail(errors.New("Access level is required (--access public|private)"), vars)
	case access != "public" && access != "private":
		return env.Fail(fmt.Errorf("Invalid access %q. Must be one of: public, private", access), vars)
	}

	client, err := env.Storage(ctx)
	if err != nil {
		return env.Fail(err, vars)
	}
	err = client.UpdateObject(ctx, bucket, key, storage.ObjectSettings{Public: access == "public", NewKey: newKey})
	if err != nil {
		return env.Fail(err, vars)
	}
	if newKey != "" {
		vars["key"] = newKey
	}
	msgs.Success(vars)
	return nil
}
