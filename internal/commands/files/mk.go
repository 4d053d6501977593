package files

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"github.com/tigrisdata/cli/internal/args"
	"github.com/tigrisdata/cli/internal/commands/cmdutil"
	"github.com/tigrisdata/cli/internal/handler"
	"github.com/tigrisdata/cli/internal/messages"
	"github.com/tigrisdata/cli/internal/storage"
)

// Make creates a bucket, or a folder marker when the path has a key.
func Make(ctx context.Context, env *handler.Env, opts args.Options) error {
	target := cmdutil.Value(opts, "path", "", 0)
	p := storage.ParseRemotePath(target)
	if p.Bucket == "" {
		return env.Fail(errInvalidPath, messages.Vars{"path": target})
	}

	client, err := env.Storage(ctx)
	if err != nil {
		return env.Fail(err, messages.Vars{"path": target})
	}

	if p.Key == "" {
		vars := messages.Vars{"path": p.Bucket}
		if err := client.MakeBucket(ctx, p.Bucket, storage.BucketOptions{}); err != nil {
			return env.Fail(err, vars)
		}
		env.Messages().Success(vars)
		return nil
	}

	key := p.Key
	if !strings.HasSuffix(key, "/") {
		key += "/"
	}
	vars := messages.Vars{"path": p.Bucket + "/" + key}
	if _, err := client.PutObject(ctx, p.Bucket, key, bytes.NewReader(nil), 0, storage.PutOptions{}); err != nil {
		return env.Fail(err, vars)
	}
	env.Messages().Success(vars)
	return nil
}

// Touch creates an empty object.
func Touch(ctx context.Context, env *handler.Env, opts args.Options) error {
	target := cmdutil.Value(opts, "path", "", 0)
	p := storage.ParseRemotePath(target)
	vars := messages.Vars{"path": target}
	if p.Bucket == "" {
		return env.Fail(errInvalidPath, vars)
	}
	if p.Key == "" {
		return env.Fail(errors.New("Object key is required (use mk to create buckets)"), vars)
	}

	client, err := env.Storage(ctx)
	if err != nil {
		return env.Fail(err, vars)
	}

	vars["path"] = p.Bucket + "/" + p.Key
	if _, err := client.PutObject(ctx, p.Bucket, p.Key, bytes.NewReader(nil), 0, storage.PutOptions{}); err != nil {
		return env.Fail(err, vars)
	}
	env.Messages().Success(vars)
	return nil
}
