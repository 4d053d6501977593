// Package forks creates copy-on-write forks of buckets and lists the forks
// of a bucket.
package forks

import (
	"context"
	"errors"
	"fmt"

	"github.com/tigrisdata/cli/internal/args"
	"github.com/tigrisdata/cli/internal/commands/cmdutil"
	"github.com/tigrisdata/cli/internal/display"
	"github.com/tigrisdata/cli/internal/handler"
	"github.com/tigrisdata/cli/internal/messages"
	"github.com/tigrisdata/cli/internal/storage"
)

func init() {
	handler.Provide("forks/list", handler.Module{Default: List})
	handler.Provide("forks/create", handler.Module{Default: Create})
}

// List prints the buckets whose fork source is the named bucket. The
// bucket's own info says whether any exist before every bucket is checked.
func List(ctx context.Context, env *handler.Env, opts args.Options) error {
	msgs := env.Messages()
	name := cmdutil.Value(opts, "name", "", 0)
	vars := messages.Vars{"name": name}
	msgs.Start(vars)
	if name == "" {
		return env.Fail(errors.New("Source bucket name is required"), vars)
	}

	client, err := env.Storage(ctx)
	if err != nil {
		return env.Fail(err, vars)
	}
	info, err := client.BucketInfo(ctx, name)
	if err != nil {
		return env.Fail(err, vars)
	}
	if !info.HasForks {
		msgs.Empty(vars)
		return nil
	}

	sp := display.NewSpinner("Finding forks...")
	sp.Start()
	forks, err := findForks(ctx, client, name)
	sp.Stop()
	if err != nil {
		return env.Fail(err, vars)
	}
	if len(forks) == 0 {
		msgs.Empty(vars)
		return nil
	}

	l := &display.Listing{Root: "forks", Item: "fork", Columns: cmdutil.BucketColumns}
	for _, b := range forks {
		l.Records = append(l.Records, cmdutil.BucketRecord(b))
	}
	if err := l.Write(env.Out, cmdutil.Format(opts)); err != nil {
		return env.Fail(err, vars)
	}
	vars["count"] = len(forks)
	msgs.Success(vars)
	return nil
}

func findForks(ctx context.Context, client storage.Client, source string) ([]storage.Bucket, error) {
	buckets, err := client.ListBuckets(ctx)
	if err != nil {
		return nil, err
	}
	var forks []storage.Bucket
	for _, b := range buckets {
		if b.Name == source {
			continue
		}
		info, err := client.BucketInfo(ctx, b.Name)
		if err != nil {
			// A bucket removed while listing is not a fork.
			if storage.IsNotFound(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read bucket '%s': %w", b.Name, err)
		}
		if info.SourceBucket == source {
			forks = append(forks, b)
		}
	}
	return forks, nil
}

func Create(ctx context.Context, env *handler.Env, opts args.Options) error {
	msgs := env.Messages()
	name := cmdutil.Value(opts, "name", "", 0)
	fork := cmdutil.Value(opts, "fork-name", "", 1)
	snapshot := opts.String("snapshot", "s")
	vars := messages.Vars{"name": name, "forkName": fork}
	msgs.Start(vars)

	switch {
	case name == "":
		return env.Fail(errors.New("Source bucket name is required"), vars)
	case fork == "":
		return env.Fail(errors.New("Fork name is required"), vars)
	}

	client, err := env.Storage(ctx)
	if err != nil {
		return env.Fail(err, vars)
	}
	if err := client.ForkBucket(ctx, fork, name, snapshot); err != nil {
		return env.Fail(err, vars)
	}
	msgs.Success(vars)
	return nil
}
