// Package snapshots lists and takes point-in-time snapshots of buckets.
package snapshots

import (
	"context"
	"errors"

	"github.com/tigrisdata/cli/internal/args"
	"github.com/tigrisdata/cli/internal/commands/cmdutil"
	"github.com/tigrisdata/cli/internal/display"
	"github.com/tigrisdata/cli/internal/handler"
	"github.com/tigrisdata/cli/internal/messages"
)

func init() {
	handler.Provide("snapshots/list", handler.Module{Default: List})
	handler.Provide("snapshots/take", handler.Module{Default: Take})
}

var errNoBucket = errors.New("Bucket name is required")

var columns = []display.Column{
	{Key: "name", Header: "Name"},
	{Key: "version", Header: "Version"},
	{Key: "created", Header: "Created"},
}

func List(ctx context.Context, env *handler.Env, opts args.Options) error {
	msgs := env.Messages()
	name := cmdutil.Value(opts, "name", "", 0)
	vars := messages.Vars{"name": name}
	msgs.Start(vars)
	if name == "" {
		return env.Fail(errNoBucket, vars)
	}

	client, err := env.Storage(ctx)
	if err != nil {
		return env.Fail(err, vars)
	}
	snaps, err := client.ListSnapshots(ctx, name)
	if err != nil {
		return env.Fail(err, vars)
	}
	if len(snaps) == 0 {
		msgs.Empty(vars)
		return nil
	}

	l := &display.Listing{Root: "snapshots", Item: "snapshot", Columns: columns}
	for _, s := range snaps {
		label := s.Name
		if label == "" {
			label = "-"
		}
		l.Records = append(l.Records, display.Record{
			"name":    label,
			"version": s.Version,
			"created": display.FormatTime(s.Created),
		})
	}
	if err := l.Write(env.Out, cmdutil.Format(opts)); err != nil {
		return env.Fail(err, vars)
	}
	vars["count"] = len(snaps)
	msgs.Success(vars)
	return nil
}

// Take snapshots a bucket, labelled with the optional second argument. The
// success message names the snapshot by its version when it has no label.
func Take(ctx context.Context, env *handler.Env, opts args.Options) error {
	msgs := env.Messages()
	name := cmdutil.Value(opts, "name", "", 0)
	label := cmdutil.Value(opts, "snapshot-name", "", 1)
	vars := messages.Vars{"name": name}
	msgs.Start(vars)
	if name == "" {
		return env.Fail(errNoBucket, vars)
	}

	client, err := env.Storage(ctx)
	if err != nil {
		return env.Fail(err, vars)
	}
	snap, err := client.TakeSnapshot(ctx, name, label)
	if err != nil {
		return env.Fail(err, vars)
	}
	vars["version"] = snap.Version
	vars["snapshotName"] = snap.Version
	if label != "" {
		vars["snapshotName"] = label
	}
	msgs.Success(vars)
	return nil
}
