// Package buckets implements the buckets command group.
package buckets

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/tigrisdata/cli/internal/args"
	"github.com/tigrisdata/cli/internal/commands/cmdutil"
	"github.com/tigrisdata/cli/internal/display"
	"github.com/tigrisdata/cli/internal/handler"
	"github.com/tigrisdata/cli/internal/messages"
	"github.com/tigrisdata/cli/internal/prompt"
	"github.com/tigrisdata/cli/internal/spec"
	"github.com/tigrisdata/cli/internal/storage"
)

func init() {
	handler.Provide("buckets/list", handler.Module{Default: List})
	handler.Provide("buckets/create", handler.Module{Default: Create})
	handler.Provide("buckets/get", handler.Module{Default: Get})
	handler.Provide("buckets/delete", handler.Module{Default: Delete})
	handler.Provide("buckets/set", handler.Module{Default: Set})
}

// List prints every bucket visible to the current credentials.
func List(ctx context.Context, env *handler.Env, opts args.Options) error {
	msgs := env.Messages()
	msgs.Start(nil)

	client, err := env.Storage(ctx)
	if err != nil {
		return env.Fail(err, nil)
	}

	sp := display.NewSpinner("Listing buckets...")
	sp.Start()
	buckets, err := client.ListBuckets(ctx)
	sp.Stop()
	if err != nil {
		return env.Fail(err, nil)
	}
	if len(buckets) == 0 {
		msgs.Empty(nil)
		return nil
	}

	l := &display.Listing{Root: "buckets", Item: "bucket", Columns: cmdutil.BucketColumns}
	for _, b := range buckets {
		l.Records = append(l.Records, cmdutil.BucketRecord(b))
	}
	if err := l.Write(env.Out, cmdutil.Format(opts)); err != nil {
		return err
	}
	msgs.Success(messages.Vars{"count": len(buckets)})
	return nil
}

// Create makes a bucket. Without a name it asks for every setting.
func Create(ctx context.Context, env *handler.Env, opts args.Options) error {
	msgs := env.Messages()
	msgs.Start(nil)

	name := cmdutil.Value(opts, "name", "", 0)
	access := opts.StringOr("access", "a", "private")
	region := opts.StringOr("region", "r", "auto")
	snapshots := opts.Bool("enable-snapshots", "s")

	if name == "" {
		var err error
		if name, access, region, snapshots, err = ask(env); err != nil {
			return err
		}
	}
	vars := messages.Vars{"name": name}
	if name == "" {
		return env.Fail(errors.New("Bucket name is required"), vars)
	}

	client, err := env.Storage(ctx)
	if err != nil {
		return env.Fail(err, vars)
	}
	err = client.MakeBucket(ctx, name, storage.BucketOptions{
		Region:          region,
		Public:          access == "public",
		EnableSnapshots: snapshots,
	})
	switch {
	case storage.IsAlreadyExists(err):
		msgs.AlreadyDone(vars)
		return nil
	case err != nil:
		return env.Fail(err, vars)
	}
	msgs.Success(vars)
	return nil
}

// ask prompts for the bucket settings, offering the declared choices.
func ask(env *handler.Env) (name, access, region string, snapshots bool, err error) {
	if env.Prompt == nil {
		return "", "", "", false, nil
	}
	if name, err = env.Prompt.Input("Bucket name:", ""); err != nil {
		return
	}

	var choices []prompt.Choice
	if env.Command != nil {
		for _, a := range env.Command.Arguments {
			if a.Name != "access" {
				continue
			}
			for _, o := range a.Options {
				choices = append(choices, prompt.Choice{Label: label(o), Value: o.Value})
			}
		}
	}
	access = "private"
	if len(choices) > 0 {
		if access, err = env.Prompt.Select("Access level:", choices); err != nil {
			return
		}
	}
	if region, err = env.Prompt.Input("Region:", "auto"); err != nil {
		return
	}
	snapshots, err = env.Prompt.Confirm("Enable snapshots?")
	return
}

func label(o spec.Option) string {
	if o.Description == "" {
		return o.Name
	}
	return o.Name + " - " + o.Description
}

// Get prints the details of one bucket.
func Get(ctx context.Context, env *handler.Env, opts args.Options) error {
	msgs := env.Messages()
	msgs.Start(nil)

	name := cmdutil.Value(opts, "name", "", 0)
	if name == "" {
		return env.Fail(errors.New("Bucket name is required"), nil)
	}

	client, err := env.Storage(ctx)
	if err != nil {
		return env.Fail(err, nil)
	}
	buckets, err := client.ListBuckets(ctx)
	if err != nil {
		return env.Fail(err, nil)
	}
	var found *storage.Bucket
	for i := range buckets {
		if buckets[i].Name == name {
			found = &buckets[i]
			break
		}
	}
	if found == nil {
		return env.Fail(fmt.Errorf("Bucket '%s' not found", name), nil)
	}

	objs, err := client.ListObjects(ctx, name, "", true)
	if err != nil {
		return env.Fail(err, nil)
	}
	var size int64
	for _, o := range objs {
		size += o.Size
	}
	info, err := client.BucketInfo(ctx, name)
	if err != nil {
		return env.Fail(err, nil)
	}

	props := [][2]string{
		{"Name", name},
		{"Created", display.FormatTime(found.Created)},
		{"Objects", strconv.Itoa(len(objs))},
		{"Size", display.FormatSize(size)},
		{"Snapshots Enabled", yesNo(info.SnapshotsEnabled)},
	}
	if info.SourceBucket != "" {
		props = append(props, [2]string{"Source Bucket", info.SourceBucket})
	}
	if info.SourceSnapshot != "" {
		props = append(props, [2]string{"Source Snapshot", info.SourceSnapshot})
	}
	err = cmdutil.Properties("bucket", props).Write(env.Out, cmdutil.Format(opts))
	if err != nil {
		return err
	}
	msgs.Success(messages.Vars{"name": name})
	return nil
}

// Delete removes each named bucket in turn and stops at the first failure.
func Delete(ctx context.Context, env *handler.Env, opts args.Options) error {
	msgs := env.Messages()
	msgs.Start(nil)

	names := opts.Strings("name", "")
	if len(names) == 0 {
		return env.Fail(errors.New("Bucket name is required"), nil)
	}

	client, err := env.Storage(ctx)
	if err != nil {
		return env.Fail(err, messages.Vars{"name": names[0]})
	}
	for _, name := range names {
		vars := messages.Vars{"name": name}
		if err := client.RemoveBucket(ctx, name); err != nil {
			return env.Fail(err, vars)
		}
		msgs.Success(vars)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
