package files

import (
	"context"
	"strings"

	"github.com/tigrisdata/cli/internal/args"
	"github.com/tigrisdata/cli/internal/commands/cmdutil"
	"github.com/tigrisdata/cli/internal/display"
	"github.com/tigrisdata/cli/internal/handler"
	"github.com/tigrisdata/cli/internal/storage"
)

// List prints the buckets, or the objects and folders directly under a
// bucket path.
func List(ctx context.Context, env *handler.Env, opts args.Options) error {
	target := cmdutil.Value(opts, "path", "", 0)
	format := cmdutil.Format(opts)
	msgs := env.Messages()

	client, err := env.Storage(ctx)
	if err != nil {
		return env.Fail(err, nil)
	}

	if target == "" {
		buckets, err := client.ListBuckets(ctx)
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
		return l.Write(env.Out, format)
	}

	p := storage.ParseRemotePath(target)
	if p.Bucket == "" {
		return env.Fail(errInvalidPath, nil)
	}

	prefix := p.Key
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		// "bucket/dir" lists the folder when one exists, else keys
		// starting with "dir".
		ok, err := hasChildren(ctx, client, p.Bucket, prefix+"/")
		if err != nil {
			return env.Fail(err, nil)
		}
		if ok {
			prefix += "/"
		}
	}

	objs, err := client.ListObjects(ctx, p.Bucket, prefix, false)
	if err != nil {
		return env.Fail(err, nil)
	}

	l := &display.Listing{Root: "objects", Item: "object", Columns: cmdutil.ObjectColumns}
	for _, o := range objs {
		if o.Key == prefix {
			continue
		}
		name := o.Key
		if strings.HasSuffix(prefix, "/") {
			name = strings.TrimPrefix(o.Key, prefix)
		}
		l.Records = append(l.Records, cmdutil.ObjectRecord(o, name))
	}
	if len(l.Records) == 0 {
		msgs.Empty(nil)
		return nil
	}
	return l.Write(env.Out, format)
}
