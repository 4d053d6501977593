package files

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tigrisdata/cli/internal/args"
	"github.com/tigrisdata/cli/internal/commands/cmdutil"
	"github.com/tigrisdata/cli/internal/display"
	"github.com/tigrisdata/cli/internal/handler"
	"github.com/tigrisdata/cli/internal/storage"
)

// Stat prints the metadata of a bucket, a folder or an object.
func Stat(ctx context.Context, env *handler.Env, opts args.Options) error {
	target := cmdutil.Value(opts, "path", "", 0)
	format := cmdutil.Format(opts)
	p := storage.ParseRemotePath(target)
	if p.Bucket == "" {
		return env.Fail(errInvalidPath, nil)
	}

	client, err := env.Storage(ctx)
	if err != nil {
		return env.Fail(err, nil)
	}

	if p.Key == "" {
		return statBucket(ctx, env, client, p.Bucket, format)
	}

	if !p.IsFolder() {
		obj, err := client.StatObject(ctx, p.Bucket, p.Key)
		switch {
		case err == nil:
			return cmdutil.Properties("object", [][2]string{
				{"Path", p.String()},
				{"Type", "object"},
				{"Size", display.FormatSize(obj.Size)},
				{"Bytes", strconv.FormatInt(obj.Size, 10)},
				{"Content-Type", obj.ContentType},
				{"ETag", obj.ETag},
				{"Modified", display.FormatTime(obj.LastModified)},
			}).Write(env.Out, format)
		case !storage.IsNotFound(err):
			return env.Fail(err, nil)
		}
	}

	prefix := strings.TrimSuffix(p.Key, "/") + "/"
	objs, err := client.ListObjects(ctx, p.Bucket, prefix, true)
	if err != nil {
		return env.Fail(err, nil)
	}
	if len(objs) == 0 {
		return env.Fail(fmt.Errorf("No such object or folder: %s", p), nil)
	}
	var size int64
	for _, o := range objs {
		size += o.Size
	}
	return cmdutil.Properties("folder", [][2]string{
		{"Path", storage.Path{Bucket: p.Bucket, Key: prefix}.String()},
		{"Type", "folder"},
		{"Objects", strconv.Itoa(len(objs))},
		{"Size", display.FormatSize(size)},
	}).Write(env.Out, format)
}

func statBucket(ctx context.Context, env *handler.Env, client storage.Client, bucket, format string) error {
	buckets, err := client.ListBuckets(ctx)
	if err != nil {
		return env.Fail(err, nil)
	}
	for _, b := range buckets {
		if b.Name != bucket {
			continue
		}
		objs, err := client.ListObjects(ctx, bucket, "", true)
		if err != nil {
			return env.Fail(err, nil)
		}
		var size int64
		for _, o := range objs {
			size += o.Size
		}
		return cmdutil.Properties("bucket", [][2]string{
			{"Path", storage.Path{Bucket: bucket}.String()},
			{"Type", "bucket"},
			{"Created", display.FormatTime(b.Created)},
			{"Objects", strconv.Itoa(len(objs))},
			{"Size", display.FormatSize(size)},
		}).Write(env.Out, format)
	}
	return env.Fail(fmt.Errorf("Bucket '%s' not found", bucket), nil)
}
