// Package objects implements the objects command group.
package objects

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/tigrisdata/cli/internal/args"
	"github.com/tigrisdata/cli/internal/commands/cmdutil"
	"github.com/tigrisdata/cli/internal/display"
	"github.com/tigrisdata/cli/internal/handler"
	"github.com/tigrisdata/cli/internal/messages"
	"github.com/tigrisdata/cli/internal/storage"
)

func init() {
	handler.Provide("objects/list", handler.Module{Default: List})
	handler.Provide("objects/get", handler.Module{Default: Get})
	handler.Provide("objects/put", handler.Module{Default: Put})
	handler.Provide("objects/delete", handler.Module{Default: Delete})
	handler.Provide("objects/set", handler.Module{Default: Set})
}

// List prints every object in a bucket, optionally under a prefix.
func List(ctx context.Context, env *handler.Env, opts args.Options) error {
	msgs := env.Messages()
	msgs.Start(nil)

	bucket := cmdutil.Value(opts, "bucket", "", 0)
	prefix := opts.String("prefix", "p")
	if bucket == "" {
		return env.Fail(errors.New("Bucket name is required"), nil)
	}

	client, err := env.Storage(ctx)
	if err != nil {
		return env.Fail(err, nil)
	}
	objs, err := client.ListObjects(ctx, bucket, prefix, true)
	if err != nil {
		return env.Fail(err, nil)
	}
	if len(objs) == 0 {
		msgs.Empty(nil)
		return nil
	}

	l := &display.Listing{Root: "objects", Item: "object", Columns: cmdutil.ObjectColumns}
	for _, o := range objs {
		l.Records = append(l.Records, cmdutil.ObjectRecord(o, o.Key))
	}
	if err := l.Write(env.Out, cmdutil.Format(opts)); err != nil {
		return err
	}
	msgs.Success(messages.Vars{"count": len(objs)})
	return nil
}

// Get downloads an object to --output, or to stdout when it is unset.
func Get(ctx context.Context, env *handler.Env, opts args.Options) error {
	msgs := env.Messages()
	msgs.Start(nil)

	bucket := cmdutil.Value(opts, "bucket", "", 0)
	key := cmdutil.Value(opts, "key", "", 1)
	output := opts.String("output", "o")
	vars := messages.Vars{"key": key, "output": output}
	if bucket == "" || key == "" {
		return env.Fail(errors.New("Bucket and key are required"), vars)
	}

	client, err := env.Storage(ctx)
	if err != nil {
		return env.Fail(err, vars)
	}
	body, err := client.GetObject(ctx, bucket, key)
	if err != nil {
		return env.Fail(err, vars)
	}
	defer body.Close()

	if output == "" {
		if _, err := io.Copy(env.Out, body); err != nil {
			return env.Fail(err, vars)
		}
		return nil
	}

	f, err := os.Create(output)
	if err != nil {
		return env.Fail(err, vars)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		return env.Fail(err, vars)
	}
	if err := f.Close(); err != nil {
		return env.Fail(err, vars)
	}
	msgs.Success(vars)
	return nil
}

// Put uploads a local file, or stdin when no file is given and stdin is
// not a terminal.
func Put(ctx context.Context, env *handler.Env, opts args.Options) error {
	msgs := env.Messages()
	msgs.Start(nil)

	bucket := cmdutil.Value(opts, "bucket", "", 0)
	key := cmdutil.Value(opts, "key", "", 1)
	file := cmdutil.Value(opts, "file", "", 2)
	vars := messages.Vars{"key": key}
	if bucket == "" || key == "" {
		return env.Fail(errors.New("Bucket and key are required"), vars)
	}

	in, size, err := cmdutil.OpenInput(env, file)
	if errors.Is(err, cmdutil.ErrNoInput) {
		return env.Fail(errors.New("File path is required (or pipe data via stdin)"), vars)
	}
	if err != nil {
		return env.Fail(err, vars)
	}
	defer in.Close()

	contentType := opts.String("content-type", "t")
	if contentType == "" && file != "" {
		contentType = mime.TypeByExtension(filepath.Ext(file))
	}
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(key))
	}

	client, err := env.Storage(ctx)
	if err != nil {
		return env.Fail(err, vars)
	}
	obj, err := client.PutObject(ctx, bucket, key, in, size, storage.PutOptions{
		ContentType: contentType,
		Public:      opts.String("access", "a") == "public",
	})
	if err != nil {
		return env.Fail(err, vars)
	}

	err = (&display.Listing{
		Root: "objects",
		Item: "object",
		Columns: []display.Column{
			{Key: "path", Header: "Path"},
			{Key: "size", Header: "Size"},
			{Key: "contentType", Header: "Content-Type"},
			{Key: "modified", Header: "Modified"},
		},
		Records: []display.Record{{
			"path":        fmt.Sprintf("%s/%s", bucket, key),
			"size":        display.FormatSize(obj.Size),
			"contentType": obj.ContentType,
			"modified":    display.FormatTime(obj.LastModified),
		}},
	}).Write(env.Out, display.FormatTable)
	if err != nil {
		return err
	}
	vars["size"] = display.FormatSize(obj.Size)
	msgs.Success(vars)
	return nil
}

// Delete removes each key in turn and stops at the first failure.
func Delete(ctx context.Context, env *handler.Env, opts args.Options) error {
	msgs := env.Messages()
	msgs.Start(nil)

	bucket := cmdutil.Value(opts, "bucket", "", 0)
	keys := opts.Strings("key", "")
	if bucket == "" || len(keys) == 0 {
		return env.Fail(errors.New("Bucket and key are required"), nil)
	}

	client, err := env.Storage(ctx)
	if err != nil {
		return env.Fail(err, messages.Vars{"key": keys[0]})
	}
	for _, key := range keys {
		vars := messages.Vars{"key": key}
		if _, err := client.StatObject(ctx, bucket, key); err != nil {
			return env.Fail(err, vars)
		}
		if err := client.RemoveObject(ctx, bucket, key); err != nil {
			return env.Fail(err, vars)
		}
		msgs.Success(vars)
	}
	return nil
}
