// Package accesskeys manages the access keys of the selected organization.
package accesskeys

import (
	"context"
	"fmt"

	"github.com/tigrisdata/cli/internal/args"
	"github.com/tigrisdata/cli/internal/commands/cmdutil"
	"github.com/tigrisdata/cli/internal/display"
	"github.com/tigrisdata/cli/internal/handler"
	"github.com/tigrisdata/cli/internal/messages"
)

func init() {
	handler.Provide("access-keys/list", handler.Module{Default: List})
	handler.Provide("access-keys/create", handler.Module{Default: Create})
	handler.Provide("access-keys/delete", handler.Module{Default: Delete})
	handler.Provide("access-keys/get", handler.Module{Default: Get})
	handler.Provide("access-keys/assign", handler.Module{Default: Assign})
}

var columns = []display.Column{
	{Key: "id", Header: "ID"},
	{Key: "name", Header: "Name"},
	{Key: "status", Header: "Status"},
	{Key: "created", Header: "Created"},
}

func List(ctx context.Context, env *handler.Env, opts args.Options) error {
	msgs := env.Messages()
	msgs.Start(nil)

	client, err := env.IAMClient(ctx)
	if err != nil {
		return env.Fail(err, nil)
	}
	keys, err := client.ListAccessKeys(ctx)
	if err != nil {
		return env.Fail(err, nil)
	}
	if len(keys) == 0 {
		msgs.Empty(nil)
		return nil
	}

	l := &display.Listing{Root: "accessKeys", Item: "accessKey", Columns: columns}
	for _, k := range keys {
		l.Records = append(l.Records, display.Record{
			"id":      k.ID,
			"name":    k.Name,
			"status":  k.Status,
			"created": display.FormatTime(k.Created),
		})
	}
	if err := l.Write(env.Out, cmdutil.Format(opts)); err != nil {
		return env.Fail(err, nil)
	}
	msgs.Success(messages.Vars{"count": len(keys)})
	return nil
}

// Create creates a key and prints its secret, which is only available in
// the creation response.
func Create(ctx context.Context, env *handler.Env, opts args.Options) error {
	msgs := env.Messages()
	name := cmdutil.Value(opts, "name", "", 0)
	vars := messages.Vars{"name": name}
	msgs.Start(vars)

	client, err := env.IAMClient(ctx)
	if err != nil {
		return env.Fail(err, vars)
	}
	key, err := client.CreateAccessKey(ctx, name)
	if err != nil {
		return env.Fail(err, vars)
	}
	vars["id"] = key.ID

	msgs.Success(vars)
	fmt.Fprintf(env.Out, "  Access Key ID:     %s\n", key.ID)
	fmt.Fprintf(env.Out, "  Secret Access Key: %s\n", key.Secret)
	msgs.Hint(vars)
	return nil
}

func Delete(ctx context.Context, env *handler.Env, opts args.Options) error {
	msgs := env.Messages()
	id := cmdutil.Value(opts, "id", "", 0)
	vars := messages.Vars{"id": id}
	msgs.Start(vars)

	client, err := env.IAMClient(ctx)
	if err != nil {
		return env.Fail(err, vars)
	}
	if err := client.DeleteAccessKey(ctx, id); err != nil {
		return env.Fail(err, vars)
	}
	msgs.Success(vars)
	return nil
}
