package accesskeys

import (
	"context"
	"errors"
	"fmt"

	"github.com/tigrisdata/cli/internal/args"
	"github.com/tigrisdata/cli/internal/commands/cmdutil"
	"github.com/tigrisdata/cli/internal/display"
	"github.com/tigrisdata/cli/internal/handler"
	"github.com/tigrisdata/cli/internal/iam"
	"github.com/tigrisdata/cli/internal/messages"
)

// Get shows a key with the roles it holds on buckets. The secret is never
// part of the answer.
func Get(ctx context.Context, env *handler.Env, opts args.Options) error {
	msgs := env.Messages()
	id := cmdutil.Value(opts, "id", "", 0)
	vars := messages.Vars{"id": id}
	msgs.Start(vars)

	client, err := env.IAMClient(ctx)
	if err != nil {
		return env.Fail(err, vars)
	}
	key, err := client.GetAccessKey(ctx, id)
	if err != nil {
		return env.Fail(err, vars)
	}

	if cmdutil.Format(opts) == display.FormatJSON {
		return display.WriteJSON(env.Out, key)
	}
	fmt.Fprintf(env.Out, "  Name:         %s\n", key.Name)
	fmt.Fprintf(env.Out, "  ID:           %s\n", key.ID)
	fmt.Fprintf(env.Out, "  Status:       %s\n", key.Status)
	fmt.Fprintf(env.Out, "  Created:      %s\n", display.FormatTime(key.Created))
	fmt.Fprintf(env.Out, "  Organization: %s\n", key.Organization)
	if len(key.Roles) == 0 {
		fmt.Fprintln(env.Out, "  Roles:        None")
		return nil
	}
	fmt.Fprintln(env.Out, "  Roles:")
	for _, r := range key.Roles {
		fmt.Fprintf(env.Out, "    - %s: %s\n", r.Bucket, r.Role)
	}
	return nil
}

// Assign replaces the bucket roles of a key. --admin grants NamespaceAdmin
// on every bucket and --revoke-roles drops them all.
func Assign(ctx context.Context, env *handler.Env, opts args.Options) error {
	msgs := env.Messages()
	id := cmdutil.Value(opts, "id", "", 0)
	vars := messages.Vars{"id": id}
	msgs.Start(vars)

	admin := opts.Bool("admin", "")
	revoke := opts.Bool("revoke-roles", "")
	if admin && revoke {
		return env.Fail(errors.New("Cannot use --admin and --revoke-roles together"), vars)
	}

	var roles []iam.BucketRole
	if !revoke {
		var err error
		if roles, err = bucketRoles(opts, admin); err != nil {
			return env.Fail(err, vars)
		}
	}

	client, err := env.IAMClient(ctx)
	if err != nil {
		return env.Fail(err, vars)
	}
	if revoke {
		err = client.RevokeBucketRoles(ctx, id)
	} else {
		err = client.AssignBucketRoles(ctx, id, roles)
	}
	if err != nil {
		return env.Fail(err, vars)
	}
	msgs.Success(vars)
	return nil
}

func bucketRoles(opts args.Options, admin bool) ([]iam.BucketRole, error) {
	if admin {
		return []iam.BucketRole{{Bucket: "*", Role: iam.RoleNamespaceAdmin}}, nil
	}
	buckets := nonEmpty(opts.Strings("bucket", "b"))
	if len(buckets) == 0 {
		return nil, errors.New("At least one bucket name is required (or use --admin or --revoke-roles)")
	}
	roles := nonEmpty(opts.Strings("role", "r"))
	if len(roles) == 0 {
		return nil, errors.New("At least one role is required (or use --admin or --revoke-roles)")
	}
	return iam.PairRoles(buckets, roles)
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
