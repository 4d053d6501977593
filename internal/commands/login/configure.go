package login

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tigrisdata/cli/internal/args"
	"github.com/tigrisdata/cli/internal/auth"
	"github.com/tigrisdata/cli/internal/handler"
	"github.com/tigrisdata/cli/internal/messages"
	"github.com/tigrisdata/cli/internal/state"
)

// Configure saves an access key pair used whenever no login session is
// active, and switches the login method to credentials.
func Configure(ctx context.Context, env *handler.Env, opts args.Options) error {
	msgs := env.Messages()
	msgs.Start(nil)

	key := opts.String("access-key", "k")
	secret := opts.String("access-secret", "s")
	endpoint := opts.String("endpoint", "e")

	if (key == "" || secret == "") && env.Prompt != nil {
		fmt.Fprintln(env.Out, "Please provide your Tigris credentials. You can find these in your Tigris dashboard.")
		var err error
		if key == "" {
			if key, err = env.Prompt.Input("Tigris Access Key ID:", ""); err != nil {
				return err
			}
		}
		if secret == "" {
			if secret, err = env.Prompt.Secret("Tigris Secret Access Key:"); err != nil {
				return err
			}
		}
		if endpoint, err = env.Prompt.Input("Tigris Endpoint:", orDefault(endpoint, env.Config.StorageEndpoint)); err != nil {
			return err
		}
	}

	key, secret, endpoint = strings.TrimSpace(key), strings.TrimSpace(secret), strings.TrimSpace(endpoint)
	if key == "" || secret == "" || endpoint == "" {
		return env.Fail(errors.New("All credentials are required"), nil)
	}

	err := env.State.Update(func(cfg *state.Config) error {
		cfg.Credentials = &state.Credentials{
			AccessKeyID:     key,
			SecretAccessKey: secret,
			Endpoint:        endpoint,
		}
		cfg.LoginMethod = state.LoginCredentials
		return nil
	})
	if err != nil {
		return env.Fail(err, nil)
	}
	msgs.Success(messages.Vars{"accessKey": key, "endpoint": endpoint})
	msgs.Hint(nil)
	return nil
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

// Test checks that the effective credentials can reach the storage API,
// either by listing buckets or by probing a single bucket.
func Test(ctx context.Context, env *handler.Env, opts args.Options) error {
	msgs := env.Messages()
	msgs.Start(nil)

	sc, err := env.Credentials.StorageConfig(ctx)
	if err != nil {
		if errors.Is(err, auth.ErrNotAuthenticated) {
			err = errors.New(`No credentials found. Run "tigris configure" or "tigris login" first.`)
		}
		return env.Fail(err, nil)
	}
	client, err := env.NewStorage(sc)
	if err != nil {
		return env.Fail(err, nil)
	}

	if bucket := opts.String("bucket", "b"); bucket != "" {
		ok, err := client.BucketExists(ctx, bucket)
		if err == nil && !ok {
			err = fmt.Errorf("bucket %q does not exist", bucket)
		}
		if err != nil {
			return env.Fail(fmt.Errorf("Current credentials don't have access to bucket %q: %w", bucket, err), nil)
		}
		fmt.Fprintf(env.Out, "  Bucket: %s\n  Access verified.\n", bucket)
		msgs.Success(messages.Vars{"source": sc.Source, "count": 1})
		return nil
	}

	buckets, err := client.ListBuckets(ctx)
	if err != nil {
		return env.Fail(fmt.Errorf("Current credentials don't have sufficient access: %w", err), nil)
	}
	msgs.Success(messages.Vars{"source": sc.Source, "count": len(buckets)})
	return nil
}
