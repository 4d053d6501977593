// Package login implements authentication: the login flows, logout,
// whoami, configure and the credentials check.
package login

import (
	"context"
	"errors"
	"fmt"

	"github.com/tigrisdata/cli/internal/args"
	"github.com/tigrisdata/cli/internal/auth"
	"github.com/tigrisdata/cli/internal/display"
	"github.com/tigrisdata/cli/internal/handler"
	"github.com/tigrisdata/cli/internal/messages"
	"github.com/tigrisdata/cli/internal/prompt"
	"github.com/tigrisdata/cli/internal/spec"
	"github.com/tigrisdata/cli/internal/state"
)

func init() {
	handler.Provide("login/select", handler.Module{Default: Select})
	handler.Provide("login/oauth", handler.Module{Named: map[string]handler.Func{"oauth": OAuth}})
	handler.Provide("login/credentials", handler.Module{Named: map[string]handler.Func{"credentials": Credentials}})
	handler.Provide("logout", handler.Module{Default: Logout})
	handler.Provide("whoami", handler.Module{Default: Whoami})
	handler.Provide("configure/index", handler.Module{Default: Configure})
	handler.Provide("credentials/test", handler.Module{Default: Test})
}

// openBrowser is swapped out in tests.
var openBrowser = display.TryOpenBrowser

var loginMethods = []prompt.Choice{
	{Label: "As a user (OAuth2 flow)", Value: "user"},
	{Label: "As a machine (Access Key & Secret)", Value: "machine"},
}

// sibling rebinds env to another login subcommand so its messages apply.
func sibling(env *handler.Env, name string) *handler.Env {
	path := []string{"login", name}
	if node := spec.FindNode(spec.MustLoad().Commands, path); node != nil {
		return env.WithCommand(node, path)
	}
	return env
}

// Select runs the credentials flow when a key was passed, otherwise asks
// which flow to use.
func Select(ctx context.Context, env *handler.Env, opts args.Options) error {
	if opts.String("access-key", "k") != "" || opts.String("access-secret", "s") != "" {
		return Credentials(ctx, sibling(env, "credentials"), opts)
	}
	if env.Prompt == nil {
		return OAuth(ctx, sibling(env, "oauth"), opts)
	}

	method, err := env.Prompt.Select("Choose login method:", loginMethods)
	if err != nil {
		return err
	}
	if method == "user" {
		return OAuth(ctx, sibling(env, "oauth"), opts)
	}
	return Credentials(ctx, sibling(env, "credentials"), opts)
}

// OAuth logs in with the device flow and selects the first organization.
func OAuth(ctx context.Context, env *handler.Env, _ args.Options) error {
	msgs := env.Messages()
	msgs.Start(nil)

	if env.Auth.IsAuthenticated() {
		msgs.AlreadyDone(nil)
		return nil
	}

	sp := display.NewSpinner("Waiting for authentication...")
	_, err := env.Auth.Login(ctx, authCallbacks(env, sp))
	sp.Stop()
	if err != nil {
		return env.Fail(err, nil)
	}

	orgs, err := env.Auth.Organizations(ctx)
	if err != nil {
		return env.Fail(err, nil)
	}
	if len(orgs) == 0 {
		msgs.Success(messages.Vars{"org": "none"})
		return nil
	}
	if err := env.State.SelectOrganization(orgs[0].ID); err != nil {
		return env.Fail(err, nil)
	}
	msgs.Success(messages.Vars{"org": orgs[0].Label()})
	if len(orgs) > 1 {
		msgs.Hint(messages.Vars{"count": len(orgs)})
	}
	return nil
}

func authCallbacks(env *handler.Env, sp *display.Spinner) auth.LoginCallbacks {
	return auth.LoginCallbacks{
		OnDeviceCode: func(code, uri string) {
			fmt.Fprintf(env.Out, "\nYour confirmation code: %s\n\n", code)
			fmt.Fprintf(env.Out, "If browser doesn't open, visit: %s\n", uri)
		},
		OpenURL: openBrowser,
		OnWaiting: func() {
			fmt.Fprintln(env.Out, "\nWaiting for authentication...")
			sp.Start()
		},
	}
}

// Credentials starts a session with an access key pair. The pair is kept
// until logout; saved credentials from configure are left alone.
func Credentials(ctx context.Context, env *handler.Env, opts args.Options) error {
	msgs := env.Messages()
	msgs.Start(nil)

	key := opts.String("access-key", "k")
	secret := opts.String("access-secret", "s")

	var err error
	if key == "" && env.Prompt != nil {
		if key, err = env.Prompt.Input("Access Key ID:", ""); err != nil {
			return err
		}
	}
	if secret == "" && env.Prompt != nil {
		if secret, err = env.Prompt.Secret("Secret Access Key:"); err != nil {
			return err
		}
	}
	if key == "" || secret == "" {
		return env.Fail(errors.New("Access key and secret are required for credentials mode"), nil)
	}

	creds := &state.Credentials{
		AccessKeyID:     key,
		SecretAccessKey: secret,
		Endpoint:        env.Config.StorageEndpoint,
	}
	err = env.State.Update(func(cfg *state.Config) error {
		cfg.TemporaryCredentials = creds
		cfg.LoginMethod = state.LoginCredentials
		return nil
	})
	if err != nil {
		return env.Fail(err, nil)
	}
	msgs.Success(messages.Vars{"accessKey": key})
	return nil
}

// Logout drops the session. Saved credentials survive.
func Logout(ctx context.Context, env *handler.Env, _ args.Options) error {
	msgs := env.Messages()
	msgs.Start(nil)

	st := env.State.Load()
	if st.Tokens == nil && st.TemporaryCredentials == nil && st.LoginMethod == "" {
		msgs.AlreadyDone(nil)
		return nil
	}
	if err := env.State.ClearAll(); err != nil {
		return env.Fail(err, nil)
	}
	msgs.Success(nil)
	return nil
}
