// Package orgs lists the organizations of the OAuth session and selects
// the active one.
package orgs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tigrisdata/cli/internal/args"
	"github.com/tigrisdata/cli/internal/commands/cmdutil"
	"github.com/tigrisdata/cli/internal/display"
	"github.com/tigrisdata/cli/internal/handler"
	"github.com/tigrisdata/cli/internal/logging"
	"github.com/tigrisdata/cli/internal/messages"
	"github.com/tigrisdata/cli/internal/prompt"
	"github.com/tigrisdata/cli/internal/state"
)

func init() {
	handler.Provide("orgs/list", handler.Module{Default: List})
	handler.Provide("orgs/select", handler.Module{Default: Select})
	handler.Provide("orgs/create", handler.Module{Default: Create})
}

const credentialsLogin = "You are logged in using an access key, which belongs to a single organization.\n" +
	`Run "tigris login oauth" to work with multiple organizations.`

const createNeedsOAuth = "You are using access key credentials, which belong to a single organization.\n" +
	"Organization creation is only available with OAuth login.\n\n" +
	`Run "tigris login" to login with your Tigris account.`

var columns = []display.Column{
	{Key: "selected", Header: " "},
	{Key: "id", Header: "ID"},
	{Key: "name", Header: "Name"},
	{Key: "displayName", Header: "Display Name"},
}

// organizations returns the organizations of the session. ok is false
// when the session cannot have any and a message was printed instead.
func organizations(ctx context.Context, env *handler.Env) ([]state.Organization, bool, error) {
	if env.State.LoginMethod() == state.LoginCredentials {
		fmt.Fprintln(env.Out, credentialsLogin)
		return nil, false, nil
	}
	orgs, err := env.Auth.Organizations(ctx)
	if err != nil {
		return nil, false, err
	}
	return orgs, true, nil
}

func List(ctx context.Context, env *handler.Env, opts args.Options) error {
	msgs := env.Messages()
	msgs.Start(nil)

	orgs, ok, err := organizations(ctx, env)
	if err != nil {
		return env.Fail(err, nil)
	}
	if !ok {
		return nil
	}
	if len(orgs) == 0 {
		msgs.Empty(nil)
		return nil
	}

	selected := env.State.SelectedOrganization()
	l := &display.Listing{Root: "organizations", Item: "organization", Columns: columns}
	for _, o := range orgs {
		mark := " "
		if o.ID == selected {
			mark = "*"
		}
		l.Records = append(l.Records, display.Record{
			"selected":    mark,
			"id":          o.ID,
			"name":        o.Name,
			"displayName": o.DisplayName,
		})
	}
	if err := l.Write(env.Out, cmdutil.Format(opts)); err != nil {
		return env.Fail(err, nil)
	}
	if selected == "" {
		msgs.Hint(nil)
	}
	return nil
}

// Select makes an organization active, by id or name, or by choosing from
// a list when none is given.
func Select(ctx context.Context, env *handler.Env, opts args.Options) error {
	msgs := env.Messages()
	msgs.Start(nil)

	orgs, ok, err := organizations(ctx, env)
	if err != nil {
		return env.Fail(err, nil)
	}
	if !ok {
		return nil
	}
	if len(orgs) == 0 {
		return env.Fail(errors.New("No organizations found"), nil)
	}

	ref := cmdutil.Value(opts, "name", "", 0)
	if ref == "" {
		if env.Prompt == nil {
			return env.Fail(errors.New("organization name is required"), nil)
		}
		choices := make([]prompt.Choice, len(orgs))
		for i, o := range orgs {
			choices[i] = prompt.Choice{Label: fmt.Sprintf("%s (%s)", o.Label(), o.ID), Value: o.ID}
		}
		if ref, err = env.Prompt.Select("Select an organization:", choices); err != nil {
			return err
		}
	}

	cfg := state.Config{Organizations: orgs}
	org, found := cfg.FindOrganization(ref)
	if !found {
		return env.Fail(notFound(ref, orgs), nil)
	}
	if err := env.State.SelectOrganization(org.ID); err != nil {
		return env.Fail(err, nil)
	}
	msgs.Success(messages.Vars{"name": org.Label()})
	return nil
}

func notFound(ref string, orgs []state.Organization) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Organization '%s' not found. Available organizations:", ref)
	for _, o := range orgs {
		fmt.Fprintf(&b, "\n    %s (%s)", o.Label(), o.ID)
	}
	return errors.New(b.String())
}

// Create creates an organization and adds it to the cached list so it can
// be selected right away.
func Create(ctx context.Context, env *handler.Env, opts args.Options) error {
	msgs := env.Messages()
	name := strings.TrimSpace(cmdutil.Value(opts, "name", "", 0))
	vars := messages.Vars{"name": name}

	if env.State.LoginMethod() == state.LoginCredentials {
		fmt.Fprintln(env.Out, createNeedsOAuth)
		return nil
	}
	if name == "" {
		return env.Fail(errors.New("Organization name is required"), vars)
	}
	msgs.Start(vars)

	client, err := env.IAMClient(ctx)
	if err != nil {
		return env.Fail(err, vars)
	}
	id, err := client.CreateOrganization(ctx, name)
	if err != nil {
		return env.Fail(err, vars)
	}
	vars["id"] = id

	err = env.State.Update(func(cfg *state.Config) error {
		cfg.Organizations = append(cfg.Organizations, state.Organization{ID: id, Name: name})
		return nil
	})
	if err != nil {
		env.Logger.Warn("failed to cache organization", logging.Fields{"id": id, "error": err.Error()})
	}
	msgs.Success(vars)
	msgs.Hint(vars)
	return nil
}
