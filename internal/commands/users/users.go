// Package users manages the members and invitations of the selected
// organization.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tigrisdata/cli/internal/args"
	"github.com/tigrisdata/cli/internal/commands/cmdutil"
	"github.com/tigrisdata/cli/internal/display"
	"github.com/tigrisdata/cli/internal/handler"
	"github.com/tigrisdata/cli/internal/iam"
	"github.com/tigrisdata/cli/internal/messages"
	"github.com/tigrisdata/cli/internal/prompt"
)

func init() {
	handler.Provide("iam/users/list", handler.Module{Default: List})
	handler.Provide("iam/users/invite", handler.Module{Default: Invite})
	handler.Provide("iam/users/update-role", handler.Module{Default: UpdateRole})
	handler.Provide("iam/users/revoke-invitation", handler.Module{Default: RevokeInvitation})
	handler.Provide("iam/users/remove", handler.Module{Default: Remove})
}

var (
	userColumns = []display.Column{
		{Key: "id", Header: "ID"},
		{Key: "email", Header: "Email"},
		{Key: "name", Header: "Name"},
		{Key: "role", Header: "Role"},
	}
	invitationColumns = []display.Column{
		{Key: "id", Header: "ID"},
		{Key: "email", Header: "Email"},
		{Key: "role", Header: "Role"},
		{Key: "status", Header: "Status"},
		{Key: "validUntil", Header: "Valid Until"},
	}
)

// flyManaged prints why members cannot be managed here when the selected
// organization belongs to Fly.io.
func flyManaged(env *handler.Env) bool {
	if !iam.IsFlyOrganization(env.State.SelectedOrganization()) {
		return false
	}
	fmt.Fprintln(env.Out, iam.ErrFlyOrganization.Error())
	return true
}

func userRecord(u iam.User) display.Record {
	role := u.Role
	if u.IsOwner {
		role = "owner"
	}
	name := u.Name
	if name == "" {
		name = "-"
	}
	return display.Record{"id": u.ID, "email": u.Email, "name": name, "role": role}
}

func invitationRecord(inv iam.Invitation) display.Record {
	return display.Record{
		"id":         inv.ID,
		"email":      inv.Email,
		"role":       inv.Role,
		"status":     inv.Status,
		"validUntil": display.FormatTime(inv.ValidUntil),
	}
}

type xmlUser struct {
	ID    string `xml:"id"`
	Email string `xml:"email"`
	Name  string `xml:"name"`
	Role  string `xml:"role"`
}

type xmlInvitation struct {
	ID         string `xml:"id"`
	Email      string `xml:"email"`
	Role       string `xml:"role"`
	Status     string `xml:"status"`
	ValidUntil string `xml:"validUntil"`
}

type xmlMembers struct {
	Users       []xmlUser       `xml:"users>user"`
	Invitations []xmlInvitation `xml:"invitations>invitation"`
}

func List(ctx context.Context, env *handler.Env, opts args.Options) error {
	msgs := env.Messages()
	msgs.Start(nil)
	if flyManaged(env) {
		return nil
	}

	client, err := env.IAMClient(ctx)
	if err != nil {
		return env.Fail(err, nil)
	}
	sp := display.NewSpinner("Fetching users...")
	sp.Start()
	m, err := client.ListUsers(ctx)
	sp.Stop()
	if err != nil {
		return env.Fail(err, nil)
	}
	total := len(m.Users) + len(m.Invitations)
	if total == 0 {
		msgs.Empty(nil)
		return nil
	}

	if err := writeMembers(env, cmdutil.Format(opts), m); err != nil {
		return env.Fail(err, nil)
	}
	msgs.Success(messages.Vars{"count": total})
	return nil
}

func writeMembers(env *handler.Env, format string, m *iam.Members) error {
	users := make([]display.Record, len(m.Users))
	for i, u := range m.Users {
		users[i] = userRecord(u)
	}
	invitations := make([]display.Record, len(m.Invitations))
	for i, inv := range m.Invitations {
		invitations[i] = invitationRecord(inv)
	}

	switch format {
	case display.FormatJSON:
		return display.WriteJSON(env.Out, m)
	case display.FormatXML:
		var doc xmlMembers
		for _, r := range users {
			doc.Users = append(doc.Users, xmlUser{ID: r["id"], Email: r["email"], Name: r["name"], Role: r["role"]})
		}
		for _, r := range invitations {
			doc.Invitations = append(doc.Invitations, xmlInvitation{
				ID: r["id"], Email: r["email"], Role: r["role"], Status: r["status"], ValidUntil: r["validUntil"],
			})
		}
		return display.WriteXML(env.Out, "organization", doc)
	}

	if len(users) > 0 {
		fmt.Fprintf(env.Out, "\nMembers\n%s\n", display.Table(userColumns, users))
	}
	if len(invitations) > 0 {
		fmt.Fprintf(env.Out, "\nPending Invitations\n%s\n", display.Table(invitationColumns, invitations))
	}
	return nil
}

// Invite sends one invitation per address, all with the same role.
func Invite(ctx context.Context, env *handler.Env, opts args.Options) error {
	msgs := env.Messages()
	emails := nonEmpty(opts.Strings("email", ""))
	role := opts.StringOr("role", "r", iam.RoleMember)
	vars := messages.Vars{"email": strings.Join(emails, ", ")}
	msgs.Start(vars)
	if flyManaged(env) {
		return nil
	}

	if len(emails) == 0 {
		return env.Fail(errors.New("At least one email address is required"), vars)
	}
	if !iam.ValidUserRole(role) {
		return env.Fail(invalidRole(role), vars)
	}

	client, err := env.IAMClient(ctx)
	if err != nil {
		return env.Fail(err, vars)
	}
	if err := client.InviteUsers(ctx, emails, role); err != nil {
		return env.Fail(err, vars)
	}
	msgs.Success(vars)
	return nil
}

// UpdateRole gives users a new role. One role applies to every user;
// otherwise roles pair with users in order.
func UpdateRole(ctx context.Context, env *handler.Env, opts args.Options) error {
	msgs := env.Messages()
	msgs.Start(nil)
	if flyManaged(env) {
		return nil
	}

	roles := nonEmpty(opts.Strings("role", "r"))
	if len(roles) == 0 {
		return env.Fail(errors.New("Role is required. Use --role admin or --role member"), nil)
	}
	for _, r := range roles {
		if !iam.ValidUserRole(r) {
			return env.Fail(invalidRole(r), nil)
		}
	}

	client, err := env.IAMClient(ctx)
	if err != nil {
		return env.Fail(err, nil)
	}
	ids, ok, err := pickUsers(ctx, env, client, opts, "Select user(s) to update (space to select, enter to confirm):")
	if err != nil || !ok {
		return err
	}
	if len(roles) != 1 && len(roles) != len(ids) {
		err := fmt.Errorf("Number of roles (%d) must match number of users (%d), or provide a single role for all users", len(roles), len(ids))
		return env.Fail(err, nil)
	}

	updates := make([]iam.UserRole, len(ids))
	for i, id := range ids {
		role := roles[0]
		if len(roles) > 1 {
			role = roles[i]
		}
		updates[i] = iam.UserRole{UserID: id, Role: role}
	}
	if err := client.UpdateUserRoles(ctx, updates); err != nil {
		return env.Fail(err, nil)
	}
	msgs.Success(messages.Vars{"count": len(updates)})
	return nil
}

func RevokeInvitation(ctx context.Context, env *handler.Env, opts args.Options) error {
	msgs := env.Messages()
	msgs.Start(nil)
	if flyManaged(env) {
		return nil
	}

	client, err := env.IAMClient(ctx)
	if err != nil {
		return env.Fail(err, nil)
	}
	ids := nonEmpty(opts.Strings("invitation", ""))
	if len(ids) == 0 {
		m, err := client.ListUsers(ctx)
		if err != nil {
			return env.Fail(err, nil)
		}
		if len(m.Invitations) == 0 {
			msgs.Empty(nil)
			return nil
		}
		choices := make([]prompt.Choice, len(m.Invitations))
		for i, inv := range m.Invitations {
			choices[i] = prompt.Choice{Label: fmt.Sprintf("%s (%s - %s)", inv.Email, inv.Role, inv.Status), Value: inv.ID}
		}
		if ids, err = choose(env, "Select invitation(s) to revoke (space to select, enter to confirm):", choices, "Invitation ID is required"); err != nil {
			return err
		}
	}

	if err := client.RevokeInvitations(ctx, ids); err != nil {
		return env.Fail(err, nil)
	}
	msgs.Success(messages.Vars{"count": len(ids)})
	return nil
}

func Remove(ctx context.Context, env *handler.Env, opts args.Options) error {
	msgs := env.Messages()
	msgs.Start(nil)
	if flyManaged(env) {
		return nil
	}

	client, err := env.IAMClient(ctx)
	if err != nil {
		return env.Fail(err, nil)
	}
	ids, ok, err := pickUsers(ctx, env, client, opts, "Select user(s) to remove (space to select, enter to confirm):")
	if err != nil || !ok {
		return err
	}

	confirmed, err := cmdutil.Confirm(env, opts.Bool("force", "f"), fmt.Sprintf("Are you sure you want to remove %d user(s)?", len(ids)))
	if err != nil {
		return err
	}
	if !confirmed {
		fmt.Fprintln(env.Out, "Aborted")
		return nil
	}

	if err := client.RemoveUsers(ctx, ids); err != nil {
		return env.Fail(err, nil)
	}
	msgs.Success(messages.Vars{"count": len(ids)})
	return nil
}

// pickUsers returns the user ids given as arguments, or lets the user pick
// members. ok is false when the organization has none and that was
// reported.
func pickUsers(ctx context.Context, env *handler.Env, client handler.IAM, opts args.Options, label string) ([]string, bool, error) {
	if ids := nonEmpty(opts.Strings("user", "")); len(ids) > 0 {
		return ids, true, nil
	}
	m, err := client.ListUsers(ctx)
	if err != nil {
		return nil, false, env.Fail(err, nil)
	}
	if len(m.Users) == 0 {
		env.Messages().Empty(nil)
		return nil, false, nil
	}
	choices := make([]prompt.Choice, len(m.Users))
	for i, u := range m.Users {
		choices[i] = prompt.Choice{Label: fmt.Sprintf("%s (%s)", u.Email, userRecord(u)["role"]), Value: u.ID}
	}
	ids, err := choose(env, label, choices, "User ID is required")
	if err != nil {
		return nil, false, err
	}
	return ids, true, nil
}

// choose runs a multi-select, failing with required when no terminal is
// attached.
func choose(env *handler.Env, label string, choices []prompt.Choice, required string) ([]string, error) {
	if env.Prompt == nil || !env.Interactive() {
		return nil, env.Fail(errors.New(required), nil)
	}
	return env.Prompt.MultiSelect(label, choices)
}

func invalidRole(role string) error {
	return fmt.Errorf("Invalid role %q. Must be one of: %s, %s", role, iam.RoleAdmin, iam.RoleMember)
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
