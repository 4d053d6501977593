// Package commands collects the command handlers into the table compiled
// into release binaries.
package commands

import (
	"github.com/tigrisdata/cli/internal/commands/accesskeys"
	"github.com/tigrisdata/cli/internal/commands/buckets"
	"github.com/tigrisdata/cli/internal/commands/docs"
	"github.com/tigrisdata/cli/internal/commands/files"
	"github.com/tigrisdata/cli/internal/commands/forks"
	"github.com/tigrisdata/cli/internal/commands/login"
	"github.com/tigrisdata/cli/internal/commands/objects"
	"github.com/tigrisdata/cli/internal/commands/orgs"
	"github.com/tigrisdata/cli/internal/commands/policies"
	"github.com/tigrisdata/cli/internal/commands/snapshots"
	"github.com/tigrisdata/cli/internal/commands/users"
	"github.com/tigrisdata/cli/internal/handler"
)

func only(fn handler.Func) handler.Module {
	return handler.Module{Default: fn}
}

// Table maps each implemented command path, joined with "/", to its
// handler.
var Table = map[string]handler.Module{
	"ls":    only(files.List),
	"mk":    only(files.Make),
	"touch": only(files.Touch),
	"stat":  only(files.Stat),
	"cp":    only(files.Copy),
	"mv":    only(files.Move),
	"rm":    only(files.Remove),

	"login/select":      only(login.Select),
	"login/oauth":       {Named: map[string]handler.Func{"oauth": login.OAuth}},
	"login/credentials": {Named: map[string]handler.Func{"credentials": login.Credentials}},
	"logout":            only(login.Logout),
	"whoami":            only(login.Whoami),
	"configure":         only(login.Configure),
	"credentials/test":  only(login.Test),

	"orgs/list":   only(orgs.List),
	"orgs/select": only(orgs.Select),
	"orgs/create": only(orgs.Create),

	"buckets/list":   only(buckets.List),
	"buckets/create": only(buckets.Create),
	"buckets/get":    only(buckets.Get),
	"buckets/delete": only(buckets.Delete),
	"buckets/set":    only(buckets.Set),

	"snapshots/list": only(snapshots.List),
	"snapshots/take": only(snapshots.Take),

	"forks/list":   only(forks.List),
	"forks/create": only(forks.Create),

	"objects/list":   only(objects.List),
	"objects/get":    only(objects.Get),
	"objects/put":    only(objects.Put),
	"objects/delete": only(objects.Delete),
	"objects/set":    only(objects.Set),

	"iam/policies/list":   only(policies.List),
	"iam/policies/get":    only(policies.Get),
	"iam/policies/create": only(policies.Create),
	"iam/policies/delete": only(policies.Delete),
	"iam/policies/edit":   only(policies.Edit),

	"iam/users/list":              only(users.List),
	"iam/users/invite":            only(users.Invite),
	"iam/users/update-role":       only(users.UpdateRole),
	"iam/users/revoke-invitation": only(users.RevokeInvitation),
	"iam/users/remove":            only(users.Remove),

	"access-keys/list":   only(accesskeys.List),
	"access-keys/create": only(accesskeys.Create),
	"access-keys/delete": only(accesskeys.Delete),
	"access-keys/get":    only(accesskeys.Get),
	"access-keys/assign": only(accesskeys.Assign),

	"docs": only(docs.Docs),
}
