package handler

import (
	"context"
	"io"

	"github.com/tigrisdata/cli/internal/auth"
	"github.com/tigrisdata/cli/internal/config"
	"github.com/tigrisdata/cli/internal/iam"
	"github.com/tigrisdata/cli/internal/logging"
	"github.com/tigrisdata/cli/internal/messages"
	"github.com/tigrisdata/cli/internal/prompt"
	"github.com/tigrisdata/cli/internal/spec"
	"github.com/tigrisdata/cli/internal/state"
	"github.com/tigrisdata/cli/internal/storage"
)

// Authenticator is the OAuth session used by the login commands.
type Authenticator interface {
	Login(ctx context.Context, cb auth.LoginCallbacks) (*state.Tokens, error)
	IsAuthenticated() bool
	Organizations(ctx context.Context) ([]state.Organization, error)
	Claims() (*auth.Claims, error)
	Logout() error
}

// CredentialResolver picks the effective storage configuration.
type CredentialResolver interface {
	StorageConfig(ctx context.Context) (*auth.StorageConfig, error)
}

// IAM is the subset of the IAM API the commands use.
type IAM interface {
	ListPolicies(ctx context.Context) ([]iam.Policy, error)
	GetPolicy(ctx context.Context, ref string) (*iam.Policy, error)
	CreatePolicy(ctx context.Context, name, document, description string) (*iam.Policy, error)
	DeletePolicy(ctx context.Context, ref string) error
	ListAccessKeys(ctx context.Context) ([]iam.AccessKey, error)
	CreateAccessKey(ctx context.Context, name string) (*iam.AccessKey, error)
	DeleteAccessKey(ctx context.Context, id string) error

	EditPolicy(ctx context.Context, ref, document, description string) (*iam.Policy, error)
	GetAccessKey(ctx context.Context, id string) (*iam.AccessKey, error)
	AssignBucketRoles(ctx context.Context, id string, roles []iam.BucketRole) error
	RevokeBucketRoles(ctx context.Context, id string) error

	CreateOrganization(ctx context.Context, name string) (string, error)
	ListUsers(ctx context.Context) (*iam.Members, error)
	InviteUsers(ctx context.Context, emails []string, role string) error
	UpdateUserRoles(ctx context.Context, roles []iam.UserRole) error
	RevokeInvitations(ctx context.Context, ids []string) error
	RemoveUsers(ctx context.Context, ids []string) error
}

// Env carries everything a command needs from the process.
type Env struct {
	Out io.Writer
	Err io.Writer
	In  io.Reader

	Config      *config.Config
	Logger      *logging.Logger
	State       *state.Repository
	Auth        Authenticator
	Credentials CredentialResolver
	Prompt      prompt.Prompter

	// NewStorage and NewIAM build clients from the resolved credentials.
	NewStorage func(sc *auth.StorageConfig) (storage.Client, error)
	NewIAM     func(sc *auth.StorageConfig) (IAM, error)

	// StdinIsTerminal reports whether In is interactive.
	StdinIsTerminal func() bool

	// Reference writes the Markdown command reference.
	Reference func(w io.Writer)

	// Command is the node being run, set per invocation.
	Command *spec.Command
	Path    []string
}

// WithCommand returns a copy of e bound to the command at path.
func (e *Env) WithCommand(cmd *spec.Command, path []string) *Env {
	c := *e
	c.Command = cmd
	c.Path = append([]string(nil), path...)
	return &c
}

// Messages returns a printer for the current command's templates.
func (e *Env) Messages() *messages.Printer {
	var set *spec.Messages
	if e.Command != nil {
		set = e.Command.Messages
	}
	return messages.NewPrinter(e.Out, e.Err, set)
}

// Storage resolves credentials and returns an object storage client.
func (e *Env) Storage(ctx context.Context) (storage.Client, error) {
	sc, err := e.Credentials.StorageConfig(ctx)
	if err != nil {
		return nil, err
	}
	return e.NewStorage(sc)
}

// IAMClient resolves credentials and returns an IAM client.
func (e *Env) IAMClient(ctx context.Context) (IAM, error) {
	sc, err := e.Credentials.StorageConfig(ctx)
	if err != nil {
		return nil, err
	}
	return e.NewIAM(sc)
}

// Interactive reports whether prompts can be shown.
func (e *Env) Interactive() bool {
	return e.StdinIsTerminal != nil && e.StdinIsTerminal()
}
