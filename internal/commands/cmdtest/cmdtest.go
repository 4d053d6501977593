// Package cmdtest builds handler environments backed by in-memory fakes for
// the command package tests.
package cmdtest

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/tigrisdata/cli/internal/args"
	"github.com/tigrisdata/cli/internal/auth"
	"github.com/tigrisdata/cli/internal/config"
	"github.com/tigrisdata/cli/internal/handler"
	"github.com/tigrisdata/cli/internal/iam"
	"github.com/tigrisdata/cli/internal/logging"
	"github.com/tigrisdata/cli/internal/prompt"
	"github.com/tigrisdata/cli/internal/spec"
	"github.com/tigrisdata/cli/internal/state"
	"github.com/tigrisdata/cli/internal/storage"
)

// Harness is one command invocation environment.
type Harness struct {
	Env     *handler.Env
	Out     *bytes.Buffer
	Err     *bytes.Buffer
	In      *bytes.Buffer
	Storage *storage.Memory
	State   *state.Repository
	Prompt  *prompt.Scripted
	IAM     *FakeIAM
	Creds   *StaticResolver
	Auth    *FakeAuth

	node *spec.Command
}

// New returns a harness bound to the command at path in the embedded tree.
func New(t *testing.T, path ...string) *Harness {
	t.Helper()
	color.NoColor = true

	node := spec.FindNode(spec.MustLoad().Commands, path)
	if node == nil {
		t.Fatalf("no command %q", strings.Join(path, " "))
	}

	h := &Harness{
		Out:     &bytes.Buffer{},
		Err:     &bytes.Buffer{},
		In:      &bytes.Buffer{},
		Storage: storage.NewMemory(),
		State:   state.NewRepository(&state.MemoryStore{}, nil),
		Prompt:  &prompt.Scripted{},
		IAM:     NewFakeIAM(),
		Creds: &StaticResolver{Config: &auth.StorageConfig{
			Method:         state.LoginOAuth,
			SessionToken:   "token",
			OrganizationID: "org-1",
			Endpoint:       "https://t3.storage.dev",
			Source:         auth.SourceOAuth,
		}},
		node: node,
	}
	h.Auth = &FakeAuth{Repo: h.State}
	env := &handler.Env{
		Out:             h.Out,
		Err:             h.Err,
		In:              h.In,
		Config:          config.NewConfig(),
		Logger:          logging.Discard(),
		State:           h.State,
		Auth:            h.Auth,
		Credentials:     h.Creds,
		Prompt:          h.Prompt,
		StdinIsTerminal: func() bool { return false },
		NewStorage: func(*auth.StorageConfig) (storage.Client, error) {
			return h.Storage, nil
		},
		NewIAM: func(*auth.StorageConfig) (handler.IAM, error) {
			return h.IAM, nil
		},
	}
	h.Env = env.WithCommand(node, path)
	return h
}

// Options builds the options a command would receive from the command
// line: positional tokens, the given flags and the declared defaults.
func (h *Harness) Options(positional []string, flags args.Options) args.Options {
	raw := args.Options{}
	for _, a := range h.node.Arguments {
		if a.Kind == spec.Positional || a.Default == "" {
			continue
		}
		if a.Kind == spec.Boolean {
			raw[a.Name] = a.Default == "true"
			continue
		}
		raw[a.Name] = a.Default
	}
	for k, v := range flags {
		raw[k] = v
	}
	return args.ExtractValues(h.node.Arguments, positional, raw)
}

// Run invokes fn the way the dispatcher would.
func (h *Harness) Run(fn handler.Func, positional []string, flags args.Options) error {
	return fn(context.Background(), h.Env, h.Options(positional, flags))
}

// MustBucket creates bucket with the given objects.
func (h *Harness) MustBucket(t *testing.T, bucket string, keys ...string) {
	t.Helper()
	ctx := context.Background()
	if err := h.Storage.MakeBucket(ctx, bucket, storage.BucketOptions{}); err != nil {
		t.Fatalf("MakeBucket(%s) error = %v", bucket, err)
	}
	for _, k := range keys {
		if _, err := h.Storage.PutObject(ctx, bucket, k, strings.NewReader("data:"+k), -1, storage.PutOptions{}); err != nil {
			t.Fatalf("PutObject(%s) error = %v", k, err)
		}
	}
}

// FakeAuth completes the device flow instantly with Tokens and Orgs.
type FakeAuth struct {
	Repo   *state.Repository
	Tokens *state.Tokens
	Orgs   []state.Organization
	Claim  *auth.Claims

	// LoginErr fails Login after the device code is shown.
	LoginErr error
}

const (
	UserCode        = "ABCD-EFGH"
	VerificationURI = "https://auth.example/activate"
)

func (f *FakeAuth) Login(ctx context.Context, cb auth.LoginCallbacks) (*state.Tokens, error) {
	if cb.OnDeviceCode != nil {
		cb.OnDeviceCode(UserCode, VerificationURI)
	}
	if cb.OpenURL != nil {
		_ = cb.OpenURL(VerificationURI + "?user_code=" + UserCode)
	}
	if cb.OnWaiting != nil {
		cb.OnWaiting()
	}
	if f.LoginErr != nil {
		return nil, f.LoginErr
	}
	tokens := f.Tokens
	if tokens == nil {
		tokens = &state.Tokens{AccessToken: "access", RefreshToken: "refresh", ExpiresAt: time.Now().Add(time.Hour).UnixMilli()}
	}
	err := f.Repo.Update(func(cfg *state.Config) error {
		cfg.Tokens = tokens
		cfg.LoginMethod = state.LoginOAuth
		cfg.Organizations = f.Orgs
		return nil
	})
	return tokens, err
}

func (f *FakeAuth) IsAuthenticated() bool {
	return f.Repo.Tokens() != nil
}

func (f *FakeAuth) Organizations(context.Context) ([]state.Organization, error) {
	if f.Repo.Tokens() == nil {
		return nil, auth.ErrNotAuthenticated
	}
	return f.Repo.Organizations(), nil
}

func (f *FakeAuth) Claims() (*auth.Claims, error) {
	if f.Repo.Tokens() == nil || f.Claim == nil {
		return nil, auth.ErrNotAuthenticated
	}
	return f.Claim, nil
}

func (f *FakeAuth) Logout() error {
	return f.Repo.ClearTokens()
}

// LoggedIn stores an OAuth session with orgs, the first one selected.
func (h *Harness) LoggedIn(t *testing.T, orgs ...state.Organization) {
	t.Helper()
	err := h.State.Update(func(cfg *state.Config) error {
		cfg.Tokens = &state.Tokens{AccessToken: "access", RefreshToken: "refresh", ExpiresAt: time.Now().Add(time.Hour).UnixMilli()}
		cfg.LoginMethod = state.LoginOAuth
		cfg.Organizations = orgs
		if len(orgs) > 0 {
			cfg.SelectedOrganization = orgs[0].ID
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
}

// StaticResolver hands out a fixed StorageConfig or error.
type StaticResolver struct {
	Config *auth.StorageConfig
	Err    error
}

func (r *StaticResolver) StorageConfig(context.Context) (*auth.StorageConfig, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	return r.Config, nil
}

// FakeIAM keeps policies, access keys and organization members in memory.
type FakeIAM struct {
	mu          sync.Mutex
	Policies    []iam.Policy
	Keys        []iam.AccessKey
	Users       []iam.User
	Invitations []iam.Invitation
	OrgsCreated []string
	seq         int

	// Err, when set, fails every member and organization call.
	Err error
}

var _ handler.IAM = (*FakeIAM)(nil)

func NewFakeIAM() *FakeIAM {
	return &FakeIAM{}
}

func (f *FakeIAM) next(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s%d", prefix, f.seq)
}

func (f *FakeIAM) find(ref string) int {
	for i, p := range f.Policies {
		if p.Name == ref || p.ID == ref || p.Resource == ref {
			return i
		}
	}
	return -1
}

func (f *FakeIAM) ListPolicies(context.Context) ([]iam.Policy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]iam.Policy(nil), f.Policies...), nil
}

func (f *FakeIAM) GetPolicy(_ context.Context, ref string) (*iam.Policy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.find(ref)
	if i < 0 {
		return nil, fmt.Errorf("Policy '%s' not found", ref)
	}
	p := f.Policies[i]
	return &p, nil
}

func (f *FakeIAM) CreatePolicy(_ context.Context, name, document, description string) (*iam.Policy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !iam.ValidPolicyName(name) {
		return nil, iam.ErrInvalidPolicyName
	}
	id := f.next("ANPA")
	p := iam.Policy{
		ID:          id,
		Name:        name,
		Resource:    "arn:aws:iam::org-1:policy/" + name,
		Description: description,
		Created:     time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Document:    document,
	}
	f.Policies = append(f.Policies, p)
	return &p, nil
}

func (f *FakeIAM) DeletePolicy(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.find(ref)
	if i < 0 {
		return fmt.Errorf("Policy '%s' not found", ref)
	}
	f.Policies = append(f.Policies[:i], f.Policies[i+1:]...)
	return nil
}

func (f *FakeIAM) ListAccessKeys(context.Context) ([]iam.AccessKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]iam.AccessKey, len(f.Keys))
	for i, k := range f.Keys {
		k.Secret = ""
		keys[i] = k
	}
	return keys, nil
}

func (f *FakeIAM) CreateAccessKey(_ context.Context, name string) (*iam.AccessKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := iam.AccessKey{
		ID:      f.next("tid_"),
		Name:    name,
		Status:  "Active",
		Created: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Secret:  "tsec_" + name,
	}
	f.Keys = append(f.Keys, k)
	return &k, nil
}

func (f *FakeIAM) DeleteAccessKey(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, k := range f.Keys {
		if k.ID == id {
			f.Keys = append(f.Keys[:i], f.Keys[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("access key %s not found", id)
}

func (f *FakeIAM) EditPolicy(_ context.Context, ref, document, description string) (*iam.Policy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.find(ref)
	if i < 0 {
		return nil, fmt.Errorf("Policy '%s' not found", ref)
	}
	if document != "" {
		f.Policies[i].Document = document
	}
	if description != "" {
		f.Policies[i].Description = description
	}
	p := f.Policies[i]
	return &p, nil
}

func (f *FakeIAM) key(id string) int {
	for i, k := range f.Keys {
		if k.ID == id {
			return i
		}
	}
	return -1
}

func (f *FakeIAM) GetAccessKey(_ context.Context, id string) (*iam.AccessKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.key(id)
	if i < 0 {
		return nil, fmt.Errorf("Access key '%s' not found", id)
	}
	k := f.Keys[i]
	k.Secret = ""
	return &k, nil
}

func (f *FakeIAM) AssignBucketRoles(_ context.Context, id string, roles []iam.BucketRole) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.key(id)
	if i < 0 {
		return fmt.Errorf("Access key '%s' not found", id)
	}
	f.Keys[i].Roles = append([]iam.BucketRole(nil), roles...)
	return nil
}

func (f *FakeIAM) RevokeBucketRoles(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.key(id)
	if i < 0 {
		return fmt.Errorf("Access key '%s' not found", id)
	}
	f.Keys[i].Roles = nil
	return nil
}

func (f *FakeIAM) CreateOrganization(_ context.Context, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return "", f.Err
	}
	f.OrgsCreated = append(f.OrgsCreated, name)
	return f.next("org-"), nil
}

func (f *FakeIAM) ListUsers(context.Context) (*iam.Members, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	return &iam.Members{
		Users:       append([]iam.User(nil), f.Users...),
		Invitations: append([]iam.Invitation(nil), f.Invitations...),
	}, nil
}

func (f *FakeIAM) InviteUsers(_ context.Context, emails []string, role string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	for _, e := range emails {
		f.Invitations = append(f.Invitations, iam.Invitation{
			ID:         f.next("inv-"),
			Email:      e,
			Role:       role,
			Status:     "pending",
			ValidUntil: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		})
	}
	return nil
}

func (f *FakeIAM) UpdateUserRoles(_ context.Context, roles []iam.UserRole) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	for _, r := range roles {
		found := false
		for i := range f.Users {
			if f.Users[i].ID == r.UserID {
				f.Users[i].Role = r.Role
				found = true
			}
		}
		if !found {
			return fmt.Errorf("user %s not found", r.UserID)
		}
	}
	return nil
}

func (f *FakeIAM) RevokeInvitations(_ context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	drop := map[string]bool{}
	for _, id := range ids {
		drop[id] = true
	}
	kept := f.Invitations[:0]
	for _, inv := range f.Invitations {
		if !drop[inv.ID] {
			kept = append(kept, inv)
		}
	}
	f.Invitations = kept
	return nil
}

func (f *FakeIAM) RemoveUsers(_ context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	drop := map[string]bool{}
	for _, id := range ids {
		drop[id] = true
	}
	kept := f.Users[:0]
	for _, u := range f.Users {
		if !drop[u.ID] {
			kept = append(kept, u)
		}
	}
	f.Users = kept
	return nil
}
