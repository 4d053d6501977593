package auth

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/tigrisdata/cli/internal/config"
	"github.com/tigrisdata/cli/internal/logging"
	"github.com/tigrisdata/cli/internal/state"
)

// Source names where a StorageConfig came from.
type Source string

const (
	SourceProfile     Source = "profile"
	SourceOAuth       Source = "oauth"
	SourceSession     Source = "session"
	SourceEnvironment Source = "environment"
	SourceSaved       Source = "saved"
)

// StorageConfig is what a storage or IAM client needs to authenticate. With
// Method oauth, SessionToken and OrganizationID are set and the key pair is
// empty; with Method credentials the key pair is set.
type StorageConfig struct {
	Method          state.LoginMethod
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Endpoint        string
	OrganizationID  string
	IAMEndpoint     string
	MgmtEndpoint    string
	AuthDomain      string
	Source          Source
}

// IsOAuth reports whether requests carry a bearer token.
func (s *StorageConfig) IsOAuth() bool {
	return s.Method == state.LoginOAuth
}

// TokenProvider hands out a valid access token.
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

// ProfileLoader reads a key pair from a shared credentials profile.
type ProfileLoader func(profile string) (credentials.Value, error)

// SharedCredentialsProfile reads ~/.aws/credentials, or the file named by
// AWS_SHARED_CREDENTIALS_FILE.
func SharedCredentialsProfile(profile string) (credentials.Value, error) {
	return credentials.NewFileAWSCredentials("", profile).Get()
}

// Resolver picks the credentials used for storage requests. The sources are
// tried in order: a selected profile, the login session, the environment key
// pair, then the saved key pair.
type Resolver struct {
	cfg      *config.Config
	repo     *state.Repository
	tokens   TokenProvider
	profiles ProfileLoader
	logger   *logging.Logger
}

func NewResolver(cfg *config.Config, repo *state.Repository, tokens TokenProvider, logger *logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Resolver{
		cfg:      cfg,
		repo:     repo,
		tokens:   tokens,
		profiles: SharedCredentialsProfile,
		logger:   logger,
	}
}

// SetProfileLoader replaces the shared credentials reader.
func (r *Resolver) SetProfileLoader(l ProfileLoader) {
	r.profiles = l
}

// StorageConfig resolves the effective credentials. Session errors such as
// a failed refresh or a missing organization are returned as is; they are
// not masked by lower-priority sources.
func (r *Resolver) StorageConfig(ctx context.Context) (*StorageConfig, error) {
	if sc := r.fromProfile(); sc != nil {
		return sc, nil
	}

	st := r.repo.Load()
	switch st.LoginMethod {
	case state.LoginOAuth:
		return r.fromOAuth(ctx, st)
	case state.LoginCredentials:
		if st.TemporaryCredentials.Valid() {
			return r.fromKeys(st.TemporaryCredentials, SourceSession), nil
		}
		r.logger.Debug("credentials login without temporary credentials")
	}

	if r.cfg.HasEnvCredentials() {
		return r.fromKeys(&state.Credentials{
			AccessKeyID:     r.cfg.AccessKeyID,
			SecretAccessKey: r.cfg.SecretAccessKey,
		}, SourceEnvironment), nil
	}

	if st.Credentials.Valid() {
		return r.fromKeys(st.Credentials, SourceSaved), nil
	}
	return nil, ErrNotAuthenticated
}

func (r *Resolver) fromProfile() *StorageConfig {
	if r.cfg.Profile == "" || r.profiles == nil {
		return nil
	}
	v, err := r.profiles(r.cfg.Profile)
	if err != nil || v.AccessKeyID == "" || v.SecretAccessKey == "" {
		r.logger.Debug("profile not usable, trying next source", logging.Fields{
			"profile": r.cfg.Profile,
			"error":   fmt.Sprint(err),
		})
		return nil
	}
	return &StorageConfig{
		Method:          state.LoginCredentials,
		AccessKeyID:     v.AccessKeyID,
		SecretAccessKey: v.SecretAccessKey,
		SessionToken:    v.SessionToken,
		Endpoint:        r.cfg.StorageEndpoint,
		IAMEndpoint:     r.cfg.IAMEndpoint,
		MgmtEndpoint:    r.cfg.MgmtEndpoint,
		Source:          SourceProfile,
	}
}

func (r *Resolver) fromOAuth(ctx context.Context, st *state.Config) (*StorageConfig, error) {
	if r.tokens == nil {
		return nil, ErrNotAuthenticated
	}
	token, err := r.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	org := st.SelectedOrganization
	if org == "" {
		return nil, ErrNoOrganization
	}
	return &StorageConfig{
		Method:         state.LoginOAuth,
		SessionToken:   token,
		Endpoint:       r.cfg.StorageEndpoint,
		OrganizationID: org,
		IAMEndpoint:    r.cfg.IAMEndpoint,
		MgmtEndpoint:   r.cfg.MgmtEndpoint,
		AuthDomain:     r.cfg.Auth0.BaseURL(),
		Source:         SourceOAuth,
	}, nil
}

func (r *Resolver) fromKeys(c *state.Credentials, src Source) *StorageConfig {
	endpoint := c.Endpoint
	if endpoint == "" || src == SourceEnvironment {
		endpoint = r.cfg.StorageEndpoint
	}
	return &StorageConfig{
		Method:          state.LoginCredentials,
		AccessKeyID:     c.AccessKeyID,
		SecretAccessKey: c.SecretAccessKey,
		Endpoint:        endpoint,
		IAMEndpoint:     r.cfg.IAMEndpoint,
		MgmtEndpoint:    r.cfg.MgmtEndpoint,
		Source:          src,
	}
}
