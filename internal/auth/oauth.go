// Package auth implements the OAuth device flow against the identity
// provider, access token refresh, and the resolution of storage credentials
// from profiles, login sessions, the environment and saved keys.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/tigrisdata/cli/internal/config"
	"github.com/tigrisdata/cli/internal/constants"
	"github.com/tigrisdata/cli/internal/logging"
	"github.com/tigrisdata/cli/internal/state"
)

const deviceCodeGrant = "urn:ietf:params:oauth:grant-type:device_code"

// tokenResponse is the token endpoint body, success or error.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	IDToken      string `json:"id_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
	Error        string `json:"error,omitempty"`
	ErrorDesc    string `json:"error_description,omitempty"`
}

// LoginCallbacks let the caller show progress during Login. Any may be nil.
type LoginCallbacks struct {
	OnDeviceCode func(userCode, verificationURI string)
	OpenURL      func(url string) error
	OnWaiting    func()
}

// OAuth runs the device flow and keeps the session tokens fresh.
type OAuth struct {
	conf       *oauth2.Config
	audience   string
	tokenURL   string
	httpClient *http.Client
	repo       *state.Repository
	logger     *logging.Logger

	maxAttempts int
	now         func() time.Time
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewOAuth creates a client for the identity provider in cfg. Sessions are
// stored in repo.
func NewOAuth(cfg config.Auth0Config, repo *state.Repository, logger *logging.Logger) *OAuth {
	if logger == nil {
		logger = logging.Discard()
	}
	base := cfg.BaseURL()
	return &OAuth{
		conf: &oauth2.Config{
			ClientID: cfg.ClientID,
			Scopes:   constants.OAuthScopes,
			Endpoint: oauth2.Endpoint{
				DeviceAuthURL: base + "/oauth/device/code",
				TokenURL:      base + "/oauth/token",
				AuthStyle:     oauth2.AuthStyleInParams,
			},
		},
		audience: cfg.Audience,
		tokenURL: base + "/oauth/token",
		httpClient: &http.Client{
			Timeout:   constants.DefaultOAuthTimeout,
			Transport: logging.NewTransport(http.DefaultTransport, logger),
		},
		repo:        repo,
		logger:      logger,
		maxAttempts: constants.DeviceMaxAttempts,
		now:         time.Now,
		sleep:       sleepContext,
	}
}

func (o *OAuth) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, o.httpClient)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RequestDeviceCode starts a device authorization.
func (o *OAuth) RequestDeviceCode(ctx context.Context) (*oauth2.DeviceAuthResponse, error) {
	da, err := o.conf.DeviceAuth(o.clientContext(ctx), oauth2.SetAuthURLParam("audience", o.audience))
	if err != nil {
		return nil, fmt.Errorf("failed to get device code: %w", err)
	}
	return da, nil
}

// Login runs the whole device flow and stores the resulting session: tokens,
// login method and the organizations listed in the id token.
func (o *OAuth) Login(ctx context.Context, cb LoginCallbacks) (*state.Tokens, error) {
	da, err := o.RequestDeviceCode(ctx)
	if err != nil {
		return nil, err
	}

	if cb.OnDeviceCode != nil {
		cb.OnDeviceCode(da.UserCode, da.VerificationURI)
	}

	if err := o.sleep(ctx, constants.BrowserOpenDelay); err != nil {
		return nil, err
	}
	if cb.OpenURL != nil {
		target := da.VerificationURIComplete
		if target == "" {
			target = da.VerificationURI
		}
		if err := cb.OpenURL(target); err != nil {
			o.logger.Debug("browser did not open", logging.Fields{"error": err.Error()})
		}
	}
	if cb.OnWaiting != nil {
		cb.OnWaiting()
	}

	tokens, err := o.PollToken(ctx, da)
	if err != nil {
		return nil, err
	}

	if err := o.repo.Update(func(cfg *state.Config) error {
		cfg.Tokens = tokens
		cfg.LoginMethod = state.LoginOAuth
		if orgs := OrganizationsFromIDToken(tokens.IDToken); len(orgs) > 0 {
			cfg.Organizations = orgs
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return tokens, nil
}

// PollToken polls the token endpoint until the user approves the device, the
// server rejects it, or the attempts run out.
func (o *OAuth) PollToken(ctx context.Context, da *oauth2.DeviceAuthResponse) (*state.Tokens, error) {
	interval := time.Duration(da.Interval) * time.Second
	if interval <= 0 {
		interval = constants.DevicePollInterval
	}

	form := url.Values{
		"client_id":   {o.conf.ClientID},
		"device_code": {da.DeviceCode},
		"grant_type":  {deviceCodeGrant},
	}

	for attempt := 1; attempt <= o.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := o.postForm(ctx, form)
		if err != nil {
			// Transport errors are retried until the attempts run out
			o.logger.Debug("token poll failed", logging.Fields{"attempt": attempt, "error": err.Error()})
			if err := o.sleep(ctx, interval); err != nil {
				return nil, err
			}
			continue
		}

		if resp.AccessToken != "" {
			return o.tokensFrom(resp), nil
		}

		switch resp.Error {
		case "authorization_pending":
		case "slow_down":
			interval += constants.DeviceSlowDownStep
		default:
			if resp.ErrorDesc != "" {
				return nil, fmt.Errorf("%s", resp.ErrorDesc)
			}
			return nil, ErrAuthFailed
		}

		if err := o.sleep(ctx, interval); err != nil {
			return nil, err
		}
	}
	return nil, ErrTimeout
}

func (o *OAuth) postForm(ctx context.Context, form url.Values) (*tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		if resp.StatusCode != http.StatusOK {
			return &tokenResponse{Error: "http_error", ErrorDesc: fmt.Sprintf("status %d", resp.StatusCode)}, nil
		}
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && tr.Error == "" {
		tr.Error = "http_error"
	}
	return &tr, nil
}

func (o *OAuth) tokensFrom(tr *tokenResponse) *state.Tokens {
	lifetime := time.Duration(tr.ExpiresIn) * time.Second
	if lifetime <= 0 {
		lifetime = constants.DefaultTokenLifetime
	}
	return &state.Tokens{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		IDToken:      tr.IDToken,
		ExpiresAt:    o.now().Add(lifetime).UnixMilli(),
	}
}

// IsAuthenticated reports whether a token set is stored.
func (o *OAuth) IsAuthenticated() bool {
	return o.repo.Tokens() != nil
}

// AccessToken returns a usable access token, refreshing it first when it
// expires within the refresh buffer.
func (o *OAuth) AccessToken(ctx context.Context) (string, error) {
	tokens := o.repo.Tokens()
	if tokens == nil {
		return "", ErrNotAuthenticated
	}
	if o.now().Add(constants.TokenRefreshBuffer).Before(tokens.Expiry()) {
		return tokens.AccessToken, nil
	}

	fresh, err := o.Refresh(ctx, tokens)
	if err != nil {
		return "", err
	}
	return fresh.AccessToken, nil
}

// Refresh exchanges the refresh token for a new token set and stores it. On
// any failure the stored tokens are cleared.
func (o *OAuth) Refresh(ctx context.Context, tokens *state.Tokens) (*state.Tokens, error) {
	fresh, err := o.refresh(ctx, tokens)
	if err != nil {
		o.logger.Warn("token refresh failed", logging.Fields{"error": err.Error()})
		if cerr := o.repo.ClearTokens(); cerr != nil {
			o.logger.Error("failed to clear tokens", cerr)
		}
		return nil, ErrReauthenticationRequired
	}
	if err := o.repo.SaveTokens(fresh); err != nil {
		return nil, fmt.Errorf("failed to save tokens: %w", err)
	}
	return fresh, nil
}

func (o *OAuth) refresh(ctx context.Context, tokens *state.Tokens) (*state.Tokens, error) {
	if tokens == nil || tokens.RefreshToken == "" {
		return nil, fmt.Errorf("no refresh token")
	}

	src := o.conf.TokenSource(o.clientContext(ctx), &oauth2.Token{RefreshToken: tokens.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, err
	}

	fresh := &state.Tokens{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry.UnixMilli(),
	}
	if tok.Expiry.IsZero() {
		fresh.ExpiresAt = o.now().Add(constants.DefaultTokenLifetime).UnixMilli()
	}
	if id, ok := tok.Extra("id_token").(string); ok {
		fresh.IDToken = id
	}
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = tokens.RefreshToken
	}
	if fresh.IDToken == "" {
		fresh.IDToken = tokens.IDToken
	}
	return fresh, nil
}

// Organizations returns the stored organizations after making sure the
// session is still valid.
func (o *OAuth) Organizations(ctx context.Context) ([]state.Organization, error) {
	if _, err := o.AccessToken(ctx); err != nil {
		return nil, err
	}
	return o.repo.Organizations(), nil
}

// Claims decodes the stored id token.
func (o *OAuth) Claims() (*Claims, error) {
	tokens := o.repo.Tokens()
	if tokens == nil || tokens.IDToken == "" {
		return nil, ErrNotAuthenticated
	}
	return ParseIDToken(tokens.IDToken)
}

// Logout forgets the token set.
func (o *OAuth) Logout() error {
	return o.repo.ClearTokens()
}
