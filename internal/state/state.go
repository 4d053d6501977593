// Package state persists the login session between invocations: OAuth
// tokens, organizations, saved and temporary credentials and the login
// method in effect.
//
// The file is read whole, changed in memory and written back on every
// update. There is no locking across processes, so two invocations updating
// the file at the same time may lose one of the writes.
package state

import (
	"time"
)

// LoginMethod is the authentication mode of the current session.
type LoginMethod string

const (
	LoginOAuth       LoginMethod = "oauth"
	LoginCredentials LoginMethod = "credentials"
)

// Tokens is the OAuth token set. ExpiresAt is in Unix milliseconds.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	IDToken      string `json:"idToken,omitempty"`
	ExpiresAt    int64  `json:"expiresAt"`
}

// Expiry returns ExpiresAt as a time.
func (t *Tokens) Expiry() time.Time {
	return time.UnixMilli(t.ExpiresAt)
}

// Organization is a tenant the user belongs to.
type Organization struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
}

// Label returns the most readable name of the organization.
func (o Organization) Label() string {
	switch {
	case o.DisplayName != "":
		return o.DisplayName
	case o.Name != "":
		return o.Name
	default:
		return o.ID
	}
}

// Credentials is an access key pair and the endpoint it is valid for.
type Credentials struct {
	AccessKeyID     string `json:"accessKeyId"`
	SecretAccessKey string `json:"secretAccessKey"`
	Endpoint        string `json:"endpoint,omitempty"`
}

// Valid reports whether both halves of the pair are present.
func (c *Credentials) Valid() bool {
	return c != nil && c.AccessKeyID != "" && c.SecretAccessKey != ""
}

// Config is the content of the state file.
type Config struct {
	Tokens               *Tokens        `json:"tokens,omitempty"`
	Organizations        []Organization `json:"organizations,omitempty"`
	SelectedOrganization string         `json:"selectedOrganization,omitempty"`
	Credentials          *Credentials   `json:"credentials,omitempty"`
	TemporaryCredentials *Credentials   `json:"temporaryCredentials,omitempty"`
	LoginMethod          LoginMethod    `json:"loginMethod,omitempty"`
}

// FindOrganization matches an organization by id, name or display name.
func (c *Config) FindOrganization(ref string) (Organization, bool) {
	if ref == "" {
		return Organization{}, false
	}
	for _, o := range c.Organizations {
		if o.ID == ref || o.Name == ref || o.DisplayName == ref {
			return o, true
		}
	}
	return Organization{}, false
}
