// Package constants provides shared constants used across the application
// to avoid circular dependencies between packages.
package constants

import "time"

// AppName is the binary name shown in help and usage lines.
const AppName = "tigris"

// Timeout constants used across the application
const (
	// DefaultOAuthTimeout is the timeout for identity provider HTTP requests
	DefaultOAuthTimeout = 30 * time.Second
	// DefaultIAMTimeout is the timeout for IAM API requests
	DefaultIAMTimeout = 60 * time.Second
	// TokenRefreshBuffer is how long before expiry an access token is refreshed
	TokenRefreshBuffer = 5 * time.Minute
	// DevicePollInterval is used when the device code response has no interval
	DevicePollInterval = 5 * time.Second
	// DeviceSlowDownStep is added to the poll interval on slow_down
	DeviceSlowDownStep = 5 * time.Second
	// DeviceMaxAttempts bounds the device flow polling loop
	DeviceMaxAttempts = 60
	// BrowserOpenDelay gives the user a moment to read the code before the browser opens
	BrowserOpenDelay = 2 * time.Second
	// DefaultTokenLifetime is used when the token response carries no expires_in
	DefaultTokenLifetime = time.Hour
)

// Service endpoints
const (
	DefaultStorageEndpoint    = "https://t3.storage.dev"
	DefaultIAMEndpoint        = "https://iam.storageapi.dev"
	DefaultManagementEndpoint = "https://mgmt.storageapi.dev"
)

// Update check
const (
	// ReleaseURL answers with the latest published release as {"version": "..."}
	ReleaseURL = "https://registry.npmjs.org/@tigrisdata/cli/latest"
	// UpdateCheckInterval is how often the release endpoint is asked
	UpdateCheckInterval = 24 * time.Hour
	// UpdateNotifyInterval is how often an available update is announced
	UpdateNotifyInterval = 6 * time.Hour
	// UpdateCheckTimeout bounds the release request
	UpdateCheckTimeout = 5 * time.Second
	// UpdateCheckGrace is how long a finished command waits for a pending check
	UpdateCheckGrace = 300 * time.Millisecond
)

// Identity provider defaults per environment.
const (
	DevAuth0Domain   = "auth-dev.tigris.dev"
	DevAuth0ClientID = "JdJVYIyw0O1uHi5L5OJH903qaWBgd3gF"
	DevAuth0Audience = "https://tigris-api-dev"

	ProdAuth0Domain   = "auth.tigris.dev"
	ProdAuth0ClientID = "JdJVYIyw0O1uHi5L5OJH903qaWBgd3gF"
	ProdAuth0Audience = "https://tigris-api"

	// ClaimsNamespace is the custom claim prefix in id tokens
	ClaimsNamespace = "https://tigris"
)

// OAuthScopes are requested during device authorization.
var OAuthScopes = []string{"openid", "profile", "email", "offline_access"}

// File locations relative to the user's home directory.
const (
	StateDirName  = ".tigris"
	StateFileName = "config.json"

	UpdateCheckFileName = "update-check.json"
)
