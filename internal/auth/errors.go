package auth

import "errors"

var (
	ErrNotAuthenticated         = errors.New(`Not authenticated. Please run "tigris login" to authenticate.`)
	ErrReauthenticationRequired = errors.New(`Token refresh failed. Please run "tigris login" to re-authenticate.`)
	ErrNoOrganization           = errors.New(`No organization selected. Please run "tigris orgs select" first.`)
	ErrTimeout                  = errors.New("Authentication timed out. Please try again.")
	ErrAuthFailed               = errors.New("Authentication failed")
)
