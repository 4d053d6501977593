package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"

	"github.com/tigrisdata/cli/internal/constants"
	"github.com/tigrisdata/cli/internal/state"
)

// Claims are the id token fields the CLI reads. The signature is not
// checked; the token came straight from the identity provider over TLS.
type Claims struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`

	Raw map[string]any `json:"-"`
}

// ParseIDToken decodes the payload segment of a JWT.
func ParseIDToken(token string) (*Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) < 2 {
		return nil, errors.New("Failed to decode ID token")
	}
	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return nil, errors.New("Failed to decode ID token")
	}

	var c Claims
	if err := json.Unmarshal(payload, &c); err != nil {
		return nil, errors.New("Failed to decode ID token")
	}
	if err := json.Unmarshal(payload, &c.Raw); err != nil {
		return nil, errors.New("Failed to decode ID token")
	}
	return &c, nil
}

// OrganizationsFromIDToken lists the organizations under the custom claim
// namespace. Entries are either plain ids or {id, name} objects. Any decoding
// problem yields nil.
func OrganizationsFromIDToken(token string) []state.Organization {
	if token == "" {
		return nil
	}
	c, err := ParseIDToken(token)
	if err != nil {
		return nil
	}
	ns, ok := c.Raw[constants.ClaimsNamespace].(map[string]any)
	if !ok {
		return nil
	}
	entries, ok := ns["ns"].([]any)
	if !ok {
		return nil
	}

	var orgs []state.Organization
	for _, e := range entries {
		switch v := e.(type) {
		case string:
			orgs = append(orgs, state.Organization{ID: v, Name: v, DisplayName: v})
		case map[string]any:
			id, _ := v["id"].(string)
			name, _ := v["name"].(string)
			if id == "" {
				continue
			}
			if name == "" {
				name = id
			}
			orgs = append(orgs, state.Organization{ID: id, Name: name, DisplayName: name})
		}
	}
	return orgs
}
