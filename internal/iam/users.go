package iam

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

// ErrFlyOrganization is returned for organizations whose members are
// managed by Fly.io.
var ErrFlyOrganization = errors.New("User management is not available for Fly.io organizations.\nYour users are managed through Fly.io.\n\nVisit https://fly.io to manage your organization members.")

// IsFlyOrganization reports whether the organization was provisioned
// through Fly.io.
func IsFlyOrganization(id string) bool {
	return strings.HasPrefix(id, "flyio_")
}

// Roles a member can be given.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// ValidUserRole reports whether role can be assigned to a member.
func ValidUserRole(role string) bool {
	return role == RoleAdmin || role == RoleMember
}

// User is a member of the organization.
type User struct {
	ID      string `json:"userId"`
	Email   string `json:"email"`
	Name    string `json:"userName"`
	Role    string `json:"role"`
	IsOwner bool   `json:"isOrgOwner"`
}

// Invitation is a pending invite to the organization.
type Invitation struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	Status     string    `json:"status"`
	ValidUntil time.Time `json:"validUntil"`
}

// Members lists the users and open invitations of an organization.
type Members struct {
	Users       []User       `json:"users"`
	Invitations []Invitation `json:"invitations"`
}

// UserRole assigns Role to the user with ID.
type UserRole struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

func (c *Client) ListUsers(ctx context.Context) (*Members, error) {
	var m Members
	if err := c.doJSON(ctx, http.MethodGet, c.orgPath("/users"), nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// InviteUsers sends an invitation with role to each address.
func (c *Client) InviteUsers(ctx context.Context, emails []string, role string) error {
	type invite struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	body := struct {
		Invitations []invite `json:"invitations"`
	}{}
	for _, e := range emails {
		body.Invitations = append(body.Invitations, invite{Email: e, Role: role})
	}
	return c.doJSON(ctx, http.MethodPost, c.orgPath("/invitations"), body, nil)
}

func (c *Client) UpdateUserRoles(ctx context.Context, roles []UserRole) error {
	body := struct {
		Users []UserRole `json:"users"`
	}{roles}
	return c.doJSON(ctx, http.MethodPut, c.orgPath("/users/roles"), body, nil)
}

func (c *Client) RevokeInvitations(ctx context.Context, ids []string) error {
	body := struct {
		IDs []string `json:"ids"`
	}{ids}
	return c.doJSON(ctx, http.MethodPost, c.orgPath("/invitations/revoke"), body, nil)
}

func (c *Client) RemoveUsers(ctx context.Context, ids []string) error {
	body := struct {
		UserIDs []string `json:"userIds"`
	}{ids}
	return c.doJSON(ctx, http.MethodPost, c.orgPath("/users/remove"), body, nil)
}

// CreateOrganization creates an organization owned by the logged-in user
// and returns its id.
func (c *Client) CreateOrganization(ctx context.Context, name string) (string, error) {
	body := struct {
		Name string `json:"name"`
	}{name}
	var out struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/organizations", body, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}
