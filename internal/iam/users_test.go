package iam

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tigrisdata/cli/internal/auth"
	"github.com/tigrisdata/cli/internal/state"
	"github.com/tigrisdata/cli/internal/storage"
)

type mgmtCall struct {
	method string
	path   string
	header http.Header
	body   map[string]any
}

func newMgmtClient(t *testing.T, status int, reply string) (*Client, *[]mgmtCall) {
	t.Helper()
	var calls []mgmtCall
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		call := mgmtCall{method: r.Method, path: r.URL.Path, header: r.Header.Clone()}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &call.body); err != nil {
				t.Errorf("body %q: %v", raw, err)
			}
		}
		calls = append(calls, call)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)

	c, err := New(&auth.StorageConfig{
		Method:         state.LoginOAuth,
		SessionToken:   "tok-123",
		OrganizationID: "org-1",
		MgmtEndpoint:   srv.URL + "/",
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	return c, &calls
}

func TestListUsers(t *testing.T) {
	c, calls := newMgmtClient(t, http.StatusOK, `{
		"users": [{"userId":"u1","email":"ann@example.com","userName":"Ann","role":"admin","isOrgOwner":true}],
		"invitations": [{"id":"i1","email":"bob@example.com","role":"member","status":"pending","validUntil":"2025-06-01T00:00:00Z"}]
	}`)

	m, err := c.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers() error: %v", err)
	}
	if len(m.Users) != 1 || !m.Users[0].IsOwner || m.Users[0].Name != "Ann" {
		t.Errorf("users = %+v", m.Users)
	}
	if len(m.Invitations) != 1 || m.Invitations[0].ValidUntil.Month() != 6 {
		t.Errorf("invitations = %+v", m.Invitations)
	}

	call := (*calls)[0]
	if call.method != http.MethodGet || call.path != "/v1/organizations/org-1/users" {
		t.Errorf("call = %s %s", call.method, call.path)
	}
	if call.header.Get("Authorization") != "Bearer tok-123" || call.header.Get(storage.NamespaceHeader) != "org-1" {
		t.Errorf("headers = %v", call.header)
	}
}

func TestMemberMutations(t *testing.T) {
	tests := []struct {
		name   string
		call   func(*Client) error
		method string
		path   string
		field  string
		count  int
	}{
		{
			name:   "invite",
			call:   func(c *Client) error { return c.InviteUsers(context.Background(), []string{"a@x.io", "b@x.io"}, RoleMember) },
			method: http.MethodPost,
			path:   "/v1/organizations/org-1/invitations",
			field:  "invitations",
			count:  2,
		},
		{
			name: "update roles",
			call: func(c *Client) error {
				return c.UpdateUserRoles(context.Background(), []UserRole{{UserID: "u1", Role: RoleAdmin}})
			},
			method: http.MethodPut,
			path:   "/v1/organizations/org-1/users/roles",
			field:  "users",
			count:  1,
		},
		{
			name:   "revoke invitations",
			call:   func(c *Client) error { return c.RevokeInvitations(context.Background(), []string{"i1", "i2", "i3"}) },
			method: http.MethodPost,
			path:   "/v1/organizations/org-1/invitations/revoke",
			field:  "ids",
			count:  3,
		},
		{
			name:   "remove",
			call:   func(c *Client) error { return c.RemoveUsers(context.Background(), []string{"u2"}) },
			method: http.MethodPost,
			path:   "/v1/organizations/org-1/users/remove",
			field:  "userIds",
			count:  1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, calls := newMgmtClient(t, http.StatusNoContent, "")
			if err := tt.call(c); err != nil {
				t.Fatalf("error: %v", err)
			}
			call := (*calls)[0]
			if call.method != tt.method || call.path != tt.path {
				t.Errorf("call = %s %s", call.method, call.path)
			}
			items, _ := call.body[tt.field].([]any)
			if len(items) != tt.count {
				t.Errorf("body[%s] = %v", tt.field, call.body[tt.field])
			}
		})
	}
}

func TestCreateOrganization(t *testing.T) {
	c, calls := newMgmtClient(t, http.StatusCreated, `{"id":"org-new"}`)
	id, err := c.CreateOrganization(context.Background(), "acme")
	if err != nil {
		t.Fatalf("CreateOrganization() error: %v", err)
	}
	if id != "org-new" || (*calls)[0].path != "/v1/organizations" || (*calls)[0].body["name"] != "acme" {
		t.Errorf("id = %q calls = %+v", id, *calls)
	}
}

func TestMgmtError(t *testing.T) {
	c, _ := newMgmtClient(t, http.StatusConflict, `{"error":{"code":"AlreadyExists","message":"organization name taken"}}`)
	_, err := c.CreateOrganization(context.Background(), "acme")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != "AlreadyExists" || err.Error() != "organization name taken" {
		t.Errorf("err = %v", err)
	}
}

func TestIsFlyOrganization(t *testing.T) {
	if !IsFlyOrganization("flyio_abc") || IsFlyOrganization("org-1") {
		t.Error("IsFlyOrganization() mismatch")
	}
}
