package login

import (
	"context"
	"fmt"
	"strings"

	"github.com/tigrisdata/cli/internal/args"
	"github.com/tigrisdata/cli/internal/commands/cmdutil"
	"github.com/tigrisdata/cli/internal/display"
	"github.com/tigrisdata/cli/internal/handler"
	"github.com/tigrisdata/cli/internal/state"
)

// identity is what whoami reports, in every output format.
type identity struct {
	Method        string               `json:"method" xml:"method"`
	Email         string               `json:"email,omitempty" xml:"email,omitempty"`
	Name          string               `json:"name,omitempty" xml:"name,omitempty"`
	UserID        string               `json:"userId,omitempty" xml:"userId,omitempty"`
	AccessKeyID   string               `json:"accessKeyId,omitempty" xml:"accessKeyId,omitempty"`
	Endpoint      string               `json:"endpoint,omitempty" xml:"endpoint,omitempty"`
	Organizations []state.Organization `json:"organizations,omitempty" xml:"organizations>organization,omitempty"`
	Selected      string               `json:"selectedOrganization,omitempty" xml:"selectedOrganization,omitempty"`
}

// Whoami prints the user and organizations of the session, or the access
// key in use for a credentials session.
func Whoami(ctx context.Context, env *handler.Env, opts args.Options) error {
	st := env.State.Load()
	var id identity

	switch {
	case st.LoginMethod == state.LoginCredentials && st.TemporaryCredentials.Valid():
		id = identity{
			Method:      string(state.LoginCredentials),
			AccessKeyID: st.TemporaryCredentials.AccessKeyID,
			Endpoint:    st.TemporaryCredentials.Endpoint,
		}
	case env.Auth.IsAuthenticated():
		claims, err := env.Auth.Claims()
		if err != nil {
			return env.Fail(err, nil)
		}
		orgs, err := env.Auth.Organizations(ctx)
		if err != nil {
			return env.Fail(err, nil)
		}
		id = identity{
			Method:        string(state.LoginOAuth),
			Email:         claims.Email,
			Name:          claims.Name,
			UserID:        claims.Subject,
			Organizations: orgs,
			Selected:      env.State.SelectedOrganization(),
		}
	case st.Credentials.Valid():
		id = identity{
			Method:      "saved credentials",
			AccessKeyID: st.Credentials.AccessKeyID,
			Endpoint:    st.Credentials.Endpoint,
		}
	default:
		fmt.Fprintln(env.Out, `Not logged in. Run "tigris login" to authenticate.`)
		return nil
	}

	switch cmdutil.Format(opts) {
	case display.FormatJSON:
		return display.WriteJSON(env.Out, id)
	case display.FormatXML:
		return display.WriteXML(env.Out, "whoami", id)
	}
	_, err := fmt.Fprint(env.Out, id.text())
	return err
}

func (id identity) text() string {
	var b strings.Builder
	b.WriteString("\n")
	if id.AccessKeyID != "" {
		fmt.Fprintf(&b, "Logged in with %s\n", id.Method)
		fmt.Fprintf(&b, "   Access Key: %s\n", id.AccessKeyID)
		if id.Endpoint != "" {
			fmt.Fprintf(&b, "   Endpoint: %s\n", id.Endpoint)
		}
		b.WriteString("\n")
		return b.String()
	}

	email := id.Email
	if email == "" {
		email = "N/A"
	}
	b.WriteString("User Information:\n")
	fmt.Fprintf(&b, "   Email: %s\n", email)
	fmt.Fprintf(&b, "   User ID: %s\n", id.UserID)

	b.WriteString("\n")
	if len(id.Organizations) == 0 {
		b.WriteString("Organizations: None\n\n")
		return b.String()
	}
	fmt.Fprintf(&b, "Organizations (%d):\n", len(id.Organizations))
	var active string
	for _, o := range id.Organizations {
		marker := " "
		if o.ID == id.Selected {
			marker = ">"
			active = o.Label()
		}
		fmt.Fprintf(&b, "   %s %s (%s)\n", marker, o.Label(), o.ID)
	}
	if active != "" {
		fmt.Fprintf(&b, "\nActive: %s\n", active)
	}
	b.WriteString("\n")
	return b.String()
}
