package orgs

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/tigrisdata/cli/internal/args"
	"github.com/tigrisdata/cli/internal/commands/cmdtest"
	"github.com/tigrisdata/cli/internal/handler"
	"github.com/tigrisdata/cli/internal/state"
)

var orgs = []state.Organization{
	{ID: "org-1", Name: "acme", DisplayName: "Acme Corp"},
	{ID: "org-2", Name: "side"},
}

func TestList(t *testing.T) {
	h := cmdtest.New(t, "orgs", "list")
	h.LoggedIn(t, orgs...)

	if err := h.Run(List, nil, args.Options{"format": "json"}); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	var rows []map[string]string
	if err := json.Unmarshal(h.Out.Bytes(), &rows); err != nil {
		t.Fatalf("bad JSON: %v\n%s", err, h.Out.String())
	}
	if len(rows) != 2 || rows[0]["selected"] != "*" || rows[1]["selected"] != " " || rows[1]["name"] != "side" {
		t.Errorf("rows = %v", rows)
	}
}

func TestListHintsWhenNothingSelected(t *testing.T) {
	h := cmdtest.New(t, "orgs", "list")
	h.LoggedIn(t, orgs...)
	if err := h.State.SelectOrganization(""); err != nil {
		t.Fatal(err)
	}
	if err := h.Run(List, nil, nil); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if !strings.HasSuffix(h.Out.String(), "→ Run \"tigris orgs select\" to choose one\n") {
		t.Errorf("output = %q", h.Out.String())
	}
}

func TestListCredentialsLogin(t *testing.T) {
	h := cmdtest.New(t, "orgs", "list")
	if err := h.State.SetLoginMethod(state.LoginCredentials); err != nil {
		t.Fatal(err)
	}
	if err := h.Run(List, nil, nil); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if !strings.HasPrefix(h.Out.String(), "You are logged in using an access key") {
		t.Errorf("output = %q", h.Out.String())
	}
}

func TestListNotLoggedIn(t *testing.T) {
	h := cmdtest.New(t, "orgs", "list")
	err := h.Run(List, nil, nil)
	var exit *handler.ExitError
	if !errors.As(err, &exit) {
		t.Fatalf("error = %v, want ExitError", err)
	}
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name       string
		positional []string
		answers    []string
		want       string
		wantOut    string
	}{
		{"by id", []string{"org-2"}, nil, "org-2", "✔ Organization 'side' selected\n"},
		{"by name", []string{"acme"}, nil, "org-1", "✔ Organization 'Acme Corp' selected\n"},
		{"by display name", []string{"Acme Corp"}, nil, "org-1", "✔ Organization 'Acme Corp' selected\n"},
		{"prompt", nil, []string{"2"}, "org-2", "✔ Organization 'side' selected\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := cmdtest.New(t, "orgs", "select")
			h.LoggedIn(t, orgs...)
			h.Prompt.Answers = tt.answers

			if err := h.Run(Select, tt.positional, nil); err != nil {
				t.Fatalf("Select() error = %v", err)
			}
			if got := h.State.SelectedOrganization(); got != tt.want {
				t.Errorf("selected = %q, want %q", got, tt.want)
			}
			if got := h.Out.String(); got != tt.wantOut {
				t.Errorf("output = %q, want %q", got, tt.wantOut)
			}
		})
	}
}

func TestSelectNotFound(t *testing.T) {
	h := cmdtest.New(t, "orgs", "select")
	h.LoggedIn(t, orgs...)

	err := h.Run(Select, []string{"nope"}, nil)
	var exit *handler.ExitError
	if !errors.As(err, &exit) {
		t.Fatalf("error = %v, want ExitError", err)
	}
	stderr := h.Err.String()
	for _, want := range []string{"Organization 'nope' not found", "Acme Corp (org-1)", "side (org-2)"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr missing %q:\n%s", want, stderr)
		}
	}
	if got := h.State.SelectedOrganization(); got != "org-1" {
		t.Errorf("selection changed to %q", got)
	}
}

func TestCreate(t *testing.T) {
	h := cmdtest.New(t, "orgs", "create")
	h.LoggedIn(t, orgs[1])

	if err := h.Run(Create, []string{"newco"}, nil); err != nil {
		t.Fatalf("Create() error = %v\n%s", err, h.Err.String())
	}
	want := "Creating organization...\n" +
		"✔ Organization 'newco' created (ID: org-1)\n" +
		"→ Run \"tigris orgs select org-1\" to use it\n"
	if got := h.Out.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
	if len(h.IAM.OrgsCreated) != 1 || h.IAM.OrgsCreated[0] != "newco" {
		t.Errorf("created = %v", h.IAM.OrgsCreated)
	}
	cached := h.State.Organizations()
	if len(cached) != 2 || cached[1].Name != "newco" || h.State.SelectedOrganization() != "org-2" {
		t.Errorf("cached = %v selected = %q", cached, h.State.SelectedOrganization())
	}
}

func TestCreateCredentialsLogin(t *testing.T) {
	h := cmdtest.New(t, "orgs", "create")
	if err := h.State.SetLoginMethod(state.LoginCredentials); err != nil {
		t.Fatal(err)
	}
	if err := h.Run(Create, []string{"newco"}, nil); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !strings.Contains(h.Out.String(), "Organization creation is only available with OAuth login.") {
		t.Errorf("output = %q", h.Out.String())
	}
	if len(h.IAM.OrgsCreated) != 0 {
		t.Errorf("created = %v", h.IAM.OrgsCreated)
	}
}

func wantExit(t *testing.T, err error) {
	t.Helper()
	var exit *handler.ExitError
	if !errors.As(err, &exit) || exit.Code != 1 {
		t.Fatalf("error = %v, want exit code 1", err)
	}
}

func TestCreateErrors(t *testing.T) {
	h := cmdtest.New(t, "orgs", "create")
	wantExit(t, h.Run(Create, []string{"  "}, nil))
	if !strings.Contains(h.Err.String(), "Organization name is required") {
		t.Errorf("stderr = %q", h.Err.String())
	}

	h = cmdtest.New(t, "orgs", "create")
	h.IAM.Err = errors.New("organization name taken")
	wantExit(t, h.Run(Create, []string{"acme"}, nil))
	want := "✖ Failed to create organization 'acme'\n  organization name taken\n"
	if got := h.Err.String(); got != want {
		t.Errorf("stderr = %q, want %q", got, want)
	}
}
