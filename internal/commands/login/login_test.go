package login

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/tigrisdata/cli/internal/args"
	"github.com/tigrisdata/cli/internal/auth"
	"github.com/tigrisdata/cli/internal/commands/cmdtest"
	"github.com/tigrisdata/cli/internal/handler"
	"github.com/tigrisdata/cli/internal/state"
)

func stubBrowser(t *testing.T) *[]string {
	t.Helper()
	var opened []string
	prev := openBrowser
	openBrowser = func(url string) error {
		opened = append(opened, url)
		return nil
	}
	t.Cleanup(func() { openBrowser = prev })
	return &opened
}

func wantExit(t *testing.T, err error) {
	t.Helper()
	var exit *handler.ExitError
	if !errors.As(err, &exit) || exit.Code != 1 {
		t.Fatalf("error = %v, want exit code 1", err)
	}
}

var orgs = []state.Organization{
	{ID: "org-1", Name: "acme", DisplayName: "Acme Corp"},
	{ID: "org-2", Name: "side"},
}

func TestOAuth(t *testing.T) {
	opened := stubBrowser(t)
	h := cmdtest.New(t, "login", "oauth")
	h.Auth.Orgs = orgs

	if err := h.Run(OAuth, nil, nil); err != nil {
		t.Fatalf("OAuth() error = %v", err)
	}
	out := h.Out.String()
	for _, want := range []string{
		"Logging in with your browser...",
		"Your confirmation code: " + cmdtest.UserCode,
		"If browser doesn't open, visit: " + cmdtest.VerificationURI,
		"Waiting for authentication...",
		"✔ Logged in. Organization: Acme Corp",
		`→ You belong to 2 organizations. Run "tigris orgs select" to switch`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if len(*opened) != 1 {
		t.Errorf("browser opened %d times", len(*opened))
	}
	if got := h.State.SelectedOrganization(); got != "org-1" {
		t.Errorf("selected = %q", got)
	}
	if got := h.State.LoginMethod(); got != state.LoginOAuth {
		t.Errorf("method = %q", got)
	}
}

func TestOAuthAlreadyLoggedIn(t *testing.T) {
	stubBrowser(t)
	h := cmdtest.New(t, "login", "oauth")
	h.LoggedIn(t, orgs...)

	if err := h.Run(OAuth, nil, nil); err != nil {
		t.Fatalf("OAuth() error = %v", err)
	}
	if !strings.Contains(h.Out.String(), "Already logged in") {
		t.Errorf("output = %q", h.Out.String())
	}
}

func TestOAuthFailure(t *testing.T) {
	stubBrowser(t)
	h := cmdtest.New(t, "login", "oauth")
	h.Auth.LoginErr = auth.ErrTimeout

	wantExit(t, h.Run(OAuth, nil, nil))
	if !strings.Contains(h.Err.String(), "✖ Login failed") || !strings.Contains(h.Err.String(), auth.ErrTimeout.Error()) {
		t.Errorf("stderr = %q", h.Err.String())
	}
	if h.State.Tokens() != nil {
		t.Error("tokens stored after a failed login")
	}
}

func TestCredentials(t *testing.T) {
	h := cmdtest.New(t, "login", "credentials")
	h.Prompt.Answers = []string{"tid_abc", "secret"}

	if err := h.Run(Credentials, nil, nil); err != nil {
		t.Fatalf("Credentials() error = %v", err)
	}
	if want := []string{"Access Key ID:", "Secret Access Key:"}; !reflect.DeepEqual(h.Prompt.Asked, want) {
		t.Errorf("asked %v, want %v", h.Prompt.Asked, want)
	}
	st := h.State.Load()
	if st.LoginMethod != state.LoginCredentials || st.TemporaryCredentials.AccessKeyID != "tid_abc" {
		t.Errorf("state = %+v", st)
	}
	if st.Credentials != nil {
		t.Error("credentials login must not touch saved credentials")
	}
	if !strings.Contains(h.Out.String(), "✔ Logged in with access key tid_abc") {
		t.Errorf("output = %q", h.Out.String())
	}
}

func TestCredentialsMissingSecret(t *testing.T) {
	h := cmdtest.New(t, "login", "credentials")
	h.Env.Prompt = nil

	wantExit(t, h.Run(Credentials, nil, args.Options{"access-key": "tid_abc"}))
	if !strings.Contains(h.Err.String(), "Access key and secret are required for credentials mode") {
		t.Errorf("stderr = %q", h.Err.String())
	}
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name    string
		answers []string
		flags   args.Options
		want    state.LoginMethod
	}{
		{"prompt user", []string{"user"}, nil, state.LoginOAuth},
		{"prompt machine", []string{"2", "tid_x", "sec"}, nil, state.LoginCredentials},
		{"key flag skips prompt", nil, args.Options{"access-key": "tid_x", "access-secret": "sec"}, state.LoginCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubBrowser(t)
			h := cmdtest.New(t, "login", "select")
			h.Prompt.Answers = tt.answers

			if err := h.Run(Select, nil, tt.flags); err != nil {
				t.Fatalf("Select() error = %v", err)
			}
			if got := h.State.LoginMethod(); got != tt.want {
				t.Errorf("method = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLogout(t *testing.T) {
	h := cmdtest.New(t, "logout")
	h.LoggedIn(t, orgs...)
	if err := h.State.SaveCredentials(&state.Credentials{AccessKeyID: "k", SecretAccessKey: "s"}); err != nil {
		t.Fatal(err)
	}

	if err := h.Run(Logout, nil, nil); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if err := h.Run(Logout, nil, nil); err != nil {
		t.Fatalf("Logout() again error = %v", err)
	}
	if got, want := h.Out.String(), "✔ Logged out\nNot logged in\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
	st := h.State.Load()
	if st.Tokens != nil || len(st.Organizations) != 0 {
		t.Errorf("session left behind: %+v", st)
	}
	if !st.Credentials.Valid() {
		t.Error("saved credentials were removed")
	}
}

func TestWhoami(t *testing.T) {
	t.Run("oauth", func(t *testing.T) {
		h := cmdtest.New(t, "whoami")
		h.LoggedIn(t, orgs...)
		h.Auth.Claim = &auth.Claims{Subject: "auth0|1", Email: "dev@example.com"}

		if err := h.Run(Whoami, nil, nil); err != nil {
			t.Fatalf("Whoami() error = %v", err)
		}
		out := h.Out.String()
		for _, want := range []string{"Email: dev@example.com", "User ID: auth0|1", "Organizations (2):", "> Acme Corp (org-1)", "Active: Acme Corp"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})
	t.Run("credentials json", func(t *testing.T) {
		h := cmdtest.New(t, "whoami")
		err := h.State.Update(func(cfg *state.Config) error {
			cfg.LoginMethod = state.LoginCredentials
			cfg.TemporaryCredentials = &state.Credentials{AccessKeyID: "tid_abc", SecretAccessKey: "s"}
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
		if err := h.Run(Whoami, nil, args.Options{"format": "json"}); err != nil {
			t.Fatalf("Whoami() error = %v", err)
		}
		var got map[string]any
		if err := json.Unmarshal(h.Out.Bytes(), &got); err != nil {
			t.Fatalf("bad JSON: %v\n%s", err, h.Out.String())
		}
		if got["method"] != "credentials" || got["accessKeyId"] != "tid_abc" {
			t.Errorf("identity = %v", got)
		}
		if strings.Contains(h.Out.String(), "secret") {
			t.Error("secret leaked into output")
		}
	})
	t.Run("xml", func(t *testing.T) {
		h := cmdtest.New(t, "whoami")
		if err := h.State.SaveCredentials(&state.Credentials{AccessKeyID: "tid_saved", SecretAccessKey: "s"}); err != nil {
			t.Fatal(err)
		}
		if err := h.Run(Whoami, nil, args.Options{"format": "xml"}); err != nil {
			t.Fatalf("Whoami() error = %v", err)
		}
		if out := h.Out.String(); !strings.HasPrefix(out, "<whoami>") || !strings.Contains(out, "<accessKeyId>tid_saved</accessKeyId>") {
			t.Errorf("output = %q", out)
		}
	})
	t.Run("anonymous", func(t *testing.T) {
		h := cmdtest.New(t, "whoami")
		if err := h.Run(Whoami, nil, nil); err != nil {
			t.Fatalf("Whoami() error = %v", err)
		}
		if !strings.HasPrefix(h.Out.String(), "Not logged in.") {
			t.Errorf("output = %q", h.Out.String())
		}
	})
}

func TestConfigure(t *testing.T) {
	h := cmdtest.New(t, "configure")
	h.Prompt.Answers = []string{"tid_cfg", "sec", ""}
	h.LoggedIn(t, orgs...)

	if err := h.Run(Configure, nil, nil); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	want := []string{"Tigris Access Key ID:", "Tigris Secret Access Key:", "Tigris Endpoint:"}
	if !reflect.DeepEqual(h.Prompt.Asked, want) {
		t.Errorf("asked %v, want %v", h.Prompt.Asked, want)
	}
	st := h.State.Load()
	if c := st.Credentials; !c.Valid() || c.Endpoint != "https://t3.storage.dev" {
		t.Errorf("credentials = %+v", c)
	}
	if st.LoginMethod != state.LoginCredentials {
		t.Errorf("method = %q", st.LoginMethod)
	}
	out := h.Out.String()
	if !strings.Contains(out, "✔ Credentials saved") || !strings.Contains(out, "→ Credentials are used") {
		t.Errorf("output = %q", out)
	}
}

func TestConfigureFlags(t *testing.T) {
	h := cmdtest.New(t, "configure")
	flags := args.Options{"access-key": "k", "access-secret": "s", "endpoint": "https://custom.example"}
	if err := h.Run(Configure, nil, flags); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	if len(h.Prompt.Asked) != 0 {
		t.Errorf("prompted %v", h.Prompt.Asked)
	}
	if got := h.State.SavedCredentials().Endpoint; got != "https://custom.example" {
		t.Errorf("endpoint = %q", got)
	}
}

func TestConfigureIncomplete(t *testing.T) {
	h := cmdtest.New(t, "configure")
	h.Env.Prompt = nil
	wantExit(t, h.Run(Configure, nil, args.Options{"access-key": "k"}))
	if !strings.Contains(h.Err.String(), "All credentials are required") {
		t.Errorf("stderr = %q", h.Err.String())
	}
}

func TestCredentialsTest(t *testing.T) {
	t.Run("list buckets", func(t *testing.T) {
		h := cmdtest.New(t, "credentials", "test")
		h.MustBucket(t, "a")
		h.MustBucket(t, "b")
		if err := h.Run(Test, nil, nil); err != nil {
			t.Fatalf("Test() error = %v", err)
		}
		want := "Testing credentials...\n✔ Credentials are valid (oauth, 2 bucket(s) visible)\n"
		if got := h.Out.String(); got != want {
			t.Errorf("output = %q, want %q", got, want)
		}
	})
	t.Run("bucket", func(t *testing.T) {
		h := cmdtest.New(t, "credentials", "test")
		h.MustBucket(t, "a")
		if err := h.Run(Test, nil, args.Options{"bucket": "a"}); err != nil {
			t.Fatalf("Test() error = %v", err)
		}
		if !strings.Contains(h.Out.String(), "  Bucket: a\n  Access verified.\n") {
			t.Errorf("output = %q", h.Out.String())
		}
	})
	t.Run("missing bucket", func(t *testing.T) {
		h := cmdtest.New(t, "credentials", "test")
		wantExit(t, h.Run(Test, nil, args.Options{"bucket": "nope"}))
		if !strings.Contains(h.Err.String(), `Current credentials don't have access to bucket "nope"`) {
			t.Errorf("stderr = %q", h.Err.String())
		}
	})
	t.Run("no credentials", func(t *testing.T) {
		h := cmdtest.New(t, "credentials", "test")
		h.Creds.Err = auth.ErrNotAuthenticated
		wantExit(t, h.Run(Test, nil, nil))
		if !strings.Contains(h.Err.String(), `No credentials found. Run "tigris configure" or "tigris login" first.`) {
			t.Errorf("stderr = %q", h.Err.String())
		}
	})
}
