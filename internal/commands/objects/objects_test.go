package objects

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/tigrisdata/cli/internal/args"
	"github.com/tigrisdata/cli/internal/commands/cmdtest"
	"github.com/tigrisdata/cli/internal/handler"
)

func wantExit(t *testing.T, err error) {
	t.Helper()
	var exit *handler.ExitError
	if !errors.As(err, &exit) || exit.Code != 1 {
		t.Fatalf("error = %v, want exit code 1", err)
	}
}

func TestList(t *testing.T) {
	h := cmdtest.New(t, "objects", "list")
	h.MustBucket(t, "b", "docs/a.txt", "docs/sub/b.txt", "img/c.png")

	if err := h.Run(List, []string{"b"}, args.Options{"prefix": "docs/", "format": "json"}); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	out := h.Out.String()
	body := out[:strings.LastIndex(out, "✔")]
	var rows []map[string]string
	if err := json.Unmarshal([]byte(body), &rows); err != nil {
		t.Fatalf("bad JSON: %v\n%s", err, out)
	}
	var keys []string
	for _, r := range rows {
		keys = append(keys, r["key"])
	}
	if want := []string{"docs/a.txt", "docs/sub/b.txt"}; !reflect.DeepEqual(keys, want) {
		t.Errorf("keys = %v, want %v", keys, want)
	}
	if !strings.HasSuffix(out, "✔ Found 2 object(s)\n") {
		t.Errorf("output = %q", out)
	}
}

func TestListEmpty(t *testing.T) {
	h := cmdtest.New(t, "objects", "list")
	h.MustBucket(t, "b")
	if err := h.Run(List, []string{"b"}, nil); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if got := h.Out.String(); got != "No objects found\n" {
		t.Errorf("output = %q", got)
	}
}

func TestGetToStdout(t *testing.T) {
	h := cmdtest.New(t, "objects", "get")
	h.MustBucket(t, "b", "hello.txt")

	if err := h.Run(Get, []string{"b", "hello.txt"}, nil); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got := h.Out.String(); got != "data:hello.txt" {
		t.Errorf("output = %q", got)
	}
}

func TestGetToFile(t *testing.T) {
	h := cmdtest.New(t, "objects", "get")
	h.MustBucket(t, "b", "hello.txt")
	dest := filepath.Join(t.TempDir(), "out.txt")

	if err := h.Run(Get, []string{"b", "hello.txt"}, args.Options{"output": dest}); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "data:hello.txt" {
		t.Errorf("file = %q", data)
	}
	if got := h.Out.String(); got != "✔ Downloaded 'hello.txt' to "+dest+"\n" {
		t.Errorf("output = %q", got)
	}
}

func TestGetMissing(t *testing.T) {
	h := cmdtest.New(t, "objects", "get")
	h.MustBucket(t, "b")
	wantExit(t, h.Run(Get, []string{"b", "nope"}, nil))
	if !strings.Contains(h.Err.String(), "✖ Failed to download 'nope'") {
		t.Errorf("stderr = %q", h.Err.String())
	}
}

func TestPutFile(t *testing.T) {
	h := cmdtest.New(t, "objects", "put")
	h.MustBucket(t, "b")
	src := filepath.Join(t.TempDir(), "notes.json")
	if err := os.WriteFile(src, []byte(`{"a":1}`), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := h.Run(Put, []string{"b", "docs/notes.json", src}, nil); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	obj, err := h.Storage.StatObject(t.Context(), "b", "docs/notes.json")
	if err != nil {
		t.Fatalf("StatObject() error = %v", err)
	}
	if obj.Size != 7 || obj.ContentType != "application/json" {
		t.Errorf("object = %+v", obj)
	}
	out := h.Out.String()
	for _, want := range []string{"b/docs/notes.json", "Content-Type", "✔ Uploaded 'docs/notes.json' (7 B)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPutStdin(t *testing.T) {
	h := cmdtest.New(t, "objects", "put")
	h.MustBucket(t, "b")
	h.In.WriteString("piped data")

	if err := h.Run(Put, []string{"b", "k.bin"}, args.Options{"content-type": "application/x-test"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	body, err := h.Storage.GetObject(t.Context(), "b", "k.bin")
	if err != nil {
		t.Fatalf("GetObject() error = %v", err)
	}
	defer body.Close()
	data, _ := io.ReadAll(body)
	if string(data) != "piped data" {
		t.Errorf("body = %q", data)
	}
	obj, _ := h.Storage.StatObject(t.Context(), "b", "k.bin")
	if obj.ContentType != "application/x-test" {
		t.Errorf("content type = %q", obj.ContentType)
	}
}

func TestPutErrors(t *testing.T) {
	t.Run("terminal stdin", func(t *testing.T) {
		h := cmdtest.New(t, "objects", "put")
		h.Env.StdinIsTerminal = func() bool { return true }
		wantExit(t, h.Run(Put, []string{"b", "k"}, nil))
		if !strings.Contains(h.Err.String(), "File path is required (or pipe data via stdin)") {
			t.Errorf("stderr = %q", h.Err.String())
		}
	})
	t.Run("missing file", func(t *testing.T) {
		h := cmdtest.New(t, "objects", "put")
		missing := filepath.Join(t.TempDir(), "missing.txt")
		wantExit(t, h.Run(Put, []string{"b", "k", missing}, nil))
		if !strings.Contains(h.Err.String(), "File not found: "+missing) {
			t.Errorf("stderr = %q", h.Err.String())
		}
	})
}

func TestDelete(t *testing.T) {
	h := cmdtest.New(t, "objects", "delete")
	h.MustBucket(t, "b", "a", "b", "c")

	if err := h.Run(Delete, []string{"b", "a", "c"}, nil); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if got := h.Storage.Keys("b"); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("keys = %v", got)
	}
	want := "✔ Object 'a' deleted\n✔ Object 'c' deleted\n"
	if got := h.Out.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}

	wantExit(t, h.Run(Delete, []string{"b", "zzz"}, nil))
	if !strings.Contains(h.Err.String(), "✖ Failed to delete 'zzz'") {
		t.Errorf("stderr = %q", h.Err.String())
	}
}

func TestSet(t *testing.T) {
	h := cmdtest.New(t, "objects", "set")
	h.MustBucket(t, "b", "a.txt")

	if err := h.Run(Set, []string{"b", "a.txt"}, args.Options{"access": "public"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if !h.Storage.IsPublic("b", "a.txt") {
		t.Error("object not public")
	}

	if err := h.Run(Set, []string{"b", "a.txt"}, args.Options{"access": "private", "new-key": "b.txt"}); err != nil {
		t.Fatalf("Set() rename error = %v", err)
	}
	if got := h.Storage.Keys("b"); !reflect.DeepEqual(got, []string{"b.txt"}) || h.Storage.IsPublic("b", "b.txt") {
		t.Errorf("keys = %v public = %v", got, h.Storage.IsPublic("b", "b.txt"))
	}

	want := "✔ Object 'a.txt' updated in 'b'\n✔ Object 'b.txt' updated in 'b'\n"
	if got := h.Out.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestSetErrors(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		flags args.Options
		want  string
	}{
		{"no access", "a.txt", nil, "Access level is required (--access public|private)"},
		{"bad access", "a.txt", args.Options{"access": "everyone"}, `Invalid access "everyone"`},
		{"missing key", "zzz", args.Options{"access": "public"}, "The specified key does not exist: zzz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := cmdtest.New(t, "objects", "set")
			h.MustBucket(t, "b", "a.txt")
			wantExit(t, h.Run(Set, []string{"b", tt.key}, tt.flags))
			if !strings.Contains(h.Err.String(), tt.want) {
				t.Errorf("stderr = %q, want %q", h.Err.String(), tt.want)
			}
		})
	}
}
