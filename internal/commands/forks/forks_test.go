package forks

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/tigrisdata/cli/internal/args"
	"github.com/tigrisdata/cli/internal/commands/cmdtest"
	"github.com/tigrisdata/cli/internal/handler"
	"github.com/tigrisdata/cli/internal/storage"
)

func source(t *testing.T, h *cmdtest.Harness, keys ...string) {
	t.Helper()
	ctx := t.Context()
	if err := h.Storage.MakeBucket(ctx, "photos", storage.BucketOptions{EnableSnapshots: true}); err != nil {
		t.Fatal(err)
	}
	for _, k := range keys {
		if _, err := h.Storage.PutObject(ctx, "photos", k, strings.NewReader(k), -1, storage.PutOptions{}); err != nil {
			t.Fatal(err)
		}
	}
}

func TestCreate(t *testing.T) {
	h := cmdtest.New(t, "forks", "create")
	source(t, h, "a.png")

	if err := h.Run(Create, []string{"photos", "photos-dev"}, nil); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if got := h.Out.String(); got != "✔ Bucket 'photos-dev' forked from 'photos'\n" {
		t.Errorf("output = %q", got)
	}
	if keys := h.Storage.Keys("photos-dev"); len(keys) != 1 || keys[0] != "a.png" {
		t.Errorf("fork keys = %v", keys)
	}
}

func TestCreateFromSnapshot(t *testing.T) {
	h := cmdtest.New(t, "forks", "create")
	source(t, h, "old")
	snap, err := h.Storage.TakeSnapshot(t.Context(), "photos", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.Storage.PutObject(t.Context(), "photos", "new", strings.NewReader("x"), 1, storage.PutOptions{}); err != nil {
		t.Fatal(err)
	}

	if err := h.Run(Create, []string{"photos", "restored"}, args.Options{"snapshot": snap.Version}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if keys := h.Storage.Keys("restored"); len(keys) != 1 || keys[0] != "old" {
		t.Errorf("fork keys = %v", keys)
	}
	info, _ := h.Storage.BucketInfo(t.Context(), "restored")
	if info.SourceSnapshot != snap.Version {
		t.Errorf("info = %+v", info)
	}
}

func TestCreateErrors(t *testing.T) {
	tests := []struct {
		name       string
		positional []string
		want       string
	}{
		{"no fork name", []string{"photos"}, "Fork name is required"},
		{"missing source", []string{"nope", "copy"}, "The specified bucket does not exist: nope"},
		{"existing fork", []string{"photos", "photos"}, "The requested bucket name is not available."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := cmdtest.New(t, "forks", "create")
			source(t, h)

			err := h.Run(Create, tt.positional, nil)
			var exit *handler.ExitError
			if !errors.As(err, &exit) {
				t.Fatalf("error = %v, want ExitError", err)
			}
			if !strings.Contains(h.Err.String(), tt.want) {
				t.Errorf("stderr = %q, want %q", h.Err.String(), tt.want)
			}
		})
	}
}

func TestList(t *testing.T) {
	h := cmdtest.New(t, "forks", "list")
	source(t, h)
	h.MustBucket(t, "unrelated")
	for _, f := range []string{"photos-a", "photos-b"} {
		if err := h.Storage.ForkBucket(t.Context(), f, "photos", ""); err != nil {
			t.Fatal(err)
		}
	}

	if err := h.Run(List, []string{"photos"}, args.Options{"format": "json"}); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	out := h.Out.String()
	if !strings.HasSuffix(out, "✔ Found 2 fork(s)\n") {
		t.Errorf("output = %q", out)
	}
	var rows []map[string]string
	if err := json.Unmarshal([]byte(out[:strings.LastIndex(out, "✔")]), &rows); err != nil {
		t.Fatalf("bad JSON: %v\n%s", err, out)
	}
	if len(rows) != 2 || rows[0]["name"] != "photos-a" || rows[1]["name"] != "photos-b" {
		t.Errorf("rows = %v", rows)
	}
}

func TestListNoForks(t *testing.T) {
	h := cmdtest.New(t, "forks", "list")
	source(t, h)
	h.MustBucket(t, "other")

	if err := h.Run(List, []string{"photos"}, nil); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if got := h.Out.String(); got != "No forks found for 'photos'\n" {
		t.Errorf("output = %q", got)
	}
}
