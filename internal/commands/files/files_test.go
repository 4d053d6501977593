package files

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/tigrisdata/cli/internal/args"
	"github.com/tigrisdata/cli/internal/commands/cmdtest"
	"github.com/tigrisdata/cli/internal/handler"
)

func decode(t *testing.T, s string) []map[string]string {
	t.Helper()
	var out []map[string]string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, s)
	}
	return out
}

func column(rows []map[string]string, key string) []string {
	var out []string
	for _, r := range rows {
		out = append(out, r[key])
	}
	return out
}

func wantExit(t *testing.T, err error) {
	t.Helper()
	var exit *handler.ExitError
	if !errors.As(err, &exit) || exit.Code != 1 {
		t.Fatalf("error = %v, want exit code 1", err)
	}
}

func TestListBuckets(t *testing.T) {
	h := cmdtest.New(t, "ls")
	h.MustBucket(t, "beta")
	h.MustBucket(t, "alpha")

	if err := h.Run(List, nil, args.Options{"format": "json"}); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	rows := decode(t, h.Out.String())
	if got := column(rows, "name"); !reflect.DeepEqual(got, []string{"alpha", "beta"}) {
		t.Errorf("names = %v", got)
	}
}

func TestListEmpty(t *testing.T) {
	h := cmdtest.New(t, "ls")
	if err := h.Run(List, nil, nil); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if got := h.Out.String(); got != "No items found\n" {
		t.Errorf("output = %q", got)
	}
}

func TestListObjects(t *testing.T) {
	tests := []struct {
		name string
		path string
		want []string
	}{
		{"bucket root", "media", []string{"images/", "readme.md"}},
		{"folder", "media/images/", []string{"a.png", "b.png", "raw/"}},
		{"folder without slash", "t3://media/images", []string{"a.png", "b.png", "raw/"}},
		{"key prefix", "media/read", []string{"readme.md"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := cmdtest.New(t, "ls")
			h.MustBucket(t, "media", "readme.md", "images/a.png", "images/b.png", "images/raw/c.raw")
			if err := h.Run(List, []string{tt.path}, args.Options{"format": "json"}); err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if got := column(decode(t, h.Out.String()), "key"); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("keys = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestListInvalidPath(t *testing.T) {
	h := cmdtest.New(t, "ls")
	wantExit(t, h.Run(List, []string{"/key"}, nil))
	if !strings.Contains(h.Err.String(), "Invalid path") {
		t.Errorf("stderr = %q", h.Err.String())
	}
}

func TestMake(t *testing.T) {
	h := cmdtest.New(t, "mk")
	if err := h.Run(Make, []string{"t3://logs"}, nil); err != nil {
		t.Fatalf("Make(bucket) error = %v", err)
	}
	if err := h.Run(Make, []string{"logs/2024"}, nil); err != nil {
		t.Fatalf("Make(folder) error = %v", err)
	}
	if got := h.Storage.Keys("logs"); !reflect.DeepEqual(got, []string{"2024/"}) {
		t.Errorf("keys = %v", got)
	}
	want := "✔ Created 'logs'\n✔ Created 'logs/2024/'\n"
	if got := h.Out.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}

	wantExit(t, h.Run(Make, []string{"logs"}, nil))
	if !strings.Contains(h.Err.String(), "✖ Failed to create 'logs'") {
		t.Errorf("stderr = %q", h.Err.String())
	}
}

func TestTouch(t *testing.T) {
	h := cmdtest.New(t, "touch")
	h.MustBucket(t, "b")

	wantExit(t, h.Run(Touch, []string{"b"}, nil))
	if !strings.Contains(h.Err.String(), "Object key is required (use mk to create buckets)") {
		t.Errorf("stderr = %q", h.Err.String())
	}

	if err := h.Run(Touch, []string{"b/empty.txt"}, nil); err != nil {
		t.Fatalf("Touch() error = %v", err)
	}
	if got := h.Out.String(); got != "✔ Created 'b/empty.txt'\n" {
		t.Errorf("output = %q", got)
	}
	if got := h.Storage.Keys("b"); !reflect.DeepEqual(got, []string{"empty.txt"}) {
		t.Errorf("keys = %v", got)
	}
}

func props(t *testing.T, s string) map[string]string {
	t.Helper()
	out := map[string]string{}
	for _, r := range decode(t, s) {
		out[r["property"]] = r["value"]
	}
	return out
}

func TestStat(t *testing.T) {
	tests := []struct {
		path string
		want map[string]string
	}{
		{"b/dir/a.txt", map[string]string{"Type": "object", "Path": "t3://b/dir/a.txt", "Bytes": "14"}},
		{"b/dir", map[string]string{"Type": "folder", "Path": "t3://b/dir/", "Objects": "2"}},
		{"b/dir/", map[string]string{"Type": "folder", "Objects": "2"}},
		{"b", map[string]string{"Type": "bucket", "Path": "t3://b", "Objects": "3"}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			h := cmdtest.New(t, "stat")
			h.MustBucket(t, "b", "dir/a.txt", "dir/b.txt", "top")
			if err := h.Run(Stat, []string{tt.path}, args.Options{"format": "json"}); err != nil {
				t.Fatalf("Stat() error = %v", err)
			}
			got := props(t, h.Out.String())
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("%s = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestStatMissing(t *testing.T) {
	h := cmdtest.New(t, "stat")
	h.MustBucket(t, "b")
	wantExit(t, h.Run(Stat, []string{"b/nope"}, nil))
	wantExit(t, h.Run(Stat, []string{"ghost"}, nil))
	if !strings.Contains(h.Err.String(), "Bucket 'ghost' not found") {
		t.Errorf("stderr = %q", h.Err.String())
	}
}

func TestCopy(t *testing.T) {
	tests := []struct {
		name      string
		src, dest string
		recursive bool
		wantDest  []string
	}{
		{"object to key", "src/a.txt", "dst/renamed.txt", false, []string{"renamed.txt"}},
		{"object to bucket", "src/a.txt", "dst", false, []string{"a.txt"}},
		{"object into folder", "src/logs/x.log", "dst/archive/", false, []string{"archive/x.log"}},
		{"folder", "src/logs/", "dst/old", true, []string{"old/sub/z.log", "old/x.log", "old/y.log"}},
		{"wildcard", "t3://src/logs/*.log", "dst/", false, []string{"x.log", "y.log"}},
		{"recursive wildcard", "src/logs/*.log", "dst/", true, []string{"sub/z.log", "x.log", "y.log"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := cmdtest.New(t, "cp")
			h.MustBucket(t, "src", "a.txt", "logs/x.log", "logs/y.log", "logs/sub/z.log")
			h.MustBucket(t, "dst")
			err := h.Run(Copy, []string{tt.src, tt.dest}, args.Options{"recursive": tt.recursive})
			if err != nil {
				t.Fatalf("Copy() error = %v\n%s", err, h.Err.String())
			}
			if got := h.Storage.Keys("dst"); !reflect.DeepEqual(got, tt.wantDest) {
				t.Errorf("dst keys = %v, want %v", got, tt.wantDest)
			}
			if got := len(h.Storage.Keys("src")); got != 4 {
				t.Errorf("source keys = %d, want 4", got)
			}
		})
	}
}

func TestCopyFolderNeedsRecursive(t *testing.T) {
	h := cmdtest.New(t, "cp")
	h.MustBucket(t, "src", "logs/x.log")
	h.MustBucket(t, "dst")
	wantExit(t, h.Run(Copy, []string{"src/logs", "dst/"}, nil))
	if !strings.Contains(h.Err.String(), "Source is a remote folder (not copied). Use -r to copy recursively.") {
		t.Errorf("stderr = %q", h.Err.String())
	}
}

func TestMove(t *testing.T) {
	h := cmdtest.New(t, "mv")
	h.MustBucket(t, "b", "logs/x.log", "logs/y.log", "keep.txt")
	if err := h.Run(Move, []string{"b/logs/", "b/old/"}, args.Options{"recursive": true}); err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	want := []string{"keep.txt", "old/x.log", "old/y.log"}
	if got := h.Storage.Keys("b"); !reflect.DeepEqual(got, want) {
		t.Errorf("keys = %v, want %v", got, want)
	}
	if !strings.Contains(h.Out.String(), "✔ Moved 2 object(s) to 't3://b/old/'") {
		t.Errorf("output = %q", h.Out.String())
	}
}

func TestRemoveBucket(t *testing.T) {
	h := cmdtest.New(t, "rm")
	h.MustBucket(t, "b")

	h.Prompt.Answers = []string{"n"}
	if err := h.Run(Remove, []string{"b"}, nil); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if !strings.Contains(h.Out.String(), "Aborted") {
		t.Errorf("output = %q", h.Out.String())
	}
	if h.Prompt.Asked[0] != "Are you sure you want to delete bucket 'b'?" {
		t.Errorf("asked %q", h.Prompt.Asked[0])
	}

	h.Prompt.Answers = []string{"y"}
	if err := h.Run(Remove, []string{"t3://b"}, nil); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if !strings.Contains(h.Out.String(), "✔ Removed 't3://b'") {
		t.Errorf("output = %q", h.Out.String())
	}
}

func TestRemoveObjects(t *testing.T) {
	keys := []string{"a.txt", "logs/", "logs/x.log", "logs/y.txt", "logs/sub/z.log"}
	tests := []struct {
		name  string
		path  string
		flags args.Options
		left  []string
	}{
		{"single object", "b/a.txt", args.Options{"force": true}, []string{"logs/", "logs/sub/z.log", "logs/x.log", "logs/y.txt"}},
		{"folder with marker", "b/logs/", args.Options{"force": true, "recursive": true}, []string{"a.txt"}},
		{"folder without slash", "b/logs", args.Options{"force": true, "recursive": true}, []string{"a.txt"}},
		{"wildcard", "b/logs/*.log", args.Options{"force": true}, []string{"a.txt", "logs/", "logs/sub/z.log", "logs/y.txt"}},
		{"recursive wildcard", "b/logs/*.log", args.Options{"force": true, "recursive": true}, []string{"a.txt", "logs/", "logs/y.txt"}},
		{"whole bucket contents", "b/", args.Options{"force": true, "recursive": true}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := cmdtest.New(t, "rm")
			h.MustBucket(t, "b", keys...)
			if err := h.Run(Remove, []string{tt.path}, tt.flags); err != nil {
				t.Fatalf("Remove() error = %v\n%s", err, h.Err.String())
			}
			got := h.Storage.Keys("b")
			if len(got) == 0 && len(tt.left) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.left) {
				t.Errorf("left = %v, want %v", got, tt.left)
			}
		})
	}
}

func TestRemoveConfirmsCount(t *testing.T) {
	h := cmdtest.New(t, "rm")
	h.MustBucket(t, "b", "logs/x.log", "logs/y.log")
	h.Prompt.Answers = []string{"y"}
	if err := h.Run(Remove, []string{"b/logs/"}, args.Options{"recursive": true}); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if h.Prompt.Asked[0] != "Are you sure you want to delete 2 object(s)?" {
		t.Errorf("asked %q", h.Prompt.Asked[0])
	}
	want := "Removed t3://b/logs/x.log\nRemoved t3://b/logs/y.log\nRemoved 2 object(s)\n"
	if got := h.Out.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestRemoveFolderNeedsRecursive(t *testing.T) {
	h := cmdtest.New(t, "rm")
	h.MustBucket(t, "b", "logs/x.log")
	wantExit(t, h.Run(Remove, []string{"b/logs/"}, args.Options{"force": true}))
	if !strings.Contains(h.Err.String(), "Source is a remote folder (not removed). Use -r to remove recursively.") {
		t.Errorf("stderr = %q", h.Err.String())
	}
}

func TestRemoveNothingMatches(t *testing.T) {
	h := cmdtest.New(t, "rm")
	h.MustBucket(t, "b", "a.txt")
	if err := h.Run(Remove, []string{"b/*.log"}, args.Options{"force": true}); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if got := h.Out.String(); got != "No objects to remove\n" {
		t.Errorf("output = %q", got)
	}
}
