// Package cmdutil holds helpers shared by the command handlers.
package cmdutil

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tigrisdata/cli/internal/args"
	"github.com/tigrisdata/cli/internal/display"
	"github.com/tigrisdata/cli/internal/handler"
	"github.com/tigrisdata/cli/internal/storage"
)

// Format returns the --format option, table when unset.
func Format(opts args.Options) string {
	return opts.StringOr("format", "f", display.FormatTable)
}

// Positional returns the i-th positional token or "".
func Positional(opts args.Options, i int) string {
	p := opts.Positional()
	if i < len(p) {
		return p[i]
	}
	return ""
}

// Value returns a named option, falling back to the i-th positional token.
// Handlers reached through a default child see positional tokens only.
func Value(opts args.Options, name, alias string, i int) string {
	if v := opts.String(name, alias); v != "" {
		return v
	}
	return Positional(opts, i)
}

// ObjectColumns are the columns of an object listing.
var ObjectColumns = []display.Column{
	{Key: "key", Header: "Key"},
	{Key: "size", Header: "Size"},
	{Key: "modified", Header: "Modified"},
}

// BucketColumns are the columns of a bucket listing.
var BucketColumns = []display.Column{
	{Key: "name", Header: "Name"},
	{Key: "created", Header: "Created"},
}

// ObjectRecord renders one object for a listing. Prefixes have no size.
func ObjectRecord(o storage.Object, name string) display.Record {
	if o.IsPrefix {
		return display.Record{"key": name, "size": "-", "modified": ""}
	}
	return display.Record{
		"key":      name,
		"size":     display.FormatSize(o.Size),
		"modified": display.FormatTime(o.LastModified),
	}
}

// BucketRecord renders one bucket for a listing.
func BucketRecord(b storage.Bucket) display.Record {
	return display.Record{"name": b.Name, "created": display.FormatTime(b.Created)}
}

// Properties renders name/value pairs as a two column listing.
func Properties(root string, pairs [][2]string) *display.Listing {
	l := &display.Listing{
		Root: root,
		Item: "property",
		Columns: []display.Column{
			{Key: "property", Header: "Property"},
			{Key: "value", Header: "Value"},
		},
	}
	for _, p := range pairs {
		l.Records = append(l.Records, display.Record{"property": p[0], "value": p[1]})
	}
	return l
}

// ErrNoInput is returned when data was expected on stdin but stdin is a
// terminal.
var ErrNoInput = errors.New("no input on stdin")

// OpenInput opens path for reading. An empty path reads the environment's
// stdin, which must not be a terminal. The returned size is -1 when unknown.
func OpenInput(env *handler.Env, path string) (io.ReadCloser, int64, error) {
	if path == "" || path == "-" {
		if env.Interactive() || env.In == nil {
			return nil, 0, ErrNoInput
		}
		return io.NopCloser(env.In), -1, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, fmt.Errorf("File not found: %s", path)
		}
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	if info.IsDir() {
		f.Close()
		return nil, 0, fmt.Errorf("%s is a directory", path)
	}
	return f, info.Size(), nil
}

// Confirm asks label unless force is set. Without a terminal and without
// force it refuses, so scripts never block on a prompt.
func Confirm(env *handler.Env, force bool, label string) (bool, error) {
	if force {
		return true, nil
	}
	if env.Prompt == nil {
		return false, errors.New("confirmation required; use --force")
	}
	return env.Prompt.Confirm(label)
}
