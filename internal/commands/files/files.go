// Package files implements the Unix-style shortcuts that work on remote
// paths: ls, mk, touch, stat, cp, mv and rm.
//
// Paths are bucket[/key] and may carry a t3:// or tigris:// scheme. A key
// ending in a slash names a folder; a star in the last segment matches any
// run of characters except a slash.
package files

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tigrisdata/cli/internal/handler"
	"github.com/tigrisdata/cli/internal/storage"
)

func init() {
	handler.Provide("ls", handler.Module{Default: List})
	handler.Provide("mk", handler.Module{Default: Make})
	handler.Provide("touch", handler.Module{Default: Touch})
	handler.Provide("stat", handler.Module{Default: Stat})
	handler.Provide("cp", handler.Module{Default: Copy})
	handler.Provide("mv", handler.Module{Default: Move})
	handler.Provide("rm", handler.Module{Default: Remove})
}

var errInvalidPath = errors.New("Invalid path")

// errFolder is returned by expand for a folder named without -r.
var errFolder = errors.New("source is a folder")

func folderError(verb string) error {
	return fmt.Errorf("Source is a remote folder (not %s). Use -r to %s recursively.", pastTense(verb), verb)
}

func pastTense(verb string) string {
	switch verb {
	case "copy":
		return "copied"
	case "move":
		return "moved"
	default:
		return verb + "d"
	}
}

// selection is the set of objects a path names. Keys share Prefix, which
// destination keys are made relative to.
type selection struct {
	Bucket   string
	Prefix   string
	Keys     []string
	Multiple bool
}

// hasChildren reports whether anything is stored under prefix.
func hasChildren(ctx context.Context, client storage.Client, bucket, prefix string) (bool, error) {
	objs, err := client.ListObjects(ctx, bucket, prefix, false)
	if err != nil {
		return false, err
	}
	return len(objs) > 0, nil
}

// expand resolves p to the keys it names. raw is the path as typed, so a
// bare "bucket/" can be told apart from "bucket".
func expand(ctx context.Context, client storage.Client, p storage.Path, raw string, recursive bool) (*selection, error) {
	wildcard := p.HasWildcard()
	folder := p.IsFolder() || (p.Key == "" && strings.HasSuffix(raw, "/"))

	if !wildcard && !folder && p.Key != "" {
		var err error
		if folder, err = hasChildren(ctx, client, p.Bucket, p.Key+"/"); err != nil {
			return nil, err
		}
	}
	if folder && !wildcard && !recursive {
		return nil, errFolder
	}

	if !wildcard && !folder {
		prefix := ""
		if i := strings.LastIndex(p.Key, "/"); i >= 0 {
			prefix = p.Key[:i+1]
		}
		return &selection{Bucket: p.Bucket, Prefix: prefix, Keys: []string{p.Key}}, nil
	}

	prefix := p.Key
	if wildcard {
		prefix = storage.WildcardPrefix(p.Key)
	} else if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	objs, err := client.ListObjects(ctx, p.Bucket, prefix, true)
	if err != nil {
		return nil, err
	}

	sel := &selection{Bucket: p.Bucket, Prefix: prefix, Multiple: true}
	var match func(rel string) bool
	if wildcard {
		segments := strings.Split(p.Key, "/")
		re := storage.GlobToRegex(segments[len(segments)-1])
		match = func(rel string) bool {
			if !recursive && strings.Contains(rel, "/") {
				return false
			}
			parts := strings.Split(rel, "/")
			return re.MatchString(parts[len(parts)-1])
		}
	}
	for _, o := range objs {
		if o.IsPrefix {
			continue
		}
		if match != nil && !match(o.Key[len(prefix):]) {
			continue
		}
		sel.Keys = append(sel.Keys, o.Key)
	}
	return sel, nil
}
