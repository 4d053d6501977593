package storage

import (
	"regexp"
	"strings"
)

// Remote path schemes accepted in front of bucket paths.
var remoteSchemes = []string{"t3://", "tigris://"}

// Path is a bucket and the key or prefix inside it.
type Path struct {
	Bucket string
	Key    string
}

// String renders the path as t3://bucket/key.
func (p Path) String() string {
	if p.Key == "" {
		return "t3://" + p.Bucket
	}
	return "t3://" + p.Bucket + "/" + p.Key
}

// IsFolder reports whether the key names a prefix rather than an object.
func (p Path) IsFolder() bool {
	return strings.HasSuffix(p.Key, "/")
}

// HasWildcard reports whether the key contains a glob star.
func (p Path) HasWildcard() bool {
	return strings.Contains(p.Key, "*")
}

// ParsePath splits "bucket/a/b" into bucket "bucket" and key "a/b".
func ParsePath(s string) Path {
	bucket, key, _ := strings.Cut(s, "/")
	return Path{Bucket: bucket, Key: key}
}

// IsRemotePath reports whether s starts with t3:// or tigris://.
func IsRemotePath(s string) bool {
	for _, scheme := range remoteSchemes {
		if strings.HasPrefix(s, scheme) {
			return true
		}
	}
	return false
}

// ParseRemotePath strips an optional t3:// or tigris:// scheme and parses the
// rest with ParsePath.
func ParseRemotePath(s string) Path {
	for _, scheme := range remoteSchemes {
		if strings.HasPrefix(s, scheme) {
			return ParsePath(strings.TrimPrefix(s, scheme))
		}
	}
	return ParsePath(s)
}

// GlobToRegex compiles a single path segment pattern where * matches any run
// of characters except a slash. Everything else matches literally.
func GlobToRegex(pattern string) *regexp.Regexp {
	parts := strings.Split(pattern, "*")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return regexp.MustCompile("^" + strings.Join(parts, "[^/]*") + "$")
}

// WildcardPrefix returns the folder part of a wildcard key, up to and
// including the last slash before the first star.
func WildcardPrefix(key string) string {
	star := strings.Index(key, "*")
	if star < 0 {
		star = len(key)
	}
	slash := strings.LastIndex(key[:star], "/")
	if slash < 0 {
		return ""
	}
	return key[:slash+1]
}
