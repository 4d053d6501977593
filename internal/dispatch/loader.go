// Package dispatch turns the command tree into a cobra command hierarchy,
// resolves handlers for invoked paths and renders help.
package dispatch

import (
	"fmt"
	"strings"

	"github.com/tigrisdata/cli/internal/handler"
	"github.com/tigrisdata/cli/internal/spec"
)

// Loader resolves the handler module for a command path.
type Loader interface {
	Resolve(path []string) (handler.Module, error)
	Has(path []string) bool
}

// NotFoundError reports a path without a handler.
type NotFoundError struct {
	Path []string
}

func (e *NotFoundError) Error() string {
	return "Command not found: " + spec.Path(e.Path)
}

// Key flattens a command path into a table key.
func Key(path []string) string {
	return strings.Join(path, "/")
}

// StaticLoader serves handlers from a table compiled into the binary.
type StaticLoader struct {
	table map[string]handler.Module
}

// NewStaticLoader returns a loader over table, keyed by Key(path).
func NewStaticLoader(table map[string]handler.Module) *StaticLoader {
	return &StaticLoader{table: table}
}

func (l *StaticLoader) Resolve(path []string) (handler.Module, error) {
	m, ok := l.table[Key(path)]
	if !ok {
		return handler.Module{}, &NotFoundError{Path: path}
	}
	return m, nil
}

func (l *StaticLoader) Has(path []string) bool {
	if len(path) == 0 {
		return false
	}
	_, ok := l.table[Key(path)]
	return ok
}

// DynamicLoader looks handlers up in the registry command packages fill at
// init time. A path may be registered directly or as an index entry.
type DynamicLoader struct {
	lookup func(key string) (handler.Module, bool)
}

// NewDynamicLoader returns a loader over the process-wide registry.
func NewDynamicLoader() *DynamicLoader {
	return &DynamicLoader{lookup: handler.Lookup}
}

func candidates(path []string) []string {
	key := Key(path)
	return []string{key, key + "/index"}
}

func (l *DynamicLoader) Resolve(path []string) (handler.Module, error) {
	if len(path) == 0 {
		return handler.Module{}, &NotFoundError{Path: path}
	}
	for _, key := range candidates(path) {
		if m, ok := l.lookup(key); ok {
			return m, nil
		}
	}
	return handler.Module{}, fmt.Errorf("failed to load command %s: %w", spec.Path(path), &NotFoundError{Path: path})
}

func (l *DynamicLoader) Has(path []string) bool {
	if len(path) == 0 {
		return false
	}
	for _, key := range candidates(path) {
		if _, ok := l.lookup(key); ok {
			return true
		}
	}
	return false
}
