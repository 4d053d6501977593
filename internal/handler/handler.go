// Package handler defines what a command implementation looks like and the
// process-wide registry command packages add themselves to.
package handler

import (
	"context"
	"sort"
	"sync"

	"github.com/tigrisdata/cli/internal/args"
)

// Func runs one command with its resolved options.
type Func func(ctx context.Context, env *Env, opts args.Options) error

// Module is the unit the loaders hand out. It exposes a default callable or
// callables named after the last path segment.
type Module struct {
	Default Func
	Named   map[string]Func
}

// Callable returns the function to invoke for a command whose last path
// segment is name, or nil when the module has none.
func (m Module) Callable(name string) Func {
	if m.Default != nil {
		return m.Default
	}
	return m.Named[name]
}

var (
	mu       sync.RWMutex
	registry = map[string]Module{}
)

// Provide registers m under key, a "/"-joined command path. Command
// packages call it from init. A later registration replaces an earlier one.
func Provide(key string, m Module) {
	mu.Lock()
	defer mu.Unlock()
	registry[key] = m
}

// Lookup returns the module registered under key.
func Lookup(key string) (Module, bool) {
	mu.RLock()
	defer mu.RUnlock()
	m, ok := registry[key]
	return m, ok
}

// Keys lists registered keys in sorted order.
func Keys() []string {
	mu.RLock()
	defer mu.RUnlock()
	keys := make([]string, 0, len(registry))
	for k := range registry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
