package dispatch

import "github.com/tigrisdata/cli/internal/spec"

// Locator answers whether commands have an implementation behind them.
type Locator struct {
	Loader Loader
}

// HasImplementation reports whether a handler exists for exactly path.
func (l Locator) HasImplementation(path []string) bool {
	return l.Loader.Has(path)
}

// HasAnyImplementation reports whether node at path, or any descendant, has
// a handler. Nodes failing this are hidden from routing and help.
func (l Locator) HasAnyImplementation(node *spec.Command, path []string) bool {
	if l.HasImplementation(path) {
		return true
	}
	for _, child := range node.Commands {
		if l.HasAnyImplementation(child, extend(path, child.Name)) {
			return true
		}
	}
	return false
}

// Implemented filters nodes under parent path down to those with an
// implementation, keeping declared order.
func (l Locator) Implemented(nodes []*spec.Command, parent []string) []*spec.Command {
	var out []*spec.Command
	for _, n := range nodes {
		if l.HasAnyImplementation(n, extend(parent, n.Name)) {
			out = append(out, n)
		}
	}
	return out
}

// extend returns a new slice so sibling paths never share a backing array.
func extend(path []string, name string) []string {
	out := make([]string, len(path)+1)
	copy(out, path)
	out[len(path)] = name
	return out
}
