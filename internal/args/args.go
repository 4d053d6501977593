// Package args turns raw command-line values into the option bag handlers
// receive, and checks it against the declared arguments of a command.
package args

import (
	"fmt"
	"strings"

	"github.com/tigrisdata/cli/internal/spec"
)

// PositionalKey holds the raw positional tokens in every Options value.
const PositionalKey = "_positional"

// Options maps argument names to string, []string or bool values. A missing
// key means the argument was not supplied.
type Options map[string]any

// MissingRequiredError reports a required argument with no value.
type MissingRequiredError struct {
	Name string
}

func (e *MissingRequiredError) Error() string {
	return fmt.Sprintf("--%s is required", e.Name)
}

// MissingConditionalError reports an argument that became required because
// another argument holds a specific value.
type MissingConditionalError struct {
	Name      string
	DependsOn string
	Expected  string
}

func (e *MissingConditionalError) Error() string {
	return fmt.Sprintf("--%s is required when --%s is %s", e.Name, e.DependsOn, e.Expected)
}

// ExtractValues merges raw flag values with positional tokens. Positional
// arguments take tokens in declaration order; a trailing multiple positional
// also absorbs any extra tokens. Multiple-valued arguments are comma-split.
func ExtractValues(arguments []*spec.Argument, positional []string, raw Options) Options {
	out := make(Options, len(raw)+1)
	for k, v := range raw {
		out[k] = v
	}

	tokens := append([]string{}, positional...)
	out[PositionalKey] = tokens

	var declared []*spec.Argument
	for _, a := range arguments {
		if a.Kind == spec.Positional {
			declared = append(declared, a)
		}
	}
	for i, a := range declared {
		if i >= len(tokens) {
			break
		}
		if !a.Multiple {
			out[a.Name] = tokens[i]
			continue
		}
		rest := tokens[i : i+1]
		if i == len(declared)-1 {
			rest = tokens[i:]
		}
		var values []string
		for _, tok := range rest {
			values = append(values, SplitList(tok)...)
		}
		out[a.Name] = values
	}

	for _, a := range arguments {
		if a.Kind == spec.Positional || !a.Multiple {
			continue
		}
		if s, ok := out[a.Name].(string); ok {
			out[a.Name] = SplitList(s)
		}
	}
	return out
}

// SplitList splits a comma separated value and trims each item. Empty
// segments, order and duplicates are kept; only an empty s yields nil.
func SplitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// Validate checks arguments in declaration order and returns the first
// violation.
func Validate(arguments []*spec.Argument, opts Options) error {
	for _, a := range arguments {
		value, _ := Lookup(opts, a.Name, a.Alias)

		if other, expected, ok := a.Condition(); ok {
			otherValue, _ := Lookup(opts, other, aliasOf(arguments, other))
			if Stringify(otherValue) == expected && !Truthy(value) {
				return &MissingConditionalError{Name: a.Name, DependsOn: other, Expected: expected}
			}
			continue
		}

		if a.Required && !Truthy(value) {
			return &MissingRequiredError{Name: a.Name}
		}
	}
	return nil
}

func aliasOf(arguments []*spec.Argument, name string) string {
	for _, a := range arguments {
		if a.Name == name {
			return a.Alias
		}
	}
	return ""
}

// Truthy reports whether v counts as supplied.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case []string:
		return len(t) > 0
	default:
		return true
	}
}

// Stringify renders a value for comparisons and messages.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []string:
		return strings.Join(t, ",")
	default:
		return fmt.Sprint(t)
	}
}
