package args

import (
	"strings"
	"unicode"
)

// Keys lists the spellings a value may be stored under, in lookup order: the
// name itself, without hyphens, without hyphens and lower-cased, the alias
// with an upper-case first letter, and the camel-cased name.
func Keys(name, alias string) []string {
	stripped := strings.ReplaceAll(name, "-", "")
	candidates := []string{name, stripped, strings.ToLower(stripped)}
	if alias != "" {
		candidates = append(candidates, strings.ToUpper(alias[:1])+alias[1:])
	}
	candidates = append(candidates, camelCase(name))

	seen := make(map[string]bool, len(candidates))
	keys := candidates[:0]
	for _, k := range candidates {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return keys
}

func camelCase(name string) string {
	var b strings.Builder
	upper := false
	for _, r := range name {
		if r == '-' || r == '_' {
			upper = b.Len() > 0
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Lookup returns the first value found under any of the spellings of name.
func Lookup(opts Options, name, alias string) (any, bool) {
	for _, k := range Keys(name, alias) {
		if v, ok := opts[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// String returns the value of name as a string, or "" when absent.
func (o Options) String(name, alias string) string {
	v, _ := Lookup(o, name, alias)
	return Stringify(v)
}

// StringOr returns the value of name, or def when absent or empty.
func (o Options) StringOr(name, alias, def string) string {
	if s := o.String(name, alias); s != "" {
		return s
	}
	return def
}

// Bool interprets flags, bare booleans and "true"/"false" strings.
func (o Options) Bool(name, alias string) bool {
	v, _ := Lookup(o, name, alias)
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(t, "true") || t == "1" || strings.EqualFold(t, "yes")
	default:
		return false
	}
}

// Strings returns a multiple-valued argument. A single string is split on
// commas.
func (o Options) Strings(name, alias string) []string {
	v, _ := Lookup(o, name, alias)
	switch t := v.(type) {
	case []string:
		return t
	case string:
		return SplitList(t)
	default:
		return nil
	}
}

// Positional returns the raw positional tokens.
func (o Options) Positional() []string {
	if p, ok := o[PositionalKey].([]string); ok {
		return p
	}
	return nil
}
