package spec

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind tells how an argument is supplied on the command line.
type Kind int

const (
	// Valued takes a string value: --name value.
	Valued Kind = iota
	// Positional is matched to bare tokens in declaration order.
	Positional
	// Flag is a presence switch without a value.
	Flag
	// Boolean may appear bare (meaning true) or with an explicit value.
	Boolean
)

func (k Kind) String() string {
	switch k {
	case Positional:
		return "positional"
	case Flag:
		return "flag"
	case Boolean:
		return "boolean"
	default:
		return "string"
	}
}

func (k *Kind) UnmarshalYAML(n *yaml.Node) error {
	switch strings.ToLower(n.Value) {
	case "positional", "noun":
		*k = Positional
	case "flag":
		*k = Flag
	case "boolean", "bool":
		*k = Boolean
	case "", "string":
		*k = Valued
	default:
		return fmt.Errorf("line %d: unknown argument type %q", n.Line, n.Value)
	}
	return nil
}

// Argument describes one argument of a command.
type Argument struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Kind        Kind       `yaml:"type"`
	Alias       string     `yaml:"alias"`
	Options     OptionList `yaml:"options"`
	Default     string     `yaml:"default"`
	Required    bool       `yaml:"required"`

	// RequiredWhen has the form "other=value".
	RequiredWhen string   `yaml:"required-when"`
	Multiple     bool     `yaml:"multiple"`
	Examples     []string `yaml:"examples"`
}

// ShortAlias returns the alias when it can be used as a short flag.
func (a *Argument) ShortAlias() string {
	if len(a.Alias) == 1 {
		return a.Alias
	}
	return ""
}

// Condition splits RequiredWhen into the other argument name and the value
// that triggers the requirement.
func (a *Argument) Condition() (name, value string, ok bool) {
	if a.RequiredWhen == "" {
		return "", "", false
	}
	name, value, ok = strings.Cut(a.RequiredWhen, "=")
	if !ok {
		return "", "", false
	}
	return strings.TrimSpace(name), strings.TrimSpace(value), true
}

// Option is one allowed value. Plain string options have Name == Value.
type Option struct {
	Name        string `yaml:"name"`
	Value       string `yaml:"value"`
	Description string `yaml:"description"`
}

// OptionList accepts a list of strings or a list of {name, value, description}.
type OptionList []Option

func (o *OptionList) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: options must be a list", n.Line)
	}
	out := make(OptionList, 0, len(n.Content))
	for _, item := range n.Content {
		switch item.Kind {
		case yaml.ScalarNode:
			out = append(out, Option{Name: item.Value, Value: item.Value})
		case yaml.MappingNode:
			var opt Option
			if err := item.Decode(&opt); err != nil {
				return err
			}
			if opt.Value == "" {
				opt.Value = opt.Name
			}
			out = append(out, opt)
		default:
			return fmt.Errorf("line %d: unsupported option entry", item.Line)
		}
	}
	*o = out
	return nil
}

// Values returns the raw option values in declared order.
func (o OptionList) Values() []string {
	values := make([]string, len(o))
	for i, opt := range o {
		values[i] = opt.Value
	}
	return values
}
