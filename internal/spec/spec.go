// Package spec holds the declarative command tree the CLI surface is built
// from. The tree is parsed once from the embedded specs.yaml and never mutated
// afterwards; traversal is strictly top-down so nodes carry no parent links.
package spec

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var validName = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidName reports whether name may be used for a command.
func ValidName(name string) bool {
	return validName.MatchString(name)
}

// Specs is the root of the command tree.
type Specs struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Version     string     `yaml:"version"`
	Commands    []*Command `yaml:"commands"`
}

// Command is one node of the tree. A node without Commands is a leaf.
type Command struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Aliases     StringList  `yaml:"alias"`
	Arguments   []*Argument `yaml:"arguments"`
	Commands    []*Command  `yaml:"commands"`

	// Default names the child invoked when this node is called without one.
	Default  string    `yaml:"default"`
	Examples []string  `yaml:"examples"`
	Message  string    `yaml:"message"`
	Messages *Messages `yaml:"messages"`
}

// IsLeaf reports whether the node has no children.
func (c *Command) IsLeaf() bool {
	return len(c.Commands) == 0
}

// Child returns the direct child with the exact name, or nil.
func (c *Command) Child(name string) *Command {
	for _, child := range c.Commands {
		if child.Name == name {
			return child
		}
	}
	return nil
}

// DefaultChild returns the configured default child if it exists.
func (c *Command) DefaultChild() *Command {
	if c.Default == "" {
		return nil
	}
	return c.Child(c.Default)
}

// Messages are display templates keyed by lifecycle event.
type Messages struct {
	OnStart       string `yaml:"onStart"`
	OnSuccess     string `yaml:"onSuccess"`
	OnFailure     string `yaml:"onFailure"`
	OnEmpty       string `yaml:"onEmpty"`
	OnAlreadyDone string `yaml:"onAlreadyDone"`
	Hint          string `yaml:"hint"`
}

// StringList accepts either a scalar or a sequence of strings.
type StringList []string

func (s *StringList) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Value == "" {
			*s = nil
			return nil
		}
		*s = StringList{n.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := n.Decode(&list); err != nil {
			return err
		}
		*s = list
		return nil
	default:
		return fmt.Errorf("line %d: alias must be a string or a list of strings", n.Line)
	}
}

// FindNode walks the forest by exact name per segment. There is no prefix or
// alias matching.
func FindNode(commands []*Command, path []string) *Command {
	if len(path) == 0 {
		return nil
	}
	level := commands
	var found *Command
	for _, segment := range path {
		found = nil
		for _, c := range level {
			if c.Name == segment {
				found = c
				break
			}
		}
		if found == nil {
			return nil
		}
		level = found.Commands
	}
	return found
}

// Parse decodes a specs document.
func Parse(data []byte) (*Specs, error) {
	var s Specs
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse command specs: %w", err)
	}
	if len(s.Commands) == 0 {
		return nil, errors.New("failed to parse command specs: no commands defined")
	}
	return &s, nil
}

// Path renders a command path for messages, e.g. "iam policies list".
func Path(path []string) string {
	return strings.Join(path, " ")
}
