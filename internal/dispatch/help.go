package dispatch

import (
	"fmt"
	"io"
	"strings"

	"github.com/tigrisdata/cli/internal/spec"
)

const (
	commandColumn  = 24
	argumentColumn = 26
)

// Help renders help screens for the implemented part of the tree.
type Help struct {
	Specs   *spec.Specs
	Locator Locator
	Version string
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func commandEntry(c *spec.Command) string {
	entry := "  " + c.Name
	if len(c.Aliases) > 0 {
		entry += " (" + strings.Join(c.Aliases, ", ") + ")"
	}
	return padRight(entry, commandColumn) + c.Description
}

// FormatArgument renders one argument line of a help screen.
func FormatArgument(a *spec.Argument) string {
	var head string
	if a.Kind == spec.Positional {
		head = "  " + a.Name
	} else {
		head = "  --" + a.Name
		if short := a.ShortAlias(); short != "" {
			head += ", -" + short
		}
	}
	if len(head) >= argumentColumn {
		head += "  "
	} else {
		head = padRight(head, argumentColumn)
	}

	var b strings.Builder
	b.WriteString(a.Description)
	if len(a.Options) > 0 {
		fmt.Fprintf(&b, " (options: %s)", strings.Join(a.Options.Values(), ", "))
	}
	if a.Default != "" {
		fmt.Fprintf(&b, " [default: %s]", a.Default)
	}
	if a.Required {
		b.WriteString(" [required]")
	}
	if a.RequiredWhen != "" {
		fmt.Fprintf(&b, " [required when: %s]", a.RequiredWhen)
	}
	if a.Multiple {
		b.WriteString(" [multiple values: comma-separated]")
	}
	if a.Kind == spec.Positional {
		b.WriteString(" [positional argument]")
	}
	if len(a.Examples) > 0 {
		fmt.Fprintf(&b, " (examples: %s)", strings.Join(a.Examples, ", "))
	}
	return head + b.String()
}

// Command writes the help screen of node at path.
func (h *Help) Command(w io.Writer, node *spec.Command, path []string) {
	full := spec.Path(path)
	fmt.Fprintf(w, "\n%s %s - %s\n\n", h.Specs.Name, full, node.Description)

	if children := h.Locator.Implemented(node.Commands, path); len(children) > 0 {
		fmt.Fprintln(w, "Commands:")
		for _, c := range children {
			fmt.Fprintln(w, commandEntry(c))
		}
		fmt.Fprintln(w)
	}

	if len(node.Arguments) > 0 {
		fmt.Fprintln(w, "Arguments:")
		for _, a := range node.Arguments {
			fmt.Fprintln(w, FormatArgument(a))
		}
		fmt.Fprintln(w)
	}

	if len(node.Examples) > 0 {
		fmt.Fprintln(w, "Examples:")
		for _, ex := range node.Examples {
			fmt.Fprintf(w, "  %s\n", ex)
		}
		fmt.Fprintln(w)
	}

	if !node.IsLeaf() {
		fmt.Fprintf(w, "Use \"%s %s <command> help\" for more information about a command.\n", h.Specs.Name, full)
	}
}

// Main writes the top-level help screen.
func (h *Help) Main(w io.Writer) {
	fmt.Fprintf(w, "Tigris CLI Version: %s\n\n", h.Version)
	fmt.Fprint(w, "Usage: tigris [command] [options]\n\n")
	fmt.Fprintln(w, "Commands:")
	for _, c := range h.Locator.Implemented(h.Specs.Commands, nil) {
		fmt.Fprintln(w, commandEntry(c))
	}
	fmt.Fprintf(w, "\nUse \"%s <command> help\" for more information about a command.\n", h.Specs.Name)
}
