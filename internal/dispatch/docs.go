package dispatch

import (
	"fmt"
	"io"
	"strings"

	"github.com/tigrisdata/cli/internal/spec"
)

// Markdown writes a reference of every implemented command.
func (h *Help) Markdown(w io.Writer) {
	name := h.Specs.Name
	fmt.Fprintf(w, "# %s\n\n", name)
	if h.Specs.Description != "" {
		fmt.Fprintf(w, "%s\n\n", h.Specs.Description)
	}
	fmt.Fprintln(w, "## Usage")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "```\n%s <command> [flags]\n```\n\n", name)
	fmt.Fprintf(w, "Run `%s help` to see all available commands, or `%s <command> help` for details on a specific command.\n\n", name, name)
	fmt.Fprintln(w, "## Commands")
	fmt.Fprintln(w)
	for _, c := range h.Locator.Implemented(h.Specs.Commands, nil) {
		h.markdownNode(w, c, []string{c.Name}, 3)
	}
}

func (h *Help) markdownNode(w io.Writer, node *spec.Command, path []string, level int) {
	heading := strings.Repeat("#", min(level, 6))
	title := "`" + spec.Path(path) + "`"
	if len(node.Aliases) > 0 {
		title += " | `" + strings.Join(node.Aliases, "`, `") + "`"
	}
	fmt.Fprintf(w, "%s %s\n\n%s\n\n", heading, title, node.Description)

	if children := h.Locator.Implemented(node.Commands, path); len(children) > 0 {
		fmt.Fprintln(w, "| Command | Description |")
		fmt.Fprintln(w, "|---------|-------------|")
		for _, c := range children {
			fmt.Fprintf(w, "| `%s %s` | %s |\n", spec.Path(path), c.Name, c.Description)
		}
		fmt.Fprintln(w)
		for _, c := range children {
			h.markdownNode(w, c, extend(path, c.Name), level+1)
		}
		return
	}

	fmt.Fprintf(w, "```\n%s\n```\n\n", usageLine(h.Specs.Name, path, node.Arguments))

	var flags []*spec.Argument
	for _, a := range node.Arguments {
		if a.Kind != spec.Positional {
			flags = append(flags, a)
		}
	}
	if len(flags) > 0 {
		fmt.Fprintln(w, "| Flag | Description |")
		fmt.Fprintln(w, "|------|-------------|")
		for _, a := range flags {
			flag := "--" + a.Name
			if short := a.ShortAlias(); short != "" {
				flag = "-" + short + ", " + flag
			}
			desc := a.Description
			if a.Default != "" {
				desc += " (default: " + a.Default + ")"
			}
			fmt.Fprintf(w, "| `%s` | %s |\n", flag, desc)
		}
		fmt.Fprintln(w)
	}

	if len(node.Examples) > 0 {
		fmt.Fprintln(w, "**Examples:**")
		fmt.Fprintln(w, "```bash")
		for _, ex := range node.Examples {
			fmt.Fprintln(w, ex)
		}
		fmt.Fprint(w, "```\n\n")
	}
}

func usageLine(name string, path []string, arguments []*spec.Argument) string {
	parts := []string{name, spec.Path(path)}
	hasFlags := false
	for _, a := range arguments {
		switch {
		case a.Kind != spec.Positional:
			hasFlags = true
		case a.Required:
			parts = append(parts, "<"+a.Name+">")
		default:
			parts = append(parts, "["+a.Name+"]")
		}
	}
	if hasFlags {
		parts = append(parts, "[flags]")
	}
	return strings.Join(parts, " ")
}
