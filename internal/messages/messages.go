// Package messages prints the templated status lines declared for each
// command in the command tree.
package messages

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/fatih/color"

	"github.com/tigrisdata/cli/internal/spec"
)

// Vars are the values substituted into {{name}} placeholders.
type Vars map[string]any

const (
	iconSuccess = "✔"
	iconFailure = "✖"
	iconHint    = "→"
)

var placeholder = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Interpolate expands literal \n sequences and replaces {{name}} with the
// matching variable. Unknown names are left as they are.
func Interpolate(template string, vars Vars) string {
	out := strings.ReplaceAll(template, `\n`, "\n")
	if vars == nil {
		return out
	}
	return placeholder.ReplaceAllStringFunc(out, func(m string) string {
		key := m[2 : len(m)-2]
		v, ok := vars[key]
		if !ok || v == nil {
			return m
		}
		return fmt.Sprint(v)
	})
}

// Printer writes one command's messages. A nil template set prints nothing
// except failure details.
type Printer struct {
	out, err io.Writer
	set      *spec.Messages

	success *color.Color
	failure *color.Color
	hint    *color.Color
}

// NewPrinter returns a Printer for the given template set.
func NewPrinter(out, errOut io.Writer, set *spec.Messages) *Printer {
	return &Printer{
		out:     out,
		err:     errOut,
		set:     set,
		success: color.New(color.FgGreen),
		failure: color.New(color.FgRed),
		hint:    color.New(color.FgCyan),
	}
}

func (p *Printer) templates() spec.Messages {
	if p.set == nil {
		return spec.Messages{}
	}
	return *p.set
}

func (p *Printer) Start(vars Vars) {
	if t := p.templates().OnStart; t != "" {
		fmt.Fprintln(p.out, Interpolate(t, vars))
	}
}

func (p *Printer) Success(vars Vars) {
	if t := p.templates().OnSuccess; t != "" {
		fmt.Fprintln(p.out, p.success.Sprint(iconSuccess), Interpolate(t, vars))
	}
}

// Failure prints the failure template to stderr followed by the error
// detail indented on the next line.
func (p *Printer) Failure(detail error, vars Vars) {
	if t := p.templates().OnFailure; t != "" {
		fmt.Fprintln(p.err, p.failure.Sprint(iconFailure), Interpolate(t, vars))
	}
	if detail != nil {
		fmt.Fprintf(p.err, "  %s\n", detail.Error())
	}
}

func (p *Printer) Empty(vars Vars) {
	if t := p.templates().OnEmpty; t != "" {
		fmt.Fprintln(p.out, Interpolate(t, vars))
	}
}

func (p *Printer) AlreadyDone(vars Vars) {
	if t := p.templates().OnAlreadyDone; t != "" {
		fmt.Fprintln(p.out, Interpolate(t, vars))
	}
}

func (p *Printer) Hint(vars Vars) {
	if t := p.templates().Hint; t != "" {
		fmt.Fprintln(p.out, p.hint.Sprint(iconHint), Interpolate(t, vars))
	}
}
