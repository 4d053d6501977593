// Package prompt asks the user for input. Terminal sessions use an
// interactive line editor; piped input is read line by line.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	goprompt "github.com/elk-language/go-prompt"
	istrings "github.com/elk-language/go-prompt/strings"
	"golang.org/x/term"
)

// ErrCancelled is returned when the user aborts a prompt with Ctrl+C or
// closes the input.
var ErrCancelled = errors.New("operation cancelled")

// Choice is one entry of a Select prompt.
type Choice struct {
	Label string
	Value string
}

// Prompter asks questions and returns the answers.
type Prompter interface {
	Input(label, def string) (string, error)
	Secret(label string) (string, error)
	Select(label string, choices []Choice) (string, error)
	MultiSelect(label string, choices []Choice) ([]string, error)
	Confirm(label string) (bool, error)
}

// Terminal prompts on a terminal, falling back to plain line reads when
// stdin is not one.
type Terminal struct {
	in  *os.File
	out io.Writer

	lines *bufio.Reader
}

// NewTerminal returns a Prompter reading in and writing questions to out.
func NewTerminal(in *os.File, out io.Writer) *Terminal {
	return &Terminal{in: in, out: out, lines: bufio.NewReader(in)}
}

func (t *Terminal) interactive() bool {
	return term.IsTerminal(int(t.in.Fd()))
}

// readLine runs a one-shot line editor. complete may be nil.
func (t *Terminal) readLine(prefix string, complete goprompt.Completer) (string, error) {
	if !t.interactive() {
		fmt.Fprint(t.out, prefix)
		line, err := t.lines.ReadString('\n')
		if err != nil && line == "" {
			return "", ErrCancelled
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	var answer string
	done, cancelled := false, false
	opts := []goprompt.Option{
		goprompt.WithPrefix(prefix),
		goprompt.WithPrefixTextColor(goprompt.Green),
		goprompt.WithMaxSuggestion(10),
		goprompt.WithExitChecker(func(in string, breakline bool) bool {
			return done
		}),
		goprompt.WithKeyBind(goprompt.KeyBind{
			Key: goprompt.ControlC,
			Fn: func(p *goprompt.Prompt) bool {
				cancelled, done = true, true
				return false
			},
		}),
	}
	if complete != nil {
		opts = append(opts, goprompt.WithCompleter(complete), goprompt.WithCompletionOnDown())
	}

	p := goprompt.New(func(in string) {
		answer = in
		done = true
	}, opts...)
	p.Run()

	if cancelled {
		return "", ErrCancelled
	}
	return answer, nil
}

// Input asks for a line of text. An empty answer returns def.
func (t *Terminal) Input(label, def string) (string, error) {
	prefix := label + ": "
	if def != "" {
		prefix = fmt.Sprintf("%s (%s): ", label, def)
	}
	answer, err := t.readLine(prefix, nil)
	if err != nil {
		return "", err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// Secret asks for a value without echoing it.
func (t *Terminal) Secret(label string) (string, error) {
	if !t.interactive() {
		answer, err := t.readLine(label+": ", nil)
		return strings.TrimSpace(answer), err
	}
	fmt.Fprint(t.out, label+": ")
	data, err := term.ReadPassword(int(t.in.Fd()))
	fmt.Fprintln(t.out)
	if err != nil {
		return "", ErrCancelled
	}
	return strings.TrimSpace(string(data)), nil
}

// Select lists choices and returns the value of the one picked by number,
// label or value.
func (t *Terminal) Select(label string, choices []Choice) (string, error) {
	if len(choices) == 0 {
		return "", errors.New("nothing to choose from")
	}
	fmt.Fprintln(t.out, label)
	for i, c := range choices {
		fmt.Fprintf(t.out, "  %d) %s\n", i+1, c.Label)
	}

	suggestions := make([]goprompt.Suggest, len(choices))
	for i, c := range choices {
		suggestions[i] = goprompt.Suggest{Text: c.Value, Description: c.Label}
	}
	complete := func(d goprompt.Document) ([]goprompt.Suggest, istrings.RuneNumber, istrings.RuneNumber) {
		end := d.CurrentRuneIndex()
		w := d.GetWordBeforeCursor()
		start := end - istrings.RuneCountInString(w)
		return goprompt.FilterHasPrefix(suggestions, w, true), start, end
	}

	for {
		answer, err := t.readLine("> ", complete)
		if err != nil {
			return "", err
		}
		if v, ok := Match(choices, answer); ok {
			return v, nil
		}
		fmt.Fprintf(t.out, "Please enter a number between 1 and %d\n", len(choices))
	}
}

// MultiSelect lists choices and returns the values of those picked in a
// comma separated answer.
func (t *Terminal) MultiSelect(label string, choices []Choice) ([]string, error) {
	if len(choices) == 0 {
		return nil, errors.New("nothing to choose from")
	}
	fmt.Fprintln(t.out, label)
	for i, c := range choices {
		fmt.Fprintf(t.out, "  %d) %s\n", i+1, c.Label)
	}

	suggestions := make([]goprompt.Suggest, len(choices))
	for i, c := range choices {
		suggestions[i] = goprompt.Suggest{Text: c.Value, Description: c.Label}
	}
	complete := func(d goprompt.Document) ([]goprompt.Suggest, istrings.RuneNumber, istrings.RuneNumber) {
		end := d.CurrentRuneIndex()
		w := d.GetWordBeforeCursorUntilSeparator(",")
		start := end - istrings.RuneCountInString(w)
		return goprompt.FilterHasPrefix(suggestions, strings.TrimSpace(w), true), start, end
	}

	for {
		answer, err := t.readLine("> ", complete)
		if err != nil {
			return nil, err
		}
		if values, ok := MatchAll(choices, answer); ok {
			return values, nil
		}
		fmt.Fprintf(t.out, "Please enter numbers between 1 and %d, separated by commas\n", len(choices))
	}
}

// Confirm asks a yes/no question defaulting to no.
func (t *Terminal) Confirm(label string) (bool, error) {
	answer, err := t.readLine(label+" (y/N): ", nil)
	if err != nil {
		return false, err
	}
	return IsYes(answer), nil
}

// Match finds the choice an answer refers to: a 1-based index, a value or a
// label, case-insensitively.
func Match(choices []Choice, answer string) (string, bool) {
	answer = strings.TrimSpace(answer)
	if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(choices) {
		return choices[n-1].Value, true
	}
	for _, c := range choices {
		if strings.EqualFold(answer, c.Value) || strings.EqualFold(answer, c.Label) {
			return c.Value, true
		}
	}
	return "", false
}

// MatchAll resolves a comma separated answer with Match. Every item must
// match and at least one must be given; repeated picks are kept once.
func MatchAll(choices []Choice, answer string) ([]string, bool) {
	var values []string
	seen := map[string]bool{}
	for _, part := range strings.Split(answer, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		v, ok := Match(choices, part)
		if !ok {
			return nil, false
		}
		if !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
	}
	return values, len(values) > 0
}

// IsYes reports whether answer is an affirmative reply.
func IsYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
