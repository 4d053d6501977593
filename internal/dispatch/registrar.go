package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tigrisdata/cli/internal/args"
	"github.com/tigrisdata/cli/internal/handler"
	"github.com/tigrisdata/cli/internal/logging"
	"github.com/tigrisdata/cli/internal/messages"
	"github.com/tigrisdata/cli/internal/spec"
)

// InvalidNameError rejects command names that could escape a handler path.
type InvalidNameError struct {
	Name string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("Invalid command name %q: only alphanumeric, hyphens, and underscores allowed", e.Name)
}

// Registrar builds the cobra tree for a command spec.
type Registrar struct {
	Specs   *spec.Specs
	Loader  Loader
	Env     *handler.Env
	Out     io.Writer
	Err     io.Writer
	Version string
	Logger  *logging.Logger

	help  *Help
	nodes map[*cobra.Command]route
}

// route ties a cobra command back to its node.
type route struct {
	node *spec.Command
	path []string
}

// Build validates names, prunes unimplemented branches and returns the root
// command.
func (r *Registrar) Build() (*cobra.Command, error) {
	if r.Logger == nil {
		r.Logger = logging.Discard()
	}
	locator := Locator{Loader: r.Loader}
	r.help = &Help{Specs: r.Specs, Locator: locator, Version: r.Version}
	r.nodes = map[*cobra.Command]route{}

	cobra.EnableCommandSorting = false

	root := &cobra.Command{
		Use:           r.Specs.Name,
		Short:         r.Specs.Description,
		Version:       r.Version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, tokens []string) error {
			if len(tokens) == 0 {
				r.help.Main(r.Out)
				return nil
			}
			return r.notFound(nil, tokens, r.topLevelNames(locator))
		},
	}
	root.SetOut(r.Out)
	root.SetErr(r.Err)
	root.SetVersionTemplate("{{.Version}}\n")
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetHelpCommand(&cobra.Command{
		Use:   "help",
		Short: "Show general help",
		Run: func(*cobra.Command, []string) {
			r.help.Main(r.Out)
		},
	})
	root.SetHelpFunc(func(cmd *cobra.Command, _ []string) {
		rt, ok := r.nodes[cmd]
		if !ok {
			r.help.Main(r.Out)
			return
		}
		r.help.Command(r.Out, rt.node, rt.path)
	})

	var debug bool
	root.PersistentFlags().BoolVar(&debug, "debug", false, "Print debug logs to stderr")
	root.PersistentPreRun = func(*cobra.Command, []string) {
		if debug {
			r.Logger.SetLevel(logging.LevelDebug)
		}
	}

	if err := r.register(root, r.Specs.Commands, nil, locator); err != nil {
		return nil, err
	}
	return root, nil
}

// Help returns the renderer set up by Build.
func (r *Registrar) Help() *Help {
	return r.help
}

func (r *Registrar) topLevelNames(locator Locator) []string {
	var names []string
	for _, c := range locator.Implemented(r.Specs.Commands, nil) {
		names = append(names, c.Name)
		names = append(names, c.Aliases...)
	}
	return names
}

func (r *Registrar) register(parent *cobra.Command, nodes []*spec.Command, path []string, locator Locator) error {
	for _, node := range nodes {
		if !spec.ValidName(node.Name) {
			return &InvalidNameError{Name: node.Name}
		}
		current := extend(path, node.Name)
		if !locator.HasAnyImplementation(node, current) {
			continue
		}

		cmd := &cobra.Command{
			Use:     node.Name,
			Short:   node.Description,
			Aliases: node.Aliases,
			Args:    cobra.ArbitraryArgs,
		}
		r.nodes[cmd] = route{node: node, path: current}

		if node.IsLeaf() {
			r.bindFlags(cmd, node.Arguments)
			r.bindAction(cmd, node, node.Arguments, current, node.Message)
		} else {
			if err := r.register(cmd, node.Commands, current, locator); err != nil {
				return err
			}
			if def := node.DefaultChild(); def != nil {
				merged := mergeArguments(node.Arguments, def.Arguments)
				r.bindFlags(cmd, merged)
				message := node.Message
				if message == "" {
					message = def.Message
				}
				r.bindAction(cmd, def, merged, extend(current, def.Name), message)
			} else {
				node, current := node, current
				cmd.RunE = func(_ *cobra.Command, tokens []string) error {
					if len(tokens) > 0 {
						return r.notFound(current, tokens, nil)
					}
					r.help.Command(r.Out, node, current)
					return nil
				}
			}
		}

		helpNode, helpPath := node, current
		cmd.AddCommand(&cobra.Command{
			Use:   "help",
			Short: "Show help for this command",
			Run: func(*cobra.Command, []string) {
				r.help.Command(r.Out, helpNode, helpPath)
			},
		})
		parent.AddCommand(cmd)
	}
	return nil
}

// mergeArguments joins parent and default-child arguments, parent first.
// A name declared by both is kept once.
func mergeArguments(parent, child []*spec.Argument) []*spec.Argument {
	out := make([]*spec.Argument, 0, len(parent)+len(child))
	seen := map[string]bool{}
	for _, list := range [][]*spec.Argument{parent, child} {
		for _, a := range list {
			if seen[a.Name] {
				continue
			}
			seen[a.Name] = true
			out = append(out, a)
		}
	}
	return out
}

func (r *Registrar) bindFlags(cmd *cobra.Command, arguments []*spec.Argument) {
	flags := cmd.Flags()
	for _, a := range arguments {
		if a.Kind == spec.Positional || flags.Lookup(a.Name) != nil {
			continue
		}
		short := a.ShortAlias()
		if short != "" && flags.ShorthandLookup(short) != nil {
			short = ""
		}
		switch a.Kind {
		case spec.Flag:
			flags.BoolP(a.Name, short, false, a.Description)
		case spec.Boolean:
			flags.StringP(a.Name, short, a.Default, a.Description)
			flags.Lookup(a.Name).NoOptDefVal = "true"
		default:
			flags.StringP(a.Name, short, a.Default, a.Description)
		}
	}
}

// rawOptions collects every flag that was set or carries a default.
func rawOptions(flags *pflag.FlagSet, arguments []*spec.Argument) args.Options {
	raw := args.Options{}
	for _, a := range arguments {
		if a.Kind == spec.Positional {
			continue
		}
		f := flags.Lookup(a.Name)
		if f == nil {
			continue
		}
		switch a.Kind {
		case spec.Flag:
			if f.Changed {
				v, _ := flags.GetBool(a.Name)
				raw[a.Name] = v
			}
		default:
			if !f.Changed && f.DefValue == "" {
				continue
			}
			v := f.Value.String()
			if a.Kind == spec.Boolean && (v == "true" || v == "false") {
				raw[a.Name] = v == "true"
				continue
			}
			raw[a.Name] = v
		}
	}
	return raw
}

func (r *Registrar) bindAction(cmd *cobra.Command, target *spec.Command, arguments []*spec.Argument, path []string, message string) {
	cmd.RunE = func(c *cobra.Command, tokens []string) error {
		opts := args.ExtractValues(arguments, tokens, rawOptions(c.Flags(), arguments))
		if err := args.Validate(arguments, opts); err != nil {
			fmt.Fprintln(r.Err, err)
			return &handler.ExitError{Code: 1}
		}
		return r.invoke(c.Context(), target, path, opts, message)
	}
}

func (r *Registrar) invoke(ctx context.Context, node *spec.Command, path []string, opts args.Options, message string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	module, err := r.Loader.Resolve(path)
	if err != nil {
		fmt.Fprintln(r.Err, err)
		return &handler.ExitError{Code: 1}
	}
	fn := module.Callable(path[len(path)-1])
	if fn == nil {
		fmt.Fprintf(r.Err, "Command not implemented: %s\n", spec.Path(path))
		return &handler.ExitError{Code: 1}
	}

	if message != "" {
		fmt.Fprintln(r.Out, messages.Interpolate(message, nil))
	}

	env := r.Env
	if env == nil {
		env = &handler.Env{Out: r.Out, Err: r.Err, Logger: r.Logger}
	}
	r.Logger.Debug("running command", logging.Fields{"path": spec.Path(path)})
	return fn(ctx, env.WithCommand(node, path), opts)
}

func (r *Registrar) notFound(path, tokens []string, candidates []string) error {
	full := append(append([]string(nil), path...), tokens...)
	fmt.Fprintln(r.Err, (&NotFoundError{Path: full}).Error())
	if s := suggest(tokens[0], candidates); s != "" {
		fmt.Fprintf(r.Err, "Did you mean %q?\n", s)
	}
	return &handler.ExitError{Code: 1}
}

// Report prints err the way the CLI reports failures and returns the exit
// status.
func Report(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	var coded interface{ ExitCode() int }
	if errors.As(err, &coded) {
		return coded.ExitCode()
	}
	if isCancellation(err) {
		fmt.Fprintln(w, "\nOperation cancelled")
		return 1
	}
	fmt.Fprintf(w, "\nError: %s\n", strings.TrimSpace(err.Error()))
	return 1
}
