package policies

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tigrisdata/cli/internal/args"
	"github.com/tigrisdata/cli/internal/commands/cmdutil"
	"github.com/tigrisdata/cli/internal/handler"
	"github.com/tigrisdata/cli/internal/messages"
	"github.com/tigrisdata/cli/internal/prompt"
)

var errNoChange = errors.New("Either --document or --description is required.")

// Edit replaces the document or the description of a policy. The policy
// is chosen from a list when no name is given and a terminal is attached.
func Edit(ctx context.Context, env *handler.Env, opts args.Options) error {
	msgs := env.Messages()
	name := cmdutil.Value(opts, "name", "", 0)
	description := opts.String("description", "")
	vars := messages.Vars{"name": name}
	msgs.Start(vars)

	if name == "" && (!env.Interactive() || env.Prompt == nil) {
		return env.Fail(errors.New("Policy ARN is required when piping document via stdin."), vars)
	}
	doc, err := editDocument(env, opts.String("document", "d"), description == "")
	if err != nil {
		return env.Fail(err, vars)
	}
	if doc == "" && description == "" {
		return env.Fail(errNoChange, vars)
	}

	client, err := env.IAMClient(ctx)
	if err != nil {
		return env.Fail(err, vars)
	}
	if name == "" {
		policies, err := client.ListPolicies(ctx)
		if err != nil {
			return env.Fail(err, vars)
		}
		if len(policies) == 0 {
			msgs.Empty(vars)
			return nil
		}
		choices := make([]prompt.Choice, len(policies))
		for i, p := range policies {
			choices[i] = prompt.Choice{Label: fmt.Sprintf("%s (%s)", p.Name, p.Resource), Value: p.Resource}
		}
		if name, err = env.Prompt.Select("Select a policy to edit:", choices); err != nil {
			return err
		}
	}

	p, err := client.EditPolicy(ctx, name, doc, description)
	if err != nil {
		return env.Fail(err, vars)
	}
	vars["name"] = p.Name
	msgs.Success(vars)
	return nil
}

// editDocument resolves --document as inline JSON or a file path. Without
// it, piped stdin is read only when fromStdin is set.
func editDocument(env *handler.Env, src string, fromStdin bool) (string, error) {
	src = strings.TrimSpace(src)
	switch {
	case strings.HasPrefix(src, "{"):
		return validDocument([]byte(src))
	case src != "":
		data, err := os.ReadFile(src)
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("File not found: %s", src)
		}
		if err != nil {
			return "", err
		}
		return validDocument(data)
	case !fromStdin || env.Interactive() || env.In == nil:
		return "", nil
	}
	data, err := io.ReadAll(env.In)
	if err != nil {
		return "", err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return "", nil
	}
	return validDocument(data)
}
