// Package policies manages the IAM policies of the selected organization.
package policies

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tigrisdata/cli/internal/args"
	"github.com/tigrisdata/cli/internal/commands/cmdutil"
	"github.com/tigrisdata/cli/internal/display"
	"github.com/tigrisdata/cli/internal/handler"
	"github.com/tigrisdata/cli/internal/iam"
	"github.com/tigrisdata/cli/internal/messages"
)

func init() {
	handler.Provide("iam/policies/list", handler.Module{Default: List})
	handler.Provide("iam/policies/get", handler.Module{Default: Get})
	handler.Provide("iam/policies/create", handler.Module{Default: Create})
	handler.Provide("iam/policies/delete", handler.Module{Default: Delete})
	handler.Provide("iam/policies/edit", handler.Module{Default: Edit})
}

// Document modes of create.
const (
	modeDocument  = "document"
	modeReadOnly  = "readonly"
	modeReadWrite = "readwrite"
)

var errNoDocument = errors.New("Policy document is required (use --document or pipe JSON via stdin)")

var columns = []display.Column{
	{Key: "name", Header: "Name"},
	{Key: "id", Header: "ID"},
	{Key: "resource", Header: "ARN"},
	{Key: "attachments", Header: "Attachments"},
	{Key: "created", Header: "Created"},
}

func List(ctx context.Context, env *handler.Env, opts args.Options) error {
	msgs := env.Messages()
	msgs.Start(nil)

	client, err := env.IAMClient(ctx)
	if err != nil {
		return env.Fail(err, nil)
	}
	sp := display.NewSpinner("Fetching policies...")
	sp.Start()
	policies, err := client.ListPolicies(ctx)
	sp.Stop()
	if err != nil {
		return env.Fail(err, nil)
	}
	if len(policies) == 0 {
		msgs.Empty(nil)
		return nil
	}

	l := &display.Listing{Root: "policies", Item: "policy", Columns: columns}
	for _, p := range policies {
		l.Records = append(l.Records, display.Record{
			"name":        p.Name,
			"id":          p.ID,
			"resource":    p.Resource,
			"attachments": strconv.Itoa(p.AttachmentCount),
			"created":     display.FormatTime(p.Created),
		})
	}
	if err := l.Write(env.Out, cmdutil.Format(opts)); err != nil {
		return env.Fail(err, nil)
	}
	msgs.Success(messages.Vars{"count": len(policies)})
	return nil
}

// Get shows a policy's properties followed by its document.
func Get(ctx context.Context, env *handler.Env, opts args.Options) error {
	msgs := env.Messages()
	name := cmdutil.Value(opts, "name", "", 0)
	vars := messages.Vars{"name": name}
	msgs.Start(vars)

	client, err := env.IAMClient(ctx)
	if err != nil {
		return env.Fail(err, vars)
	}
	p, err := client.GetPolicy(ctx, name)
	if err != nil {
		return env.Fail(err, vars)
	}

	format := cmdutil.Format(opts)
	if format == display.FormatJSON {
		return display.WriteJSON(env.Out, p)
	}
	props := [][2]string{
		{"Name", p.Name},
		{"ID", p.ID},
		{"ARN", p.Resource},
		{"Description", p.Description},
		{"Attachments", strconv.Itoa(p.AttachmentCount)},
		{"Created", display.FormatTime(p.Created)},
		{"Updated", display.FormatTime(p.Updated)},
	}
	if format == display.FormatXML {
		return cmdutil.Properties("policy", append(props, [2]string{"Document", p.Document})).Write(env.Out, format)
	}
	if err := cmdutil.Properties("policy", props).Write(env.Out, format); err != nil {
		return err
	}
	if p.Document != "" {
		fmt.Fprintf(env.Out, "\nDocument:\n%s\n", indentDocument(p.Document))
	}
	msgs.Success(vars)
	return nil
}

// indentDocument pretty prints a JSON document, leaving anything else as is.
func indentDocument(doc string) string {
	var v any
	if err := json.Unmarshal([]byte(doc), &v); err != nil {
		return doc
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return doc
	}
	return string(out)
}

// Create creates a policy from a document given inline, read from a file or
// stdin, or generated for a set of buckets.
func Create(ctx context.Context, env *handler.Env, opts args.Options) error {
	msgs := env.Messages()
	name := cmdutil.Value(opts, "name", "", 0)
	vars := messages.Vars{"name": name}
	msgs.Start(vars)

	if !iam.ValidPolicyName(name) {
		return env.Fail(iam.ErrInvalidPolicyName, vars)
	}
	doc, err := document(env, opts)
	if err != nil {
		return env.Fail(err, vars)
	}

	client, err := env.IAMClient(ctx)
	if err != nil {
		return env.Fail(err, vars)
	}
	p, err := client.CreatePolicy(ctx, name, doc, opts.String("description", ""))
	if err != nil {
		return env.Fail(err, vars)
	}
	fmt.Fprintf(env.Out, "  ARN: %s\n", p.Resource)
	msgs.Success(vars)
	return nil
}

func document(env *handler.Env, opts args.Options) (string, error) {
	mode := opts.StringOr("mode", "m", modeDocument)
	switch mode {
	case modeReadOnly:
		return iam.BucketPolicy(opts.Strings("bucket", "b"), nil)
	case modeReadWrite:
		return iam.BucketPolicy(opts.Strings("bucket", "b"), opts.Strings("writable-bucket", "w"))
	case modeDocument:
	default:
		return "", fmt.Errorf("unknown mode %q", mode)
	}

	src := opts.String("document", "d")
	if strings.HasPrefix(strings.TrimSpace(src), "{") {
		return validDocument([]byte(src))
	}
	in, _, err := cmdutil.OpenInput(env, src)
	if errors.Is(err, cmdutil.ErrNoInput) {
		return "", errNoDocument
	}
	if err != nil {
		return "", err
	}
	defer in.Close()
	data, err := io.ReadAll(in)
	if err != nil {
		return "", err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return "", errNoDocument
	}
	return validDocument(data)
}

func validDocument(data []byte) (string, error) {
	if !json.Valid(data) {
		return "", errors.New("Policy document is not valid JSON")
	}
	return strings.TrimSpace(string(data)), nil
}

func Delete(ctx context.Context, env *handler.Env, opts args.Options) error {
	msgs := env.Messages()
	name := cmdutil.Value(opts, "name", "", 0)
	vars := messages.Vars{"name": name}
	msgs.Start(vars)

	ok, err := cmdutil.Confirm(env, opts.Bool("force", "f"), fmt.Sprintf("Are you sure you want to delete policy '%s'?", name))
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(env.Out, "Aborted")
		return nil
	}

	client, err := env.IAMClient(ctx)
	if err != nil {
		return env.Fail(err, vars)
	}
	if err := client.DeletePolicy(ctx, name); err != nil {
		return env.Fail(err, vars)
	}
	msgs.Success(vars)
	return nil
}
