package buckets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tigrisdata/cli/internal/args"
	"github.com/tigrisdata/cli/internal/commands/cmdutil"
	"github.com/tigrisdata/cli/internal/handler"
	"github.com/tigrisdata/cli/internal/messages"
	"github.com/tigrisdata/cli/internal/storage"
)

var errNoSetting = errors.New("At least one setting is required")

// Set changes the given settings of a bucket and leaves the rest alone.
func Set(ctx context.Context, env *handler.Env, opts args.Options) error {
	msgs := env.Messages()
	name := cmdutil.Value(opts, "name", "", 0)
	vars := messages.Vars{"name": name}
	msgs.Start(vars)
	if name == "" {
		return env.Fail(errors.New("Bucket name is required"), vars)
	}

	settings, err := parseSettings(opts)
	if err != nil {
		return env.Fail(err, vars)
	}
	if settings.Empty() {
		return env.Fail(errNoSetting, vars)
	}

	client, err := env.Storage(ctx)
	if err != nil {
		return env.Fail(err, vars)
	}
	if err := client.UpdateBucket(ctx, name, settings); err != nil {
		return env.Fail(err, vars)
	}
	msgs.Success(vars)
	return nil
}

func parseSettings(opts args.Options) (storage.BucketSettings, error) {
	var s storage.BucketSettings
	switch access := opts.String("access", ""); access {
	case "":
	case "public", "private":
		public := access == "public"
		s.Public = &public
	default:
		return s, fmt.Errorf("Invalid access %q. Must be one of: public, private", access)
	}

	for _, r := range opts.Strings("region", "") {
		if r != "" {
			s.Regions = append(s.Regions, r)
		}
	}

	var err error
	if s.AllowObjectACL, err = optionalBool(opts, "allow-object-acl"); err != nil {
		return s, err
	}
	if s.DisableDirectoryListing, err = optionalBool(opts, "disable-directory-listing"); err != nil {
		return s, err
	}
	if s.DeleteProtection, err = optionalBool(opts, "enable-delete-protection"); err != nil {
		return s, err
	}
	s.CacheControl = optionalString(opts, "cache-control")
	s.CustomDomain = optionalString(opts, "custom-domain")
	return s, nil
}

// optionalBool is nil when the option was not given, so an explicit false
// can be told apart from no change.
func optionalBool(opts args.Options, name string) (*bool, error) {
	v, ok := args.Lookup(opts, name, "")
	if !ok {
		return nil, nil
	}
	var b bool
	switch t := v.(type) {
	case bool:
		b = t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "1", "":
			b = true
		case "false", "no", "0":
		default:
			return nil, fmt.Errorf("Invalid value %q for --%s. Use true or false", t, name)
		}
	default:
		return nil, fmt.Errorf("Invalid value for --%s", name)
	}
	return &b, nil
}

func optionalString(opts args.Options, name string) *string {
	if _, ok := args.Lookup(opts, name, ""); !ok {
		return nil
	}
	v := opts.String(name, "")
	return &v
}
