package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tigrisdata/cli/internal/constants"
)

// Environment variable names
const (
	// Endpoints
	EnvStorageEndpoint       = "TIGRIS_STORAGE_ENDPOINT"
	EnvLegacyStorageEndpoint = "TIGRIS_ENDPOINT"
	EnvIAMEndpoint           = "TIGRIS_STORAGE_IAM_ENDPOINT"
	EnvMgmtEndpoint          = "TIGRIS_MGMT_ENDPOINT"

	// Identity provider
	EnvAuth0Domain   = "AUTH0_DOMAIN"
	EnvAuth0ClientID = "AUTH0_CLIENT_ID"
	EnvAuth0Audience = "AUTH0_AUDIENCE"

	// Credentials
	EnvProfile         = "TIGRIS_PROFILE"
	EnvAWSProfile      = "AWS_PROFILE"
	EnvAccessKeyID     = "TIGRIS_STORAGE_ACCESS_KEY_ID"
	EnvSecretAccessKey = "TIGRIS_STORAGE_SECRET_ACCESS_KEY"

	// Runtime
	EnvEnvironment = "TIGRIS_ENV"
	EnvLogLevel    = "TIGRIS_LOG_LEVEL"
	EnvLogFormat   = "TIGRIS_LOG_FORMAT"
	EnvLogFile     = "TIGRIS_LOG_FILE"
	EnvLoader      = "TIGRIS_CLI_LOADER"

	// Update check
	EnvNoUpdateCheck        = "TIGRIS_NO_UPDATE_CHECK"
	EnvUpdateCheckInterval  = "TIGRIS_UPDATE_CHECK_INTERVAL_MS"
	EnvUpdateNotifyInterval = "TIGRIS_UPDATE_NOTIFY_INTERVAL_MS"
)

// Environments selectable with TIGRIS_ENV.
const (
	EnvironmentDevelopment = "development"
	EnvironmentProduction  = "production"
)

// Errors
var (
	ErrInvalidEnvironment = errors.New("invalid environment. Set TIGRIS_ENV to 'development' or 'production'")
	ErrInvalidLoader      = errors.New("invalid loader. Set TIGRIS_CLI_LOADER to 'static' or 'dynamic'")
)

// Getenv looks up an environment variable; tests substitute a map.
type Getenv func(string) string

// Auth0Config identifies the device-flow identity provider.
type Auth0Config struct {
	Domain   string
	ClientID string
	Audience string
}

// BaseURL returns https://<domain> unless the domain already carries a scheme.
func (a Auth0Config) BaseURL() string {
	if strings.HasPrefix(a.Domain, "http://") || strings.HasPrefix(a.Domain, "https://") {
		return strings.TrimSuffix(a.Domain, "/")
	}
	return "https://" + strings.TrimSuffix(a.Domain, "/")
}

// Config holds the process configuration after layering defaults, the yaml
// config file and the environment.
type Config struct {
	Environment string

	StorageEndpoint string
	IAMEndpoint     string
	MgmtEndpoint    string
	Auth0           Auth0Config

	// Profile names a shared-credentials profile; empty means none selected.
	Profile string
	// Environment credential pair, both or neither.
	AccessKeyID     string
	SecretAccessKey string

	OutputFormat string
	LogLevel     string
	LogFormat    string
	LogFile      string
	Loader       string

	// UpdateCheck enables the release check after each command.
	UpdateCheck          bool
	UpdateCheckInterval  time.Duration
	UpdateNotifyInterval time.Duration
}

// NewConfig creates a Config with built-in defaults
func NewConfig() *Config {
	return &Config{
		Environment:     EnvironmentDevelopment,
		StorageEndpoint: constants.DefaultStorageEndpoint,
		IAMEndpoint:     constants.DefaultIAMEndpoint,
		MgmtEndpoint:    constants.DefaultManagementEndpoint,
		OutputFormat:    "table",
		LogLevel:        "warn",

		UpdateCheck:          true,
		UpdateCheckInterval:  constants.UpdateCheckInterval,
		UpdateNotifyInterval: constants.UpdateNotifyInterval,
	}
}

// Load builds a validated Config from the config file and the process
// environment.
func Load() (*Config, error) {
	c := NewConfig()
	if err := c.Validate(os.Getenv); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate layers file config and environment over the defaults, then checks
// the result. Errors loading the config file are ignored; env wins anyway.
func (c *Config) Validate(getenv Getenv) error {
	if fc, err := LoadConfigFile(); err == nil {
		c.ApplyFileConfig(fc)
	}
	c.applyEnv(getenv)

	switch c.Environment {
	case EnvironmentDevelopment, EnvironmentProduction:
	default:
		return ErrInvalidEnvironment
	}
	c.applyAuth0Defaults()

	switch c.Loader {
	case "", "static", "dynamic":
	default:
		return ErrInvalidLoader
	}

	for name, raw := range map[string]string{
		"storage endpoint":    c.StorageEndpoint,
		"IAM endpoint":        c.IAMEndpoint,
		"management endpoint": c.MgmtEndpoint,
	} {
		if err := validateURL(raw); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, raw, err)
		}
	}
	return nil
}

func (c *Config) applyEnv(getenv Getenv) {
	if v := getenv(EnvEnvironment); v != "" {
		c.Environment = strings.ToLower(strings.TrimSpace(v))
	}
	if v := getenv(EnvLegacyStorageEndpoint); v != "" {
		c.StorageEndpoint = v
	}
	if v := getenv(EnvStorageEndpoint); v != "" {
		c.StorageEndpoint = v
	}
	if v := getenv(EnvIAMEndpoint); v != "" {
		c.IAMEndpoint = v
	}
	if v := getenv(EnvMgmtEndpoint); v != "" {
		c.MgmtEndpoint = v
	}
	if v := getenv(EnvAuth0Domain); v != "" {
		c.Auth0.Domain = v
	}
	if v := getenv(EnvAuth0ClientID); v != "" {
		c.Auth0.ClientID = v
	}
	if v := getenv(EnvAuth0Audience); v != "" {
		c.Auth0.Audience = v
	}
	if v := getenv(EnvAWSProfile); v != "" {
		c.Profile = v
	}
	if v := getenv(EnvProfile); v != "" {
		c.Profile = v
	}

	ak := strings.TrimSpace(getenv(EnvAccessKeyID))
	sk := strings.TrimSpace(getenv(EnvSecretAccessKey))
	if ak != "" && sk != "" {
		c.AccessKeyID, c.SecretAccessKey = ak, sk
	}

	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := getenv(EnvLogFormat); v != "" {
		c.LogFormat = v
	}
	if v := getenv(EnvLogFile); v != "" {
		c.LogFile = v
	}
	if v := getenv(EnvLoader); v != "" {
		c.Loader = strings.ToLower(v)
	}
	if getenv(EnvNoUpdateCheck) == "1" {
		c.UpdateCheck = false
	}
	if d, ok := millis(getenv(EnvUpdateCheckInterval)); ok {
		c.UpdateCheckInterval = d
	}
	if d, ok := millis(getenv(EnvUpdateNotifyInterval)); ok {
		c.UpdateNotifyInterval = d
	}

	c.StorageEndpoint = strings.TrimSuffix(c.StorageEndpoint, "/")
	c.IAMEndpoint = strings.TrimSuffix(c.IAMEndpoint, "/")
	c.MgmtEndpoint = strings.TrimSuffix(c.MgmtEndpoint, "/")
}

// applyAuth0Defaults fills identity provider fields not set explicitly with the
// defaults of the selected environment.
func (c *Config) applyAuth0Defaults() {
	domain, clientID, audience := constants.DevAuth0Domain, constants.DevAuth0ClientID, constants.DevAuth0Audience
	if c.Environment == EnvironmentProduction {
		domain, clientID, audience = constants.ProdAuth0Domain, constants.ProdAuth0ClientID, constants.ProdAuth0Audience
	}
	if c.Auth0.Domain == "" {
		c.Auth0.Domain = domain
	}
	if c.Auth0.ClientID == "" {
		c.Auth0.ClientID = clientID
	}
	if c.Auth0.Audience == "" {
		c.Auth0.Audience = audience
	}
}

// HasEnvCredentials reports whether both halves of the environment key pair are set.
func (c *Config) HasEnvCredentials() bool {
	return c.AccessKeyID != "" && c.SecretAccessKey != ""
}

// millis parses a positive millisecond count. Anything else keeps the default.
func millis(raw string) (time.Duration, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return time.Duration(n) * time.Millisecond, true
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("scheme must be http or https")
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}
