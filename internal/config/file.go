package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the name of the config file
const ConfigFileName = "config.yaml"

// FileConfig represents the configuration file structure
type FileConfig struct {
	// "development" or "production"
	Environment string `yaml:"environment,omitempty"`

	Endpoints *EndpointsConfig `yaml:"endpoints,omitempty"`
	Auth      *AuthConfig      `yaml:"auth,omitempty"`
	Output    *OutputConfig    `yaml:"output,omitempty"`
	Log       *LogConfig       `yaml:"log,omitempty"`
}

type EndpointsConfig struct {
	Storage    string `yaml:"storage,omitempty"`
	IAM        string `yaml:"iam,omitempty"`
	Management string `yaml:"management,omitempty"`
}

// AuthConfig overrides the identity provider used by "tigris login oauth".
type AuthConfig struct {
	Domain   string `yaml:"domain,omitempty"`
	ClientID string `yaml:"client_id,omitempty"`
	Audience string `yaml:"audience,omitempty"`
	Profile  string `yaml:"profile,omitempty"`
}

type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // table, json or xml
}

type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
	File   string `yaml:"file,omitempty"`
}

// GetConfigPaths returns the paths to check for config files (in order of priority)
func GetConfigPaths() []string {
	var paths []string

	paths = append(paths, filepath.Join(".", ".tigris", ConfigFileName))

	if configDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(configDir, "tigris", ConfigFileName))
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".tigris", ConfigFileName))
	}

	return paths
}

// LoadConfigFile loads the first config file found, or an empty FileConfig.
func LoadConfigFile() (*FileConfig, error) {
	for _, path := range GetConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			return loadConfigFromPath(path)
		}
	}
	return &FileConfig{}, nil
}

func loadConfigFromPath(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return &cfg, nil
}

// ApplyFileConfig copies file values over the defaults. It runs before the
// environment is applied, so env always wins.
func (c *Config) ApplyFileConfig(fc *FileConfig) {
	if fc == nil {
		return
	}

	if fc.Environment != "" {
		c.Environment = fc.Environment
	}

	if e := fc.Endpoints; e != nil {
		if e.Storage != "" {
			c.StorageEndpoint = e.Storage
		}
		if e.IAM != "" {
			c.IAMEndpoint = e.IAM
		}
		if e.Management != "" {
			c.MgmtEndpoint = e.Management
		}
	}

	if a := fc.Auth; a != nil {
		if a.Domain != "" {
			c.Auth0.Domain = a.Domain
		}
		if a.ClientID != "" {
			c.Auth0.ClientID = a.ClientID
		}
		if a.Audience != "" {
			c.Auth0.Audience = a.Audience
		}
		if a.Profile != "" {
			c.Profile = a.Profile
		}
	}

	if fc.Output != nil && fc.Output.Format != "" {
		c.OutputFormat = fc.Output.Format
	}

	if l := fc.Log; l != nil {
		if l.Level != "" {
			c.LogLevel = l.Level
		}
		if l.Format != "" {
			c.LogFormat = l.Format
		}
		if l.File != "" {
			c.LogFile = l.File
		}
	}
}
