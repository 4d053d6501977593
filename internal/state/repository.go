package state

import (
	"github.com/tigrisdata/cli/internal/logging"
)

// Repository gives typed access to the state held by a Store.
type Repository struct {
	store  Store
	logger *logging.Logger
}

// NewRepository wraps store. A nil logger discards diagnostics.
func NewRepository(store Store, logger *logging.Logger) *Repository {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Repository{store: store, logger: logger}
}

// Load returns the current state. An unreadable file yields an empty state
// so a corrupt file never blocks a new login.
func (r *Repository) Load() *Config {
	cfg, err := r.store.Read()
	if err != nil {
		r.logger.Warn("ignoring unreadable state", logging.Fields{"error": err.Error()})
	}
	if cfg == nil {
		cfg = &Config{}
	}
	return cfg
}

// Update loads the state, applies fn and writes the result. Nothing is
// written when fn returns an error.
func (r *Repository) Update(fn func(cfg *Config) error) error {
	cfg := r.Load()
	if err := fn(cfg); err != nil {
		return err
	}
	return r.store.Write(cfg)
}

func (r *Repository) Tokens() *Tokens {
	return r.Load().Tokens
}

func (r *Repository) SaveTokens(t *Tokens) error {
	return r.Update(func(cfg *Config) error {
		cfg.Tokens = t
		return nil
	})
}

// ClearTokens drops the OAuth token set.
func (r *Repository) ClearTokens() error {
	return r.Update(func(cfg *Config) error {
		cfg.Tokens = nil
		return nil
	})
}

func (r *Repository) Organizations() []Organization {
	return r.Load().Organizations
}

// SetOrganizations replaces the organization list. The selection is dropped
// when it is no longer in the list.
func (r *Repository) SetOrganizations(orgs []Organization) error {
	return r.Update(func(cfg *Config) error {
		cfg.Organizations = orgs
		if _, ok := cfg.FindOrganization(cfg.SelectedOrganization); !ok {
			cfg.SelectedOrganization = ""
		}
		return nil
	})
}

func (r *Repository) SelectedOrganization() string {
	return r.Load().SelectedOrganization
}

func (r *Repository) SelectOrganization(id string) error {
	return r.Update(func(cfg *Config) error {
		cfg.SelectedOrganization = id
		return nil
	})
}

func (r *Repository) SavedCredentials() *Credentials {
	return r.Load().Credentials
}

func (r *Repository) SaveCredentials(c *Credentials) error {
	return r.Update(func(cfg *Config) error {
		cfg.Credentials = c
		return nil
	})
}

func (r *Repository) TemporaryCredentials() *Credentials {
	return r.Load().TemporaryCredentials
}

func (r *Repository) SetTemporaryCredentials(c *Credentials) error {
	return r.Update(func(cfg *Config) error {
		cfg.TemporaryCredentials = c
		return nil
	})
}

func (r *Repository) LoginMethod() LoginMethod {
	return r.Load().LoginMethod
}

func (r *Repository) SetLoginMethod(m LoginMethod) error {
	return r.Update(func(cfg *Config) error {
		cfg.LoginMethod = m
		return nil
	})
}

// ClearAll ends the session and keeps only the saved credentials.
func (r *Repository) ClearAll() error {
	return r.Update(func(cfg *Config) error {
		*cfg = Config{Credentials: cfg.Credentials}
		return nil
	})
}
