// Package file implements the TOML-backed configuration store.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/alexcrawford/actual-monzo-sub000/internal/core/domain"
	"github.com/alexcrawford/actual-monzo-sub000/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore persists the configuration as TOML under the
// actual-monzo config directory. The file holds the OAuth credential
// set, so it is created with 0600 permissions and written atomically
// (temp file + rename) so a crash never leaves a half-written
// credential behind.
type ConfigStore struct {
	mu       sync.Mutex
	filePath string
}

// NewConfigStore creates a config store rooted at configDir.
// If configDir is empty, defaults to ~/.actual-monzo.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".actual-monzo")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	return &ConfigStore{
		filePath: filepath.Join(configDir, "config.toml"),
	}, nil
}

// Path returns the config file location.
func (s *ConfigStore) Path() string {
	return s.filePath
}

// fileSchema is the on-disk TOML layout.
type fileSchema struct {
	Monzo            monzoSection     `toml:"monzo"`
	Actual           actualSection    `toml:"actual"`
	Mappings         []mappingSection `toml:"mappings,omitempty"`
	SetupCompletedAt *time.Time       `toml:"setup_completed_at,omitempty"`
}

type monzoSection struct {
	ClientID       string     `toml:"client_id"`
	ClientSecret   string     `toml:"client_secret"`
	AccessToken    string     `toml:"access_token,omitempty"`
	RefreshToken   string     `toml:"refresh_token,omitempty"`
	TokenExpiresAt *time.Time `toml:"token_expires_at,omitempty"`
	AuthorizedAt   *time.Time `toml:"authorized_at,omitempty"`
}

type actualSection struct {
	ServerURL   string     `toml:"server_url,omitempty"`
	BudgetID    string     `toml:"budget_id,omitempty"`
	ValidatedAt *time.Time `toml:"validated_at,omitempty"`
}

type mappingSection struct {
	MonzoAccountID   string `toml:"monzo_account_id"`
	MonzoAccountName string `toml:"monzo_account_name,omitempty"`
	ActualAccountID  string `toml:"actual_account_id"`
}

// Load reads the stored configuration. A missing file yields an empty
// config; a file that fails to parse or violates the credential
// invariant yields *domain.MalformedConfigError.
func (s *ConfigStore) Load(_ context.Context) (*domain.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if errors.Is(err, os.ErrNotExist) {
		return &domain.Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var schema fileSchema
	if err := toml.Unmarshal(data, &schema); err != nil {
		return nil, &domain.MalformedConfigError{Reason: err.Error()}
	}

	cfg := schemaToConfig(&schema)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration atomically with 0600 permissions.
func (s *ConfigStore) Save(_ context.Context, cfg *domain.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := toml.Marshal(configToSchema(cfg))
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	tmp := s.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err := os.Rename(tmp, s.filePath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing config: %w", err)
	}
	return nil
}

func schemaToConfig(schema *fileSchema) *domain.Config {
	cfg := &domain.Config{
		Monzo: domain.Credential{
			ClientID:     schema.Monzo.ClientID,
			ClientSecret: schema.Monzo.ClientSecret,
			AccessToken:  schema.Monzo.AccessToken,
			RefreshToken: schema.Monzo.RefreshToken,
		},
		Actual: domain.ActualConfig{
			ServerURL: schema.Actual.ServerURL,
			BudgetID:  schema.Actual.BudgetID,
		},
	}
	if schema.Monzo.TokenExpiresAt != nil {
		cfg.Monzo.TokenExpiresAt = *schema.Monzo.TokenExpiresAt
	}
	if schema.Monzo.AuthorizedAt != nil {
		cfg.Monzo.AuthorizedAt = *schema.Monzo.AuthorizedAt
	}
	if schema.Actual.ValidatedAt != nil {
		cfg.Actual.ValidatedAt = *schema.Actual.ValidatedAt
	}
	if schema.SetupCompletedAt != nil {
		cfg.SetupCompletedAt = *schema.SetupCompletedAt
	}
	for _, m := range schema.Mappings {
		cfg.Mappings = append(cfg.Mappings, domain.AccountMapping{
			MonzoAccountID:   m.MonzoAccountID,
			MonzoAccountName: m.MonzoAccountName,
			ActualAccountID:  m.ActualAccountID,
		})
	}
	return cfg
}

func configToSchema(cfg *domain.Config) *fileSchema {
	schema := &fileSchema{
		Monzo: monzoSection{
			ClientID:     cfg.Monzo.ClientID,
			ClientSecret: cfg.Monzo.ClientSecret,
			AccessToken:  cfg.Monzo.AccessToken,
			RefreshToken: cfg.Monzo.RefreshToken,
		},
		Actual: actualSection{
			ServerURL: cfg.Actual.ServerURL,
			BudgetID:  cfg.Actual.BudgetID,
		},
	}
	if !cfg.Monzo.TokenExpiresAt.IsZero() {
		t := cfg.Monzo.TokenExpiresAt
		schema.Monzo.TokenExpiresAt = &t
	}
	if !cfg.Monzo.AuthorizedAt.IsZero() {
		t := cfg.Monzo.AuthorizedAt
		schema.Monzo.AuthorizedAt = &t
	}
	if !cfg.Actual.ValidatedAt.IsZero() {
		t := cfg.Actual.ValidatedAt
		schema.Actual.ValidatedAt = &t
	}
	if !cfg.SetupCompletedAt.IsZero() {
		t := cfg.SetupCompletedAt
		schema.SetupCompletedAt = &t
	}
	for _, m := range cfg.Mappings {
		schema.Mappings = append(schema.Mappings, mappingSection{
			MonzoAccountID:   m.MonzoAccountID,
			MonzoAccountName: m.MonzoAccountName,
			ActualAccountID:  m.ActualAccountID,
		})
	}
	return schema
}
