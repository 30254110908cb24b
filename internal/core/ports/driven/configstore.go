package driven

import (
	"context"
	"time"

	"github.com/alexcrawford/actual-monzo-sub000/internal/core/domain"
)

// ConfigStore persists the configuration, including the credential set.
type ConfigStore interface {
	// Load reads the stored configuration. A missing file yields an
	// empty config; a file that fails schema validation yields
	// *domain.MalformedConfigError.
	Load(ctx context.Context) (*domain.Config, error)

	// Save writes the configuration atomically. The token lifecycle
	// manager calls this before a refreshed token is first used, so a
	// crash never loses a rotated refresh token.
	Save(ctx context.Context, cfg *domain.Config) error

	// Path returns the config file location, for display.
	Path() string
}

// ImportLedger records completed import windows so later runs resume
// from where the last one stopped.
type ImportLedger interface {
	// Watermark returns the end of the last imported window for the
	// account, or the zero time when the account has never been imported.
	Watermark(ctx context.Context, monzoAccountID string) (time.Time, error)

	// RecordRun persists one completed import window.
	RecordRun(ctx context.Context, run domain.ImportRun) error

	// Close releases the underlying database.
	Close() error
}
