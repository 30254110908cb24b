package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alexcrawford/actual-monzo-sub000/internal/core/domain"
	"github.com/alexcrawford/actual-monzo-sub000/internal/core/ports/driven"
	"github.com/alexcrawford/actual-monzo-sub000/internal/logger"
)

// DefaultImportWindow is how far back the first import of an account
// reaches when the ledger has no watermark and no --since was given.
const DefaultImportWindow = 30 * 24 * time.Hour

// SourceFactory builds a transaction source for a fresh access token.
// The token manager has already refreshed and persisted the credential
// by the time the factory is called.
type SourceFactory func(cred *domain.Credential) driven.TransactionSource

// ImportOptions bound one import run.
type ImportOptions struct {
	// Since overrides the per-account ledger watermark when set.
	Since time.Time
	// Before defaults to the current time when zero.
	Before time.Time
	// AccountIDs restricts the run to these Monzo accounts. Empty means
	// every configured mapping.
	AccountIDs []string
}

// ImportResult summarises one account mapping's import.
type ImportResult struct {
	Mapping  domain.AccountMapping
	Since    time.Time
	Before   time.Time
	Fetched  int
	Imported int
}

// ImportSummary is the outcome of one import run.
type ImportSummary struct {
	RunID   string
	Results []ImportResult
}

// Importer runs the import pipeline: freshen the token, then for each
// configured mapping fetch the transaction window and hand the filtered
// transactions to the sink. Mappings are processed strictly
// sequentially; nothing fetches concurrently with a retry.
type Importer struct {
	tokens    *TokenManager
	ledger    driven.ImportLedger
	sink      driven.TransactionSink
	newSource SourceFactory
	now       func() time.Time
}

// NewImporter creates an importer.
func NewImporter(
	tokens *TokenManager,
	ledger driven.ImportLedger,
	sink driven.TransactionSink,
	newSource SourceFactory,
) *Importer {
	return &Importer{
		tokens:    tokens,
		ledger:    ledger,
		sink:      sink,
		newSource: newSource,
		now:       time.Now,
	}
}

// Run executes one import over the configured account mappings.
func (i *Importer) Run(ctx context.Context, cfg *domain.Config, opts ImportOptions) (*ImportSummary, error) {
	mappings := selectMappings(cfg.Mappings, opts.AccountIDs)
	if len(mappings) == 0 {
		return nil, fmt.Errorf("no account mappings configured; run setup first")
	}

	// Refresh completes and persists before any fetch begins.
	cred, err := i.tokens.EnsureFresh(ctx, cfg)
	if err != nil {
		return nil, err
	}
	source := i.newSource(cred)

	summary := &ImportSummary{RunID: uuid.NewString()}
	logger.Debug("import run %s over %d mappings", summary.RunID, len(mappings))

	for _, mapping := range mappings {
		result, err := i.importMapping(ctx, source, mapping, opts, summary.RunID)
		if err != nil {
			return nil, fmt.Errorf("importing %s: %w", mapping.MonzoAccountID, err)
		}
		summary.Results = append(summary.Results, *result)
	}

	return summary, nil
}

func (i *Importer) importMapping(
	ctx context.Context,
	source driven.TransactionSource,
	mapping domain.AccountMapping,
	opts ImportOptions,
	runID string,
) (*ImportResult, error) {
	now := i.now()

	since := opts.Since
	if since.IsZero() {
		watermark, err := i.ledger.Watermark(ctx, mapping.MonzoAccountID)
		if err != nil {
			return nil, fmt.Errorf("reading ledger watermark: %w", err)
		}
		since = watermark
	}
	if since.IsZero() {
		since = now.Add(-DefaultImportWindow)
	}

	before := opts.Before
	if before.IsZero() {
		before = now
	}

	txns, err := source.Transactions(ctx, mapping.MonzoAccountID, since, before)
	if err != nil {
		return nil, err
	}
	logger.Debug("fetched %d transactions for %s (%s to %s)",
		len(txns), mapping.MonzoAccountID, since.Format(time.RFC3339), before.Format(time.RFC3339))

	imported, err := i.sink.ImportTransactions(ctx, mapping, txns)
	if err != nil {
		return nil, fmt.Errorf("handing transactions to sink: %w", err)
	}

	run := domain.ImportRun{
		ID:             runID,
		MonzoAccountID: mapping.MonzoAccountID,
		Since:          since,
		Until:          before,
		Imported:       imported,
		RanAt:          i.now(),
	}
	if err := i.ledger.RecordRun(ctx, run); err != nil {
		return nil, fmt.Errorf("recording import run: %w", err)
	}

	return &ImportResult{
		Mapping:  mapping,
		Since:    since,
		Before:   before,
		Fetched:  len(txns),
		Imported: imported,
	}, nil
}

func selectMappings(mappings []domain.AccountMapping, accountIDs []string) []domain.AccountMapping {
	if len(accountIDs) == 0 {
		return mappings
	}
	wanted := make(map[string]bool, len(accountIDs))
	for _, id := range accountIDs {
		wanted[id] = true
	}
	var selected []domain.AccountMapping
	for _, m := range mappings {
		if wanted[m.MonzoAccountID] {
			selected = append(selected, m)
		}
	}
	return selected
}
