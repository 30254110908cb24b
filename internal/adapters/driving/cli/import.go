package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexcrawford/actual-monzo-sub000/internal/adapters/driven/monzo"
	"github.com/alexcrawford/actual-monzo-sub000/internal/core/domain"
	"github.com/alexcrawford/actual-monzo-sub000/internal/core/ports/driven"
	"github.com/alexcrawford/actual-monzo-sub000/internal/core/services"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import Monzo transactions for the configured account mappings",
	Long: `Fetches transactions for every configured account mapping and emits
them as import records for the Actual Budget sync.

Each account resumes from its ledger watermark unless --since is given.
Declined transactions are excluded. The stored access token is
refreshed automatically when it is close to expiry.

Examples:
  actual-monzo import
  actual-monzo import --since 2026-01-01
  actual-monzo import --account acc_00009ABC --out transactions.jsonl`,
	RunE: runImport,
}

var (
	importSince    string
	importBefore   string
	importAccounts []string
	importOut      string
)

func init() {
	importCmd.Flags().StringVar(&importSince, "since", "", "start of the window (YYYY-MM-DD or RFC 3339); overrides the ledger watermark")
	importCmd.Flags().StringVar(&importBefore, "before", "", "end of the window (YYYY-MM-DD or RFC 3339); defaults to now")
	importCmd.Flags().StringSliceVar(&importAccounts, "account", nil, "restrict to these Monzo account ids")
	importCmd.Flags().StringVar(&importOut, "out", "", "write import records to this file instead of stdout")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	opts := services.ImportOptions{AccountIDs: importAccounts}
	var err error
	if importSince != "" {
		if opts.Since, err = parseTimeFlag(importSince); err != nil {
			return fmt.Errorf("invalid --since: %w", err)
		}
	}
	if importBefore != "" {
		if opts.Before, err = parseTimeFlag(importBefore); err != nil {
			return fmt.Errorf("invalid --before: %w", err)
		}
	}

	store, err := openConfigStore()
	if err != nil {
		return err
	}
	cfg, err := store.Load(ctx)
	if err != nil {
		return err
	}

	switch state := cfg.State(time.Now()); state {
	case domain.StateComplete, domain.StateExpiredTokens:
		// Expired tokens are recovered by refresh below; a failed
		// refresh reports ErrNoRefreshToken or RefreshFailedError and
		// the user re-runs setup.
	default:
		return fmt.Errorf("configuration is %s; run 'actual-monzo setup' first", state)
	}

	ledger, err := openLedger()
	if err != nil {
		return err
	}
	defer ledger.Close()

	var out io.Writer = cmd.OutOrStdout()
	if importOut != "" {
		f, err := os.Create(importOut)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	gateway := monzo.NewGateway()
	importer := services.NewImporter(
		services.NewTokenManager(gateway, store),
		ledger,
		newJSONSink(out),
		func(cred *domain.Credential) driven.TransactionSource {
			return monzo.NewClient(monzo.TokenSource(cred))
		},
	)

	summary, err := importer.Run(ctx, cfg, opts)
	if err != nil {
		return err
	}

	cmd.PrintErrln(styleTitle.Render("Import summary") + styleMuted.Render(" (run "+summary.RunID+")"))
	total := 0
	for _, r := range summary.Results {
		name := r.Mapping.MonzoAccountName
		if name == "" {
			name = r.Mapping.MonzoAccountID
		}
		cmd.PrintErrf("  %s %s: %d transactions (%s to %s)\n",
			styleSuccess.Render("✓"), name, r.Imported,
			r.Since.Format("2006-01-02"), r.Before.Format("2006-01-02"))
		total += r.Imported
	}
	cmd.PrintErrf("Imported %d transaction(s) across %d account(s).\n", total, len(summary.Results))
	return nil
}

func parseTimeFlag(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}
