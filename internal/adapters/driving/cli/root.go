// Package cli implements the actual-monzo command line interface.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alexcrawford/actual-monzo-sub000/internal/adapters/driven/config/file"
	"github.com/alexcrawford/actual-monzo-sub000/internal/adapters/driven/storage/sqlite"
	"github.com/alexcrawford/actual-monzo-sub000/internal/logger"
)

var (
	version = "dev"

	flagVerbose   bool
	flagConfigDir string
)

var rootCmd = &cobra.Command{
	Use:   "actual-monzo",
	Short: "Import Monzo transactions into Actual Budget",
	Long: `actual-monzo connects a Monzo bank account to an Actual Budget file.

It authorizes against the Monzo API with the OAuth authorization code
flow through a short-lived local callback server, keeps the access
token fresh, and imports transactions resiliently against rate limits.

Start with 'actual-monzo setup', then run 'actual-monzo import'.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(flagVerbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "config directory (default ~/.actual-monzo)")
}

// Execute runs the root command. An interrupt cancels the command
// context; the authorization flow shuts its callback listener down on
// the way out so the port is always released.
func Execute(v string) error {
	version = v
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func openConfigStore() (*file.ConfigStore, error) {
	return file.NewConfigStore(flagConfigDir)
}

func openLedger() (*sqlite.Ledger, error) {
	return sqlite.NewLedger(flagConfigDir)
}
