package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexcrawford/actual-monzo-sub000/internal/adapters/driven/monzo"
	"github.com/alexcrawford/actual-monzo-sub000/internal/core/domain"
	"github.com/alexcrawford/actual-monzo-sub000/internal/core/services"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List Monzo accounts visible to the authorized user",
	RunE:  runAccounts,
}

func init() {
	rootCmd.AddCommand(accountsCmd)
}

func runAccounts(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := openConfigStore()
	if err != nil {
		return err
	}
	cfg, err := store.Load(ctx)
	if err != nil {
		return err
	}
	if !cfg.Monzo.HasToken() {
		return fmt.Errorf("no Monzo authorization; run 'actual-monzo setup' first")
	}

	gateway := monzo.NewGateway()
	cred, err := services.NewTokenManager(gateway, store).EnsureFresh(ctx, cfg)
	if err != nil {
		return err
	}

	accounts, err := monzo.NewClient(monzo.TokenSource(cred)).Accounts(ctx)
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		cmd.Println("No accounts found.")
		return nil
	}

	mapped := make(map[string]domain.AccountMapping, len(cfg.Mappings))
	for _, m := range cfg.Mappings {
		mapped[m.MonzoAccountID] = m
	}

	cmd.Println(styleTitle.Render("Monzo accounts"))
	for _, a := range accounts {
		line := fmt.Sprintf("  %s  %s (%s)", a.ID, a.Description, a.Type)
		if a.Closed {
			line += "  " + styleMuted.Render("closed")
		}
		if m, ok := mapped[a.ID]; ok {
			line += "  " + styleSuccess.Render("mapped to "+m.ActualAccountID)
		}
		cmd.Println(line)
	}
	return nil
}
