package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/alexcrawford/actual-monzo-sub000/internal/adapters/driven/monzo"
	"github.com/alexcrawford/actual-monzo-sub000/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration state and import watermarks",
	RunE:  runStatus,
}

var statusCheck bool

func init() {
	statusCmd.Flags().BoolVar(&statusCheck, "check", false, "verify the access token against the Monzo API")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	now := time.Now()

	store, err := openConfigStore()
	if err != nil {
		return err
	}

	cfg, err := store.Load(ctx)
	if err != nil {
		if domain.IsMalformedConfig(err) {
			cmd.Println(styleError.Render("Configuration is malformed."))
			cmd.Printf("  %v\n", err)
			cmd.Println(styleMuted.Render("  " + store.Path()))
			cmd.Println("Fix or remove the file, then run 'actual-monzo setup'.")
			return nil
		}
		return err
	}

	state := cfg.State(now)
	cmd.Println(styleTitle.Render("actual-monzo status"))
	cmd.Printf("  Config file: %s\n", styleMuted.Render(store.Path()))
	cmd.Printf("  State:       %s\n", renderState(state))

	if cfg.Monzo.HasToken() {
		remaining := cfg.Monzo.TokenExpiresAt.Sub(now).Round(time.Minute)
		if remaining > 0 {
			cmd.Printf("  Token:       expires in %s\n", remaining)
		} else {
			cmd.Printf("  Token:       %s\n", styleWarn.Render("expired"))
		}
	}

	if statusCheck && cfg.Monzo.HasToken() {
		client := monzo.NewClient(monzo.TokenSource(&cfg.Monzo))
		userID, err := client.WhoAmI(ctx)
		if err != nil {
			cmd.Printf("  API check:   %s (%v)\n", styleError.Render("failed"), err)
		} else {
			cmd.Printf("  API check:   %s (user %s)\n", styleSuccess.Render("ok"), userID)
		}
	}

	if len(cfg.Mappings) == 0 {
		cmd.Println("  Mappings:    none")
		return nil
	}

	ledger, err := openLedger()
	if err != nil {
		return err
	}
	defer ledger.Close()

	cmd.Println("  Mappings:")
	for _, m := range cfg.Mappings {
		name := m.MonzoAccountName
		if name == "" {
			name = m.MonzoAccountID
		}
		watermark, err := ledger.Watermark(ctx, m.MonzoAccountID)
		switch {
		case err != nil:
			cmd.Printf("    %s -> %s  %s\n", name, m.ActualAccountID, styleError.Render("ledger error: "+err.Error()))
		case watermark.IsZero():
			cmd.Printf("    %s -> %s  %s\n", name, m.ActualAccountID, styleMuted.Render("never imported"))
		default:
			cmd.Printf("    %s -> %s  imported through %s\n", name, m.ActualAccountID, watermark.Format("2006-01-02 15:04"))
		}
	}
	return nil
}

func renderState(state domain.ConfigState) string {
	switch state {
	case domain.StateComplete:
		return styleSuccess.Render(state.String())
	case domain.StateExpiredTokens:
		return styleWarn.Render(state.String())
	case domain.StateMalformed:
		return styleError.Render(state.String())
	default:
		return state.String()
	}
}
