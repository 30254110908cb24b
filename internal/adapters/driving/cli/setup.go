package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/alexcrawford/actual-monzo-sub000/internal/adapters/driven/monzo"
	"github.com/alexcrawford/actual-monzo-sub000/internal/adapters/driving/oauth"
	"github.com/alexcrawford/actual-monzo-sub000/internal/core/domain"
	"github.com/alexcrawford/actual-monzo-sub000/internal/core/ports/driven"
	"github.com/alexcrawford/actual-monzo-sub000/internal/core/services"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Authorize with Monzo and configure the Actual Budget target",
	Long: `Runs the setup flow. Setup is resumable: it inspects the stored
configuration, classifies its state, and re-runs only the phases that
are missing or expired.

The Monzo phase opens your browser for the OAuth authorization code
flow and receives the redirect on a local callback server. Approve the
access request in your Monzo app when prompted.

Examples:
  actual-monzo setup
  actual-monzo setup --client-id "oauth2client_..." --server-url http://localhost:5006 --budget-id my-budget
  actual-monzo setup --map acc_00009ABC=f3a1c5d2`,
	RunE: runSetup,
}

var (
	setupClientID  string
	setupServerURL string
	setupBudgetID  string
	setupMappings  []string
)

func init() {
	setupCmd.Flags().StringVar(&setupClientID, "client-id", "", "Monzo OAuth client ID")
	setupCmd.Flags().StringVar(&setupServerURL, "server-url", "", "Actual Budget server URL")
	setupCmd.Flags().StringVar(&setupBudgetID, "budget-id", "", "Actual Budget sync ID")
	setupCmd.Flags().StringArrayVar(&setupMappings, "map", nil,
		"account mapping monzoAccountID=actualAccountID (repeatable)")
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := openConfigStore()
	if err != nil {
		return err
	}

	cfg, err := store.Load(ctx)
	if err != nil {
		if domain.IsMalformedConfig(err) {
			cmd.PrintErrln(styleError.Render(err.Error()))
			cmd.PrintErrf("Fix or remove %s and run setup again.\n", store.Path())
		}
		return err
	}

	now := time.Now()
	state := cfg.State(now)
	cmd.Printf("Configuration state: %s\n", styleTitle.Render(state.String()))

	if needsMonzoPhase(state) {
		if err := runMonzoPhase(ctx, cmd, store, cfg); err != nil {
			return err
		}
	} else {
		cmd.Println(styleSuccess.Render("✓") + " Monzo already authorized")
	}

	if cfg.Actual.ValidatedAt.IsZero() {
		if err := runActualPhase(ctx, cmd, store, cfg); err != nil {
			return err
		}
	} else {
		cmd.Println(styleSuccess.Render("✓") + " Actual Budget already configured")
	}

	if len(setupMappings) > 0 {
		if err := addMappings(ctx, cmd, store, cfg); err != nil {
			return err
		}
	}

	if len(cfg.Mappings) == 0 {
		cmd.Println(styleWarn.Render("No account mappings configured."))
		cmd.Println("List your accounts with 'actual-monzo accounts', then run:")
		cmd.Println("  actual-monzo setup --map <monzoAccountID>=<actualAccountID>")
		return nil
	}

	if cfg.SetupCompletedAt.IsZero() {
		cfg.SetupCompletedAt = time.Now()
		if err := store.Save(ctx, cfg); err != nil {
			return err
		}
	}
	cmd.Println(styleSuccess.Render("Setup complete.") + " Run 'actual-monzo import' to import transactions.")
	return nil
}

// needsMonzoPhase reports if the Monzo authorization has to (re)run.
// Expired tokens re-run the full flow; refresh may still work during
// import, but setup is the explicit recovery path.
func needsMonzoPhase(state domain.ConfigState) bool {
	switch state {
	case domain.StateUnconfigured, domain.StateActualOnly, domain.StateExpiredTokens:
		return true
	default:
		return false
	}
}

func runMonzoPhase(ctx context.Context, cmd *cobra.Command, store driven.ConfigStore, cfg *domain.Config) error {
	clientID := setupClientID
	if clientID == "" {
		clientID = cfg.Monzo.ClientID
	}
	var err error
	if clientID == "" {
		if clientID, err = promptLine(cmd, "Monzo OAuth client ID: "); err != nil {
			return err
		}
	}
	clientSecret := cfg.Monzo.ClientSecret
	if clientSecret == "" {
		if clientSecret, err = promptSecret(cmd, "Monzo OAuth client secret: "); err != nil {
			return err
		}
	}
	if clientID == "" || clientSecret == "" {
		return errors.New("client id and client secret are required")
	}

	port := CallbackPort(os.Getenv)
	authorizer := services.NewAuthorizer(
		monzo.NewGateway(),
		func() driven.CallbackListener { return oauth.NewCallbackServer(port) },
		oauth.Browser{},
		func(authURL string, browserErr error) {
			if browserErr != nil {
				cmd.Println(styleWarn.Render("Could not open your browser."))
			}
			cmd.Println("Open this URL to authorize access:")
			cmd.Println("  " + authURL)
			cmd.Println(styleMuted.Render("Waiting for you to approve in your Monzo app..."))
		},
	)

	cred, err := authorizer.Authorize(ctx, clientID, clientSecret)
	if err != nil {
		return err
	}

	cfg.Monzo = *cred
	if err := store.Save(ctx, cfg); err != nil {
		return fmt.Errorf("saving credential: %w", err)
	}
	cmd.Println(styleSuccess.Render("✓") + " Monzo authorized")
	return nil
}

func runActualPhase(ctx context.Context, cmd *cobra.Command, store driven.ConfigStore, cfg *domain.Config) error {
	serverURL := setupServerURL
	budgetID := setupBudgetID
	var err error
	if serverURL == "" {
		if serverURL, err = promptLine(cmd, "Actual Budget server URL: "); err != nil {
			return err
		}
	}
	if budgetID == "" {
		if budgetID, err = promptLine(cmd, "Actual Budget sync ID: "); err != nil {
			return err
		}
	}
	if serverURL == "" || budgetID == "" {
		return errors.New("server url and budget id are required")
	}

	cfg.Actual.ServerURL = serverURL
	cfg.Actual.BudgetID = budgetID
	cfg.Actual.ValidatedAt = time.Now()
	if err := store.Save(ctx, cfg); err != nil {
		return fmt.Errorf("saving actual config: %w", err)
	}
	cmd.Println(styleSuccess.Render("✓") + " Actual Budget configured")
	return nil
}

// addMappings parses --map pairs, checks the Monzo side against the
// live account list, and persists them.
func addMappings(ctx context.Context, cmd *cobra.Command, store driven.ConfigStore, cfg *domain.Config) error {
	gateway := monzo.NewGateway()
	tokens := services.NewTokenManager(gateway, store)
	cred, err := tokens.EnsureFresh(ctx, cfg)
	if err != nil {
		return err
	}
	client := monzo.NewClient(monzo.TokenSource(cred))
	accounts, err := client.Accounts(ctx)
	if err != nil {
		return fmt.Errorf("listing accounts: %w", err)
	}
	names := make(map[string]string, len(accounts))
	for _, a := range accounts {
		names[a.ID] = a.Description
	}

	if err := applyMappings(cfg, setupMappings, names); err != nil {
		return err
	}

	if err := store.Save(ctx, cfg); err != nil {
		return fmt.Errorf("saving mappings: %w", err)
	}
	cmd.Printf("%s %d account mapping(s) configured\n", styleSuccess.Render("✓"), len(cfg.Mappings))
	return nil
}

// applyMappings parses monzoID=actualID pairs into cfg, checking each
// Monzo account against names (id to display name from the live
// account list). Remapping an already mapped account replaces the
// whole mapping, display name included.
func applyMappings(cfg *domain.Config, pairs []string, names map[string]string) error {
	for _, pair := range pairs {
		monzoID, actualID, ok := strings.Cut(pair, "=")
		if !ok || monzoID == "" || actualID == "" {
			return fmt.Errorf("invalid --map %q, expected monzoAccountID=actualAccountID", pair)
		}
		name, known := names[monzoID]
		if !known {
			return fmt.Errorf("monzo account %s not found; see 'actual-monzo accounts'", monzoID)
		}
		if existing := cfg.MappingFor(monzoID); existing != nil {
			existing.MonzoAccountName = name
			existing.ActualAccountID = actualID
			continue
		}
		cfg.Mappings = append(cfg.Mappings, domain.AccountMapping{
			MonzoAccountID:   monzoID,
			MonzoAccountName: name,
			ActualAccountID:  actualID,
		})
	}
	return nil
}

func promptLine(cmd *cobra.Command, prompt string) (string, error) {
	cmd.Print(prompt)
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptSecret reads without echo when stdin is a terminal, falling
// back to a plain read otherwise (tests, pipes).
func promptSecret(cmd *cobra.Command, prompt string) (string, error) {
	cmd.Print(prompt)
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		cmd.Println()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(secret)), nil
	}
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
