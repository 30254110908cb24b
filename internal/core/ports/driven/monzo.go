package driven

import (
	"context"
	"time"

	"github.com/alexcrawford/actual-monzo-sub000/internal/core/domain"
)

// TransactionSource retrieves account data from the Monzo API.
type TransactionSource interface {
	// Transactions returns all transactions for the account in
	// [since, before), fetched with cursor pagination and with declined
	// transactions already filtered out. Pages are fetched strictly
	// sequentially; retries follow the bounded per-page policy.
	Transactions(ctx context.Context, accountID string, since, before time.Time) ([]domain.Transaction, error)

	// Accounts lists the accounts visible to the authorized user.
	Accounts(ctx context.Context) ([]domain.Account, error)

	// WhoAmI verifies the access token and returns the user id.
	WhoAmI(ctx context.Context) (string, error)
}

// TransactionSink receives the filtered transactions of one account
// mapping. The downstream transform into Actual Budget's format lives
// behind this interface. Returns how many transactions it accepted.
type TransactionSink interface {
	ImportTransactions(ctx context.Context, mapping domain.AccountMapping, txns []domain.Transaction) (int, error)
}
