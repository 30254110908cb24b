package domain

import "time"

// Transaction is a bank transaction fetched from the Monzo API.
// Immutable once fetched.
type Transaction struct {
	// ID is the Monzo transaction identifier (tx_...).
	ID string
	// AccountID is the Monzo account the transaction belongs to.
	AccountID string
	// Amount is in minor units (pence). Negative for spending.
	Amount int64
	// Created is when the transaction was created. Monzo timestamps
	// have millisecond resolution; the pagination cursor depends on it.
	Created time.Time
	// Settled is when the transaction settled. Zero while pending.
	Settled time.Time
	// Description is the raw transaction description.
	Description string
	// MerchantName is the merchant's display name, when expanded.
	MerchantName string
	// Category is Monzo's spending category.
	Category string
	// DeclineReason is non-empty when the payment network rejected the
	// transaction. Declined transactions are excluded from imports.
	DeclineReason string
}

// Declined returns true if the payment network rejected this transaction.
func (t *Transaction) Declined() bool {
	return t.DeclineReason != ""
}

// FilterDeclined returns the transactions that were not declined,
// preserving order.
func FilterDeclined(txns []Transaction) []Transaction {
	kept := make([]Transaction, 0, len(txns))
	for _, t := range txns {
		if !t.Declined() {
			kept = append(kept, t)
		}
	}
	return kept
}

// Account is a Monzo account as returned by the accounts endpoint.
type Account struct {
	// ID is the Monzo account identifier (acc_...).
	ID string
	// Description is the account's display description.
	Description string
	// Type is the Monzo account type (uk_retail, uk_retail_joint, ...).
	Type string
	// Closed is true for closed accounts, which cannot be imported from.
	Closed bool
}

// AccountMapping pairs a Monzo account with an Actual Budget account.
// Transactions fetched from the Monzo account are handed to the import
// sink under the mapped Actual account.
type AccountMapping struct {
	MonzoAccountID   string
	MonzoAccountName string
	ActualAccountID  string
}

// ImportRun records one completed import for one account mapping.
// The ledger keeps these so later runs resume from the last window.
type ImportRun struct {
	// ID groups all mappings imported in a single CLI invocation.
	ID string
	// MonzoAccountID is the account the window was fetched for.
	MonzoAccountID string
	// Since and Until bound the fetched window.
	Since time.Time
	Until time.Time
	// Imported is how many transactions the sink accepted.
	Imported int
	// RanAt is when the run finished.
	RanAt time.Time
}
