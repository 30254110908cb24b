package monzo

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/alexcrawford/actual-monzo-sub000/internal/core/domain"
	"github.com/alexcrawford/actual-monzo-sub000/internal/logger"
)

// PageSize is the maximum number of transactions per page.
const PageSize = 100

// timeFormat renders timestamps with millisecond precision, matching
// the resolution of Monzo's created timestamps. The pagination cursor
// depends on that resolution: the next page starts 1ms after the last
// transaction, so the boundary transaction is never fetched twice.
const timeFormat = "2006-01-02T15:04:05.000Z07:00"

type merchantPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type transactionPayload struct {
	ID            string           `json:"id"`
	AccountID     string           `json:"account_id"`
	Amount        int64            `json:"amount"`
	Created       time.Time        `json:"created"`
	Settled       string           `json:"settled"`
	Description   string           `json:"description"`
	Merchant      *merchantPayload `json:"merchant"`
	Category      string           `json:"category"`
	DeclineReason string           `json:"decline_reason"`
}

type transactionsResponse struct {
	Transactions []transactionPayload `json:"transactions"`
}

// Transactions returns all transactions for the account in
// [since, before), excluding declined ones.
//
// Pages are fetched strictly sequentially: each page's cursor is
// derived from the previous page's last transaction, so the pages
// arrive in increasing time order. A full page means more may follow
// and the cursor advances to the last created timestamp plus 1ms; a
// short page is the last one. Declined transactions are filtered once,
// after pagination completes.
func (c *Client) Transactions(ctx context.Context, accountID string, since, before time.Time) ([]domain.Transaction, error) {
	cursor := since
	var all []transactionPayload

	for page := 1; ; page++ {
		batch, err := c.transactionsPage(ctx, accountID, cursor, before)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		logger.Debug("transactions page %d: %d rows for %s", page, len(batch), accountID)

		if len(batch) < PageSize {
			break
		}

		next := batch[len(batch)-1].Created.Add(time.Millisecond)
		if !next.After(cursor) {
			// Monzo's created timestamps are assumed to be unique at
			// millisecond resolution; if that ever breaks, stop rather
			// than loop on the same page forever.
			return nil, fmt.Errorf("monzo: transaction cursor did not advance past %s", cursor.Format(timeFormat))
		}
		cursor = next
	}

	return domain.FilterDeclined(convertTransactions(all)), nil
}

// transactionsPage fetches one page. Retry counters are scoped here, so
// a successful page resets the budget for the next one.
func (c *Client) transactionsPage(ctx context.Context, accountID string, since, before time.Time) ([]transactionPayload, error) {
	query := url.Values{}
	query.Set("account_id", accountID)
	query.Set("since", since.UTC().Format(timeFormat))
	query.Set("before", before.UTC().Format(timeFormat))
	query.Set("limit", strconv.Itoa(PageSize))
	query.Add("expand[]", "merchant")

	var payload transactionsResponse
	if err := c.getJSON(ctx, "/transactions", query, &payload); err != nil {
		return nil, err
	}
	return payload.Transactions, nil
}

func convertTransactions(payloads []transactionPayload) []domain.Transaction {
	txns := make([]domain.Transaction, 0, len(payloads))
	for _, p := range payloads {
		t := domain.Transaction{
			ID:            p.ID,
			AccountID:     p.AccountID,
			Amount:        p.Amount,
			Created:       p.Created,
			Description:   p.Description,
			Category:      p.Category,
			DeclineReason: p.DeclineReason,
		}
		if p.Merchant != nil {
			t.MerchantName = p.Merchant.Name
		}
		// Settled is an empty string while the transaction is pending.
		if p.Settled != "" {
			if settled, err := time.Parse(time.RFC3339Nano, p.Settled); err == nil {
				t.Settled = settled
			}
		}
		txns = append(txns, t)
	}
	return txns
}
