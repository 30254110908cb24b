package monzo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/alexcrawford/actual-monzo-sub000/internal/core/domain"
)

func testTokens() oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token", TokenType: "Bearer"})
}

// recordedSleeps swaps the client's sleeper for one that records delays
// without actually sleeping.
func recordedSleeps(c *Client) *[]time.Duration {
	var sleeps []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}
	return &sleeps
}

func testClient(t *testing.T, handler http.HandlerFunc) (*Client, *[]time.Duration) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	c := NewClient(testTokens(), WithBaseURL(server.URL))
	return c, recordedSleeps(c)
}

func txnPage(start time.Time, count int) []transactionPayload {
	page := make([]transactionPayload, count)
	for i := range page {
		page[i] = transactionPayload{
			ID:        fmt.Sprintf("tx_%s_%d", start.Format("150405"), i),
			AccountID: "acc_1",
			Amount:    -int64(100 + i),
			Created:   start.Add(time.Duration(i) * time.Second),
		}
	}
	return page
}

func writeTxns(w http.ResponseWriter, txns []transactionPayload) {
	json.NewEncoder(w).Encode(transactionsResponse{Transactions: txns})
}

func TestClient_Transactions_SinglePage(t *testing.T) {
	start := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	var requests int
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, "/transactions", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "acc_1", r.URL.Query().Get("account_id"))
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		assert.Equal(t, "merchant", r.URL.Query().Get("expand[]"))
		writeTxns(w, txnPage(start, 42))
	})

	txns, err := c.Transactions(context.Background(), "acc_1", start, start.Add(time.Hour))

	require.NoError(t, err)
	assert.Len(t, txns, 42)
	assert.Equal(t, 1, requests)
}

func TestClient_Transactions_PaginationCursorAdvances(t *testing.T) {
	start := time.Date(2026, 4, 1, 10, 0, 0, 123e6, time.UTC)
	fullPage := txnPage(start, PageSize)
	lastCreated := fullPage[PageSize-1].Created

	var sinceParams []string
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		sinceParams = append(sinceParams, r.URL.Query().Get("since"))
		if len(sinceParams) == 1 {
			writeTxns(w, fullPage)
			return
		}
		writeTxns(w, txnPage(lastCreated.Add(time.Minute), 7))
	})

	txns, err := c.Transactions(context.Background(), "acc_1", start, start.Add(24*time.Hour))

	require.NoError(t, err)
	assert.Len(t, txns, PageSize+7)

	// Exactly two requests: a full page, then the short final page.
	require.Len(t, sinceParams, 2)
	assert.Equal(t, start.Format(timeFormat), sinceParams[0])
	// The second cursor is the last created timestamp plus 1ms.
	assert.Equal(t, lastCreated.Add(time.Millisecond).Format(timeFormat), sinceParams[1])
}

func TestClient_Transactions_EmptyWindow(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeTxns(w, nil)
	})

	txns, err := c.Transactions(context.Background(), "acc_1", time.Now().Add(-time.Hour), time.Now())

	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestClient_Transactions_FiltersDeclined(t *testing.T) {
	start := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	page := txnPage(start, 4)
	page[1].DeclineReason = "INSUFFICIENT_FUNDS"
	page[3].DeclineReason = "CARD_BLOCKED"

	c, _ := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeTxns(w, page)
	})

	txns, err := c.Transactions(context.Background(), "acc_1", start, start.Add(time.Hour))

	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, page[0].ID, txns[0].ID)
	assert.Equal(t, page[2].ID, txns[1].ID)
}

func TestClient_Transactions_MerchantAndSettled(t *testing.T) {
	start := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	page := []transactionPayload{
		{
			ID:       "tx_1",
			Created:  start,
			Merchant: &merchantPayload{ID: "merch_1", Name: "Pret A Manger"},
			Settled:  start.Add(time.Hour).Format(time.RFC3339Nano),
		},
		{
			ID:      "tx_2",
			Created: start.Add(time.Second),
			// No merchant expansion, still pending.
		},
	}
	c, _ := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeTxns(w, page)
	})

	txns, err := c.Transactions(context.Background(), "acc_1", start, start.Add(time.Hour))

	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, "Pret A Manger", txns[0].MerchantName)
	assert.False(t, txns[0].Settled.IsZero())
	assert.Empty(t, txns[1].MerchantName)
	assert.True(t, txns[1].Settled.IsZero())
}

func TestClient_Transactions_RateLimitedThenRecovers(t *testing.T) {
	start := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	var requests int
	c, sleeps := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		requests++
		if requests <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeTxns(w, txnPage(start, 3))
	})

	txns, err := c.Transactions(context.Background(), "acc_1", start, start.Add(time.Hour))

	require.NoError(t, err)
	assert.Len(t, txns, 3)
	assert.Equal(t, 3, requests)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *sleeps)
}

func TestClient_Transactions_RateLimitExhausted(t *testing.T) {
	var requests int
	c, sleeps := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		requests++
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.Transactions(context.Background(), "acc_1", time.Now().Add(-time.Hour), time.Now())

	require.Error(t, err)
	assert.True(t, IsRateLimited(err))
	assert.Equal(t, 3, requests)
	// The third 429 fails without a further backoff sleep.
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *sleeps)
}

func TestClient_Transactions_ServerErrorRetriedOnce(t *testing.T) {
	start := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	var requests int
	c, sleeps := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		requests++
		if requests == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeTxns(w, txnPage(start, 1))
	})

	txns, err := c.Transactions(context.Background(), "acc_1", start, start.Add(time.Hour))

	require.NoError(t, err)
	assert.Len(t, txns, 1)
	assert.Equal(t, []time.Duration{2 * time.Second}, *sleeps)
}

func TestClient_Transactions_ServerErrorExhausted(t *testing.T) {
	var requests int
	c, _ := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		requests++
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.Transactions(context.Background(), "acc_1", time.Now().Add(-time.Hour), time.Now())

	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
	assert.Equal(t, 2, requests)

	var suErr *ServiceUnavailableError
	require.ErrorAs(t, err, &suErr)
	assert.Equal(t, http.StatusBadGateway, suErr.StatusCode)
}

func TestClient_Transactions_UnauthorizedFailsImmediately(t *testing.T) {
	var requests int
	c, _ := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		requests++
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.Transactions(context.Background(), "acc_1", time.Now().Add(-time.Hour), time.Now())

	assert.ErrorIs(t, err, domain.ErrTokenExpired)
	assert.Equal(t, 1, requests)
}

func TestClient_Transactions_OtherErrorNotRetried(t *testing.T) {
	var requests int
	c, _ := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		requests++
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"code":"forbidden.insufficient_permissions","message":"no access"}`)
	})

	_, err := c.Transactions(context.Background(), "acc_1", time.Now().Add(-time.Hour), time.Now())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "forbidden.insufficient_permissions", apiErr.Code)
	assert.Equal(t, 1, requests)
}

func TestClient_Transactions_RetryBudgetResetsPerPage(t *testing.T) {
	start := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	fullPage := txnPage(start, PageSize)

	// Both pages answer 429 twice before succeeding; each page gets a
	// fresh retry budget.
	var pageRequests, totalRequests int
	c, sleeps := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		totalRequests++
		pageRequests++
		if pageRequests <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		pageRequests = 0
		if r.URL.Query().Get("since") == start.Format(timeFormat) {
			writeTxns(w, fullPage)
			return
		}
		writeTxns(w, txnPage(start.Add(time.Hour), 5))
	})

	txns, err := c.Transactions(context.Background(), "acc_1", start, start.Add(24*time.Hour))

	require.NoError(t, err)
	assert.Len(t, txns, PageSize+5)
	assert.Equal(t, 6, totalRequests)
	assert.Equal(t, []time.Duration{
		time.Second, 2 * time.Second,
		time.Second, 2 * time.Second,
	}, *sleeps)
}

func TestRetryPolicy_RateLimitDelay(t *testing.T) {
	p := DefaultRetryPolicy()

	assert.Equal(t, time.Second, p.rateLimitDelay(1))
	assert.Equal(t, 2*time.Second, p.rateLimitDelay(2))
	assert.Equal(t, 4*time.Second, p.rateLimitDelay(3))
	// Past the schedule the last entry repeats.
	assert.Equal(t, 4*time.Second, p.rateLimitDelay(4))
}
