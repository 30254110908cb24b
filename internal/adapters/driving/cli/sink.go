package cli

import (
	"context"
	"encoding/json"
	"io"

	"github.com/alexcrawford/actual-monzo-sub000/internal/core/domain"
	"github.com/alexcrawford/actual-monzo-sub000/internal/core/ports/driven"
)

// importRecord is the shape handed to the downstream Actual Budget
// sync: one JSON object per transaction, amounts kept in minor units.
type importRecord struct {
	ActualAccountID string `json:"account"`
	ImportedID      string `json:"imported_id"`
	Date            string `json:"date"`
	Amount          int64  `json:"amount"`
	PayeeName       string `json:"payee_name,omitempty"`
	Notes           string `json:"notes,omitempty"`
	Category        string `json:"category,omitempty"`
	Cleared         bool   `json:"cleared"`
}

// jsonSink emits import records as JSON lines. It is the collaborator
// boundary: the Actual Budget sync consumes this stream.
type jsonSink struct {
	enc *json.Encoder
}

var _ driven.TransactionSink = (*jsonSink)(nil)

func newJSONSink(w io.Writer) *jsonSink {
	return &jsonSink{enc: json.NewEncoder(w)}
}

func (s *jsonSink) ImportTransactions(_ context.Context, mapping domain.AccountMapping, txns []domain.Transaction) (int, error) {
	for i, t := range txns {
		payee := t.MerchantName
		if payee == "" {
			payee = t.Description
		}
		rec := importRecord{
			ActualAccountID: mapping.ActualAccountID,
			ImportedID:      t.ID,
			Date:            t.Created.Format("2006-01-02"),
			Amount:          t.Amount,
			PayeeName:       payee,
			Notes:           t.Description,
			Category:        t.Category,
			Cleared:         !t.Settled.IsZero(),
		}
		if err := s.enc.Encode(rec); err != nil {
			return i, err
		}
	}
	return len(txns), nil
}
