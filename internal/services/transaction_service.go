package services

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"

	"ugcads-backend/internal/models"
)

// exportLimit caps a single CSV export.
const exportLimit = 10000

// TransactionCSV renders transactions as CSV, one row per purchase or grant.
func TransactionCSV(transactions []models.Transaction) ([]byte, error) {
	b := &bytes.Buffer{}
	w := csv.NewWriter(b)

	header := []string{
		"ID", "Time", "User ID", "Payment ID", "Tokens",
		"Amount Cents", "Currency", "Source",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, t := range transactions {
		source, _ := t.Metadata.String("source")
		if source == "" {
			source = "payment"
		}
		record := []string{
			t.ID,
			t.CreatedAt.Format(time.RFC3339Nano),
			t.UserID,
			t.PaymentID,
			strconv.FormatInt(t.TokensPurchased, 10),
			strconv.FormatInt(t.AmountCents, 10),
			t.Currency,
			source,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}
