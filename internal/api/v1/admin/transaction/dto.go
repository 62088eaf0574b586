package transaction

import (
	"errors"
	"time"

	"ugcads-backend/internal/services"
)

// FilterQuery narrows the ledger. Times are RFC3339.
type FilterQuery struct {
	UserID    string `form:"user_id" binding:"max=64"`
	StartTime string `form:"start_time"`
	EndTime   string `form:"end_time"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1"`
}

func (q FilterQuery) filter() (services.TransactionFilter, error) {
	f := services.TransactionFilter{UserID: q.UserID}
	if q.StartTime != "" {
		t, err := time.Parse(time.RFC3339, q.StartTime)
		if err != nil {
			return f, errors.New("invalid start_time format")
		}
		f.Since = t
	}
	if q.EndTime != "" {
		t, err := time.Parse(time.RFC3339, q.EndTime)
		if err != nil {
			return f, errors.New("invalid end_time format")
		}
		f.Until = t
	}
	return f, nil
}
