package user

import "time"

type UserListItem struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	TokenBalance int64     `json:"token_balance"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type ListQuery struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1"`
}

// GrantRequest credits tokens outside of a payment. Reference makes the grant
// idempotent, so a retried request is not credited twice.
type GrantRequest struct {
	Tokens    int64  `json:"tokens" binding:"required,gt=0,max=1000000"`
	Reference string `json:"reference" binding:"max=100"`
	Reason    string `json:"reason" binding:"required,max=500"`
}

type GrantResponse struct {
	UserID       string `json:"user_id"`
	TokenBalance int64  `json:"token_balance"`
}

// BlockRequest suspends a user. A zero duration blocks until lifted.
type BlockRequest struct {
	Reason        string `json:"reason" binding:"required,max=500"`
	DurationHours int    `json:"duration_hours" binding:"min=0,max=8760"`
}
