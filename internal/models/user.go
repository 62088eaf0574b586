package models

import "time"

// User is keyed by the Whop user id. Rows are created lazily on first
// authenticated request with a zero balance.
type User struct {
	ID           string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Email        string    `gorm:"type:varchar(255)" json:"email"`
	TokenBalance int64     `gorm:"not null;default:0;check:chk_users_token_balance,token_balance >= 0" json:"token_balance"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (User) TableName() string {
	return "users"
}
