package user

import "ugcads-backend/internal/models"

type MeResponse struct {
	ID           string          `json:"id"`
	Email        string          `json:"email,omitempty"`
	TokenBalance int64           `json:"token_balance"`
	Profile      *models.Profile `json:"profile"`
}
