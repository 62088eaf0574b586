package token

import "ugcads-backend/internal/services"

type BalanceResponse struct {
	TokenBalance int64 `json:"token_balance"`
}

type PackagesResponse struct {
	Packages    []services.Package `json:"packages"`
	PurchaseURL string             `json:"purchase_url"`
}

type ListQuery struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}
