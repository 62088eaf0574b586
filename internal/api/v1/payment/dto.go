package payment

type ChargeRequest struct {
	PackageID string `json:"package_id" binding:"required,oneof=starter growth premium"`
}
