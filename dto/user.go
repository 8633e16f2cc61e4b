package dto

type DeviceTokenRequest struct {
	Token string `json:"token" binding:"required"`
}
