package payments

type GatewayCallbackRequest struct {
	BookingID     string  `json:"booking_id" binding:"required,uuid"`
	TransactionID string  `json:"transaction_id" binding:"required,min=6,max=128"`
	Status        string  `json:"status" binding:"required,oneof=COMPLETED FAILED REFUNDED"`
	Amount        float64 `json:"amount" binding:"required,min=0"`
	Currency      string  `json:"currency" binding:"omitempty,len=3"`
	FailureReason string  `json:"failure_reason" binding:"omitempty,max=500"`
}
