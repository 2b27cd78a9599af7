package equipment

// CreateEquipmentRequest defines the payload for registering a rentable item
type CreateEquipmentRequest struct {
	Name       string `json:"name" binding:"required,min=2,max=100"`
	Category   string `json:"category" binding:"omitempty,max=50"`
	TotalStock int    `json:"total_stock" binding:"required,min=1"`
}

// MaintenanceRequest withholds quantity from stock over an inclusive date range
type MaintenanceRequest struct {
	StartDate string `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" binding:"required,datetime=2006-01-02"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
	Reason    string `json:"reason" binding:"omitempty,max=200"`
}
