package units

// CreateUnitRequest defines the payload for registering a venue unit
type CreateUnitRequest struct {
	VenueID string  `json:"venue_id" binding:"required,uuid"`
	Kind    string  `json:"kind" binding:"required,oneof=SEAT TABLE BOOTH"`
	Label   string  `json:"label" binding:"required,min=1,max=20"`
	Price   float64 `json:"price" binding:"required,min=0"`
}
