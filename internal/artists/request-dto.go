package artists

// CreateArtistRequest defines the payload for registering an artist profile
type CreateArtistRequest struct {
	Name                    string `json:"name" binding:"required,min=2,max=100"`
	Genre                   string `json:"genre" binding:"omitempty,max=50"`
	CooldownPeriodHours     int    `json:"cooldown_period_hours" binding:"omitempty,min=0,max=24"`
	MaximumPerformanceHours int    `json:"maximum_performance_hours" binding:"omitempty,min=0,max=24"`
}

// UnavailabilityRequest declares blackout hours for an artist on one date
type UnavailabilityRequest struct {
	Date  string `json:"date" binding:"required,datetime=2006-01-02"`
	Hours []int  `json:"hours" binding:"required,min=1,max=24,dive,min=0,max=23"`
}
