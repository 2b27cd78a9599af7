package bookings

import (
	"fmt"

	"github.com/google/uuid"

	"gigbook/internal/availability"
	"gigbook/internal/shared/faults"
	"gigbook/internal/window"
)

type ResourceRefRequest struct {
	Type     string `json:"type" binding:"required,oneof=ARTIST EQUIPMENT UNIT"`
	ID       string `json:"id" binding:"required,uuid"`
	Quantity int    `json:"quantity" binding:"omitempty,min=1"`
}

type WindowRequest struct {
	Date      string `json:"date" binding:"omitempty,datetime=2006-01-02"`
	StartHour *int   `json:"start_hour" binding:"omitempty,min=0,max=23"`
	EndHour   *int   `json:"end_hour" binding:"omitempty,min=1,max=24"`
	StartDate string `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
}

func (r WindowRequest) Window() (window.Window, error) {
	switch {
	case r.Date != "":
		if r.StartHour == nil || r.EndHour == nil {
			return window.Window{}, fmt.Errorf("%w: start_hour and end_hour are required with date", faults.ErrInvalidWindow)
		}
		return window.HourWindow(r.Date, *r.StartHour, *r.EndHour), nil
	case r.StartDate != "" || r.EndDate != "":
		return window.DateRange(r.StartDate, r.EndDate), nil
	}
	return window.Window{}, fmt.Errorf("%w: either date or start_date/end_date is required", faults.ErrInvalidWindow)
}

type ReserveRequest struct {
	Resources       []ResourceRefRequest `json:"resources" binding:"required,min=1,max=20,dive"`
	Window          WindowRequest        `json:"window" binding:"required"`
	HoldDurationMin int                  `json:"hold_duration_minutes" binding:"omitempty,min=1,max=60"`
}

// Refs converts the request resources into resource refs.
func (r ReserveRequest) Refs() ([]availability.ResourceRef, error) {
	refs := make([]availability.ResourceRef, 0, len(r.Resources))
	for _, res := range r.Resources {
		id, err := uuid.Parse(res.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid resource id %q", faults.ErrInvalidWindow, res.ID)
		}
		refs = append(refs, availability.ResourceRef{
			Type:     res.Type,
			ID:       id,
			Quantity: res.Quantity,
		})
	}
	return refs, nil
}

type TransitionRequest struct {
	Target string `json:"target" binding:"required,oneof=PENDING CONFIRMED CANCELLED EXPIRED COMPLETED REFUNDED"`
}

type CancelRequest struct {
	Reason string `json:"reason" binding:"required,min=3,max=500"`
}
