package availability

import (
	"fmt"

	"gigbook/internal/shared/faults"
	"gigbook/internal/window"
)

type CheckQuery struct {
	Type     string `form:"type" binding:"required,oneof=ARTIST EQUIPMENT UNIT"`
	ID       string `form:"id" binding:"required,uuid"`
	Quantity int    `form:"quantity" binding:"omitempty,min=1"`

	// Hour window shape
	Date      string `form:"date" binding:"omitempty,datetime=2006-01-02"`
	StartHour *int   `form:"start_hour" binding:"omitempty,min=0,max=23"`
	EndHour   *int   `form:"end_hour" binding:"omitempty,min=1,max=24"`

	// Date range shape
	StartDate string `form:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate   string `form:"end_date" binding:"omitempty,datetime=2006-01-02"`
}

// Window builds the requested window from whichever shape the query carries.
func (q CheckQuery) Window() (window.Window, error) {
	switch {
	case q.Date != "":
		if q.StartHour == nil || q.EndHour == nil {
			return window.Window{}, fmt.Errorf("%w: start_hour and end_hour are required with date", faults.ErrInvalidWindow)
		}
		return window.HourWindow(q.Date, *q.StartHour, *q.EndHour), nil
	case q.StartDate != "" || q.EndDate != "":
		return window.DateRange(q.StartDate, q.EndDate), nil
	}
	return window.Window{}, fmt.Errorf("%w: either date or start_date/end_date is required", faults.ErrInvalidWindow)
}

type ArtistSearchQuery struct {
	Date      string `form:"date" binding:"omitempty,datetime=2006-01-02"`
	StartHour *int   `form:"start_hour" binding:"omitempty,min=0,max=23"`
	EndHour   *int   `form:"end_hour" binding:"omitempty,min=1,max=24"`
	StartDate string `form:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate   string `form:"end_date" binding:"omitempty,datetime=2006-01-02"`
}

func (q ArtistSearchQuery) Window() (window.Window, error) {
	return CheckQuery{
		Date:      q.Date,
		StartHour: q.StartHour,
		EndHour:   q.EndHour,
		StartDate: q.StartDate,
		EndDate:   q.EndDate,
	}.Window()
}
