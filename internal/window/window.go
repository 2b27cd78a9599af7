package window

import (
	"fmt"
	"time"

	"gigbook/internal/shared/faults"
)

// DateLayout is the wire format for reservation dates.
const DateLayout = "2006-01-02"

// Window is the time span a resource is requested for. Hour windows
// (artists, single-day equipment) use Date/StartHour/EndHour with half-open
// [StartHour, EndHour) semantics. Date-range windows (multi-day equipment,
// lockable units held for an engagement date) use StartDate/EndDate with
// inclusive comparison.
type Window struct {
	Date      string `json:"date,omitempty"`
	StartHour int    `json:"start_hour,omitempty"`
	EndHour   int    `json:"end_hour,omitempty"`

	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

// HourWindow builds a single-day hour window.
func HourWindow(date string, startHour, endHour int) Window {
	return Window{Date: date, StartHour: startHour, EndHour: endHour}
}

// DateRange builds an inclusive date-range window.
func DateRange(startDate, endDate string) Window {
	return Window{StartDate: startDate, EndDate: endDate}
}

// IsHourWindow reports whether the window is a single-day hour window.
func (w Window) IsHourWindow() bool {
	return w.Date != ""
}

// IsDateRange reports whether the window is a date-range window.
func (w Window) IsDateRange() bool {
	return w.StartDate != "" || w.EndDate != ""
}

// Validate checks the window invariants: start < end within [0,24) for hour
// windows, startDate <= endDate for ranges, parseable dates. A zero-length
// window is malformed.
func (w Window) Validate() error {
	switch {
	case w.IsHourWindow():
		if _, err := time.Parse(DateLayout, w.Date); err != nil {
			return fmt.Errorf("%w: bad date %q", faults.ErrInvalidWindow, w.Date)
		}
		if w.StartHour < 0 || w.StartHour >= 24 || w.EndHour < 0 || w.EndHour > 24 {
			return fmt.Errorf("%w: hours must be within [0,24)", faults.ErrInvalidWindow)
		}
		if w.StartHour >= w.EndHour {
			return fmt.Errorf("%w: start hour %d must be before end hour %d", faults.ErrInvalidWindow, w.StartHour, w.EndHour)
		}
	case w.IsDateRange():
		start, err := time.Parse(DateLayout, w.StartDate)
		if err != nil {
			return fmt.Errorf("%w: bad start date %q", faults.ErrInvalidWindow, w.StartDate)
		}
		end, err := time.Parse(DateLayout, w.EndDate)
		if err != nil {
			return fmt.Errorf("%w: bad end date %q", faults.ErrInvalidWindow, w.EndDate)
		}
		if start.After(end) {
			return fmt.Errorf("%w: start date %s after end date %s", faults.ErrInvalidWindow, w.StartDate, w.EndDate)
		}
	default:
		return fmt.Errorf("%w: empty window", faults.ErrInvalidWindow)
	}
	return nil
}

// OverlapsHours is the canonical half-open interval overlap test:
// [a,b) and [c,d) overlap iff a < d and c < b. Both windows must be hour
// windows on the same date for the result to be meaningful.
func (w Window) OverlapsHours(other Window) bool {
	if w.Date != other.Date {
		return false
	}
	return w.StartHour < other.EndHour && other.StartHour < w.EndHour
}

// OverlapsDates is the inclusive date-range overlap test:
// existing.start <= requested.end AND existing.end >= requested.start.
func (w Window) OverlapsDates(other Window) bool {
	return w.StartDate <= other.EndDate && w.EndDate >= other.StartDate
}

// Hours enumerates the hours covered by an hour window.
func (w Window) Hours() []int {
	if !w.IsHourWindow() || w.StartHour >= w.EndHour {
		return nil
	}
	hours := make([]int, 0, w.EndHour-w.StartHour)
	for h := w.StartHour; h < w.EndHour; h++ {
		hours = append(hours, h)
	}
	return hours
}

// Duration returns the length of an hour window in hours.
func (w Window) Duration() int {
	return w.EndHour - w.StartHour
}

// String renders the window for logs and conflict reports.
func (w Window) String() string {
	if w.IsHourWindow() {
		return fmt.Sprintf("%s %02d:00-%02d:00", w.Date, w.StartHour, w.EndHour)
	}
	return fmt.Sprintf("%s..%s", w.StartDate, w.EndDate)
}
