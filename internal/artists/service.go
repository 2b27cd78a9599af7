package artists

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"gigbook/internal/shared/faults"
	"gigbook/internal/window"
)

// CheckResult reports whether an artist window is bookable and which existing
// windows are in the way when it is not.
type CheckResult struct {
	Available bool            `json:"available"`
	Conflicts []window.Window `json:"conflicts,omitempty"`
}

type Service interface {
	// CheckWindow decides whether the artist can be engaged for the window.
	// "Not available" is a result, not an error; policy breaches and
	// malformed windows are errors.
	CheckWindow(ctx context.Context, artistID uuid.UUID, w window.Window) (*CheckResult, error)

	// Reserve inserts a pending engagement after re-running the check. The
	// check-then-insert pair is not serialized; the reconciliation sweep
	// flags the rare double booking this can admit.
	Reserve(ctx context.Context, artistID, bookingID, userID uuid.UUID, w window.Window) error

	// OverlappingEngagements scans the engagement ledger for active bookings
	// holding the same artist's hours.
	OverlappingEngagements(ctx context.Context) ([]EngagementOverlap, error)

	// ConfirmEngagements flips the combined booking's engagements to confirmed.
	ConfirmEngagements(ctx context.Context, bookingID uuid.UUID) error

	// ReleaseEngagements cancels the combined booking's engagements that are
	// still in the expected status. Safe to call repeatedly.
	ReleaseEngagements(ctx context.Context, bookingID uuid.UUID, expectedStatus string) error

	// DeclareUnavailability merges blackout hours for the artist and date.
	DeclareUnavailability(ctx context.Context, artistID uuid.UUID, date string, hours []int) (*ArtistUnavailability, error)

	// AvailableArtists returns the active artists with no booking or blackout
	// intersecting the window. The result is unordered.
	AvailableArtists(ctx context.Context, w window.Window) ([]uuid.UUID, error)

	CreateArtist(ctx context.Context, artist *Artist) error
	GetArtist(ctx context.Context, artistID uuid.UUID) (*Artist, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) CreateArtist(ctx context.Context, artist *Artist) error {
	if strings.TrimSpace(artist.Name) == "" {
		return fmt.Errorf("%w: artist name is required", faults.ErrInvalidWindow)
	}
	if artist.CooldownPeriodHours < 0 || artist.MaximumPerformanceHours < 0 {
		return fmt.Errorf("%w: policy hours cannot be negative", faults.ErrPolicyViolation)
	}
	return s.repo.CreateArtist(ctx, artist)
}

func (s *service) GetArtist(ctx context.Context, artistID uuid.UUID) (*Artist, error) {
	return s.repo.GetArtist(ctx, artistID)
}

func (s *service) CheckWindow(ctx context.Context, artistID uuid.UUID, w window.Window) (*CheckResult, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if !w.IsHourWindow() {
		return nil, fmt.Errorf("%w: artist windows are hour windows", faults.ErrInvalidWindow)
	}

	artist, err := s.repo.GetArtist(ctx, artistID)
	if err != nil {
		return nil, err
	}

	if artist.MaximumPerformanceHours > 0 && w.Duration() > artist.MaximumPerformanceHours {
		return nil, fmt.Errorf("%w: window of %dh exceeds maximum performance hours (%dh)",
			faults.ErrPolicyViolation, w.Duration(), artist.MaximumPerformanceHours)
	}

	if !artist.Active {
		return &CheckResult{Available: false}, nil
	}

	bookings, err := s.repo.GetActiveBookings(ctx, artistID, w.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to load artist bookings: %w", err)
	}

	var conflicts []window.Window
	for _, b := range bookings {
		existing := window.HourWindow(b.Date, b.StartHour, b.EndHour)
		if existing.OverlapsHours(w) {
			conflicts = append(conflicts, existing)
			continue
		}
		// Cooldown applies after a prior booking on the same date.
		if artist.CooldownPeriodHours > 0 &&
			b.EndHour <= w.StartHour && w.StartHour < b.EndHour+artist.CooldownPeriodHours {
			return nil, fmt.Errorf("%w: booking may not start before hour %d (cooldown %dh after engagement ending at %d)",
				faults.ErrPolicyViolation, b.EndHour+artist.CooldownPeriodHours, artist.CooldownPeriodHours, b.EndHour)
		}
	}

	unavail, err := s.repo.GetUnavailability(ctx, artistID, w.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to load artist unavailability: %w", err)
	}
	if unavail != nil {
		conflicts = append(conflicts, blackoutConflicts(unavail, w)...)
	}

	return &CheckResult{
		Available: len(conflicts) == 0,
		Conflicts: conflicts,
	}, nil
}

func (s *service) Reserve(ctx context.Context, artistID, bookingID, userID uuid.UUID, w window.Window) error {
	// Re-check directly before the write to keep the race window narrow.
	result, err := s.CheckWindow(ctx, artistID, w)
	if err != nil {
		return err
	}
	if !result.Available {
		return fmt.Errorf("%w: artist %s on %s", faults.ErrResourceUnavailable, artistID, w)
	}

	booking := &ArtistBooking{
		ArtistID:  artistID,
		BookingID: bookingID,
		UserID:    userID,
		Date:      w.Date,
		StartHour: w.StartHour,
		EndHour:   w.EndHour,
		Status:    BookingStatusPending,
	}

	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		return fmt.Errorf("failed to create artist booking: %w", err)
	}
	return nil
}

func (s *service) OverlappingEngagements(ctx context.Context) ([]EngagementOverlap, error) {
	active, err := s.repo.ListActiveBookings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list engagements: %w", err)
	}

	type artistDate struct {
		artistID uuid.UUID
		date     string
	}
	grouped := make(map[artistDate][]ArtistBooking)
	for _, b := range active {
		k := artistDate{b.ArtistID, b.Date}
		grouped[k] = append(grouped[k], b)
	}

	var flagged []EngagementOverlap
	for k, group := range grouped {
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(i, j int) bool { return group[i].StartHour < group[j].StartHour })

		overlapping := make(map[int]bool)
		for i := 1; i < len(group); i++ {
			for j := 0; j < i; j++ {
				if group[i].StartHour < group[j].EndHour {
					overlapping[i] = true
					overlapping[j] = true
				}
			}
		}
		if len(overlapping) == 0 {
			continue
		}

		var windows []window.Window
		for i, b := range group {
			if overlapping[i] {
				windows = append(windows, window.HourWindow(b.Date, b.StartHour, b.EndHour))
			}
		}
		flagged = append(flagged, EngagementOverlap{
			ArtistID: k.artistID,
			Date:     k.date,
			Windows:  windows,
		})
	}
	return flagged, nil
}

func (s *service) ConfirmEngagements(ctx context.Context, bookingID uuid.UUID) error {
	return s.repo.UpdateBookingStatus(ctx, bookingID, BookingStatusPending, BookingStatusConfirmed, nil)
}

func (s *service) ReleaseEngagements(ctx context.Context, bookingID uuid.UUID, expectedStatus string) error {
	now := time.Now()
	return s.repo.UpdateBookingStatus(ctx, bookingID, expectedStatus, BookingStatusCancelled, &now)
}

func (s *service) DeclareUnavailability(ctx context.Context, artistID uuid.UUID, date string, hours []int) (*ArtistUnavailability, error) {
	if _, err := time.Parse(window.DateLayout, date); err != nil {
		return nil, fmt.Errorf("%w: bad date %q", faults.ErrInvalidWindow, date)
	}
	if len(hours) == 0 {
		return nil, fmt.Errorf("%w: no hours given", faults.ErrInvalidWindow)
	}
	for _, h := range hours {
		if h < 0 || h >= 24 {
			return nil, fmt.Errorf("%w: hour %d out of range", faults.ErrInvalidWindow, h)
		}
	}

	if _, err := s.repo.GetArtist(ctx, artistID); err != nil {
		return nil, err
	}

	return s.repo.UpsertUnavailability(ctx, artistID, date, hours)
}

func (s *service) AvailableArtists(ctx context.Context, w window.Window) ([]uuid.UUID, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if !w.IsHourWindow() {
		return nil, fmt.Errorf("%w: artist windows are hour windows", faults.ErrInvalidWindow)
	}

	active, err := s.repo.ListActiveArtistIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list artists: %w", err)
	}

	booked, err := s.repo.ListBookedArtistIDs(ctx, w.Date, w.StartHour, w.EndHour)
	if err != nil {
		return nil, fmt.Errorf("failed to list booked artists: %w", err)
	}
	unavailable, err := s.repo.ListUnavailableArtistIDs(ctx, w.Date, w.StartHour, w.EndHour)
	if err != nil {
		return nil, fmt.Errorf("failed to list unavailable artists: %w", err)
	}

	excluded := make(map[uuid.UUID]bool, len(booked)+len(unavailable))
	for _, id := range booked {
		excluded[id] = true
	}
	for _, id := range unavailable {
		excluded[id] = true
	}

	available := make([]uuid.UUID, 0, len(active))
	for _, id := range active {
		if !excluded[id] {
			available = append(available, id)
		}
	}
	return available, nil
}

// blackoutConflicts converts the blackout hours intersecting the requested
// window into contiguous conflict windows.
func blackoutConflicts(unavail *ArtistUnavailability, w window.Window) []window.Window {
	blocked := unavail.HourSet()

	var conflicts []window.Window
	runStart := -1
	for h := w.StartHour; h <= w.EndHour; h++ {
		inRun := h < w.EndHour && blocked[h]
		if inRun && runStart < 0 {
			runStart = h
		}
		if !inRun && runStart >= 0 {
			conflicts = append(conflicts, window.HourWindow(unavail.Date, runStart, h))
			runStart = -1
		}
	}
	return conflicts
}
