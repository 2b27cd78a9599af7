package artists

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gigbook/internal/shared/faults"
	"gigbook/internal/window"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetArtist(ctx context.Context, id uuid.UUID) (*Artist, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Artist), args.Error(1)
}

func (m *MockRepository) ListActiveArtistIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockRepository) CreateArtist(ctx context.Context, artist *Artist) error {
	args := m.Called(ctx, artist)
	return args.Error(0)
}

func (m *MockRepository) GetActiveBookings(ctx context.Context, artistID uuid.UUID, date string) ([]ArtistBooking, error) {
	args := m.Called(ctx, artistID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ArtistBooking), args.Error(1)
}

func (m *MockRepository) ListActiveBookings(ctx context.Context) ([]ArtistBooking, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ArtistBooking), args.Error(1)
}

func (m *MockRepository) CreateBooking(ctx context.Context, booking *ArtistBooking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockRepository) UpdateBookingStatus(ctx context.Context, bookingID uuid.UUID, expected, next string, cancelledAt *time.Time) error {
	args := m.Called(ctx, bookingID, expected, next, cancelledAt)
	return args.Error(0)
}

func (m *MockRepository) GetBookingsByBookingID(ctx context.Context, bookingID uuid.UUID) ([]ArtistBooking, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ArtistBooking), args.Error(1)
}

func (m *MockRepository) GetUnavailability(ctx context.Context, artistID uuid.UUID, date string) (*ArtistUnavailability, error) {
	args := m.Called(ctx, artistID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ArtistUnavailability), args.Error(1)
}

func (m *MockRepository) UpsertUnavailability(ctx context.Context, artistID uuid.UUID, date string, hours []int) (*ArtistUnavailability, error) {
	args := m.Called(ctx, artistID, date, hours)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ArtistUnavailability), args.Error(1)
}

func (m *MockRepository) ListUnavailableArtistIDs(ctx context.Context, date string, startHour, endHour int) ([]uuid.UUID, error) {
	args := m.Called(ctx, date, startHour, endHour)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockRepository) ListBookedArtistIDs(ctx context.Context, date string, startHour, endHour int) ([]uuid.UUID, error) {
	args := m.Called(ctx, date, startHour, endHour)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func activeArtist() *Artist {
	return &Artist{
		ID:     uuid.New(),
		Name:   "Test Artist",
		Active: true,
	}
}

func TestCheckWindow_OverlapBoundaries(t *testing.T) {
	// Artist X has a confirmed booking on 2025-11-01 from hour 18 to 20.
	artist := activeArtist()
	existing := []ArtistBooking{{
		ArtistID:  artist.ID,
		Date:      "2025-11-01",
		StartHour: 18,
		EndHour:   20,
		Status:    BookingStatusConfirmed,
	}}

	tests := []struct {
		name          string
		start, end    int
		wantAvailable bool
	}{
		{"overlapping request rejected", 19, 21, false},
		{"half-open boundary allowed", 20, 22, true},
		{"before existing allowed", 15, 18, true},
		{"containing request rejected", 17, 21, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			repo.On("GetArtist", mock.Anything, artist.ID).Return(artist, nil)
			repo.On("GetActiveBookings", mock.Anything, artist.ID, "2025-11-01").Return(existing, nil)
			repo.On("GetUnavailability", mock.Anything, artist.ID, "2025-11-01").Return(nil, nil)

			svc := NewService(repo)
			result, err := svc.CheckWindow(context.Background(), artist.ID, window.HourWindow("2025-11-01", tt.start, tt.end))

			require.NoError(t, err)
			assert.Equal(t, tt.wantAvailable, result.Available)
			if !tt.wantAvailable {
				assert.NotEmpty(t, result.Conflicts)
			}
		})
	}
}

func TestCheckWindow_Cooldown(t *testing.T) {
	artist := activeArtist()
	artist.CooldownPeriodHours = 2

	existing := []ArtistBooking{{
		ArtistID:  artist.ID,
		Date:      "2025-11-01",
		StartHour: 12,
		EndHour:   14,
		Status:    BookingStatusConfirmed,
	}}

	repo := new(MockRepository)
	repo.On("GetArtist", mock.Anything, artist.ID).Return(artist, nil)
	repo.On("GetActiveBookings", mock.Anything, artist.ID, "2025-11-01").Return(existing, nil)
	repo.On("GetUnavailability", mock.Anything, artist.ID, "2025-11-01").Return(nil, nil)

	svc := NewService(repo)

	// Booking ending at 14 with a 2h cooldown rejects starts before 16.
	_, err := svc.CheckWindow(context.Background(), artist.ID, window.HourWindow("2025-11-01", 15, 17))
	assert.ErrorIs(t, err, faults.ErrPolicyViolation)

	result, err := svc.CheckWindow(context.Background(), artist.ID, window.HourWindow("2025-11-01", 16, 18))
	require.NoError(t, err)
	assert.True(t, result.Available)
}

func TestCheckWindow_MaximumPerformanceHours(t *testing.T) {
	artist := activeArtist()
	artist.MaximumPerformanceHours = 3

	repo := new(MockRepository)
	repo.On("GetArtist", mock.Anything, artist.ID).Return(artist, nil)

	svc := NewService(repo)

	_, err := svc.CheckWindow(context.Background(), artist.ID, window.HourWindow("2025-11-01", 10, 14))
	assert.ErrorIs(t, err, faults.ErrPolicyViolation)
}

func TestCheckWindow_Unavailability(t *testing.T) {
	artist := activeArtist()

	repo := new(MockRepository)
	repo.On("GetArtist", mock.Anything, artist.ID).Return(artist, nil)
	repo.On("GetActiveBookings", mock.Anything, artist.ID, "2025-11-01").Return([]ArtistBooking{}, nil)
	repo.On("GetUnavailability", mock.Anything, artist.ID, "2025-11-01").Return(&ArtistUnavailability{
		ArtistID: artist.ID,
		Date:     "2025-11-01",
		Hours:    []int{19, 20},
	}, nil)

	svc := NewService(repo)

	result, err := svc.CheckWindow(context.Background(), artist.ID, window.HourWindow("2025-11-01", 18, 20))
	require.NoError(t, err)
	assert.False(t, result.Available)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, 19, result.Conflicts[0].StartHour)
	assert.Equal(t, 20, result.Conflicts[0].EndHour)

	// Blackout hour 20 does not touch the half-open window [18,20).
	repo2 := new(MockRepository)
	repo2.On("GetArtist", mock.Anything, artist.ID).Return(artist, nil)
	repo2.On("GetActiveBookings", mock.Anything, artist.ID, "2025-11-01").Return([]ArtistBooking{}, nil)
	repo2.On("GetUnavailability", mock.Anything, artist.ID, "2025-11-01").Return(&ArtistUnavailability{
		ArtistID: artist.ID,
		Date:     "2025-11-01",
		Hours:    []int{20},
	}, nil)

	result, err = NewService(repo2).CheckWindow(context.Background(), artist.ID, window.HourWindow("2025-11-01", 18, 20))
	require.NoError(t, err)
	assert.True(t, result.Available)
}

func TestCheckWindow_InvalidWindow(t *testing.T) {
	svc := NewService(new(MockRepository))

	_, err := svc.CheckWindow(context.Background(), uuid.New(), window.HourWindow("2025-11-01", 20, 20))
	assert.ErrorIs(t, err, faults.ErrInvalidWindow)

	_, err = svc.CheckWindow(context.Background(), uuid.New(), window.DateRange("2025-11-01", "2025-11-02"))
	assert.ErrorIs(t, err, faults.ErrInvalidWindow)
}

func TestReserve_Unavailable(t *testing.T) {
	artist := activeArtist()
	existing := []ArtistBooking{{
		ArtistID:  artist.ID,
		Date:      "2025-11-01",
		StartHour: 18,
		EndHour:   20,
		Status:    BookingStatusConfirmed,
	}}

	repo := new(MockRepository)
	repo.On("GetArtist", mock.Anything, artist.ID).Return(artist, nil)
	repo.On("GetActiveBookings", mock.Anything, artist.ID, "2025-11-01").Return(existing, nil)
	repo.On("GetUnavailability", mock.Anything, artist.ID, "2025-11-01").Return(nil, nil)

	svc := NewService(repo)

	err := svc.Reserve(context.Background(), artist.ID, uuid.New(), uuid.New(), window.HourWindow("2025-11-01", 19, 21))
	assert.ErrorIs(t, err, faults.ErrResourceUnavailable)
	repo.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
}

func TestReserve_CreatesPendingBooking(t *testing.T) {
	artist := activeArtist()
	bookingID := uuid.New()
	userID := uuid.New()

	repo := new(MockRepository)
	repo.On("GetArtist", mock.Anything, artist.ID).Return(artist, nil)
	repo.On("GetActiveBookings", mock.Anything, artist.ID, "2025-11-01").Return([]ArtistBooking{}, nil)
	repo.On("GetUnavailability", mock.Anything, artist.ID, "2025-11-01").Return(nil, nil)
	repo.On("CreateBooking", mock.Anything, mock.MatchedBy(func(b *ArtistBooking) bool {
		return b.Status == BookingStatusPending && b.BookingID == bookingID && b.StartHour == 18 && b.EndHour == 20
	})).Return(nil)

	svc := NewService(repo)

	err := svc.Reserve(context.Background(), artist.ID, bookingID, userID, window.HourWindow("2025-11-01", 18, 20))
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestReserve_ConcurrentChecksAdmitOverlap(t *testing.T) {
	// Two reserves for the same hours both run their check before either
	// insert lands, so both pass and both engagements are written. The
	// overlap scan must flag what the unserialized check let through.
	artist := activeArtist()
	w := window.HourWindow("2025-11-01", 18, 20)

	repo := new(MockRepository)
	repo.On("GetArtist", mock.Anything, artist.ID).Return(artist, nil)
	// Both checks read the ledger before either write: no conflicts seen.
	repo.On("GetActiveBookings", mock.Anything, artist.ID, "2025-11-01").Return([]ArtistBooking{}, nil)
	repo.On("GetUnavailability", mock.Anything, artist.ID, "2025-11-01").Return(nil, nil)

	var inserted []ArtistBooking
	repo.On("CreateBooking", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		inserted = append(inserted, *args.Get(1).(*ArtistBooking))
	}).Return(nil)

	svc := NewService(repo)

	require.NoError(t, svc.Reserve(context.Background(), artist.ID, uuid.New(), uuid.New(), w))
	require.NoError(t, svc.Reserve(context.Background(), artist.ID, uuid.New(), uuid.New(), w))
	require.Len(t, inserted, 2)

	repo.On("ListActiveBookings", mock.Anything).Return(inserted, nil)

	flagged, err := svc.OverlappingEngagements(context.Background())
	require.NoError(t, err)
	require.Len(t, flagged, 1)
	assert.Equal(t, artist.ID, flagged[0].ArtistID)
	assert.Equal(t, "2025-11-01", flagged[0].Date)
	assert.Len(t, flagged[0].Windows, 2)
}

func TestOverlappingEngagements_IgnoresDisjointAndInactive(t *testing.T) {
	artistID := uuid.New()
	active := []ArtistBooking{
		{ArtistID: artistID, Date: "2025-11-01", StartHour: 10, EndHour: 12, Status: BookingStatusConfirmed},
		// Half-open windows: back to back is not an overlap.
		{ArtistID: artistID, Date: "2025-11-01", StartHour: 12, EndHour: 14, Status: BookingStatusPending},
		// Same hours on another date.
		{ArtistID: artistID, Date: "2025-11-02", StartHour: 10, EndHour: 12, Status: BookingStatusConfirmed},
	}

	repo := new(MockRepository)
	repo.On("ListActiveBookings", mock.Anything).Return(active, nil)

	svc := NewService(repo)

	flagged, err := svc.OverlappingEngagements(context.Background())
	require.NoError(t, err)
	assert.Empty(t, flagged)
}

func TestDeclareUnavailability_Validation(t *testing.T) {
	svc := NewService(new(MockRepository))

	_, err := svc.DeclareUnavailability(context.Background(), uuid.New(), "not-a-date", []int{10})
	assert.ErrorIs(t, err, faults.ErrInvalidWindow)

	_, err = svc.DeclareUnavailability(context.Background(), uuid.New(), "2025-11-01", nil)
	assert.ErrorIs(t, err, faults.ErrInvalidWindow)

	_, err = svc.DeclareUnavailability(context.Background(), uuid.New(), "2025-11-01", []int{24})
	assert.ErrorIs(t, err, faults.ErrInvalidWindow)
}

func TestAvailableArtists_SetDifference(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	repo := new(MockRepository)
	repo.On("ListActiveArtistIDs", mock.Anything).Return([]uuid.UUID{a, b, c}, nil)
	repo.On("ListBookedArtistIDs", mock.Anything, "2025-11-01", 18, 20).Return([]uuid.UUID{b}, nil)
	repo.On("ListUnavailableArtistIDs", mock.Anything, "2025-11-01", 18, 20).Return([]uuid.UUID{c}, nil)

	svc := NewService(repo)

	available, err := svc.AvailableArtists(context.Background(), window.HourWindow("2025-11-01", 18, 20))
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{a}, available)
}

func TestUnionHours(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3}, unionHours([]int{1, 3}, []int{2, 3}))
	assert.Equal(t, []int{5}, unionHours(nil, []int{5, 5, -1, 24}))
}
