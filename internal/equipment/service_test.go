package equipment

import (
	"context"
	"testing"

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

func (m *MockRepository) GetEquipment(ctx context.Context, id uuid.UUID) (*Equipment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Equipment), args.Error(1)
}

func (m *MockRepository) ListEquipmentIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockRepository) CreateEquipment(ctx context.Context, eq *Equipment) error {
	args := m.Called(ctx, eq)
	return args.Error(0)
}

func (m *MockRepository) GetOverlappingReservations(ctx context.Context, equipmentID uuid.UUID, startDate, endDate string) ([]EquipmentReservation, error) {
	args := m.Called(ctx, equipmentID, startDate, endDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]EquipmentReservation), args.Error(1)
}

func (m *MockRepository) GetActiveReservations(ctx context.Context, equipmentID uuid.UUID) ([]EquipmentReservation, error) {
	args := m.Called(ctx, equipmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]EquipmentReservation), args.Error(1)
}

func (m *MockRepository) CreateReservation(ctx context.Context, res *EquipmentReservation) error {
	args := m.Called(ctx, res)
	return args.Error(0)
}

func (m *MockRepository) UpdateReservationStatus(ctx context.Context, bookingID uuid.UUID, expected, next string) error {
	args := m.Called(ctx, bookingID, expected, next)
	return args.Error(0)
}

func (m *MockRepository) GetOverlappingMaintenance(ctx context.Context, equipmentID uuid.UUID, startDate, endDate string) ([]MaintenanceBlock, error) {
	args := m.Called(ctx, equipmentID, startDate, endDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]MaintenanceBlock), args.Error(1)
}

func (m *MockRepository) CreateMaintenanceBlock(ctx context.Context, block *MaintenanceBlock) error {
	args := m.Called(ctx, block)
	return args.Error(0)
}

func TestCheck_QuantityConservation(t *testing.T) {
	// Equipment Y has stock 5; booking 1 holds 3 units for 11-01..11-03.
	eq := &Equipment{ID: uuid.New(), Name: "PA System", TotalStock: 5}
	existing := []EquipmentReservation{{
		EquipmentID: eq.ID,
		StartDate:   "2025-11-01",
		EndDate:     "2025-11-03",
		Quantity:    3,
		Status:      ReservationStatusConfirmed,
	}}

	tests := []struct {
		name          string
		quantity      int
		wantAvailable bool
	}{
		{"3 more units rejected, 3+3 > 5", 3, false},
		{"2 more units accepted", 2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			repo.On("GetEquipment", mock.Anything, eq.ID).Return(eq, nil)
			repo.On("GetOverlappingReservations", mock.Anything, eq.ID, "2025-11-02", "2025-11-04").Return(existing, nil)
			repo.On("GetOverlappingMaintenance", mock.Anything, eq.ID, "2025-11-02", "2025-11-04").Return([]MaintenanceBlock{}, nil)

			svc := NewService(repo)
			result, err := svc.Check(context.Background(), eq.ID, tt.quantity, window.DateRange("2025-11-02", "2025-11-04"))

			require.NoError(t, err)
			assert.Equal(t, tt.wantAvailable, result.Available)
			assert.Equal(t, 2, result.Remaining)
			if !tt.wantAvailable {
				assert.NotEmpty(t, result.Conflicts)
			}
		})
	}
}

func TestCheck_MaintenanceReducesStock(t *testing.T) {
	eq := &Equipment{ID: uuid.New(), Name: "Stage Lights", TotalStock: 10}

	repo := new(MockRepository)
	repo.On("GetEquipment", mock.Anything, eq.ID).Return(eq, nil)
	repo.On("GetOverlappingReservations", mock.Anything, eq.ID, "2025-11-01", "2025-11-01").
		Return([]EquipmentReservation{{Quantity: 4, Status: ReservationStatusPending}}, nil)
	repo.On("GetOverlappingMaintenance", mock.Anything, eq.ID, "2025-11-01", "2025-11-01").
		Return([]MaintenanceBlock{{Quantity: 3}}, nil)

	svc := NewService(repo)

	// usable = 10 - 3 = 7, reserved = 4, so 3 fits but 4 does not
	result, err := svc.Check(context.Background(), eq.ID, 3, window.DateRange("2025-11-01", "2025-11-01"))
	require.NoError(t, err)
	assert.True(t, result.Available)

	result, err = svc.Check(context.Background(), eq.ID, 4, window.DateRange("2025-11-01", "2025-11-01"))
	require.NoError(t, err)
	assert.False(t, result.Available)
}

func TestCheck_HourWindowFoldsToSingleDay(t *testing.T) {
	eq := &Equipment{ID: uuid.New(), TotalStock: 2}

	repo := new(MockRepository)
	repo.On("GetEquipment", mock.Anything, eq.ID).Return(eq, nil)
	repo.On("GetOverlappingReservations", mock.Anything, eq.ID, "2025-11-01", "2025-11-01").
		Return([]EquipmentReservation{}, nil)
	repo.On("GetOverlappingMaintenance", mock.Anything, eq.ID, "2025-11-01", "2025-11-01").
		Return([]MaintenanceBlock{}, nil)

	svc := NewService(repo)
	result, err := svc.Check(context.Background(), eq.ID, 1, window.HourWindow("2025-11-01", 10, 12))
	require.NoError(t, err)
	assert.True(t, result.Available)
}

func TestCheck_InvalidInput(t *testing.T) {
	svc := NewService(new(MockRepository))

	_, err := svc.Check(context.Background(), uuid.New(), 0, window.DateRange("2025-11-01", "2025-11-02"))
	assert.ErrorIs(t, err, faults.ErrInvalidWindow)

	_, err = svc.Check(context.Background(), uuid.New(), 1, window.DateRange("2025-11-03", "2025-11-01"))
	assert.ErrorIs(t, err, faults.ErrInvalidWindow)
}

func TestReserve_RejectsWhenFull(t *testing.T) {
	eq := &Equipment{ID: uuid.New(), TotalStock: 5}
	existing := []EquipmentReservation{{Quantity: 3, StartDate: "2025-11-01", EndDate: "2025-11-03", Status: ReservationStatusConfirmed}}

	repo := new(MockRepository)
	repo.On("GetEquipment", mock.Anything, eq.ID).Return(eq, nil)
	repo.On("GetOverlappingReservations", mock.Anything, eq.ID, "2025-11-02", "2025-11-04").Return(existing, nil)
	repo.On("GetOverlappingMaintenance", mock.Anything, eq.ID, "2025-11-02", "2025-11-04").Return([]MaintenanceBlock{}, nil)

	svc := NewService(repo)

	err := svc.Reserve(context.Background(), eq.ID, uuid.New(), 3, window.DateRange("2025-11-02", "2025-11-04"))
	assert.ErrorIs(t, err, faults.ErrResourceUnavailable)
	repo.AssertNotCalled(t, "CreateReservation", mock.Anything, mock.Anything)
}

func TestReserve_CreatesPendingReservation(t *testing.T) {
	eq := &Equipment{ID: uuid.New(), TotalStock: 5}
	bookingID := uuid.New()

	repo := new(MockRepository)
	repo.On("GetEquipment", mock.Anything, eq.ID).Return(eq, nil)
	repo.On("GetOverlappingReservations", mock.Anything, eq.ID, "2025-11-01", "2025-11-02").Return([]EquipmentReservation{}, nil)
	repo.On("GetOverlappingMaintenance", mock.Anything, eq.ID, "2025-11-01", "2025-11-02").Return([]MaintenanceBlock{}, nil)
	repo.On("CreateReservation", mock.Anything, mock.MatchedBy(func(res *EquipmentReservation) bool {
		return res.Status == ReservationStatusPending && res.Quantity == 2 && res.BookingID == bookingID
	})).Return(nil)

	svc := NewService(repo)

	err := svc.Reserve(context.Background(), eq.ID, bookingID, 2, window.DateRange("2025-11-01", "2025-11-02"))
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestOverAllocations(t *testing.T) {
	eq := &Equipment{ID: uuid.New(), TotalStock: 5}

	repo := new(MockRepository)
	repo.On("ListEquipmentIDs", mock.Anything).Return([]uuid.UUID{eq.ID}, nil)
	repo.On("GetEquipment", mock.Anything, eq.ID).Return(eq, nil)
	// Two reservations that only collide on 2025-11-02.
	repo.On("GetActiveReservations", mock.Anything, eq.ID).Return([]EquipmentReservation{
		{Quantity: 3, StartDate: "2025-11-01", EndDate: "2025-11-02", Status: ReservationStatusConfirmed},
		{Quantity: 3, StartDate: "2025-11-02", EndDate: "2025-11-03", Status: ReservationStatusPending},
	}, nil)
	repo.On("GetOverlappingMaintenance", mock.Anything, eq.ID, mock.Anything, mock.Anything).Return([]MaintenanceBlock{}, nil)

	svc := NewService(repo)

	flagged, err := svc.OverAllocations(context.Background())
	require.NoError(t, err)
	require.Len(t, flagged, 1)
	assert.Equal(t, "2025-11-02", flagged[0].Date)
	assert.Equal(t, 6, flagged[0].Reserved)
	assert.Equal(t, 5, flagged[0].Usable)
}

func TestDatesIn(t *testing.T) {
	assert.Equal(t, []string{"2025-11-01", "2025-11-02", "2025-11-03"}, datesIn("2025-11-01", "2025-11-03"))
	assert.Equal(t, []string{"2025-11-01"}, datesIn("2025-11-01", "2025-11-01"))
	assert.Nil(t, datesIn("bad", "2025-11-01"))
}
