package availability

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gigbook/internal/artists"
	"gigbook/internal/equipment"
	"gigbook/internal/shared/faults"
	"gigbook/internal/units"
	"gigbook/internal/window"
)

type MockArtistChecker struct {
	mock.Mock
}

func (m *MockArtistChecker) CheckWindow(ctx context.Context, artistID uuid.UUID, w window.Window) (*artists.CheckResult, error) {
	args := m.Called(ctx, artistID, w)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*artists.CheckResult), args.Error(1)
}

func (m *MockArtistChecker) AvailableArtists(ctx context.Context, w window.Window) ([]uuid.UUID, error) {
	args := m.Called(ctx, w)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

type MockEquipmentChecker struct {
	mock.Mock
}

func (m *MockEquipmentChecker) Check(ctx context.Context, equipmentID uuid.UUID, quantity int, w window.Window) (*equipment.CheckResult, error) {
	args := m.Called(ctx, equipmentID, quantity, w)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*equipment.CheckResult), args.Error(1)
}

type MockUnitChecker struct {
	mock.Mock
}

func (m *MockUnitChecker) Check(ctx context.Context, unitIDs []uuid.UUID) (*units.CheckResult, error) {
	args := m.Called(ctx, unitIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*units.CheckResult), args.Error(1)
}

func newTestService(a *MockArtistChecker, e *MockEquipmentChecker, u *MockUnitChecker) Service {
	return NewService(a, e, u, nil, 0)
}

func TestResourceRef_Validate(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name    string
		ref     ResourceRef
		wantErr bool
	}{
		{"artist", ResourceRef{Type: ResourceArtist, ID: id}, false},
		{"unit", ResourceRef{Type: ResourceUnit, ID: id}, false},
		{"equipment with quantity", ResourceRef{Type: ResourceEquipment, ID: id, Quantity: 2}, false},
		{"equipment without quantity", ResourceRef{Type: ResourceEquipment, ID: id}, true},
		{"artist with quantity", ResourceRef{Type: ResourceArtist, ID: id, Quantity: 3}, true},
		{"unknown type", ResourceRef{Type: "STAGE", ID: id}, true},
		{"missing id", ResourceRef{Type: ResourceArtist}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ref.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, faults.ErrInvalidWindow)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheck_DispatchesArtist(t *testing.T) {
	artistID := uuid.New()
	w := window.HourWindow("2025-11-01", 18, 20)
	conflict := window.HourWindow("2025-11-01", 19, 21)

	a := new(MockArtistChecker)
	a.On("CheckWindow", mock.Anything, artistID, w).Return(&artists.CheckResult{
		Available: false,
		Conflicts: []window.Window{conflict},
	}, nil)

	svc := newTestService(a, new(MockEquipmentChecker), new(MockUnitChecker))

	result, err := svc.Check(context.Background(), ResourceRef{Type: ResourceArtist, ID: artistID}, w)
	require.NoError(t, err)
	assert.False(t, result.Available)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, conflict, result.Conflicts[0])
}

func TestCheck_DispatchesEquipment(t *testing.T) {
	equipmentID := uuid.New()
	w := window.DateRange("2025-11-01", "2025-11-03")

	e := new(MockEquipmentChecker)
	e.On("Check", mock.Anything, equipmentID, 2, w).Return(&equipment.CheckResult{
		Available: true,
		Remaining: 3,
	}, nil)

	svc := newTestService(new(MockArtistChecker), e, new(MockUnitChecker))

	result, err := svc.Check(context.Background(), ResourceRef{Type: ResourceEquipment, ID: equipmentID, Quantity: 2}, w)
	require.NoError(t, err)
	assert.True(t, result.Available)
	assert.Equal(t, 3, result.Remaining)
}

func TestCheck_DispatchesUnit(t *testing.T) {
	unitID := uuid.New()
	w := window.HourWindow("2025-11-01", 18, 20)

	u := new(MockUnitChecker)
	u.On("Check", mock.Anything, []uuid.UUID{unitID}).Return(&units.CheckResult{
		Available:        false,
		UnavailableUnits: []uuid.UUID{unitID},
	}, nil)

	svc := newTestService(new(MockArtistChecker), new(MockEquipmentChecker), u)

	result, err := svc.Check(context.Background(), ResourceRef{Type: ResourceUnit, ID: unitID}, w)
	require.NoError(t, err)
	assert.False(t, result.Available)
}

func TestCheck_PolicyErrorPassesThrough(t *testing.T) {
	artistID := uuid.New()
	w := window.HourWindow("2025-11-01", 10, 22)

	a := new(MockArtistChecker)
	a.On("CheckWindow", mock.Anything, artistID, w).Return(nil, faults.ErrPolicyViolation)

	svc := newTestService(a, new(MockEquipmentChecker), new(MockUnitChecker))

	_, err := svc.Check(context.Background(), ResourceRef{Type: ResourceArtist, ID: artistID}, w)
	assert.ErrorIs(t, err, faults.ErrPolicyViolation)
}

func TestCheck_InvalidRef(t *testing.T) {
	svc := newTestService(new(MockArtistChecker), new(MockEquipmentChecker), new(MockUnitChecker))

	_, err := svc.Check(context.Background(),
		ResourceRef{Type: "STAGE", ID: uuid.New()},
		window.HourWindow("2025-11-01", 18, 20))
	assert.ErrorIs(t, err, faults.ErrInvalidWindow)
}

func TestSearchArtists(t *testing.T) {
	w := window.HourWindow("2025-11-01", 18, 20)
	free := []uuid.UUID{uuid.New(), uuid.New()}

	a := new(MockArtistChecker)
	a.On("AvailableArtists", mock.Anything, w).Return(free, nil)

	svc := newTestService(a, new(MockEquipmentChecker), new(MockUnitChecker))

	ids, err := svc.SearchArtists(context.Background(), w)
	require.NoError(t, err)
	assert.ElementsMatch(t, free, ids)
}

func TestCheckQuery_Window(t *testing.T) {
	start, end := 18, 20

	t.Run("hour window", func(t *testing.T) {
		q := CheckQuery{Date: "2025-11-01", StartHour: &start, EndHour: &end}
		w, err := q.Window()
		require.NoError(t, err)
		assert.True(t, w.IsHourWindow())
	})

	t.Run("date range", func(t *testing.T) {
		q := CheckQuery{StartDate: "2025-11-01", EndDate: "2025-11-03"}
		w, err := q.Window()
		require.NoError(t, err)
		assert.True(t, w.IsDateRange())
	})

	t.Run("date without hours", func(t *testing.T) {
		q := CheckQuery{Date: "2025-11-01"}
		_, err := q.Window()
		assert.ErrorIs(t, err, faults.ErrInvalidWindow)
	})

	t.Run("no shape at all", func(t *testing.T) {
		_, err := CheckQuery{}.Window()
		assert.ErrorIs(t, err, faults.ErrInvalidWindow)
	})
}
