package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gigbook/internal/artists"
	"gigbook/internal/availability"
	"gigbook/internal/bookings"
	"gigbook/internal/equipment"
	"gigbook/internal/shared/faults"
	"gigbook/internal/units"
	"gigbook/pkg/logger"
)

type MockTransitionApplier struct {
	mock.Mock
}

func (m *MockTransitionApplier) ApplyTransition(ctx context.Context, bookingID uuid.UUID, target bookings.Status) (*bookings.Booking, error) {
	args := m.Called(ctx, bookingID, target)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bookings.Booking), args.Error(1)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) PublishStatusJob(ctx context.Context, job *StatusJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockProducer) PublishToDeadLetter(ctx context.Context, job *StatusJob, cause error) error {
	args := m.Called(ctx, job, cause)
	return args.Error(0)
}

func (m *MockProducer) Close() error {
	args := m.Called()
	return args.Error(0)
}

func expiryJob(runAt time.Time) *StatusJob {
	return &StatusJob{
		BookingID:    uuid.New(),
		Refs:         []availability.ResourceRef{{Type: availability.ResourceArtist, ID: uuid.New()}},
		TargetStatus: bookings.StatusExpired,
		RunAt:        runAt,
		EnqueuedAt:   time.Now(),
	}
}

func newHandler(engine *MockTransitionApplier, producer *MockProducer) *Handler {
	return NewHandler(engine, producer, 3, 10*time.Millisecond, logger.New())
}

func TestHandleJob_DueJobAppliesTransition(t *testing.T) {
	engine := new(MockTransitionApplier)
	producer := new(MockProducer)
	job := expiryJob(time.Now().Add(-time.Minute))

	engine.On("ApplyTransition", mock.Anything, job.BookingID, bookings.StatusExpired).
		Return(&bookings.Booking{ID: job.BookingID, Status: bookings.StatusExpired}, nil)

	err := newHandler(engine, producer).HandleJob(context.Background(), job, time.Now())
	require.NoError(t, err)
	producer.AssertNotCalled(t, "PublishStatusJob", mock.Anything, mock.Anything)
}

func TestHandleJob_NotDueJobIsRequeued(t *testing.T) {
	engine := new(MockTransitionApplier)
	producer := new(MockProducer)
	job := expiryJob(time.Now().Add(time.Hour))

	producer.On("PublishStatusJob", mock.Anything, job).Return(nil)

	err := newHandler(engine, producer).HandleJob(context.Background(), job, time.Now())
	require.NoError(t, err)
	producer.AssertCalled(t, "PublishStatusJob", mock.Anything, job)
	engine.AssertNotCalled(t, "ApplyTransition", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleJob_SupersededTransitionIsSettled(t *testing.T) {
	// The booking was confirmed before its expiry fired. The job must be
	// committed without error; at-least-once delivery makes this common.
	engine := new(MockTransitionApplier)
	producer := new(MockProducer)
	job := expiryJob(time.Now().Add(-time.Minute))

	engine.On("ApplyTransition", mock.Anything, job.BookingID, bookings.StatusExpired).
		Return(nil, faults.ErrInvalidTransition)

	err := newHandler(engine, producer).HandleJob(context.Background(), job, time.Now())
	require.NoError(t, err)
	producer.AssertNotCalled(t, "PublishStatusJob", mock.Anything, mock.Anything)
	producer.AssertNotCalled(t, "PublishToDeadLetter", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleJob_FailureIsRetriedWithAttemptCount(t *testing.T) {
	engine := new(MockTransitionApplier)
	producer := new(MockProducer)
	job := expiryJob(time.Now().Add(-time.Minute))

	engine.On("ApplyTransition", mock.Anything, job.BookingID, bookings.StatusExpired).
		Return(nil, errors.New("database unreachable"))
	producer.On("PublishStatusJob", mock.Anything, mock.MatchedBy(func(j *StatusJob) bool {
		return j.Attempt == 1 && j.LastError != ""
	})).Return(nil)

	err := newHandler(engine, producer).HandleJob(context.Background(), job, time.Now())
	require.NoError(t, err)
	producer.AssertExpectations(t)
}

func TestHandleJob_ExhaustedRetriesGoToDeadLetter(t *testing.T) {
	engine := new(MockTransitionApplier)
	producer := new(MockProducer)
	job := expiryJob(time.Now().Add(-time.Minute))
	job.Attempt = 3

	cause := errors.New("database unreachable")
	engine.On("ApplyTransition", mock.Anything, job.BookingID, bookings.StatusExpired).
		Return(nil, cause)
	producer.On("PublishToDeadLetter", mock.Anything, mock.MatchedBy(func(j *StatusJob) bool {
		return j.Attempt == 4
	}), cause).Return(nil)

	err := newHandler(engine, producer).HandleJob(context.Background(), job, time.Now())
	require.NoError(t, err)
	producer.AssertExpectations(t)
	producer.AssertNotCalled(t, "PublishStatusJob", mock.Anything, mock.Anything)
}

func TestStatusJob_RoundTrip(t *testing.T) {
	job := expiryJob(time.Now().Add(time.Minute).Truncate(time.Second))

	data, err := job.ToJSON()
	require.NoError(t, err)

	decoded, err := StatusJobFromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, job.BookingID, decoded.BookingID)
	assert.Equal(t, job.TargetStatus, decoded.TargetStatus)
	assert.Equal(t, job.BookingID.String(), decoded.PartitionKey())
	assert.False(t, decoded.IsDue(time.Now()))
	assert.True(t, decoded.IsDue(time.Now().Add(2*time.Minute)))
}

type MockUnitSweeper struct {
	mock.Mock
}

func (m *MockUnitSweeper) SweepStaleLocks(ctx context.Context, now time.Time) ([]units.Unit, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]units.Unit), args.Error(1)
}

type MockBookingReconciler struct {
	mock.Mock
}

func (m *MockBookingReconciler) ExpireOverdue(ctx context.Context, now time.Time, limit int) (int, error) {
	args := m.Called(ctx, now, limit)
	return args.Int(0), args.Error(1)
}

func (m *MockBookingReconciler) ReconcileSettlements(ctx context.Context, now time.Time, limit int) (int, error) {
	args := m.Called(ctx, now, limit)
	return args.Int(0), args.Error(1)
}

type MockAllocationScanner struct {
	mock.Mock
}

func (m *MockAllocationScanner) OverAllocations(ctx context.Context) ([]equipment.OverAllocation, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]equipment.OverAllocation), args.Error(1)
}

type MockEngagementScanner struct {
	mock.Mock
}

func (m *MockEngagementScanner) OverlappingEngagements(ctx context.Context) ([]artists.EngagementOverlap, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]artists.EngagementOverlap), args.Error(1)
}

func TestSweep_RunsAllSteps(t *testing.T) {
	unitSweeper := new(MockUnitSweeper)
	reconciler := new(MockBookingReconciler)
	scanner := new(MockAllocationScanner)
	engagements := new(MockEngagementScanner)

	lockedBy := "session-abc"
	unitSweeper.On("SweepStaleLocks", mock.Anything, mock.Anything).
		Return([]units.Unit{{ID: uuid.New(), LockedBy: &lockedBy}}, nil)
	reconciler.On("ExpireOverdue", mock.Anything, mock.Anything, 100).Return(2, nil)
	reconciler.On("ReconcileSettlements", mock.Anything, mock.Anything, 100).Return(1, nil)
	scanner.On("OverAllocations", mock.Anything).
		Return([]equipment.OverAllocation{{EquipmentID: uuid.New(), Date: "2025-11-02", Reserved: 6, Usable: 5}}, nil)
	engagements.On("OverlappingEngagements", mock.Anything).
		Return([]artists.EngagementOverlap{{ArtistID: uuid.New(), Date: "2025-11-02"}}, nil)

	sweeper := NewSweeper(unitSweeper, reconciler, scanner, engagements, nil, logger.New())
	sweeper.Sweep(context.Background())

	unitSweeper.AssertExpectations(t)
	reconciler.AssertExpectations(t)
	scanner.AssertExpectations(t)
	engagements.AssertExpectations(t)
}

func TestSweep_OneStepFailureDoesNotStopOthers(t *testing.T) {
	unitSweeper := new(MockUnitSweeper)
	reconciler := new(MockBookingReconciler)
	scanner := new(MockAllocationScanner)
	engagements := new(MockEngagementScanner)

	unitSweeper.On("SweepStaleLocks", mock.Anything, mock.Anything).
		Return(nil, errors.New("database unreachable"))
	reconciler.On("ExpireOverdue", mock.Anything, mock.Anything, 100).Return(0, nil)
	reconciler.On("ReconcileSettlements", mock.Anything, mock.Anything, 100).Return(0, nil)
	scanner.On("OverAllocations", mock.Anything).Return([]equipment.OverAllocation{}, nil)
	engagements.On("OverlappingEngagements", mock.Anything).Return([]artists.EngagementOverlap{}, nil)

	sweeper := NewSweeper(unitSweeper, reconciler, scanner, engagements, nil, logger.New())
	sweeper.Sweep(context.Background())

	reconciler.AssertExpectations(t)
	scanner.AssertExpectations(t)
	engagements.AssertExpectations(t)
}
