package complete_service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-BayService/internal/domain"
	"github.com/m04kA/SMC-BayService/internal/service/slotcalendar"
	"github.com/m04kA/SMC-BayService/pkg/ptr"
	"github.com/m04kA/SMC-BayService/pkg/types"
)

type fakeSlotService struct {
	slot        *domain.Slot
	released    int
	completeErr error
}

func (f *fakeSlotService) CompleteService(_ context.Context, bayID int64, date time.Time, startTime types.TimeString) (*domain.Slot, int, error) {
	if f.completeErr != nil {
		return nil, 0, f.completeErr
	}
	return f.slot, f.released, nil
}

type fakeQueueService struct {
	removed    []int64
	recomputed []int64
}

func (f *fakeQueueService) RemoveBookingFromQueue(_ context.Context, bookingID int64) error {
	f.removed = append(f.removed, bookingID)
	return nil
}

func (f *fakeQueueService) UpdateEstimatedTimesForBay(_ context.Context, bayID int64, date time.Time) error {
	f.recomputed = append(f.recomputed, bayID)
	return nil
}

type passthroughTx struct{}

func (passthroughTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

var completeDate = time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC)

func TestExecute_DequeuesCompletedBooking(t *testing.T) {
	slots := &fakeSlotService{
		slot: &domain.Slot{
			ID:        1,
			BayID:     10,
			Status:    domain.SlotCompleted,
			BookingID: ptr.Ptr(int64(500)),
		},
		released: 2,
	}
	queue := &fakeQueueService{}
	uc := NewUseCase(slots, queue, passthroughTx{}, nopLogger{})

	resp, err := uc.Execute(context.Background(), 10, completeDate, types.NewTimeStringFromHour(10))
	require.NoError(t, err)

	assert.Equal(t, 2, resp.ReleasedSlots)
	assert.Equal(t, domain.SlotCompleted, resp.Slot.Status)
	assert.Equal(t, []int64{500}, queue.removed)
	assert.Equal(t, []int64{10}, queue.recomputed)
}

func TestExecute_SlotWithoutBookingSkipsDequeue(t *testing.T) {
	slots := &fakeSlotService{
		slot: &domain.Slot{ID: 1, BayID: 10, Status: domain.SlotCompleted},
	}
	queue := &fakeQueueService{}
	uc := NewUseCase(slots, queue, passthroughTx{}, nopLogger{})

	_, err := uc.Execute(context.Background(), 10, completeDate, types.NewTimeStringFromHour(10))
	require.NoError(t, err)

	assert.Empty(t, queue.removed)

	// Пересчет очереди выполняется всегда
	assert.Equal(t, []int64{10}, queue.recomputed)
}

func TestExecute_SlotErrors(t *testing.T) {
	tests := []struct {
		name        string
		completeErr error
		wantErr     error
	}{
		{"slot not found", slotcalendar.ErrSlotNotFound, ErrSlotNotFound},
		{"invalid transition", slotcalendar.ErrInvalidTransition, ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queue := &fakeQueueService{}
			uc := NewUseCase(&fakeSlotService{completeErr: tt.completeErr}, queue, passthroughTx{}, nopLogger{})

			_, err := uc.Execute(context.Background(), 10, completeDate, types.NewTimeStringFromHour(10))
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, queue.recomputed)
		})
	}
}
