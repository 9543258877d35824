package cancel_booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-BayService/internal/domain"
	"github.com/m04kA/SMC-BayService/internal/service/bayqueue"
)

type fakeQueueService struct {
	entry   *domain.QueueEntry
	removed []int64
}

func (f *fakeQueueService) GetBookingQueuePosition(_ context.Context, bookingID int64) (*domain.QueueEntry, error) {
	if f.entry == nil || f.entry.BookingID != bookingID {
		return nil, bayqueue.ErrEntryNotFound
	}
	return f.entry, nil
}

func (f *fakeQueueService) RemoveBookingFromQueue(_ context.Context, bookingID int64) error {
	f.removed = append(f.removed, bookingID)
	return nil
}

type fakeSlotRepo struct {
	slots    []*domain.Slot
	released []int64
}

func (f *fakeSlotRepo) ListByBookingAndDate(_ context.Context, bookingID int64, date time.Time) ([]*domain.Slot, error) {
	result := make([]*domain.Slot, 0)
	for _, s := range f.slots {
		if s.BookingID != nil && *s.BookingID == bookingID && s.SlotDate.Equal(date) {
			result = append(result, s)
		}
	}
	return result, nil
}

func (f *fakeSlotRepo) ReleaseBatch(_ context.Context, ids []int64) error {
	f.released = append(f.released, ids...)
	return nil
}

type passthroughTx struct{}

func (passthroughTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

var (
	cancelNow  = time.Date(2025, 10, 15, 14, 0, 0, 0, time.UTC)
	cancelDate = time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC)
)

func bookingSlot(id int64, bookingID int64, status domain.SlotStatus) *domain.Slot {
	return &domain.Slot{
		ID:        id,
		BayID:     10,
		SlotDate:  cancelDate,
		Status:    status,
		BookingID: &bookingID,
	}
}

func newTestUseCase(queue *fakeQueueService, slots *fakeSlotRepo, releaseOnCancel bool) *UseCase {
	uc := NewUseCase(queue, slots, passthroughTx{}, releaseOnCancel, nopLogger{})
	uc.timeProvider = fixedClock{now: cancelNow}
	return uc
}

func TestExecute_QueuedBookingWithSlots(t *testing.T) {
	queue := &fakeQueueService{entry: &domain.QueueEntry{
		BayID:     10,
		BookingID: 500,
		QueueDate: cancelDate,
	}}
	slots := &fakeSlotRepo{slots: []*domain.Slot{
		bookingSlot(1, 500, domain.SlotBooked),
		bookingSlot(2, 500, domain.SlotInProgress),
		bookingSlot(3, 500, domain.SlotCompleted),
	}}
	uc := newTestUseCase(queue, slots, true)

	resp, err := uc.Execute(context.Background(), &Request{BookingID: 500, Date: cancelDate})
	require.NoError(t, err)

	assert.True(t, resp.RemovedFromQueue)
	assert.Equal(t, 2, resp.ReleasedSlots)
	assert.Equal(t, []int64{500}, queue.removed)

	// Завершенный слот не освобождается
	assert.Equal(t, []int64{1, 2}, slots.released)
}

func TestExecute_NotQueuedIsIdempotent(t *testing.T) {
	queue := &fakeQueueService{}
	slots := &fakeSlotRepo{}
	uc := newTestUseCase(queue, slots, true)

	resp, err := uc.Execute(context.Background(), &Request{BookingID: 999, Date: cancelDate})
	require.NoError(t, err)

	assert.False(t, resp.RemovedFromQueue)
	assert.Zero(t, resp.ReleasedSlots)
	assert.Empty(t, queue.removed)
}

func TestExecute_ReleaseDisabledByPolicy(t *testing.T) {
	queue := &fakeQueueService{entry: &domain.QueueEntry{
		BayID:     10,
		BookingID: 500,
		QueueDate: cancelDate,
	}}
	slots := &fakeSlotRepo{slots: []*domain.Slot{
		bookingSlot(1, 500, domain.SlotBooked),
	}}
	uc := newTestUseCase(queue, slots, false)

	resp, err := uc.Execute(context.Background(), &Request{BookingID: 500, Date: cancelDate})
	require.NoError(t, err)

	assert.True(t, resp.RemovedFromQueue)
	assert.Zero(t, resp.ReleasedSlots)
	assert.Empty(t, slots.released)
}

func TestExecute_ZeroDateMeansToday(t *testing.T) {
	queue := &fakeQueueService{}
	slots := &fakeSlotRepo{slots: []*domain.Slot{
		bookingSlot(1, 500, domain.SlotBooked),
	}}
	uc := newTestUseCase(queue, slots, true)

	resp, err := uc.Execute(context.Background(), &Request{BookingID: 500})
	require.NoError(t, err)

	assert.Equal(t, 1, resp.ReleasedSlots)
	assert.Equal(t, []int64{1}, slots.released)
}
