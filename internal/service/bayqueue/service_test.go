package bayqueue

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-BayService/internal/domain"
	queueRepo "github.com/m04kA/SMC-BayService/internal/infra/storage/queue"
	"github.com/m04kA/SMC-BayService/internal/integrations/bookingservice"
	"github.com/m04kA/SMC-BayService/pkg/ptr"
)

// Фейки уровня пакета

type fakeQueueRepo struct {
	entries []*domain.QueueEntry
	nextID  int64
}

func (f *fakeQueueRepo) Create(_ context.Context, entry *domain.QueueEntry) (*domain.QueueEntry, error) {
	f.nextID++
	entry.ID = f.nextID
	f.entries = append(f.entries, entry)
	return entry, nil
}

func (f *fakeQueueRepo) GetActiveByBooking(_ context.Context, bookingID int64) (*domain.QueueEntry, error) {
	for _, e := range f.entries {
		if e.Active && e.BookingID == bookingID {
			return e, nil
		}
	}
	return nil, queueRepo.ErrEntryNotFound
}

func (f *fakeQueueRepo) ListActiveByBayAndDate(_ context.Context, bayID int64, date time.Time) ([]*domain.QueueEntry, error) {
	result := make([]*domain.QueueEntry, 0)
	for _, e := range f.entries {
		if e.Active && e.BayID == bayID && e.QueueDate.Equal(date) {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Position < result[j].Position })
	return result, nil
}

func (f *fakeQueueRepo) GetLastPosition(_ context.Context, bayID int64, date time.Time) (int, error) {
	last := 0
	for _, e := range f.entries {
		if e.Active && e.BayID == bayID && e.QueueDate.Equal(date) && e.Position > last {
			last = e.Position
		}
	}
	return last, nil
}

func (f *fakeQueueRepo) CountActive(_ context.Context, bayID int64, date time.Time) (int, error) {
	count := 0
	for _, e := range f.entries {
		if e.Active && e.BayID == bayID && e.QueueDate.Equal(date) {
			count++
		}
	}
	return count, nil
}

func (f *fakeQueueRepo) Deactivate(_ context.Context, id int64) error {
	for _, e := range f.entries {
		if e.ID == id && e.Active {
			e.Active = false
			return nil
		}
	}
	return queueRepo.ErrEntryNotFound
}

func (f *fakeQueueRepo) UpdateScheduleBatch(_ context.Context, entries []*domain.QueueEntry) error {
	for _, updated := range entries {
		for _, e := range f.entries {
			if e.ID == updated.ID {
				e.Position = updated.Position
				e.EstimatedStart = updated.EstimatedStart
				e.EstimatedCompletion = updated.EstimatedCompletion
			}
		}
	}
	return nil
}

type fakeBookingClient struct {
	bookings  map[int64]*bookingservice.Booking
	assigned  map[int64]int64
	assignErr error
	lookupErr error
}

func (f *fakeBookingClient) GetBooking(_ context.Context, bookingID int64) (*bookingservice.Booking, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	booking, ok := f.bookings[bookingID]
	if !ok {
		return nil, bookingservice.ErrBookingNotFound
	}
	return booking, nil
}

func (f *fakeBookingClient) AssignBay(_ context.Context, bookingID int64, bayID int64) error {
	if f.assignErr != nil {
		return f.assignErr
	}
	if f.assigned == nil {
		f.assigned = make(map[int64]int64)
	}
	f.assigned[bookingID] = bayID
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
	testNow  = time.Date(2025, 10, 15, 9, 0, 0, 0, time.UTC)
	testDate = time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC)
)

func newTestService(repo *fakeQueueRepo, client *fakeBookingClient) *Service {
	svc := NewService(repo, client, passthroughTx{}, nopLogger{})
	svc.timeProvider = fixedClock{now: testNow}
	return svc
}

func testBookings(durations map[int64]int) *fakeBookingClient {
	bookings := make(map[int64]*bookingservice.Booking, len(durations))
	for id, d := range durations {
		bookings[id] = &bookingservice.Booking{ID: id, EstimatedDurationMinutes: ptr.Ptr(d), ItemCount: 1}
	}
	return &fakeBookingClient{bookings: bookings}
}

func TestAddToQueue_ChainsEstimates(t *testing.T) {
	repo := &fakeQueueRepo{}
	client := testBookings(map[int64]int{100: 30, 200: 60, 300: 45})
	svc := newTestService(repo, client)

	first, err := svc.AddToQueue(context.Background(), 10, 100, testDate)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Position)
	assert.Equal(t, testNow, first.EstimatedStart)
	assert.Equal(t, testNow.Add(30*time.Minute), first.EstimatedCompletion)

	second, err := svc.AddToQueue(context.Background(), 10, 200, testDate)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Position)
	assert.Equal(t, first.EstimatedCompletion, second.EstimatedStart)
	assert.Equal(t, first.EstimatedCompletion.Add(60*time.Minute), second.EstimatedCompletion)

	third, err := svc.AddToQueue(context.Background(), 10, 300, testDate)
	require.NoError(t, err)
	assert.Equal(t, 3, third.Position)
	assert.Equal(t, second.EstimatedCompletion, third.EstimatedStart)
}

func TestAddToQueue_DefaultsDateToToday(t *testing.T) {
	repo := &fakeQueueRepo{}
	svc := newTestService(repo, testBookings(map[int64]int{100: 30}))

	entry, err := svc.AddToQueue(context.Background(), 10, 100, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, testDate, entry.QueueDate)
}

func TestAddToQueue_Errors(t *testing.T) {
	repo := &fakeQueueRepo{}
	svc := newTestService(repo, testBookings(map[int64]int{100: 30}))

	_, err := svc.AddToQueue(context.Background(), 10, 100, testDate)
	require.NoError(t, err)

	// Бронирование уже в очереди, даже другого бокса
	_, err = svc.AddToQueue(context.Background(), 11, 100, testDate)
	assert.ErrorIs(t, err, ErrAlreadyQueued)

	_, err = svc.AddToQueue(context.Background(), 10, 999, testDate)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestRemoveFromQueue_CompactsPositions(t *testing.T) {
	repo := &fakeQueueRepo{}
	client := testBookings(map[int64]int{100: 30, 200: 30, 300: 30})
	svc := newTestService(repo, client)

	for _, bookingID := range []int64{100, 200, 300} {
		_, err := svc.AddToQueue(context.Background(), 10, bookingID, testDate)
		require.NoError(t, err)
	}

	require.NoError(t, svc.RemoveFromQueue(context.Background(), 10, 200))

	entries, err := svc.GetBayQueue(context.Background(), 10, testDate)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Позиции остаются плотными 1..N без дыр
	assert.Equal(t, int64(100), entries[0].BookingID)
	assert.Equal(t, 1, entries[0].Position)
	assert.Equal(t, int64(300), entries[1].BookingID)
	assert.Equal(t, 2, entries[1].Position)
}

func TestRemoveFromQueue_RecomputesRemainingTimes(t *testing.T) {
	repo := &fakeQueueRepo{}
	client := testBookings(map[int64]int{100: 30, 200: 30})
	svc := newTestService(repo, client)

	for _, bookingID := range []int64{100, 200} {
		_, err := svc.AddToQueue(context.Background(), 10, bookingID, testDate)
		require.NoError(t, err)
	}

	// Голова уходит через десять минут: оставшаяся запись должна
	// стартовать от текущего момента, а не от устаревшей цепочки
	later := testNow.Add(10 * time.Minute)
	svc.timeProvider = fixedClock{now: later}
	require.NoError(t, svc.RemoveFromQueue(context.Background(), 10, 100))

	entries, err := svc.GetBayQueue(context.Background(), 10, testDate)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(200), entries[0].BookingID)
	assert.Equal(t, 1, entries[0].Position)
	assert.Equal(t, later, entries[0].EstimatedStart)
	assert.Equal(t, later.Add(30*time.Minute), entries[0].EstimatedCompletion)
}

func TestRemoveFromQueue_Errors(t *testing.T) {
	repo := &fakeQueueRepo{}
	svc := newTestService(repo, testBookings(map[int64]int{100: 30}))

	_, err := svc.AddToQueue(context.Background(), 10, 100, testDate)
	require.NoError(t, err)

	// Не тот бокс
	err = svc.RemoveFromQueue(context.Background(), 11, 100)
	assert.ErrorIs(t, err, ErrEntryNotFound)

	err = svc.RemoveFromQueue(context.Background(), 10, 999)
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestRemoveBookingFromQueue_NoopWhenNotQueued(t *testing.T) {
	repo := &fakeQueueRepo{}
	svc := newTestService(repo, testBookings(nil))

	// Отсутствие записи не является ошибкой
	assert.NoError(t, svc.RemoveBookingFromQueue(context.Background(), 999))
}

func TestRemoveBookingFromQueue_FindsOwnBay(t *testing.T) {
	repo := &fakeQueueRepo{}
	svc := newTestService(repo, testBookings(map[int64]int{100: 30}))

	_, err := svc.AddToQueue(context.Background(), 10, 100, testDate)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveBookingFromQueue(context.Background(), 100))

	length, err := svc.GetQueueLength(context.Background(), 10, testDate)
	require.NoError(t, err)
	assert.Equal(t, 0, length)
}

func TestTransferBooking(t *testing.T) {
	repo := &fakeQueueRepo{}
	client := testBookings(map[int64]int{100: 30, 200: 30, 300: 30})
	svc := newTestService(repo, client)

	for _, bookingID := range []int64{100, 200} {
		_, err := svc.AddToQueue(context.Background(), 10, bookingID, testDate)
		require.NoError(t, err)
	}
	_, err := svc.AddToQueue(context.Background(), 20, 300, testDate)
	require.NoError(t, err)

	entry, err := svc.TransferBooking(context.Background(), 10, 20, 200)
	require.NoError(t, err)

	// Хвост целевой очереди и перепривязка бронирования
	assert.Equal(t, int64(20), entry.BayID)
	assert.Equal(t, 2, entry.Position)
	assert.Equal(t, int64(20), client.assigned[200])

	source, err := svc.GetBayQueue(context.Background(), 10, testDate)
	require.NoError(t, err)
	require.Len(t, source, 1)
	assert.Equal(t, int64(100), source[0].BookingID)
}

func TestTransferBooking_WrongSourceBay(t *testing.T) {
	repo := &fakeQueueRepo{}
	svc := newTestService(repo, testBookings(map[int64]int{100: 30}))

	_, err := svc.AddToQueue(context.Background(), 10, 100, testDate)
	require.NoError(t, err)

	_, err = svc.TransferBooking(context.Background(), 11, 20, 100)
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestTransferBooking_AssignFailure(t *testing.T) {
	repo := &fakeQueueRepo{}
	client := testBookings(map[int64]int{100: 30})
	client.assignErr = errors.New("boom")
	svc := newTestService(repo, client)

	_, err := svc.AddToQueue(context.Background(), 10, 100, testDate)
	require.NoError(t, err)

	_, err = svc.TransferBooking(context.Background(), 10, 20, 100)
	assert.ErrorIs(t, err, ErrInternal)
}

func TestUpdateEstimatedTimesForBay(t *testing.T) {
	repo := &fakeQueueRepo{}
	client := testBookings(map[int64]int{100: 30, 200: 60})
	svc := newTestService(repo, client)

	for _, bookingID := range []int64{100, 200} {
		_, err := svc.AddToQueue(context.Background(), 10, bookingID, testDate)
		require.NoError(t, err)
	}
	require.NoError(t, svc.RemoveFromQueue(context.Background(), 10, 100))

	// После удаления головы оставшаяся запись пересчитывается от "сейчас"
	later := testNow.Add(40 * time.Minute)
	svc.timeProvider = fixedClock{now: later}
	require.NoError(t, svc.UpdateEstimatedTimesForBay(context.Background(), 10, testDate))

	entries, err := svc.GetBayQueue(context.Background(), 10, testDate)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].Position)
	assert.Equal(t, later, entries[0].EstimatedStart)
	assert.Equal(t, later.Add(60*time.Minute), entries[0].EstimatedCompletion)
}

func TestUpdateEstimatedTimesForBay_LookupFailureUsesStoredEstimate(t *testing.T) {
	repo := &fakeQueueRepo{}
	client := testBookings(map[int64]int{100: 45})
	svc := newTestService(repo, client)

	_, err := svc.AddToQueue(context.Background(), 10, 100, testDate)
	require.NoError(t, err)

	// BookingService недоступен: длительность берется из сохраненных оценок
	client.lookupErr = errors.New("connection refused")
	later := testNow.Add(10 * time.Minute)
	svc.timeProvider = fixedClock{now: later}
	require.NoError(t, svc.UpdateEstimatedTimesForBay(context.Background(), 10, testDate))

	entries, err := svc.GetBayQueue(context.Background(), 10, testDate)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, later.Add(45*time.Minute), entries[0].EstimatedCompletion)
}

func TestGetUpcomingBookings_LimitsToHead(t *testing.T) {
	repo := &fakeQueueRepo{}
	client := testBookings(map[int64]int{100: 30, 200: 30, 300: 30, 400: 30, 500: 30})
	svc := newTestService(repo, client)

	for _, bookingID := range []int64{100, 200, 300, 400, 500} {
		_, err := svc.AddToQueue(context.Background(), 10, bookingID, testDate)
		require.NoError(t, err)
	}

	upcoming, err := svc.GetUpcomingBookings(context.Background(), 10, testDate)
	require.NoError(t, err)
	require.Len(t, upcoming, domain.UpcomingQueueSize)
	for i, entry := range upcoming {
		assert.Equal(t, i+1, entry.Position)
	}
}
