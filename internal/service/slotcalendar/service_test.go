package slotcalendar

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-BayService/internal/domain"
	slotRepo "github.com/m04kA/SMC-BayService/internal/infra/storage/slot"
	catalogClient "github.com/m04kA/SMC-BayService/internal/integrations/catalogservice"
	"github.com/m04kA/SMC-BayService/pkg/types"
)

// Фейки уровня пакета

type fakeSlotRepo struct {
	slots  []*domain.Slot
	nextID int64
}

func (f *fakeSlotRepo) CreateBatch(_ context.Context, slots []*domain.Slot) error {
	for _, s := range slots {
		f.nextID++
		s.ID = f.nextID
		f.slots = append(f.slots, s)
	}
	return nil
}

func (f *fakeSlotRepo) DeleteByBayAndDate(_ context.Context, bayID int64, date time.Time) error {
	kept := f.slots[:0]
	for _, s := range f.slots {
		if s.BayID != bayID || !s.SlotDate.Equal(date) {
			kept = append(kept, s)
		}
	}
	f.slots = kept
	return nil
}

func (f *fakeSlotRepo) GetByBayDateTime(_ context.Context, bayID int64, date time.Time, startTime types.TimeString) (*domain.Slot, error) {
	for _, s := range f.slots {
		if s.BayID == bayID && s.SlotDate.Equal(date) && s.StartTime == startTime {
			copied := *s
			return &copied, nil
		}
	}
	return nil, slotRepo.ErrSlotNotFound
}

func (f *fakeSlotRepo) ListByBayAndDate(_ context.Context, bayID int64, date time.Time, status *domain.SlotStatus) ([]*domain.Slot, error) {
	result := make([]*domain.Slot, 0)
	for _, s := range f.slots {
		if s.BayID != bayID || !s.SlotDate.Equal(date) {
			continue
		}
		if status != nil && s.Status != *status {
			continue
		}
		copied := *s
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartTime.IsBefore(result[j].StartTime) })
	return result, nil
}

func (f *fakeSlotRepo) find(id int64) *domain.Slot {
	for _, s := range f.slots {
		if s.ID == id {
			return s
		}
	}
	return nil
}

func (f *fakeSlotRepo) MarkBooked(_ context.Context, id int64, bookingID int64) error {
	s := f.find(id)
	if s == nil {
		return slotRepo.ErrSlotNotFound
	}
	s.Status = domain.SlotBooked
	s.BookingID = &bookingID
	return nil
}

func (f *fakeSlotRepo) MarkBookedBatch(_ context.Context, ids []int64, bookingID *int64) error {
	for _, id := range ids {
		s := f.find(id)
		if s == nil {
			return slotRepo.ErrSlotNotFound
		}
		s.Status = domain.SlotBooked
		s.BookingID = bookingID
	}
	return nil
}

func (f *fakeSlotRepo) MarkInProgress(_ context.Context, id int64) error {
	s := f.find(id)
	if s == nil {
		return slotRepo.ErrSlotNotFound
	}
	s.Status = domain.SlotInProgress
	return nil
}

func (f *fakeSlotRepo) MarkCompleted(_ context.Context, id int64, actualEnd time.Time) error {
	s := f.find(id)
	if s == nil {
		return slotRepo.ErrSlotNotFound
	}
	s.Status = domain.SlotCompleted
	s.ActualEndTime = &actualEnd
	return nil
}

func (f *fakeSlotRepo) MarkCancelled(_ context.Context, id int64, reason string) error {
	s := f.find(id)
	if s == nil {
		return slotRepo.ErrSlotNotFound
	}
	s.Status = domain.SlotCancelled
	s.CancellationReason = &reason
	return nil
}

func (f *fakeSlotRepo) Release(_ context.Context, id int64) error {
	s := f.find(id)
	if s == nil {
		return slotRepo.ErrSlotNotFound
	}
	s.Status = domain.SlotAvailable
	s.BookingID = nil
	return nil
}

func (f *fakeSlotRepo) ReleaseBatch(ctx context.Context, ids []int64) error {
	for _, id := range ids {
		if err := f.Release(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

type fakeCatalog struct {
	bays     map[int64]*catalogClient.Bay
	branches map[int64]*catalogClient.Branch
}

func (f *fakeCatalog) GetBay(_ context.Context, bayID int64) (*catalogClient.Bay, error) {
	bay, ok := f.bays[bayID]
	if !ok {
		return nil, catalogClient.ErrBayNotFound
	}
	return bay, nil
}

func (f *fakeCatalog) GetBranch(_ context.Context, branchID int64) (*catalogClient.Branch, error) {
	branch, ok := f.branches[branchID]
	if !ok {
		return nil, catalogClient.ErrBranchNotFound
	}
	return branch, nil
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

func newTestService(repo *fakeSlotRepo, catalog *fakeCatalog) *Service {
	svc := NewService(repo, catalog, passthroughTx{}, nopLogger{})
	return svc
}

var testDate = time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC)

func testBay(id int64, start, end int) *catalogClient.Bay {
	return &catalogClient.Bay{
		ID:                id,
		BranchID:          1,
		Name:              "Bay",
		Active:            true,
		WorkingHoursStart: start,
		WorkingHoursEnd:   end,
	}
}

func TestGenerateDaily(t *testing.T) {
	repo := &fakeSlotRepo{}
	catalog := &fakeCatalog{bays: map[int64]*catalogClient.Bay{10: testBay(10, 9, 18)}}
	svc := newTestService(repo, catalog)

	slots, err := svc.GenerateDaily(context.Background(), 10, testDate)
	require.NoError(t, err)
	require.Len(t, slots, 9)

	// Слоты почасовые, смежные, все свободны
	for i, s := range slots {
		assert.Equal(t, types.NewTimeStringFromHour(9+i), s.StartTime)
		assert.Equal(t, types.NewTimeStringFromHour(10+i), s.EndTime)
		assert.Equal(t, domain.SlotAvailable, s.Status)
		if i > 0 {
			assert.Equal(t, slots[i-1].EndTime, s.StartTime)
		}
	}
}

func TestGenerateDaily_ReplacesExistingDay(t *testing.T) {
	repo := &fakeSlotRepo{}
	catalog := &fakeCatalog{bays: map[int64]*catalogClient.Bay{10: testBay(10, 9, 12)}}
	svc := newTestService(repo, catalog)

	_, err := svc.GenerateDaily(context.Background(), 10, testDate)
	require.NoError(t, err)
	_, err = svc.GenerateDaily(context.Background(), 10, testDate)
	require.NoError(t, err)

	stored, err := repo.ListByBayAndDate(context.Background(), 10, testDate, nil)
	require.NoError(t, err)
	assert.Len(t, stored, 3)
}

func TestGenerateDaily_Errors(t *testing.T) {
	tests := []struct {
		name    string
		bay     *catalogClient.Bay
		bayID   int64
		wantErr error
	}{
		{name: "bay not found", bay: testBay(10, 9, 18), bayID: 99, wantErr: ErrBayNotFound},
		{name: "start after end", bay: testBay(10, 18, 9), bayID: 10, wantErr: ErrInvalidWorkingHours},
		{name: "start equals end", bay: testBay(10, 9, 9), bayID: 10, wantErr: ErrInvalidWorkingHours},
		{name: "negative start", bay: testBay(10, -1, 9), bayID: 10, wantErr: ErrInvalidWorkingHours},
		{name: "end out of day", bay: testBay(10, 9, 24), bayID: 10, wantErr: ErrInvalidWorkingHours},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeSlotRepo{}
			catalog := &fakeCatalog{bays: map[int64]*catalogClient.Bay{tt.bay.ID: tt.bay}}
			svc := newTestService(repo, catalog)

			_, err := svc.GenerateDaily(context.Background(), tt.bayID, testDate)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGenerateBranchDaily_SkipsInactiveBays(t *testing.T) {
	repo := &fakeSlotRepo{}
	active := testBay(10, 9, 11)
	inactive := testBay(11, 9, 11)
	inactive.Active = false
	catalog := &fakeCatalog{
		bays: map[int64]*catalogClient.Bay{10: active, 11: inactive},
		branches: map[int64]*catalogClient.Branch{
			1: {ID: 1, Bays: []catalogClient.Bay{*active, *inactive}},
		},
	}
	svc := newTestService(repo, catalog)

	schedules, err := svc.GenerateBranchDaily(context.Background(), 1, testDate)
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	assert.Equal(t, int64(10), schedules[0].BayID)
	assert.Len(t, schedules[0].Slots, 2)
}

func TestBookSlot(t *testing.T) {
	repo := &fakeSlotRepo{}
	catalog := &fakeCatalog{bays: map[int64]*catalogClient.Bay{10: testBay(10, 9, 12)}}
	svc := newTestService(repo, catalog)

	_, err := svc.GenerateDaily(context.Background(), 10, testDate)
	require.NoError(t, err)

	slot, err := svc.BookSlot(context.Background(), 10, testDate, "10:00", 500)
	require.NoError(t, err)
	assert.Equal(t, domain.SlotBooked, slot.Status)
	require.NotNil(t, slot.BookingID)
	assert.Equal(t, int64(500), *slot.BookingID)

	// Повторное бронирование того же слота
	_, err = svc.BookSlot(context.Background(), 10, testDate, "10:00", 501)
	assert.ErrorIs(t, err, ErrSlotNotAvailable)

	// Слот вне календаря
	_, err = svc.BookSlot(context.Background(), 10, testDate, "20:00", 500)
	assert.ErrorIs(t, err, ErrSlotNotFound)
}

func TestStartService_TransitionGuard(t *testing.T) {
	repo := &fakeSlotRepo{}
	catalog := &fakeCatalog{bays: map[int64]*catalogClient.Bay{10: testBay(10, 9, 12)}}
	svc := newTestService(repo, catalog)

	_, err := svc.GenerateDaily(context.Background(), 10, testDate)
	require.NoError(t, err)

	// Нельзя начать работу на свободном слоте
	_, err = svc.StartService(context.Background(), 10, testDate, "09:00")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.BookSlot(context.Background(), 10, testDate, "09:00", 500)
	require.NoError(t, err)

	slot, err := svc.StartService(context.Background(), 10, testDate, "09:00")
	require.NoError(t, err)
	assert.Equal(t, domain.SlotInProgress, slot.Status)
}

func TestCompleteService_EarlyCompletionReleasesTail(t *testing.T) {
	repo := &fakeSlotRepo{}
	booking := int64(500)
	other := int64(600)
	// Бронирование заняло окно 10:00-14:00, работы идут
	require.NoError(t, repo.CreateBatch(context.Background(), []*domain.Slot{
		{BayID: 10, SlotDate: testDate, StartTime: "09:00", EndTime: "10:00", Status: domain.SlotCompleted},
		{BayID: 10, SlotDate: testDate, StartTime: "10:00", EndTime: "14:00", Status: domain.SlotInProgress, BookingID: &booking},
		{BayID: 10, SlotDate: testDate, StartTime: "11:00", EndTime: "12:00", Status: domain.SlotBooked, BookingID: &booking},
		{BayID: 10, SlotDate: testDate, StartTime: "12:00", EndTime: "13:00", Status: domain.SlotBooked, BookingID: &booking},
		{BayID: 10, SlotDate: testDate, StartTime: "13:00", EndTime: "14:00", Status: domain.SlotInProgress, BookingID: &other},
		{BayID: 10, SlotDate: testDate, StartTime: "14:00", EndTime: "15:00", Status: domain.SlotBooked, BookingID: &other},
	}))

	svc := newTestService(repo, &fakeCatalog{})
	svc.timeProvider = fixedClock{now: time.Date(2025, 10, 15, 11, 0, 0, 0, time.UTC)}

	slot, released, err := svc.CompleteService(context.Background(), 10, testDate, "10:00")
	require.NoError(t, err)
	assert.Equal(t, domain.SlotCompleted, slot.Status)
	require.NotNil(t, slot.ActualEndTime)

	// Освобождены только booked слоты, целиком лежащие в окне
	// [фактический конец, плановый конец]; in_progress и слоты за
	// плановым концом не тронуты
	assert.Equal(t, 2, released)

	stored, err := repo.ListByBayAndDate(context.Background(), 10, testDate, nil)
	require.NoError(t, err)
	byStart := make(map[types.TimeString]domain.SlotStatus)
	for _, s := range stored {
		byStart[s.StartTime] = s.Status
	}
	assert.Equal(t, domain.SlotAvailable, byStart["11:00"])
	assert.Equal(t, domain.SlotAvailable, byStart["12:00"])
	assert.Equal(t, domain.SlotInProgress, byStart["13:00"])
	assert.Equal(t, domain.SlotBooked, byStart["14:00"])
}

func TestCompleteService_OnTimeCompletionReleasesNothing(t *testing.T) {
	repo := &fakeSlotRepo{}
	booking := int64(500)
	require.NoError(t, repo.CreateBatch(context.Background(), []*domain.Slot{
		{BayID: 10, SlotDate: testDate, StartTime: "10:00", EndTime: "11:00", Status: domain.SlotInProgress, BookingID: &booking},
		{BayID: 10, SlotDate: testDate, StartTime: "11:00", EndTime: "12:00", Status: domain.SlotBooked},
	}))

	svc := newTestService(repo, &fakeCatalog{})
	svc.timeProvider = fixedClock{now: time.Date(2025, 10, 15, 11, 5, 0, 0, time.UTC)}

	_, released, err := svc.CompleteService(context.Background(), 10, testDate, "10:00")
	require.NoError(t, err)
	assert.Equal(t, 0, released)
}

func TestCompleteService_RequiresInProgress(t *testing.T) {
	repo := &fakeSlotRepo{}
	require.NoError(t, repo.CreateBatch(context.Background(), []*domain.Slot{
		{BayID: 10, SlotDate: testDate, StartTime: "10:00", EndTime: "11:00", Status: domain.SlotBooked},
	}))

	svc := newTestService(repo, &fakeCatalog{})
	_, _, err := svc.CompleteService(context.Background(), 10, testDate, "10:00")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelSlot(t *testing.T) {
	repo := &fakeSlotRepo{}
	require.NoError(t, repo.CreateBatch(context.Background(), []*domain.Slot{
		{BayID: 10, SlotDate: testDate, StartTime: "10:00", EndTime: "11:00", Status: domain.SlotBooked},
		{BayID: 10, SlotDate: testDate, StartTime: "11:00", EndTime: "12:00", Status: domain.SlotCompleted},
	}))
	svc := newTestService(repo, &fakeCatalog{})

	slot, err := svc.CancelSlot(context.Background(), 10, testDate, "10:00", "клиент не приехал")
	require.NoError(t, err)
	assert.Equal(t, domain.SlotCancelled, slot.Status)
	require.NotNil(t, slot.CancellationReason)
	assert.Equal(t, "клиент не приехал", *slot.CancellationReason)

	// Терминальный слот не отменяется
	_, err = svc.CancelSlot(context.Background(), 10, testDate, "11:00", "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestReleaseSlot(t *testing.T) {
	repo := &fakeSlotRepo{}
	booking := int64(500)
	require.NoError(t, repo.CreateBatch(context.Background(), []*domain.Slot{
		{BayID: 10, SlotDate: testDate, StartTime: "10:00", EndTime: "11:00", Status: domain.SlotBooked, BookingID: &booking},
		{BayID: 10, SlotDate: testDate, StartTime: "11:00", EndTime: "12:00", Status: domain.SlotCancelled},
	}))
	svc := newTestService(repo, &fakeCatalog{})

	slot, err := svc.ReleaseSlot(context.Background(), 10, testDate, "10:00")
	require.NoError(t, err)
	assert.Equal(t, domain.SlotAvailable, slot.Status)
	assert.Nil(t, slot.BookingID)

	_, err = svc.ReleaseSlot(context.Background(), 10, testDate, "11:00")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestBlockSlotsInRange(t *testing.T) {
	repo := &fakeSlotRepo{}
	catalog := &fakeCatalog{bays: map[int64]*catalogClient.Bay{10: testBay(10, 9, 14)}}
	svc := newTestService(repo, catalog)

	_, err := svc.GenerateDaily(context.Background(), 10, testDate)
	require.NoError(t, err)

	booking := int64(500)
	blocked, err := svc.BlockSlotsInRange(context.Background(), 10, testDate, "10:00", "12:30", &booking)
	require.NoError(t, err)

	// Пересечение строгое: захвачены 10-11, 11-12 и частично накрытый 12-13
	require.Len(t, blocked, 3)
	for _, s := range blocked {
		assert.Equal(t, domain.SlotBooked, s.Status)
		require.NotNil(t, s.BookingID)
		assert.Equal(t, booking, *s.BookingID)
	}

	// Касание границы окном не считается пересечением
	stored, err := repo.ListByBayAndDate(context.Background(), 10, testDate, nil)
	require.NoError(t, err)
	for _, s := range stored {
		if s.StartTime == "09:00" || s.StartTime == "13:00" {
			assert.Equal(t, domain.SlotAvailable, s.Status)
		}
	}

	_, err = svc.BlockSlotsInRange(context.Background(), 10, testDate, "12:00", "12:00", &booking)
	assert.ErrorIs(t, err, ErrInvalidTimeRange)
}

func TestFindConflictingSlots(t *testing.T) {
	repo := &fakeSlotRepo{}
	require.NoError(t, repo.CreateBatch(context.Background(), []*domain.Slot{
		{BayID: 10, SlotDate: testDate, StartTime: "09:00", EndTime: "10:00", Status: domain.SlotAvailable},
		{BayID: 10, SlotDate: testDate, StartTime: "10:00", EndTime: "11:00", Status: domain.SlotBooked},
		{BayID: 10, SlotDate: testDate, StartTime: "11:00", EndTime: "12:00", Status: domain.SlotAvailable},
	}))
	svc := newTestService(repo, &fakeCatalog{})

	conflicting, err := svc.FindConflictingSlots(context.Background(), 10, testDate, "09:30", "10:30")
	require.NoError(t, err)
	require.Len(t, conflicting, 2)
	assert.Equal(t, types.TimeString("09:00"), conflicting[0].StartTime)
	assert.Equal(t, types.TimeString("10:00"), conflicting[1].StartTime)
}
