package finalize_draft

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-BayService/internal/domain"
	"github.com/m04kA/SMC-BayService/internal/service/bayqueue"
	"github.com/m04kA/SMC-BayService/internal/service/draftwizard"
	"github.com/m04kA/SMC-BayService/internal/service/slotcalendar"
	"github.com/m04kA/SMC-BayService/pkg/ptr"
	"github.com/m04kA/SMC-BayService/pkg/types"
)

type fakeDraftService struct {
	draft       *domain.Draft
	getErr      error
	completeErr error
	completed   []string
}

func (f *fakeDraftService) GetDraft(_ context.Context, sessionID string) (*domain.Draft, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.draft, nil
}

func (f *fakeDraftService) CompleteDraft(_ context.Context, sessionID string) error {
	if f.completeErr != nil {
		return f.completeErr
	}
	f.completed = append(f.completed, sessionID)
	return nil
}

type fakeSlotService struct {
	slot    *domain.Slot
	bookErr error
	booked  []int64
}

func (f *fakeSlotService) BookSlot(_ context.Context, bayID int64, date time.Time, startTime types.TimeString, bookingID int64) (*domain.Slot, error) {
	if f.bookErr != nil {
		return nil, f.bookErr
	}
	f.booked = append(f.booked, bookingID)
	return f.slot, nil
}

type fakeQueueService struct {
	entry  *domain.QueueEntry
	addErr error
}

func (f *fakeQueueService) AddToQueue(_ context.Context, bayID int64, bookingID int64, date time.Time) (*domain.QueueEntry, error) {
	if f.addErr != nil {
		return nil, f.addErr
	}
	return f.entry, nil
}

type passthroughTx struct{}

func (passthroughTx) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

var (
	finalizeDate = time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC)
	finalizeSlot = types.NewTimeStringFromHour(10)
)

func completeDraft() *domain.Draft {
	return &domain.Draft{
		ID:               1,
		SessionID:        "sess-1",
		VehicleID:        ptr.Ptr(int64(55)),
		BranchID:         ptr.Ptr(int64(1)),
		ScheduledDate:    &finalizeDate,
		PrimaryServiceID: ptr.Ptr(int64(100)),
		BayID:            ptr.Ptr(int64(10)),
		TimeSlot:         &finalizeSlot,
		Status:           domain.DraftInProgress,
	}
}

func newTestUseCase(drafts *fakeDraftService, slots *fakeSlotService, queue *fakeQueueService) *UseCase {
	return NewUseCase(drafts, slots, queue, passthroughTx{}, nopLogger{})
}

func TestExecute_Success(t *testing.T) {
	start := time.Date(2025, 10, 20, 10, 0, 0, 0, time.UTC)
	drafts := &fakeDraftService{draft: completeDraft()}
	slots := &fakeSlotService{slot: &domain.Slot{
		ID:        7,
		BayID:     10,
		SlotDate:  finalizeDate,
		StartTime: finalizeSlot,
		Status:    domain.SlotBooked,
	}}
	queue := &fakeQueueService{entry: &domain.QueueEntry{
		BayID:               10,
		BookingID:           500,
		Position:            2,
		EstimatedStart:      start,
		EstimatedCompletion: start.Add(time.Hour),
	}}
	uc := newTestUseCase(drafts, slots, queue)

	resp, err := uc.Execute(context.Background(), &Request{SessionID: "sess-1", BookingID: 500})
	require.NoError(t, err)

	assert.Equal(t, int64(500), resp.BookingID)
	assert.Equal(t, int64(10), resp.BayID)
	assert.Equal(t, finalizeDate, resp.Date)
	assert.Equal(t, finalizeSlot, resp.StartTime)
	assert.Equal(t, 2, resp.QueuePosition)
	assert.Equal(t, start, resp.EstimatedStart)
	assert.Equal(t, start.Add(time.Hour), resp.EstimatedCompletion)

	assert.Equal(t, []int64{500}, slots.booked)
	assert.Equal(t, []string{"sess-1"}, drafts.completed)
}

func TestExecute_DraftNotFound(t *testing.T) {
	drafts := &fakeDraftService{getErr: draftwizard.ErrDraftNotFound}
	uc := newTestUseCase(drafts, &fakeSlotService{}, &fakeQueueService{})

	_, err := uc.Execute(context.Background(), &Request{SessionID: "no-such", BookingID: 500})
	assert.ErrorIs(t, err, ErrDraftNotFound)
}

func TestExecute_IncompleteDraft(t *testing.T) {
	draft := completeDraft()
	draft.TimeSlot = nil
	drafts := &fakeDraftService{draft: draft}
	slots := &fakeSlotService{}
	uc := newTestUseCase(drafts, slots, &fakeQueueService{})

	_, err := uc.Execute(context.Background(), &Request{SessionID: "sess-1", BookingID: 500})
	assert.ErrorIs(t, err, ErrDraftIncomplete)
	assert.Empty(t, slots.booked)
}

func TestExecute_SlotErrors(t *testing.T) {
	tests := []struct {
		name    string
		bookErr error
		wantErr error
	}{
		{"slot not found", slotcalendar.ErrSlotNotFound, ErrSlotNotFound},
		{"slot not available", slotcalendar.ErrSlotNotAvailable, ErrSlotNotAvailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drafts := &fakeDraftService{draft: completeDraft()}
			uc := newTestUseCase(drafts, &fakeSlotService{bookErr: tt.bookErr}, &fakeQueueService{})

			_, err := uc.Execute(context.Background(), &Request{SessionID: "sess-1", BookingID: 500})
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, drafts.completed)
		})
	}
}

func TestExecute_QueueErrors(t *testing.T) {
	tests := []struct {
		name    string
		addErr  error
		wantErr error
	}{
		{"already queued", bayqueue.ErrAlreadyQueued, ErrAlreadyQueued},
		{"booking not found", bayqueue.ErrBookingNotFound, ErrBookingNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drafts := &fakeDraftService{draft: completeDraft()}
			slots := &fakeSlotService{slot: &domain.Slot{BayID: 10}}
			uc := newTestUseCase(drafts, slots, &fakeQueueService{addErr: tt.addErr})

			_, err := uc.Execute(context.Background(), &Request{SessionID: "sess-1", BookingID: 500})
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, drafts.completed)
		})
	}
}
