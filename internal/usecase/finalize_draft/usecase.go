package finalize_draft

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-BayService/internal/domain"
	"github.com/m04kA/SMC-BayService/internal/service/bayqueue"
	"github.com/m04kA/SMC-BayService/internal/service/draftwizard"
	"github.com/m04kA/SMC-BayService/internal/service/slotcalendar"
)

// UseCase финализация черновика мастера бронирования.
// В одной сериализуемой транзакции бронирует выбранный слот, ставит
// бронирование в очередь поста и завершает черновик. Любой сбой
// откатывает все три шага - частичная финализация невозможна
type UseCase struct {
	draftService DraftService
	slotService  SlotService
	queueService QueueService
	txManager    TransactionManager
	logger       Logger
}

// NewUseCase создает новый экземпляр usecase
func NewUseCase(
	draftService DraftService,
	slotService SlotService,
	queueService QueueService,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		draftService: draftService,
		slotService:  slotService,
		queueService: queueService,
		txManager:    txManager,
		logger:       logger,
	}
}

// Execute выполняет финализацию черновика
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("FinalizeDraft: session=%s, bookingID=%d", req.SessionID, req.BookingID)

	// 1. Получаем черновик и проверяем полноту до транзакции
	draft, err := uc.draftService.GetDraft(ctx, req.SessionID)
	if err != nil {
		if errors.Is(err, draftwizard.ErrDraftNotFound) {
			uc.logger.Warn("FinalizeDraft: draft not found for session=%s", req.SessionID)
			return nil, ErrDraftNotFound
		}
		uc.logger.Error("FinalizeDraft: failed to get draft: %v", err)
		return nil, fmt.Errorf("%w: failed to get draft: %v", ErrInternal, err)
	}

	if !draft.IsComplete() {
		uc.logger.Warn("FinalizeDraft: draft id=%d is incomplete, missing=%v",
			draft.ID, draftwizard.MissingFields(draft))
		return nil, ErrDraftIncomplete
	}

	var (
		slot  *domain.Slot
		entry *domain.QueueEntry
	)

	// 2. Слот, очередь и статус черновика меняются атомарно
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		slot, err = uc.slotService.BookSlot(txCtx, *draft.BayID, *draft.ScheduledDate, *draft.TimeSlot, req.BookingID)
		if err != nil {
			switch {
			case errors.Is(err, slotcalendar.ErrSlotNotFound):
				return ErrSlotNotFound
			case errors.Is(err, slotcalendar.ErrSlotNotAvailable):
				return ErrSlotNotAvailable
			}
			return fmt.Errorf("%w: failed to book slot: %v", ErrInternal, err)
		}

		entry, err = uc.queueService.AddToQueue(txCtx, *draft.BayID, req.BookingID, *draft.ScheduledDate)
		if err != nil {
			switch {
			case errors.Is(err, bayqueue.ErrAlreadyQueued):
				return ErrAlreadyQueued
			case errors.Is(err, bayqueue.ErrBookingNotFound):
				return ErrBookingNotFound
			}
			return fmt.Errorf("%w: failed to enqueue booking: %v", ErrInternal, err)
		}

		if err := uc.draftService.CompleteDraft(txCtx, req.SessionID); err != nil {
			return fmt.Errorf("%w: failed to complete draft: %v", ErrInternal, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("FinalizeDraft: booking=%d placed on bay=%d at %s, queue position=%d",
		req.BookingID, slot.BayID, slot.StartTime, entry.Position)

	return &Response{
		BookingID:           req.BookingID,
		BayID:               slot.BayID,
		Date:                slot.SlotDate,
		StartTime:           slot.StartTime,
		QueuePosition:       entry.Position,
		EstimatedStart:      entry.EstimatedStart,
		EstimatedCompletion: entry.EstimatedCompletion,
	}, nil
}
