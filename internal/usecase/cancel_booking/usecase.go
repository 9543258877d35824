package cancel_booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-BayService/internal/domain"
	"github.com/m04kA/SMC-BayService/internal/service/bayqueue"
)

// UseCase отмена бронирования.
// Идемпотентный сценарий: снимает бронирование с очереди поста (если
// оно там стояло) и по настройке releaseSlotOnCancel освобождает его
// занятые слоты на дату обслуживания. Повторный вызов безвреден
type UseCase struct {
	queueService        QueueService
	slotRepo            SlotRepository
	txManager           TransactionManager
	timeProvider        TimeProvider
	releaseSlotOnCancel bool
	logger              Logger
}

// NewUseCase создает новый экземпляр usecase
func NewUseCase(
	queueService QueueService,
	slotRepo SlotRepository,
	txManager TransactionManager,
	releaseSlotOnCancel bool,
	logger Logger,
) *UseCase {
	return &UseCase{
		queueService:        queueService,
		slotRepo:            slotRepo,
		txManager:           txManager,
		timeProvider:        &RealTimeProvider{},
		releaseSlotOnCancel: releaseSlotOnCancel,
		logger:              logger,
	}
}

// Request модель запроса на отмену бронирования
type Request struct {
	BookingID int64     // ID бронирования
	Date      time.Time // Дата обслуживания; пустая дата означает сегодня
}

// Response модель ответа об отмене
type Response struct {
	RemovedFromQueue bool // Стояло ли бронирование в очереди
	ReleasedSlots    int  // Сколько слотов освобождено
}

// Execute выполняет отмену бронирования
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	date := req.Date
	if date.IsZero() {
		now := uc.timeProvider.Now()
		date = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	}

	uc.logger.Info("CancelBooking: bookingID=%d, date=%s", req.BookingID, date.Format(domain.DateFormat))

	resp := &Response{}

	err := uc.txManager.Do(ctx, func(txCtx context.Context) error {
		// Бронирование могло не стоять в очереди: это не ошибка отмены.
		// Удаление само пересчитывает оставшуюся очередь бокса
		_, err := uc.queueService.GetBookingQueuePosition(txCtx, req.BookingID)
		switch {
		case err == nil:
			if err := uc.queueService.RemoveBookingFromQueue(txCtx, req.BookingID); err != nil {
				return fmt.Errorf("%w: failed to dequeue booking: %v", ErrInternal, err)
			}
			resp.RemovedFromQueue = true
		case errors.Is(err, bayqueue.ErrEntryNotFound):
			// ничего не делаем
		default:
			return fmt.Errorf("%w: failed to get queue position: %v", ErrInternal, err)
		}

		if !uc.releaseSlotOnCancel {
			return nil
		}

		slots, err := uc.slotRepo.ListByBookingAndDate(txCtx, req.BookingID, date)
		if err != nil {
			return fmt.Errorf("%w: failed to list booking slots: %v", ErrInternal, err)
		}

		var ids []int64
		for _, slot := range slots {
			if slot.CanBeReleased() {
				ids = append(ids, slot.ID)
			}
		}
		if len(ids) > 0 {
			if err := uc.slotRepo.ReleaseBatch(txCtx, ids); err != nil {
				return fmt.Errorf("%w: failed to release slots: %v", ErrInternal, err)
			}
			resp.ReleasedSlots = len(ids)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("CancelBooking: bookingID=%d, removedFromQueue=%t, releasedSlots=%d",
		req.BookingID, resp.RemovedFromQueue, resp.ReleasedSlots)

	return resp, nil
}
