package complete_service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-BayService/internal/domain"
	"github.com/m04kA/SMC-BayService/internal/service/slotcalendar"
	"github.com/m04kA/SMC-BayService/pkg/types"
)

// UseCase завершение обслуживания на посту.
// Завершает слот (с каскадным освобождением оставшегося хвоста при
// досрочном завершении), снимает бронирование с очереди поста и
// пересчитывает расчетные времена оставшихся записей очереди.
// Все изменения выполняются в одной транзакции
type UseCase struct {
	slotService  SlotService
	queueService QueueService
	txManager    TransactionManager
	logger       Logger
}

// NewUseCase создает новый экземпляр usecase
func NewUseCase(
	slotService SlotService,
	queueService QueueService,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		slotService:  slotService,
		queueService: queueService,
		txManager:    txManager,
		logger:       logger,
	}
}

// Response модель ответа о завершении обслуживания
type Response struct {
	Slot          *domain.Slot // Завершенный слот
	ReleasedSlots int          // Сколько слотов освобождено досрочным завершением
}

// Execute завершает обслуживание слота и актуализирует очередь поста
func (uc *UseCase) Execute(ctx context.Context, bayID int64, date time.Time, startTime types.TimeString) (*Response, error) {
	uc.logger.Info("CompleteService: bay=%d, date=%s, start=%s",
		bayID, date.Format(domain.DateFormat), startTime)

	var (
		slot     *domain.Slot
		released int
	)

	err := uc.txManager.Do(ctx, func(txCtx context.Context) error {
		var err error
		slot, released, err = uc.slotService.CompleteService(txCtx, bayID, date, startTime)
		if err != nil {
			switch {
			case errors.Is(err, slotcalendar.ErrSlotNotFound):
				return ErrSlotNotFound
			case errors.Is(err, slotcalendar.ErrInvalidTransition):
				return ErrInvalidTransition
			}
			return fmt.Errorf("%w: failed to complete slot: %v", ErrInternal, err)
		}

		// Снятие с очереди идемпотентно: бронирование могло быть
		// снято раньше или вовсе не стоять в очереди
		if slot.BookingID != nil {
			if err := uc.queueService.RemoveBookingFromQueue(txCtx, *slot.BookingID); err != nil {
				return fmt.Errorf("%w: failed to dequeue booking: %v", ErrInternal, err)
			}
		}

		if err := uc.queueService.UpdateEstimatedTimesForBay(txCtx, bayID, date); err != nil {
			return fmt.Errorf("%w: failed to update queue estimates: %v", ErrInternal, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if released > 0 {
		uc.logger.Info("CompleteService: early completion released %d slot(s) on bay=%d", released, bayID)
	}

	return &Response{Slot: slot, ReleasedSlots: released}, nil
}
