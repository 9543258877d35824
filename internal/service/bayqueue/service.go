package bayqueue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-BayService/internal/domain"
	queueRepo "github.com/m04kA/SMC-BayService/internal/infra/storage/queue"
	bookingClient "github.com/m04kA/SMC-BayService/internal/integrations/bookingservice"
)

// Service сервис живой очереди бокса: упорядоченный список ожидающих
// бронирований на день с производными оценками времени.
// Очередь - realtime FIFO, не жесткое календарное ограничение: потолка
// вместимости нет, очередь может уходить за конец рабочего дня бокса
type Service struct {
	queueRepo     QueueRepository
	bookingClient BookingClient
	txManager     TransactionManager
	timeProvider  TimeProvider
	logger        Logger
}

// NewService создает новый экземпляр сервиса очередей
func NewService(
	queueRepo QueueRepository,
	bookingClient BookingClient,
	txManager TransactionManager,
	logger Logger,
) *Service {
	return &Service{
		queueRepo:     queueRepo,
		bookingClient: bookingClient,
		txManager:     txManager,
		timeProvider:  &RealTimeProvider{},
		logger:        logger,
	}
}

// AddToQueue ставит бронирование в хвост очереди бокса на дату
// (по умолчанию - сегодня). Возвращает ErrAlreadyQueued, если бронирование
// уже активно в очереди любого бокса
func (s *Service) AddToQueue(ctx context.Context, bayID int64, bookingID int64, date time.Time) (*domain.QueueEntry, error) {
	now := s.timeProvider.Now()
	if date.IsZero() {
		date = dateOnly(now)
	}

	s.logger.Info("AddToQueue: bay=%d, booking=%d, date=%s", bayID, bookingID, date.Format(domain.DateFormat))

	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	var created *domain.QueueEntry
	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		entry, err := s.enqueue(txCtx, bayID, booking, date, now)
		if err != nil {
			return err
		}
		created = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("AddToQueue: booking=%d queued at position=%d, estimated start=%s",
		bookingID, created.Position, created.EstimatedStart.Format(time.RFC3339))
	return created, nil
}

// RemoveFromQueue деактивирует запись бронирования в очереди бокса,
// компактирует позиции оставшихся записей и пересчитывает их оценки
// времени в той же транзакции.
// Возвращает ErrEntryNotFound, если активной записи в этом боксе нет
func (s *Service) RemoveFromQueue(ctx context.Context, bayID int64, bookingID int64) error {
	now := s.timeProvider.Now()

	s.logger.Info("RemoveFromQueue: bay=%d, booking=%d", bayID, bookingID)

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		return s.dequeue(txCtx, bayID, bookingID, now)
	})
	if err != nil {
		return err
	}

	s.logger.Info("RemoveFromQueue: booking=%d removed from bay=%d", bookingID, bayID)
	return nil
}

// RemoveBookingFromQueue находит очередь бронирования самостоятельно и
// удаляет его. Если бронирование не стоит ни в одной очереди - это no-op,
// не ошибка: потоки отмены должны уметь вызывать удаление безусловно
func (s *Service) RemoveBookingFromQueue(ctx context.Context, bookingID int64) error {
	now := s.timeProvider.Now()

	return s.txManager.Do(ctx, func(txCtx context.Context) error {
		entry, err := s.queueRepo.GetActiveByBooking(txCtx, bookingID)
		if err != nil {
			if errors.Is(err, queueRepo.ErrEntryNotFound) {
				s.logger.Info("RemoveBookingFromQueue: booking=%d is not queued, skipping", bookingID)
				return nil
			}
			s.logger.Error("RemoveBookingFromQueue: repository error for booking=%d: %v", bookingID, err)
			return fmt.Errorf("%w: RemoveBookingFromQueue - repository error: %v", ErrInternal, err)
		}

		return s.dequeue(txCtx, entry.BayID, bookingID, now)
	})
}

// TransferBooking переносит бронирование из очереди одного бокса в хвост
// очереди другого и перепривязывает бронирование к новому боксу.
// Операция атомарна: сбой любого шага откатывает перенос целиком
func (s *Service) TransferBooking(ctx context.Context, fromBayID, toBayID, bookingID int64) (*domain.QueueEntry, error) {
	now := s.timeProvider.Now()

	s.logger.Info("TransferBooking: booking=%d from bay=%d to bay=%d", bookingID, fromBayID, toBayID)

	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	var transferred *domain.QueueEntry
	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		entry, err := s.queueRepo.GetActiveByBooking(txCtx, bookingID)
		if err != nil {
			if errors.Is(err, queueRepo.ErrEntryNotFound) {
				return ErrEntryNotFound
			}
			return fmt.Errorf("%w: TransferBooking - repository error: %v", ErrInternal, err)
		}
		if entry.BayID != fromBayID {
			s.logger.Warn("TransferBooking: booking=%d queued in bay=%d, not in bay=%d",
				bookingID, entry.BayID, fromBayID)
			return ErrEntryNotFound
		}

		if err := s.dequeue(txCtx, fromBayID, bookingID, now); err != nil {
			return err
		}

		created, err := s.enqueue(txCtx, toBayID, booking, entry.QueueDate, now)
		if err != nil {
			return err
		}

		if err := s.bookingClient.AssignBay(txCtx, bookingID, toBayID); err != nil {
			s.logger.Error("TransferBooking: failed to re-point booking=%d to bay=%d: %v",
				bookingID, toBayID, err)
			return fmt.Errorf("%w: failed to re-point booking bay: %v", ErrInternal, err)
		}

		transferred = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("TransferBooking: booking=%d now at position=%d of bay=%d",
		bookingID, transferred.Position, toBayID)
	return transferred, nil
}

// UpdateEstimatedTimesForBay полностью пересчитывает очередь бокса на дату:
// позиции переназначаются 1..N в текущем порядке, оценки начала и
// завершения вычисляются заново. Вызывается после внешних сбоев расписания,
// например раннего завершения слота
func (s *Service) UpdateEstimatedTimesForBay(ctx context.Context, bayID int64, date time.Time) error {
	now := s.timeProvider.Now()
	if date.IsZero() {
		date = dateOnly(now)
	}

	s.logger.Info("UpdateEstimatedTimesForBay: bay=%d, date=%s", bayID, date.Format(domain.DateFormat))

	return s.txManager.Do(ctx, func(txCtx context.Context) error {
		return s.recomputeBay(txCtx, bayID, date, now)
	})
}

// GetBayQueue возвращает активную очередь бокса на дату в порядке позиций
func (s *Service) GetBayQueue(ctx context.Context, bayID int64, date time.Time) ([]*domain.QueueEntry, error) {
	if date.IsZero() {
		date = dateOnly(s.timeProvider.Now())
	}

	entries, err := s.queueRepo.ListActiveByBayAndDate(ctx, bayID, date)
	if err != nil {
		s.logger.Error("GetBayQueue: repository error for bay=%d: %v", bayID, err)
		return nil, fmt.Errorf("%w: GetBayQueue - repository error: %v", ErrInternal, err)
	}
	return entries, nil
}

// GetUpcomingBookings возвращает ближайшие к обслуживанию записи очереди
// (позиции 1-3)
func (s *Service) GetUpcomingBookings(ctx context.Context, bayID int64, date time.Time) ([]*domain.QueueEntry, error) {
	entries, err := s.GetBayQueue(ctx, bayID, date)
	if err != nil {
		return nil, err
	}

	upcoming := make([]*domain.QueueEntry, 0, domain.UpcomingQueueSize)
	for _, entry := range entries {
		if entry.Position <= domain.UpcomingQueueSize {
			upcoming = append(upcoming, entry)
		}
	}
	return upcoming, nil
}

// GetQueueLength возвращает длину активной очереди бокса на дату
func (s *Service) GetQueueLength(ctx context.Context, bayID int64, date time.Time) (int, error) {
	if date.IsZero() {
		date = dateOnly(s.timeProvider.Now())
	}

	count, err := s.queueRepo.CountActive(ctx, bayID, date)
	if err != nil {
		s.logger.Error("GetQueueLength: repository error for bay=%d: %v", bayID, err)
		return 0, fmt.Errorf("%w: GetQueueLength - repository error: %v", ErrInternal, err)
	}
	return count, nil
}

// GetBookingQueuePosition возвращает позицию бронирования в его очереди
func (s *Service) GetBookingQueuePosition(ctx context.Context, bookingID int64) (*domain.QueueEntry, error) {
	entry, err := s.queueRepo.GetActiveByBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, queueRepo.ErrEntryNotFound) {
			return nil, ErrEntryNotFound
		}
		s.logger.Error("GetBookingQueuePosition: repository error for booking=%d: %v", bookingID, err)
		return nil, fmt.Errorf("%w: GetBookingQueuePosition - repository error: %v", ErrInternal, err)
	}
	return entry, nil
}

// Внутренние шаги (вызываются внутри транзакции)

// enqueue добавляет бронирование в хвост очереди
func (s *Service) enqueue(ctx context.Context, bayID int64, booking *bookingClient.Booking, date time.Time, now time.Time) (*domain.QueueEntry, error) {
	existing, err := s.queueRepo.GetActiveByBooking(ctx, booking.ID)
	if err != nil && !errors.Is(err, queueRepo.ErrEntryNotFound) {
		return nil, fmt.Errorf("%w: enqueue - repository error: %v", ErrInternal, err)
	}
	if existing != nil {
		s.logger.Warn("enqueue: booking=%d already queued in bay=%d at position=%d",
			booking.ID, existing.BayID, existing.Position)
		return nil, ErrAlreadyQueued
	}

	last, err := s.queueRepo.GetLastPosition(ctx, bayID, date)
	if err != nil {
		return nil, fmt.Errorf("%w: enqueue - repository error: %v", ErrInternal, err)
	}
	position := last + 1

	var estimatedStart time.Time
	if position == 1 {
		estimatedStart = now
	} else {
		predecessors, err := s.queueRepo.ListActiveByBayAndDate(ctx, bayID, date)
		if err != nil {
			return nil, fmt.Errorf("%w: enqueue - repository error: %v", ErrInternal, err)
		}
		estimatedStart = chainedStart(predecessors, s.predecessorDurations(ctx, predecessors), position, now)
	}

	duration := resolveDuration(booking)
	entry := &domain.QueueEntry{
		BayID:               bayID,
		BookingID:           booking.ID,
		QueueDate:           date,
		Position:            position,
		EstimatedStart:      estimatedStart,
		EstimatedCompletion: estimatedStart.Add(time.Duration(duration) * time.Minute),
		Active:              true,
	}

	created, err := s.queueRepo.Create(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("%w: enqueue - repository error: %v", ErrInternal, err)
	}
	return created, nil
}

// dequeue деактивирует запись и пересчитывает оставшуюся очередь бокса:
// позиции снова становятся плотными 1..N, оценки начала и завершения
// перестраиваются от now. Удаление меняет состав очереди, поэтому одной
// компактации позиций недостаточно - времена тоже должны быть актуальными
func (s *Service) dequeue(ctx context.Context, bayID int64, bookingID int64, now time.Time) error {
	entry, err := s.queueRepo.GetActiveByBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, queueRepo.ErrEntryNotFound) {
			return ErrEntryNotFound
		}
		return fmt.Errorf("%w: dequeue - repository error: %v", ErrInternal, err)
	}
	if entry.BayID != bayID {
		s.logger.Warn("dequeue: booking=%d queued in bay=%d, not in bay=%d", bookingID, entry.BayID, bayID)
		return ErrEntryNotFound
	}

	if err := s.queueRepo.Deactivate(ctx, entry.ID); err != nil {
		return fmt.Errorf("%w: dequeue - repository error: %v", ErrInternal, err)
	}

	return s.recomputeBay(ctx, bayID, entry.QueueDate, now)
}

// recomputeBay пересчитывает активную очередь бокса на дату: позиции
// переназначаются 1..N в текущем порядке, оценки вычисляются заново
// одной пакетной записью
func (s *Service) recomputeBay(ctx context.Context, bayID int64, date time.Time, now time.Time) error {
	entries, err := s.queueRepo.ListActiveByBayAndDate(ctx, bayID, date)
	if err != nil {
		return fmt.Errorf("%w: recomputeBay - repository error: %v", ErrInternal, err)
	}
	if len(entries) == 0 {
		return nil
	}

	durations := make(map[int64]int, len(entries))
	for _, entry := range entries {
		booking, err := s.bookingClient.GetBooking(ctx, entry.BookingID)
		if err != nil {
			// Недоступное бронирование не должно срывать пересчет
			// всей очереди - используем сохраненную оценку
			s.logger.Warn("recomputeBay: booking=%d lookup failed, using stored estimate: %v",
				entry.BookingID, err)
			durations[entry.ID] = entry.DurationMinutes()
			continue
		}
		durations[entry.ID] = resolveDuration(booking)
	}

	recomputed := recomputeSchedule(entries, durations, now)
	if err := s.queueRepo.UpdateScheduleBatch(ctx, recomputed); err != nil {
		return fmt.Errorf("%w: recomputeBay - batch update error: %v", ErrInternal, err)
	}

	s.logger.Info("recomputeBay: recomputed %d entries for bay=%d", len(recomputed), bayID)
	return nil
}

// predecessorDurations собирает длительности предшественников без
// сохраненной оценки завершения - только им нужен поход в BookingService
func (s *Service) predecessorDurations(ctx context.Context, predecessors []*domain.QueueEntry) map[int64]int {
	durations := make(map[int64]int)
	for _, p := range predecessors {
		if !p.EstimatedCompletion.IsZero() {
			continue
		}
		booking, err := s.bookingClient.GetBooking(ctx, p.BookingID)
		if err != nil {
			s.logger.Warn("predecessorDurations: booking=%d lookup failed: %v", p.BookingID, err)
			continue
		}
		durations[p.ID] = resolveDuration(booking)
	}
	return durations
}

// getBooking получает бронирование с маппингом ошибок клиента
func (s *Service) getBooking(ctx context.Context, bookingID int64) (*bookingClient.Booking, error) {
	booking, err := s.bookingClient.GetBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingClient.ErrBookingNotFound) {
			s.logger.Warn("getBooking: booking id=%d not found", bookingID)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("getBooking: failed to get booking id=%d: %v", bookingID, err)
		return nil, fmt.Errorf("%w: failed to get booking: %v", ErrInternal, err)
	}
	return booking, nil
}

// dateOnly обнуляет время, оставляя только дату
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
