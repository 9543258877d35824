package slotcalendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-BayService/internal/domain"
	slotRepo "github.com/m04kA/SMC-BayService/internal/infra/storage/slot"
	catalogClient "github.com/m04kA/SMC-BayService/internal/integrations/catalogservice"
	"github.com/m04kA/SMC-BayService/pkg/types"
)

// Service сервис календаря слотов сервисных боксов
// Нарезает рабочие часы бокса на ячейки фиксированной ширины и ведет
// их жизненный цикл: available -> booked -> in_progress -> completed,
// с отменой из нетерминальных статусов
type Service struct {
	slotRepo      SlotRepository
	catalogClient CatalogClient
	txManager     TransactionManager
	timeProvider  TimeProvider
	logger        Logger
}

// NewService создает новый экземпляр сервиса календаря
func NewService(
	slotRepo SlotRepository,
	catalogClient CatalogClient,
	txManager TransactionManager,
	logger Logger,
) *Service {
	return &Service{
		slotRepo:      slotRepo,
		catalogClient: catalogClient,
		txManager:     txManager,
		timeProvider:  &RealTimeProvider{},
		logger:        logger,
	}
}

// GenerateDaily перегенерирует календарь бокса на дату: удаляет
// существующие слоты и создает по одному слоту на каждый рабочий час.
// Повторный вызов полностью заменяет день
func (s *Service) GenerateDaily(ctx context.Context, bayID int64, date time.Time) ([]*domain.Slot, error) {
	s.logger.Info("GenerateDaily: bay=%d, date=%s", bayID, date.Format(domain.DateFormat))

	bay, err := s.catalogClient.GetBay(ctx, bayID)
	if err != nil {
		if errors.Is(err, catalogClient.ErrBayNotFound) {
			s.logger.Warn("GenerateDaily: bay id=%d not found", bayID)
			return nil, ErrBayNotFound
		}
		s.logger.Error("GenerateDaily: failed to get bay id=%d: %v", bayID, err)
		return nil, fmt.Errorf("%w: failed to get bay: %v", ErrInternal, err)
	}

	slots, err := buildDailySlots(bay, date)
	if err != nil {
		s.logger.Warn("GenerateDaily: bay id=%d has invalid working hours [%d, %d)",
			bayID, bay.WorkingHoursStart, bay.WorkingHoursEnd)
		return nil, err
	}

	// Удаление старых слотов и создание новых - одна транзакция
	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		if err := s.slotRepo.DeleteByBayAndDate(txCtx, bayID, date); err != nil {
			return fmt.Errorf("%w: failed to purge slots: %v", ErrInternal, err)
		}
		if err := s.slotRepo.CreateBatch(txCtx, slots); err != nil {
			return fmt.Errorf("%w: failed to create slots: %v", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("GenerateDaily: bay=%d, date=%s: %v", bayID, date.Format(domain.DateFormat), err)
		return nil, err
	}

	s.logger.Info("GenerateDaily: generated %d slots for bay=%d, date=%s",
		len(slots), bayID, date.Format(domain.DateFormat))
	return slots, nil
}

// GenerateBranchDaily перегенерирует календарь каждого активного бокса филиала
func (s *Service) GenerateBranchDaily(ctx context.Context, branchID int64, date time.Time) ([]*domain.BaySchedule, error) {
	s.logger.Info("GenerateBranchDaily: branch=%d, date=%s", branchID, date.Format(domain.DateFormat))

	branch, err := s.catalogClient.GetBranch(ctx, branchID)
	if err != nil {
		if errors.Is(err, catalogClient.ErrBranchNotFound) {
			s.logger.Warn("GenerateBranchDaily: branch id=%d not found", branchID)
			return nil, ErrBranchNotFound
		}
		s.logger.Error("GenerateBranchDaily: failed to get branch id=%d: %v", branchID, err)
		return nil, fmt.Errorf("%w: failed to get branch: %v", ErrInternal, err)
	}

	schedules := make([]*domain.BaySchedule, 0)
	for _, bay := range branch.ActiveBays() {
		slots, err := s.GenerateDaily(ctx, bay.ID, date)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, &domain.BaySchedule{BayID: bay.ID, Date: date, Slots: slots})
	}

	s.logger.Info("GenerateBranchDaily: generated calendars for %d bays of branch=%d",
		len(schedules), branchID)
	return schedules, nil
}

// GetSlot получает слот бокса по дате и времени начала
func (s *Service) GetSlot(ctx context.Context, bayID int64, date time.Time, startTime types.TimeString) (*domain.Slot, error) {
	slot, err := s.slotRepo.GetByBayDateTime(ctx, bayID, date, startTime)
	if err != nil {
		if errors.Is(err, slotRepo.ErrSlotNotFound) {
			return nil, ErrSlotNotFound
		}
		s.logger.Error("GetSlot: repository error for bay=%d: %v", bayID, err)
		return nil, fmt.Errorf("%w: GetSlot - repository error: %v", ErrInternal, err)
	}
	return slot, nil
}

// GetBaySchedule получает полное расписание бокса на дату
func (s *Service) GetBaySchedule(ctx context.Context, bayID int64, date time.Time) (*domain.BaySchedule, error) {
	slots, err := s.slotRepo.ListByBayAndDate(ctx, bayID, date, nil)
	if err != nil {
		s.logger.Error("GetBaySchedule: repository error for bay=%d: %v", bayID, err)
		return nil, fmt.Errorf("%w: GetBaySchedule - repository error: %v", ErrInternal, err)
	}
	return &domain.BaySchedule{BayID: bayID, Date: date, Slots: slots}, nil
}

// GetAvailableSlots получает свободные слоты бокса на дату
func (s *Service) GetAvailableSlots(ctx context.Context, bayID int64, date time.Time) ([]*domain.Slot, error) {
	status := domain.SlotAvailable
	slots, err := s.slotRepo.ListByBayAndDate(ctx, bayID, date, &status)
	if err != nil {
		s.logger.Error("GetAvailableSlots: repository error for bay=%d: %v", bayID, err)
		return nil, fmt.Errorf("%w: GetAvailableSlots - repository error: %v", ErrInternal, err)
	}
	return slots, nil
}

// GetAvailableSlotsByBranch получает свободные слоты каждого активного
// бокса филиала на дату
func (s *Service) GetAvailableSlotsByBranch(ctx context.Context, branchID int64, date time.Time) ([]*domain.BaySchedule, error) {
	branch, err := s.catalogClient.GetBranch(ctx, branchID)
	if err != nil {
		if errors.Is(err, catalogClient.ErrBranchNotFound) {
			return nil, ErrBranchNotFound
		}
		s.logger.Error("GetAvailableSlotsByBranch: failed to get branch id=%d: %v", branchID, err)
		return nil, fmt.Errorf("%w: failed to get branch: %v", ErrInternal, err)
	}

	schedules := make([]*domain.BaySchedule, 0)
	for _, bay := range branch.ActiveBays() {
		slots, err := s.GetAvailableSlots(ctx, bay.ID, date)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, &domain.BaySchedule{BayID: bay.ID, Date: date, Slots: slots})
	}

	return schedules, nil
}

// BookSlot бронирует свободный слот
// Требует статус available, иначе возвращает ErrSlotNotAvailable
func (s *Service) BookSlot(ctx context.Context, bayID int64, date time.Time, startTime types.TimeString, bookingID int64) (*domain.Slot, error) {
	s.logger.Info("BookSlot: bay=%d, date=%s, time=%s, booking=%d",
		bayID, date.Format(domain.DateFormat), startTime, bookingID)

	var booked *domain.Slot
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		slot, err := s.GetSlot(txCtx, bayID, date, startTime)
		if err != nil {
			return err
		}

		if !slot.CanBeBooked() {
			s.logger.Warn("BookSlot: slot id=%d not available, status=%s", slot.ID, slot.Status)
			return ErrSlotNotAvailable
		}

		if err := s.slotRepo.MarkBooked(txCtx, slot.ID, bookingID); err != nil {
			return fmt.Errorf("%w: BookSlot - repository error: %v", ErrInternal, err)
		}

		slot.Status = domain.SlotBooked
		slot.BookingID = &bookingID
		booked = slot
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("BookSlot: booked slot id=%d for booking=%d", booked.ID, bookingID)
	return booked, nil
}

// StartService переводит забронированный слот в обслуживание
func (s *Service) StartService(ctx context.Context, bayID int64, date time.Time, startTime types.TimeString) (*domain.Slot, error) {
	var started *domain.Slot
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		slot, err := s.GetSlot(txCtx, bayID, date, startTime)
		if err != nil {
			return err
		}

		if !slot.CanBeStarted() {
			s.logger.Warn("StartService: slot id=%d in status=%s, expected booked", slot.ID, slot.Status)
			return fmt.Errorf("%w: cannot start service from status %s", ErrInvalidTransition, slot.Status)
		}

		if err := s.slotRepo.MarkInProgress(txCtx, slot.ID); err != nil {
			return fmt.Errorf("%w: StartService - repository error: %v", ErrInternal, err)
		}

		slot.Status = domain.SlotInProgress
		started = slot
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("StartService: slot id=%d in progress", started.ID)
	return started, nil
}

// CompleteService завершает обслуживание слота, фиксируя фактическое
// время окончания. Если обслуживание закончилось раньше планового конца
// слота, все booked слоты бокса/даты, чье окно целиком лежит между
// фактическим и плановым концом, освобождаются обратно в available.
// Слоты in_progress и completed в этом окне не трогаются
func (s *Service) CompleteService(ctx context.Context, bayID int64, date time.Time, startTime types.TimeString) (*domain.Slot, int, error) {
	now := s.timeProvider.Now()

	var completed *domain.Slot
	released := 0

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		slot, err := s.GetSlot(txCtx, bayID, date, startTime)
		if err != nil {
			return err
		}

		if !slot.CanBeCompleted() {
			s.logger.Warn("CompleteService: slot id=%d in status=%s, expected in_progress", slot.ID, slot.Status)
			return fmt.Errorf("%w: cannot complete service from status %s", ErrInvalidTransition, slot.Status)
		}

		if err := s.slotRepo.MarkCompleted(txCtx, slot.ID, now); err != nil {
			return fmt.Errorf("%w: CompleteService - repository error: %v", ErrInternal, err)
		}

		slot.Status = domain.SlotCompleted
		slot.ActualEndTime = &now
		completed = slot

		// Каскад раннего завершения
		actualEnd := types.NewTimeString(now)
		if !actualEnd.IsBefore(slot.EndTime) {
			return nil
		}

		daySlots, err := s.slotRepo.ListByBayAndDate(txCtx, bayID, date, nil)
		if err != nil {
			return fmt.Errorf("%w: CompleteService - repository error: %v", ErrInternal, err)
		}

		toRelease := make([]int64, 0)
		for _, ds := range daySlots {
			if ds.ID == slot.ID || ds.Status != domain.SlotBooked {
				continue
			}
			if ds.WithinWindow(actualEnd, slot.EndTime) {
				toRelease = append(toRelease, ds.ID)
			}
		}

		if err := s.slotRepo.ReleaseBatch(txCtx, toRelease); err != nil {
			return fmt.Errorf("%w: CompleteService - release error: %v", ErrInternal, err)
		}
		released = len(toRelease)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	s.logger.Info("CompleteService: slot id=%d completed, released %d slots", completed.ID, released)
	return completed, released, nil
}

// CancelSlot отменяет слот из любого нетерминального статуса
// Причина сохраняется для аудита
func (s *Service) CancelSlot(ctx context.Context, bayID int64, date time.Time, startTime types.TimeString, reason string) (*domain.Slot, error) {
	var cancelled *domain.Slot
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		slot, err := s.GetSlot(txCtx, bayID, date, startTime)
		if err != nil {
			return err
		}

		if !slot.CanBeCancelled() {
			s.logger.Warn("CancelSlot: slot id=%d already terminal, status=%s", slot.ID, slot.Status)
			return fmt.Errorf("%w: cannot cancel slot in status %s", ErrInvalidTransition, slot.Status)
		}

		if err := s.slotRepo.MarkCancelled(txCtx, slot.ID, reason); err != nil {
			return fmt.Errorf("%w: CancelSlot - repository error: %v", ErrInternal, err)
		}

		slot.Status = domain.SlotCancelled
		slot.CancellationReason = &reason
		cancelled = slot
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("CancelSlot: slot id=%d cancelled, reason=%s", cancelled.ID, reason)
	return cancelled, nil
}

// ReleaseSlot вручную возвращает booked/in_progress слот в available
// Используется для ручных корректировок расписания
func (s *Service) ReleaseSlot(ctx context.Context, bayID int64, date time.Time, startTime types.TimeString) (*domain.Slot, error) {
	var releasedSlot *domain.Slot
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		slot, err := s.GetSlot(txCtx, bayID, date, startTime)
		if err != nil {
			return err
		}

		if !slot.CanBeReleased() {
			s.logger.Warn("ReleaseSlot: slot id=%d in status=%s", slot.ID, slot.Status)
			return fmt.Errorf("%w: cannot release slot in status %s", ErrInvalidTransition, slot.Status)
		}

		if err := s.slotRepo.Release(txCtx, slot.ID); err != nil {
			return fmt.Errorf("%w: ReleaseSlot - repository error: %v", ErrInternal, err)
		}

		slot.Status = domain.SlotAvailable
		slot.BookingID = nil
		releasedSlot = slot
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("ReleaseSlot: slot id=%d released", releasedSlot.ID)
	return releasedSlot, nil
}

// BlockSlotsInRange помечает booked все свободные слоты, пересекающие
// [start, end). Используется, когда одно бронирование занимает несколько
// ячеек подряд
func (s *Service) BlockSlotsInRange(ctx context.Context, bayID int64, date time.Time, start, end types.TimeString, bookingID *int64) ([]*domain.Slot, error) {
	if !start.IsBefore(end) {
		return nil, fmt.Errorf("%w: start must be before end", ErrInvalidTimeRange)
	}

	var blocked []*domain.Slot
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		slots, err := s.slotRepo.ListByBayAndDate(txCtx, bayID, date, nil)
		if err != nil {
			return fmt.Errorf("%w: BlockSlotsInRange - repository error: %v", ErrInternal, err)
		}

		ids := make([]int64, 0)
		blocked = make([]*domain.Slot, 0)
		for _, slot := range slots {
			if slot.Status != domain.SlotAvailable || !slot.Overlaps(start, end) {
				continue
			}
			ids = append(ids, slot.ID)
			slot.Status = domain.SlotBooked
			slot.BookingID = bookingID
			blocked = append(blocked, slot)
		}

		if err := s.slotRepo.MarkBookedBatch(txCtx, ids, bookingID); err != nil {
			return fmt.Errorf("%w: BlockSlotsInRange - repository error: %v", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("BlockSlotsInRange: blocked %d slots for bay=%d in [%s, %s)",
		len(blocked), bayID, start, end)
	return blocked, nil
}

// FindConflictingSlots возвращает слоты бокса/даты, пересекающие
// [start, end), независимо от статуса
// Используется валидацией бронирования до фиксации резерва
func (s *Service) FindConflictingSlots(ctx context.Context, bayID int64, date time.Time, start, end types.TimeString) ([]*domain.Slot, error) {
	if !start.IsBefore(end) {
		return nil, fmt.Errorf("%w: start must be before end", ErrInvalidTimeRange)
	}

	slots, err := s.slotRepo.ListByBayAndDate(ctx, bayID, date, nil)
	if err != nil {
		s.logger.Error("FindConflictingSlots: repository error for bay=%d: %v", bayID, err)
		return nil, fmt.Errorf("%w: FindConflictingSlots - repository error: %v", ErrInternal, err)
	}

	conflicting := make([]*domain.Slot, 0)
	for _, slot := range slots {
		if slot.Overlaps(start, end) {
			conflicting = append(conflicting, slot)
		}
	}

	return conflicting, nil
}

// buildDailySlots строит слоты дня по рабочим часам бокса:
// одна ячейка фиксированной ширины на каждый час от начала до конца смены
func buildDailySlots(bay *catalogClient.Bay, date time.Time) ([]*domain.Slot, error) {
	// Верхняя граница 23: конец последнего слота должен оставаться
	// валидным временем в пределах суток
	if bay.WorkingHoursStart < 0 || bay.WorkingHoursEnd > 23 || bay.WorkingHoursStart >= bay.WorkingHoursEnd {
		return nil, ErrInvalidWorkingHours
	}

	slots := make([]*domain.Slot, 0, bay.WorkingHoursEnd-bay.WorkingHoursStart)
	for hour := bay.WorkingHoursStart; hour < bay.WorkingHoursEnd; hour++ {
		slots = append(slots, &domain.Slot{
			BayID:     bay.ID,
			SlotDate:  date,
			StartTime: types.NewTimeStringFromHour(hour),
			EndTime:   types.NewTimeStringFromHour(hour + 1),
			Status:    domain.SlotAvailable,
		})
	}

	return slots, nil
}
