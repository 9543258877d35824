package draftwizard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-BayService/internal/domain"
	draftRepo "github.com/m04kA/SMC-BayService/internal/infra/storage/draft"
	catalogClient "github.com/m04kA/SMC-BayService/internal/integrations/catalogservice"
	"github.com/m04kA/SMC-BayService/internal/service/draftwizard/models"
	"github.com/m04kA/SMC-BayService/pkg/types"
)

// Service сервис пошагового мастера бронирования
// Ведет черновик выбора клиента по цепочке зависимостей
// branch > date > service > bay > time (vehicle независим от цепочки)
// и каскадно сбрасывает зависимые поля при смене вышестоящего выбора
type Service struct {
	draftRepo     DraftRepository
	catalogClient CatalogClient
	txManager     TransactionManager
	timeProvider  TimeProvider
	logger        Logger
}

// NewService создает новый экземпляр сервиса мастера
func NewService(
	draftRepo DraftRepository,
	catalogClient CatalogClient,
	txManager TransactionManager,
	logger Logger,
) *Service {
	return &Service{
		draftRepo:     draftRepo,
		catalogClient: catalogClient,
		txManager:     txManager,
		timeProvider:  &RealTimeProvider{},
		logger:        logger,
	}
}

// MissingFields возвращает незаполненные поля черновика в порядке шагов
func MissingFields(d *domain.Draft) []string {
	return missingData(d)
}

// GetDraft получает активный черновик сессии
func (s *Service) GetDraft(ctx context.Context, sessionID string) (*domain.Draft, error) {
	d, err := s.draftRepo.GetActiveBySession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, draftRepo.ErrDraftNotFound) {
			return nil, ErrDraftNotFound
		}
		s.logger.Error("GetDraft: repository error for session=%s: %v", sessionID, err)
		return nil, fmt.Errorf("%w: GetDraft - repository error: %v", ErrInternal, err)
	}
	return d, nil
}

// GetOrCreateDraft возвращает активный черновик сессии, а при его
// отсутствии создает новый на первом шаге со свежим TTL.
// Прочие активные черновики клиента (из других сессий) помечаются
// заброшенными - у клиента может быть только один активный черновик
func (s *Service) GetOrCreateDraft(ctx context.Context, sessionID string, customerID *int64) (*domain.Draft, error) {
	now := s.timeProvider.Now()

	var result *domain.Draft
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		existing, err := s.draftRepo.GetActiveBySession(txCtx, sessionID)
		if err == nil {
			result = existing
			return nil
		}
		if !errors.Is(err, draftRepo.ErrDraftNotFound) {
			return fmt.Errorf("%w: GetOrCreateDraft - repository error: %v", ErrInternal, err)
		}

		// Вытесняем конкурирующие черновики клиента из других сессий
		if customerID != nil {
			others, err := s.draftRepo.ListActiveByCustomer(txCtx, *customerID)
			if err != nil {
				return fmt.Errorf("%w: GetOrCreateDraft - repository error: %v", ErrInternal, err)
			}
			for _, other := range others {
				if err := s.draftRepo.UpdateStatus(txCtx, other.ID, domain.DraftAbandoned); err != nil {
					return fmt.Errorf("%w: GetOrCreateDraft - failed to abandon draft id=%d: %v", ErrInternal, other.ID, err)
				}
				s.logger.Info("GetOrCreateDraft: superseded draft id=%d of customer=%d", other.ID, *customerID)
			}
		}

		created, err := s.draftRepo.Create(txCtx, &domain.Draft{
			SessionID:      sessionID,
			CustomerID:     customerID,
			CurrentStep:    domain.StepVehicle,
			Status:         domain.DraftInProgress,
			ExpiresAt:      now.Add(domain.DraftTTL),
			LastActivityAt: now,
		})
		if err != nil {
			return fmt.Errorf("%w: GetOrCreateDraft - repository error: %v", ErrInternal, err)
		}

		s.logger.Info("GetOrCreateDraft: created draft id=%d for session=%s", created.ID, sessionID)
		result = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// UpdateDraft применяет частичное обновление полей черновика.
// Ненулевые поля запроса применяются к черновику, затем определяется,
// какие вышестоящие поля реально сменили значение, и ровно одно правило
// каскада (первое совпавшее по приоритету) очищает зависимые поля.
// Шаг и missingData пересчитываются; TTL продлевается только если
// что-то фактически изменилось - пустое обновление не трогает активность
func (s *Service) UpdateDraft(ctx context.Context, sessionID string, req *models.UpdateRequest) (*models.UpdateResult, error) {
	now := s.timeProvider.Now()

	// Валидация справочных ссылок до транзакции: сбой любого lookup
	// отменяет обновление целиком
	if err := s.validateRefs(ctx, req); err != nil {
		return nil, err
	}

	var result *models.UpdateResult
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		d, err := s.draftRepo.GetActiveBySession(txCtx, sessionID)
		if err != nil {
			if errors.Is(err, draftRepo.ErrDraftNotFound) {
				return ErrDraftNotFound
			}
			return fmt.Errorf("%w: UpdateDraft - repository error: %v", ErrInternal, err)
		}

		before := snapshot(d)

		changed := applyRequest(d, req)
		if len(changed) == 0 {
			s.logger.Info("UpdateDraft: session=%s, no effective changes", sessionID)
			result = &models.UpdateResult{
				Draft:       d,
				MissingData: missingData(d),
			}
			return nil
		}

		cleared := applyCascade(d, changed)
		if containsField(cleared, FieldService) {
			if err := s.draftRepo.ClearServices(txCtx, d.ID); err != nil {
				return fmt.Errorf("%w: UpdateDraft - failed to clear services: %v", ErrInternal, err)
			}
		}

		d.CurrentStep = computeStep(d)
		d.LastActivityAt = now
		d.ExpiresAt = now.Add(domain.DraftTTL)

		if err := s.draftRepo.UpdateSelections(txCtx, d); err != nil {
			return fmt.Errorf("%w: UpdateDraft - repository error: %v", ErrInternal, err)
		}

		s.logger.Info("UpdateDraft: session=%s, changed=%v, cleared=%v, before=[%s], after=[%s]",
			sessionID, fieldNames(changed), cleared, before, snapshot(d))

		result = &models.UpdateResult{
			Draft:         d,
			ChangedFields: fieldNames(changed),
			ClearedFields: cleared,
			MissingData:   missingData(d),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// ResetDraft очищает все поля выбора и список услуг, возвращает мастер
// на первый шаг и продлевает TTL. Черновик остается активным.
// Повторный вызов дает то же очищенное состояние
func (s *Service) ResetDraft(ctx context.Context, sessionID string) (*domain.Draft, error) {
	now := s.timeProvider.Now()

	var result *domain.Draft
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		d, err := s.draftRepo.GetActiveBySession(txCtx, sessionID)
		if err != nil {
			if errors.Is(err, draftRepo.ErrDraftNotFound) {
				return ErrDraftNotFound
			}
			return fmt.Errorf("%w: ResetDraft - repository error: %v", ErrInternal, err)
		}

		d.VehicleID = nil
		d.BranchID = nil
		d.ScheduledDate = nil
		d.PrimaryServiceID = nil
		d.BayID = nil
		d.TimeSlot = nil
		d.ServiceIDs = nil
		d.CurrentStep = domain.StepVehicle
		d.LastActivityAt = now
		d.ExpiresAt = now.Add(domain.DraftTTL)

		if err := s.draftRepo.ClearServices(txCtx, d.ID); err != nil {
			return fmt.Errorf("%w: ResetDraft - failed to clear services: %v", ErrInternal, err)
		}
		if err := s.draftRepo.UpdateSelections(txCtx, d); err != nil {
			return fmt.Errorf("%w: ResetDraft - repository error: %v", ErrInternal, err)
		}

		result = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("ResetDraft: draft id=%d reset to step %d", result.ID, result.CurrentStep)
	return result, nil
}

// CompleteDraft переводит черновик в терминальный статус completed
// Вызывается после успешного создания бронирования
func (s *Service) CompleteDraft(ctx context.Context, sessionID string) error {
	return s.terminate(ctx, sessionID, domain.DraftCompleted)
}

// AbandonDraft переводит черновик в терминальный статус abandoned
func (s *Service) AbandonDraft(ctx context.Context, sessionID string) error {
	return s.terminate(ctx, sessionID, domain.DraftAbandoned)
}

// AddServiceToDraft добавляет услугу в список выбора черновика.
// Первая добавленная услуга при пустом основном выборе становится
// основной услугой черновика
func (s *Service) AddServiceToDraft(ctx context.Context, sessionID string, serviceID int64) (*domain.Draft, error) {
	now := s.timeProvider.Now()

	// Сбой lookup услуги отменяет обновление целиком
	if _, err := s.getService(ctx, serviceID); err != nil {
		return nil, err
	}

	var result *domain.Draft
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		d, err := s.draftRepo.GetActiveBySession(txCtx, sessionID)
		if err != nil {
			if errors.Is(err, draftRepo.ErrDraftNotFound) {
				return ErrDraftNotFound
			}
			return fmt.Errorf("%w: AddServiceToDraft - repository error: %v", ErrInternal, err)
		}

		if err := s.draftRepo.AddService(txCtx, d.ID, serviceID); err != nil {
			return fmt.Errorf("%w: AddServiceToDraft - repository error: %v", ErrInternal, err)
		}
		if !containsID(d.ServiceIDs, serviceID) {
			d.ServiceIDs = append(d.ServiceIDs, serviceID)
		}

		if d.PrimaryServiceID == nil {
			d.PrimaryServiceID = &serviceID
		}

		d.CurrentStep = computeStep(d)
		d.LastActivityAt = now
		d.ExpiresAt = now.Add(domain.DraftTTL)

		if err := s.draftRepo.UpdateSelections(txCtx, d); err != nil {
			return fmt.Errorf("%w: AddServiceToDraft - repository error: %v", ErrInternal, err)
		}

		result = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("AddServiceToDraft: service=%d added to draft id=%d", serviceID, result.ID)
	return result, nil
}

// RemoveServiceFromDraft удаляет услугу из списка выбора черновика.
// Если удалена основная услуга, основной становится первая из оставшихся
func (s *Service) RemoveServiceFromDraft(ctx context.Context, sessionID string, serviceID int64) (*domain.Draft, error) {
	now := s.timeProvider.Now()

	var result *domain.Draft
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		d, err := s.draftRepo.GetActiveBySession(txCtx, sessionID)
		if err != nil {
			if errors.Is(err, draftRepo.ErrDraftNotFound) {
				return ErrDraftNotFound
			}
			return fmt.Errorf("%w: RemoveServiceFromDraft - repository error: %v", ErrInternal, err)
		}

		if !containsID(d.ServiceIDs, serviceID) {
			return ErrServiceNotInDraft
		}

		if err := s.draftRepo.RemoveService(txCtx, d.ID, serviceID); err != nil {
			return fmt.Errorf("%w: RemoveServiceFromDraft - repository error: %v", ErrInternal, err)
		}
		d.ServiceIDs = removeID(d.ServiceIDs, serviceID)

		if d.PrimaryServiceID != nil && *d.PrimaryServiceID == serviceID {
			if len(d.ServiceIDs) > 0 {
				next := d.ServiceIDs[0]
				d.PrimaryServiceID = &next
			} else {
				d.PrimaryServiceID = nil
			}
		}

		d.CurrentStep = computeStep(d)
		d.LastActivityAt = now
		d.ExpiresAt = now.Add(domain.DraftTTL)

		if err := s.draftRepo.UpdateSelections(txCtx, d); err != nil {
			return fmt.Errorf("%w: RemoveServiceFromDraft - repository error: %v", ErrInternal, err)
		}

		result = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("RemoveServiceFromDraft: service=%d removed from draft id=%d", serviceID, result.ID)
	return result, nil
}

// ClearDraftServices очищает весь список услуг и основную услугу черновика
func (s *Service) ClearDraftServices(ctx context.Context, sessionID string) (*domain.Draft, error) {
	now := s.timeProvider.Now()

	var result *domain.Draft
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		d, err := s.draftRepo.GetActiveBySession(txCtx, sessionID)
		if err != nil {
			if errors.Is(err, draftRepo.ErrDraftNotFound) {
				return ErrDraftNotFound
			}
			return fmt.Errorf("%w: ClearDraftServices - repository error: %v", ErrInternal, err)
		}

		if err := s.draftRepo.ClearServices(txCtx, d.ID); err != nil {
			return fmt.Errorf("%w: ClearDraftServices - repository error: %v", ErrInternal, err)
		}

		d.ServiceIDs = nil
		d.PrimaryServiceID = nil
		d.CurrentStep = computeStep(d)
		d.LastActivityAt = now
		d.ExpiresAt = now.Add(domain.DraftTTL)

		if err := s.draftRepo.UpdateSelections(txCtx, d); err != nil {
			return fmt.Errorf("%w: ClearDraftServices - repository error: %v", ErrInternal, err)
		}

		result = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("ClearDraftServices: draft id=%d services cleared", result.ID)
	return result, nil
}

// Вспомогательные методы

// terminate переводит активный черновик в терминальный статус
func (s *Service) terminate(ctx context.Context, sessionID string, status domain.DraftStatus) error {
	return s.txManager.Do(ctx, func(txCtx context.Context) error {
		d, err := s.draftRepo.GetActiveBySession(txCtx, sessionID)
		if err != nil {
			if errors.Is(err, draftRepo.ErrDraftNotFound) {
				return ErrDraftNotFound
			}
			return fmt.Errorf("%w: terminate - repository error: %v", ErrInternal, err)
		}

		if err := s.draftRepo.UpdateStatus(txCtx, d.ID, status); err != nil {
			return fmt.Errorf("%w: terminate - repository error: %v", ErrInternal, err)
		}

		s.logger.Info("terminate: draft id=%d -> %s", d.ID, status)
		return nil
	})
}

// validateRefs проверяет существование справочных сущностей из запроса
func (s *Service) validateRefs(ctx context.Context, req *models.UpdateRequest) error {
	if req.BranchID != nil {
		if _, err := s.catalogClient.GetBranch(ctx, *req.BranchID); err != nil {
			if errors.Is(err, catalogClient.ErrBranchNotFound) {
				return ErrBranchNotFound
			}
			return fmt.Errorf("%w: failed to get branch: %v", ErrInternal, err)
		}
	}
	if req.BayID != nil {
		if _, err := s.catalogClient.GetBay(ctx, *req.BayID); err != nil {
			if errors.Is(err, catalogClient.ErrBayNotFound) {
				return ErrBayNotFound
			}
			return fmt.Errorf("%w: failed to get bay: %v", ErrInternal, err)
		}
	}
	if req.PrimaryServiceID != nil {
		if _, err := s.getService(ctx, *req.PrimaryServiceID); err != nil {
			return err
		}
	}
	return nil
}

// getService получает услугу с маппингом ошибок клиента
func (s *Service) getService(ctx context.Context, serviceID int64) (*catalogClient.Service, error) {
	service, err := s.catalogClient.GetService(ctx, serviceID)
	if err != nil {
		if errors.Is(err, catalogClient.ErrServiceNotFound) {
			s.logger.Warn("getService: service id=%d not found", serviceID)
			return nil, ErrServiceNotFound
		}
		s.logger.Error("getService: failed to get service id=%d: %v", serviceID, err)
		return nil, fmt.Errorf("%w: failed to get service: %v", ErrInternal, err)
	}
	return service, nil
}

// applyRequest применяет ненулевые поля запроса и возвращает множество
// полей, реально сменивших значение. Повторная установка того же
// значения изменением не считается
func applyRequest(d *domain.Draft, req *models.UpdateRequest) map[string]bool {
	changed := make(map[string]bool)

	if req.VehicleID != nil && !equalInt64Ptr(d.VehicleID, req.VehicleID) {
		d.VehicleID = req.VehicleID
		changed[FieldVehicle] = true
	}
	if req.BranchID != nil && !equalInt64Ptr(d.BranchID, req.BranchID) {
		d.BranchID = req.BranchID
		changed[FieldBranch] = true
	}
	if req.ScheduledDate != nil && !equalDatePtr(d.ScheduledDate, req.ScheduledDate) {
		d.ScheduledDate = req.ScheduledDate
		changed[FieldDate] = true
	}
	if req.PrimaryServiceID != nil && !equalInt64Ptr(d.PrimaryServiceID, req.PrimaryServiceID) {
		d.PrimaryServiceID = req.PrimaryServiceID
		if !containsID(d.ServiceIDs, *req.PrimaryServiceID) {
			d.ServiceIDs = append(d.ServiceIDs, *req.PrimaryServiceID)
		}
		changed[FieldService] = true
	}
	if req.BayID != nil && !equalInt64Ptr(d.BayID, req.BayID) {
		d.BayID = req.BayID
		changed[FieldBay] = true
	}
	if req.TimeSlot != nil && (d.TimeSlot == nil || *d.TimeSlot != *req.TimeSlot) {
		d.TimeSlot = req.TimeSlot
		changed[FieldTime] = true
	}

	return changed
}

// snapshot строит строку состояния полей черновика для диагностики
func snapshot(d *domain.Draft) string {
	return fmt.Sprintf("vehicle=%s branch=%s date=%s service=%s services=%v bay=%s time=%s step=%d",
		fmtInt64Ptr(d.VehicleID),
		fmtInt64Ptr(d.BranchID),
		fmtDatePtr(d.ScheduledDate),
		fmtInt64Ptr(d.PrimaryServiceID),
		d.ServiceIDs,
		fmtInt64Ptr(d.BayID),
		fmtTimeSlotPtr(d.TimeSlot),
		d.CurrentStep)
}

func fieldNames(changed map[string]bool) []string {
	// Стабильный порядок имен - порядок приоритета цепочки
	order := []string{FieldVehicle, FieldBranch, FieldDate, FieldService, FieldBay, FieldTime}
	names := make([]string, 0, len(changed))
	for _, f := range order {
		if changed[f] {
			names = append(names, f)
		}
	}
	return names
}

func containsField(fields []string, field string) bool {
	for _, f := range fields {
		if f == field {
			return true
		}
	}
	return false
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(ids []int64, id int64) []int64 {
	result := make([]int64, 0, len(ids))
	for _, v := range ids {
		if v != id {
			result = append(result, v)
		}
	}
	return result
}

func equalInt64Ptr(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalDatePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func fmtInt64Ptr(v *int64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

func fmtDatePtr(v *time.Time) string {
	if v == nil {
		return "-"
	}
	return v.Format(domain.DateFormat)
}

func fmtTimeSlotPtr(v *types.TimeString) string {
	if v == nil {
		return "-"
	}
	return v.String()
}
