package sweep_drafts

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-BayService/internal/domain"
)

// ErrInternal возвращается при внутренних ошибках usecase
var ErrInternal = errors.New("sweep_drafts: internal error")

// UseCase фоновая уборка черновиков.
// Помечает заброшенными активные черновики с истекшим TTL или без
// активности дольше суток и окончательно удаляет заброшенные черновики
// старше срока хранения. Запускается по таймеру из cmd/main.go
type UseCase struct {
	draftRepo    DraftRepository
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр usecase
func NewUseCase(draftRepo DraftRepository, logger Logger) *UseCase {
	return &UseCase{
		draftRepo:    draftRepo,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Result итоги одного прохода уборки
type Result struct {
	Abandoned int64 // Сколько черновиков помечено заброшенными
	Deleted   int64 // Сколько заброшенных черновиков удалено
}

// Execute выполняет один проход уборки
func (uc *UseCase) Execute(ctx context.Context) (*Result, error) {
	now := uc.timeProvider.Now()

	abandoned, err := uc.draftRepo.AbandonExpired(ctx, now)
	if err != nil {
		uc.logger.Error("SweepDrafts: failed to abandon expired drafts: %v", err)
		return nil, fmt.Errorf("%w: failed to abandon expired drafts: %v", ErrInternal, err)
	}

	cutoff := now.Add(-domain.AbandonedDraftRetention)
	deleted, err := uc.draftRepo.DeleteAbandonedBefore(ctx, cutoff)
	if err != nil {
		uc.logger.Error("SweepDrafts: failed to delete stale drafts: %v", err)
		return nil, fmt.Errorf("%w: failed to delete stale drafts: %v", ErrInternal, err)
	}

	if abandoned > 0 || deleted > 0 {
		uc.logger.Info("SweepDrafts: abandoned=%d, deleted=%d", abandoned, deleted)
	}

	return &Result{Abandoned: abandoned, Deleted: deleted}, nil
}
