package slotcalendar

import (
	"context"
	"time"

	"github.com/m04kA/SMC-BayService/internal/domain"
	"github.com/m04kA/SMC-BayService/internal/integrations/catalogservice"
	"github.com/m04kA/SMC-BayService/pkg/types"
)

// SlotRepository интерфейс репозитория слотов
type SlotRepository interface {
	CreateBatch(ctx context.Context, slots []*domain.Slot) error
	DeleteByBayAndDate(ctx context.Context, bayID int64, date time.Time) error
	GetByBayDateTime(ctx context.Context, bayID int64, date time.Time, startTime types.TimeString) (*domain.Slot, error)
	ListByBayAndDate(ctx context.Context, bayID int64, date time.Time, status *domain.SlotStatus) ([]*domain.Slot, error)
	MarkBooked(ctx context.Context, id int64, bookingID int64) error
	MarkBookedBatch(ctx context.Context, ids []int64, bookingID *int64) error
	MarkInProgress(ctx context.Context, id int64) error
	MarkCompleted(ctx context.Context, id int64, actualEnd time.Time) error
	MarkCancelled(ctx context.Context, id int64, reason string) error
	Release(ctx context.Context, id int64) error
	ReleaseBatch(ctx context.Context, ids []int64) error
}

// CatalogClient интерфейс клиента CatalogService
type CatalogClient interface {
	GetBranch(ctx context.Context, branchID int64) (*catalogservice.Branch, error)
	GetBay(ctx context.Context, bayID int64) (*catalogservice.Bay, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
