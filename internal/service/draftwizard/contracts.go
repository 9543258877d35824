package draftwizard

import (
	"context"
	"time"

	"github.com/m04kA/SMC-BayService/internal/domain"
	"github.com/m04kA/SMC-BayService/internal/integrations/catalogservice"
)

// DraftRepository интерфейс репозитория черновиков
type DraftRepository interface {
	Create(ctx context.Context, d *domain.Draft) (*domain.Draft, error)
	GetActiveBySession(ctx context.Context, sessionID string) (*domain.Draft, error)
	ListActiveByCustomer(ctx context.Context, customerID int64) ([]*domain.Draft, error)
	UpdateSelections(ctx context.Context, d *domain.Draft) error
	UpdateStatus(ctx context.Context, id int64, status domain.DraftStatus) error
	AddService(ctx context.Context, draftID, serviceID int64) error
	RemoveService(ctx context.Context, draftID, serviceID int64) error
	ClearServices(ctx context.Context, draftID int64) error
	ListServices(ctx context.Context, draftID int64) ([]int64, error)
}

// CatalogClient интерфейс клиента CatalogService
type CatalogClient interface {
	GetBranch(ctx context.Context, branchID int64) (*catalogservice.Branch, error)
	GetBay(ctx context.Context, bayID int64) (*catalogservice.Bay, error)
	GetService(ctx context.Context, serviceID int64) (*catalogservice.Service, error)
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
