package bayqueue

import (
	"context"
	"time"

	"github.com/m04kA/SMC-BayService/internal/domain"
	"github.com/m04kA/SMC-BayService/internal/integrations/bookingservice"
)

// QueueRepository интерфейс репозитория очередей
type QueueRepository interface {
	Create(ctx context.Context, entry *domain.QueueEntry) (*domain.QueueEntry, error)
	GetActiveByBooking(ctx context.Context, bookingID int64) (*domain.QueueEntry, error)
	ListActiveByBayAndDate(ctx context.Context, bayID int64, date time.Time) ([]*domain.QueueEntry, error)
	GetLastPosition(ctx context.Context, bayID int64, date time.Time) (int, error)
	CountActive(ctx context.Context, bayID int64, date time.Time) (int, error)
	Deactivate(ctx context.Context, id int64) error
	UpdateScheduleBatch(ctx context.Context, entries []*domain.QueueEntry) error
}

// BookingClient интерфейс клиента BookingService
type BookingClient interface {
	GetBooking(ctx context.Context, bookingID int64) (*bookingservice.Booking, error)
	AssignBay(ctx context.Context, bookingID int64, bayID int64) error
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
