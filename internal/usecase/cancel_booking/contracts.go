package cancel_booking

import (
	"context"
	"time"

	"github.com/m04kA/SMC-BayService/internal/domain"
)

// QueueService интерфейс сервиса очереди постов
type QueueService interface {
	GetBookingQueuePosition(ctx context.Context, bookingID int64) (*domain.QueueEntry, error)
	RemoveBookingFromQueue(ctx context.Context, bookingID int64) error
}

// SlotRepository интерфейс репозитория слотов
type SlotRepository interface {
	ListByBookingAndDate(ctx context.Context, bookingID int64, date time.Time) ([]*domain.Slot, error)
	ReleaseBatch(ctx context.Context, ids []int64) error
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
