package complete_service

import (
	"context"
	"time"

	"github.com/m04kA/SMC-BayService/internal/domain"
	"github.com/m04kA/SMC-BayService/pkg/types"
)

// SlotService интерфейс сервиса календаря слотов
type SlotService interface {
	CompleteService(ctx context.Context, bayID int64, date time.Time, startTime types.TimeString) (*domain.Slot, int, error)
}

// QueueService интерфейс сервиса очереди постов
type QueueService interface {
	RemoveBookingFromQueue(ctx context.Context, bookingID int64) error
	UpdateEstimatedTimesForBay(ctx context.Context, bayID int64, date time.Time) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
