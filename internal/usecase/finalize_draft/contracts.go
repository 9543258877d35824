package finalize_draft

import (
	"context"
	"time"

	"github.com/m04kA/SMC-BayService/internal/domain"
	"github.com/m04kA/SMC-BayService/pkg/types"
)

// DraftService интерфейс сервиса мастера черновиков
type DraftService interface {
	GetDraft(ctx context.Context, sessionID string) (*domain.Draft, error)
	CompleteDraft(ctx context.Context, sessionID string) error
}

// SlotService интерфейс сервиса календаря слотов
type SlotService interface {
	BookSlot(ctx context.Context, bayID int64, date time.Time, startTime types.TimeString, bookingID int64) (*domain.Slot, error)
}

// QueueService интерфейс сервиса очереди постов
type QueueService interface {
	AddToQueue(ctx context.Context, bayID int64, bookingID int64, date time.Time) (*domain.QueueEntry, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
