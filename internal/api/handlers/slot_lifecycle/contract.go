package slot_lifecycle

import (
	"context"
	"time"

	"github.com/m04kA/SMC-BayService/internal/domain"
	completeService "github.com/m04kA/SMC-BayService/internal/usecase/complete_service"
	"github.com/m04kA/SMC-BayService/pkg/types"
)

type SlotCalendarService interface {
	BookSlot(ctx context.Context, bayID int64, date time.Time, startTime types.TimeString, bookingID int64) (*domain.Slot, error)
	StartService(ctx context.Context, bayID int64, date time.Time, startTime types.TimeString) (*domain.Slot, error)
	CancelSlot(ctx context.Context, bayID int64, date time.Time, startTime types.TimeString, reason string) (*domain.Slot, error)
	ReleaseSlot(ctx context.Context, bayID int64, date time.Time, startTime types.TimeString) (*domain.Slot, error)
}

type CompleteServiceUseCase interface {
	Execute(ctx context.Context, bayID int64, date time.Time, startTime types.TimeString) (*completeService.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
