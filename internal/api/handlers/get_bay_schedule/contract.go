package get_bay_schedule

import (
	"context"
	"time"

	"github.com/m04kA/SMC-BayService/internal/domain"
)

type SlotCalendarService interface {
	GetBaySchedule(ctx context.Context, bayID int64, date time.Time) (*domain.BaySchedule, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
