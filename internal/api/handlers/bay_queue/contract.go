package bay_queue

import (
	"context"
	"time"

	"github.com/m04kA/SMC-BayService/internal/domain"
)

type QueueService interface {
	AddToQueue(ctx context.Context, bayID int64, bookingID int64, date time.Time) (*domain.QueueEntry, error)
	RemoveFromQueue(ctx context.Context, bayID int64, bookingID int64) error
	TransferBooking(ctx context.Context, fromBayID, toBayID, bookingID int64) (*domain.QueueEntry, error)
	GetBayQueue(ctx context.Context, bayID int64, date time.Time) ([]*domain.QueueEntry, error)
	GetUpcomingBookings(ctx context.Context, bayID int64, date time.Time) ([]*domain.QueueEntry, error)
	GetBookingQueuePosition(ctx context.Context, bookingID int64) (*domain.QueueEntry, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
