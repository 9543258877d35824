package cancel_booking

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-BayService/internal/api/handlers"
	"github.com/m04kA/SMC-BayService/internal/domain"
	cancelBooking "github.com/m04kA/SMC-BayService/internal/usecase/cancel_booking"
)

const (
	msgInvalidBookingID = "некорректный ID бронирования"
	msgInvalidDate      = "некорректный формат даты, ожидается YYYY-MM-DD"
)

type Handler struct {
	useCase CancelBookingUseCase
	logger  Logger
}

func NewHandler(useCase CancelBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// CancelResponse HTTP response результата отмены
type CancelResponse struct {
	BookingID        int64 `json:"bookingId"`
	RemovedFromQueue bool  `json:"removedFromQueue"`
	ReleasedSlots    int   `json:"releasedSlots"`
}

// Handle PATCH /api/v1/bookings/{bookingId}/cancel?date=YYYY-MM-DD
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	bookingID, err := strconv.ParseInt(mux.Vars(r)["bookingId"], 10, 64)
	if err != nil {
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	var date time.Time
	if raw := r.URL.Query().Get("date"); raw != "" {
		date, err = time.Parse(domain.DateFormat, raw)
		if err != nil {
			handlers.RespondBadRequest(w, msgInvalidDate)
			return
		}
	}

	result, err := h.useCase.Execute(r.Context(), &cancelBooking.Request{
		BookingID: bookingID,
		Date:      date,
	})
	if err != nil {
		h.logger.Error("PATCH /bookings/%d/cancel - Failed to cancel booking: %v", bookingID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("PATCH /bookings/%d/cancel - Booking cancelled: removedFromQueue=%t, releasedSlots=%d",
		bookingID, result.RemovedFromQueue, result.ReleasedSlots)
	handlers.RespondJSON(w, http.StatusOK, &CancelResponse{
		BookingID:        bookingID,
		RemovedFromQueue: result.RemovedFromQueue,
		ReleasedSlots:    result.ReleasedSlots,
	})
}
