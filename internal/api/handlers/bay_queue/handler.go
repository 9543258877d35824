package bay_queue

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-BayService/internal/api/handlers"
	"github.com/m04kA/SMC-BayService/internal/domain"
	"github.com/m04kA/SMC-BayService/internal/service/bayqueue"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidBayID       = "некорректный ID поста"
	msgInvalidBookingID   = "некорректный ID бронирования"
	msgInvalidDate        = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgAlreadyQueued      = "бронирование уже стоит в очереди"
	msgEntryNotFound      = "запись очереди не найдена"
	msgBookingNotFound    = "бронирование не найдено"
)

type Handler struct {
	service QueueService
	logger  Logger
}

func NewHandler(service QueueService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// HandleAdd POST /api/v1/bays/{bayId}/queue
func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	bayID, err := strconv.ParseInt(mux.Vars(r)["bayId"], 10, 64)
	if err != nil {
		handlers.RespondBadRequest(w, msgInvalidBayID)
		return
	}

	var req AddToQueueRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bays/%d/queue - Invalid request body: %v", bayID, err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	var date time.Time
	if req.Date != "" {
		date, err = time.Parse(domain.DateFormat, req.Date)
		if err != nil {
			handlers.RespondBadRequest(w, msgInvalidDate)
			return
		}
	}

	entry, err := h.service.AddToQueue(r.Context(), bayID, req.BookingID, date)
	if err != nil {
		switch {
		case errors.Is(err, bayqueue.ErrAlreadyQueued):
			h.logger.Warn("POST /bays/%d/queue - Booking %d already queued", bayID, req.BookingID)
			handlers.RespondError(w, http.StatusConflict, msgAlreadyQueued)
		case errors.Is(err, bayqueue.ErrBookingNotFound):
			h.logger.Warn("POST /bays/%d/queue - Booking %d not found", bayID, req.BookingID)
			handlers.RespondNotFound(w, msgBookingNotFound)
		default:
			h.logger.Error("POST /bays/%d/queue - Failed to enqueue booking %d: %v", bayID, req.BookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bays/%d/queue - Booking %d queued at position %d", bayID, req.BookingID, entry.Position)
	handlers.RespondJSON(w, http.StatusCreated, FromEntry(entry))
}

// HandleRemove DELETE /api/v1/bays/{bayId}/queue/{bookingId}
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	bayID, err := strconv.ParseInt(vars["bayId"], 10, 64)
	if err != nil {
		handlers.RespondBadRequest(w, msgInvalidBayID)
		return
	}
	bookingID, err := strconv.ParseInt(vars["bookingId"], 10, 64)
	if err != nil {
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	if err := h.service.RemoveFromQueue(r.Context(), bayID, bookingID); err != nil {
		switch {
		case errors.Is(err, bayqueue.ErrEntryNotFound):
			h.logger.Warn("DELETE /bays/%d/queue/%d - Entry not found", bayID, bookingID)
			handlers.RespondNotFound(w, msgEntryNotFound)
		default:
			h.logger.Error("DELETE /bays/%d/queue/%d - Failed to dequeue: %v", bayID, bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("DELETE /bays/%d/queue/%d - Booking removed from queue", bayID, bookingID)
	handlers.RespondJSON(w, http.StatusNoContent, nil)
}

// HandleTransfer POST /api/v1/bays/{bayId}/queue/transfer
func (h *Handler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	fromBayID, err := strconv.ParseInt(mux.Vars(r)["bayId"], 10, 64)
	if err != nil {
		handlers.RespondBadRequest(w, msgInvalidBayID)
		return
	}

	var req TransferRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bays/%d/queue/transfer - Invalid request body: %v", fromBayID, err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	entry, err := h.service.TransferBooking(r.Context(), fromBayID, req.ToBayID, req.BookingID)
	if err != nil {
		switch {
		case errors.Is(err, bayqueue.ErrEntryNotFound):
			h.logger.Warn("POST /bays/%d/queue/transfer - Entry not found: booking=%d", fromBayID, req.BookingID)
			handlers.RespondNotFound(w, msgEntryNotFound)
		case errors.Is(err, bayqueue.ErrBookingNotFound):
			h.logger.Warn("POST /bays/%d/queue/transfer - Booking %d not found", fromBayID, req.BookingID)
			handlers.RespondNotFound(w, msgBookingNotFound)
		default:
			h.logger.Error("POST /bays/%d/queue/transfer - Failed to transfer booking %d to bay %d: %v",
				fromBayID, req.BookingID, req.ToBayID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bays/%d/queue/transfer - Booking %d moved to bay %d, position %d",
		fromBayID, req.BookingID, req.ToBayID, entry.Position)
	handlers.RespondJSON(w, http.StatusOK, FromEntry(entry))
}

// HandleGet GET /api/v1/bays/{bayId}/queue?date=YYYY-MM-DD&upcoming=true
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	bayID, err := strconv.ParseInt(mux.Vars(r)["bayId"], 10, 64)
	if err != nil {
		handlers.RespondBadRequest(w, msgInvalidBayID)
		return
	}

	date, err := time.Parse(domain.DateFormat, r.URL.Query().Get("date"))
	if err != nil {
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	var entries []*domain.QueueEntry
	if r.URL.Query().Get("upcoming") == "true" {
		entries, err = h.service.GetUpcomingBookings(r.Context(), bayID, date)
	} else {
		entries, err = h.service.GetBayQueue(r.Context(), bayID, date)
	}
	if err != nil {
		h.logger.Error("GET /bays/%d/queue - Failed to get queue: %v", bayID, err)
		handlers.RespondInternalError(w)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, &QueueResponse{
		BayID:   bayID,
		Date:    date.Format(domain.DateFormat),
		Length:  len(entries),
		Entries: FromEntries(entries),
	})
}

// HandlePosition GET /api/v1/bookings/{bookingId}/queue-position
func (h *Handler) HandlePosition(w http.ResponseWriter, r *http.Request) {
	bookingID, err := strconv.ParseInt(mux.Vars(r)["bookingId"], 10, 64)
	if err != nil {
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	entry, err := h.service.GetBookingQueuePosition(r.Context(), bookingID)
	if err != nil {
		switch {
		case errors.Is(err, bayqueue.ErrEntryNotFound):
			h.logger.Warn("GET /bookings/%d/queue-position - Entry not found", bookingID)
			handlers.RespondNotFound(w, msgEntryNotFound)
		default:
			h.logger.Error("GET /bookings/%d/queue-position - Failed to get position: %v", bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	handlers.RespondJSON(w, http.StatusOK, FromEntry(entry))
}
