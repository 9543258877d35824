package slot_lifecycle

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-BayService/internal/api/handlers"
	"github.com/m04kA/SMC-BayService/internal/service/slotcalendar"
	completeService "github.com/m04kA/SMC-BayService/internal/usecase/complete_service"
	"github.com/m04kA/SMC-BayService/pkg/types"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidBayID       = "некорректный ID поста"
	msgInvalidDateTime    = "некорректная дата или время слота"
	msgMissingBookingID   = "не указан ID бронирования"
	msgSlotNotFound       = "слот не найден"
	msgSlotNotAvailable   = "слот недоступен для бронирования"
	msgInvalidTransition  = "недопустимый переход статуса слота"
)

type Handler struct {
	service         SlotCalendarService
	completeUseCase CompleteServiceUseCase
	logger          Logger
}

func NewHandler(service SlotCalendarService, completeUseCase CompleteServiceUseCase, logger Logger) *Handler {
	return &Handler{
		service:         service,
		completeUseCase: completeUseCase,
		logger:          logger,
	}
}

// HandleBook POST /api/v1/bays/{bayId}/slots/book
func (h *Handler) HandleBook(w http.ResponseWriter, r *http.Request) {
	bayID, req, date, startTime, ok := h.parseAction(w, r)
	if !ok {
		return
	}

	if req.BookingID == nil {
		handlers.RespondBadRequest(w, msgMissingBookingID)
		return
	}

	slot, err := h.service.BookSlot(r.Context(), bayID, date, startTime, *req.BookingID)
	if err != nil {
		h.respondSlotError(w, r, "book", bayID, err)
		return
	}

	h.logger.Info("POST /bays/%d/slots/book - Slot %s booked for booking=%d", bayID, startTime, *req.BookingID)
	handlers.RespondJSON(w, http.StatusOK, FromSlot(slot))
}

// HandleStart POST /api/v1/bays/{bayId}/slots/start
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	bayID, _, date, startTime, ok := h.parseAction(w, r)
	if !ok {
		return
	}

	slot, err := h.service.StartService(r.Context(), bayID, date, startTime)
	if err != nil {
		h.respondSlotError(w, r, "start", bayID, err)
		return
	}

	h.logger.Info("POST /bays/%d/slots/start - Service started at %s", bayID, startTime)
	handlers.RespondJSON(w, http.StatusOK, FromSlot(slot))
}

// HandleComplete POST /api/v1/bays/{bayId}/slots/complete
func (h *Handler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	bayID, _, date, startTime, ok := h.parseAction(w, r)
	if !ok {
		return
	}

	result, err := h.completeUseCase.Execute(r.Context(), bayID, date, startTime)
	if err != nil {
		switch {
		case errors.Is(err, completeService.ErrSlotNotFound):
			h.logger.Warn("POST /bays/%d/slots/complete - Slot not found", bayID)
			handlers.RespondNotFound(w, msgSlotNotFound)
		case errors.Is(err, completeService.ErrInvalidTransition):
			h.logger.Warn("POST /bays/%d/slots/complete - Invalid transition", bayID)
			handlers.RespondError(w, http.StatusConflict, msgInvalidTransition)
		default:
			h.logger.Error("POST /bays/%d/slots/complete - Failed to complete service: %v", bayID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bays/%d/slots/complete - Service completed at %s, released=%d",
		bayID, startTime, result.ReleasedSlots)
	handlers.RespondJSON(w, http.StatusOK, &CompleteResponse{
		Slot:          FromSlot(result.Slot),
		ReleasedSlots: result.ReleasedSlots,
	})
}

// HandleCancel POST /api/v1/bays/{bayId}/slots/cancel
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	bayID, req, date, startTime, ok := h.parseAction(w, r)
	if !ok {
		return
	}

	reason := ""
	if req.Reason != nil {
		reason = *req.Reason
	}

	slot, err := h.service.CancelSlot(r.Context(), bayID, date, startTime, reason)
	if err != nil {
		h.respondSlotError(w, r, "cancel", bayID, err)
		return
	}

	h.logger.Info("POST /bays/%d/slots/cancel - Slot %s cancelled", bayID, startTime)
	handlers.RespondJSON(w, http.StatusOK, FromSlot(slot))
}

// HandleRelease POST /api/v1/bays/{bayId}/slots/release
func (h *Handler) HandleRelease(w http.ResponseWriter, r *http.Request) {
	bayID, _, date, startTime, ok := h.parseAction(w, r)
	if !ok {
		return
	}

	slot, err := h.service.ReleaseSlot(r.Context(), bayID, date, startTime)
	if err != nil {
		h.respondSlotError(w, r, "release", bayID, err)
		return
	}

	h.logger.Info("POST /bays/%d/slots/release - Slot %s released", bayID, startTime)
	handlers.RespondJSON(w, http.StatusOK, FromSlot(slot))
}

// parseAction разбирает общую часть запросов действий над слотом
func (h *Handler) parseAction(w http.ResponseWriter, r *http.Request) (int64, *SlotActionRequest, time.Time, types.TimeString, bool) {
	bayID, err := strconv.ParseInt(mux.Vars(r)["bayId"], 10, 64)
	if err != nil {
		handlers.RespondBadRequest(w, msgInvalidBayID)
		return 0, nil, time.Time{}, "", false
	}

	var req SlotActionRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("%s %s - Invalid request body: %v", r.Method, r.URL.Path, err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return 0, nil, time.Time{}, "", false
	}

	date, startTime, err := req.Parse()
	if err != nil {
		handlers.RespondBadRequest(w, msgInvalidDateTime)
		return 0, nil, time.Time{}, "", false
	}

	return bayID, &req, date, startTime, true
}

func (h *Handler) respondSlotError(w http.ResponseWriter, r *http.Request, action string, bayID int64, err error) {
	switch {
	case errors.Is(err, slotcalendar.ErrSlotNotFound):
		h.logger.Warn("%s %s - Slot not found: bay=%d", r.Method, r.URL.Path, bayID)
		handlers.RespondNotFound(w, msgSlotNotFound)
	case errors.Is(err, slotcalendar.ErrSlotNotAvailable):
		h.logger.Warn("%s %s - Slot not available: bay=%d", r.Method, r.URL.Path, bayID)
		handlers.RespondError(w, http.StatusConflict, msgSlotNotAvailable)
	case errors.Is(err, slotcalendar.ErrInvalidTransition):
		h.logger.Warn("%s %s - Invalid transition: bay=%d", r.Method, r.URL.Path, bayID)
		handlers.RespondError(w, http.StatusConflict, msgInvalidTransition)
	default:
		h.logger.Error("%s %s - Failed to %s slot: bay=%d, error=%v", r.Method, r.URL.Path, action, bayID, err)
		handlers.RespondInternalError(w)
	}
}
