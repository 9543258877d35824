package finalize_draft

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-BayService/internal/api/handlers"
	"github.com/m04kA/SMC-BayService/internal/domain"
	finalizeDraft "github.com/m04kA/SMC-BayService/internal/usecase/finalize_draft"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingBookingID   = "не указан ID бронирования"
	msgDraftNotFound      = "активный черновик не найден"
	msgDraftIncomplete    = "в черновике заполнены не все шаги"
	msgSlotNotFound       = "слот не найден"
	msgSlotNotAvailable   = "выбранный слот недоступен"
	msgAlreadyQueued      = "бронирование уже стоит в очереди"
	msgBookingNotFound    = "бронирование не найдено"
)

type Handler struct {
	useCase FinalizeDraftUseCase
	logger  Logger
}

func NewHandler(useCase FinalizeDraftUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// FinalizeRequest HTTP request на финализацию черновика
type FinalizeRequest struct {
	BookingID int64 `json:"bookingId"`
}

// FinalizeResponse HTTP response результата финализации
type FinalizeResponse struct {
	BookingID           int64  `json:"bookingId"`
	BayID               int64  `json:"bayId"`
	Date                string `json:"date"`
	StartTime           string `json:"startTime"`
	QueuePosition       int    `json:"queuePosition"`
	EstimatedStart      string `json:"estimatedStart"`
	EstimatedCompletion string `json:"estimatedCompletion"`
}

// Handle POST /api/v1/drafts/{sessionId}/finalize
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	var req FinalizeRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /drafts/%s/finalize - Invalid request body: %v", sessionID, err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	if req.BookingID <= 0 {
		handlers.RespondBadRequest(w, msgMissingBookingID)
		return
	}

	result, err := h.useCase.Execute(r.Context(), &finalizeDraft.Request{
		SessionID: sessionID,
		BookingID: req.BookingID,
	})
	if err != nil {
		switch {
		case errors.Is(err, finalizeDraft.ErrDraftNotFound):
			h.logger.Warn("POST /drafts/%s/finalize - Draft not found", sessionID)
			handlers.RespondNotFound(w, msgDraftNotFound)
		case errors.Is(err, finalizeDraft.ErrDraftIncomplete):
			h.logger.Warn("POST /drafts/%s/finalize - Draft incomplete", sessionID)
			handlers.RespondBadRequest(w, msgDraftIncomplete)
		case errors.Is(err, finalizeDraft.ErrSlotNotFound):
			h.logger.Warn("POST /drafts/%s/finalize - Slot not found", sessionID)
			handlers.RespondNotFound(w, msgSlotNotFound)
		case errors.Is(err, finalizeDraft.ErrSlotNotAvailable):
			h.logger.Warn("POST /drafts/%s/finalize - Slot not available", sessionID)
			handlers.RespondError(w, http.StatusConflict, msgSlotNotAvailable)
		case errors.Is(err, finalizeDraft.ErrAlreadyQueued):
			h.logger.Warn("POST /drafts/%s/finalize - Booking %d already queued", sessionID, req.BookingID)
			handlers.RespondError(w, http.StatusConflict, msgAlreadyQueued)
		case errors.Is(err, finalizeDraft.ErrBookingNotFound):
			h.logger.Warn("POST /drafts/%s/finalize - Booking %d not found", sessionID, req.BookingID)
			handlers.RespondNotFound(w, msgBookingNotFound)
		default:
			h.logger.Error("POST /drafts/%s/finalize - Failed to finalize draft: %v", sessionID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /drafts/%s/finalize - Booking %d finalized: bay=%d, position=%d",
		sessionID, result.BookingID, result.BayID, result.QueuePosition)
	handlers.RespondJSON(w, http.StatusCreated, &FinalizeResponse{
		BookingID:           result.BookingID,
		BayID:               result.BayID,
		Date:                result.Date.Format(domain.DateFormat),
		StartTime:           result.StartTime.String(),
		QueuePosition:       result.QueuePosition,
		EstimatedStart:      result.EstimatedStart.Format(time.RFC3339),
		EstimatedCompletion: result.EstimatedCompletion.Format(time.RFC3339),
	})
}
