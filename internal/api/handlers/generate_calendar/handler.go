package generate_calendar

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-BayService/internal/api/handlers"
	"github.com/m04kA/SMC-BayService/internal/domain"
	"github.com/m04kA/SMC-BayService/internal/service/slotcalendar"
)

const (
	msgInvalidRequestBody  = "некорректное тело запроса"
	msgInvalidBayID        = "некорректный ID поста"
	msgInvalidBranchID     = "некорректный ID филиала"
	msgInvalidDate         = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgBayNotFound         = "пост не найден"
	msgBranchNotFound      = "филиал не найден"
	msgInvalidWorkingHours = "некорректные рабочие часы поста"
)

type Handler struct {
	service SlotCalendarService
	logger  Logger
}

func NewHandler(service SlotCalendarService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// HandleBay POST /api/v1/calendar/bays/{bayId}/generate
func (h *Handler) HandleBay(w http.ResponseWriter, r *http.Request) {
	bayID, err := strconv.ParseInt(mux.Vars(r)["bayId"], 10, 64)
	if err != nil {
		handlers.RespondBadRequest(w, msgInvalidBayID)
		return
	}

	var req GenerateRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /calendar/bays/%d/generate - Invalid request body: %v", bayID, err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	date, err := time.Parse(domain.DateFormat, req.Date)
	if err != nil {
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	slots, err := h.service.GenerateDaily(r.Context(), bayID, date)
	if err != nil {
		switch {
		case errors.Is(err, slotcalendar.ErrBayNotFound):
			h.logger.Warn("POST /calendar/bays/%d/generate - Bay not found", bayID)
			handlers.RespondNotFound(w, msgBayNotFound)
		case errors.Is(err, slotcalendar.ErrInvalidWorkingHours):
			h.logger.Warn("POST /calendar/bays/%d/generate - Invalid working hours", bayID)
			handlers.RespondBadRequest(w, msgInvalidWorkingHours)
		default:
			h.logger.Error("POST /calendar/bays/%d/generate - Failed to generate slots: %v", bayID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /calendar/bays/%d/generate - Generated %d slots for %s", bayID, len(slots), req.Date)
	handlers.RespondJSON(w, http.StatusCreated, &GenerateBayResponse{
		BayID: bayID,
		Date:  req.Date,
		Slots: FromSlots(slots),
	})
}

// HandleBranch POST /api/v1/calendar/branches/{branchId}/generate
func (h *Handler) HandleBranch(w http.ResponseWriter, r *http.Request) {
	branchID, err := strconv.ParseInt(mux.Vars(r)["branchId"], 10, 64)
	if err != nil {
		handlers.RespondBadRequest(w, msgInvalidBranchID)
		return
	}

	var req GenerateRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /calendar/branches/%d/generate - Invalid request body: %v", branchID, err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	date, err := time.Parse(domain.DateFormat, req.Date)
	if err != nil {
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	schedules, err := h.service.GenerateBranchDaily(r.Context(), branchID, date)
	if err != nil {
		switch {
		case errors.Is(err, slotcalendar.ErrBranchNotFound):
			h.logger.Warn("POST /calendar/branches/%d/generate - Branch not found", branchID)
			handlers.RespondNotFound(w, msgBranchNotFound)
		case errors.Is(err, slotcalendar.ErrInvalidWorkingHours):
			h.logger.Warn("POST /calendar/branches/%d/generate - Invalid working hours", branchID)
			handlers.RespondBadRequest(w, msgInvalidWorkingHours)
		default:
			h.logger.Error("POST /calendar/branches/%d/generate - Failed to generate slots: %v", branchID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	bays := make([]BayScheduleResponse, 0, len(schedules))
	for _, schedule := range schedules {
		bays = append(bays, BayScheduleResponse{
			BayID: schedule.BayID,
			Slots: FromSlots(schedule.Slots),
		})
	}

	h.logger.Info("POST /calendar/branches/%d/generate - Generated calendar for %d bay(s) on %s",
		branchID, len(bays), req.Date)
	handlers.RespondJSON(w, http.StatusCreated, &GenerateBranchResponse{
		BranchID: branchID,
		Date:     req.Date,
		Bays:     bays,
	})
}
