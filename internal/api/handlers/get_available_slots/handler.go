package get_available_slots

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
	msgInvalidBayID    = "некорректный ID поста"
	msgInvalidBranchID = "некорректный ID филиала"
	msgInvalidDate     = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgBayNotFound     = "пост не найден"
	msgBranchNotFound  = "филиал не найден"
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

// AvailableSlotResponse HTTP model свободного слота
type AvailableSlotResponse struct {
	ID        int64  `json:"id"`
	BayID     int64  `json:"bayId"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// BaySlotsResponse HTTP response свободных слотов одного поста
type BaySlotsResponse struct {
	BayID int64                   `json:"bayId"`
	Date  string                  `json:"date"`
	Slots []AvailableSlotResponse `json:"slots"`
}

// BranchSlotsResponse HTTP response свободных слотов филиала
type BranchSlotsResponse struct {
	BranchID int64              `json:"branchId"`
	Date     string             `json:"date"`
	Bays     []BaySlotsResponse `json:"bays"`
}

// HandleBay GET /api/v1/bays/{bayId}/available-slots?date=YYYY-MM-DD
func (h *Handler) HandleBay(w http.ResponseWriter, r *http.Request) {
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

	slots, err := h.service.GetAvailableSlots(r.Context(), bayID, date)
	if err != nil {
		switch {
		case errors.Is(err, slotcalendar.ErrBayNotFound):
			h.logger.Warn("GET /bays/%d/available-slots - Bay not found", bayID)
			handlers.RespondNotFound(w, msgBayNotFound)
		default:
			h.logger.Error("GET /bays/%d/available-slots - Failed to get slots: %v", bayID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	handlers.RespondJSON(w, http.StatusOK, &BaySlotsResponse{
		BayID: bayID,
		Date:  date.Format(domain.DateFormat),
		Slots: fromSlots(slots),
	})
}

// HandleBranch GET /api/v1/branches/{branchId}/available-slots?date=YYYY-MM-DD
func (h *Handler) HandleBranch(w http.ResponseWriter, r *http.Request) {
	branchID, err := strconv.ParseInt(mux.Vars(r)["branchId"], 10, 64)
	if err != nil {
		handlers.RespondBadRequest(w, msgInvalidBranchID)
		return
	}

	date, err := time.Parse(domain.DateFormat, r.URL.Query().Get("date"))
	if err != nil {
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	schedules, err := h.service.GetAvailableSlotsByBranch(r.Context(), branchID, date)
	if err != nil {
		switch {
		case errors.Is(err, slotcalendar.ErrBranchNotFound):
			h.logger.Warn("GET /branches/%d/available-slots - Branch not found", branchID)
			handlers.RespondNotFound(w, msgBranchNotFound)
		default:
			h.logger.Error("GET /branches/%d/available-slots - Failed to get slots: %v", branchID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	bays := make([]BaySlotsResponse, 0, len(schedules))
	for _, schedule := range schedules {
		bays = append(bays, BaySlotsResponse{
			BayID: schedule.BayID,
			Date:  date.Format(domain.DateFormat),
			Slots: fromSlots(schedule.Slots),
		})
	}

	handlers.RespondJSON(w, http.StatusOK, &BranchSlotsResponse{
		BranchID: branchID,
		Date:     date.Format(domain.DateFormat),
		Bays:     bays,
	})
}

func fromSlots(slots []*domain.Slot) []AvailableSlotResponse {
	result := make([]AvailableSlotResponse, 0, len(slots))
	for _, s := range slots {
		result = append(result, AvailableSlotResponse{
			ID:        s.ID,
			BayID:     s.BayID,
			StartTime: s.StartTime.String(),
			EndTime:   s.EndTime.String(),
		})
	}
	return result
}
