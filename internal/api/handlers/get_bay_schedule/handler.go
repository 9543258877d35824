package get_bay_schedule

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
	msgInvalidBayID = "некорректный ID поста"
	msgInvalidDate  = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgBayNotFound  = "пост не найден"
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

// ScheduleResponse HTTP response с расписанием поста на дату
type ScheduleResponse struct {
	BayID          int64          `json:"bayId"`
	Date           string         `json:"date"`
	AvailableCount int            `json:"availableCount"`
	Slots          []SlotResponse `json:"slots"`
}

// SlotResponse HTTP model одного слота
type SlotResponse struct {
	ID        int64  `json:"id"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Status    string `json:"status"`
	BookingID *int64 `json:"bookingId,omitempty"`
}

// Handle GET /api/v1/bays/{bayId}/schedule?date=YYYY-MM-DD
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
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

	schedule, err := h.service.GetBaySchedule(r.Context(), bayID, date)
	if err != nil {
		switch {
		case errors.Is(err, slotcalendar.ErrBayNotFound):
			h.logger.Warn("GET /bays/%d/schedule - Bay not found", bayID)
			handlers.RespondNotFound(w, msgBayNotFound)
		default:
			h.logger.Error("GET /bays/%d/schedule - Failed to get schedule: %v", bayID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	slots := make([]SlotResponse, 0, len(schedule.Slots))
	for _, s := range schedule.Slots {
		slots = append(slots, SlotResponse{
			ID:        s.ID,
			StartTime: s.StartTime.String(),
			EndTime:   s.EndTime.String(),
			Status:    string(s.Status),
			BookingID: s.BookingID,
		})
	}

	handlers.RespondJSON(w, http.StatusOK, &ScheduleResponse{
		BayID:          schedule.BayID,
		Date:           schedule.Date.Format(domain.DateFormat),
		AvailableCount: schedule.AvailableCount(),
		Slots:          slots,
	})
}
