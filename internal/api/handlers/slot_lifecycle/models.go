package slot_lifecycle

import (
	"time"

	"github.com/m04kA/SMC-BayService/internal/domain"
	"github.com/m04kA/SMC-BayService/pkg/types"
)

// SlotActionRequest HTTP request модель действия над слотом
type SlotActionRequest struct {
	Date      string  `json:"date"`      // "2025-10-15"
	StartTime string  `json:"startTime"` // "10:00"
	BookingID *int64  `json:"bookingId,omitempty"`
	Reason    *string `json:"reason,omitempty"`
}

// Parse извлекает дату и время слота из запроса
func (r *SlotActionRequest) Parse() (time.Time, types.TimeString, error) {
	date, err := time.Parse(domain.DateFormat, r.Date)
	if err != nil {
		return time.Time{}, "", err
	}
	startTime, err := types.NewTimeStringFromString(r.StartTime)
	if err != nil {
		return time.Time{}, "", err
	}
	return date, startTime, nil
}

// SlotResponse HTTP response модель слота
type SlotResponse struct {
	ID                 int64   `json:"id"`
	BayID              int64   `json:"bayId"`
	Date               string  `json:"date"`
	StartTime          string  `json:"startTime"`
	EndTime            string  `json:"endTime"`
	Status             string  `json:"status"`
	BookingID          *int64  `json:"bookingId,omitempty"`
	ActualEndTime      *string `json:"actualEndTime,omitempty"`
	CancellationReason *string `json:"cancellationReason,omitempty"`
}

// CompleteResponse HTTP response завершения обслуживания
type CompleteResponse struct {
	Slot          SlotResponse `json:"slot"`
	ReleasedSlots int          `json:"releasedSlots"`
}

// FromSlot конвертирует доменный слот в HTTP модель
func FromSlot(s *domain.Slot) SlotResponse {
	resp := SlotResponse{
		ID:                 s.ID,
		BayID:              s.BayID,
		Date:               s.SlotDate.Format(domain.DateFormat),
		StartTime:          s.StartTime.String(),
		EndTime:            s.EndTime.String(),
		Status:             string(s.Status),
		BookingID:          s.BookingID,
		CancellationReason: s.CancellationReason,
	}
	if s.ActualEndTime != nil {
		formatted := s.ActualEndTime.Format(time.RFC3339)
		resp.ActualEndTime = &formatted
	}
	return resp
}
