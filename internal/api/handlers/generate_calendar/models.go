package generate_calendar

import (
	"github.com/m04kA/SMC-BayService/internal/domain"
)

// GenerateRequest HTTP request model
type GenerateRequest struct {
	Date string `json:"date"` // "2025-10-15"
}

// SlotResponse HTTP model одного слота
type SlotResponse struct {
	ID        int64  `json:"id"`
	BayID     int64  `json:"bayId"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Status    string `json:"status"`
}

// GenerateBayResponse HTTP response для генерации по посту
type GenerateBayResponse struct {
	BayID int64          `json:"bayId"`
	Date  string         `json:"date"`
	Slots []SlotResponse `json:"slots"`
}

// BayScheduleResponse HTTP model расписания одного поста
type BayScheduleResponse struct {
	BayID int64          `json:"bayId"`
	Slots []SlotResponse `json:"slots"`
}

// GenerateBranchResponse HTTP response для генерации по филиалу
type GenerateBranchResponse struct {
	BranchID int64                 `json:"branchId"`
	Date     string                `json:"date"`
	Bays     []BayScheduleResponse `json:"bays"`
}

// FromSlot конвертирует доменный слот в HTTP модель
func FromSlot(s *domain.Slot) SlotResponse {
	return SlotResponse{
		ID:        s.ID,
		BayID:     s.BayID,
		Date:      s.SlotDate.Format(domain.DateFormat),
		StartTime: s.StartTime.String(),
		EndTime:   s.EndTime.String(),
		Status:    string(s.Status),
	}
}

// FromSlots конвертирует список слотов в HTTP модели
func FromSlots(slots []*domain.Slot) []SlotResponse {
	result := make([]SlotResponse, 0, len(slots))
	for _, s := range slots {
		result = append(result, FromSlot(s))
	}
	return result
}
