package bay_queue

import (
	"time"

	"github.com/m04kA/SMC-BayService/internal/domain"
)

// AddToQueueRequest HTTP request на постановку в очередь
type AddToQueueRequest struct {
	BookingID int64  `json:"bookingId"`
	Date      string `json:"date,omitempty"` // "2025-10-15"; пустая дата означает сегодня
}

// TransferRequest HTTP request на перенос бронирования между постами
type TransferRequest struct {
	BookingID int64 `json:"bookingId"`
	ToBayID   int64 `json:"toBayId"`
}

// QueueEntryResponse HTTP model записи очереди
type QueueEntryResponse struct {
	ID                  int64  `json:"id"`
	BayID               int64  `json:"bayId"`
	BookingID           int64  `json:"bookingId"`
	Date                string `json:"date"`
	Position            int    `json:"position"`
	EstimatedStart      string `json:"estimatedStart"`
	EstimatedCompletion string `json:"estimatedCompletion"`
}

// QueueResponse HTTP response со списком записей очереди
type QueueResponse struct {
	BayID   int64                `json:"bayId"`
	Date    string               `json:"date"`
	Length  int                  `json:"length"`
	Entries []QueueEntryResponse `json:"entries"`
}

// FromEntry конвертирует доменную запись очереди в HTTP модель
func FromEntry(e *domain.QueueEntry) QueueEntryResponse {
	return QueueEntryResponse{
		ID:                  e.ID,
		BayID:               e.BayID,
		BookingID:           e.BookingID,
		Date:                e.QueueDate.Format(domain.DateFormat),
		Position:            e.Position,
		EstimatedStart:      e.EstimatedStart.Format(time.RFC3339),
		EstimatedCompletion: e.EstimatedCompletion.Format(time.RFC3339),
	}
}

// FromEntries конвертирует список записей очереди в HTTP модели
func FromEntries(entries []*domain.QueueEntry) []QueueEntryResponse {
	result := make([]QueueEntryResponse, 0, len(entries))
	for _, e := range entries {
		result = append(result, FromEntry(e))
	}
	return result
}
