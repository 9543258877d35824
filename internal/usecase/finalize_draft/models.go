package finalize_draft

import (
	"time"

	"github.com/m04kA/SMC-BayService/pkg/types"
)

// Request модель запроса на финализацию черновика
type Request struct {
	SessionID string // Идентификатор сессии мастера
	BookingID int64  // ID бронирования в BookingService
}

// Response модель ответа с результатом финализации
type Response struct {
	BookingID           int64            // ID бронирования
	BayID               int64            // ID поста обслуживания
	Date                time.Time        // Дата обслуживания
	StartTime           types.TimeString // Время начала слота
	QueuePosition       int              // Позиция в очереди поста
	EstimatedStart      time.Time        // Расчетное время начала работ
	EstimatedCompletion time.Time        // Расчетное время завершения работ
}
