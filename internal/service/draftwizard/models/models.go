package models

import (
	"time"

	"github.com/m04kA/SMC-BayService/internal/domain"
	"github.com/m04kA/SMC-BayService/pkg/types"
)

// UpdateRequest частичное обновление полей черновика
// nil означает "поле в запросе не передано", не "очистить"
type UpdateRequest struct {
	VehicleID        *int64
	BranchID         *int64
	ScheduledDate    *time.Time
	PrimaryServiceID *int64
	BayID            *int64
	TimeSlot         *types.TimeString
}

// IsEmpty возвращает true, если запрос не несет ни одного поля
func (r *UpdateRequest) IsEmpty() bool {
	return r.VehicleID == nil &&
		r.BranchID == nil &&
		r.ScheduledDate == nil &&
		r.PrimaryServiceID == nil &&
		r.BayID == nil &&
		r.TimeSlot == nil
}

// UpdateResult результат обновления черновика
// ChangedFields - поля, реально сменившие значение; ClearedFields - поля,
// очищенные каскадом; MissingData - что еще не заполнено
type UpdateResult struct {
	Draft         *domain.Draft
	ChangedFields []string
	ClearedFields []string
	MissingData   []string
}
