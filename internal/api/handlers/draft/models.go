package draft

import (
	"time"

	"github.com/m04kA/SMC-BayService/internal/domain"
	"github.com/m04kA/SMC-BayService/internal/service/draftwizard"
	wizardModels "github.com/m04kA/SMC-BayService/internal/service/draftwizard/models"
	"github.com/m04kA/SMC-BayService/pkg/types"
)

// GetOrCreateRequest HTTP request на создание или получение черновика
type GetOrCreateRequest struct {
	SessionID string `json:"sessionId"`
}

// UpdateDraftRequest HTTP request на частичное обновление черновика
type UpdateDraftRequest struct {
	VehicleID *int64  `json:"vehicleId,omitempty"`
	BranchID  *int64  `json:"branchId,omitempty"`
	Date      *string `json:"date,omitempty"` // "2025-10-15"
	ServiceID *int64  `json:"serviceId,omitempty"`
	BayID     *int64  `json:"bayId,omitempty"`
	TimeSlot  *string `json:"timeSlot,omitempty"` // "10:00"
}

// AddServiceRequest HTTP request на добавление услуги в черновик
type AddServiceRequest struct {
	ServiceID int64 `json:"serviceId"`
}

// DraftResponse HTTP model черновика
type DraftResponse struct {
	SessionID       string   `json:"sessionId"`
	Status          string   `json:"status"`
	CurrentStep     int      `json:"currentStep"`
	CurrentStepName string   `json:"currentStepName"`
	VehicleID       *int64   `json:"vehicleId,omitempty"`
	BranchID        *int64   `json:"branchId,omitempty"`
	Date            *string  `json:"date,omitempty"`
	ServiceID       *int64   `json:"serviceId,omitempty"`
	ServiceIDs      []int64  `json:"serviceIds,omitempty"`
	BayID           *int64   `json:"bayId,omitempty"`
	TimeSlot        *string  `json:"timeSlot,omitempty"`
	MissingData     []string `json:"missingData"`
	ExpiresAt       string   `json:"expiresAt"`
}

// UpdateDraftResponse HTTP response обновления черновика
type UpdateDraftResponse struct {
	Draft         DraftResponse `json:"draft"`
	ChangedFields []string      `json:"changedFields"`
	ClearedFields []string      `json:"clearedFields"`
}

// ToUpdateRequest конвертирует HTTP запрос в модель сервиса
func (r *UpdateDraftRequest) ToUpdateRequest() (*wizardModels.UpdateRequest, error) {
	req := &wizardModels.UpdateRequest{
		VehicleID:        r.VehicleID,
		BranchID:         r.BranchID,
		PrimaryServiceID: r.ServiceID,
		BayID:            r.BayID,
	}

	if r.Date != nil {
		date, err := time.Parse(domain.DateFormat, *r.Date)
		if err != nil {
			return nil, err
		}
		req.ScheduledDate = &date
	}
	if r.TimeSlot != nil {
		timeSlot, err := types.NewTimeStringFromString(*r.TimeSlot)
		if err != nil {
			return nil, err
		}
		req.TimeSlot = &timeSlot
	}

	return req, nil
}

// FromDraft конвертирует доменный черновик в HTTP модель
func FromDraft(d *domain.Draft) DraftResponse {
	resp := DraftResponse{
		SessionID:       d.SessionID,
		Status:          string(d.Status),
		CurrentStep:     d.CurrentStep,
		CurrentStepName: domain.StepName(d.CurrentStep),
		VehicleID:       d.VehicleID,
		BranchID:        d.BranchID,
		ServiceID:       d.PrimaryServiceID,
		ServiceIDs:      d.ServiceIDs,
		BayID:           d.BayID,
		MissingData:     draftwizard.MissingFields(d),
		ExpiresAt:       d.ExpiresAt.Format(time.RFC3339),
	}
	if d.ScheduledDate != nil {
		formatted := d.ScheduledDate.Format(domain.DateFormat)
		resp.Date = &formatted
	}
	if d.TimeSlot != nil {
		formatted := d.TimeSlot.String()
		resp.TimeSlot = &formatted
	}
	return resp
}
