package draft

import (
	"context"

	"github.com/m04kA/SMC-BayService/internal/domain"
	"github.com/m04kA/SMC-BayService/internal/service/draftwizard/models"
)

type DraftWizardService interface {
	GetOrCreateDraft(ctx context.Context, sessionID string, customerID *int64) (*domain.Draft, error)
	GetDraft(ctx context.Context, sessionID string) (*domain.Draft, error)
	UpdateDraft(ctx context.Context, sessionID string, req *models.UpdateRequest) (*models.UpdateResult, error)
	ResetDraft(ctx context.Context, sessionID string) (*domain.Draft, error)
	AbandonDraft(ctx context.Context, sessionID string) error
	AddServiceToDraft(ctx context.Context, sessionID string, serviceID int64) (*domain.Draft, error)
	RemoveServiceFromDraft(ctx context.Context, sessionID string, serviceID int64) (*domain.Draft, error)
	ClearDraftServices(ctx context.Context, sessionID string) (*domain.Draft, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
