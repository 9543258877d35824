package draft

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-BayService/internal/api/handlers"
	"github.com/m04kA/SMC-BayService/internal/api/middleware"
	"github.com/m04kA/SMC-BayService/internal/service/draftwizard"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingSessionID   = "не указан идентификатор сессии"
	msgInvalidServiceID   = "некорректный ID услуги"
	msgInvalidSelection   = "некорректное значение даты или времени"
	msgDraftNotFound      = "активный черновик не найден"
	msgBranchNotFound     = "филиал не найден"
	msgBayNotFound        = "пост не найден"
	msgServiceNotFound    = "услуга не найдена"
	msgServiceNotInDraft  = "услуга не входит в черновик"
)

type Handler struct {
	service DraftWizardService
	logger  Logger
}

func NewHandler(service DraftWizardService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// HandleGetOrCreate POST /api/v1/drafts
func (h *Handler) HandleGetOrCreate(w http.ResponseWriter, r *http.Request) {
	var req GetOrCreateRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /drafts - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	if req.SessionID == "" {
		handlers.RespondBadRequest(w, msgMissingSessionID)
		return
	}

	var customerID *int64
	if userID, ok := middleware.UserIDFromContext(r.Context()); ok {
		customerID = &userID
	}

	d, err := h.service.GetOrCreateDraft(r.Context(), req.SessionID, customerID)
	if err != nil {
		h.logger.Error("POST /drafts - Failed to get or create draft: session=%s, error=%v", req.SessionID, err)
		handlers.RespondInternalError(w)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, FromDraft(d))
}

// HandleGet GET /api/v1/drafts/{sessionId}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	d, err := h.service.GetDraft(r.Context(), sessionID)
	if err != nil {
		h.respondDraftError(w, r, sessionID, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, FromDraft(d))
}

// HandleUpdate PATCH /api/v1/drafts/{sessionId}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	var req UpdateDraftRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /drafts/%s - Invalid request body: %v", sessionID, err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	wizardReq, err := req.ToUpdateRequest()
	if err != nil {
		handlers.RespondBadRequest(w, msgInvalidSelection)
		return
	}

	result, err := h.service.UpdateDraft(r.Context(), sessionID, wizardReq)
	if err != nil {
		h.respondDraftError(w, r, sessionID, err)
		return
	}

	h.logger.Info("PATCH /drafts/%s - Draft updated: changed=%v, cleared=%v, step=%d",
		sessionID, result.ChangedFields, result.ClearedFields, result.Draft.CurrentStep)
	handlers.RespondJSON(w, http.StatusOK, &UpdateDraftResponse{
		Draft:         FromDraft(result.Draft),
		ChangedFields: result.ChangedFields,
		ClearedFields: result.ClearedFields,
	})
}

// HandleReset POST /api/v1/drafts/{sessionId}/reset
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	d, err := h.service.ResetDraft(r.Context(), sessionID)
	if err != nil {
		h.respondDraftError(w, r, sessionID, err)
		return
	}

	h.logger.Info("POST /drafts/%s/reset - Draft reset", sessionID)
	handlers.RespondJSON(w, http.StatusOK, FromDraft(d))
}

// HandleAbandon POST /api/v1/drafts/{sessionId}/abandon
func (h *Handler) HandleAbandon(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	if err := h.service.AbandonDraft(r.Context(), sessionID); err != nil {
		h.respondDraftError(w, r, sessionID, err)
		return
	}

	h.logger.Info("POST /drafts/%s/abandon - Draft abandoned", sessionID)
	handlers.RespondJSON(w, http.StatusNoContent, nil)
}

// HandleAddService POST /api/v1/drafts/{sessionId}/services
func (h *Handler) HandleAddService(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	var req AddServiceRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /drafts/%s/services - Invalid request body: %v", sessionID, err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	d, err := h.service.AddServiceToDraft(r.Context(), sessionID, req.ServiceID)
	if err != nil {
		h.respondDraftError(w, r, sessionID, err)
		return
	}

	h.logger.Info("POST /drafts/%s/services - Service %d added", sessionID, req.ServiceID)
	handlers.RespondJSON(w, http.StatusOK, FromDraft(d))
}

// HandleRemoveService DELETE /api/v1/drafts/{sessionId}/services/{serviceId}
func (h *Handler) HandleRemoveService(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionID := vars["sessionId"]
	serviceID, err := strconv.ParseInt(vars["serviceId"], 10, 64)
	if err != nil {
		handlers.RespondBadRequest(w, msgInvalidServiceID)
		return
	}

	d, err := h.service.RemoveServiceFromDraft(r.Context(), sessionID, serviceID)
	if err != nil {
		h.respondDraftError(w, r, sessionID, err)
		return
	}

	h.logger.Info("DELETE /drafts/%s/services/%d - Service removed", sessionID, serviceID)
	handlers.RespondJSON(w, http.StatusOK, FromDraft(d))
}

// HandleClearServices DELETE /api/v1/drafts/{sessionId}/services
func (h *Handler) HandleClearServices(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	d, err := h.service.ClearDraftServices(r.Context(), sessionID)
	if err != nil {
		h.respondDraftError(w, r, sessionID, err)
		return
	}

	h.logger.Info("DELETE /drafts/%s/services - Services cleared", sessionID)
	handlers.RespondJSON(w, http.StatusOK, FromDraft(d))
}

func (h *Handler) respondDraftError(w http.ResponseWriter, r *http.Request, sessionID string, err error) {
	switch {
	case errors.Is(err, draftwizard.ErrDraftNotFound):
		h.logger.Warn("%s %s - Draft not found: session=%s", r.Method, r.URL.Path, sessionID)
		handlers.RespondNotFound(w, msgDraftNotFound)
	case errors.Is(err, draftwizard.ErrBranchNotFound):
		h.logger.Warn("%s %s - Branch not found: session=%s", r.Method, r.URL.Path, sessionID)
		handlers.RespondNotFound(w, msgBranchNotFound)
	case errors.Is(err, draftwizard.ErrBayNotFound):
		h.logger.Warn("%s %s - Bay not found: session=%s", r.Method, r.URL.Path, sessionID)
		handlers.RespondNotFound(w, msgBayNotFound)
	case errors.Is(err, draftwizard.ErrServiceNotFound):
		h.logger.Warn("%s %s - Service not found: session=%s", r.Method, r.URL.Path, sessionID)
		handlers.RespondNotFound(w, msgServiceNotFound)
	case errors.Is(err, draftwizard.ErrServiceNotInDraft):
		h.logger.Warn("%s %s - Service not in draft: session=%s", r.Method, r.URL.Path, sessionID)
		handlers.RespondBadRequest(w, msgServiceNotInDraft)
	default:
		h.logger.Error("%s %s - Draft operation failed: session=%s, error=%v", r.Method, r.URL.Path, sessionID, err)
		handlers.RespondInternalError(w)
	}
}
