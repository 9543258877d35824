package finalize_draft

import (
	"context"

	finalizeDraft "github.com/m04kA/SMC-BayService/internal/usecase/finalize_draft"
)

type FinalizeDraftUseCase interface {
	Execute(ctx context.Context, req *finalizeDraft.Request) (*finalizeDraft.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
