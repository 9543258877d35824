package sweep_drafts

import (
	"context"
	"time"
)

// DraftRepository интерфейс репозитория черновиков
type DraftRepository interface {
	AbandonExpired(ctx context.Context, now time.Time) (int64, error)
	DeleteAbandonedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
