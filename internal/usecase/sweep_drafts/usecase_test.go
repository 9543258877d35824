package sweep_drafts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-BayService/internal/domain"
)

type fakeDraftRepo struct {
	abandoned  int64
	deleted    int64
	abandonErr error
	deleteErr  error

	gotNow    time.Time
	gotCutoff time.Time
}

func (f *fakeDraftRepo) AbandonExpired(_ context.Context, now time.Time) (int64, error) {
	if f.abandonErr != nil {
		return 0, f.abandonErr
	}
	f.gotNow = now
	return f.abandoned, nil
}

func (f *fakeDraftRepo) DeleteAbandonedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	f.gotCutoff = cutoff
	return f.deleted, nil
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

var sweepNow = time.Date(2025, 10, 15, 3, 0, 0, 0, time.UTC)

func TestExecute_SweepsInOnePass(t *testing.T) {
	repo := &fakeDraftRepo{abandoned: 4, deleted: 2}
	uc := NewUseCase(repo, nopLogger{})
	uc.timeProvider = fixedClock{now: sweepNow}

	result, err := uc.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(4), result.Abandoned)
	assert.Equal(t, int64(2), result.Deleted)
	assert.Equal(t, sweepNow, repo.gotNow)

	// Удаляются только заброшенные черновики старше срока хранения
	assert.Equal(t, sweepNow.Add(-domain.AbandonedDraftRetention), repo.gotCutoff)
}

func TestExecute_AbandonFailureStopsPass(t *testing.T) {
	repo := &fakeDraftRepo{abandonErr: errors.New("boom")}
	uc := NewUseCase(repo, nopLogger{})
	uc.timeProvider = fixedClock{now: sweepNow}

	_, err := uc.Execute(context.Background())
	assert.ErrorIs(t, err, ErrInternal)
	assert.True(t, repo.gotCutoff.IsZero())
}

func TestExecute_DeleteFailure(t *testing.T) {
	repo := &fakeDraftRepo{abandoned: 1, deleteErr: errors.New("boom")}
	uc := NewUseCase(repo, nopLogger{})
	uc.timeProvider = fixedClock{now: sweepNow}

	_, err := uc.Execute(context.Background())
	assert.ErrorIs(t, err, ErrInternal)
}
