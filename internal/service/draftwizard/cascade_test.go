package draftwizard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/m04kA/SMC-BayService/internal/domain"
	"github.com/m04kA/SMC-BayService/pkg/ptr"
	"github.com/m04kA/SMC-BayService/pkg/types"
)

func fullDraft() *domain.Draft {
	date := time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC)
	slot := types.NewTimeStringFromHour(10)
	return &domain.Draft{
		VehicleID:        ptr.Ptr(int64(1)),
		BranchID:         ptr.Ptr(int64(2)),
		ScheduledDate:    &date,
		PrimaryServiceID: ptr.Ptr(int64(3)),
		BayID:            ptr.Ptr(int64(4)),
		TimeSlot:         &slot,
		ServiceIDs:       []int64{3, 5},
	}
}

func TestApplyCascade(t *testing.T) {
	tests := []struct {
		name        string
		changed     map[string]bool
		wantCleared []string
	}{
		{
			name:        "branch change clears everything below",
			changed:     map[string]bool{FieldBranch: true},
			wantCleared: []string{FieldService, FieldBay, FieldTime, FieldDate},
		},
		{
			name:        "date change clears service bay time",
			changed:     map[string]bool{FieldDate: true},
			wantCleared: []string{FieldService, FieldBay, FieldTime},
		},
		{
			name:        "service change clears bay and time",
			changed:     map[string]bool{FieldService: true},
			wantCleared: []string{FieldBay, FieldTime},
		},
		{
			name:        "bay change clears time only",
			changed:     map[string]bool{FieldBay: true},
			wantCleared: []string{FieldTime},
		},
		{
			name:        "vehicle change cascades nothing",
			changed:     map[string]bool{FieldVehicle: true},
			wantCleared: nil,
		},
		{
			name:        "time change cascades nothing",
			changed:     map[string]bool{FieldTime: true},
			wantCleared: nil,
		},
		{
			// Применяется ровно одно правило - самое верхнее из совпавших,
			// но бокс из того же запроса не затирается
			name:        "branch wins over simultaneous bay change",
			changed:     map[string]bool{FieldBranch: true, FieldBay: true},
			wantCleared: []string{FieldService, FieldTime, FieldDate},
		},
		{
			// Все поля пришли одним запросом: очищать нечего
			name: "combined payload keeps fresh fields",
			changed: map[string]bool{
				FieldVehicle: true,
				FieldBranch:  true,
				FieldDate:    true,
				FieldService: true,
				FieldBay:     true,
				FieldTime:    true,
			},
			wantCleared: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := fullDraft()
			cleared := applyCascade(d, tt.changed)
			assert.Equal(t, tt.wantCleared, cleared)
		})
	}
}

func TestApplyCascade_ClearedOnlyWhenSet(t *testing.T) {
	d := fullDraft()
	d.BayID = nil
	d.TimeSlot = nil

	cleared := applyCascade(d, map[string]bool{FieldService: true})
	assert.Empty(t, cleared)
}

func TestClearField_ServiceDropsWholeList(t *testing.T) {
	d := fullDraft()

	had := clearField(d, FieldService)
	assert.True(t, had)
	assert.Nil(t, d.PrimaryServiceID)
	assert.Nil(t, d.ServiceIDs)

	// Повторная очистка пустого поля
	assert.False(t, clearField(d, FieldService))
}

func TestComputeStep(t *testing.T) {
	d := &domain.Draft{}
	assert.Equal(t, domain.StepVehicle, computeStep(d))

	d.VehicleID = ptr.Ptr(int64(1))
	assert.Equal(t, domain.StepBranch, computeStep(d))

	d.BranchID = ptr.Ptr(int64(2))
	assert.Equal(t, domain.StepDate, computeStep(d))

	date := time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC)
	d.ScheduledDate = &date
	assert.Equal(t, domain.StepService, computeStep(d))

	d.PrimaryServiceID = ptr.Ptr(int64(3))
	assert.Equal(t, domain.StepBay, computeStep(d))

	d.BayID = ptr.Ptr(int64(4))
	assert.Equal(t, domain.StepTime, computeStep(d))

	slot := types.NewTimeStringFromHour(10)
	d.TimeSlot = &slot
	assert.Equal(t, domain.StepConfirm, computeStep(d))
}

func TestComputeStep_GapStopsAtFirstMissing(t *testing.T) {
	d := fullDraft()
	d.ScheduledDate = nil

	// Заполненные нижестоящие поля не двигают шаг дальше пропуска
	assert.Equal(t, domain.StepDate, computeStep(d))
}

func TestMissingData(t *testing.T) {
	d := &domain.Draft{}
	assert.Equal(t,
		[]string{FieldVehicle, FieldBranch, FieldDate, FieldService, FieldBay, FieldTime},
		missingData(d))

	full := fullDraft()
	assert.Empty(t, missingData(full))

	full.BayID = nil
	full.TimeSlot = nil
	assert.Equal(t, []string{FieldBay, FieldTime}, missingData(full))
}
