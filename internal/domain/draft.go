package domain

import (
	"time"

	"github.com/m04kA/SMC-BayService/pkg/types"
)

// DraftStatus represents the status of a booking draft
type DraftStatus string

const (
	DraftInProgress DraftStatus = "in_progress"
	DraftCompleted  DraftStatus = "completed"
	DraftAbandoned  DraftStatus = "abandoned"
)

// Wizard steps in dependency order. Vehicle is independent of the
// branch > date > service > bay > time chain but is collected first.
const (
	StepVehicle = 1
	StepBranch  = 2
	StepDate    = 3
	StepService = 4
	StepBay     = 5
	StepTime    = 6
	StepConfirm = 7
)

// Draft represents an in-progress multi-step booking selection tied to a
// session. A field at step k is non-nil only if all fields at earlier
// steps are non-nil; the cascade-reset rules keep that invariant.
// At most one in_progress draft exists per customer at a time.
type Draft struct {
	ID               int64
	SessionID        string
	CustomerID       *int64
	CurrentStep      int
	Status           DraftStatus
	VehicleID        *int64
	ScheduledDate    *time.Time
	BranchID         *int64
	PrimaryServiceID *int64
	BayID            *int64
	TimeSlot         *types.TimeString
	ServiceIDs       []int64

	ExpiresAt      time.Time
	LastActivityAt time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsActive returns true if the draft is still in progress
func (d *Draft) IsActive() bool {
	return d.Status == DraftInProgress
}

// IsTerminal returns true if the draft reached a terminal status
func (d *Draft) IsTerminal() bool {
	return d.Status == DraftCompleted || d.Status == DraftAbandoned
}

// IsExpired returns true if the draft's TTL has run out at the given moment
func (d *Draft) IsExpired(now time.Time) bool {
	return d.ExpiresAt.Before(now) || d.LastActivityAt.Before(now.Add(-DraftTTL))
}

// IsComplete returns true if every selection needed to create a booking
// is present
func (d *Draft) IsComplete() bool {
	return d.VehicleID != nil &&
		d.BranchID != nil &&
		d.ScheduledDate != nil &&
		d.PrimaryServiceID != nil &&
		d.BayID != nil &&
		d.TimeSlot != nil
}

// StepName returns a human-readable name for a wizard step
func StepName(step int) string {
	switch step {
	case StepVehicle:
		return "select_vehicle"
	case StepBranch:
		return "select_branch"
	case StepDate:
		return "select_date"
	case StepService:
		return "select_service"
	case StepBay:
		return "select_bay"
	case StepTime:
		return "select_time"
	case StepConfirm:
		return "confirm"
	default:
		return "unknown"
	}
}
