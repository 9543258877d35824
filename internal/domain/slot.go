package domain

import (
	"time"

	"github.com/m04kA/SMC-BayService/pkg/types"
)

// SlotStatus represents the lifecycle status of a calendar slot
type SlotStatus string

const (
	SlotAvailable  SlotStatus = "available"
	SlotBooked     SlotStatus = "booked"
	SlotInProgress SlotStatus = "in_progress"
	SlotCompleted  SlotStatus = "completed"
	SlotCancelled  SlotStatus = "cancelled"
)

// Slot represents one fixed-width time cell in a bay's daily calendar.
// Slots for a bay/date are contiguous, non-overlapping and exactly cover
// the bay's working hours. They are created in bulk by calendar generation
// and are never deleted individually, only status-transitioned.
type Slot struct {
	ID                 int64
	BayID              int64
	SlotDate           time.Time
	StartTime          types.TimeString
	EndTime            types.TimeString
	Status             SlotStatus
	BookingID          *int64
	ActualEndTime      *time.Time
	CancellationReason *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsTerminal returns true if the slot is in a terminal state
func (s *Slot) IsTerminal() bool {
	return s.Status == SlotCompleted || s.Status == SlotCancelled
}

// CanBeBooked returns true if the slot can accept a booking
func (s *Slot) CanBeBooked() bool {
	return s.Status == SlotAvailable
}

// CanBeStarted returns true if service can be started on the slot
func (s *Slot) CanBeStarted() bool {
	return s.Status == SlotBooked
}

// CanBeCompleted returns true if service on the slot can be completed
func (s *Slot) CanBeCompleted() bool {
	return s.Status == SlotInProgress
}

// CanBeCancelled returns true if the slot can be cancelled
func (s *Slot) CanBeCancelled() bool {
	return !s.IsTerminal()
}

// CanBeReleased returns true if the slot can be manually released back
// to available (manual correction of a booked or started slot)
func (s *Slot) CanBeReleased() bool {
	return s.Status == SlotBooked || s.Status == SlotInProgress
}

// Overlaps returns true if the slot's window really intersects [start, end).
// Touching boundaries do not count as an overlap.
func (s *Slot) Overlaps(start, end types.TimeString) bool {
	return s.StartTime.IsBefore(end) && s.EndTime.IsAfter(start)
}

// WithinWindow returns true if the slot's whole window lies inside [start, end]
func (s *Slot) WithinWindow(start, end types.TimeString) bool {
	return !s.StartTime.IsBefore(start) && !s.EndTime.IsAfter(end)
}

// BaySchedule is the full set of slots of one bay for one day
type BaySchedule struct {
	BayID int64
	Date  time.Time
	Slots []*Slot
}

// AvailableCount returns the number of available slots in the schedule
func (b *BaySchedule) AvailableCount() int {
	count := 0
	for _, s := range b.Slots {
		if s.Status == SlotAvailable {
			count++
		}
	}
	return count
}
