package domain

import "time"

// QueueEntry represents a booking waiting in a bay's same-day queue.
// Active entries of one bay/date hold positions exactly {1..N} with no
// gaps or duplicates. Removed entries are deactivated, never deleted;
// positions and estimates are recomputed on every membership change.
type QueueEntry struct {
	ID                  int64
	BayID               int64
	BookingID           int64
	QueueDate           time.Time
	Position            int
	EstimatedStart      time.Time
	EstimatedCompletion time.Time
	Active              bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DurationMinutes returns the planned duration of the entry derived from
// its stored estimates
func (e *QueueEntry) DurationMinutes() int {
	return int(e.EstimatedCompletion.Sub(e.EstimatedStart).Minutes())
}
