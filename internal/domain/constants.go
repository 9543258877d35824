package domain

import "time"

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// Calendar defaults
const (
	// SlotDurationMinutes fixed width of a calendar slot cell
	SlotDurationMinutes = 60
)

// Queue estimation defaults. When a booking carries no explicit duration
// estimate, the fallback chain is: estimated duration -> item count based
// estimate -> hard default.
const (
	DefaultServiceDurationMinutes = 60
	MinutesPerQueueItem           = 60
	UpcomingQueueSize             = 3
)

// Draft lifecycle windows
const (
	// DraftTTL inactivity/expiry window for an in-progress draft
	DraftTTL = 24 * time.Hour

	// AbandonedDraftRetention how long abandoned drafts are kept before
	// the sweep hard-deletes them
	AbandonedDraftRetention = 30 * 24 * time.Hour
)
