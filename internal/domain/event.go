package domain

import "time"

// EventRef is the slice of the calendar subsystem's event the ledger needs.
// Events are owned elsewhere; the ledger only reads them.
type EventRef struct {
	ID          string
	Name        string
	ScheduledAt time.Time
}

// Ended reports whether the event's scheduled time has passed.
func (e EventRef) Ended(now time.Time) bool {
	return !e.ScheduledAt.After(now)
}
