package domain

import "time"

type ReservationStatus string

const (
	ReservationStatusPending  ReservationStatus = "pending"
	ReservationStatusApproved ReservationStatus = "approved"
	ReservationStatusDenied   ReservationStatus = "denied"
)

// Reservation records a quantity of one equipment item held against one event.
// At most one row exists per (event, equipment) pair: repeat requests merge
// additively and overwrite requester, token and status (last-writer-wins).
type Reservation struct {
	EventID          string
	EquipmentID      string
	Quantity         int
	RequestedBy      string
	RequestedAt      time.Time
	Status           ReservationStatus
	DecidedBy        string
	CorrelationToken string
}

// HoldsInventory reports whether the reservation still counts against
// available quantity. Denied rows were already credited back.
func (r Reservation) HoldsInventory() bool {
	return r.Status == ReservationStatusPending || r.Status == ReservationStatusApproved
}
