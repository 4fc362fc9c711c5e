package domain

import "time"

type EquipmentStatus string

const (
	EquipmentStatusAvailable EquipmentStatus = "available"
	EquipmentStatusRetired   EquipmentStatus = "retired"
)

// EquipmentItem is a quantity-bounded resource members can reserve for events.
type EquipmentItem struct {
	ID        string
	Name      string
	Category  string
	Total     int
	Available int
	Status    EquipmentStatus
	CreatedAt time.Time
}

// Held is the quantity currently debited by pending or approved reservations.
func (e EquipmentItem) Held() int {
	return e.Total - e.Available
}
