package domain

import "errors"

var (
	ErrEquipmentNotFound     = errors.New("equipment not found")
	ErrReservationNotFound   = errors.New("reservation not found")
	ErrEventNotFound         = errors.New("event not found")
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrConflict              = errors.New("concurrent modification conflict")
	ErrEquipmentRetired      = errors.New("equipment retired")
	ErrCapacityBelowHeld     = errors.New("capacity below held quantity")
	ErrInvalidQuantity       = errors.New("invalid quantity")
	ErrInvalidCapacity       = errors.New("invalid capacity")
	ErrInvalidID             = errors.New("invalid id")
	ErrEquipmentNameRequired = errors.New("equipment name required")
	ErrRequesterRequired     = errors.New("requester required")
	ErrTokenRequired         = errors.New("correlation token required")
	ErrAdminRequired         = errors.New("acting admin required")
)
