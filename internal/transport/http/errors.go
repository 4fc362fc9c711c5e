package http

import (
	"encoding/json"
	"net/http"

	"github.com/alavela/clubhub/services/ledger/internal/domain"
)

const (
	codeMethodNotAllowed      = "method_not_allowed"
	codeNotFound              = "not_found"
	codeInvalidRequestBody    = "invalid_request_body"
	codeInvalidID             = "invalid_id"
	codeInvalidQuantity       = "invalid_quantity"
	codeInvalidCapacity       = "invalid_capacity"
	codeEquipmentNameRequired = "equipment_name_required"
	codeRequesterRequired     = "requester_required"
	codeTokenRequired         = "correlation_token_required"
	codeAdminRequired         = "acting_admin_required"
	codeEquipmentNotFound     = "equipment_not_found"
	codeReservationNotFound   = "reservation_not_found"
	codeEventNotFound         = "event_not_found"
	codeEquipmentRetired      = "equipment_retired"
	codeInsufficientInventory = "insufficient_inventory"
	codeInvalidTransition     = "invalid_transition"
	codeConflict              = "conflict"
	codeCapacityBelowHeld     = "capacity_below_held"
	codeForbidden             = "forbidden"
	codeInternalError         = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeServiceError maps ledger errors onto HTTP statuses and stable codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch err {
	case domain.ErrInvalidQuantity:
		writeError(w, http.StatusBadRequest, codeInvalidQuantity, err.Error())
	case domain.ErrInvalidCapacity:
		writeError(w, http.StatusBadRequest, codeInvalidCapacity, err.Error())
	case domain.ErrInvalidID:
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	case domain.ErrEquipmentNameRequired:
		writeError(w, http.StatusBadRequest, codeEquipmentNameRequired, err.Error())
	case domain.ErrRequesterRequired:
		writeError(w, http.StatusBadRequest, codeRequesterRequired, err.Error())
	case domain.ErrTokenRequired:
		writeError(w, http.StatusBadRequest, codeTokenRequired, err.Error())
	case domain.ErrAdminRequired:
		writeError(w, http.StatusBadRequest, codeAdminRequired, err.Error())
	case domain.ErrEquipmentNotFound:
		writeError(w, http.StatusNotFound, codeEquipmentNotFound, err.Error())
	case domain.ErrReservationNotFound:
		writeError(w, http.StatusNotFound, codeReservationNotFound, err.Error())
	case domain.ErrEventNotFound:
		writeError(w, http.StatusNotFound, codeEventNotFound, err.Error())
	case domain.ErrEquipmentRetired:
		writeError(w, http.StatusConflict, codeEquipmentRetired, err.Error())
	case domain.ErrInsufficientInventory:
		writeError(w, http.StatusConflict, codeInsufficientInventory, err.Error())
	case domain.ErrInvalidTransition:
		writeError(w, http.StatusConflict, codeInvalidTransition, err.Error())
	case domain.ErrConflict:
		writeError(w, http.StatusConflict, codeConflict, err.Error())
	case domain.ErrCapacityBelowHeld:
		writeError(w, http.StatusConflict, codeCapacityBelowHeld, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
