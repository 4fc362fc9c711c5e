package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/alavela/clubhub/services/ledger/internal/app"
	"github.com/alavela/clubhub/services/ledger/internal/domain"
)

// ReservationWorkflow is the slice of the workflow service the reservation
// endpoints need.
type ReservationWorkflow interface {
	Request(ctx context.Context, in app.RequestInput) (domain.Reservation, error)
	Approve(ctx context.Context, eventID, equipmentID, actingAdmin string) (domain.Reservation, error)
	Deny(ctx context.Context, eventID, equipmentID, actingAdmin string) (domain.Reservation, error)
	Withdraw(ctx context.Context, eventID, equipmentID string) error
	ApproveByToken(ctx context.Context, token, actingAdmin string) (domain.Reservation, error)
	DenyByToken(ctx context.Context, token, actingAdmin string) (domain.Reservation, error)
	GetReservation(ctx context.Context, eventID, equipmentID string) (domain.Reservation, error)
	ListReservationsForEvent(ctx context.Context, eventID string) ([]domain.Reservation, error)
}

// HandleReservations serves POST /reservations and GET /reservations?event_id=.
func HandleReservations(svc ReservationWorkflow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var req createReservationRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}
			if req.EventID == "" || req.EquipmentID == "" {
				writeError(w, http.StatusBadRequest, codeInvalidID, "event_id and equipment_id are required")
				return
			}

			rsv, err := svc.Request(r.Context(), app.RequestInput{
				EventID:          req.EventID,
				EquipmentID:      req.EquipmentID,
				Quantity:         req.Quantity,
				RequestedBy:      req.RequestedBy,
				CorrelationToken: req.CorrelationToken,
			})
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, toReservationResponse(rsv))
			return
		case http.MethodGet:
			eventID := r.URL.Query().Get("event_id")
			if eventID == "" {
				writeError(w, http.StatusBadRequest, codeInvalidID, "event_id query parameter is required")
				return
			}
			reservations, err := svc.ListReservationsForEvent(r.Context(), eventID)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			resp := make([]reservationResponse, 0, len(reservations))
			for _, rsv := range reservations {
				resp = append(resp, toReservationResponse(rsv))
			}
			writeJSON(w, http.StatusOK, resp)
			return
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}
	}
}

// HandleReservationItem serves the keyed and token-addressed subtree:
//
//	GET    /reservations/{event}/{equipment}
//	DELETE /reservations/{event}/{equipment}
//	POST   /reservations/{event}/{equipment}/approve|deny
//	POST   /reservations/token/{token}/approve|deny
func HandleReservationItem(svc ReservationWorkflow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) < 3 || parts[0] != "reservations" {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}
		parts = parts[1:]

		if parts[0] == "token" {
			handleReservationByToken(w, r, svc, parts[1:])
			return
		}
		handleReservationByKey(w, r, svc, parts)
	}
}

func handleReservationByKey(w http.ResponseWriter, r *http.Request, svc ReservationWorkflow, parts []string) {
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		writeError(w, http.StatusNotFound, codeNotFound, "not found")
		return
	}
	eventID, equipmentID := parts[0], parts[1]

	switch len(parts) {
	case 2:
		switch r.Method {
		case http.MethodGet:
			rsv, err := svc.GetReservation(r.Context(), eventID, equipmentID)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, toReservationResponse(rsv))
		case http.MethodDelete:
			if err := svc.Withdraw(r.Context(), eventID, equipmentID); err != nil {
				writeServiceError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		}
	case 3:
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}
		admin, ok := decodeDecision(w, r)
		if !ok {
			return
		}

		var rsv domain.Reservation
		var err error
		switch parts[2] {
		case "approve":
			rsv, err = svc.Approve(r.Context(), eventID, equipmentID, admin)
		case "deny":
			rsv, err = svc.Deny(r.Context(), eventID, equipmentID, admin)
		default:
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toReservationResponse(rsv))
	default:
		writeError(w, http.StatusNotFound, codeNotFound, "not found")
	}
}

func handleReservationByToken(w http.ResponseWriter, r *http.Request, svc ReservationWorkflow, parts []string) {
	if len(parts) != 2 || parts[0] == "" {
		writeError(w, http.StatusNotFound, codeNotFound, "not found")
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		return
	}
	token := parts[0]

	admin, ok := decodeDecision(w, r)
	if !ok {
		return
	}

	var rsv domain.Reservation
	var err error
	switch parts[1] {
	case "approve":
		rsv, err = svc.ApproveByToken(r.Context(), token, admin)
	case "deny":
		rsv, err = svc.DenyByToken(r.Context(), token, admin)
	default:
		writeError(w, http.StatusNotFound, codeNotFound, "not found")
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationResponse(rsv))
}

func decodeDecision(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req decisionRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return "", false
	}
	if req.ActingAdmin == "" {
		writeError(w, http.StatusBadRequest, codeAdminRequired, domain.ErrAdminRequired.Error())
		return "", false
	}
	return req.ActingAdmin, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type createReservationRequest struct {
	EventID          string `json:"event_id"`
	EquipmentID      string `json:"equipment_id"`
	Quantity         int    `json:"quantity"`
	RequestedBy      string `json:"requested_by"`
	CorrelationToken string `json:"correlation_token"`
}

type decisionRequest struct {
	ActingAdmin string `json:"acting_admin"`
}

type reservationResponse struct {
	EventID          string    `json:"event_id"`
	EquipmentID      string    `json:"equipment_id"`
	Quantity         int       `json:"quantity"`
	RequestedBy      string    `json:"requested_by"`
	RequestedAt      time.Time `json:"requested_at"`
	Status           string    `json:"status"`
	DecidedBy        string    `json:"decided_by,omitempty"`
	CorrelationToken string    `json:"correlation_token"`
}

func toReservationResponse(rsv domain.Reservation) reservationResponse {
	return reservationResponse{
		EventID:          rsv.EventID,
		EquipmentID:      rsv.EquipmentID,
		Quantity:         rsv.Quantity,
		RequestedBy:      rsv.RequestedBy,
		RequestedAt:      rsv.RequestedAt,
		Status:           string(rsv.Status),
		DecidedBy:        rsv.DecidedBy,
		CorrelationToken: rsv.CorrelationToken,
	}
}
