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

// EquipmentAdmin is the slice of the inventory service the equipment
// endpoints need.
type EquipmentAdmin interface {
	CreateEquipment(ctx context.Context, in app.CreateEquipmentInput) (domain.EquipmentItem, error)
	GetInventory(ctx context.Context, equipmentID string) (domain.EquipmentItem, error)
	ListInventory(ctx context.Context) ([]domain.EquipmentItem, error)
	SetCapacity(ctx context.Context, equipmentID string, newTotal int) (domain.EquipmentItem, error)
	RetireEquipment(ctx context.Context, equipmentID string) error
	RemoveEquipment(ctx context.Context, equipmentID string) error
}

// HandleEquipment serves GET /equipment and POST /equipment.
func HandleEquipment(svc EquipmentAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			items, err := svc.ListInventory(r.Context())
			if err != nil {
				writeServiceError(w, err)
				return
			}
			resp := make([]equipmentResponse, 0, len(items))
			for _, item := range items {
				resp = append(resp, toEquipmentResponse(item))
			}
			writeJSON(w, http.StatusOK, resp)
			return
		case http.MethodPost:
			var req createEquipmentRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}

			item, err := svc.CreateEquipment(r.Context(), app.CreateEquipmentInput{
				Name:     req.Name,
				Category: req.Category,
				Total:    req.TotalQuantity,
			})
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, toEquipmentResponse(item))
			return
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}
	}
}

// HandleEquipmentItem serves the per-item subtree:
//
//	GET    /equipment/{id}
//	DELETE /equipment/{id}
//	PUT    /equipment/{id}/capacity
//	POST   /equipment/{id}/retire
func HandleEquipmentItem(svc EquipmentAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) < 2 || parts[0] != "equipment" || parts[1] == "" {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}
		equipmentID := parts[1]

		switch len(parts) {
		case 2:
			switch r.Method {
			case http.MethodGet:
				item, err := svc.GetInventory(r.Context(), equipmentID)
				if err != nil {
					writeServiceError(w, err)
					return
				}
				writeJSON(w, http.StatusOK, toEquipmentResponse(item))
			case http.MethodDelete:
				if err := svc.RemoveEquipment(r.Context(), equipmentID); err != nil {
					writeServiceError(w, err)
					return
				}
				w.WriteHeader(http.StatusNoContent)
			default:
				writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			}
		case 3:
			switch parts[2] {
			case "capacity":
				if r.Method != http.MethodPut {
					writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
					return
				}
				var req setCapacityRequest
				dec := json.NewDecoder(r.Body)
				dec.DisallowUnknownFields()
				if err := dec.Decode(&req); err != nil {
					writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
					return
				}
				item, err := svc.SetCapacity(r.Context(), equipmentID, req.TotalQuantity)
				if err != nil {
					writeServiceError(w, err)
					return
				}
				writeJSON(w, http.StatusOK, toEquipmentResponse(item))
			case "retire":
				if r.Method != http.MethodPost {
					writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
					return
				}
				if err := svc.RetireEquipment(r.Context(), equipmentID); err != nil {
					writeServiceError(w, err)
					return
				}
				w.WriteHeader(http.StatusNoContent)
			default:
				writeError(w, http.StatusNotFound, codeNotFound, "not found")
			}
		default:
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
		}
	}
}

type createEquipmentRequest struct {
	Name          string `json:"name"`
	Category      string `json:"category"`
	TotalQuantity int    `json:"total_quantity"`
}

type setCapacityRequest struct {
	TotalQuantity int `json:"total_quantity"`
}

type equipmentResponse struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Category          string    `json:"category,omitempty"`
	TotalQuantity     int       `json:"total_quantity"`
	AvailableQuantity int       `json:"available_quantity"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
}

func toEquipmentResponse(item domain.EquipmentItem) equipmentResponse {
	return equipmentResponse{
		ID:                item.ID,
		Name:              item.Name,
		Category:          item.Category,
		TotalQuantity:     item.Total,
		AvailableQuantity: item.Available,
		Status:            string(item.Status),
		CreatedAt:         item.CreatedAt,
	}
}
