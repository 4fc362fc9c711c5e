package http

import (
	"context"
	"net/http"

	"github.com/alavela/clubhub/services/ledger/internal/app"
)

// Resetter is the escape hatch the reset endpoint needs.
type Resetter interface {
	ResetAll(ctx context.Context) error
}

// Sweeper triggers a reclaim pass outside the timer.
type Sweeper interface {
	Tick(ctx context.Context) (app.SweepReport, error)
}

// HandleAdminReset serves POST /admin/reset: every item back to full
// availability, reservation index cleared. Manual recovery only.
func HandleAdminReset(svc Resetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}
		if err := svc.ResetAll(r.Context()); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleAdminReclaim serves POST /admin/reclaim: the same reclaim pass the
// timer drives, for operators who do not want to wait for the next tick.
func HandleAdminReclaim(svc Sweeper) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}
		report, err := svc.Tick(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sweepReportResponse{
			Skipped:          report.Skipped,
			Events:           report.Events,
			Reservations:     report.Reservations,
			QuantityReturned: report.QuantityReturned,
		})
	}
}

type sweepReportResponse struct {
	Skipped          bool `json:"skipped"`
	Events           int  `json:"events"`
	Reservations     int  `json:"reservations"`
	QuantityReturned int  `json:"quantity_returned"`
}
