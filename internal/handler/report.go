package handler

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

type salesPointResponse struct {
	Day     string          `json:"day"`
	Orders  int             `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

// salesReport answers per-day order counts and revenue. The range defaults to
// the last 30 days; from/to accept YYYY-MM-DD and to is exclusive.
func (h *Handler) salesReport(w http.ResponseWriter, r *http.Request) {
	to := time.Now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	from := to.AddDate(0, 0, -30)

	var err error
	if raw := r.URL.Query().Get("from"); raw != "" {
		if from, err = time.Parse("2006-01-02", raw); err != nil {
			writeError(w, http.StatusBadRequest, "from must be YYYY-MM-DD")
			return
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		if to, err = time.Parse("2006-01-02", raw); err != nil {
			writeError(w, http.StatusBadRequest, "to must be YYYY-MM-DD")
			return
		}
	}
	if !from.Before(to) {
		writeError(w, http.StatusBadRequest, "from must be before to")
		return
	}

	points, err := h.reports.Sales(r.Context(), from, to)
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	out := make([]salesPointResponse, len(points))
	for i, p := range points {
		out[i] = salesPointResponse{
			Day:     p.Day.Format("2006-01-02"),
			Orders:  p.Orders,
			Revenue: p.Revenue,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

type dashboardResponse struct {
	Users               int             `json:"users"`
	Products            int             `json:"products"`
	Orders              int             `json:"orders"`
	Revenue             decimal.Decimal `json:"revenue"`
	PendingTransactions int             `json:"pendingTransactions"`
	LowStockModels      int             `json:"lowStockModels"`
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	s, err := h.reports.Dashboard(r.Context())
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboardResponse{
		Users:               s.Users,
		Products:            s.Products,
		Orders:              s.Orders,
		Revenue:             s.Revenue,
		PendingTransactions: s.PendingTransactions,
		LowStockModels:      s.LowStockModels,
	})
}
