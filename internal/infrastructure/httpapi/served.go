package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"asis-server/internal/domain"
)

// handleServed lists recently served documents, newest first, or clears
// the list on DELETE.
func (d *Deps) handleServed(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "BAD_LIMIT", "limit must be a non-negative integer", nil)
				return
			}
			limit = n
		}
		items, err := d.Svc.History(r.Context(), limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "HISTORY_FAILED", err.Error(), nil)
			return
		}
		if items == nil {
			items = []domain.ServedDocument{}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"items": items, "total": len(items)})
	case http.MethodDelete:
		if err := d.Svc.ClearHistory(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, "HISTORY_FAILED", err.Error(), nil)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
