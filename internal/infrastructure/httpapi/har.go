package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	obs "asis-server/internal/infrastructure/observability"
)

// Minimal HAR 1.2 structs for export
type harLog struct {
	Version string     `json:"version"`
	Creator harName    `json:"creator"`
	Entries []harEntry `json:"entries"`
}
type harName struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}
type harEntry struct {
	StartedDateTime time.Time   `json:"startedDateTime"`
	Time            float64     `json:"time"`
	Request         harRequest  `json:"request"`
	Response        harResponse `json:"response"`
	Comment         string      `json:"comment,omitempty"`
}
type harRequest struct {
	Method      string `json:"method"`
	URL         string `json:"url"`
	HTTPVersion string `json:"httpVersion"`
	HeadersSize int    `json:"headersSize"`
	BodySize    int    `json:"bodySize"`
}
type harResponse struct {
	Status      int    `json:"status"`
	StatusText  string `json:"statusText"`
	HeadersSize int    `json:"headersSize"`
	BodySize    int    `json:"bodySize"`
}

// handleServedHAR exports the served history as a HAR log, oldest first.
func (d *Deps) handleServedHAR(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	items, err := d.Svc.History(r.Context(), 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "HISTORY_FAILED", err.Error(), nil)
		return
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	entries := make([]harEntry, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		it := items[i]
		entries = append(entries, harEntry{
			StartedDateTime: it.StartedAt,
			Time:            float64(it.Duration) / float64(time.Millisecond),
			Request:         harRequest{Method: it.Method, URL: scheme + "://" + r.Host + it.Path, HTTPVersion: "HTTP/1.1", HeadersSize: -1, BodySize: 0},
			Response:        harResponse{Status: it.Status, StatusText: http.StatusText(it.Status), HeadersSize: -1, BodySize: it.Bytes},
			Comment:         it.Error,
		})
	}
	har := struct {
		Log harLog `json:"log"`
	}{Log: harLog{Version: "1.2", Creator: harName{Name: "asis-server", Version: obs.Version}, Entries: entries}}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=asis_served.har")
	_ = json.NewEncoder(w).Encode(har)
}
