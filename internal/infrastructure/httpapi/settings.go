package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
)

type responseDelayDTO struct {
	Enabled bool   `json:"enabled"`
	Value   string `json:"value"` // "1500" or a range "1000-3000"
}

type settingsDTO struct {
	ResponseDelay responseDelayDTO `json:"responseDelay"`
}

func (d *Deps) currentSettings() settingsDTO {
	v := d.Delay.String()
	return settingsDTO{ResponseDelay: responseDelayDTO{Enabled: v != "", Value: v}}
}

// handleSettings reads or updates runtime settings. Only the response delay
// is adjustable.
func (d *Deps) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(d.currentSettings())
		return
	case http.MethodPost:
		var in settingsDTO
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "BAD_JSON", "invalid json", nil)
			return
		}
		rd := in.ResponseDelay
		v := strings.TrimSpace(rd.Value)
		if !rd.Enabled {
			v = ""
		}
		if err := d.Delay.Set(v); err != nil {
			writeError(w, http.StatusBadRequest, "BAD_VALUE", err.Error(), nil)
			return
		}
		d.Logger.Info().Str("responseDelay", d.Delay.String()).Msg("settings updated")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(d.currentSettings())
		return
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
}
