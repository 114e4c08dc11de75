package syncer

import (
	"encoding/json"
	"errors"
	"net/http"
)

var failureText = map[Stage]string{
	StageQuery:  "Snowflake query failed",
	StageAuth:   "SFMC auth failed",
	StageUpload: "SFMC upload failed",
}

// FailureText is the plaintext body returned for a failed sync.
func FailureText(err error) string {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		if text, ok := failureText[stageErr.Stage]; ok {
			return text
		}
	}
	return "Sync failed"
}

// ServeHTTP runs one sync per GET request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "Only GET allowed", http.StatusMethodNotAllowed)
		return
	}

	result, err := h.Sync(req.Context())
	if err != nil {
		http.Error(w, FailureText(err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		h.logger(req.Context()).Warn().Err(err).Msg("failed to write response")
	}
}
