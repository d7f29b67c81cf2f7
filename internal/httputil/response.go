package httputil

import (
	"encoding/json"
	"net/http"
)

type ErrorBody struct {
	Error    string `json:"error"`
	Kind     string `json:"kind,omitempty"`
	CanRetry bool   `json:"canRetry"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorBody{Error: message})
}

// WriteKindError writes an error body that tells the client what went wrong
// upstream and whether retrying can help.
func WriteKindError(w http.ResponseWriter, status int, message, kind string, canRetry bool) {
	WriteJSON(w, status, ErrorBody{Error: message, Kind: kind, CanRetry: canRetry})
}
