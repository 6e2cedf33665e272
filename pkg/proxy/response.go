package proxy

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

const (
	msgMethodNotAllowed = "Method Not Allowed"
	msgMissingParams    = "Missing address or chainId"
	msgInvalidChainID   = "Invalid chainId"
	msgInvalidJSON      = "Invalid JSON response from target"
	msgInternal         = "Internal Server Error"
)

type errorResponse struct {
	Error string  `json:"error"`
	Raw   *string `json:"raw,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}
