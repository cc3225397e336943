package utils

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
)

const maxDebugBody = 1024

// DebugResponse logs (and returns) the start of a response body. It consumes the body.
func DebugResponse(resp *http.Response) string {
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxDebugBody))
	if err != nil {
		slog.Error("error while reading response body", "err", err)
		return ""
	}
	slog.Debug("got response", "status", resp.Status, "body", string(b))
	return string(b)
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("error while writing json response", "err", err)
	}
}
