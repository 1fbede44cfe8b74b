package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// JSON API endpoints always answer HTTP 200; recoverable failures (missing
// credentials, upstream errors) travel in the body as {success:false,error}
// so the UI has one uniform shape to handle. Export endpoints are the
// exception and use real status codes with plain-text bodies.

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

// writeSuccess writes {success:true, data:...}.
func writeSuccess(w http.ResponseWriter, data any) {
	writeJSON(w, map[string]any{"success": true, "data": data})
}

// writeMessage writes {success:true, message:...}.
func writeMessage(w http.ResponseWriter, msg string) {
	writeJSON(w, map[string]any{"success": true, "message": msg})
}

// writeFailure writes {success:false, error:...} with HTTP 200.
func writeFailure(w http.ResponseWriter, errMsg string) {
	writeJSON(w, map[string]any{"success": false, "error": errMsg})
}
