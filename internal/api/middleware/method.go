package middleware

import (
	"encoding/json"
	"net/http"
)

// MsgMethodNotAllowed is the 405 error body.
const MsgMethodNotAllowed = "Method Not Allowed"

// RequirePOST rejects every method except POST with 405 before any other
// boundary work (identity, admission) happens.
func RequirePOST(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", "POST, OPTIONS")
			WriteError(w, http.StatusMethodNotAllowed, MsgMethodNotAllowed)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WriteError writes a {"error": message} JSON response.
// Same body shape as the handlers package.
func WriteError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message}) //nolint:errcheck
}
