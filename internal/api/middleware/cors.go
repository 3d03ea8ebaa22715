// Package middleware holds the request-boundary middleware shared by the chi
// server and the serverless function entrypoint.
package middleware

import "net/http"

// CORS header values sent on every response.
const (
	AllowOrigin      = "*"
	AllowMethods     = "GET,OPTIONS,PATCH,DELETE,POST,PUT"
	AllowHeaders     = "X-CSRF-Token, X-Requested-With, Accept, Accept-Version, Content-Length, Content-MD5, Content-Type, Date, X-Api-Version, Authorization"
	AllowCredentials = "true"
)

// SetCORSHeaders writes the CORS headers onto h.
func SetCORSHeaders(h http.Header) {
	h.Set("Access-Control-Allow-Origin", AllowOrigin)
	h.Set("Access-Control-Allow-Methods", AllowMethods)
	h.Set("Access-Control-Allow-Headers", AllowHeaders)
	h.Set("Access-Control-Allow-Credentials", AllowCredentials)
}

// CORS adds the CORS headers to every response and answers preflight
// requests with 204 and no body. Preflight never reaches the limiter or
// the broker, so it succeeds even when the service is misconfigured.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		SetCORSHeaders(w.Header())
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
