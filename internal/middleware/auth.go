package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/abdul-hamid-achik/clipshare/internal/crypto"
)

// apiError represents a standardized API error response.
type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// jsonError writes a standardized JSON error response.
func jsonError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := apiError{}
	resp.Error.Code = code
	resp.Error.Message = message
	json.NewEncoder(w).Encode(resp)
}

// AdminToken returns middleware that requires "Authorization: Bearer <token>"
// matching the shared admin token. An empty token leaves the route open.
func AdminToken(token string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				jsonError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				jsonError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid authorization header format")
				return
			}

			if !crypto.CompareTokens([]byte(parts[1]), []byte(token)) {
				jsonError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid admin token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
