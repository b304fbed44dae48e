package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAdminToken(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		header     string
		wantStatus int
	}{
		{
			name:       "open when no token configured",
			token:      "",
			header:     "",
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing header",
			token:      "admin-secret",
			header:     "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong scheme",
			token:      "admin-secret",
			header:     "Basic admin-secret",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong token",
			token:      "admin-secret",
			header:     "Bearer nope",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "valid token",
			token:      "admin-secret",
			header:     "Bearer admin-secret",
			wantStatus: http.StatusOK,
		},
		{
			name:       "scheme is case insensitive",
			token:      "admin-secret",
			header:     "bearer admin-secret",
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := AdminToken(tt.token)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/v1/cleanup", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}

			if tt.wantStatus == http.StatusUnauthorized {
				var resp apiError
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("failed to decode error response: %v", err)
				}
				if resp.Error.Code != "UNAUTHORIZED" {
					t.Errorf("error code = %s, want UNAUTHORIZED", resp.Error.Code)
				}
			}
		})
	}
}
