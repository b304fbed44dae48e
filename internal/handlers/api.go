package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/abdul-hamid-achik/clipshare/internal/logging"
	"github.com/abdul-hamid-achik/clipshare/internal/services"
)

// APIHandler handles REST API endpoints.
type APIHandler struct {
	clips *services.ClipService
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(clips *services.ClipService) *APIHandler {
	return &APIHandler{clips: clips}
}

// Response helpers

type apiResponse struct {
	Data any            `json:"data,omitempty"`
	Meta map[string]any `json:"meta,omitempty"`
}

type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta map[string]any `json:"meta,omitempty"`
}

func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiResponse{Data: data})
}

func jsonError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := apiError{}
	resp.Error.Code = code
	resp.Error.Message = message
	json.NewEncoder(w).Encode(resp)
}

// serviceError maps a ClipService error onto the API error envelope.
func serviceError(w http.ResponseWriter, r *http.Request, err error, event string) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		jsonError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	case errors.Is(err, services.ErrStoreUnavailable):
		logging.Logger(r.Context()).Error(event, "entry_id", chi.URLParam(r, "id"), "error", err)
		jsonError(w, http.StatusInternalServerError, "STORE_UNAVAILABLE", "Storage is temporarily unavailable")
	default:
		logging.Logger(r.Context()).Error(event, "entry_id", chi.URLParam(r, "id"), "error", err)
		jsonError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}

// entryRequest is the body of PUT /entries/{id} and POST /entries.
type entryRequest struct {
	Content     string `json:"content"`
	IsProtected bool   `json:"isProtected"`
	TTLMinutes  *int   `json:"ttlMinutes,omitempty"`
	TTLHours    *int   `json:"ttlHours,omitempty"`
}

// ttl returns the requested lifetime; minutes win over hours and zero means
// the server default.
func (req entryRequest) ttl() time.Duration {
	switch {
	case req.TTLMinutes != nil:
		return time.Duration(*req.TTLMinutes) * time.Minute
	case req.TTLHours != nil:
		return time.Duration(*req.TTLHours) * time.Hour
	default:
		return 0
	}
}

func (req entryRequest) toPut() services.PutRequest {
	return services.PutRequest{
		Content:     req.Content,
		IsProtected: req.IsProtected,
		TTL:         req.ttl(),
	}
}

type passwordRequest struct {
	Password string `json:"password"`
}

// Entries

// GetEntry handles GET /api/v1/entries/{id}
func (h *APIHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	result, err := h.clips.Lookup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		serviceError(w, r, err, "entry_lookup_failed")
		return
	}
	jsonResponse(w, http.StatusOK, result)
}

// PutEntry handles PUT /api/v1/entries/{id}
func (h *APIHandler) PutEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body")
		return
	}

	entry, err := h.clips.Put(r.Context(), chi.URLParam(r, "id"), req.toPut())
	if err != nil {
		serviceError(w, r, err, "entry_save_failed")
		return
	}
	jsonResponse(w, http.StatusOK, entry)
}

// CreateEntry handles POST /api/v1/entries
func (h *APIHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body")
		return
	}

	entry, err := h.clips.Create(r.Context(), req.toPut())
	if err != nil {
		serviceError(w, r, err, "entry_create_failed")
		return
	}
	jsonResponse(w, http.StatusCreated, entry)
}

// DeleteEntry handles DELETE /api/v1/entries/{id}
func (h *APIHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := h.clips.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		serviceError(w, r, err, "entry_delete_failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Secrets

// GetSecret handles GET /api/v1/entries/{id}/secret
func (h *APIHandler) GetSecret(w http.ResponseWriter, r *http.Request) {
	exists, err := h.clips.SecretExists(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		serviceError(w, r, err, "secret_lookup_failed")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]bool{"exists": exists})
}

// SetSecret handles POST /api/v1/entries/{id}/secret
func (h *APIHandler) SetSecret(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body")
		return
	}

	if err := h.clips.SetSecret(r.Context(), chi.URLParam(r, "id"), req.Password); err != nil {
		serviceError(w, r, err, "secret_save_failed")
		return
	}
	jsonResponse(w, http.StatusCreated, map[string]bool{"exists": true})
}

// VerifySecret handles PUT /api/v1/entries/{id}/secret/verify
func (h *APIHandler) VerifySecret(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body")
		return
	}

	valid, err := h.clips.VerifySecret(r.Context(), chi.URLParam(r, "id"), req.Password)
	if err != nil {
		serviceError(w, r, err, "secret_verify_failed")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]bool{"valid": valid})
}

// DeleteSecret handles DELETE /api/v1/entries/{id}/secret
func (h *APIHandler) DeleteSecret(w http.ResponseWriter, r *http.Request) {
	if err := h.clips.DeleteSecret(r.Context(), chi.URLParam(r, "id")); err != nil {
		serviceError(w, r, err, "secret_delete_failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Cleanup handles POST /api/v1/cleanup
func (h *APIHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	deleted := h.clips.Cleanup(r.Context())
	logging.Logger(r.Context()).Info("cleanup_requested", "deleted", len(deleted))
	jsonResponse(w, http.StatusOK, map[string][]string{"deleted": deleted})
}
