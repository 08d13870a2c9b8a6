package server

import (
	"encoding/json"
	"net/http"
)

// SessionInfo is the caller's view of its own session. Tokens are never returned.
type SessionInfo struct {
	TenantID       string `json:"tenant_id"`
	SessionID      string `json:"session_id"`
	AppID          string `json:"app_id"`
	PrincipalSub   string `json:"principal_sub,omitempty"`
	PrincipalEmail string `json:"principal_email,omitempty"`
}

func (s *Server) SessionInfoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pc, ok := PolicyFromContext(r.Context())
		if !ok {
			writeJSONError(w, "unauthorized", "valid session required", http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(SessionInfo{
			TenantID:       pc.TenantID,
			SessionID:      pc.SessionID,
			AppID:          pc.AppID,
			PrincipalSub:   pc.PrincipalSub,
			PrincipalEmail: pc.PrincipalEmail,
		})
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

// writeJSONError writes an OAuth2 style error response
func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             errorCode,
		"error_description": description,
	})
}
