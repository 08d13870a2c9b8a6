package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/jrsteele09/bff-auth/auth"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeyPolicy stores the authorizer's *auth.PolicyContext
const ContextKeyPolicy ContextKey = "policy"

// PolicyFromContext returns the policy context injected by RequireSession.
func PolicyFromContext(ctx context.Context) (*auth.PolicyContext, bool) {
	pc, ok := ctx.Value(ContextKeyPolicy).(*auth.PolicyContext)
	return pc, ok && pc != nil
}

// RequireSession runs the session authorizer on every request and rejects a Deny with 401.
func (s *Server) RequireSession() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			resp := s.auth.Authorize(r.Context(), authorizerRequest(r))
			if !resp.Allowed() {
				writeJSONError(w, "unauthorized", "valid session required", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyPolicy, resp.Context)
			next(w, r.WithContext(ctx))
		}
	}
}

func authorizerRequest(r *http.Request) auth.AuthorizerRequest {
	headers := make(map[string]string, len(r.Header))
	for name, values := range r.Header {
		sep := ", "
		if name == "Cookie" {
			sep = "; "
		}
		headers[name] = strings.Join(values, sep)
	}
	return auth.AuthorizerRequest{Headers: headers}
}
