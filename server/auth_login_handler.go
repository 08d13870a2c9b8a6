package server

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/bff-auth/auth"
)

// LoginHandler starts the login and redirects the browser to the identity provider.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := s.auth.Login(r.Context(), auth.LoginRequest{})
		if err != nil {
			log.Error().Err(err).Msg("login failed")
			writeJSONError(w, "server_error", "login failed", http.StatusInternalServerError)
			return
		}

		setTempSessionCookie(w, resp.TempSessionID, resp.MaxAge)
		http.Redirect(w, r, resp.RedirectURL, http.StatusFound)
	}
}
