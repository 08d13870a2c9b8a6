package server

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/bff-auth/auth"
	apperrors "github.com/jrsteele09/bff-auth/internal/errors"
)

// CallbackHandler completes the login. Invalid callbacks get a 400, every other failure a
// generic 500; neither leaks the underlying error.
func (s *Server) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		req := auth.CallbackRequest{
			Code:             query.Get("code"),
			State:            query.Get("state"),
			Error:            query.Get("error"),
			ErrorDescription: query.Get("error_description"),
		}
		if cookie, err := r.Cookie(auth.TempSessionCookieName); err == nil {
			req.TempSessionID = cookie.Value
		}

		resp, err := s.auth.Callback(r.Context(), req)
		if err != nil {
			if errors.Is(err, apperrors.ErrInvalidCallback) {
				log.Warn().Err(err).Msg("invalid callback")
				writeJSONError(w, "invalid_request", "invalid callback request", http.StatusBadRequest)
				return
			}
			log.Error().Err(err).Msg("callback failed")
			expireTempSessionCookie(w)
			writeJSONError(w, "server_error", "authentication failed", http.StatusInternalServerError)
			return
		}

		setSessionCookie(w, resp.SessionCookie, resp.MaxAge)
		expireTempSessionCookie(w)
		http.Redirect(w, r, resp.RedirectURL, http.StatusFound)
	}
}
