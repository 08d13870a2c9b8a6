package server

import (
	"net/http"

	"github.com/jrsteele09/bff-auth/auth"
)

// Both cookies are Secure, HttpOnly and SameSite=Strict regardless of scheme: the broker only
// runs behind TLS terminating gateways.
func setCookie(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   maxAge,
	})
}

func setTempSessionCookie(w http.ResponseWriter, tempSessionID string, maxAge int) {
	setCookie(w, auth.TempSessionCookieName, tempSessionID, maxAge)
}

// expireTempSessionCookie emits Max-Age=0.
func expireTempSessionCookie(w http.ResponseWriter) {
	setCookie(w, auth.TempSessionCookieName, "", -1)
}

func setSessionCookie(w http.ResponseWriter, value string, maxAge int) {
	setCookie(w, auth.SessionCookieName, value, maxAge)
}
