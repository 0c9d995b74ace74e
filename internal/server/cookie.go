package server

import (
	"net/http"
	"time"
)

// CookieName is the session cookie carrying the raw credential. The value is
// opaque to the browser; the server maps it back to a session via its hash.
const CookieName = "gateway_session"

// CookieConfig controls the attributes of the session cookie.
type CookieConfig struct {
	Domain string
	Secure bool
	MaxAge time.Duration
}

func (c CookieConfig) set(w http.ResponseWriter, credential string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    credential,
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   int(c.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c CookieConfig) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// credentialFromRequest returns the session credential from the request
// cookie, or "" when absent.
func credentialFromRequest(r *http.Request) string {
	ck, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return ck.Value
}
