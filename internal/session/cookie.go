package session

import (
	"net/http"
	"strings"
	"time"

	"yapisite/internal/gateway/canonical"
)

// Cookie reads and writes the session cookie.
type Cookie struct {
	Name   string
	Scheme canonical.SchemePolicy
}

// Read returns the trimmed cookie value when present.
func (c Cookie) Read(r *http.Request) (string, bool) {
	if r == nil {
		return "", false
	}
	cookie, err := r.Cookie(c.Name)
	if err != nil || cookie == nil {
		return "", false
	}
	value := strings.TrimSpace(cookie.Value)
	if value == "" {
		return "", false
	}
	return value, true
}

// Write sets the cookie to token until expiresAt.
func (c Cookie) Write(w http.ResponseWriter, r *http.Request, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   canonical.RequestScheme(r, c.Scheme) == "https",
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the cookie.
func (c Cookie) Clear(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   canonical.RequestScheme(r, c.Scheme) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
