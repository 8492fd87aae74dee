package session

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// CookieName is the session cookie carrying the signed token.
const CookieName = "auth_token"

// Manager writes and clears the session cookie. It performs no validation,
// the gate and the token codec own that.
type Manager struct {
	ttl    time.Duration
	secure bool
}

func NewManager(ttl time.Duration, secure bool) *Manager {
	return &Manager{ttl: ttl, secure: secure}
}

func (m *Manager) Write(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
	})
}

// Clear deletes the session cookie. Clearing an absent cookie is a no-op.
func (m *Manager) Clear(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})
}

// Read returns the raw token from the request cookie, if present.
func Read(c echo.Context) (string, bool) {
	cookie, err := c.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}
