package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(req *http.Request) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func TestWriteSetsSecurityAttributes(t *testing.T) {
	manager := NewManager(7*24*time.Hour, true)
	c, rec := newContext(httptest.NewRequest(http.MethodGet, "/", nil))

	manager.Write(c, "signed-token")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	assert.Equal(t, CookieName, cookie.Name)
	assert.Equal(t, "signed-token", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, int((7 * 24 * time.Hour).Seconds()), cookie.MaxAge)
}

func TestWriteInsecureOutsideProduction(t *testing.T) {
	manager := NewManager(time.Hour, false)
	c, rec := newContext(httptest.NewRequest(http.MethodGet, "/", nil))

	manager.Write(c, "signed-token")

	require.Len(t, rec.Result().Cookies(), 1)
	assert.False(t, rec.Result().Cookies()[0].Secure)
}

func TestClearIsIdempotent(t *testing.T) {
	manager := NewManager(time.Hour, false)
	c, rec := newContext(httptest.NewRequest(http.MethodGet, "/", nil))

	manager.Clear(c)
	manager.Clear(c)

	for _, cookie := range rec.Result().Cookies() {
		assert.Equal(t, CookieName, cookie.Name)
		assert.Empty(t, cookie.Value)
		assert.Negative(t, cookie.MaxAge)
	}
}

func TestRead(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "signed-token"})
	c, _ := newContext(req)

	value, ok := Read(c)
	assert.True(t, ok)
	assert.Equal(t, "signed-token", value)
}

func TestReadAbsent(t *testing.T) {
	c, _ := newContext(httptest.NewRequest(http.MethodGet, "/", nil))

	_, ok := Read(c)
	assert.False(t, ok)
}
