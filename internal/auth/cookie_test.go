package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransport(t *testing.T) *CookieTransport {
	t.Helper()
	ct, err := NewCookieTransport(CookieConfig{
		Name:     "token",
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
		MaxAge:   72 * time.Hour,
	})
	require.NoError(t, err)
	return ct
}

func TestNewCookieTransport_Validation(t *testing.T) {
	_, err := NewCookieTransport(CookieConfig{Name: "token", SameSite: http.SameSiteNoneMode, MaxAge: time.Hour})
	assert.Error(t, err, "SameSite=None without Secure")

	_, err = NewCookieTransport(CookieConfig{SameSite: http.SameSiteLaxMode, MaxAge: time.Hour})
	assert.Error(t, err, "missing name")

	_, err = NewCookieTransport(CookieConfig{Name: "token", SameSite: http.SameSiteLaxMode})
	assert.Error(t, err, "missing max age")

	_, err = NewCookieTransport(CookieConfig{Name: "token", SameSite: http.SameSiteLaxMode, MaxAge: time.Hour})
	assert.NoError(t, err, "development settings")
}

func TestCookieTransport_Attach(t *testing.T) {
	ct := newTestTransport(t)
	w := httptest.NewRecorder()

	ct.Attach(w, "abc.def.ghi")

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, "token", c.Name)
	assert.Equal(t, "abc.def.ghi", c.Value)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteNoneMode, c.SameSite)
	assert.Equal(t, int((72 * time.Hour).Seconds()), c.MaxAge)
	assert.Equal(t, "/", c.Path)
}

func TestCookieTransport_Clear(t *testing.T) {
	ct := newTestTransport(t)
	w := httptest.NewRecorder()

	ct.Clear(w)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, "token", c.Name)
	assert.Empty(t, c.Value)
	assert.Less(t, c.MaxAge, 0)
	assert.True(t, c.HttpOnly)
}

func TestCookieTransport_Extract(t *testing.T) {
	ct := newTestTransport(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := ct.Extract(req)
	assert.False(t, ok)

	req.AddCookie(&http.Cookie{Name: "token", Value: ""})
	_, ok = ct.Extract(req)
	assert.False(t, ok)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "other", Value: "x"})
	req.AddCookie(&http.Cookie{Name: "token", Value: "tok"})
	got, ok := ct.Extract(req)
	assert.True(t, ok)
	assert.Equal(t, "tok", got)
}
