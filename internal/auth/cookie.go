package auth

import (
	"errors"
	"net/http"
	"time"
)

// CookieConfig describes the credential cookie.
type CookieConfig struct {
	Name     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
	MaxAge   time.Duration
}

// CookieTransport moves tokens between responses and requests via an
// HttpOnly cookie.
type CookieTransport struct {
	cfg CookieConfig
	now func() time.Time
}

// NewCookieTransport validates cfg and returns a CookieTransport. Browsers
// drop SameSite=None cookies that are not Secure, so that combination is
// rejected here rather than failing silently in production.
func NewCookieTransport(cfg CookieConfig) (*CookieTransport, error) {
	if cfg.Name == "" {
		return nil, errors.New("cookie name is required")
	}
	if cfg.SameSite == http.SameSiteNoneMode && !cfg.Secure {
		return nil, errors.New("SameSite=None cookies must be Secure")
	}
	if cfg.MaxAge <= 0 {
		return nil, errors.New("cookie max age must be positive")
	}
	return &CookieTransport{cfg: cfg, now: time.Now}, nil
}

// Name returns the cookie name.
func (c *CookieTransport) Name() string {
	return c.cfg.Name
}

// Attach sets the credential cookie carrying token on the response.
func (c *CookieTransport) Attach(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.cfg.Name,
		Value:    token,
		Path:     "/",
		Domain:   c.cfg.Domain,
		MaxAge:   int(c.cfg.MaxAge / time.Second),
		Expires:  c.now().Add(c.cfg.MaxAge),
		HttpOnly: true,
		Secure:   c.cfg.Secure,
		SameSite: c.cfg.SameSite,
	})
}

// Clear overwrites the credential with an empty, already expired cookie.
func (c *CookieTransport) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.cfg.Name,
		Value:    "",
		Path:     "/",
		Domain:   c.cfg.Domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   c.cfg.Secure,
		SameSite: c.cfg.SameSite,
	})
}

// Extract returns the token carried by r. A missing or empty cookie is
// reported as ok=false, which callers treat as anonymous.
func (c *CookieTransport) Extract(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(c.cfg.Name)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}
