package session

import (
	"net/http"
	"time"
)

// Cookie is the persisted form of one Set-Cookie received from the API.
type Cookie struct {
	Name     string
	Value    string
	Path     string
	Domain   string
	Expires  int64 // unix seconds, 0 for a session cookie
	Secure   bool
	HTTPOnly bool
	SameSite uint8
}

// Blob groups the cookies collected for one API origin.
type Blob struct {
	Origin  string
	SavedAt int64
	Cookies []Cookie
}

// FromHTTP converts a response cookie. MaxAge takes precedence over Expires,
// matching net/http semantics.
func FromHTTP(c *http.Cookie, now time.Time) Cookie {
	out := Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Path:     c.Path,
		Domain:   c.Domain,
		Secure:   c.Secure,
		HTTPOnly: c.HttpOnly,
		SameSite: uint8(c.SameSite),
	}
	switch {
	case c.MaxAge > 0:
		out.Expires = now.Add(time.Duration(c.MaxAge) * time.Second).Unix()
	case c.MaxAge < 0:
		out.Expires = now.Add(-time.Second).Unix()
	case !c.Expires.IsZero():
		out.Expires = c.Expires.Unix()
	}
	return out
}

// HTTP converts the cookie back for a cookie jar.
func (c Cookie) HTTP() *http.Cookie {
	out := &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Path:     c.Path,
		Domain:   c.Domain,
		Secure:   c.Secure,
		HttpOnly: c.HTTPOnly,
		SameSite: http.SameSite(c.SameSite),
	}
	if c.Expires > 0 {
		out.Expires = time.Unix(c.Expires, 0)
	}
	return out
}

// Expired reports whether the cookie is past its expiry at now.
func (c Cookie) Expired(now time.Time) bool {
	return c.Expires > 0 && c.Expires <= now.Unix()
}

// Live returns the cookies of b that have not expired at now.
func (b *Blob) Live(now time.Time) []Cookie {
	if b == nil {
		return nil
	}
	out := make([]Cookie, 0, len(b.Cookies))
	for _, c := range b.Cookies {
		if c.Expired(now) {
			continue
		}
		out = append(out, c)
	}
	return out
}
