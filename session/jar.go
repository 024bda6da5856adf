package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"
)

// Jar is an http.CookieJar that remembers cookie attributes for one API
// origin so they can be written to a [Store] and restored later.
//
// The standard cookiejar only hands back name and value, so Jar tracks the
// full Set-Cookie data itself.
type Jar struct {
	jar    *cookiejar.Jar
	origin *url.URL
	store  Store

	mu      sync.Mutex
	cookies map[string]Cookie
	now     func() time.Time
}

// NewJar creates a jar for origin. store may be nil, in which case Persist
// and Restore are no-ops.
func NewJar(origin *url.URL, store Store) (*Jar, error) {
	if origin == nil || origin.Host == "" {
		return nil, errors.New("session jar requires an absolute origin")
	}
	inner, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Jar{
		jar:     inner,
		origin:  &url.URL{Scheme: origin.Scheme, Host: origin.Host},
		store:   store,
		cookies: make(map[string]Cookie),
		now:     time.Now,
	}, nil
}

// Origin returns the scheme://host key the jar persists under.
func (j *Jar) Origin() string {
	return j.origin.String()
}

// Cookies implements http.CookieJar.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	return j.inner().Cookies(u)
}

func (j *Jar) inner() *cookiejar.Jar {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.jar
}

// SetCookies implements http.CookieJar.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	now := j.now()
	j.mu.Lock()
	defer j.mu.Unlock()

	j.jar.SetCookies(u, cookies)
	for _, c := range cookies {
		persisted := FromHTTP(c, now)
		if persisted.Expired(now) {
			delete(j.cookies, c.Name)
			continue
		}
		j.cookies[c.Name] = persisted
	}
}

// Value returns the current value of the named cookie for the origin.
func (j *Jar) Value(name string) (string, bool) {
	for _, c := range j.inner().Cookies(j.origin) {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}

// Snapshot returns the live cookies with their attributes.
func (j *Jar) Snapshot() *Blob {
	now := j.now()
	j.mu.Lock()
	defer j.mu.Unlock()

	b := &Blob{Origin: j.Origin(), SavedAt: now.Unix(), Cookies: make([]Cookie, 0, len(j.cookies))}
	for _, c := range j.cookies {
		if c.Expired(now) {
			continue
		}
		b.Cookies = append(b.Cookies, c)
	}
	return b
}

// Persist writes the live cookies to the store.
func (j *Jar) Persist(ctx context.Context) error {
	if j.store == nil {
		return nil
	}
	return j.store.Save(ctx, j.Snapshot())
}

// Restore loads previously persisted cookies into the jar. A missing blob is
// not an error.
func (j *Jar) Restore(ctx context.Context) error {
	if j.store == nil {
		return nil
	}
	blob, err := j.store.Load(ctx, j.Origin())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}

	live := blob.Live(j.now())
	httpCookies := make([]*http.Cookie, 0, len(live))
	for _, c := range live {
		httpCookies = append(httpCookies, c.HTTP())
	}
	j.SetCookies(j.origin, httpCookies)
	return nil
}

// Clear forgets every cookie and deletes the persisted blob.
func (j *Jar) Clear(ctx context.Context) error {
	inner, err := cookiejar.New(nil)
	if err != nil {
		return err
	}
	j.mu.Lock()
	j.jar = inner
	j.cookies = make(map[string]Cookie)
	j.mu.Unlock()

	if j.store == nil {
		return nil
	}
	return j.store.Delete(ctx, j.Origin())
}
