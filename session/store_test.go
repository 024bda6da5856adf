package session

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisStoreTest(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(rdb, "af", ttl)
	return store, mr, func() {
		rdb.Close()
		mr.Close()
	}
}

func TestRedisStoreSaveLoadDropsExpired(t *testing.T) {
	store, mr, done := newRedisStoreTest(t, time.Hour)
	defer done()
	ctx := context.Background()

	now := time.Now()
	blob := &Blob{
		Origin: "http://api.test",
		Cookies: []Cookie{
			{Name: "sid", Value: "live", Expires: now.Add(10 * time.Minute).Unix()},
			{Name: "old", Value: "gone", Expires: now.Add(-time.Minute).Unix()},
		},
	}
	if err := store.Save(ctx, blob); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load(ctx, "http://api.test")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Cookies) != 1 || got.Cookies[0].Name != "sid" {
		t.Fatalf("expected only the live cookie, got %+v", got.Cookies)
	}

	ttl := mr.TTL("af:cookies:http://api.test")
	if ttl <= 0 || ttl > 10*time.Minute {
		t.Fatalf("expected ttl capped by cookie expiry, got %v", ttl)
	}
}

func TestRedisStoreLoadMissingAndDeleteIdempotent(t *testing.T) {
	store, _, done := newRedisStoreTest(t, 0)
	defer done()
	ctx := context.Background()

	if _, err := store.Load(ctx, "http://nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.Delete(ctx, "http://nobody"); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := store.Delete(ctx, "http://nobody"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestRedisStoreUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	store := NewRedisStore(rdb, "af", 0)
	mr.Close()

	_, err = store.Load(context.Background(), "http://api.test")
	if !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
}

func TestJarPersistAndRestoreAcrossInstances(t *testing.T) {
	store := NewMemoryStore()
	origin, _ := url.Parse("http://api.test:8080/api")
	ctx := context.Background()

	first, err := NewJar(origin, store)
	if err != nil {
		t.Fatalf("new jar: %v", err)
	}
	first.SetCookies(origin, []*http.Cookie{
		{Name: "sid", Value: "token-1", Path: "/", MaxAge: 3600, HttpOnly: true},
	})
	if err := first.Persist(ctx); err != nil {
		t.Fatalf("persist: %v", err)
	}

	second, err := NewJar(origin, store)
	if err != nil {
		t.Fatalf("new jar: %v", err)
	}
	if _, ok := second.Value("sid"); ok {
		t.Fatal("fresh jar should not carry cookies before restore")
	}
	if err := second.Restore(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}
	v, ok := second.Value("sid")
	if !ok || v != "token-1" {
		t.Fatalf("expected restored sid=token-1, got %q ok=%v", v, ok)
	}

	if err := second.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok := second.Value("sid"); ok {
		t.Fatal("cleared jar should not return cookies")
	}
	if _, err := store.Load(ctx, second.Origin()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected persisted blob deleted, got %v", err)
	}
}

func TestJarDeletesCookieOnNegativeMaxAge(t *testing.T) {
	origin, _ := url.Parse("http://api.test")
	jar, err := NewJar(origin, nil)
	if err != nil {
		t.Fatalf("new jar: %v", err)
	}
	jar.SetCookies(origin, []*http.Cookie{{Name: "sid", Value: "x", Path: "/"}})
	jar.SetCookies(origin, []*http.Cookie{{Name: "sid", Value: "", Path: "/", MaxAge: -1}})

	if n := len(jar.Snapshot().Cookies); n != 0 {
		t.Fatalf("expected no cookies after deletion, got %d", n)
	}
	if err := jar.Persist(context.Background()); err != nil {
		t.Fatalf("persist without store should be a no-op: %v", err)
	}
}

func TestNewJarRequiresOrigin(t *testing.T) {
	if _, err := NewJar(&url.URL{Path: "/api"}, nil); err == nil {
		t.Fatal("expected error for relative origin")
	}
}
