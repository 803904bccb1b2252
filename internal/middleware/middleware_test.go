package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/filmio/internal/config"
	"github.com/iliyamo/filmio/internal/model"
	"github.com/iliyamo/filmio/internal/session"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

type gate struct {
	e     *echo.Echo
	m     *session.Manager
	store *session.MemoryStore
	clock *fakeClock
}

func newGate() *gate {
	st := session.NewMemoryStore()
	g := newGateOn(st)
	g.store = st
	return g
}

func newGateOn(st session.Store) *gate {
	clk := &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	m := session.NewManager(st, session.Options{Secret: "k", Timeout: 30 * time.Minute, Now: clk.now})
	e := echo.New()

	e.GET("/signin/:id/:role", func(c echo.Context) error {
		role := model.RoleMember
		if c.Param("role") == "admin" {
			role = model.RoleAdmin
		}
		id := uint64(1)
		if c.Param("id") == "2" {
			id = 2
		}
		if _, err := m.Start(c, session.Principal{MemberID: id, Name: "Test", Role: role}); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	})
	member := e.Group("/dashboard", RequireSession(m))
	member.GET("", func(c echo.Context) error {
		return c.String(http.StatusOK, session.PrincipalFrom(c).Name)
	})
	admin := e.Group("/admin", RequireSession(m), RequireAdmin())
	admin.GET("", func(c echo.Context) error { return c.String(http.StatusOK, "admin") })

	return &gate{e: e, m: m, clock: clk}
}

func (g *gate) signIn(t *testing.T, path string) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	g.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == session.CookieName {
			return ck
		}
	}
	t.Fatal("no session cookie")
	return nil
}

func (g *gate) get(path string, ck *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if ck != nil {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	g.e.ServeHTTP(rec, req)
	return rec
}

func TestRequireSessionRedirectsAnonymous(t *testing.T) {
	g := newGate()
	rec := g.get("/dashboard", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, LoginPath, rec.Header().Get(echo.HeaderLocation))
}

func TestRequireSessionAllowsActiveSession(t *testing.T) {
	g := newGate()
	ck := g.signIn(t, "/signin/1/member")

	g.clock.t = g.clock.t.Add(10 * time.Minute)
	rec := g.get("/dashboard", ck)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Test", rec.Body.String())
}

func TestRequireSessionIdleTimeout(t *testing.T) {
	g := newGate()
	ck := g.signIn(t, "/signin/1/member")

	g.clock.t = g.clock.t.Add(31 * time.Minute)
	rec := g.get("/dashboard", ck)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, TimeoutPath, rec.Header().Get(echo.HeaderLocation))
	assert.Equal(t, 0, g.store.Len(), "expired session is destroyed")

	rec = g.get("/dashboard", ck)
	assert.Equal(t, LoginPath, rec.Header().Get(echo.HeaderLocation))
}

func TestRequireSessionReportsTimeoutAfterLongIdle(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	for _, idle := range []time.Duration{31 * time.Minute, 61 * time.Minute, 12 * time.Hour} {
		g := newGateOn(session.NewRedisStore(rdb, session.DefaultRedisPrefix))
		ck := g.signIn(t, "/signin/1/member")

		g.clock.t = g.clock.t.Add(idle)
		mr.FastForward(idle)
		rec := g.get("/dashboard", ck)
		assert.Equal(t, http.StatusFound, rec.Code, "idle %s", idle)
		assert.Equal(t, TimeoutPath, rec.Header().Get(echo.HeaderLocation), "idle %s", idle)
	}
}

func TestRequireSessionSlidesWindow(t *testing.T) {
	g := newGate()
	ck := g.signIn(t, "/signin/1/member")

	for i := 0; i < 3; i++ {
		g.clock.t = g.clock.t.Add(20 * time.Minute)
		rec := g.get("/dashboard", ck)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}
}

func TestRequireAdmin(t *testing.T) {
	g := newGate()

	member := g.signIn(t, "/signin/1/member")
	rec := g.get("/admin", member)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, LoginPath, rec.Header().Get(echo.HeaderLocation))

	admin := g.signIn(t, "/signin/2/admin")
	rec = g.get("/admin", admin)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTokenBucketBlocksAfterCapacity(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            10 * time.Minute,
		KeyStrategy:    "ip_route",
		Prefix:         "test:rl",
	}
	e := echo.New()
	e.POST("/login", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, NewTokenBucket(cfg, rdb))

	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, post().Code)
	assert.Equal(t, http.StatusNoContent, post().Code)
	rec := post()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
}

func TestTokenBucketDisabledWithoutRedis(t *testing.T) {
	e := echo.New()
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1}
	e.POST("/login", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, NewTokenBucket(cfg, nil))

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
}

func TestBuildRateKeyUsesMember(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/ratings", nil)
	req.RemoteAddr = "10.0.0.9:80"
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/ratings")

	cfg := config.RateLimitConfig{Prefix: "p", KeyStrategy: "user_route"}
	assert.Equal(t, "p:user:guest:route:POST /ratings", buildRateKey(cfg, c))

	session.WithPrincipal(c, &session.Principal{MemberID: 42})
	assert.Equal(t, "p:user:42:route:POST /ratings", buildRateKey(cfg, c))
}
