package handler

import (
	"context"
	"html"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/filmio/internal/middleware"
	"github.com/iliyamo/filmio/internal/model"
	"github.com/iliyamo/filmio/internal/session"
	"github.com/iliyamo/filmio/internal/utils"
	"github.com/iliyamo/filmio/internal/view"
)

const testPassword = "popcorn-please"

type env struct {
	e          *echo.Echo
	members    *fakeMembers
	films      *fakeFilms
	screenings *fakeScreenings
	ratings    *fakeRatings
	events     *fakeEvents
	sessions   *session.Manager
	store      *session.MemoryStore
	now        time.Time
}

func newEnv(t *testing.T) *env {
	t.Helper()
	films := newFakeFilms()
	en := &env{
		members:    &fakeMembers{},
		films:      films,
		screenings: newFakeScreenings(films),
		ratings:    newFakeRatings(films),
		events:     &fakeEvents{},
		store:      session.NewMemoryStore(),
		now:        time.Date(2026, 10, 16, 18, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return en.now }
	en.sessions = session.NewManager(en.store, session.Options{Secret: "test", Timeout: 30 * time.Minute, Now: clock})

	e := echo.New()
	e.Renderer = view.MustNew()
	e.Validator = NewFormValidator()

	auth := NewAuthHandler(en.members, en.sessions, en.events, bcrypt.MinCost)
	auth.Now = clock
	dash := NewDashboardHandler(en.members, en.films, en.screenings, en.ratings, en.sessions, en.events)
	rate := NewRatingsHandler(en.films, en.ratings, en.sessions, en.events)
	adm := NewAdminHandler(en.members, en.films, en.screenings, en.sessions, en.events)
	adm.Now = clock

	e.GET("/login", auth.LoginPage)
	e.POST("/login", auth.Login)
	e.POST("/register", auth.Register)
	e.POST("/logout", auth.Logout)

	gate := middleware.RequireSession(en.sessions)
	e.GET("/dashboard", dash.Show, gate)
	e.POST("/dashboard", dash.Post, gate)
	e.GET("/ratings", rate.Show, gate)
	e.POST("/ratings", rate.Post, gate)

	admin := e.Group("/admin", middleware.RequireSession(en.sessions), middleware.RequireAdmin())
	admin.GET("", adm.Show)
	admin.POST("", adm.Post)

	en.e = e
	return en
}

// seedMember stores a member who can sign in with testPassword.
func (en *env) seedMember(t *testing.T, first, last, email, membership, registered string) model.Member {
	t.Helper()
	hash, err := utils.HashPassword(testPassword, bcrypt.MinCost)
	require.NoError(t, err)
	m := model.Member{FirstName: first, LastName: last, Email: email, PasswordHash: hash, Membership: membership, RegisteredOn: registered}
	require.NoError(t, en.members.Create(context.Background(), &m))
	return m
}

func (en *env) seedFilm(t *testing.T, title, director string, year int, genre string) model.Film {
	t.Helper()
	f := model.Film{Title: title, Director: director, Year: year, Genre: genre}
	require.NoError(t, en.films.Create(context.Background(), &f))
	return f
}

func (en *env) seedScreening(t *testing.T, filmID uint64, date, tm, venue string) model.Screening {
	t.Helper()
	s := model.Screening{FilmID: filmID, Date: date, Time: tm, Venue: venue}
	require.NoError(t, en.screenings.Create(context.Background(), &s))
	return s
}

// browser replays the session cookie between requests.
type browser struct {
	t      *testing.T
	en     *env
	cookie *http.Cookie
}

func (en *env) browser(t *testing.T) *browser { return &browser{t: t, en: en} }

func (b *browser) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	}
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}
	rec := httptest.NewRecorder()
	b.en.e.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.Name != session.CookieName {
			continue
		}
		if ck.MaxAge < 0 {
			b.cookie = nil
		} else {
			b.cookie = ck
		}
	}
	return rec
}

func (b *browser) get(target string) *httptest.ResponseRecorder { return b.do(http.MethodGet, target, nil) }

func (b *browser) post(target string, form url.Values) *httptest.ResponseRecorder {
	return b.do(http.MethodPost, target, form)
}

// follow asserts a redirect and loads its target.
func (b *browser) follow(rec *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	b.t.Helper()
	require.Contains(b.t, []int{http.StatusFound, http.StatusSeeOther}, rec.Code, "expected redirect, body: %s", rec.Body.String())
	return b.get(rec.Header().Get(echo.HeaderLocation))
}

func (b *browser) signIn(email string) {
	b.t.Helper()
	rec := b.post("/login", url.Values{"email": {email}, "password": {testPassword}})
	require.Equal(b.t, http.StatusSeeOther, rec.Code)
	require.NotEqual(b.t, "/login", rec.Header().Get(echo.HeaderLocation), "sign-in failed")
}

// assertFlash checks that the page after rec's redirect shows text.
func (b *browser) assertFlash(rec *httptest.ResponseRecorder, text string) *httptest.ResponseRecorder {
	b.t.Helper()
	page := b.follow(rec)
	assert.Contains(b.t, page.Body.String(), html.EscapeString(text))
	return page
}
