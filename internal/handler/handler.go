package handler // handler defines http handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/filmio/internal/apperr"
	"github.com/iliyamo/filmio/internal/model"
	"github.com/iliyamo/filmio/internal/queue"
	"github.com/iliyamo/filmio/internal/session"
	"github.com/iliyamo/filmio/internal/view"
)

// dbTimeout bounds every database call made while serving a request.
const dbTimeout = 5 * time.Second

// MemberStore is the subset of repository.MemberRepo used by handlers.
type MemberStore interface {
	Create(ctx context.Context, m *model.Member) error
	GetByEmail(ctx context.Context, email string) (model.Member, error)
	GetByID(ctx context.Context, id uint64) (model.Member, error)
	List(ctx context.Context) ([]model.Member, error)
	UpdateMembership(ctx context.Context, id uint64, membership string) error
	Delete(ctx context.Context, id uint64) error
}

// FilmStore is the subset of repository.FilmRepo used by handlers.
type FilmStore interface {
	Create(ctx context.Context, f *model.Film) error
	Update(ctx context.Context, f model.Film) error
	Delete(ctx context.Context, id uint64) error
	GetByID(ctx context.Context, id uint64) (model.Film, error)
	Exists(ctx context.Context, id uint64) (bool, error)
	List(ctx context.Context, f model.FilmFilter) ([]model.Film, error)
	SearchByTitle(ctx context.Context, title string) ([]model.Film, error)
	Count(ctx context.Context) (int, error)
	Genres(ctx context.Context) ([]string, error)
}

// ScreeningStore is the subset of repository.ScreeningRepo used by handlers.
type ScreeningStore interface {
	Create(ctx context.Context, s *model.Screening) error
	Delete(ctx context.Context, id uint64) error
	ListChronological(ctx context.Context) ([]model.Screening, error)
	ListLatestFirst(ctx context.Context) ([]model.Screening, error)
	RequestJoin(ctx context.Context, screeningID, memberID uint64) error
	RequestedBy(ctx context.Context, memberID uint64) (map[uint64]bool, error)
}

// RatingStore is the subset of repository.RatingRepo used by handlers.
type RatingStore interface {
	Upsert(ctx context.Context, filmID, memberID uint64, score int, comment string) error
	Recent(ctx context.Context) ([]model.Rating, error)
	Averages(ctx context.Context) ([]model.RatingAggregate, error)
	TopRated(ctx context.Context, n int) ([]model.RatingAggregate, error)
}

// EventPublisher sends activity events.  Failures never abort a request.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.ActivityEvent) error
}

func dbCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// selfPath is the request path without its query string; mutating posts
// redirect here so a refresh cannot resubmit the form.
func selfPath(c echo.Context) string { return c.Request().URL.Path }

// redirectWithFlash stores a notice and redirects with 303 See Other.
func redirectWithFlash(c echo.Context, sm *session.Manager, to, text string, success bool) error {
	if err := sm.SetFlash(c, text, success); err != nil {
		c.Logger().Errorf("[flash] save failed: %v", err)
	}
	return c.Redirect(http.StatusSeeOther, to)
}

// redirectWithError flashes the member-facing text for err.  Store failures
// are logged with their cause.
func redirectWithError(c echo.Context, sm *session.Manager, to string, err error) error {
	if apperr.KindOf(err) == apperr.Store {
		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	}
	return redirectWithFlash(c, sm, to, apperr.Message(err), false)
}

// baseView collects the fields every page needs and consumes the flash.
func baseView(c echo.Context, sm *session.Manager, title string) view.Base {
	f, err := sm.PopFlash(c)
	if err != nil {
		c.Logger().Warnf("[flash] read failed: %v", err)
	}
	return view.Base{
		Title:     title,
		Flash:     f,
		CSRF:      csrfToken(c),
		Principal: session.PrincipalFrom(c),
	}
}

// csrfToken returns the token placed by echo's CSRF middleware, if enabled.
func csrfToken(c echo.Context) string {
	s, _ := c.Get("csrf").(string)
	return s
}

// publish sends ev best-effort; a broker failure is logged and ignored.
func publish(c echo.Context, events EventPublisher, ev queue.ActivityEvent) {
	if events == nil {
		return
	}
	if ev.OccurredAt == "" {
		ev.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	}
	if err := events.Publish(c.Request().Context(), ev); err != nil {
		c.Logger().Warnf("[activity] publish %s failed: %v", ev.Kind, err)
	}
}

// serverError renders the generic retry text for failures while building a
// page; the cause is logged.
func serverError(c echo.Context, err error) error {
	c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	return c.String(http.StatusInternalServerError, apperr.GenericRetry)
}
