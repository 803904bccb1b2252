package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/filmio/internal/apperr"
	"github.com/iliyamo/filmio/internal/model"
	"github.com/iliyamo/filmio/internal/queue"
	"github.com/iliyamo/filmio/internal/repository"
	"github.com/iliyamo/filmio/internal/session"
	"github.com/iliyamo/filmio/internal/view"
)

// TopRatedLimit is how many films the dashboard ranks.
const TopRatedLimit = 5

const (
	msgJoinSent     = "Join request sent for this screening."
	msgJoinRepeat   = "You have already requested to join this screening."
	msgJoinInvalid  = "Invalid screening selection."
	msgJoinFailed   = "We could not submit your request. Please try again later."
	msgUnknownInput = "Unknown action."
)

// DashboardHandler serves the member-facing catalog and screening browser.
type DashboardHandler struct {
	Members    MemberStore
	Films      FilmStore
	Screenings ScreeningStore
	Ratings    RatingStore
	Sessions   *session.Manager
	Events     EventPublisher
}

func NewDashboardHandler(m MemberStore, f FilmStore, s ScreeningStore, r RatingStore, sm *session.Manager, ev EventPublisher) *DashboardHandler {
	return &DashboardHandler{Members: m, Films: f, Screenings: s, Ratings: r, Sessions: sm, Events: ev}
}

// Show renders the dashboard: profile, filtered catalog, top rated films and
// every screening with the member's join state.
func (h *DashboardHandler) Show(c echo.Context) error {
	p := session.PrincipalFrom(c)
	filter := model.FilmFilter{
		Genre:  strings.TrimSpace(c.QueryParam("genre")),
		Search: strings.TrimSpace(c.QueryParam("search")),
		Sort:   model.ParseFilmSort(strings.TrimSpace(c.QueryParam("sort"))),
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	page := view.DashboardPage{Filter: filter}
	var err error
	if page.Member, err = h.Members.GetByID(ctx, p.MemberID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// The member row was removed by an admin mid-session.
			_ = h.Sessions.Destroy(c)
			return c.Redirect(http.StatusFound, "/login")
		}
		return serverError(c, err)
	}
	if page.FilmCount, err = h.Films.Count(ctx); err != nil {
		return serverError(c, err)
	}
	if page.Genres, err = h.Films.Genres(ctx); err != nil {
		return serverError(c, err)
	}
	if page.Films, err = h.Films.List(ctx, filter); err != nil {
		return serverError(c, err)
	}
	if page.TopRated, err = h.Ratings.TopRated(ctx, TopRatedLimit); err != nil {
		return serverError(c, err)
	}
	screenings, err := h.Screenings.ListChronological(ctx)
	if err != nil {
		return serverError(c, err)
	}
	requested, err := h.Screenings.RequestedBy(ctx, p.MemberID)
	if err != nil {
		return serverError(c, err)
	}
	page.Screenings = make([]view.ScreeningRow, 0, len(screenings))
	for _, s := range screenings {
		page.Screenings = append(page.Screenings, view.ScreeningRow{Screening: s, Requested: requested[s.ID]})
	}

	page.Base = baseView(c, h.Sessions, "Dashboard")
	return c.Render(http.StatusOK, view.DashboardTemplate, page)
}

// Post dispatches the dashboard form actions.
func (h *DashboardHandler) Post(c echo.Context) error {
	switch c.FormValue("action") {
	case "join_screening":
		return h.join(c)
	case "logout":
		if err := h.Sessions.Destroy(c); err != nil {
			c.Logger().Warnf("[session] logout: %v", err)
		}
		return c.Redirect(http.StatusSeeOther, "/login")
	}
	return redirectWithFlash(c, h.Sessions, selfPath(c), msgUnknownInput, false)
}

// join records the member's request to attend a screening.  The unique key
// on (screening, member) turns a repeat into a notice rather than a row.
func (h *DashboardHandler) join(c echo.Context) error {
	p := session.PrincipalFrom(c)
	var req joinForm
	if err := bindForm(c, &req); err != nil {
		return redirectWithError(c, h.Sessions, selfPath(c), err)
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	err := h.Screenings.RequestJoin(ctx, req.ScreeningID, p.MemberID)
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return redirectWithError(c, h.Sessions, selfPath(c), apperr.Conflicting(msgJoinRepeat, err))
	case errors.Is(err, repository.ErrNotFound):
		return redirectWithError(c, h.Sessions, selfPath(c), apperr.Invalid(msgJoinInvalid))
	case err != nil:
		return redirectWithError(c, h.Sessions, selfPath(c), apperr.StoreFailure(msgJoinFailed, err))
	}

	publish(c, h.Events, queue.ActivityEvent{
		Kind:       queue.KindJoinRequested,
		MemberID:   p.MemberID,
		MemberName: p.Name,
		SubjectID:  req.ScreeningID,
	})
	return redirectWithFlash(c, h.Sessions, selfPath(c), msgJoinSent, true)
}
