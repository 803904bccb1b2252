package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/filmio/internal/apperr"
	"github.com/iliyamo/filmio/internal/model"
	"github.com/iliyamo/filmio/internal/queue"
	"github.com/iliyamo/filmio/internal/session"
	"github.com/iliyamo/filmio/internal/view"
)

const (
	msgRatingSaved  = "Your rating has been saved. Thanks for sharing!"
	msgRatingFilm   = "Please choose a film from the catalog to rate."
	msgRatingRange  = "Ratings must be between 1 and 5 stars."
	msgRatingFailed = "We could not save your rating right now. Please try again later."
)

// RatingsHandler serves the rating form, recent ratings and averages.
type RatingsHandler struct {
	Films    FilmStore
	Ratings  RatingStore
	Sessions *session.Manager
	Events   EventPublisher
}

func NewRatingsHandler(f FilmStore, r RatingStore, sm *session.Manager, ev EventPublisher) *RatingsHandler {
	return &RatingsHandler{Films: f, Ratings: r, Sessions: sm, Events: ev}
}

// Show renders the ratings page.  film_id preselects a film when it names
// one in the catalog.
func (h *RatingsHandler) Show(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	films, err := h.Films.List(ctx, model.FilmFilter{Sort: model.SortByName})
	if err != nil {
		return serverError(c, err)
	}
	recent, err := h.Ratings.Recent(ctx)
	if err != nil {
		return serverError(c, err)
	}
	averages, err := h.Ratings.Averages(ctx)
	if err != nil {
		return serverError(c, err)
	}

	selected, _ := strconv.ParseUint(c.QueryParam("film_id"), 10, 64)
	if !containsFilm(films, selected) {
		selected = 0
	}

	return c.Render(http.StatusOK, view.RatingsTemplate, view.RatingsPage{
		Base:           baseView(c, h.Sessions, "Ratings"),
		Films:          films,
		SelectedFilmID: selected,
		Recent:         recent,
		Averages:       averages,
	})
}

func containsFilm(films []model.Film, id uint64) bool {
	for _, f := range films {
		if f.ID == id {
			return true
		}
	}
	return false
}

// Post dispatches the ratings form actions.
func (h *RatingsHandler) Post(c echo.Context) error {
	if c.FormValue("action") != "submit_rating" {
		return redirectWithFlash(c, h.Sessions, selfPath(c), msgUnknownInput, false)
	}
	return h.submit(c)
}

// submit upserts the member's rating for a film.  A resubmission replaces
// score and comment.
func (h *RatingsHandler) submit(c echo.Context) error {
	p := session.PrincipalFrom(c)
	var req ratingForm
	if err := bindForm(c, &req); err != nil {
		return redirectWithError(c, h.Sessions, selfPath(c), err)
	}
	score, err := req.score()
	if err != nil {
		return redirectWithError(c, h.Sessions, selfPath(c), err)
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	ok, err := h.Films.Exists(ctx, req.FilmID)
	if err != nil {
		return redirectWithError(c, h.Sessions, selfPath(c), apperr.StoreFailure(msgRatingFailed, err))
	}
	if !ok {
		return redirectWithError(c, h.Sessions, selfPath(c), apperr.Invalid(msgRatingFilm))
	}
	if err := h.Ratings.Upsert(ctx, req.FilmID, p.MemberID, score, req.Comment); err != nil {
		return redirectWithError(c, h.Sessions, selfPath(c), apperr.StoreFailure(msgRatingFailed, err))
	}

	publish(c, h.Events, queue.ActivityEvent{
		Kind:       queue.KindRatingSaved,
		MemberID:   p.MemberID,
		MemberName: p.Name,
		SubjectID:  req.FilmID,
		Detail:     fmt.Sprintf("score=%d", score),
	})
	to := fmt.Sprintf("%s?film_id=%d", selfPath(c), req.FilmID)
	return redirectWithFlash(c, h.Sessions, to, msgRatingSaved, true)
}
