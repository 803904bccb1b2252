package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/filmio/internal/apperr"
	"github.com/iliyamo/filmio/internal/model"
	"github.com/iliyamo/filmio/internal/queue"
	"github.com/iliyamo/filmio/internal/repository"
	"github.com/iliyamo/filmio/internal/session"
	"github.com/iliyamo/filmio/internal/view"
)

// AdminHandler serves the admin panel: film, member and screening CRUD plus
// CSV export, all behind a single POST endpoint.
type AdminHandler struct {
	Members    MemberStore
	Films      FilmStore
	Screenings ScreeningStore
	Sessions   *session.Manager
	Events     EventPublisher
	Now        func() time.Time
}

func NewAdminHandler(m MemberStore, f FilmStore, s ScreeningStore, sm *session.Manager, ev EventPublisher) *AdminHandler {
	return &AdminHandler{Members: m, Films: f, Screenings: s, Sessions: sm, Events: ev, Now: time.Now}
}

const (
	msgFilmMissing      = "That film no longer exists."
	msgMemberMissing    = "That member no longer exists."
	msgScreeningMissing = "That screening no longer exists."
	msgMemberEmailTaken = "A member with this email already exists."
	msgPickCatalogFilm  = "Please choose a film from the catalog."
	msgSelfDelete       = "You cannot remove your own account."
	msgSelfDemote       = "You cannot change your own role."
)

// Show renders the admin panel.  q filters films by title; edit selects the
// film shown in the edit form.
func (h *AdminHandler) Show(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	q := strings.TrimSpace(c.QueryParam("q"))
	page := view.AdminPage{
		Query:       q,
		Today:       h.Now().Format("2006-01-02"),
		ExportTypes: exportTypes,
	}
	var err error
	if q != "" {
		page.Films, err = h.Films.SearchByTitle(ctx, q)
	} else {
		page.Films, err = h.Films.List(ctx, model.FilmFilter{Sort: model.SortByName})
	}
	if err != nil {
		return serverError(c, err)
	}
	if page.FilmCount, err = h.Films.Count(ctx); err != nil {
		return serverError(c, err)
	}
	if page.Members, err = h.Members.List(ctx); err != nil {
		return serverError(c, err)
	}
	if page.Screenings, err = h.Screenings.ListLatestFirst(ctx); err != nil {
		return serverError(c, err)
	}
	if id, _ := strconv.ParseUint(c.QueryParam("edit"), 10, 64); id > 0 {
		f, err := h.Films.GetByID(ctx, id)
		switch {
		case err == nil:
			page.Editing = &f
		case !errors.Is(err, repository.ErrNotFound):
			return serverError(c, err)
		}
	}

	page.Base = baseView(c, h.Sessions, "Admin")
	return c.Render(http.StatusOK, view.AdminTemplate, page)
}

// Post dispatches on the target and action form fields.  Every mutation
// flashes its outcome and redirects to the panel without query string.
func (h *AdminHandler) Post(c echo.Context) error {
	target := c.FormValue("target")
	action := c.FormValue("action")

	if target == "export" {
		return h.export(c)
	}

	var (
		notice string
		err    error
	)
	switch target + "/" + action {
	case "films/create":
		notice, err = h.createFilm(c)
	case "films/update":
		notice, err = h.updateFilm(c)
	case "films/delete":
		notice, err = h.deleteFilm(c)
	case "members/create":
		notice, err = h.createMember(c)
	case "members/update_role":
		notice, err = h.updateRole(c)
	case "members/delete":
		notice, err = h.deleteMember(c)
	case "screenings/create":
		notice, err = h.createScreening(c)
	case "screenings/delete":
		notice, err = h.deleteScreening(c)
	default:
		err = apperr.Invalid(msgUnknownInput)
	}
	if err != nil {
		return redirectWithError(c, h.Sessions, selfPath(c), err)
	}

	p := session.PrincipalFrom(c)
	publish(c, h.Events, queue.ActivityEvent{
		Kind:       queue.KindAdminChange,
		MemberID:   p.MemberID,
		MemberName: p.Name,
		Subject:    notice,
		Detail:     target + "." + action,
	})
	return redirectWithFlash(c, h.Sessions, selfPath(c), notice, true)
}

// storeErr classifies a repository error from an admin mutation.
func storeErr(err error, missing string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.Invalid(missing)
	}
	return apperr.StoreFailure("", err)
}

func (h *AdminHandler) createFilm(c echo.Context) (string, error) {
	var req filmForm
	if err := bindForm(c, &req); err != nil {
		return "", err
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	f := model.Film{Title: req.Title, Director: req.Director, Year: req.Year, Genre: req.Genre, Synopsis: req.Synopsis}
	if err := h.Films.Create(ctx, &f); err != nil {
		return "", apperr.StoreFailure("", err)
	}
	return fmt.Sprintf("Film %q was added successfully.", f.Title), nil
}

func (h *AdminHandler) updateFilm(c echo.Context) (string, error) {
	var req filmForm
	if err := bindForm(c, &req); err != nil {
		return "", err
	}
	if req.FilmID == 0 {
		return "", apperr.Invalid(msgFilmMissing)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	f := model.Film{ID: req.FilmID, Title: req.Title, Director: req.Director, Year: req.Year, Genre: req.Genre, Synopsis: req.Synopsis}
	if err := h.Films.Update(ctx, f); err != nil {
		return "", storeErr(err, msgFilmMissing)
	}
	return fmt.Sprintf("Film %q was updated successfully.", f.Title), nil
}

func (h *AdminHandler) deleteFilm(c echo.Context) (string, error) {
	var req idForm
	if err := bindForm(c, &req); err != nil || req.FilmID == 0 {
		return "", apperr.Invalid(msgFilmMissing)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Films.Delete(ctx, req.FilmID); err != nil {
		return "", storeErr(err, msgFilmMissing)
	}
	return "Film was deleted successfully.", nil
}

// createMember adds a member without a password.  The full name goes into
// the first name column and the role into membership.
func (h *AdminHandler) createMember(c echo.Context) (string, error) {
	var req memberForm
	if err := bindForm(c, &req); err != nil {
		return "", err
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	m := model.Member{
		FirstName:    req.Name,
		Email:        req.Email,
		Membership:   req.Role,
		RegisteredOn: h.Now().Format("2006-01-02"),
	}
	if err := h.Members.Create(ctx, &m); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return "", apperr.Conflicting(msgMemberEmailTaken, err)
		}
		return "", apperr.StoreFailure("", err)
	}
	return fmt.Sprintf("Member %q was added successfully.", req.Name), nil
}

func (h *AdminHandler) updateRole(c echo.Context) (string, error) {
	var req roleForm
	if err := bindForm(c, &req); err != nil {
		return "", err
	}
	p := session.PrincipalFrom(c)
	if p != nil && p.MemberID == req.MemberID && model.RoleFromMembership(req.Role) != model.RoleAdmin {
		return "", apperr.Invalid(msgSelfDemote)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Members.UpdateMembership(ctx, req.MemberID, req.Role); err != nil {
		return "", storeErr(err, msgMemberMissing)
	}
	return fmt.Sprintf("Member role was updated to %q.", req.Role), nil
}

func (h *AdminHandler) deleteMember(c echo.Context) (string, error) {
	var req idForm
	if err := bindForm(c, &req); err != nil || req.MemberID == 0 {
		return "", apperr.Invalid(msgMemberMissing)
	}
	if p := session.PrincipalFrom(c); p != nil && p.MemberID == req.MemberID {
		return "", apperr.Invalid(msgSelfDelete)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Members.Delete(ctx, req.MemberID); err != nil {
		return "", storeErr(err, msgMemberMissing)
	}
	return "Member was removed successfully.", nil
}

func (h *AdminHandler) createScreening(c echo.Context) (string, error) {
	var req screeningForm
	if err := bindForm(c, &req); err != nil {
		return "", err
	}
	if req.Time == "" {
		req.Time = model.DefaultScreeningTime
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	ok, err := h.Films.Exists(ctx, req.FilmID)
	if err != nil {
		return "", apperr.StoreFailure("", err)
	}
	if !ok {
		return "", apperr.Invalid(msgPickCatalogFilm)
	}
	s := model.Screening{FilmID: req.FilmID, Date: req.Date, Time: req.Time, Venue: req.Venue}
	if err := h.Screenings.Create(ctx, &s); err != nil {
		return "", apperr.StoreFailure("", err)
	}
	return "Screening was scheduled successfully.", nil
}

func (h *AdminHandler) deleteScreening(c echo.Context) (string, error) {
	var req idForm
	if err := bindForm(c, &req); err != nil || req.ScreeningID == 0 {
		return "", apperr.Invalid(msgScreeningMissing)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Screenings.Delete(ctx, req.ScreeningID); err != nil {
		return "", storeErr(err, msgScreeningMissing)
	}
	return "Screening was deleted successfully.", nil
}
