package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/filmio/internal/apperr"
	"github.com/iliyamo/filmio/internal/model"
	"github.com/iliyamo/filmio/internal/queue"
	"github.com/iliyamo/filmio/internal/repository"
	"github.com/iliyamo/filmio/internal/session"
	"github.com/iliyamo/filmio/internal/utils"
	"github.com/iliyamo/filmio/internal/view"
)

// AuthHandler bundles dependencies for the sign-in, register and logout
// endpoints.
type AuthHandler struct {
	Members    MemberStore
	Sessions   *session.Manager
	Events     EventPublisher
	BcryptCost int
	Now        func() time.Time
}

func NewAuthHandler(members MemberStore, sessions *session.Manager, events EventPublisher, bcryptCost int) *AuthHandler {
	return &AuthHandler{Members: members, Sessions: sessions, Events: events, BcryptCost: bcryptCost, Now: time.Now}
}

const (
	msgRegistered     = "Registration successful. You can now sign in."
	msgBadCredentials = "Invalid email or password."
	msgEmailTaken     = "An account with this email already exists."
	msgAdminSelfPick  = "The Admin membership cannot be chosen at registration."
)

// landing returns the page a principal lands on after sign-in.
func landing(p *session.Principal) string {
	if p.IsAdmin() {
		return "/admin"
	}
	return "/dashboard"
}

// LoginPage renders the sign-in and register forms.  A visitor who is
// already signed in is sent to their landing page.
func (h *AuthHandler) LoginPage(c echo.Context) error {
	if s, err := h.Sessions.Current(c); err == nil && s != nil && s.Data.Principal != nil && !h.Sessions.Expired(s) {
		return c.Redirect(http.StatusFound, landing(s.Data.Principal))
	}
	return c.Render(http.StatusOK, view.LoginTemplate, view.LoginPage{
		Base:     baseView(c, h.Sessions, "Sign in"),
		TimedOut: c.QueryParam("timeout") == "1",
	})
}

// Register creates a member with a bcrypt password hash and redirects to the
// sign-in page with a notice.
func (h *AuthHandler) Register(c echo.Context) error {
	m, err := h.register(c)
	if err != nil {
		return redirectWithError(c, h.Sessions, "/login", err)
	}
	publish(c, h.Events, queue.ActivityEvent{
		Kind:       queue.KindMemberRegistered,
		MemberID:   m.ID,
		MemberName: m.DisplayName(),
		Subject:    m.Email,
	})
	return redirectWithFlash(c, h.Sessions, "/login", msgRegistered, true)
}

func (h *AuthHandler) register(c echo.Context) (model.Member, error) {
	var req registerForm
	if err := bindForm(c, &req); err != nil {
		return model.Member{}, err
	}
	if err := req.checkPassword(); err != nil {
		return model.Member{}, err
	}
	if req.Membership == "" {
		req.Membership = model.DefaultMembership
	}
	if model.RoleFromMembership(req.Membership) == model.RoleAdmin {
		return model.Member{}, apperr.Invalid(msgAdminSelfPick)
	}

	hash, err := utils.HashPassword(req.Password, h.BcryptCost)
	if err != nil {
		return model.Member{}, apperr.StoreFailure("", err)
	}
	m := model.Member{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: hash,
		Address:      req.Address,
		Membership:   req.Membership,
		RegisteredOn: h.Now().Format("2006-01-02"),
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Members.Create(ctx, &m); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.Member{}, apperr.Conflicting(msgEmailTaken, err)
		}
		return model.Member{}, apperr.StoreFailure("", err)
	}
	return m, nil
}

// Login verifies credentials and starts a session.  Admins land on /admin,
// everyone else on /dashboard.
func (h *AuthHandler) Login(c echo.Context) error {
	p, err := h.authenticate(c)
	if err != nil {
		return redirectWithError(c, h.Sessions, "/login", err)
	}
	if _, err := h.Sessions.Start(c, *p); err != nil {
		return redirectWithError(c, h.Sessions, "/login", apperr.StoreFailure("", err))
	}
	publish(c, h.Events, queue.ActivityEvent{Kind: queue.KindMemberSignedIn, MemberID: p.MemberID, MemberName: p.Name})
	return c.Redirect(http.StatusSeeOther, landing(p))
}

func (h *AuthHandler) authenticate(c echo.Context) (*session.Principal, error) {
	var req loginForm
	if err := bindForm(c, &req); err != nil {
		return nil, err
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	m, err := h.Members.GetByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Unauthorized(msgBadCredentials)
	}
	if err != nil {
		return nil, apperr.StoreFailure("", err)
	}
	if !utils.VerifyPassword(m.PasswordHash, req.Password) {
		return nil, apperr.Unauthorized(msgBadCredentials)
	}
	return &session.Principal{MemberID: m.ID, Name: m.DisplayName(), Role: m.Role()}, nil
}

// Logout destroys the session and returns to the sign-in page.
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.Sessions.Destroy(c); err != nil {
		c.Logger().Warnf("[session] logout: %v", err)
	}
	return c.Redirect(http.StatusSeeOther, "/login")
}
