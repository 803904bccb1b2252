// Package session keeps per-browser state on the server.  The cookie holds a
// signed token naming a record in a Store; the record carries the signed-in
// member (if any), the time of the last request and a one-shot flash message.
package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/filmio/internal/model"
	"github.com/iliyamo/filmio/internal/utils"
)

const (
	CookieName       = "filmio_session"
	DefaultTimeout   = 1800 * time.Second
	DefaultRecordTTL = 24 * time.Hour

	ctxSession   = "session"
	ctxPrincipal = "principal"
)

// Principal is the member identity carried by a session.
type Principal struct {
	MemberID uint64     `json:"member_id"`
	Name     string     `json:"name"`
	Role     model.Role `json:"role"`
}

// IsAdmin reports whether the principal may use the admin panel.
func (p *Principal) IsAdmin() bool { return p != nil && p.Role == model.RoleAdmin }

// Flash is a notice shown once on the next rendered page.
type Flash struct {
	Text    string `json:"text"`
	Success bool   `json:"success"`
}

// Data is the stored record.  Anonymous sessions exist only to carry a flash
// from the register form to the sign-in page.
type Data struct {
	Principal    *Principal `json:"principal,omitempty"`
	LastActivity time.Time  `json:"last_activity"`
	Flash        *Flash     `json:"flash,omitempty"`
}

func (d *Data) clone() Data {
	out := Data{LastActivity: d.LastActivity}
	if d.Principal != nil {
		p := *d.Principal
		out.Principal = &p
	}
	if d.Flash != nil {
		f := *d.Flash
		out.Flash = &f
	}
	return out
}

// Session pairs a loaded record with its id.
type Session struct {
	ID   string
	Data *Data
}

// Options configures a Manager.
type Options struct {
	Secret    string        // HMAC key for the cookie token
	Timeout   time.Duration // sliding idle timeout
	RecordTTL time.Duration // how long an idle record is kept; at least twice Timeout
	Secure    bool          // mark the cookie Secure
	Now       func() time.Time
}

// Manager issues, loads and destroys sessions for echo requests.
type Manager struct {
	store     Store
	secret    string
	timeout   time.Duration
	recordTTL time.Duration
	secure    bool
	now       func() time.Time
}

func NewManager(store Store, opts Options) *Manager {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RecordTTL <= 0 {
		opts.RecordTTL = DefaultRecordTTL
	}
	if opts.RecordTTL < 2*opts.Timeout {
		opts.RecordTTL = 2 * opts.Timeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{
		store:     store,
		secret:    opts.Secret,
		timeout:   opts.Timeout,
		recordTTL: opts.RecordTTL,
		secure:    opts.Secure,
		now:       opts.Now,
	}
}

// ttl keeps records around well past the idle timeout so an expired session
// can still be recognised and reported as a timeout rather than a missing
// login.
func (m *Manager) ttl() time.Duration { return m.recordTTL }

// Current returns the session named by the request cookie, or nil when the
// cookie is absent, forged or points at nothing.  The result is cached on
// the echo context.
func (m *Manager) Current(c echo.Context) (*Session, error) {
	if s, ok := c.Get(ctxSession).(*Session); ok {
		return s, nil
	}
	ck, err := c.Cookie(CookieName)
	if err != nil || ck.Value == "" {
		return nil, nil
	}
	sid, err := utils.ParseSessionToken(m.secret, ck.Value)
	if err != nil {
		return nil, nil
	}
	d, err := m.store.Load(c.Request().Context(), sid)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s := &Session{ID: sid, Data: d}
	c.Set(ctxSession, s)
	return s, nil
}

// Expired reports whether the session has been idle longer than the timeout.
func (m *Manager) Expired(s *Session) bool {
	if s == nil || s.Data.LastActivity.IsZero() {
		return false
	}
	return m.now().Sub(s.Data.LastActivity) > m.timeout
}

// Start establishes a signed-in session for p.  Any previous session for the
// request is destroyed so the id changes across sign-in.
func (m *Manager) Start(c echo.Context, p Principal) (*Session, error) {
	if old, _ := m.Current(c); old != nil {
		_ = m.store.Destroy(c.Request().Context(), old.ID)
	}
	return m.create(c, &Data{Principal: &p, LastActivity: m.now()})
}

func (m *Manager) create(c echo.Context, d *Data) (*Session, error) {
	sid := uuid.NewString()
	tok, err := utils.NewSessionToken(m.secret, sid, m.now())
	if err != nil {
		return nil, err
	}
	if err := m.store.Save(c.Request().Context(), sid, d, m.ttl()); err != nil {
		return nil, err
	}
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    tok,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	s := &Session{ID: sid, Data: d}
	c.Set(ctxSession, s)
	return s, nil
}

// Touch refreshes the idle timer.
func (m *Manager) Touch(c echo.Context, s *Session) error {
	s.Data.LastActivity = m.now()
	return m.store.Save(c.Request().Context(), s.ID, s.Data, m.ttl())
}

// Destroy removes the request's session and clears the cookie.
func (m *Manager) Destroy(c echo.Context) error {
	s, err := m.Current(c)
	if err != nil {
		return err
	}
	if s != nil {
		if err := m.store.Destroy(c.Request().Context(), s.ID); err != nil {
			return err
		}
	}
	c.Set(ctxSession, nil)
	c.Set(ctxPrincipal, nil)
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// SetFlash stores a notice for the next rendered page, creating an anonymous
// session when the request has none.
func (m *Manager) SetFlash(c echo.Context, text string, success bool) error {
	s, err := m.Current(c)
	if err != nil {
		return err
	}
	f := &Flash{Text: text, Success: success}
	if s == nil {
		_, err = m.create(c, &Data{LastActivity: m.now(), Flash: f})
		return err
	}
	s.Data.Flash = f
	return m.store.Save(c.Request().Context(), s.ID, s.Data, m.ttl())
}

// PopFlash returns the pending notice, if any, and clears it.
func (m *Manager) PopFlash(c echo.Context) (*Flash, error) {
	s, err := m.Current(c)
	if err != nil || s == nil || s.Data.Flash == nil {
		return nil, err
	}
	f := s.Data.Flash
	s.Data.Flash = nil
	if err := m.store.Save(c.Request().Context(), s.ID, s.Data, m.ttl()); err != nil {
		return nil, err
	}
	return f, nil
}

// WithPrincipal stores p on the echo context for downstream handlers.
func WithPrincipal(c echo.Context, p *Principal) { c.Set(ctxPrincipal, p) }

// PrincipalFrom returns the principal placed by the session middleware.
func PrincipalFrom(c echo.Context) *Principal {
	p, _ := c.Get(ctxPrincipal).(*Principal)
	return p
}

// Ping checks that the store answers; used by the health endpoint.
func (m *Manager) Ping(ctx context.Context) error {
	_, err := m.store.Load(ctx, "healthcheck")
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}
