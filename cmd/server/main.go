package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/filmio/internal/config"
	"github.com/iliyamo/filmio/internal/database"
	"github.com/iliyamo/filmio/internal/handler"
	"github.com/iliyamo/filmio/internal/middleware"
	"github.com/iliyamo/filmio/internal/repository"
	"github.com/iliyamo/filmio/internal/router"
	publisher "github.com/iliyamo/filmio/internal/service"
	"github.com/iliyamo/filmio/internal/session"
	"github.com/iliyamo/filmio/internal/view"
)

func main() {
	_ = godotenv.Load() // a missing .env is fine; the environment wins
	cfg, generated := config.Load()

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(logLevel(cfg.LogLevel))
	if generated {
		e.Logger.Warn("SESSION_SECRET is not set; using a random key, sessions will not survive a restart")
	}

	db, err := database.Open(cfg.DSN())
	if err != nil {
		e.Logger.Fatalf("database: %v", err)
	}
	defer db.Close()
	schemaCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := database.EnsureSchema(schemaCtx, db); err != nil {
		cancel()
		e.Logger.Fatalf("database schema: %v", err)
	}
	cancel()

	// Redis is optional: without it sessions live in process memory and the
	// sign-in rate limiter is a pass-through.
	rdb := config.NewRedisClient(config.LoadRedisConfig())
	var store session.Store
	if rdb != nil {
		defer rdb.Close()
		store = session.NewRedisStore(rdb, session.DefaultRedisPrefix)
		e.Logger.Info("sessions: redis")
	} else {
		store = session.NewMemoryStore()
		e.Logger.Warn("sessions: redis unavailable, using in-memory store")
	}
	sessions := session.NewManager(store, session.Options{
		Secret:    cfg.SessionSecret,
		Timeout:   cfg.SessionTimeout,
		RecordTTL: cfg.SessionTTL,
		Secure:    cfg.IsProd(),
	})

	var events handler.EventPublisher
	if p := publisher.NewPublisher(cfg.RabbitURL); p != nil {
		events = p
	}

	e.Renderer = view.MustNew()
	e.Validator = handler.NewFormValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			c.Logger().Infof("%s %s %d %s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))
	if cfg.CSRFEnabled {
		e.Use(echomw.CSRFWithConfig(echomw.CSRFConfig{
			TokenLookup:    "form:csrf_token",
			CookieName:     "filmio_csrf",
			CookiePath:     "/",
			CookieHTTPOnly: true,
			CookieSecure:   cfg.IsProd(),
			CookieSameSite: http.SameSiteLaxMode,
			Skipper: func(c echo.Context) bool {
				return c.Path() == "/healthz"
			},
		}))
	}

	members := repository.NewMemberRepo(db)
	films := repository.NewFilmRepo(db)
	screenings := repository.NewScreeningRepo(db)
	ratings := repository.NewRatingRepo(db)

	router.RegisterRoutes(e, db, sessions)
	router.RegisterAuth(e,
		handler.NewAuthHandler(members, sessions, events, cfg.BcryptCost),
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
	)
	router.RegisterMember(e,
		handler.NewDashboardHandler(members, films, screenings, ratings, sessions, events),
		handler.NewRatingsHandler(films, ratings, sessions, events),
		sessions,
	)
	router.RegisterAdmin(e, handler.NewAdminHandler(members, films, screenings, sessions, events), sessions)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.Port
	e.Logger.Infof("listening on %s (env=%s)", addr, cfg.Env)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.Logger.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := e.Shutdown(shutdownCtx); err != nil {
		e.Logger.Error(err)
	}
}

func logLevel(s string) log.Lvl {
	switch strings.ToLower(s) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	}
	return log.INFO
}
