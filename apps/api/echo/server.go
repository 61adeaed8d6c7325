package echoapi

import (
	"context"
	"net/http"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/kat-co/vala"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
)

type (
	Options struct {
		Address        string
		Debug          bool
		DisableReqLogs bool
		AllowedOrigins []string
		ReadTimeout    time.Duration
		WriteTimeout   time.Duration
		JWTSecret      []byte
		JWTAudience    string
		FacultySvc     FacultyService
		Translator     ut.Translator
		Logger         core.Logger
		Metrics        echo.MiddlewareFunc // optional
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) (Server, error) {
	if opts == nil {
		return nil, errors.New("echoapi.NewServer: nil options")
	}
	if err := vala.BeginValidation().Validate(
		core.IsNotNil(opts.FacultySvc, "FacultySvc"),
		core.IsNotNil(opts.Translator, "Translator"),
		core.IsNotNil(opts.Logger, "Logger"),
		vala.GreaterThan(len(opts.JWTSecret), 0, "JWTSecret"),
	).Check(); err != nil {
		return nil, errors.Wrap(err, "echoapi.NewServer")
	}

	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s, nil
}

func (s *server) setup() {
	s.app.HideBanner = true
	s.app.Debug = s.opts.Debug
	s.app.Server.ReadTimeout = s.opts.ReadTimeout
	s.app.Server.WriteTimeout = s.opts.WriteTimeout
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator)

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: newRequestID}))
	if s.opts.Metrics != nil {
		s.app.Use(s.opts.Metrics)
	}
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in debug mode
	if !s.opts.Debug {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		HSTSMaxAge:         31536000,
	}))
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     s.opts.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	s.app.GET("/", home)
	s.app.GET("/healthz", healthz)

	v1 := s.app.Group("/v1", principalMiddleware(s.opts.JWTSecret, s.opts.JWTAudience))
	registerFacultyAPI(v1, s.opts.FacultySvc)
}

func (s *server) Start() error {
	if err := s.app.Start(s.opts.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Academia API!")
}

func healthz(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
