package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/ltessier/rostersync/core"
	"github.com/ltessier/rostersync/core/provision"
	"github.com/ltessier/rostersync/core/roster"
	"github.com/ltessier/rostersync/services/adsync"
)

type (
	// ProvisioningService is what the handlers need from the orchestrator;
	// *provision.Service satisfies it.
	ProvisioningService interface {
		Reconcile(ctx context.Context) (roster.DiffResult, error)
		ProvisionMissing(ctx context.Context, classCode, group string) (*provision.BatchReport, error)
		CreateAccount(ctx context.Context, na roster.NewAccount) (roster.Account, error)
		Reset(ctx context.Context, group string) (*provision.BatchReport, error)
		ResetPassword(ctx context.Context, login, password string) (string, error)
		AddClassToGroup(ctx context.Context, classCodes []string, group string) (*provision.BatchReport, error)
		ListDirectoryUsers(ctx context.Context) ([]string, error)
	}

	SyncService interface {
		Run(ctx context.Context, dryRun bool) (*adsync.Result, error)
	}

	Options struct {
		Address        string
		AdminToken     string
		Debug          bool
		DisableReqLogs bool

		Svc    ProvisioningService
		Sync   SyncService
		Repo   roster.AccountRepository
		Logger core.Logger
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	if !s.opts.Debug {
		s.app.Use(middleware.Recover())
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger)
	s.app.Debug = s.opts.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1", tokenAuthMiddleware(s.opts.AdminToken))
	registerAccountAPI(v1, s.opts.Svc, s.opts.Sync, s.opts.Repo)
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Address))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to the Rostersync API!")
}
