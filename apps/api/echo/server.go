package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/revisa/core"
	"github.com/trezcool/revisa/core/planner"
	"github.com/trezcool/revisa/core/quiz"
	"github.com/trezcool/revisa/core/user"
)

type (
	UserService interface {
		GetByID(ctx context.Context, id string) (user.User, error)
	}

	PlannerService interface {
		CreatePlanner(ctx context.Context, userID string, opts planner.BuildOptions) (planner.Planner, error)
		UpdateDailyPlanner(ctx context.Context, userID string) (planner.UpdateResult, error)
		GetPlanner(ctx context.Context, userID string) (planner.Planner, error)
		RecordTopics(ctx context.Context, userID string, topics []planner.NewTopic) ([]planner.RevisionTopic, error)
		PendingTopics(ctx context.Context, userID string) ([]planner.RevisionTopic, error)
		DeleteTopics(ctx context.Context, userID string, names []string) (int, error)
	}

	QuizService interface {
		CreateWeeklyQuiz(ctx context.Context, userID string) (quiz.Quiz, error)
	}

	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		UserSvc        UserService
		PlannerSvc     PlannerService
		QuizSvc        QuizService
		DisableReqLogs bool
	}

	Server interface {
		http.Handler
		Start()
		Shutdown(ctx context.Context) error
		Close() error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1", middleware.JWTWithConfig(newJWTConfig(conf)))
	subscriber := subscriberMiddleware(s.deps.UserSvc, user.CategoryBasic)

	registerUserAPI(v1, s.deps.UserSvc, s.deps.PlannerSvc)
	registerPlannerAPI(v1, subscriber, s.deps.PlannerSvc, s.deps.UserSvc)
	registerQuizAPI(v1, subscriber, s.deps.QuizSvc, s.deps.UserSvc)
}

func (s *server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Host); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) Errors() <-chan error {
	return s.errors
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Revisa API!")
}
