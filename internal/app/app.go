package app

import (
	"complianceTracker/internal/clock"
	"complianceTracker/internal/config"
	"complianceTracker/internal/handlers"
	"complianceTracker/internal/logger"
	"complianceTracker/internal/middleware"
	"complianceTracker/internal/repository/inmemory"
	"complianceTracker/internal/repository/postgres"
	"complianceTracker/internal/repository/sqlite"
	"complianceTracker/internal/service"
	"complianceTracker/internal/worker"
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config     *config.Config
	clock      clock.System
	server     *http.Server
	router     *chi.Mux
	tasks      service.TaskRepository
	activities service.ActivityRepository
	service    *service.ComplianceService
	reminders  *worker.ReminderWorker
	scheduler  *worker.Scheduler
	shutdowns  []func() // выполняются в обратном порядке
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

// Init собирает зависимости: логгер, часы, хранилище, сервис, роутер и воркеры.
func (a *App) Init(ctx context.Context) error {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return fmt.Errorf("инициализация логгера: %w", err)
	}
	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	clk, err := clock.NewSystem(a.config.Schedule.Timezone)
	if err != nil {
		return fmt.Errorf("часовой пояс %q: %w", a.config.Schedule.Timezone, err)
	}
	a.clock = clk

	if err := a.initRepository(ctx); err != nil {
		return err
	}

	a.service = service.NewComplianceService(a.tasks, a.activities, a.clock)
	a.initRouter()

	a.server = &http.Server{
		Addr:              a.config.GetServerAddr(),
		Handler:           otelhttp.NewHandler(a.router, "compliance-api"),
		ReadHeaderTimeout: 5 * time.Second,
	}

	a.reminders = worker.NewReminderWorker(a.tasks, worker.LogNotifier{}, a.clock,
		a.config.Schedule.ReminderInterval, a.config.Schedule.BatchSize)

	schedulerOptions := []worker.SchedulerOption{worker.WithLocation(a.clock.Location)}
	if a.config.Schedule.SpawnOnStart {
		schedulerOptions = append(schedulerOptions, worker.WithRunOnStart())
	}
	a.scheduler = worker.NewScheduler(a.service, a.config.Schedule.SpawnCron, schedulerOptions...)
	if err := a.scheduler.Validate(); err != nil {
		return err
	}

	logger.Info("Приложение инициализировано",
		zap.String("repository", a.config.Repository.Type),
		zap.String("timezone", a.clock.Location.String()),
		zap.String("addr", a.server.Addr))
	return nil
}

func (a *App) initRepository(ctx context.Context) error {
	switch a.config.Repository.Type {
	case config.RepositoryPostgres:
		url := a.config.DatabaseURL()
		if a.config.Database.AutoMigrate {
			if err := postgres.Migrate(url); err != nil {
				return fmt.Errorf("миграции: %w", err)
			}
		}
		storage, err := postgres.New(ctx, url,
			postgres.WithLocation(a.clock.Location),
			postgres.WithPool(a.config.Database.MaxConnections, a.config.Database.MinConnections, a.config.Database.IdleTimeout))
		if err != nil {
			return fmt.Errorf("подключение к PostgreSQL: %w", err)
		}
		a.tasks, a.activities = storage, storage.Activities()
		a.shutdowns = append(a.shutdowns, storage.Close)

	case config.RepositorySQLite:
		storage, err := sqlite.New(a.config.SQLite.DSN, a.clock.Location)
		if err != nil {
			return fmt.Errorf("открытие SQLite: %w", err)
		}
		a.tasks, a.activities = storage, storage.Activities()
		a.shutdowns = append(a.shutdowns, func() {
			if err := storage.Close(); err != nil {
				logger.Error("Ошибка закрытия SQLite", err)
			}
		})

	default:
		a.tasks, a.activities = inmemory.NewTaskStorage(), inmemory.NewActivityStorage()
	}
	return nil
}

func (a *App) initRouter() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(a.config.Server.AllowedOrigins))
	r.Use(middleware.RateLimit(a.config.RateLimit.RequestsPerMinute))
	r.Use(middleware.Timeout(a.config.Server.RequestTimeout))

	h := handlers.NewHandler(a.service)
	h.LateAsNonCompliant = a.config.Schedule.LateAsNonCompliant
	h.Routes(r)

	a.router = r
}

func (a *App) Router() http.Handler {
	return a.router
}

func (a *App) Service() *service.ComplianceService {
	return a.service
}

// Run запускает сервер, планировщик и воркер напоминаний и блокируется
// до отмены ctx или падения любого из них.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Сервер запущен", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP сервер: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return a.scheduler.Start(gctx)
	})
	g.Go(func() error {
		return a.reminders.Start(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
		defer cancel()
		logger.Info("Остановка сервера...")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("остановка сервера: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// Close освобождает ресурсы в порядке, обратном созданию.
func (a *App) Close() {
	for _, fn := range slices.Backward(a.shutdowns) {
		fn()
	}
	a.shutdowns = nil
}
