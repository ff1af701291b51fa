package worker

import (
	"complianceTracker/internal/logger"
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const DefaultSpawnSpec = "0 6 * * *"

// Spawner создаёт задачи по всем активным регулярным активностям.
type Spawner interface {
	SpawnScheduled(ctx context.Context) (int, error)
}

// Scheduler запускает Spawner по cron-расписанию в часовом поясе отчётности.
type Scheduler struct {
	spawner    Spawner
	spec       string
	loc        *time.Location
	runOnStart bool
}

type SchedulerOption func(*Scheduler)

func WithLocation(loc *time.Location) SchedulerOption {
	return func(s *Scheduler) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithRunOnStart - сразу догнать пропущенные сроки при старте.
func WithRunOnStart() SchedulerOption {
	return func(s *Scheduler) {
		s.runOnStart = true
	}
}

func NewScheduler(spawner Spawner, spec string, options ...SchedulerOption) *Scheduler {
	if spec == "" {
		spec = DefaultSpawnSpec
	}
	s := &Scheduler{spawner: spawner, spec: spec, loc: time.UTC}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Validate проверяет выражение cron до запуска.
func (s *Scheduler) Validate() error {
	if _, err := cron.ParseStandard(s.spec); err != nil {
		return fmt.Errorf("расписание %q: %w", s.spec, err)
	}
	return nil
}

// Start блокируется до отмены ctx и дожидается текущего запуска.
func (s *Scheduler) Start(ctx context.Context) error {
	c := cron.New(
		cron.WithLocation(s.loc),
		cron.WithLogger(cronLogger{log: logger.Named("cron").Sugar()}),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{log: logger.Named("cron").Sugar()})),
	)
	if _, err := c.AddFunc(s.spec, func() { s.Run(ctx) }); err != nil {
		return fmt.Errorf("расписание %q: %w", s.spec, err)
	}

	if s.runOnStart {
		s.Run(ctx)
	}

	c.Start()
	logger.Info("Scheduler: Запущен",
		zap.String("spec", s.spec),
		zap.String("location", s.loc.String()))

	<-ctx.Done()
	<-c.Stop().Done()
	logger.Info("Scheduler: Остановлен")
	return nil
}

func (s *Scheduler) Run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	created, err := s.spawner.SpawnScheduled(ctx)
	if err != nil {
		logger.Error("Scheduler: Ошибки при создании задач", err, zap.Int("created", created))
	}
	logger.Info("Scheduler: Плановое создание задач завершено",
		zap.Int("created", created),
		zap.Duration("ms", time.Since(start)))
}

// cronLogger переводит логгер cron на zap.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
