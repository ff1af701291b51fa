package worker

import (
	"complianceTracker/internal/calendar"
	"complianceTracker/internal/clock"
	"complianceTracker/internal/logger"
	"complianceTracker/internal/models/task"
	"complianceTracker/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	defaultInterval  = 5 * time.Minute
	defaultBatchSize = 100
)

// TaskStore - то, что воркеру нужно от хранилища задач.
type TaskStore interface {
	GetAwaitingNotice(ctx context.Context, now time.Time, limit int) ([]*task.Task, error)
	Save(ctx context.Context, t *task.Task, expectedVersion int) error
}

// Notifier доставляет напоминания; сама доставка - внешняя забота.
type Notifier interface {
	Remind(ctx context.Context, t *task.Task, user string) error
	Escalate(ctx context.Context, t *task.Task, user string) error
}

// LogNotifier только пишет уведомления в лог.
type LogNotifier struct{}

func (LogNotifier) Remind(ctx context.Context, t *task.Task, user string) error {
	logger.Info("Worker: Напоминание по задаче",
		zap.String("task_id", t.UUID.String()),
		zap.String("title", t.Title),
		zap.String("stage", string(t.CurrentStage)),
		zap.String("user_id", user),
		zap.Time("due_date", t.DueDate))
	return nil
}

func (LogNotifier) Escalate(ctx context.Context, t *task.Task, user string) error {
	logger.Warn("Worker: Эскалация просроченной задачи",
		zap.String("task_id", t.UUID.String()),
		zap.String("title", t.Title),
		zap.String("stage", string(t.CurrentStage)),
		zap.String("user_id", user),
		zap.Time("grace_period_date", t.GracePeriodDate))
	return nil
}

// ReminderWorker периодически отмечает задачи, по которым пора напомнить
// (reminderDate наступила) или эскалировать (грейс истёк).
type ReminderWorker struct {
	repo      TaskStore
	notifier  Notifier
	clock     clock.Clock
	interval  time.Duration
	batchSize int
}

type Stats struct {
	Checked   int
	Reminded  int
	Escalated int
	Failed    int
}

func NewReminderWorker(repo TaskStore, notifier Notifier, clk clock.Clock, interval time.Duration, batchSize int) *ReminderWorker {
	if interval <= 0 {
		interval = defaultInterval
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if notifier == nil {
		notifier = LogNotifier{}
	}
	if clk == nil {
		clk = clock.System{Location: time.UTC}
	}
	return &ReminderWorker{
		repo:      repo,
		notifier:  notifier,
		clock:     clk,
		interval:  interval,
		batchSize: batchSize,
	}
}

// Start блокируется до отмены ctx.
func (w *ReminderWorker) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logger.Info("Worker: Проверка напоминаний запущена", zap.Duration("interval", w.interval))
	for {
		select {
		case <-ticker.C:
			w.Check(ctx)
		case <-ctx.Done():
			logger.Info("Worker: Проверка напоминаний останавливается")
			return nil
		}
	}
}

func (w *ReminderWorker) Check(ctx context.Context) Stats {
	start := time.Now()
	now := w.clock.Now()
	var stats Stats

	tasks, err := w.repo.GetAwaitingNotice(ctx, now, w.batchSize)
	if err != nil {
		logger.Warn("Worker: Ошибка получения задач", zap.Error(err))
		return stats
	}
	stats.Checked = len(tasks)

	for _, t := range tasks {
		if ctx.Err() != nil {
			break
		}
		reminded, escalated, err := w.notify(ctx, t, now)
		if err != nil {
			stats.Failed++
			logger.Warn("Worker: Ошибка обработки задачи",
				zap.String("task_id", t.UUID.String()),
				zap.Error(err))
			continue
		}
		if reminded {
			stats.Reminded++
		}
		if escalated {
			stats.Escalated++
		}
	}

	logger.Info("Worker: Завершение проверки напоминаний",
		zap.Duration("ms", time.Since(start)),
		zap.Int("checked", stats.Checked),
		zap.Int("reminded", stats.Reminded),
		zap.Int("escalated", stats.Escalated),
		zap.Int("failed", stats.Failed))
	return stats
}

func (w *ReminderWorker) notify(ctx context.Context, t *task.Task, now time.Time) (bool, bool, error) {
	if t.IsTerminal() {
		return false, false, nil
	}
	user := t.Assignee(t.CurrentStage)
	today := now.In(t.DueDate.Location())

	var reminded, escalated bool
	if t.RemindedAt == nil && calendar.OnOrBefore(t.ReminderDate, today) {
		if err := w.notifier.Remind(ctx, t, user); err != nil {
			return false, false, fmt.Errorf("напоминание: %w", err)
		}
		at := now
		t.RemindedAt = &at
		reminded = true
	}
	if t.EscalatedAt == nil && calendar.After(today, t.GracePeriodDate) {
		if err := w.notifier.Escalate(ctx, t, user); err != nil {
			return false, false, fmt.Errorf("эскалация: %w", err)
		}
		at := now
		t.EscalatedAt = &at
		escalated = true
	}
	if !reminded && !escalated {
		return false, false, nil
	}

	if err := w.repo.Save(ctx, t, t.Version); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			// задачу двинули параллельно, вернёмся к ней на следующем проходе
			return false, false, nil
		}
		return false, false, fmt.Errorf("сохранение отметки: %w", err)
	}
	return reminded, escalated, nil
}
