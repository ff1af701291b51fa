package postgres

import (
	"complianceTracker/internal/calendar"
	"complianceTracker/internal/logger"
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const slowQuery = 100 * time.Millisecond

// Storage хранит задачи и активности в одной базе.
// Календарные даты лежат в колонках DATE и читаются в локации loc.
type Storage struct {
	pool *pgxpool.Pool
	loc  *time.Location
}

type settings struct {
	loc      *time.Location
	maxConns int32
	minConns int32
	idle     time.Duration
}

type Option func(*settings)

func WithLocation(loc *time.Location) Option {
	if loc == nil {
		return nil
	}
	return func(s *settings) {
		s.loc = loc
	}
}

// WithPool задаёт размер пула; нулевые значения оставляют умолчания.
func WithPool(maxConns, minConns int, idle time.Duration) Option {
	return func(s *settings) {
		if maxConns > 0 {
			s.maxConns = int32(maxConns)
		}
		if minConns > 0 {
			s.minConns = int32(minConns)
		}
		if idle > 0 {
			s.idle = idle
		}
	}
}

func New(ctx context.Context, connString string, options ...Option) (*Storage, error) {
	set := settings{loc: time.UTC, maxConns: 10, minConns: 2, idle: 5 * time.Minute}
	for _, opt := range options {
		if opt != nil {
			opt(&set)
		}
	}

	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		logger.Error("Repository: Ошибка загрузки конфига", err)
		return nil, fmt.Errorf("загрузка конфига: %w", err)
	}

	config.MaxConns = set.maxConns
	config.MinConns = min(set.minConns, set.maxConns)
	config.MaxConnIdleTime = set.idle

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Repository: Успешное создание подключения к PostgreSQL",
		zap.Int32("max_conns", config.MaxConns),
		zap.String("location", set.loc.String()))
	return &Storage{pool: pool, loc: set.loc}, nil
}

func (s *Storage) Close() {
	s.pool.Close()
	logger.Info("Repository: Закрытие всех соединений PostgreSQL")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func (s *Storage) warnIfSlow(op string, start time.Time, limit time.Duration) {
	if d := time.Since(start); d > limit {
		logger.Warn("Repository: Медленный запрос", zap.String("op", op), zap.Duration("ms", d))
	}
}

// dateArg передаёт календарный день как 'YYYY-MM-DD', без сдвига по часовому поясу.
func dateArg(t time.Time) string {
	return t.Format(time.DateOnly)
}

func nullableDateArg(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := dateArg(*t)
	return &v
}

// fromDate возвращает прочитанный DATE в локацию хранилища.
func (s *Storage) fromDate(t time.Time) time.Time {
	return calendar.Date(t.Year(), t.Month(), t.Day(), s.loc)
}

func (s *Storage) fromNullableDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := s.fromDate(*t)
	return &v
}
