package sqlite

import (
	applog "complianceTracker/internal/logger"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage - однофайловое хранилище для локального запуска и демо.
type Storage struct {
	db  *gorm.DB
	loc *time.Location
}

// gormWriter направляет сообщения gorm в общий zap-логгер.
type gormWriter struct{}

func (gormWriter) Printf(format string, args ...any) {
	applog.Warn("Repository: " + strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// New открывает базу и приводит схему в актуальное состояние.
func New(dsn string, loc *time.Location) (*Storage, error) {
	if dsn == "" {
		dsn = "compliance.db"
	}
	if loc == nil {
		loc = time.UTC
	}

	if err := ensureDirForSQLite(dsn); err != nil {
		return nil, err
	}

	dbLogger := logger.New(gormWriter{}, logger.Config{
		SlowThreshold:             100 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: dbLogger,
	})
	if err != nil {
		applog.Error("Repository: Не удалось открыть SQLite", err, zap.String("dsn", dsn))
		return nil, fmt.Errorf("открытие базы: %w", err)
	}

	if err := db.AutoMigrate(&activityRow{}, &taskRow{}); err != nil {
		return nil, fmt.Errorf("миграция базы: %w", err)
	}

	applog.Info("Repository: SQLite готова", zap.String("dsn", dsn))
	return &Storage{db: db, loc: loc}, nil
}

func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("получение соединения: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		applog.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

// ensureDirForSQLite создаёт каталог для файла базы.
func ensureDirForSQLite(dsn string) error {
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		return nil
	}
	clean := strings.TrimPrefix(dsn, "file:")
	clean = strings.Split(clean, "?")[0]
	dir := filepath.Dir(clean)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("создание каталога %q: %w", dir, err)
	}
	return nil
}
