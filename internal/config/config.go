package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "COMPLIANCE"

const (
	RepositoryInMemory = "inmemory"
	RepositoryPostgres = "postgres"
	RepositorySQLite   = "sqlite"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	SQLite     SQLiteConfig     `mapstructure:"sqlite"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Repository RepositoryConfig `mapstructure:"repository"`
	Schedule   ScheduleConfig   `mapstructure:"schedule"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConnections int           `mapstructure:"max_connections"`
	MinConnections int           `mapstructure:"min_connections"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	AutoMigrate    bool          `mapstructure:"auto_migrate"`
}

type SQLiteConfig struct {
	DSN string `mapstructure:"dsn"`
}

type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

type RepositoryConfig struct {
	Type string `mapstructure:"type"` // inmemory, postgres или sqlite
}

// ScheduleConfig - часовой пояс отчётности и фоновые задания.
type ScheduleConfig struct {
	Timezone           string        `mapstructure:"timezone"`
	SpawnCron          string        `mapstructure:"spawn_cron"`
	SpawnOnStart       bool          `mapstructure:"spawn_on_start"`
	ReminderInterval   time.Duration `mapstructure:"reminder_interval"`
	BatchSize          int           `mapstructure:"batch_size"`
	LateAsNonCompliant bool          `mapstructure:"late_as_non_compliant"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.request_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.allowed_origins", []string{})

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.min_connections", 2)
	v.SetDefault("database.idle_timeout", 5*time.Minute)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("sqlite.dsn", "data/compliance.db")

	v.SetDefault("logging.development", false)

	v.SetDefault("repository.type", RepositoryInMemory)

	v.SetDefault("schedule.timezone", "UTC")
	v.SetDefault("schedule.spawn_cron", "0 6 * * *")
	v.SetDefault("schedule.spawn_on_start", true)
	v.SetDefault("schedule.reminder_interval", 5*time.Minute)
	v.SetDefault("schedule.batch_size", 100)
	v.SetDefault("schedule.late_as_non_compliant", false)

	v.SetDefault("rate_limit.requests_per_minute", 120)
}

// Load читает конфиг: значения по умолчанию, затем файл, затем переменные
// окружения COMPLIANCE_<СЕКЦИЯ>_<КЛЮЧ>. Пустой path - ./config.yml, если он есть.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("чтение конфига: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("разбор конфига: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Repository.Type {
	case RepositoryInMemory, RepositorySQLite:
	case RepositoryPostgres:
		if c.DatabaseURL() == "" {
			return fmt.Errorf("repository.type=postgres требует database.url")
		}
	default:
		return fmt.Errorf("неизвестный repository.type %q", c.Repository.Type)
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("schedule.timezone: %w", err)
	}
	if c.Schedule.ReminderInterval <= 0 {
		return fmt.Errorf("schedule.reminder_interval должен быть больше 0")
	}
	if c.RateLimit.RequestsPerMinute <= 0 {
		return fmt.Errorf("rate_limit.requests_per_minute должен быть больше 0")
	}
	return nil
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// DatabaseURL - database.url или стандартная переменная DATABASE_URL.
func (c *Config) DatabaseURL() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	return os.Getenv("DATABASE_URL")
}
