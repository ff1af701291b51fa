package postgres_test

import (
	"complianceTracker/internal/lifecycle"
	"complianceTracker/internal/models/activity"
	"complianceTracker/internal/models/task"
	"complianceTracker/internal/recurrence"
	"complianceTracker/internal/repository"
	"complianceTracker/internal/repository/postgres"
	"complianceTracker/internal/service"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	_ service.TaskRepository     = (*postgres.Storage)(nil)
	_ service.ActivityRepository = (*postgres.ActivityStorage)(nil)
)

// PostgresTestSuite для интеграционных тестов с PostgreSQL
type PostgresTestSuite struct {
	suite.Suite
	container  testcontainers.Container
	connString string
	storage    *postgres.Storage
	activities *postgres.ActivityStorage
	ctx        context.Context
	now        time.Time
}

// SetupSuite запускается один раз перед всеми тестами
func (s *PostgresTestSuite) SetupSuite() {
	s.ctx = context.Background()
	s.now = time.Date(2024, time.June, 10, 9, 0, 0, 0, time.UTC)

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(30 * time.Second),
	}

	container, err := testcontainers.GenericContainer(s.ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(s.T(), err)
	s.container = container

	host, err := container.Host(s.ctx)
	require.NoError(s.T(), err)
	port, err := container.MappedPort(s.ctx, "5432")
	require.NoError(s.T(), err)

	s.connString = fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	require.NoError(s.T(), postgres.Migrate(s.connString))

	s.storage, err = postgres.New(s.ctx, s.connString, postgres.WithLocation(time.UTC))
	require.NoError(s.T(), err)
	s.activities = s.storage.Activities()
}

// TearDownSuite очищает после всех тестов
func (s *PostgresTestSuite) TearDownSuite() {
	if s.storage != nil {
		s.storage.Close()
	}
	if s.container != nil {
		s.container.Terminate(s.ctx)
	}
}

// SetupTest очищает таблицы перед каждым тестом
func (s *PostgresTestSuite) SetupTest() {
	conn, err := pgx.Connect(s.ctx, s.connString)
	require.NoError(s.T(), err)
	defer conn.Close(s.ctx)

	_, err = conn.Exec(s.ctx, "TRUNCATE tasks, activities")
	require.NoError(s.T(), err)
}

func TestPostgresTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционные тесты в коротком режиме")
	}
	suite.Run(t, new(PostgresTestSuite))
}

func (s *PostgresTestSuite) createActivity() *activity.Activity {
	a := &activity.Activity{
		UUID:            uuid.New(),
		Name:            "GST filing",
		Frequency:       recurrence.Monthly,
		DueDay:          20,
		GracePeriodDays: 3,
		ReminderDays:    2,
		Assignment:      task.Assignment{Maker: "u1", Checker: "u2"},
		Active:          true,
		CreatedAt:       s.now,
	}
	require.NoError(s.T(), s.activities.Create(s.ctx, a))
	return a
}

func (s *PostgresTestSuite) createTask(a *activity.Activity, due time.Time) *task.Task {
	t := task.New(uuid.New(), a.Template(), due, s.now)
	require.NoError(s.T(), s.storage.Create(s.ctx, t))
	return t
}

func (s *PostgresTestSuite) TestStorage_HealthCheck() {
	assert.NoError(s.T(), s.storage.HealthCheck(s.ctx))
}

func (s *PostgresTestSuite) TestStorage_CreateAndGet() {
	a := s.createActivity()
	created := s.createTask(a, time.Date(2024, time.June, 20, 0, 0, 0, 0, time.UTC))

	got, err := s.storage.GetByID(s.ctx, created.UUID)
	require.NoError(s.T(), err)

	assert.Equal(s.T(), created.DueDate, got.DueDate)
	assert.Equal(s.T(), time.Date(2024, time.June, 23, 0, 0, 0, 0, time.UTC), got.GracePeriodDate)
	assert.Equal(s.T(), time.Date(2024, time.June, 12, 0, 0, 0, 0, time.UTC), got.ReminderDate)
	assert.Equal(s.T(), created.Assignment, got.Assignment)
	assert.Equal(s.T(), task.StageMaker, got.CurrentStage)
	assert.Equal(s.T(), task.StatusPending, got.CurrentStatus)
	assert.Equal(s.T(), 1, got.Version)
	require.Len(s.T(), got.Movements, 1)
	assert.Equal(s.T(), 10, got.Movements[0].PlannedTAT)
	assert.True(s.T(), got.Movements[0].InDate.Equal(s.now))

	assert.ErrorIs(s.T(), s.storage.Create(s.ctx, created), repository.ErrAlreadyExists)

	_, err = s.storage.GetByID(s.ctx, uuid.New())
	assert.ErrorIs(s.T(), err, repository.ErrNotFound)
}

func (s *PostgresTestSuite) TestStorage_Save() {
	a := s.createActivity()
	created := s.createTask(a, time.Date(2024, time.June, 20, 0, 0, 0, 0, time.UTC))

	current, err := s.storage.GetByID(s.ctx, created.UUID)
	require.NoError(s.T(), err)
	next, err := lifecycle.Submit(current, "u1", lifecycle.Approve, "done", s.now.Add(time.Hour))
	require.NoError(s.T(), err)

	require.NoError(s.T(), s.storage.Save(s.ctx, next, current.Version))
	assert.Equal(s.T(), 2, next.Version)
	assert.NotNil(s.T(), next.UpdatedAt)

	stored, err := s.storage.GetByID(s.ctx, created.UUID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), task.StageChecker, stored.CurrentStage)
	require.Len(s.T(), stored.Movements, 2)
	assert.Equal(s.T(), "done", stored.Movements[0].Remarks)
	assert.Equal(s.T(), task.DecisionApproved, stored.Movements[0].Decision)

	// второе сохранение той же версии
	stale, err := lifecycle.Submit(current, "u1", lifecycle.Reject, "", s.now.Add(time.Hour))
	require.NoError(s.T(), err)
	assert.ErrorIs(s.T(), s.storage.Save(s.ctx, stale, current.Version), repository.ErrVersionConflict)

	ghost := task.New(uuid.New(), a.Template(), s.now, s.now)
	assert.ErrorIs(s.T(), s.storage.Save(s.ctx, ghost, 1), repository.ErrNotFound)
}

func (s *PostgresTestSuite) TestStorage_Queries() {
	a := s.createActivity()
	other := s.createActivity()

	june := s.createTask(a, time.Date(2024, time.June, 20, 0, 0, 0, 0, time.UTC))
	july := s.createTask(a, time.Date(2024, time.July, 20, 0, 0, 0, 0, time.UTC))
	s.createTask(other, time.Date(2024, time.June, 20, 0, 0, 0, 0, time.UTC))

	byActivity, err := s.storage.GetByActivity(s.ctx, a.UUID)
	require.NoError(s.T(), err)
	require.Len(s.T(), byActivity, 2)
	assert.Equal(s.T(), june.UUID, byActivity[0].UUID)
	assert.Equal(s.T(), july.UUID, byActivity[1].UUID)

	byChecker, err := s.storage.ListByAssignee(s.ctx, "u2", task.StageChecker)
	require.NoError(s.T(), err)
	assert.Len(s.T(), byChecker, 3)

	byMaker, err := s.storage.ListByAssignee(s.ctx, "u2", task.StageMaker)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), byMaker)

	anyStage, err := s.storage.ListByAssignee(s.ctx, "u1", task.StageNone)
	require.NoError(s.T(), err)
	assert.Len(s.T(), anyStage, 3)

	page, err := s.storage.GetAllWithLimit(s.ctx, 2, 2)
	require.NoError(s.T(), err)
	assert.Len(s.T(), page, 1)

	pending, err := s.storage.GetStatusedWithLimit(s.ctx, 1, 10, task.StatusPending)
	require.NoError(s.T(), err)
	assert.Len(s.T(), pending, 3)
}

func (s *PostgresTestSuite) TestStorage_GetAwaitingNotice() {
	a := s.createActivity()
	// напоминание 12 июня, грейс до 23 июня
	june := s.createTask(a, time.Date(2024, time.June, 20, 0, 0, 0, 0, time.UTC))

	res, err := s.storage.GetAwaitingNotice(s.ctx, s.now, 10)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), res)

	res, err = s.storage.GetAwaitingNotice(s.ctx, s.now.AddDate(0, 0, 2), 10)
	require.NoError(s.T(), err)
	require.Len(s.T(), res, 1)

	reminded := res[0]
	at := s.now.AddDate(0, 0, 2)
	reminded.RemindedAt = &at
	require.NoError(s.T(), s.storage.Save(s.ctx, reminded, june.Version))

	res, err = s.storage.GetAwaitingNotice(s.ctx, s.now.AddDate(0, 0, 2), 10)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), res)

	res, err = s.storage.GetAwaitingNotice(s.ctx, time.Date(2024, time.June, 24, 0, 0, 0, 0, time.UTC), 10)
	require.NoError(s.T(), err)
	assert.Len(s.T(), res, 1)
}

func (s *PostgresTestSuite) TestActivityStorage() {
	a := s.createActivity()
	assert.Equal(s.T(), 1, a.Version)

	got, err := s.activities.GetByID(s.ctx, a.UUID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), a.Name, got.Name)
	assert.Equal(s.T(), recurrence.Monthly, got.Frequency)
	assert.Nil(s.T(), got.DueDate)

	spawned := time.Date(2024, time.June, 20, 0, 0, 0, 0, time.UTC)
	got.LastSpawnedDue = &spawned
	got.Active = false
	require.NoError(s.T(), s.activities.Update(s.ctx, got))
	assert.Equal(s.T(), 2, got.Version)

	stored, err := s.activities.GetByID(s.ctx, a.UUID)
	require.NoError(s.T(), err)
	require.NotNil(s.T(), stored.LastSpawnedDue)
	assert.Equal(s.T(), spawned, *stored.LastSpawnedDue)
	assert.False(s.T(), stored.Active)

	active, err := s.activities.GetActive(s.ctx)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), active)

	a.Version = 1
	assert.ErrorIs(s.T(), s.activities.Update(s.ctx, a), repository.ErrVersionConflict)

	_, err = s.activities.GetByID(s.ctx, uuid.New())
	assert.ErrorIs(s.T(), err, repository.ErrNotFound)
}

func (s *PostgresTestSuite) TestMigrate_Idempotent() {
	assert.NoError(s.T(), postgres.Migrate(s.connString))
}
