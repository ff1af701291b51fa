package lifecycle_test

import (
	"complianceTracker/internal/lifecycle"
	"complianceTracker/internal/models/task"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	spawnAt = time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)
	dueDate = time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)
)

func newTask(t *testing.T, assignment task.Assignment) *task.Task {
	t.Helper()
	tk := task.New(uuid.New(), task.Template{ActivityID: uuid.New(), Title: "TDS return", Assignment: assignment}, dueDate, spawnAt)
	require.NotNil(t, tk)
	require.NoError(t, lifecycle.CheckInvariants(tk))
	return tk
}

func submit(t *testing.T, tk *task.Task, actor string, d lifecycle.Decision, at time.Time) *task.Task {
	t.Helper()
	next, err := lifecycle.Submit(tk, actor, d, "", at)
	require.NoError(t, err)
	require.NoError(t, lifecycle.CheckInvariants(next))
	return next
}

// TestSubmit_FullRoute тестирует проход всех четырёх ролей
func TestSubmit_FullRoute(t *testing.T) {
	tk := newTask(t, task.Assignment{Maker: "m", Checker: "c", Reviewer: "r", Auditor: "a"})
	assert.Equal(t, lifecycle.AwaitingMaker, lifecycle.StateOf(tk))

	day2 := time.Date(2024, time.June, 2, 11, 0, 0, 0, time.UTC)
	tk = submit(t, tk, "m", lifecycle.Approve, day2)
	assert.Equal(t, lifecycle.AwaitingChecker, lifecycle.StateOf(tk))

	day4 := time.Date(2024, time.June, 4, 16, 0, 0, 0, time.UTC)
	tk = submit(t, tk, "c", lifecycle.Approve, day4)
	assert.Equal(t, lifecycle.AwaitingReviewer, lifecycle.StateOf(tk))

	tk = submit(t, tk, "r", lifecycle.Approve, day4)
	assert.Equal(t, lifecycle.AwaitingAuditor, lifecycle.StateOf(tk))

	day9 := time.Date(2024, time.June, 9, 8, 0, 0, 0, time.UTC)
	tk = submit(t, tk, "a", lifecycle.Approve, day9)
	assert.Equal(t, lifecycle.Completed, lifecycle.StateOf(tk))
	assert.Equal(t, task.StatusCompleted, tk.CurrentStatus)
	assert.Equal(t, task.StageNone, tk.CurrentStage)

	require.Len(t, tk.Movements, 4)

	// pTAT - от получения до срока, aTAT - от получения до решения
	assert.Equal(t, 9, tk.Movements[0].PlannedTAT)
	assert.Equal(t, 1, tk.Movements[0].ActualTAT)
	assert.Equal(t, 8, tk.Movements[1].PlannedTAT)
	assert.Equal(t, 2, tk.Movements[1].ActualTAT)
	assert.Equal(t, 6, tk.Movements[2].PlannedTAT)
	assert.Equal(t, 0, tk.Movements[2].ActualTAT)
	assert.Equal(t, 6, tk.Movements[3].PlannedTAT)
	assert.Equal(t, 5, tk.Movements[3].ActualTAT)

	for i, m := range tk.Movements {
		assert.Equal(t, task.DecisionApproved, m.Decision, "movement %d", i)
		require.NotNil(t, m.OutDate)
		if i > 0 {
			assert.Equal(t, *tk.Movements[i-1].OutDate, m.InDate, "in_date of %d is out_date of %d", i, i-1)
		}
	}
}

// TestSubmit_SkipsUnassignedStages - checker без reviewer/auditor сразу завершает задачу
func TestSubmit_SkipsUnassignedStages(t *testing.T) {
	tk := newTask(t, task.Assignment{Maker: "m", Checker: "c"})

	tk = submit(t, tk, "m", lifecycle.Approve, spawnAt.Add(time.Hour))
	assert.Equal(t, task.StageChecker, tk.CurrentStage)

	tk = submit(t, tk, "c", lifecycle.Approve, spawnAt.Add(2*time.Hour))
	assert.Equal(t, task.StatusCompleted, tk.CurrentStatus)
	assert.Equal(t, task.StageNone, tk.CurrentStage)
	assert.Len(t, tk.Movements, 2)

	for _, m := range tk.Movements {
		assert.NotEqual(t, task.StageReviewer, m.Stage)
		assert.NotEqual(t, task.StageAuditor, m.Stage)
	}
}

func TestSubmit_SkipsGapInTheMiddle(t *testing.T) {
	tk := newTask(t, task.Assignment{Maker: "m", Auditor: "a"})

	tk = submit(t, tk, "m", lifecycle.Approve, spawnAt)
	assert.Equal(t, task.StageAuditor, tk.CurrentStage)
	assert.Equal(t, "a", tk.Movements[1].UserID)
}

func TestSubmit_Reject(t *testing.T) {
	tk := newTask(t, task.Assignment{Maker: "m", Checker: "c", Reviewer: "r"})
	tk = submit(t, tk, "m", lifecycle.Approve, spawnAt)

	rejectedAt := time.Date(2024, time.June, 3, 10, 0, 0, 0, time.UTC)
	next, err := lifecycle.Submit(tk, "c", lifecycle.Reject, "numbers do not match", rejectedAt)
	require.NoError(t, err)
	require.NoError(t, lifecycle.CheckInvariants(next))

	assert.Equal(t, task.StatusRejected, next.CurrentStatus)
	assert.Equal(t, task.StageNone, next.CurrentStage)
	assert.Equal(t, lifecycle.Rejected, lifecycle.StateOf(next))
	require.Len(t, next.Movements, 2)

	last := next.Movements[1]
	assert.Equal(t, task.DecisionRejected, last.Decision)
	assert.Equal(t, "numbers do not match", last.RejectionRemark)
	assert.Empty(t, last.Remarks)
	assert.Equal(t, 2, last.ActualTAT)

	// отказ не возвращает задачу мейкеру
	_, err = lifecycle.Submit(next, "m", lifecycle.Approve, "", rejectedAt)
	assert.ErrorIs(t, err, lifecycle.ErrInvalidState)
}

func TestSubmit_Errors(t *testing.T) {
	tk := newTask(t, task.Assignment{Maker: "m", Checker: "c"})
	completed := submit(t, submit(t, tk, "m", lifecycle.Approve, spawnAt), "c", lifecycle.Approve, spawnAt)

	tests := []struct {
		name     string
		task     *task.Task
		actor    string
		decision lifecycle.Decision
		wantErr  error
	}{
		{"wrong user", tk, "c", lifecycle.Approve, lifecycle.ErrUnauthorized},
		{"empty user", tk, "", lifecycle.Approve, lifecycle.ErrUnauthorized},
		{"unknown decision", tk, "m", "maybe", lifecycle.ErrInvalidDecision},
		{"completed task", completed, "c", lifecycle.Approve, lifecycle.ErrInvalidState},
		{"completed task reject", completed, "c", lifecycle.Reject, lifecycle.ErrInvalidState},
		{"nil task", nil, "m", lifecycle.Approve, lifecycle.ErrInvalidState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var before *task.Task
			if tt.task != nil {
				before = tt.task.Clone()
			}

			next, err := lifecycle.Submit(tt.task, tt.actor, tt.decision, "", spawnAt)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, next)

			if tt.task != nil {
				assert.Equal(t, before, tt.task, "задача не должна меняться при ошибке")
			}
		})
	}
}

// TestSubmit_DoesNotMutateInput - исходная запись остаётся прежней
func TestSubmit_DoesNotMutateInput(t *testing.T) {
	tk := newTask(t, task.Assignment{Maker: "m", Checker: "c"})
	before := tk.Clone()

	next, err := lifecycle.Submit(tk, "m", lifecycle.Approve, "ok", spawnAt.Add(time.Hour))
	require.NoError(t, err)

	assert.Equal(t, before, tk)
	assert.Len(t, next.Movements, 2)
	assert.Len(t, tk.Movements, 1)
}

// TestSubmit_DuplicateDecision - повторное решение по закрытому движению
func TestSubmit_DuplicateDecision(t *testing.T) {
	tk := newTask(t, task.Assignment{Maker: "m"})

	done := submit(t, tk, "m", lifecycle.Approve, spawnAt)
	assert.Equal(t, task.StatusCompleted, done.CurrentStatus)

	_, err := lifecycle.Submit(done, "m", lifecycle.Approve, "", spawnAt)
	assert.ErrorIs(t, err, lifecycle.ErrInvalidState)
}

func TestSubmit_LatePlannedTATIsNegative(t *testing.T) {
	tk := newTask(t, task.Assignment{Maker: "m", Checker: "c"})

	late := time.Date(2024, time.June, 12, 10, 0, 0, 0, time.UTC)
	tk = submit(t, tk, "m", lifecycle.Approve, late)
	assert.Equal(t, -2, tk.Movements[1].PlannedTAT)
	assert.Equal(t, 11, tk.Movements[0].ActualTAT)
}

func TestCheckInvariants(t *testing.T) {
	tk := newTask(t, task.Assignment{Maker: "m", Checker: "c"})

	twoOpen := tk.Clone()
	twoOpen.Movements = append(twoOpen.Movements, task.Open(task.StageChecker, "c", spawnAt, dueDate))
	assert.ErrorIs(t, lifecycle.CheckInvariants(twoOpen), lifecycle.ErrInvalidState)

	wrongStage := tk.Clone()
	wrongStage.CurrentStage = task.StageChecker
	assert.ErrorIs(t, lifecycle.CheckInvariants(wrongStage), lifecycle.ErrInvalidState)

	terminalWithOpen := tk.Clone()
	terminalWithOpen.CurrentStatus = task.StatusCompleted
	terminalWithOpen.CurrentStage = task.StageNone
	assert.ErrorIs(t, lifecycle.CheckInvariants(terminalWithOpen), lifecycle.ErrInvalidState)

	noHistory := tk.Clone()
	noHistory.Movements = nil
	assert.ErrorIs(t, lifecycle.CheckInvariants(noHistory), lifecycle.ErrInvalidState)

	assert.ErrorIs(t, lifecycle.CheckInvariants(nil), lifecycle.ErrInvalidState)
}

func TestParseDecision(t *testing.T) {
	d, err := lifecycle.ParseDecision("Approve")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.Approve, d)

	d, err = lifecycle.ParseDecision(" rejected ")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.Reject, d)

	_, err = lifecycle.ParseDecision("hold")
	assert.ErrorIs(t, err, lifecycle.ErrInvalidDecision)
}
