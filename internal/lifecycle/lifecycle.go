package lifecycle

import (
	"complianceTracker/internal/models/task"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrUnauthorized = errors.New("пользователь не владеет текущим этапом задачи")
var ErrInvalidState = errors.New("задача не в том состоянии")
var ErrInvalidDecision = errors.New("неизвестное решение")

// Decision - команда роли: одобрить или отклонить.
type Decision string

const Approve Decision = "approve"
const Reject Decision = "reject"

func ParseDecision(raw string) (Decision, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "approve", "approved":
		return Approve, nil
	case "reject", "rejected":
		return Reject, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDecision, raw)
}

// State - состояние автомата, производное от записи задачи.
type State string

const (
	AwaitingMaker    State = "awaiting_maker"
	AwaitingChecker  State = "awaiting_checker"
	AwaitingReviewer State = "awaiting_reviewer"
	AwaitingAuditor  State = "awaiting_auditor"
	Completed        State = "completed"
	Rejected         State = "rejected"
)

func StateOf(t *task.Task) State {
	switch t.CurrentStatus {
	case task.StatusCompleted:
		return Completed
	case task.StatusRejected:
		return Rejected
	}
	switch t.CurrentStage {
	case task.StageMaker:
		return AwaitingMaker
	case task.StageChecker:
		return AwaitingChecker
	case task.StageReviewer:
		return AwaitingReviewer
	case task.StageAuditor:
		return AwaitingAuditor
	}
	return ""
}

// Submit применяет решение роли и возвращает новую запись.
// Исходная задача не меняется: переход либо применяется целиком, либо не применяется.
func Submit(current *task.Task, actor string, decision Decision, remark string, now time.Time) (*task.Task, error) {
	if current == nil {
		return nil, fmt.Errorf("%w: задача не передана", ErrInvalidState)
	}
	if decision != Approve && decision != Reject {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDecision, decision)
	}
	if current.IsTerminal() {
		return nil, fmt.Errorf("%w: задача уже в статусе %s", ErrInvalidState, current.CurrentStatus)
	}

	owner := current.Assignee(current.CurrentStage)
	if owner == "" || owner != actor {
		return nil, fmt.Errorf("%w: этап %s", ErrUnauthorized, current.CurrentStage)
	}

	next := current.Clone()
	active, _ := next.ActiveMovement()
	if active == nil || active.Stage != next.CurrentStage {
		return nil, fmt.Errorf("%w: нет открытого движения для этапа %s", ErrInvalidState, next.CurrentStage)
	}

	if decision == Reject {
		// отказ терминален, доработка - это новая задача
		active.Close(task.DecisionRejected, remark, now)
		next.CurrentStatus = task.StatusRejected
		next.CurrentStage = task.StageNone
		return next, nil
	}

	active.Close(task.DecisionApproved, remark, now)

	stage, ok := next.NextStage(next.CurrentStage)
	if !ok {
		next.CurrentStatus = task.StatusCompleted
		next.CurrentStage = task.StageNone
		return next, nil
	}

	next.Movements = append(next.Movements, task.Open(stage, next.Assignee(stage), now, next.DueDate))
	next.CurrentStage = stage
	return next, nil
}

// CheckInvariants проверяет согласованность записи перед сохранением.
func CheckInvariants(t *task.Task) error {
	if t == nil {
		return fmt.Errorf("%w: пустая задача", ErrInvalidState)
	}
	if !t.CurrentStatus.Valid() {
		return fmt.Errorf("%w: статус %q", ErrInvalidState, t.CurrentStatus)
	}
	if len(t.Movements) == 0 {
		return fmt.Errorf("%w: нет истории движений", ErrInvalidState)
	}

	open := 0
	for i, m := range t.Movements {
		if m.IsOpen() {
			open++
			if i != len(t.Movements)-1 {
				return fmt.Errorf("%w: открытое движение не последнее", ErrInvalidState)
			}
			if m.OutDate != nil {
				return fmt.Errorf("%w: у открытого движения есть out_date", ErrInvalidState)
			}
			continue
		}
		if m.OutDate == nil {
			return fmt.Errorf("%w: закрытое движение без out_date", ErrInvalidState)
		}
	}

	if t.IsTerminal() {
		if open != 0 {
			return fmt.Errorf("%w: у завершённой задачи %d открытых движений", ErrInvalidState, open)
		}
		if t.CurrentStage != task.StageNone {
			return fmt.Errorf("%w: у завершённой задачи есть этап %s", ErrInvalidState, t.CurrentStage)
		}
		last := t.LastMovement()
		if t.CurrentStatus == task.StatusRejected && last.Decision != task.DecisionRejected {
			return fmt.Errorf("%w: отклонённая задача без отказа в истории", ErrInvalidState)
		}
		if t.CurrentStatus == task.StatusCompleted && last.Decision != task.DecisionApproved {
			return fmt.Errorf("%w: завершённая задача без одобрения в истории", ErrInvalidState)
		}
		return nil
	}

	if open != 1 {
		return fmt.Errorf("%w: %d открытых движений вместо одного", ErrInvalidState, open)
	}
	if last := t.LastMovement(); last.Stage != t.CurrentStage {
		return fmt.Errorf("%w: открыто движение %s, а этап %s", ErrInvalidState, last.Stage, t.CurrentStage)
	}
	return nil
}
