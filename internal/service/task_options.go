package service

import "github.com/google/uuid"

type classifyQuery struct {
	activityID         uuid.UUID
	assignee           string
	lateAsNonCompliant bool
}

// ClassifyOption сужает выборку отчёта о соблюдении сроков
type ClassifyOption func(*classifyQuery)

func ForActivity(id uuid.UUID) ClassifyOption {
	if id == uuid.Nil {
		return nil
	}
	return func(q *classifyQuery) {
		q.activityID = id
	}
}

func ForAssignee(user string) ClassifyOption {
	if user == "" {
		return nil
	}
	return func(q *classifyQuery) {
		q.assignee = user
	}
}

func LateAsNonCompliant(enabled bool) ClassifyOption {
	return func(q *classifyQuery) {
		q.lateAsNonCompliant = enabled
	}
}
