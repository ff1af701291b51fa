package compliance

import (
	"complianceTracker/internal/calendar"
	"complianceTracker/internal/models/task"
	"math"
	"time"
)

type Bucket string

const (
	BucketCompliant    Bucket = "compliant"
	BucketNonCompliant Bucket = "non_compliant"
	BucketInProgress   Bucket = "in_progress"
	BucketExcluded     Bucket = "excluded"
)

// Report - разбиение задач на непересекающиеся корзины на момент Now.
type Report struct {
	Now          time.Time    `json:"now"`
	Compliant    []*task.Task `json:"-"`
	NonCompliant []*task.Task `json:"-"`
	InProgress   []*task.Task `json:"-"`
	Excluded     []*task.Task `json:"-"`
	Counts       Counts       `json:"counts"`
	Percentages  Percentages  `json:"percentages"`
}

type Counts struct {
	Compliant    int `json:"compliant"`
	NonCompliant int `json:"non_compliant"`
	InProgress   int `json:"in_progress"`
	Excluded     int `json:"excluded"`
	Classified   int `json:"classified"`
	Total        int `json:"total"`
}

type Percentages struct {
	Compliant    int `json:"compliant"`
	NonCompliant int `json:"non_compliant"`
	InProgress   int `json:"in_progress"`
}

type options struct {
	lateAsNonCompliant bool
}

type Option func(*options)

// WithLateCompletionAsNonCompliant относит завершённые после срока задачи к non-compliant.
// По умолчанию они, как и отклонённые, исключаются из всех трёх корзин.
func WithLateCompletionAsNonCompliant() Option {
	return func(o *options) {
		o.lateAsNonCompliant = true
	}
}

// BucketOf определяет корзину одной задачи. Сравнение - по календарным дням.
func BucketOf(t *task.Task, now time.Time, opts ...Option) Bucket {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return bucketOf(t, now, o)
}

func bucketOf(t *task.Task, now time.Time, o options) Bucket {
	switch t.CurrentStatus {
	case task.StatusCompleted:
		done := t.CompletedAt()
		if done != nil && calendar.OnOrBefore(done.In(t.DueDate.Location()), t.DueDate) {
			return BucketCompliant
		}
		if o.lateAsNonCompliant {
			return BucketNonCompliant
		}
		return BucketExcluded
	case task.StatusPending:
		if calendar.After(now.In(t.DueDate.Location()), t.DueDate) {
			return BucketNonCompliant
		}
		return BucketInProgress
	}
	return BucketExcluded
}

// Classify - classifyCompliance: чистая функция, безопасна для параллельного вызова.
func Classify(tasks []*task.Task, now time.Time, opts ...Option) Report {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	report := Report{
		Now:          now,
		Compliant:    []*task.Task{},
		NonCompliant: []*task.Task{},
		InProgress:   []*task.Task{},
		Excluded:     []*task.Task{},
	}

	for _, t := range tasks {
		if t == nil {
			continue
		}
		switch bucketOf(t, now, o) {
		case BucketCompliant:
			report.Compliant = append(report.Compliant, t)
		case BucketNonCompliant:
			report.NonCompliant = append(report.NonCompliant, t)
		case BucketInProgress:
			report.InProgress = append(report.InProgress, t)
		default:
			report.Excluded = append(report.Excluded, t)
		}
	}

	report.Counts = Counts{
		Compliant:    len(report.Compliant),
		NonCompliant: len(report.NonCompliant),
		InProgress:   len(report.InProgress),
		Excluded:     len(report.Excluded),
	}
	report.Counts.Classified = report.Counts.Compliant + report.Counts.NonCompliant + report.Counts.InProgress
	report.Counts.Total = report.Counts.Classified + report.Counts.Excluded

	report.Percentages = Percentages{
		Compliant:    Percent(report.Counts.Compliant, report.Counts.Classified),
		NonCompliant: Percent(report.Counts.NonCompliant, report.Counts.Classified),
		InProgress:   Percent(report.Counts.InProgress, report.Counts.Classified),
	}
	return report
}

// Percent - round(part / total * 100), 0 при пустом знаменателе.
func Percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}
