package task

import (
	"complianceTracker/internal/calendar"
	"time"
)

type Decision string

const DecisionPending Decision = "pending"
const DecisionApproved Decision = "approved"
const DecisionRejected Decision = "rejected"

// Movement - след одной роли в истории задачи.
// OutDate == nil, пока роль не приняла решение.
type Movement struct {
	Stage           Stage      `json:"stage"`
	UserID          string     `json:"user_id"`
	InDate          time.Time  `json:"in_date"`
	OutDate         *time.Time `json:"out_date,omitempty"`
	Decision        Decision   `json:"decision"`
	Remarks         string     `json:"remarks,omitempty"`
	RejectionRemark string     `json:"rejection_remark,omitempty"`
	PlannedTAT      int        `json:"planned_tat"`
	ActualTAT       int        `json:"actual_tat"`
}

// Open открывает движение для роли: pTAT - дни от получения до срока задачи.
func Open(stage Stage, user string, inDate, dueDate time.Time) Movement {
	return Movement{
		Stage:      stage,
		UserID:     user,
		InDate:     inDate,
		Decision:   DecisionPending,
		PlannedTAT: calendar.DaysBetween(inDate, dueDate),
	}
}

// Close фиксирует решение роли: aTAT - дни от получения до решения.
func (m *Movement) Close(decision Decision, remark string, outDate time.Time) {
	out := outDate
	m.OutDate = &out
	m.Decision = decision
	m.ActualTAT = calendar.DaysBetween(m.InDate, outDate)

	if decision == DecisionRejected {
		m.RejectionRemark = remark
		return
	}
	m.Remarks = remark
}

func (m Movement) IsOpen() bool {
	return m.Decision == DecisionPending
}

func (m Movement) clone() Movement {
	c := m
	c.OutDate = cloneTime(m.OutDate)
	return c
}
