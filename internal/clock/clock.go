package clock

import (
	"sync"
	"time"
)

// Clock - источник "сейчас"; в тестах подменяется на Fixed.
type Clock interface {
	Now() time.Time
}

// System - реальное время в заданной локации (часовой пояс отчётности).
type System struct {
	Location *time.Location
}

func NewSystem(timezone string) (System, error) {
	if timezone == "" {
		return System{Location: time.UTC}, nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return System{}, err
	}
	return System{Location: loc}, nil
}

func (s System) Now() time.Time {
	if s.Location == nil {
		return time.Now()
	}
	return time.Now().In(s.Location)
}

// Fixed - управляемые часы для тестов.
type Fixed struct {
	mtx sync.RWMutex
	now time.Time
}

func NewFixed(now time.Time) *Fixed {
	return &Fixed{now: now}
}

func (f *Fixed) Now() time.Time {
	f.mtx.RLock()
	defer f.mtx.RUnlock()
	return f.now
}

func (f *Fixed) Set(now time.Time) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	f.now = now
}

func (f *Fixed) Advance(d time.Duration) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	f.now = f.now.Add(d)
}
