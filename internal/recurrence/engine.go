package recurrence

import (
	"complianceTracker/internal/calendar"
	"fmt"
	"iter"
	"time"
)

// DefaultCount - сколько дат показывает админка в превью активности.
const DefaultCount = 5

// window описывает период класса: окно с якорем, срок внутри окна и следующее окно.
// Следующий якорь всегда выводится из предыдущего, а не из "сейчас" -
// иначе полумесячные и полугодовые окна перестают чередоваться.
type window struct {
	start func(day time.Time) time.Time
	due   func(anchor time.Time, dueDay int) time.Time
	next  func(anchor time.Time) time.Time
}

var windows = map[Frequency]window{
	Weekly: {
		start: func(day time.Time) time.Time {
			return calendar.AddDays(day, 1-calendar.ISOWeekday(day))
		},
		due: func(anchor time.Time, dueDay int) time.Time {
			return calendar.AddDays(anchor, dueDay-1)
		},
		next: func(anchor time.Time) time.Time {
			return calendar.AddDays(anchor, 7)
		},
	},
	Fortnightly: {
		start: calendar.HalfMonthStart,
		due: func(anchor time.Time, dueDay int) time.Time {
			return clampTo(calendar.AddDays(anchor, dueDay-1), calendar.HalfMonthEnd(anchor))
		},
		next: calendar.NextHalfMonth,
	},
	Monthly: {
		start: func(day time.Time) time.Time {
			return calendar.AddMonths(day, 0)
		},
		due: func(anchor time.Time, dueDay int) time.Time {
			return calendar.ClampDay(anchor.Year(), anchor.Month(), dueDay, anchor.Location())
		},
		next: func(anchor time.Time) time.Time {
			return calendar.AddMonths(anchor, 1)
		},
	},
	HalfYearly: {
		start: calendar.HalfYearStart,
		due: func(anchor time.Time, dueDay int) time.Time {
			return clampTo(calendar.AddDays(anchor, dueDay-1), calendar.HalfYearEnd(anchor))
		},
		next: calendar.NextHalfYear,
	},
	Annually: {
		start: func(day time.Time) time.Time {
			return calendar.Date(day.Year(), time.January, 1, day.Location())
		},
		due: func(anchor time.Time, dueDay int) time.Time {
			return calendar.AddDays(anchor, dueDay-1)
		},
		next: func(anchor time.Time) time.Time {
			return calendar.Date(anchor.Year()+1, time.January, 1, anchor.Location())
		},
	},
}

func clampTo(t, limit time.Time) time.Time {
	if t.After(limit) {
		return limit
	}
	return t
}

// Sequence лениво отдаёт count будущих сроков строго после календарного дня from.
// Последовательность не хранит курсора: повторный обход даёт те же даты.
// Неверные frequency/dueDay - ошибка программиста, их отсекает валидация активности.
func Sequence(f Frequency, dueDay int, from time.Time, count int) iter.Seq[time.Time] {
	w, ok := windows[f]
	if !ok {
		panic(fmt.Sprintf("recurrence: нет правила для %q", f))
	}
	if err := ValidateDueDay(f, dueDay); err != nil {
		panic("recurrence: " + err.Error())
	}

	return func(yield func(time.Time) bool) {
		today := calendar.Day(from)
		anchor := w.start(today)

		for produced := 0; produced < count; {
			due := w.due(anchor, dueDay)
			anchor = w.next(anchor)

			// срок текущего окна мог уже пройти - тогда начинаем со следующего
			if !calendar.After(due, today) {
				continue
			}
			if !yield(due) {
				return
			}
			produced++
		}
	}
}

// NextDueDates - computeNextDueDates: ровно count дат по возрастанию.
func NextDueDates(f Frequency, dueDay int, from time.Time, count int) []time.Time {
	if count <= 0 {
		return []time.Time{}
	}
	dates := make([]time.Time, 0, count)
	for due := range Sequence(f, dueDay, from, count) {
		dates = append(dates, due)
	}
	return dates
}

// NextDueDate - ближайший срок после from.
func NextDueDate(f Frequency, dueDay int, from time.Time) (time.Time, error) {
	if !f.IsRecurring() {
		if f == AsNeeded {
			return time.Time{}, ErrNotRecurring
		}
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownFrequency, f)
	}
	if err := ValidateDueDay(f, dueDay); err != nil {
		return time.Time{}, err
	}
	for due := range Sequence(f, dueDay, from, 1) {
		return due, nil
	}
	return time.Time{}, fmt.Errorf("recurrence: пустая последовательность для %s/%d", f, dueDay)
}
