package calendar

import "time"

// все функции работают с календарными днями (полночь в локации аргумента)

// Date собирает дату на полночь в заданной локации.
func Date(year int, month time.Month, day int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

// Day отбрасывает время суток.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysIn возвращает количество дней в месяце.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampDay возвращает день day месяца, либо последний день месяца, если day в него не помещается.
func ClampDay(year int, month time.Month, day int, loc *time.Location) time.Time {
	if last := DaysIn(year, month); day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return Date(year, month, day, loc)
}

func AddDays(t time.Time, days int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+days, 0, 0, 0, 0, t.Location())
}

func AddMonths(t time.Time, months int) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
}

// DaysBetween считает целые календарные дни от a до b.
// Время суток игнорируется: одна и та же дата даёт 0.
func DaysBetween(from, to time.Time) int {
	to = to.In(from.Location())
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()

	// через UTC, чтобы переход на летнее время не съедал час
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// ISOWeekday: 1 = понедельник ... 7 = воскресенье
func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// HalfMonthStart - начало полумесячного окна (1-е или 16-е число), в котором лежит t.
func HalfMonthStart(t time.Time) time.Time {
	y, m, d := t.Date()
	if d >= 16 {
		return Date(y, m, 16, t.Location())
	}
	return Date(y, m, 1, t.Location())
}

func NextHalfMonth(start time.Time) time.Time {
	y, m, d := start.Date()
	if d >= 16 {
		return Date(y, m+1, 1, start.Location())
	}
	return Date(y, m, 16, start.Location())
}

// HalfMonthEnd - 15-е для первого окна, последний день месяца для второго.
func HalfMonthEnd(start time.Time) time.Time {
	y, m, d := start.Date()
	if d >= 16 {
		return Date(y, m, DaysIn(y, m), start.Location())
	}
	return Date(y, m, 15, start.Location())
}

// HalfYearStart - 1 января или 1 июля, смотря в каком полугодии t.
func HalfYearStart(t time.Time) time.Time {
	y, m, _ := t.Date()
	if m >= time.July {
		return Date(y, time.July, 1, t.Location())
	}
	return Date(y, time.January, 1, t.Location())
}

func NextHalfYear(start time.Time) time.Time {
	y, m, _ := start.Date()
	if m >= time.July {
		return Date(y+1, time.January, 1, start.Location())
	}
	return Date(y, time.July, 1, start.Location())
}

func HalfYearEnd(start time.Time) time.Time {
	y, m, _ := start.Date()
	if m >= time.July {
		return Date(y, time.December, 31, start.Location())
	}
	return Date(y, time.June, 30, start.Location())
}

// After сравнивает календарные дни, а не моменты времени.
func After(a, b time.Time) bool {
	return DaysBetween(b, a) > 0
}

func OnOrBefore(a, b time.Time) bool {
	return !After(a, b)
}
