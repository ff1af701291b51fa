package recurrence_test

import (
	"complianceTracker/internal/calendar"
	"complianceTracker/internal/recurrence"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(y int, m time.Month, day int) time.Time {
	return calendar.Date(y, m, day, time.UTC)
}

// TestNextDueDates_Scenarios проверяет конкретные сценарии из админки
func TestNextDueDates_Scenarios(t *testing.T) {
	// 2024-06-10 - понедельник
	monday := time.Date(2024, time.June, 10, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name   string
		freq   recurrence.Frequency
		dueDay int
		from   time.Time
		want   []time.Time
	}{
		{
			name:   "weekly - wednesday of the same week",
			freq:   recurrence.Weekly,
			dueDay: 3,
			from:   monday,
			want:   []time.Time{d(2024, time.June, 12), d(2024, time.June, 19), d(2024, time.June, 26)},
		},
		{
			name:   "weekly - same weekday goes to next week",
			freq:   recurrence.Weekly,
			dueDay: 1,
			from:   monday,
			want:   []time.Time{d(2024, time.June, 17), d(2024, time.June, 24)},
		},
		{
			name:   "weekly - sunday",
			freq:   recurrence.Weekly,
			dueDay: 7,
			from:   d(2024, time.June, 16),
			want:   []time.Time{d(2024, time.June, 23), d(2024, time.June, 30)},
		},
		{
			name:   "monthly - clamp to february end",
			freq:   recurrence.Monthly,
			dueDay: 31,
			from:   d(2024, time.February, 10),
			want:   []time.Time{d(2024, time.February, 29), d(2024, time.March, 31), d(2024, time.April, 30), d(2024, time.May, 31)},
		},
		{
			name:   "monthly - clamp in common year",
			freq:   recurrence.Monthly,
			dueDay: 30,
			from:   d(2023, time.February, 10),
			want:   []time.Time{d(2023, time.February, 28), d(2023, time.March, 30)},
		},
		{
			name:   "monthly - day already passed",
			freq:   recurrence.Monthly,
			dueDay: 5,
			from:   d(2024, time.February, 10),
			want:   []time.Time{d(2024, time.March, 5), d(2024, time.April, 5)},
		},
		{
			name:   "monthly - due today is skipped",
			freq:   recurrence.Monthly,
			dueDay: 10,
			from:   d(2024, time.February, 10),
			want:   []time.Time{d(2024, time.March, 10)},
		},
		{
			name:   "monthly - year rollover",
			freq:   recurrence.Monthly,
			dueDay: 15,
			from:   d(2024, time.December, 20),
			want:   []time.Time{d(2025, time.January, 15), d(2025, time.February, 15)},
		},
		{
			name:   "fortnightly - alternates windows",
			freq:   recurrence.Fortnightly,
			dueDay: 5,
			from:   d(2024, time.June, 3),
			want:   []time.Time{d(2024, time.June, 5), d(2024, time.June, 20), d(2024, time.July, 5), d(2024, time.July, 20)},
		},
		{
			name:   "fortnightly - current window passed",
			freq:   recurrence.Fortnightly,
			dueDay: 5,
			from:   d(2024, time.June, 10),
			want:   []time.Time{d(2024, time.June, 20), d(2024, time.July, 5), d(2024, time.July, 20)},
		},
		{
			name:   "fortnightly - second window clamped in february",
			freq:   recurrence.Fortnightly,
			dueDay: 15,
			from:   d(2023, time.February, 16),
			want:   []time.Time{d(2023, time.February, 28), d(2023, time.March, 15), d(2023, time.March, 30)},
		},
		{
			name:   "half yearly - alternates january and july",
			freq:   recurrence.HalfYearly,
			dueDay: 30,
			from:   d(2024, time.March, 1),
			want:   []time.Time{d(2024, time.July, 30), d(2025, time.January, 30), d(2025, time.July, 30)},
		},
		{
			name:   "half yearly - current half not yet due",
			freq:   recurrence.HalfYearly,
			dueDay: 90,
			from:   d(2024, time.January, 10),
			want:   []time.Time{d(2024, time.March, 30), d(2024, time.September, 28)},
		},
		{
			name:   "half yearly - last day clamped to june 30",
			freq:   recurrence.HalfYearly,
			dueDay: 183,
			from:   d(2023, time.January, 1),
			want:   []time.Time{d(2023, time.June, 30), d(2023, time.December, 30), d(2024, time.June, 30)},
		},
		{
			name:   "annually - offset from january first",
			freq:   recurrence.Annually,
			dueDay: 31,
			from:   d(2024, time.March, 1),
			want:   []time.Time{d(2025, time.January, 31), d(2026, time.January, 31)},
		},
		{
			name:   "annually - later this year",
			freq:   recurrence.Annually,
			dueDay: 365,
			from:   d(2023, time.March, 1),
			want:   []time.Time{d(2023, time.December, 31), d(2024, time.December, 30)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := recurrence.NextDueDates(tt.freq, tt.dueDay, tt.from, len(tt.want))
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestNextDueDates_Monotonic - все даты строго возрастают и лежат после from
func TestNextDueDates_Monotonic(t *testing.T) {
	start := d(2023, time.January, 1)
	const count = 8

	for _, freq := range recurrence.Frequencies() {
		if !freq.IsRecurring() {
			continue
		}
		for dueDay := 1; dueDay <= recurrence.MaxDueDay(freq); dueDay++ {
			for offset := 0; offset < 800; offset += 13 {
				from := calendar.AddDays(start, offset)
				dates := recurrence.NextDueDates(freq, dueDay, from, count)

				require.Len(t, dates, count, "%s/%d from %s", freq, dueDay, from)
				assert.True(t, calendar.After(dates[0], from), "%s/%d from %s: %s", freq, dueDay, from, dates[0])
				for i := 1; i < len(dates); i++ {
					assert.True(t, dates[i].After(dates[i-1]), "%s/%d from %s: %v", freq, dueDay, from, dates)
				}
			}
		}
	}
}

// TestNextDueDates_Alternation - соседние даты не попадают в одно полупериодное окно
func TestNextDueDates_Alternation(t *testing.T) {
	start := d(2023, time.January, 1)

	for dueDay := 1; dueDay <= 15; dueDay++ {
		for offset := 0; offset < 400; offset += 7 {
			dates := recurrence.NextDueDates(recurrence.Fortnightly, dueDay, calendar.AddDays(start, offset), 6)
			for i := 1; i < len(dates); i++ {
				prev := calendar.HalfMonthStart(dates[i-1])
				assert.Equal(t, calendar.NextHalfMonth(prev), calendar.HalfMonthStart(dates[i]),
					"fortnightly/%d: %v", dueDay, dates)
			}
		}
	}

	for _, dueDay := range []int{1, 60, 181, 182, 183} {
		for offset := 0; offset < 1200; offset += 29 {
			dates := recurrence.NextDueDates(recurrence.HalfYearly, dueDay, calendar.AddDays(start, offset), 6)
			for i := 1; i < len(dates); i++ {
				prev := calendar.HalfYearStart(dates[i-1])
				assert.Equal(t, calendar.NextHalfYear(prev), calendar.HalfYearStart(dates[i]),
					"half_yearly/%d: %v", dueDay, dates)
			}
		}
	}
}

func TestSequence_Restartable(t *testing.T) {
	seq := recurrence.Sequence(recurrence.Monthly, 31, d(2024, time.February, 10), 3)

	var first, second []time.Time
	for due := range seq {
		first = append(first, due)
	}
	for due := range seq {
		second = append(second, due)
	}
	assert.Equal(t, first, second)
	assert.Len(t, first, 3)
}

func TestSequence_EarlyStop(t *testing.T) {
	seen := 0
	for range recurrence.Sequence(recurrence.Weekly, 2, d(2024, time.June, 10), 100) {
		seen++
		if seen == 2 {
			break
		}
	}
	assert.Equal(t, 2, seen)
}

func TestNextDueDates_ZeroCount(t *testing.T) {
	assert.Empty(t, recurrence.NextDueDates(recurrence.Monthly, 1, d(2024, time.June, 10), 0))
	assert.Empty(t, recurrence.NextDueDates(recurrence.Monthly, 1, d(2024, time.June, 10), -3))
}

func TestSequence_PanicsOnInvalidInput(t *testing.T) {
	assert.Panics(t, func() { recurrence.Sequence(recurrence.Weekly, 8, d(2024, time.June, 10), 1) })
	assert.Panics(t, func() { recurrence.Sequence(recurrence.AsNeeded, 1, d(2024, time.June, 10), 1) })
	assert.Panics(t, func() { recurrence.Sequence("daily", 1, d(2024, time.June, 10), 1) })
}

func TestNextDueDate(t *testing.T) {
	due, err := recurrence.NextDueDate(recurrence.Monthly, 31, d(2024, time.February, 10))
	require.NoError(t, err)
	assert.Equal(t, d(2024, time.February, 29), due)

	_, err = recurrence.NextDueDate(recurrence.AsNeeded, 0, d(2024, time.February, 10))
	assert.ErrorIs(t, err, recurrence.ErrNotRecurring)

	_, err = recurrence.NextDueDate(recurrence.Monthly, 32, d(2024, time.February, 10))
	assert.Error(t, err)

	_, err = recurrence.NextDueDate("daily", 1, d(2024, time.February, 10))
	assert.ErrorIs(t, err, recurrence.ErrUnknownFrequency)
}

func TestNextDueDates_KeepsLocation(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	from := time.Date(2024, time.June, 10, 23, 0, 0, 0, loc)

	dates := recurrence.NextDueDates(recurrence.Weekly, 2, from, 1)
	require.Len(t, dates, 1)
	assert.Equal(t, time.Date(2024, time.June, 11, 0, 0, 0, 0, loc), dates[0])
}

func TestValidateDueDay(t *testing.T) {
	tests := []struct {
		freq    recurrence.Frequency
		dueDay  int
		wantErr bool
	}{
		{recurrence.Weekly, 1, false},
		{recurrence.Weekly, 7, false},
		{recurrence.Weekly, 8, true},
		{recurrence.Weekly, 0, true},
		{recurrence.Fortnightly, 15, false},
		{recurrence.Fortnightly, 16, true},
		{recurrence.Monthly, 31, false},
		{recurrence.Monthly, 32, true},
		{recurrence.HalfYearly, 183, false},
		{recurrence.HalfYearly, 184, true},
		{recurrence.Annually, 365, false},
		{recurrence.Annually, 366, true},
		{recurrence.AsNeeded, 0, false},
		{"daily", 1, true},
	}

	for _, tt := range tests {
		err := recurrence.ValidateDueDay(tt.freq, tt.dueDay)
		if tt.wantErr {
			assert.Error(t, err, "%s/%d", tt.freq, tt.dueDay)
		} else {
			assert.NoError(t, err, "%s/%d", tt.freq, tt.dueDay)
		}
	}
}

func TestParseFrequency(t *testing.T) {
	tests := map[string]recurrence.Frequency{
		"Weekly":      recurrence.Weekly,
		"fortnightly": recurrence.Fortnightly,
		" Monthly ":   recurrence.Monthly,
		"Half Yearly": recurrence.HalfYearly,
		"half-yearly": recurrence.HalfYearly,
		"HalfYearly":  recurrence.HalfYearly,
		"Annually":    recurrence.Annually,
		"yearly":      recurrence.Annually,
		"As Needed":   recurrence.AsNeeded,
		"as_needed":   recurrence.AsNeeded,
	}
	for raw, want := range tests {
		got, err := recurrence.ParseFrequency(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := recurrence.ParseFrequency("daily")
	assert.ErrorIs(t, err, recurrence.ErrUnknownFrequency)
}
