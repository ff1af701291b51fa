package recurrence

import (
	"errors"
	"fmt"
	"strings"
)

type Frequency string

const (
	Weekly      Frequency = "weekly"
	Fortnightly Frequency = "fortnightly"
	Monthly     Frequency = "monthly"
	HalfYearly  Frequency = "half_yearly"
	Annually    Frequency = "annually"
	AsNeeded    Frequency = "as_needed"
)

var ErrUnknownFrequency = errors.New("неизвестная периодичность")
var ErrNotRecurring = errors.New("периодичность as_needed не порождает дат")

// Frequencies перечисляет все классы в порядке от короткого периода к длинному.
func Frequencies() []Frequency {
	return []Frequency{Weekly, Fortnightly, Monthly, HalfYearly, Annually, AsNeeded}
}

func (f Frequency) Valid() bool {
	switch f {
	case Weekly, Fortnightly, Monthly, HalfYearly, Annually, AsNeeded:
		return true
	}
	return false
}

func (f Frequency) IsRecurring() bool {
	return f.Valid() && f != AsNeeded
}

// MaxDueDay - верхняя граница dueDay и окон grace/reminder для класса.
// Для as_needed ограничение - один год.
func MaxDueDay(f Frequency) int {
	switch f {
	case Weekly:
		return 7
	case Fortnightly:
		return 15
	case Monthly:
		return 31
	case HalfYearly:
		return 183
	case Annually, AsNeeded:
		return 365
	}
	return 0
}

func ValidateDueDay(f Frequency, dueDay int) error {
	if !f.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownFrequency, f)
	}
	if f == AsNeeded {
		return nil
	}
	if limit := MaxDueDay(f); dueDay < 1 || dueDay > limit {
		return fmt.Errorf("due_day %d вне диапазона 1..%d для %s", dueDay, limit, f)
	}
	return nil
}

// ParseFrequency понимает как канонические значения, так и подписи из админки
// ("Half Yearly", "HalfYearly", "half-yearly", "As Needed").
func ParseFrequency(raw string) (Frequency, error) {
	norm := strings.ToLower(strings.TrimSpace(raw))
	norm = strings.NewReplacer(" ", "", "-", "", "_", "").Replace(norm)

	switch norm {
	case "weekly":
		return Weekly, nil
	case "fortnightly":
		return Fortnightly, nil
	case "monthly":
		return Monthly, nil
	case "halfyearly":
		return HalfYearly, nil
	case "annually", "yearly":
		return Annually, nil
	case "asneeded":
		return AsNeeded, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFrequency, raw)
}
