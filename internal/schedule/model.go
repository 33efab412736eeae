package schedule

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Type is the schedule shape an operator picks in the editor.
//
// The zero value means "unset"; Generate treats it like any unknown type.
type Type int

const (
	TypeUnset Type = iota
	EveryNMinutes
	Hourly
	Daily
	SpecificTimes
	Weekly
	Monthly
	Custom
)

var typeNames = map[Type]string{
	EveryNMinutes: "every_n_minutes",
	Hourly:        "hourly",
	Daily:         "daily",
	SpecificTimes: "specific_times",
	Weekly:        "weekly",
	Monthly:       "monthly",
	Custom:        "custom",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "unset"
}

// Valid reports whether t is one of the seven known shapes.
func (t Type) Valid() bool {
	_, ok := typeNames[t]
	return ok
}

// Types returns all known shapes in editor order.
func Types() []Type {
	return []Type{EveryNMinutes, Hourly, Daily, SpecificTimes, Weekly, Monthly, Custom}
}

// ParseType accepts the snake_case names returned by String.
// Dashes and case are ignored ("Every-N-Minutes" works).
func ParseType(s string) (Type, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "_")
	for t, name := range typeNames {
		if name == s {
			return t, true
		}
	}
	return TypeUnset, false
}

func (t Type) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *Type) UnmarshalText(b []byte) error {
	v, ok := ParseType(string(b))
	if !ok {
		return fmt.Errorf("unknown schedule type %q", string(b))
	}
	*t = v
	return nil
}

// TimeOfDay is one (hour, minute) pair of a SpecificTimes schedule.
type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

func (t TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute) }

// Values carries the payload of every shape. Only the fields used by the
// active Type are meaningful; the rest are ignored.
type Values struct {
	MinutesInterval int `json:"minutes_interval,omitempty"`

	MinuteOfHour int `json:"minute_of_hour,omitempty"`

	HourOfDay   int `json:"hour_of_day,omitempty"`
	MinuteOfDay int `json:"minute_of_day,omitempty"`

	SpecificTimes []TimeOfDay `json:"specific_times,omitempty"`

	HourOfWeek   int   `json:"hour_of_week,omitempty"`
	MinuteOfWeek int   `json:"minute_of_week,omitempty"`
	DaysOfWeek   []int `json:"days_of_week,omitempty"`

	DayOfMonth    int `json:"day_of_month,omitempty"`
	HourOfMonth   int `json:"hour_of_month,omitempty"`
	MinuteOfMonth int `json:"minute_of_month,omitempty"`

	RawExpression string `json:"raw_expression,omitempty"`
}

// Normalize clamps the fields used by t into their valid ranges.
// Out-of-range input is never rejected here; it is pulled to the nearest bound.
func (v Values) Normalize(t Type) Values {
	out := v
	switch t {
	case EveryNMinutes:
		out.MinutesInterval = clamp(v.MinutesInterval, 1, 59)
	case Hourly:
		out.MinuteOfHour = clampMinute(v.MinuteOfHour)
	case Daily:
		out.HourOfDay = clampHour(v.HourOfDay)
		out.MinuteOfDay = clampMinute(v.MinuteOfDay)
	case SpecificTimes:
		out.SpecificTimes = make([]TimeOfDay, 0, len(v.SpecificTimes))
		for _, p := range v.SpecificTimes {
			out.SpecificTimes = append(out.SpecificTimes, TimeOfDay{Hour: clampHour(p.Hour), Minute: clampMinute(p.Minute)})
		}
	case Weekly:
		out.HourOfWeek = clampHour(v.HourOfWeek)
		out.MinuteOfWeek = clampMinute(v.MinuteOfWeek)
		out.DaysOfWeek = normalizeDays(v.DaysOfWeek)
	case Monthly:
		out.DayOfMonth = clamp(v.DayOfMonth, 1, 31)
		out.HourOfMonth = clampHour(v.HourOfMonth)
		out.MinuteOfMonth = clampMinute(v.MinuteOfMonth)
	case Custom:
		out.RawExpression = strings.TrimSpace(v.RawExpression)
	}
	return out
}

// normalizeDays clamps to 0..6, drops duplicates and sorts ascending.
func normalizeDays(days []int) []int {
	if len(days) == 0 {
		return nil
	}
	seen := make(map[int]bool, len(days))
	out := make([]int, 0, len(days))
	for _, d := range days {
		d = clamp(d, 0, 6)
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Ints(out)
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampHour(v int) int   { return clamp(v, 0, 23) }
func clampMinute(v int) int { return clamp(v, 0, 59) }

// Fallback reasons. Generate and Classify never return errors; they report
// why a default was substituted through these values instead.
var (
	ErrUnknownType     = errors.New("unknown schedule type")
	ErrNoTimes         = errors.New("specific times list is empty")
	ErrNoDays          = errors.New("days of week set is empty")
	ErrEmptyExpression = errors.New("custom expression is empty")
	ErrFieldCount      = errors.New("cron expression must have 5 fields")
)

// Validate is the pre-flight check for form layers: it reports input the
// generator would silently replace with the default expression.
// Range problems are not errors (Normalize clamps them).
func Validate(t Type, v Values) error {
	switch t {
	case EveryNMinutes, Hourly, Daily, Monthly:
		return nil
	case SpecificTimes:
		if len(v.SpecificTimes) == 0 {
			return ErrNoTimes
		}
		return nil
	case Weekly:
		if len(v.DaysOfWeek) == 0 {
			return ErrNoDays
		}
		return nil
	case Custom:
		raw := strings.TrimSpace(v.RawExpression)
		if raw == "" {
			return ErrEmptyExpression
		}
		if _, err := ParseExpression(raw); err != nil {
			return err
		}
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrUnknownType, int(t))
	}
}

// Expression is a parsed 5-field cron expression. Fields are kept as raw
// strings; the predicates in classify.go interpret them.
type Expression struct {
	Minute     string
	Hour       string
	DayOfMonth string
	Month      string
	DayOfWeek  string
}

// ParseExpression splits s on whitespace and requires exactly five fields.
func ParseExpression(s string) (Expression, error) {
	f := strings.Fields(s)
	if len(f) != 5 {
		return Expression{}, fmt.Errorf("%w: got %d in %q", ErrFieldCount, len(f), s)
	}
	return Expression{Minute: f[0], Hour: f[1], DayOfMonth: f[2], Month: f[3], DayOfWeek: f[4]}, nil
}

func (e Expression) String() string {
	return strings.Join([]string{e.Minute, e.Hour, e.DayOfMonth, e.Month, e.DayOfWeek}, " ")
}
