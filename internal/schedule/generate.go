package schedule

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultExpression is used whenever generation cannot produce anything
// better: 09:00 every day.
const DefaultExpression = "0 9 * * *"

const wildcard = "*"

// Compiled is the result of Compile.
//
// Fallback is nil for a normal result. When the default expression had to be
// substituted it carries the reason (one of the Err* values), so callers can
// surface it instead of silently accepting the default.
type Compiled struct {
	Expr     string
	Fallback error
}

// Generate converts a structured schedule into a cron expression.
// It never fails; see Compile for the fallback reason.
func Generate(t Type, v Values) string {
	return Compile(t, v).Expr
}

// Compile is Generate plus the fallback reason.
func Compile(t Type, v Values) Compiled {
	v = v.Normalize(t)
	switch t {
	case EveryNMinutes:
		return ok(Expression{"*/" + strconv.Itoa(v.MinutesInterval), wildcard, wildcard, wildcard, wildcard})
	case Hourly:
		return ok(Expression{strconv.Itoa(v.MinuteOfHour), wildcard, wildcard, wildcard, wildcard})
	case Daily:
		return ok(Expression{strconv.Itoa(v.MinuteOfDay), strconv.Itoa(v.HourOfDay), wildcard, wildcard, wildcard})
	case SpecificTimes:
		if len(v.SpecificTimes) == 0 {
			return fallback(ErrNoTimes)
		}
		// Positional lists: the i-th minute belongs to the i-th hour.
		mins := make([]int, 0, len(v.SpecificTimes))
		hours := make([]int, 0, len(v.SpecificTimes))
		for _, p := range v.SpecificTimes {
			mins = append(mins, p.Minute)
			hours = append(hours, p.Hour)
		}
		return ok(Expression{joinInts(mins), joinInts(hours), wildcard, wildcard, wildcard})
	case Weekly:
		if len(v.DaysOfWeek) == 0 {
			return fallback(ErrNoDays)
		}
		return ok(Expression{strconv.Itoa(v.MinuteOfWeek), strconv.Itoa(v.HourOfWeek), wildcard, wildcard, joinInts(v.DaysOfWeek)})
	case Monthly:
		return ok(Expression{strconv.Itoa(v.MinuteOfMonth), strconv.Itoa(v.HourOfMonth), strconv.Itoa(v.DayOfMonth), wildcard, wildcard})
	case Custom:
		if v.RawExpression == "" {
			return fallback(ErrEmptyExpression)
		}
		return Compiled{Expr: v.RawExpression}
	default:
		return fallback(fmt.Errorf("%w: %d", ErrUnknownType, int(t)))
	}
}

func ok(e Expression) Compiled { return Compiled{Expr: e.String()} }

func fallback(reason error) Compiled {
	return Compiled{Expr: DefaultExpression, Fallback: reason}
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, ",")
}
