package schedule

import (
	"sort"
	"strconv"
	"strings"
)

// Classification is the best-matching structured form of a cron expression.
//
// Fallback is non-nil only when the input could not even be split into five
// fields; Type is then Daily at 09:00.
type Classification struct {
	Type     Type
	Values   Values
	Fallback error
}

// rule is one step of the classification chain. It reports false when the
// expression does not have its shape.
type rule func(e Expression) (Type, Values, bool)

// rules is evaluated in order; the first match wins. The order is part of the
// contract: e.g. "0 9 * * *" is Daily, never SpecificTimes.
var rules = []rule{
	matchEveryNMinutes,
	matchHourly,
	matchDaily,
	matchWeekly,
	matchMonthly,
	matchSpecificTimes,
}

// Classify maps a cron expression onto the schedule shape that best describes
// it, for pre-populating an editor. It never fails: expressions that match no
// shape come back as Custom with the original string.
func Classify(cron string) Classification {
	e, err := ParseExpression(cron)
	if err != nil {
		return Classification{
			Type:     Daily,
			Values:   Values{HourOfDay: 9, MinuteOfDay: 0},
			Fallback: err,
		}
	}
	for _, r := range rules {
		if t, v, ok := r(e); ok {
			return Classification{Type: t, Values: v}
		}
	}
	return Classification{Type: Custom, Values: Values{RawExpression: cron}}
}

func matchEveryNMinutes(e Expression) (Type, Values, bool) {
	if !restWild(e) {
		return TypeUnset, Values{}, false
	}
	n, ok := parseStep(e.Minute)
	if !ok || n < 1 || n > 59 {
		return TypeUnset, Values{}, false
	}
	return EveryNMinutes, Values{MinutesInterval: n}, true
}

func matchHourly(e Expression) (Type, Values, bool) {
	if !restWild(e) {
		return TypeUnset, Values{}, false
	}
	m, ok := parseMinute(e.Minute)
	if !ok {
		return TypeUnset, Values{}, false
	}
	return Hourly, Values{MinuteOfHour: m}, true
}

func matchDaily(e Expression) (Type, Values, bool) {
	if !isWild(e.DayOfMonth) || !isWild(e.Month) || !isWild(e.DayOfWeek) {
		return TypeUnset, Values{}, false
	}
	h, m, ok := parseHourMinute(e)
	if !ok {
		return TypeUnset, Values{}, false
	}
	return Daily, Values{HourOfDay: h, MinuteOfDay: m}, true
}

func matchWeekly(e Expression) (Type, Values, bool) {
	if !isWild(e.DayOfMonth) || !isWild(e.Month) || isWild(e.DayOfWeek) {
		return TypeUnset, Values{}, false
	}
	days, ok := parseList(e.DayOfWeek, 0, 6)
	if !ok {
		return TypeUnset, Values{}, false
	}
	h, m, ok := parseHourMinute(e)
	if !ok {
		return TypeUnset, Values{}, false
	}
	return Weekly, Values{HourOfWeek: h, MinuteOfWeek: m, DaysOfWeek: uniqueSorted(days)}, true
}

func matchMonthly(e Expression) (Type, Values, bool) {
	if !isWild(e.Month) || !isWild(e.DayOfWeek) {
		return TypeUnset, Values{}, false
	}
	dom, ok := parseInt(e.DayOfMonth, 1, 31)
	if !ok {
		return TypeUnset, Values{}, false
	}
	h, m, ok := parseHourMinute(e)
	if !ok {
		return TypeUnset, Values{}, false
	}
	return Monthly, Values{DayOfMonth: dom, HourOfMonth: h, MinuteOfMonth: m}, true
}

// matchSpecificTimes decodes the two parallel comma lists positionally.
//
// When both lists have more than one element and their lengths differ, pairs
// beyond the shorter list are dropped. A single-element list is broadcast
// against every element of the other list.
func matchSpecificTimes(e Expression) (Type, Values, bool) {
	if !isWild(e.DayOfMonth) || !isWild(e.Month) || !isWild(e.DayOfWeek) {
		return TypeUnset, Values{}, false
	}
	if !strings.Contains(e.Minute, ",") && !strings.Contains(e.Hour, ",") {
		return TypeUnset, Values{}, false
	}
	mins, ok := parseList(e.Minute, 0, 59)
	if !ok {
		return TypeUnset, Values{}, false
	}
	hours, ok := parseList(e.Hour, 0, 23)
	if !ok {
		return TypeUnset, Values{}, false
	}

	var times []TimeOfDay
	switch {
	case len(mins) == 1:
		for _, h := range hours {
			times = append(times, TimeOfDay{Hour: h, Minute: mins[0]})
		}
	case len(hours) == 1:
		for _, m := range mins {
			times = append(times, TimeOfDay{Hour: hours[0], Minute: m})
		}
	default:
		n := min(len(mins), len(hours))
		for i := 0; i < n; i++ {
			times = append(times, TimeOfDay{Hour: hours[i], Minute: mins[i]})
		}
	}
	return SpecificTimes, Values{SpecificTimes: times}, true
}

// ---- field predicates ----

func isWild(f string) bool { return f == wildcard }

func restWild(e Expression) bool {
	return isWild(e.Hour) && isWild(e.DayOfMonth) && isWild(e.Month) && isWild(e.DayOfWeek)
}

// parseInt accepts a plain decimal integer within [lo, hi].
func parseInt(f string, lo, hi int) (int, bool) {
	if f == "" {
		return 0, false
	}
	for i := 0; i < len(f); i++ {
		if f[i] < '0' || f[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(f)
	if err != nil || n < lo || n > hi {
		return 0, false
	}
	return n, true
}

func parseMinute(f string) (int, bool) { return parseInt(f, 0, 59) }

func parseHourMinute(e Expression) (hour, minute int, ok bool) {
	m, ok := parseMinute(e.Minute)
	if !ok {
		return 0, 0, false
	}
	h, ok := parseInt(e.Hour, 0, 23)
	if !ok {
		return 0, 0, false
	}
	return h, m, true
}

// parseStep accepts "*/N" and returns N.
func parseStep(f string) (int, bool) {
	rest, found := strings.CutPrefix(f, "*/")
	if !found {
		return 0, false
	}
	return parseInt(rest, 0, 1<<30)
}

// parseList accepts a single integer or a comma-separated list of integers,
// all within [lo, hi]. Order and duplicates are kept.
func parseList(f string, lo, hi int) ([]int, bool) {
	parts := strings.Split(f, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, ok := parseInt(p, lo, hi)
		if !ok {
			return nil, false
		}
		out = append(out, n)
	}
	return out, true
}

func uniqueSorted(xs []int) []int {
	seen := make(map[int]bool, len(xs))
	out := make([]int, 0, len(xs))
	for _, x := range xs {
		if !seen[x] {
			seen[x] = true
			out = append(out, x)
		}
	}
	sort.Ints(out)
	return out
}
