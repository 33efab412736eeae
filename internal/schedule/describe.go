package schedule

import (
	"fmt"
	"strconv"
	"strings"
)

const describeFallbackPrefix = "cron expression: "

// Describe renders a cron expression as a short sentence. It is independent
// of Classify and never fails; anything it does not recognize is echoed back
// with a "cron expression:" prefix.
func Describe(cron string) string {
	e, err := ParseExpression(cron)
	if err != nil {
		return describeFallbackPrefix + cron
	}

	if isWild(e.Minute) && restWild(e) {
		return "every minute"
	}
	if m, ok := parseMinute(e.Minute); ok && restWild(e) {
		return "every hour at minute " + strconv.Itoa(m)
	}
	if isWild(e.DayOfMonth) && isWild(e.Month) && isWild(e.DayOfWeek) {
		if h, m, ok := parseHourMinute(e); ok {
			if h == 0 && m == 0 {
				return "daily at midnight"
			}
			return "daily at " + clock(h, m)
		}
	}
	return describeFallbackPrefix + cron
}

var weekdayNames = [...]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Summarize renders a classification as a sentence. Unlike Describe it knows
// every shape; Custom expressions are handed to Describe.
func Summarize(c Classification) string {
	v := c.Values
	switch c.Type {
	case EveryNMinutes:
		if v.MinutesInterval == 1 {
			return "every minute"
		}
		return fmt.Sprintf("every %d minutes", v.MinutesInterval)
	case Hourly:
		return "every hour at minute " + strconv.Itoa(v.MinuteOfHour)
	case Daily:
		if v.HourOfDay == 0 && v.MinuteOfDay == 0 {
			return "daily at midnight"
		}
		return "daily at " + clock(v.HourOfDay, v.MinuteOfDay)
	case SpecificTimes:
		parts := make([]string, len(v.SpecificTimes))
		for i, t := range v.SpecificTimes {
			parts[i] = t.String()
		}
		return "daily at " + strings.Join(parts, ", ")
	case Weekly:
		days := make([]string, 0, len(v.DaysOfWeek))
		for _, d := range v.DaysOfWeek {
			if d >= 0 && d < len(weekdayNames) {
				days = append(days, weekdayNames[d])
			}
		}
		return fmt.Sprintf("weekly on %s at %s", strings.Join(days, ", "), clock(v.HourOfWeek, v.MinuteOfWeek))
	case Monthly:
		return fmt.Sprintf("monthly on day %d at %s", v.DayOfMonth, clock(v.HourOfMonth, v.MinuteOfMonth))
	default:
		return Describe(v.RawExpression)
	}
}

func clock(h, m int) string { return fmt.Sprintf("%02d:%02d", h, m) }
